package charts

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/acme-corp/pir-bench-tools/internal/results"
)

// minGridValues is the number of distinct sizes each axis needs before a
// grid chart says anything.
const minGridValues = 3

// sizeGrid is one metric over the (record size, db size) grid: columns are
// record sizes, rows are db sizes. Several rows at one grid point are
// averaged; a point without rows is NaN.
type sizeGrid struct {
	records []float64
	dbs     []float64
	z       [][]float64
}

func newSizeGrid(t *results.Table, metric string) *sizeGrid {
	type key struct{ db, rs float64 }
	sums := make(map[key]float64)
	counts := make(map[key]int)
	dbSet := make(map[float64]bool)
	rsSet := make(map[float64]bool)

	for row := 0; row < t.Len(); row++ {
		db, ok1 := t.Float(results.ColDBSize, row)
		rs, ok2 := t.Float(results.ColRecordSize, row)
		v, ok3 := t.Float(metric, row)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		k := key{db, rs}
		sums[k] += v
		counts[k]++
		dbSet[db], rsSet[rs] = true, true
	}

	g := &sizeGrid{records: sortedKeys(rsSet), dbs: sortedKeys(dbSet)}
	g.z = make([][]float64, len(g.dbs))
	for r, db := range g.dbs {
		g.z[r] = make([]float64, len(g.records))
		for c, rs := range g.records {
			k := key{db, rs}
			if n := counts[k]; n > 0 {
				g.z[r][c] = sums[k] / float64(n)
			} else {
				g.z[r][c] = math.NaN()
			}
		}
	}
	return g
}

func sortedKeys(m map[float64]bool) []float64 {
	out := make([]float64, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func (g *sizeGrid) Dims() (c, r int) { return len(g.records), len(g.dbs) }
func (g *sizeGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *sizeGrid) X(c int) float64 { return float64(c) }
func (g *sizeGrid) Y(r int) float64 { return float64(r) }

func (g *sizeGrid) Min() float64 {
	lo, _ := g.bounds()
	return lo
}

func (g *sizeGrid) Max() float64 {
	_, hi := g.bounds()
	return hi
}

// bounds returns the z range ignoring NaN cells, widened when flat.
func (g *sizeGrid) bounds() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range g.z {
		for _, v := range row {
			if !math.IsNaN(v) {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func sizeTicks(values []float64) plot.ConstantTicks {
	ticks := make(plot.ConstantTicks, len(values))
	for i, v := range values {
		ticks[i] = plot.Tick{Value: float64(i), Label: strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return ticks
}

// shades samples the Kindlmann map at n evenly spaced points.
type shades []color.Color

func (s shades) Colors() []color.Color { return s }

func newShades(n int) shades {
	cm := moreland.Kindlmann()
	cm.SetMax(1)
	cm.SetMin(0)
	out := make(shades, n)
	for i := range out {
		out[i] = shadeAt(cm, float64(i)/float64(n-1))
	}
	return out
}

func shadeAt(cm palette.ColorMap, v float64) color.Color {
	c, err := cm.At(math.Max(0, math.Min(v, 1)))
	if err != nil {
		return color.Black
	}
	return c
}

// combination draws a heatmap and a 3-D surface per timing metric, or
// generic charts when the grid is too sparse.
func (j *job) combination() error {
	if !j.t.Has(results.ColDBSize, results.ColRecordSize) ||
		j.t.Distinct(results.ColDBSize) < minGridValues ||
		j.t.Distinct(results.ColRecordSize) < minGridValues {
		j.r.Logger.Printf("Not enough unique values for heatmaps. Creating regular plots instead.")
		stem := KindCombination.String()
		if j.avg {
			stem += "_avg"
		}
		return j.generic(stem)
	}

	metrics := present(j.t, results.TimingColumns)
	for _, m := range metrics {
		g := newSizeGrid(j.t, m)
		j.draw(j.name("heatmap", m), gridW, gridH, func() (*plot.Plot, error) {
			return j.heatmap(g, m)
		})
	}
	for _, m := range metrics {
		g := newSizeGrid(j.t, m)
		j.draw(j.name("3d", m), gridW, gridH, func() (*plot.Plot, error) {
			return j.surface(g, m)
		})
	}
	return nil
}

func (j *job) heatmap(g *sizeGrid, metric string) (*plot.Plot, error) {
	lo, hi := g.bounds()
	h := plotter.NewHeatMap(g, newShades(255))
	h.Min, h.Max = lo, hi
	h.NaN = color.Transparent

	var (
		xys  plotter.XYs
		text []string
	)
	for r := range g.dbs {
		for c := range g.records {
			if v := g.z[r][c]; !math.IsNaN(v) {
				xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
				text = append(text, fmt.Sprintf("%.2f", v))
			}
		}
	}
	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = j.title(Label(metric) + " for Different DB and Record Sizes")
	p.X.Label.Text = "Record Size"
	p.Y.Label.Text = "Database Size"
	p.X.Tick.Marker = sizeTicks(g.records)
	p.Y.Tick.Marker = sizeTicks(g.dbs)
	p.Add(h, labels)
	return p, nil
}

// Viewing angles of the projected surface.
const (
	azimuth   = -math.Pi / 4
	elevation = math.Pi / 6
)

// surface draws the metric as a shaded surface over log10(db size) and
// log2(record size), projected to the page and painted back to front.
func (j *job) surface(g *sizeGrid, metric string) (*plot.Plot, error) {
	nc, nr := g.Dims()
	xs := axisPositions(g.dbs, math.Log10)
	ys := axisPositions(g.records, math.Log2)
	lo, hi := g.bounds()
	cm := moreland.Kindlmann()
	cm.SetMax(1)
	cm.SetMin(0)

	project := func(x, y, z float64) plotter.XY {
		z = (z - lo) / (hi - lo)
		px := x*math.Cos(azimuth) - y*math.Sin(azimuth)
		depth := x*math.Sin(azimuth) + y*math.Cos(azimuth)
		return plotter.XY{X: px, Y: z*math.Cos(elevation) + depth*math.Sin(elevation)}
	}

	type quad struct {
		depth float64
		pts   plotter.XYs
		z     float64
	}
	var quads []quad
	for r := 0; r+1 < nr; r++ {
		for c := 0; c+1 < nc; c++ {
			corners := [4][2]int{{r, c}, {r, c + 1}, {r + 1, c + 1}, {r + 1, c}}
			var (
				pts   plotter.XYs
				sum   float64
				depth float64
				ok    = true
			)
			for _, rc := range corners {
				z := g.z[rc[0]][rc[1]]
				if math.IsNaN(z) {
					ok = false
					break
				}
				x, y := xs[rc[0]], ys[rc[1]]
				pts = append(pts, project(x, y, z))
				sum += z
				depth += x*math.Sin(azimuth) + y*math.Cos(azimuth)
			}
			if ok {
				quads = append(quads, quad{depth: depth, pts: pts, z: sum / 4})
			}
		}
	}
	if len(quads) == 0 {
		return nil, errNoPoints
	}
	sort.SliceStable(quads, func(a, b int) bool { return quads[a].depth > quads[b].depth })

	p := plot.New()
	p.Title.Text = j.title("3D View of " + Label(metric))
	p.HideAxes()
	for _, q := range quads {
		poly, err := plotter.NewPolygon(q.pts)
		if err != nil {
			return nil, err
		}
		poly.Color = shadeAt(cm, (q.z-lo)/(hi-lo))
		poly.LineStyle.Width = vg.Points(0.5)
		poly.LineStyle.Color = color.Gray{Y: 0x40}
		p.Add(poly)
	}

	axes, err := plotter.NewLabels(plotter.XYLabels{
		XYs: plotter.XYs{
			project(1.1, 0, lo),
			project(0, 1.1, lo),
			project(0, 0, hi),
		},
		Labels: []string{
			"Database Size (log10)",
			"Record Size (log2)",
			j.unitRuns(Label(metric) + " (ms)"),
		},
	})
	if err != nil {
		return nil, err
	}
	p.Add(axes)
	return p, nil
}

// unitRuns suffixes a z label with the run count for averaged data.
func (j *job) unitRuns(s string) string {
	if j.avg {
		return fmt.Sprintf("%s - Avg. of %d runs", s, j.runs)
	}
	return s
}

// axisPositions maps sizes to [0, 1] on a log axis, or by rank when a size
// is not positive.
func axisPositions(values []float64, logf func(float64) float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v <= 0 {
			for k := range out {
				out[k] = float64(k)
			}
			return normalize(out)
		}
		out[i] = logf(v)
	}
	return normalize(out)
}

func normalize(values []float64) []float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi <= lo {
		hi = lo + 1
	}
	for i, v := range values {
		values[i] = (v - lo) / (hi - lo)
	}
	return values
}

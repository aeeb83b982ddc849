package charts

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/acme-corp/pir-bench-tools/internal/results"
)

var errNoPoints = errors.New("no numeric points to plot")

// sweepAxis describes the swept size of a single-parameter benchmark.
type sweepAxis struct {
	col    string
	prefix string
	label  string
	name   string
	base2  bool
}

var (
	dbSizeAxis = sweepAxis{
		col:    results.ColDBSize,
		prefix: "dbsize",
		label:  "Database Size (entries)",
		name:   "Database Size",
	}
	recordSizeAxis = sweepAxis{
		col:    results.ColRecordSize,
		prefix: "recordsize",
		label:  "Record Size (bits)",
		name:   "Record Size",
		base2:  true,
	}
)

// sweep draws the timing lines, the stacked phase breakdown and the network
// lines, each only when the table carries the columns for it.
func (j *job) sweep(ax sweepAxis, w, h vg.Length) {
	if !j.t.Has(ax.col) {
		j.r.Logger.Printf("Skipping %s charts: no %s column", ax.prefix, ax.col)
		return
	}
	rows := j.t.SortedRows(ax.col)

	if cols := present(j.t, results.TimingColumns); len(cols) > 0 {
		j.draw(j.name(ax.prefix, "times"), w, h, func() (*plot.Plot, error) {
			return j.lines(ax, rows, cols, "PIR Operation Times vs "+ax.name, j.unit("Time (ms)"))
		})
	}
	if j.t.Has(results.TimingColumns...) {
		j.draw(j.name(ax.prefix, "time_breakdown"), w, h, func() (*plot.Plot, error) {
			return j.breakdown(ax, rows)
		})
	}
	if cols := present(j.t, results.NetworkColumns); len(cols) > 0 {
		j.draw(j.name(ax.prefix, "network"), w, h, func() (*plot.Plot, error) {
			return j.lines(ax, rows, cols, "PIR Network Usage vs "+ax.name, j.unit("Data Transfer (KB)"))
		})
	}
}

func present(t *results.Table, cols []string) []string {
	var out []string
	for _, c := range cols {
		if t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// points pairs x and y over rows, skipping rows where either is missing.
func points(t *results.Table, x, y string, rows []int) plotter.XYs {
	pts := make(plotter.XYs, 0, len(rows))
	for _, row := range rows {
		xv, okx := t.Float(x, row)
		yv, oky := t.Float(y, row)
		if okx && oky {
			pts = append(pts, plotter.XY{X: xv, Y: yv})
		}
	}
	return pts
}

func (j *job) lines(ax sweepAxis, rows []int, cols []string, title, ylabel string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = j.title(title)
	p.X.Label.Text = ax.label
	p.Y.Label.Text = ylabel
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var xs, ys []float64
	for i, col := range cols {
		pts := points(j.t, ax.col, col, rows)
		if len(pts) == 0 {
			continue
		}
		l, s, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		l.LineStyle.Color = plotutil.Color(i)
		l.LineStyle.Width = vg.Points(2)
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Shape = plotutil.Shape(i)
		p.Add(l, s)
		p.Legend.Add(Label(col), l, s)

		for _, pt := range pts {
			xs = append(xs, pt.X)
			ys = append(ys, pt.Y)
		}
	}
	if len(xs) == 0 {
		return nil, errNoPoints
	}

	if !logAxis(&p.X, xs, ax.base2) {
		j.r.Logger.Printf("%s: non-positive %s, using a linear x axis", title, ax.col)
	}
	if !logAxis(&p.Y, ys, false) {
		j.r.Logger.Printf("%s: non-positive values, using a linear y axis", title)
	}
	return p, nil
}

// breakdown stacks the four phase timings per swept size.
func (j *job) breakdown(ax sweepAxis, rows []int) (*plot.Plot, error) {
	var (
		valid  []int
		labels []string
	)
	for _, row := range rows {
		if x, ok := j.t.Float(ax.col, row); ok {
			valid = append(valid, row)
			labels = append(labels, strconv.FormatFloat(x, 'f', -1, 64))
		}
	}
	if len(valid) == 0 {
		return nil, errNoPoints
	}

	p := plot.New()
	p.Title.Text = j.title("PIR Operation Time Breakdown")
	p.X.Label.Text = ax.label
	p.Y.Label.Text = j.unit("Time (ms)")
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	var below *plotter.BarChart
	for i, col := range results.TimingColumns {
		vals := make(plotter.Values, len(valid))
		for k, row := range valid {
			if v, ok := j.t.Float(col, row); ok {
				vals[k] = v
			}
		}
		b, err := plotter.NewBarChart(vals, vg.Points(24))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		b.Color = phaseColors[i]
		b.LineStyle.Width = 0
		if below != nil {
			b.StackOn(below)
		}
		p.Add(b)
		p.Legend.Add(phaseLabels[i], b)
		below = b
	}
	p.NominalX(labels...)
	return p, nil
}

// logAxis switches a to a log scale when every value is positive. Base-2
// axes get ticks at the powers of two spanning the data.
func logAxis(a *plot.Axis, values []float64, base2 bool) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v <= 0 {
			return false
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}

	a.Scale = plot.LogScale{}
	if !base2 {
		a.Tick.Marker = plot.LogTicks{Prec: -1}
		return true
	}

	var ticks plot.ConstantTicks
	for e := math.Floor(math.Log2(lo)); e <= math.Ceil(math.Log2(hi)); e++ {
		v := math.Exp2(e)
		ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	a.Tick.Marker = ticks
	return true
}

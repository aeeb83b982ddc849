package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/acme-corp/pir-bench-tools/internal/results"
)

// xCandidates are tried in order as the x axis of generic charts.
var xCandidates = []string{results.ColDBSize, results.ColRecordSize, "size", "count"}

// logSpan is the max/min ratio above which an axis goes logarithmic.
const logSpan = 100

// genericAxis picks the x column: the first size-like column, else the first
// numeric one.
func genericAxis(t *results.Table) string {
	for _, c := range xCandidates {
		if t.Has(c) {
			return c
		}
	}
	if numeric := t.NumericColumns(); len(numeric) > 0 {
		return numeric[0]
	}
	return ""
}

// generic draws one chart per numeric column against the detected x axis.
func (j *job) generic(stem string) error {
	j.r.Logger.Printf("Creating generic plots for %s data...", stem)

	x := genericAxis(j.t)
	if x == "" {
		return ErrNoAxis
	}
	rows := j.t.SortedRows(x)

	for _, col := range j.t.NumericColumns() {
		if col == x || col == results.ColRunCount || col == results.ColRunID {
			continue
		}
		file := fmt.Sprintf("%s_%s_vs_%s.png", stem, col, x)
		j.draw(file, genericW, genericH, func() (*plot.Plot, error) {
			return j.versus(x, col, rows)
		})
	}
	return nil
}

func (j *job) versus(x, y string, rows []int) (*plot.Plot, error) {
	pts := points(j.t, x, y, rows)
	if len(pts) == 0 {
		return nil, errNoPoints
	}

	p := plot.New()
	title := Label(y) + " vs " + Label(x)
	if n, ok := j.t.RunCount(); ok {
		title = fmt.Sprintf("%s (Avg. of %d runs)", title, n)
	}
	p.Title.Text = title
	p.X.Label.Text = Label(x)
	p.Y.Label.Text = Label(y)
	p.Add(plotter.NewGrid())

	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	l.LineStyle.Color = plotutil.Color(0)
	l.LineStyle.Width = vg.Points(2)
	s.GlyphStyle.Color = plotutil.Color(0)
	p.Add(l, s)

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}
	if wide(xs) && !logAxis(&p.X, xs, false) {
		j.r.Logger.Printf("%s: %s spans a wide range but is not positive, keeping a linear axis", title, x)
	}
	if wide(ys) && !logAxis(&p.Y, ys, false) {
		j.r.Logger.Printf("%s: %s spans a wide range but is not positive, keeping a linear axis", title, y)
	}
	return p, nil
}

// wide reports whether values span more than two orders of magnitude.
func wide(values []float64) bool {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return hi/math.Max(lo, 1) > logSpan
}

package charts

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/acme-corp/pir-bench-tools/internal/config"
	"github.com/acme-corp/pir-bench-tools/internal/fileio"
	"github.com/acme-corp/pir-bench-tools/internal/results"
)

// ErrNoAxis is returned when a generic table has no column to plot against.
var ErrNoAxis = errors.New("no suitable x-axis column found")

// Renderer draws charts into OutDir.
type Renderer struct {
	OutDir string
	// Width and Height size the sweep charts. Heatmaps and generic charts
	// use their own fixed sizes.
	Width  vg.Length
	Height vg.Length
	DPI    int
	Logger *log.Logger
}

// NewRenderer builds a renderer from the plot config. A nil logger uses
// log.Default().
func NewRenderer(cfg config.PlotConfig, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{
		OutDir: cfg.OutputDir,
		Width:  vg.Length(cfg.WidthIn) * vg.Inch,
		Height: vg.Length(cfg.HeightIn) * vg.Inch,
		DPI:    cfg.DPI,
		Logger: logger,
	}
}

var (
	genericW, genericH = 10 * vg.Inch, 6 * vg.Inch
	gridW, gridH       = 12 * vg.Inch, 10 * vg.Inch
)

// job is one Render call.
type job struct {
	r     *Renderer
	t     *results.Table
	runs  int
	avg   bool
	files []string
}

// Render draws every chart of the spec's kind and returns the files it
// wrote. A chart that fails is logged and skipped.
func (r *Renderer) Render(t *results.Table, spec Spec) ([]string, error) {
	j := &job{r: r, t: t}
	if r.Width <= 0 || r.Height <= 0 {
		r.Width, r.Height = 12*vg.Inch, 8*vg.Inch
	}
	if n, ok := t.RunCount(); ok {
		j.runs = n
	}
	j.avg = spec.Averaged && t.Has(results.ColRunCount)

	if spec.Averaged && !j.avg {
		r.Logger.Printf("No %s column found, treating %s as single-run data", results.ColRunCount, spec.Stem)
	}
	if j.avg {
		r.Logger.Printf("Plotting averaged data with %d runs per data point", j.runs)
	}

	var err error
	switch spec.Kind {
	case KindDBSize:
		j.sweep(dbSizeAxis, r.Width, r.Height)
	case KindRecordSize:
		j.sweep(recordSizeAxis, r.Width, r.Height)
	case KindCombination:
		err = j.combination()
	default:
		err = j.generic(spec.Stem)
	}
	return j.files, err
}

// name prefixes the chart with the sweep kind and the averaged marker.
func (j *job) name(prefix, chart string) string {
	if j.avg {
		return prefix + "_avg_" + chart + ".png"
	}
	return prefix + "_" + chart + ".png"
}

func (j *job) title(s string) string {
	if j.avg {
		return fmt.Sprintf("%s (Avg. of %d runs)", s, j.runs)
	}
	return s
}

// unit suffixes a y-axis label for averaged data.
func (j *job) unit(s string) string {
	if j.avg {
		return s + " - Average of multiple runs"
	}
	return s
}

// draw builds and saves one chart, recovering from anything the build or the
// plot library throws.
func (j *job) draw(file string, w, h vg.Length, build func() (*plot.Plot, error)) {
	defer func() {
		if v := recover(); v != nil {
			j.r.Logger.Printf("Error creating %s: %v", file, v)
		}
	}()

	p, err := build()
	if err != nil {
		j.r.Logger.Printf("Error creating %s: %v", file, err)
		return
	}
	path, err := j.r.save(p, w, h, file)
	if err != nil {
		j.r.Logger.Printf("Error saving %s: %v", file, err)
		return
	}
	j.r.Logger.Printf("Created plot: %s", path)
	j.files = append(j.files, path)
}

func (r *Renderer) save(p *plot.Plot, w, h vg.Length, file string) (string, error) {
	path := filepath.Join(r.OutDir, file)
	dpi := r.DPI
	if dpi <= 0 {
		dpi = vgimg.DefaultDPI
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))

	out, err := fileio.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(out); err != nil {
		out.Close()
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// Label turns a column name into a display label: "query_time" is
// "Query Time".
func Label(col string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(col, "_", " "))
}

var phaseColors = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

var phaseLabels = []string{"Setup", "Query Building", "Query Answering", "Reconstruction"}

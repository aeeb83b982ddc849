// Package netsim estimates how long a PIR exchange takes on simulated
// network links, from the transfer sizes in averaged benchmark results.
package netsim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/acme-corp/pir-bench-tools/internal/config"
	"github.com/acme-corp/pir-bench-tools/internal/fileio"
	"github.com/acme-corp/pir-bench-tools/internal/results"
)

// RoundTrips is the number of latency-bound exchanges in one PIR query:
// hint download, query upload, answer download.
const RoundTrips = 3

// ErrNoSizes is returned for tables without db_size and record_size.
var ErrNoSizes = errors.New("table has no db_size/record_size columns")

// Scenario is a simulated link.
type Scenario struct {
	Name          string
	BandwidthMbps float64
	LatencyMs     float64
}

// FromConfig converts the configured scenarios.
func FromConfig(cfgs []config.ScenarioConfig) []Scenario {
	out := make([]Scenario, len(cfgs))
	for i, c := range cfgs {
		out[i] = Scenario{Name: c.Name, BandwidthMbps: c.BandwidthMbps, LatencyMs: c.LatencyMs}
	}
	return out
}

// Column is the output column holding this scenario's times:
// "Good Network (300 Mbps, 10ms)" writes "good_network_time_s".
func (s Scenario) Column() string {
	word, _, _ := strings.Cut(strings.TrimSpace(s.Name), " ")
	return strings.ToLower(word) + "_network_time_s"
}

// Row is one analysed benchmark row. Sizes are kept as written.
type Row struct {
	DBSize       string
	RecordSize   string
	OfflineKB    float64
	OnlineDownKB float64
	OnlineUpKB   float64
	// Times holds seconds per scenario, in scenario order.
	Times []float64
}

// TransferKB is the total data moved by one query.
func (r Row) TransferKB() float64 {
	return r.OfflineKB + r.OnlineDownKB + r.OnlineUpKB
}

// Time is the seconds needed to move kb kilobytes over s, plus the latency
// of every round trip.
func (s Scenario) Time(kb float64) float64 {
	megabits := kb * 8 / 1000
	return RoundTrips*s.LatencyMs/1000 + megabits/s.BandwidthMbps
}

// Analyze computes the per-scenario times for every row of t. Missing
// transfer sizes count as zero.
func Analyze(t *results.Table, scenarios []Scenario) ([]Row, error) {
	if !t.Has(results.ColDBSize, results.ColRecordSize) {
		return nil, ErrNoSizes
	}
	db, rs := t.Column(results.ColDBSize), t.Column(results.ColRecordSize)

	rows := make([]Row, t.Len())
	for i := range rows {
		r := Row{
			DBSize:     strings.TrimSpace(db.Cells[i].Raw),
			RecordSize: strings.TrimSpace(rs.Cells[i].Raw),
		}
		r.OfflineKB, _ = t.Float(results.ColOfflineDownload, i)
		r.OnlineDownKB, _ = t.Float(results.ColOnlineDownload, i)
		r.OnlineUpKB, _ = t.Float(results.ColOnlineUpload, i)

		r.Times = make([]float64, len(scenarios))
		for k, s := range scenarios {
			r.Times[k] = s.Time(r.TransferKB())
		}
		rows[i] = r
	}
	return rows, nil
}

// WriteCSV writes the analysis with one time column per scenario.
func WriteCSV(w io.Writer, rows []Row, scenarios []Scenario) error {
	cw := csv.NewWriter(w)

	header := []string{
		"db_size", "record_size",
		"offline_download_kb", "online_download_kb", "online_upload_kb",
	}
	for _, s := range scenarios {
		header = append(header, s.Column())
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		rec := []string{
			r.DBSize,
			r.RecordSize,
			strconv.FormatFloat(r.OfflineKB, 'f', 0, 64),
			strconv.FormatFloat(r.OnlineDownKB, 'f', 0, 64),
			strconv.FormatFloat(r.OnlineUpKB, 'f', 0, 64),
		}
		for _, v := range r.Times {
			rec = append(rec, strconv.FormatFloat(v, 'f', 3, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// OutputPath names the analysis file for a result file:
// "results/dbsize_avg_results.csv" becomes
// "<dir>/dbsize_avg_results_network_analysis.csv".
func OutputPath(dir, input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(dir, base+"_network_analysis.csv")
}

// AnalyzeFile loads and repairs a result file, analyses it and writes the
// result into outDir. It returns the output path and the row count.
func AnalyzeFile(path, outDir string, scenarios []Scenario) (string, int, error) {
	loaded, err := results.Load(path)
	if err != nil {
		return "", 0, err
	}
	results.Repair(loaded.Table)

	rows, err := Analyze(loaded.Table, scenarios)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", path, err)
	}

	out := OutputPath(outDir, path)
	w, err := fileio.Create(out)
	if err != nil {
		return "", 0, err
	}
	if err := WriteCSV(w, rows, scenarios); err != nil {
		w.Close()
		return "", 0, fmt.Errorf("writing %s: %w", out, err)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("closing %s: %w", out, err)
	}
	return out, len(rows), nil
}

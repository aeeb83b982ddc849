// Command plotresults repairs PIR benchmark result CSVs and renders their
// charts as PNG files.
//
//	plotresults [-config file] [-output dir] [-avg] [-all [-results dir]] [file]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/acme-corp/pir-bench-tools/internal/charts"
	"github.com/acme-corp/pir-bench-tools/internal/config"
	"github.com/acme-corp/pir-bench-tools/internal/fileio"
	"github.com/acme-corp/pir-bench-tools/internal/results"
)

var conventional = []string{"dbsize", "recordsize", "db_recordsize"}

func main() {
	configPath := flag.String("config", "", "path to tools config (defaults apply when empty)")
	all := flag.Bool("all", false, "plot every *_results.csv in the results directory")
	output := flag.String("output", "", "directory to save plot images (default plots)")
	avg := flag.Bool("avg", false, "only plot averaged (_avg) result files")
	resultsDir := flag.String("results", "", "results directory scanned by -all (default results)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [file]\nFlags must come before the file.\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if err := checkArgs(flag.Args()); err != nil {
		log.Printf("Error: %v", err)
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *output != "" {
		cfg.Plot.OutputDir = *output
	}
	if *resultsDir != "" {
		cfg.Plot.ResultsDir = *resultsDir
	}

	var files []string
	switch {
	case *all:
		files, err = scan(cfg.Plot.ResultsDir, *avg)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		log.Printf("Found %d CSV files to plot", len(files))
	case flag.NArg() > 0:
		files = []string{flag.Arg(0)}
	default:
		for _, stem := range conventional {
			if *avg {
				stem += "_avg"
			}
			path := filepath.Join(cfg.Plot.ResultsDir, stem+charts.ResultSuffix)
			if fileio.Exists(path) {
				files = append(files, path)
			}
		}
		if len(files) == 0 {
			log.Printf("No result files found in '%s'", cfg.Plot.ResultsDir)
			flag.Usage()
			os.Exit(1)
		}
	}

	renderer := charts.NewRenderer(cfg.Plot, log.Default())
	failed := 0
	for _, f := range files {
		if !generate(renderer, f) {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// checkArgs rejects anything past the single result file. flag stops at the
// first positional argument, so a trailing -output would otherwise be
// ignored.
func checkArgs(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments after %s: %v (flags must come before the file)", args[0], args[1:])
	}
	return nil
}

// scan lists the result files in dir, only the averaged ones when avg is set.
func scan(dir string, avg bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("results directory '%s' not found: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, charts.ResultSuffix) {
			continue
		}
		if avg && !strings.HasSuffix(name, "_avg"+charts.ResultSuffix) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in '%s'", dir)
	}
	return files, nil
}

func generate(r *charts.Renderer, path string) bool {
	if !fileio.Exists(path) {
		log.Printf("Error: %s not found", path)
		return false
	}

	log.Printf("Loading data from %s...", path)
	loaded, err := results.Load(path)
	if err != nil {
		log.Printf("Failed to parse %s: %v", path, err)
		return false
	}
	if loaded.PrimaryErr != nil {
		log.Printf("Structured parse of %s failed (%v), read with the %s parser", path, loaded.PrimaryErr, loaded.Parser)
	}
	log.Printf("Columns in CSV: %v", loaded.Table.Names())

	rep := results.Repair(loaded.Table)
	logRepair(rep)

	spec := charts.Select(path)
	files, err := r.Render(loaded.Table, spec)
	if err != nil {
		log.Printf("Error processing %s: %v", path, err)
		return false
	}
	log.Printf("%s: %d charts written to %s", spec.Stem, len(files), r.OutDir)
	return true
}

func logRepair(rep results.Report) {
	if len(rep.DroppedColumns) > 0 {
		log.Printf("Dropping empty columns: %v", rep.DroppedColumns)
	}
	for _, row := range rep.SwappedRows {
		log.Printf("Fixing swapped values at row %d", row)
	}
	for col, v := range rep.AutoReplaced {
		log.Printf("Replaced %q in %s with %g", results.AutoSentinel, col, v)
	}
	if rep.Coerced > 0 {
		log.Printf("Cleared %d non-numeric cells", rep.Coerced)
	}
	log.Printf("Rows: %d before cleaning, %d after (%d empty rows dropped)", rep.RowsBefore, rep.RowsAfter, rep.DroppedRows)
	for col, n := range rep.Filled {
		log.Printf("Filled %d missing %s values with the column mean", n, col)
	}
}

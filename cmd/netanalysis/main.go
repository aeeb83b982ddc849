// Command netanalysis estimates PIR query times on simulated network links
// from averaged benchmark results.
//
//	netanalysis [-config file] [-output dir] [result.csv ...]
package main

import (
	"flag"
	"log"
	"os"

	"github.com/acme-corp/pir-bench-tools/internal/config"
	"github.com/acme-corp/pir-bench-tools/internal/netsim"
)

func main() {
	configPath := flag.String("config", "", "path to tools config (defaults apply when empty)")
	output := flag.String("output", "", "directory for analysis files (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	files := cfg.Network.Files
	if flag.NArg() > 0 {
		files = flag.Args()
	}
	if *output != "" {
		cfg.Network.OutputDir = *output
	}
	scenarios := netsim.FromConfig(cfg.Network.Scenarios)

	failed := 0
	for _, f := range files {
		out, n, err := netsim.AnalyzeFile(f, cfg.Network.OutputDir, scenarios)
		if err != nil {
			log.Printf("Error reading %s: %v", f, err)
			failed++
			continue
		}
		log.Printf("Wrote %d rows to %s", n, out)
	}
	if failed == len(files) {
		os.Exit(1)
	}
}

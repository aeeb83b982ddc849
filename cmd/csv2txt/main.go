// Command csv2txt extracts "code: product_name" lines from a delimited
// product catalog.
//
//	csv2txt [-config file] [-strict] [source [dest]]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/acme-corp/pir-bench-tools/internal/bloom"
	"github.com/acme-corp/pir-bench-tools/internal/catalog"
	"github.com/acme-corp/pir-bench-tools/internal/config"
	"github.com/acme-corp/pir-bench-tools/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to tools config (defaults apply when empty)")
	dryRun := flag.Bool("dry-run", false, "validate config and exit")
	strict := flag.Bool("strict", false, "exit non-zero when extraction fails")
	chunkSize := flag.Int("chunk-size", 0, "rows per chunk (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if flag.NArg() > 0 {
		cfg.Extract.Source = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		cfg.Extract.Dest = flag.Arg(1)
	}
	if *chunkSize > 0 {
		cfg.Extract.ChunkSize = *chunkSize
	}

	if *dryRun {
		fmt.Println("Config validation passed.")
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	collector := metrics.NewCollector()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, stopping after the current chunk...", sig)
		if snap, err := collector.JSON(); err == nil {
			log.Printf("Metrics so far:\n%s", snap)
		}
		cancel()
	}()

	opts := catalog.Options{
		ChunkSize: cfg.Extract.ChunkSize,
		Collector: collector,
		OnChunk: func(s catalog.Summary) {
			log.Printf("Chunk %d: read %d, written %d, malformed %d, filtered %d",
				s.Chunks, s.RowsRead, s.RowsWritten, s.RowsMalformed, s.RowsFiltered)
		},
	}
	for _, f := range cfg.Extract.Filters {
		opts.Filters = append(opts.Filters, catalog.Filter{Field: f.Field, Op: f.Operator, Value: f.Value})
	}
	if n := cfg.Extract.BloomCapacity; n > 0 {
		opts.Duplicates = bloom.New(n, cfg.Extract.BloomFPRate)
	}

	log.Printf("Extracting %s -> %s (chunks of %d rows)", cfg.Extract.Source, cfg.Extract.Dest, cfg.Extract.ChunkSize)
	sum, err := catalog.ExtractFile(ctx, cfg.Extract.Source, cfg.Extract.Dest, cfg.Extract.DelimiterRune(), opts)
	if err != nil {
		log.Printf("Error during processing: %v", err)
		if *strict {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Done! Processed %d rows, wrote %d valid entries to %s\n", sum.RowsRead, sum.RowsWritten, cfg.Extract.Dest)
	if sum.RowsMalformed > 0 {
		log.Printf("Skipped %d malformed rows", sum.RowsMalformed)
	}
	if opts.Duplicates != nil {
		log.Printf("Estimated duplicate codes: %d", sum.DuplicateCodes)
	}

	snap, _ := collector.JSON()
	log.Printf("Final metrics:\n%s", snap)
}

// Command txt2bin packs the "code: name" text database into the binary code
// database.
//
//	txt2bin [-config file] [source [dest]]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/acme-corp/pir-bench-tools/internal/config"
	"github.com/acme-corp/pir-bench-tools/internal/fileio"
	"github.com/acme-corp/pir-bench-tools/internal/metrics"
	"github.com/acme-corp/pir-bench-tools/internal/packer"
)

func main() {
	configPath := flag.String("config", "", "path to tools config (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	src, dst := cfg.Pack.Source, cfg.Pack.Dest
	if flag.NArg() > 0 {
		src = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		dst = flag.Arg(1)
	}

	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	if !fileio.Exists(src) {
		log.Fatalf("Error: Text file %s not found", src)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	log.Printf("Converting %s to binary format at %s", src, dst)
	sum, err := packer.Pack(ctx, src, dst, packer.Options{
		ProgressEvery: cfg.Pack.ProgressEvery,
		Logger:        log.Default(),
		Collector:     collector,
		OnProgress: func(n, total uint64) {
			log.Printf("Progress: %d/%d entries written (%.1f%%)", n, total, float64(n)/float64(total)*100)
		},
	})
	if err != nil {
		log.Printf("Error converting to binary: %v", err)
		log.Fatalf("Conversion failed.")
	}

	log.Printf("Read %d codes from %s (%d lines, %d not numeric, %d out of range)",
		sum.Entries, src, sum.Lines, sum.NotNumeric, sum.Overflow)
	log.Printf("Conversion complete: %d entries written to %s", sum.Entries, dst)
	log.Printf("Binary file size: %d bytes (%.2f MB)", sum.Bytes, float64(sum.Bytes)/1024/1024)

	snap, _ := collector.JSON()
	log.Printf("Final metrics:\n%s", snap)
	log.Printf("Conversion successful!")
}

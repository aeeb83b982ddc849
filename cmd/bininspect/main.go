// Command bininspect validates a binary code database and prints its count,
// size, first entries and xxh3 digest.
//
//	bininspect [-head N] [file]
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/acme-corp/pir-bench-tools/internal/bindb"
	"github.com/acme-corp/pir-bench-tools/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to tools config (defaults apply when empty)")
	head := flag.Int("head", 10, "number of leading entries to print")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	path := cfg.Pack.Dest
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	info, err := bindb.Inspect(path, *head)
	if err != nil {
		log.Fatalf("Invalid database %s: %v", path, err)
	}

	fmt.Printf("file:    %s\n", info.Path)
	fmt.Printf("entries: %d\n", info.Count)
	fmt.Printf("size:    %d bytes\n", info.Size)
	fmt.Printf("xxh3:    %016x\n", info.Digest)
	for i, code := range info.Head {
		fmt.Printf("  [%d] %d\n", i, code)
	}
	if n := info.Count - uint64(len(info.Head)); n > 0 {
		fmt.Printf("  ... %d more\n", n)
	}
}

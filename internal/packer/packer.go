// Package packer converts the "code: name" text database into the binary
// code database (see bindb).
package packer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/acme-corp/pir-bench-tools/internal/bindb"
	"github.com/acme-corp/pir-bench-tools/internal/fileio"
	"github.com/acme-corp/pir-bench-tools/internal/metrics"
)

// Status is the outcome of parsing one line.
type Status int

const (
	OK Status = iota
	Empty
	NotNumeric
	Overflow
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case Empty:
		return "empty"
	case NotNumeric:
		return "not numeric"
	case Overflow:
		return "out of uint64 range"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

const DefaultProgressEvery = 100000

// ParseCode extracts the leading code from a "code: name" line. Everything
// before the first colon (or the whole line when there is none) must be a
// base-10 unsigned integer after trimming.
func ParseCode(line string) (uint64, Status) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, Empty
	}

	field, _, _ := strings.Cut(line, ":")
	field = strings.TrimSpace(field)
	field = strings.TrimPrefix(field, "+")
	if field == "" || field[0] < '0' || field[0] > '9' {
		return 0, NotNumeric
	}

	code, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, Overflow
		}
		return 0, NotNumeric
	}
	return code, OK
}

// Options tunes a packing run. The zero value is usable.
type Options struct {
	// ProgressEvery is the entry interval between progress callbacks.
	ProgressEvery int
	// OnProgress is called every ProgressEvery entries and at the last one.
	OnProgress func(written, total uint64)
	// Logger receives the overflow diagnostics. Nil discards them.
	Logger *log.Logger
	// Collector, when set, accumulates counters across the run.
	Collector *metrics.Collector
}

// Summary holds the run counters.
type Summary struct {
	Lines      int64  `json:"lines"`
	Entries    uint64 `json:"entries"`
	NotNumeric int64  `json:"not_numeric"`
	Overflow   int64  `json:"overflow"`
	Bytes      int64  `json:"bytes"`
}

// ReadCodes parses every line of r, keeping valid codes in input order.
// Lines that do not start with a number are skipped silently; codes beyond
// the uint64 range are skipped with a diagnostic. Lines have no length
// limit.
func ReadCodes(r io.Reader, opts Options) ([]uint64, Summary, error) {
	var (
		sum   Summary
		codes []uint64
	)
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, sum, fmt.Errorf("reading line %d: %w", sum.Lines+1, err)
		}
		if line == "" && err == io.EOF {
			break
		}
		sum.Lines++
		code, status := ParseCode(line)
		switch status {
		case OK:
			codes = append(codes, code)
		case Overflow:
			sum.Overflow++
			if opts.Logger != nil {
				field, _, _ := strings.Cut(strings.TrimSpace(line), ":")
				opts.Logger.Printf("Skipping code %s - out of uint64 range (line %d)", strings.TrimSpace(field), sum.Lines)
			}
		case NotNumeric:
			sum.NotNumeric++
		}
		if err == io.EOF {
			break
		}
	}
	sum.Entries = uint64(len(codes))
	return codes, sum, nil
}

// Pack reads the text database at srcPath and writes the binary database to
// dstPath. The destination is not written atomically: a failure part way
// through can leave a truncated file behind.
func Pack(ctx context.Context, srcPath, dstPath string, opts Options) (Summary, error) {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}

	readStart := time.Now()
	in, err := fileio.Open(srcPath)
	if err != nil {
		return Summary{}, err
	}
	codes, sum, err := ReadCodes(in, opts)
	in.Close()
	if err != nil {
		return sum, fmt.Errorf("reading %s: %w", srcPath, err)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	writeStart := time.Now()
	out, err := os.Create(dstPath)
	if err != nil {
		return sum, fmt.Errorf("creating %s: %w", dstPath, err)
	}
	defer out.Close()

	total := uint64(len(codes))
	w := bindb.NewWriter(out, total)
	every := uint64(opts.ProgressEvery)
	for i, code := range codes {
		if err := w.Append(code); err != nil {
			return sum, err
		}
		n := uint64(i) + 1
		if opts.OnProgress != nil && (n%every == 0 || n == total) {
			opts.OnProgress(n, total)
		}
	}
	if err := w.Close(); err != nil {
		return sum, fmt.Errorf("writing %s: %w", dstPath, err)
	}
	if err := out.Close(); err != nil {
		return sum, fmt.Errorf("closing %s: %w", dstPath, err)
	}

	st, err := os.Stat(dstPath)
	if err != nil {
		return sum, fmt.Errorf("stat %s: %w", dstPath, err)
	}
	sum.Bytes = st.Size()

	if c := opts.Collector; c != nil {
		c.RecordRead(sum.Lines)
		c.RecordWritten(int64(sum.Entries))
		c.RecordMalformed(sum.Overflow)
		c.RecordFiltered(sum.NotNumeric)
		c.BytesWritten(sum.Bytes)
		c.TrackStageDuration("read", writeStart.Sub(readStart))
		c.TrackStageDuration("write", time.Since(writeStart))
	}
	return sum, nil
}

// Package catalog turns a delimited product catalog into the line-oriented
// text database consumed by the binary packer: one "<code>: <product_name>"
// line per row whose trimmed code and name are both non-empty.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/acme-corp/pir-bench-tools/internal/bloom"
	"github.com/acme-corp/pir-bench-tools/internal/ingestion"
	"github.com/acme-corp/pir-bench-tools/internal/metrics"
	"github.com/acme-corp/pir-bench-tools/internal/storage"
	"github.com/acme-corp/pir-bench-tools/internal/transform"
)

const (
	CodeField = "code"
	NameField = "product_name"

	DefaultChunkSize = 100000
)

// Options tunes an extraction run. The zero value is usable.
type Options struct {
	// ChunkSize bounds how many rows are held in memory at once.
	ChunkSize int
	// Duplicates, when set, estimates how many written codes were seen
	// before. It never suppresses output.
	Duplicates *bloom.Filter
	// Collector, when set, accumulates counters across the run.
	Collector *metrics.Collector
	// OnChunk is called after each chunk is written with the running totals.
	OnChunk func(Summary)
	// Filters drop rows that do not match, after the code/name check.
	Filters []Filter
}

// Filter keeps rows whose Field matches Value under Op (see
// transform.FilterTransform).
type Filter struct {
	Field string
	Op    string
	Value string
}

// Summary holds the run counters.
type Summary struct {
	RowsRead       int64 `json:"rows_read"`
	RowsWritten    int64 `json:"rows_written"`
	RowsMalformed  int64 `json:"rows_malformed"`
	RowsFiltered   int64 `json:"rows_filtered"`
	Chunks         int64 `json:"chunks"`
	DuplicateCodes int64 `json:"duplicate_codes,omitempty"`
}

// FormatLine renders a record as it appears in the text database.
func FormatLine(code, name string) string {
	return code + ": " + name
}

func formatRecord(r ingestion.Record) string {
	return FormatLine(r.Field(CodeField), r.Field(NameField))
}

// NewPipeline returns the stages every catalog row passes through.
func NewPipeline() *transform.Pipeline {
	return transform.NewPipeline().
		AddStage("trim", transform.TrimTransform(CodeField, NameField)).
		AddStage("require", transform.RequireTransform(CodeField, NameField))
}

// Extract streams src chunk by chunk through the catalog pipeline into w.
// src must already be open; w is opened, flushed and left for the caller to
// close. Any read or write failure aborts the run; rows already written stay
// written.
func Extract(ctx context.Context, src ingestion.Source, w storage.Writer, opts Options) (Summary, error) {
	var sum Summary
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	pipeline := NewPipeline()
	for _, f := range opts.Filters {
		pipeline.AddStage("filter:"+f.Field, transform.FilterTransform(f.Field, f.Op, f.Value))
	}
	if opts.Duplicates != nil {
		pipeline.AddStage("duplicates", transform.ObserveTransform(func(r ingestion.Record) {
			if opts.Duplicates.TestAndAdd(r.Field(CodeField)) {
				sum.DuplicateCodes++
			}
		}))
	}

	if err := w.Open(ctx); err != nil {
		return sum, err
	}

	for {
		readStart := time.Now()
		batch, err := src.ReadBatch(ctx, opts.ChunkSize)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("reading chunk %d of %s: %w", sum.Chunks+1, src.Name(), err)
		}
		sum.Chunks++
		sum.RowsRead += int64(len(batch.Records))
		sum.RowsMalformed += int64(batch.Malformed)

		transformStart := time.Now()
		res := pipeline.Process(ctx, batch)
		sum.RowsFiltered += int64(res.Dropped + len(res.Failures))

		writeStart := time.Now()
		out := &ingestion.Batch{Records: res.Records, Source: batch.Source, SeqNum: batch.SeqNum}
		if err := w.Write(ctx, out); err != nil {
			return sum, fmt.Errorf("writing chunk %d: %w", batch.SeqNum, err)
		}
		sum.RowsWritten += int64(len(res.Records))

		if c := opts.Collector; c != nil {
			c.RecordRead(int64(len(batch.Records)))
			c.RecordMalformed(int64(batch.Malformed))
			c.RecordFiltered(int64(res.Dropped + len(res.Failures)))
			c.RecordWritten(int64(len(res.Records)))
			c.BatchProcessed()
			c.TrackStageDuration("read", transformStart.Sub(readStart))
			c.TrackStageDuration("transform", writeStart.Sub(transformStart))
			c.TrackStageDuration("write", time.Since(writeStart))
		}
		if opts.OnChunk != nil {
			opts.OnChunk(sum)
		}
	}

	if err := w.Flush(ctx); err != nil {
		return sum, fmt.Errorf("flushing output: %w", err)
	}
	return sum, nil
}

// ExtractFile runs Extract from a catalog file at srcPath, split on comma,
// into a text file at dstPath. dstPath's directory is created if needed.
func ExtractFile(ctx context.Context, srcPath, dstPath string, comma rune, opts Options) (Summary, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	src := ingestion.NewCatalogSource(srcPath, srcPath, comma)
	if err := src.Open(ctx); err != nil {
		return Summary{}, err
	}
	defer src.Close()

	lines := storage.NewLineFileWriter(dstPath, formatRecord)
	w := storage.NewBufferedWriter(lines, opts.ChunkSize)

	sum, err := Extract(ctx, src, w, opts)
	closeErr := w.Close()
	if err != nil {
		return sum, err
	}
	if closeErr != nil {
		return sum, fmt.Errorf("closing %s: %w", dstPath, closeErr)
	}
	if c := opts.Collector; c != nil {
		c.BytesWritten(lines.Bytes())
	}
	return sum, nil
}

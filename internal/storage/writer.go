package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/acme-corp/pir-bench-tools/internal/fileio"
	"github.com/acme-corp/pir-bench-tools/internal/ingestion"
)

// Writer defines the interface for writing processed records to a destination.
type Writer interface {
	Open(ctx context.Context) error
	Write(ctx context.Context, batch *ingestion.Batch) error
	Flush(ctx context.Context) error
	Close() error
}

// FormatFunc renders one record as one output line, without the newline.
type FormatFunc func(ingestion.Record) string

// BufferedWriter accumulates records and hands them to the inner writer in
// bulk once bufSize records are pending.
type BufferedWriter struct {
	inner   Writer
	buffer  []ingestion.Record
	bufSize int
}

// NewBufferedWriter wraps any Writer with size-triggered buffering.
func NewBufferedWriter(inner Writer, bufSize int) *BufferedWriter {
	if bufSize <= 0 {
		bufSize = 1
	}
	return &BufferedWriter{
		inner:   inner,
		buffer:  make([]ingestion.Record, 0, bufSize),
		bufSize: bufSize,
	}
}

func (bw *BufferedWriter) Open(ctx context.Context) error {
	return bw.inner.Open(ctx)
}

func (bw *BufferedWriter) Write(ctx context.Context, batch *ingestion.Batch) error {
	bw.buffer = append(bw.buffer, batch.Records...)

	if len(bw.buffer) >= bw.bufSize {
		return bw.flushBuffer(ctx)
	}
	return nil
}

// Flush hands pending records to the inner writer and flushes it.
func (bw *BufferedWriter) Flush(ctx context.Context) error {
	if err := bw.flushBuffer(ctx); err != nil {
		return err
	}
	return bw.inner.Flush(ctx)
}

func (bw *BufferedWriter) flushBuffer(ctx context.Context) error {
	if len(bw.buffer) == 0 {
		return nil
	}

	if err := bw.inner.Write(ctx, &ingestion.Batch{Records: bw.buffer}); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}

	bw.buffer = make([]ingestion.Record, 0, bw.bufSize)
	return nil
}

// Close flushes what is pending and closes the inner writer. The inner
// writer is closed even when the flush fails.
func (bw *BufferedWriter) Close() error {
	flushErr := bw.Flush(context.Background())
	closeErr := bw.inner.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// ---- Line-oriented file writer ----

// LineFileWriter writes one formatted line per record to a text file.
// A path ending in a compression extension is compressed (see fileio).
type LineFileWriter struct {
	path   string
	format FormatFunc
	out    io.WriteCloser
	buf    *bufio.Writer
	lines  int64
	bytes  int64
}

func NewLineFileWriter(path string, format FormatFunc) *LineFileWriter {
	return &LineFileWriter{path: path, format: format}
}

// NewLineWriter writes to an already-open stream. Close closes w.
func NewLineWriter(w io.WriteCloser, format FormatFunc) *LineFileWriter {
	return &LineFileWriter{out: w, format: format}
}

func (w *LineFileWriter) Open(ctx context.Context) error {
	if w.out == nil {
		out, err := fileio.Create(w.path)
		if err != nil {
			return fmt.Errorf("opening output file: %w", err)
		}
		w.out = out
	}
	w.buf = bufio.NewWriterSize(w.out, 256*1024)
	return nil
}

func (w *LineFileWriter) Write(ctx context.Context, batch *ingestion.Batch) error {
	for _, rec := range batch.Records {
		n, err := w.buf.WriteString(w.format(rec) + "\n")
		w.bytes += int64(n)
		if err != nil {
			return fmt.Errorf("writing row %d: %w", rec.Number, err)
		}
		w.lines++
	}
	return nil
}

func (w *LineFileWriter) Flush(ctx context.Context) error {
	if w.buf == nil {
		return nil
	}
	return w.buf.Flush()
}

func (w *LineFileWriter) Close() error {
	if w.out == nil {
		return nil
	}
	var flushErr error
	if w.buf != nil {
		flushErr = w.buf.Flush()
	}
	if err := w.out.Close(); err != nil {
		return err
	}
	return flushErr
}

// Lines is the number of lines written so far.
func (w *LineFileWriter) Lines() int64 { return w.lines }

// Bytes is the number of uncompressed bytes written so far.
func (w *LineFileWriter) Bytes() int64 { return w.bytes }

// Package bindb reads and writes the binary code database consumed by the
// PIR server:
//
//	[count: u64 LE][entry_0: u64 LE] ... [entry_{count-1}: u64 LE]
//
// There is no padding, checksum or version field. A file is valid when its
// length is exactly HeaderSize + count*EntrySize.
package bindb

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

const (
	HeaderSize = 8
	EntrySize  = 8
)

var (
	// ErrTruncated means the stream ended inside the header or an entry.
	ErrTruncated = errors.New("bindb: truncated file")
	// ErrCountMismatch means the header count disagrees with the file length.
	ErrCountMismatch = errors.New("bindb: count does not match file size")
)

// FileSize is the exact size of a database holding count entries.
func FileSize(count uint64) int64 {
	return HeaderSize + int64(count)*EntrySize
}

// Validate checks that a file of size bytes can hold the declared count.
func Validate(count uint64, size int64) error {
	if size < HeaderSize {
		return ErrTruncated
	}
	if (size-HeaderSize)%EntrySize != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrTruncated, (size-HeaderSize)%EntrySize)
	}
	if have := uint64(size-HeaderSize) / EntrySize; have != count {
		return fmt.Errorf("%w: header says %d, file holds %d", ErrCountMismatch, count, have)
	}
	return nil
}

// Write serializes codes in order.
func Write(w io.Writer, codes []uint64) error {
	bw := NewWriter(w, uint64(len(codes)))
	for _, c := range codes {
		if err := bw.Append(c); err != nil {
			return err
		}
	}
	return bw.Close()
}

// Writer streams entries after a header written up front. The number of
// appended entries must match the declared count by Close.
type Writer struct {
	w       *bufio.Writer
	count   uint64
	written uint64
	scratch [EntrySize]byte
	err     error
}

// NewWriter declares count entries and buffers the header.
func NewWriter(w io.Writer, count uint64) *Writer {
	bw := &Writer{w: bufio.NewWriterSize(w, 1<<20), count: count}
	binary.LittleEndian.PutUint64(bw.scratch[:], count)
	_, bw.err = bw.w.Write(bw.scratch[:])
	return bw
}

// Append writes the next entry.
func (w *Writer) Append(code uint64) error {
	if w.err != nil {
		return w.err
	}
	if w.written == w.count {
		w.err = fmt.Errorf("bindb: more than the declared %d entries", w.count)
		return w.err
	}
	binary.LittleEndian.PutUint64(w.scratch[:], code)
	if _, err := w.w.Write(w.scratch[:]); err != nil {
		w.err = fmt.Errorf("writing entry %d: %w", w.written, err)
		return w.err
	}
	w.written++
	return nil
}

// Written is the number of entries appended so far.
func (w *Writer) Written() uint64 { return w.written }

// Close flushes buffered bytes. It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.written != w.count {
		return fmt.Errorf("%w: declared %d, wrote %d", ErrCountMismatch, w.count, w.written)
	}
	return w.w.Flush()
}

// ReadHeader reads the count field.
func ReadHeader(r io.Reader) (uint64, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTruncated
		}
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Read decodes a whole database from r. Trailing bytes after the declared
// entries make the stream invalid.
func Read(r io.Reader) ([]uint64, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	count, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}

	// Grow as entries arrive so a corrupt header cannot force a huge allocation.
	codes := make([]uint64, 0, min(count, 1<<16))
	var buf [EntrySize]byte
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: entry %d of %d", ErrTruncated, i, count)
			}
			return nil, err
		}
		codes = append(codes, binary.LittleEndian.Uint64(buf[:]))
	}

	if n, _ := br.Read(buf[:1]); n > 0 {
		return nil, fmt.Errorf("%w: data after %d entries", ErrCountMismatch, count)
	}
	return codes, nil
}

// Info describes a database file on disk.
type Info struct {
	Path   string
	Count  uint64
	Size   int64
	Head   []uint64
	Digest uint64 // xxh3 of the whole file
}

// Inspect validates the file at path and returns its count, size, the first
// head entries and an xxh3 digest of its bytes.
func Inspect(path string, head int) (Info, error) {
	info := Info{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return info, fmt.Errorf("stat %s: %w", path, err)
	}
	info.Size = st.Size()

	h := xxh3.New()
	codes, err := Read(io.TeeReader(f, h))
	if err != nil {
		return info, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return info, fmt.Errorf("reading %s: %w", path, err)
	}
	info.Count = uint64(len(codes))
	if err := Validate(info.Count, info.Size); err != nil {
		return info, err
	}
	info.Digest = h.Sum64()

	if head > len(codes) {
		head = len(codes)
	}
	if head > 0 {
		info.Head = codes[:head]
	}
	return info, nil
}

package ingestion

import (
	"context"
	"errors"
)

// ErrMissingHeader is returned when a delimited source has no header row.
var ErrMissingHeader = errors.New("missing header row")

// Header maps column names to their position in a row.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader indexes names. On duplicate names the first column wins.
func NewHeader(names []string) *Header {
	h := &Header{names: names, index: make(map[string]int, len(names))}
	for i, n := range names {
		if _, dup := h.index[n]; !dup {
			h.index[n] = i
		}
	}
	return h
}

// Names returns the column names in file order.
func (h *Header) Names() []string { return h.names }

// Len is the number of columns the header declares.
func (h *Header) Len() int { return len(h.names) }

// Record is one row of a delimited source.
type Record struct {
	Number int64 // 1-based data row number, header excluded
	Values []string
	header *Header
}

// NewRecord builds a record against header.
func NewRecord(header *Header, number int64, values []string) Record {
	return Record{Number: number, Values: values, header: header}
}

// Field returns the named column's value. A column missing from the header,
// or missing from a short row, reads as "".
func (r Record) Field(name string) string {
	if r.header == nil {
		return ""
	}
	i, ok := r.header.index[name]
	if !ok || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// SetField overwrites the named column when the row has it.
func (r Record) SetField(name, value string) {
	if r.header == nil {
		return
	}
	if i, ok := r.header.index[name]; ok && i < len(r.Values) {
		r.Values[i] = value
	}
}

// Batch is a bounded chunk of records read together.
type Batch struct {
	Records []Record
	Source  string
	SeqNum  int64
	// Malformed counts rows in this chunk that could not be parsed and
	// were skipped.
	Malformed int
}

// Source defines the interface a chunked input must implement.
type Source interface {
	// Name returns a human-readable identifier for logging.
	Name() string

	// Open initializes the file handle and reads the header.
	Open(ctx context.Context) error

	// ReadBatch returns the next chunk of at most size records.
	// Returns io.EOF when no more data is available.
	ReadBatch(ctx context.Context, size int) (*Batch, error)

	// Close releases any resources held by the source.
	Close() error
}

package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/acme-corp/pir-bench-tools/internal/fileio"
)

// CatalogSource reads a delimited catalog in bounded chunks so that peak
// memory stays flat on multi-million-row inputs. Every physical line is one
// row; rows that carry more fields than the header are skipped and counted.
type CatalogSource struct {
	name    string
	path    string
	comma   rune
	reader  *bufio.Reader
	input   io.ReadCloser
	header  *Header
	offset  int64
	seqNum  int64
	pending error
}

// NewCatalogSource creates a source over path split on comma. The file may
// be compressed (see fileio).
func NewCatalogSource(name, path string, comma rune) *CatalogSource {
	return &CatalogSource{
		name:  name,
		path:  path,
		comma: comma,
	}
}

// NewReaderSource wraps an already-open stream; Open will not reopen it.
func NewReaderSource(name string, r io.Reader, comma rune) *CatalogSource {
	return &CatalogSource{
		name:  name,
		comma: comma,
		input: io.NopCloser(r),
	}
}

func (s *CatalogSource) Name() string { return s.name }

// Header returns the parsed header once Open has succeeded.
func (s *CatalogSource) Header() *Header { return s.header }

func (s *CatalogSource) Open(ctx context.Context) error {
	if s.input == nil {
		in, err := fileio.Open(s.path)
		if err != nil {
			return err
		}
		s.input = in
	}
	s.reader = bufio.NewReaderSize(s.input, 64*1024)

	// First non-blank line is always the header.
	line, err := s.nextLine()
	if err == io.EOF {
		s.input.Close()
		return fmt.Errorf("reading header of %s: %w", s.name, ErrMissingHeader)
	}
	if err != nil {
		s.input.Close()
		return fmt.Errorf("reading header of %s: %w", s.name, err)
	}
	names := SplitFields(strings.TrimPrefix(line, "\ufeff"), s.comma)
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	s.header = NewHeader(names)
	return nil
}

// nextLine returns the next non-blank line without its line ending. Lines
// have no length limit.
func (s *CatalogSource) nextLine() (string, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed != "" {
			return trimmed, nil
		}
		if err == io.EOF {
			return "", io.EOF
		}
	}
}

func (s *CatalogSource) ReadBatch(ctx context.Context, size int) (*Batch, error) {
	if s.pending != nil {
		return nil, s.pending
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{
		Records: make([]Record, 0, size),
		Source:  s.name,
	}

	for len(batch.Records) < size {
		line, err := s.nextLine()
		if err == io.EOF {
			s.pending = io.EOF
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.name, err)
		}
		row := SplitFields(line, s.comma)
		if len(row) > s.header.Len() {
			batch.Malformed++
			continue
		}

		s.offset++
		batch.Records = append(batch.Records, NewRecord(s.header, s.offset, row))
	}

	if len(batch.Records) == 0 && batch.Malformed == 0 {
		return nil, io.EOF
	}

	s.seqNum++
	batch.SeqNum = s.seqNum
	return batch, nil
}

func (s *CatalogSource) Close() error {
	if s.input != nil {
		return s.input.Close()
	}
	return nil
}

// SplitFields splits one line on comma. A field that opens with a double
// quote is read up to the closing quote, with "" standing for a literal
// quote and any text after the closing quote kept, so `"Best" cookies` is
// `Best cookies`. An unclosed quote runs to the end of the line, never past
// it. Stray carriage returns become spaces.
func SplitFields(line string, comma rune) []string {
	var (
		fields []string
		b      strings.Builder
		quoted bool
		start  = true
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quoted && r == '"':
			if i+1 < len(runes) && runes[i+1] == '"' {
				b.WriteRune('"')
				i++
			} else {
				quoted = false
			}
		case quoted:
			b.WriteRune(cleanRune(r))
		case r == comma:
			fields = append(fields, b.String())
			b.Reset()
			start = true
			continue
		case start && r == '"':
			quoted = true
		default:
			b.WriteRune(cleanRune(r))
		}
		start = false
	}
	return append(fields, b.String())
}

func cleanRune(r rune) rune {
	if r == '\r' || r == '\n' {
		return ' '
	}
	return r
}

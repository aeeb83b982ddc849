// Package results loads the benchmark result CSVs written by the PIR test
// harness and repairs the formatting defects they are known to carry.
package results

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/acme-corp/pir-bench-tools/internal/fileio"
)

// ErrNoData is returned when a file has no header or no rows at all.
var ErrNoData = errors.New("no valid data found")

// DetectDelimiter picks the field separator from a file's first line:
// comma, then semicolon, then tab. Comma is the default.
func DetectDelimiter(firstLine string) rune {
	switch {
	case strings.ContainsRune(firstLine, ','):
		return ','
	case strings.ContainsRune(firstLine, ';'):
		return ';'
	case strings.ContainsRune(firstLine, '\t'):
		return '\t'
	default:
		return ','
	}
}

// Parser turns raw file bytes into a table.
type Parser interface {
	Name() string
	Parse(data []byte, comma rune) (*Table, error)
}

// StructuredParser is the primary strategy: a quote-aware CSV read. Rows
// wider than the header are skipped, short rows are padded with missing
// cells. Any syntax error fails the whole parse.
type StructuredParser struct{}

func (StructuredParser) Name() string { return "structured" }

func (StructuredParser) Parse(data []byte, comma rune) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	t := NewTable(names)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) > len(names) {
			continue
		}
		cells := make([]Cell, len(names))
		for i := range cells {
			if i < len(row) {
				cells[i] = TextCell(row[i])
			} else {
				cells[i] = MissingCell()
			}
		}
		t.AppendRow(cells)
	}
	return t, nil
}

// LineSplitParser is the fallback strategy for files the structured parser
// rejects. Each non-blank line is split on the delimiter with no quote
// handling; the header grows "column_<i>" names to fit the widest row and
// short rows are padded with missing cells.
type LineSplitParser struct{}

func (LineSplitParser) Name() string { return "line-split" }

func (LineSplitParser) Parse(data []byte, comma rune) (*Table, error) {
	var rows [][]string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, string(comma))
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}
		rows = append(rows, values)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	headers := rows[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for len(headers) < width {
		headers = append(headers, fmt.Sprintf("column_%d", len(headers)))
	}

	t := NewTable(headers)
	for _, row := range rows[1:] {
		cells := make([]Cell, len(headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = TextCell(row[i])
			} else {
				cells[i] = MissingCell()
			}
		}
		t.AppendRow(cells)
	}
	return t, nil
}

// Loaded is a parsed result file.
type Loaded struct {
	Path      string
	Delimiter rune
	Table     *Table
	// Parser names the strategy that produced Table.
	Parser string
	// PrimaryErr is why the structured parser was abandoned, if it was.
	PrimaryErr error
}

// Load reads a result file, detects its delimiter and parses it with the
// structured parser, falling back to the line-split parser only when the
// structured parser fails.
func Load(path string) (*Loaded, error) {
	in, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse is Load on bytes already in memory; path is used for reporting.
func Parse(path string, data []byte) (*Loaded, error) {
	first, _, _ := bytes.Cut(data, []byte{'\n'})
	res := &Loaded{
		Path:      path,
		Delimiter: DetectDelimiter(strings.TrimSpace(string(first))),
	}

	var primary, fallback Parser = StructuredParser{}, LineSplitParser{}

	t, err := primary.Parse(data, res.Delimiter)
	if err == nil {
		res.Table, res.Parser = t, primary.Name()
		return res, nil
	}
	res.PrimaryErr = err

	t, err = fallback.Parse(data, res.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w (%s parser: %v)", path, err, primary.Name(), res.PrimaryErr)
	}
	res.Table, res.Parser = t, fallback.Name()
	return res, nil
}

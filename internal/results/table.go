package results

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Cell is one value of a result table. A cell is numeric when its raw text
// parses as a float; a missing cell carries neither text nor number.
type Cell struct {
	Raw     string
	Num     float64
	IsNum   bool
	Missing bool
}

// MissingCell returns an empty, missing cell.
func MissingCell() Cell { return Cell{Missing: true} }

// NumberCell returns a numeric cell for v.
func NumberCell(v float64) Cell {
	return Cell{Raw: strconv.FormatFloat(v, 'f', -1, 64), Num: v, IsNum: true}
}

// TextCell classifies raw. NA tokens and blanks become missing cells.
func TextCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if isNAToken(trimmed) {
		return MissingCell()
	}
	c := Cell{Raw: raw}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(v) {
		c.Num, c.IsNum = v, true
	}
	return c
}

func isNAToken(s string) bool {
	switch s {
	case "", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "<NA>":
		return true
	}
	return false
}

// Column is a named sequence of cells.
type Column struct {
	Name  string
	Cells []Cell
}

// AllMissing reports whether every cell is missing.
func (c *Column) AllMissing() bool {
	for _, cell := range c.Cells {
		if !cell.Missing {
			return false
		}
	}
	return true
}

// IsNumeric reports whether the column holds at least one value and every
// present value is numeric.
func (c *Column) IsNumeric() bool {
	seen := false
	for _, cell := range c.Cells {
		if cell.Missing {
			continue
		}
		if !cell.IsNum {
			return false
		}
		seen = true
	}
	return seen
}

// Values returns the numeric values of present cells in row order.
func (c *Column) Values() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if !cell.Missing && cell.IsNum {
			out = append(out, cell.Num)
		}
	}
	return out
}

// Table is a benchmark result table held column by column. All columns
// have the same number of cells.
type Table struct {
	Columns []*Column
}

// NewTable creates an empty table with the given column names.
func NewTable(names []string) *Table {
	t := &Table{Columns: make([]*Column, len(names))}
	for i, n := range names {
		t.Columns[i] = &Column{Name: n}
	}
	return t
}

// AppendRow adds one row; cells must match the column count.
func (t *Table) AppendRow(cells []Cell) {
	for i, c := range t.Columns {
		c.Cells = append(c.Cells, cells[i])
	}
}

// Len is the number of rows.
func (t *Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Has reports whether every name is a column of t.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Column(n) == nil {
			return false
		}
	}
	return true
}

// Float returns the numeric value at row of the named column.
func (t *Table) Float(name string, row int) (float64, bool) {
	c := t.Column(name)
	if c == nil || row < 0 || row >= len(c.Cells) {
		return 0, false
	}
	cell := c.Cells[row]
	if cell.Missing || !cell.IsNum {
		return 0, false
	}
	return cell.Num, true
}

// NumericColumns returns the names of numeric columns in order.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.IsNumeric() {
			names = append(names, c.Name)
		}
	}
	return names
}

// Distinct counts the distinct numeric values of the named column.
func (t *Table) Distinct(name string) int {
	c := t.Column(name)
	if c == nil {
		return 0
	}
	seen := make(map[float64]struct{})
	for _, v := range c.Values() {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// SortedRows returns row indexes ordered by the named column's value.
// Rows without a numeric value sort last; ties keep file order.
func (t *Table) SortedRows(name string) []int {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		va, oka := t.Float(name, rows[a])
		vb, okb := t.Float(name, rows[b])
		if oka != okb {
			return oka
		}
		return oka && va < vb
	})
	return rows
}

// RunCount returns the first row's run_count, if the table has one.
func (t *Table) RunCount() (int, bool) {
	v, ok := t.Float(ColRunCount, 0)
	if !ok {
		return 0, false
	}
	return int(v), true
}

func (t *Table) dropColumns(drop func(*Column) bool) []string {
	var dropped []string
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if drop(c) {
			dropped = append(dropped, c.Name)
			continue
		}
		kept = append(kept, c)
	}
	t.Columns = kept
	return dropped
}

func (t *Table) keepRows(keep []bool) {
	for _, c := range t.Columns {
		cells := c.Cells[:0]
		for i, cell := range c.Cells {
			if keep[i] {
				cells = append(cells, cell)
			}
		}
		c.Cells = cells
	}
}

func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

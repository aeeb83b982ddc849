package results

import (
	"strings"
)

// Column names written by the benchmark harness.
const (
	ColDBSize     = "db_size"
	ColRecordSize = "record_size"
	ColRunCount   = "run_count"
	ColRunID      = "run_id"

	ColSetupTime       = "setup_time"
	ColQueryTime       = "query_time"
	ColAnswerTime      = "answer_time"
	ColReconstructTime = "reconstruct_time"

	ColOfflineDownload = "offline_download"
	ColOnlineUpload    = "online_upload"
	ColOnlineDownload  = "online_download"
)

// TimingColumns are the per-phase timing columns, in phase order.
var TimingColumns = []string{ColSetupTime, ColQueryTime, ColAnswerTime, ColReconstructTime}

// NetworkColumns are the transfer size columns.
var NetworkColumns = []string{ColOfflineDownload, ColOnlineUpload, ColOnlineDownload}

// AutoSentinel marks a size the harness picked on its own.
const AutoSentinel = "auto"

var (
	numericColumns = []string{
		ColSetupTime, ColQueryTime, ColAnswerTime, ColReconstructTime,
		ColOfflineDownload, ColOnlineUpload, ColOnlineDownload,
		ColRunCount, ColRunID,
	}

	// The harness has been seen writing record sizes into db_size and the
	// other way around.
	dbSizeExpected     = setOf(1, 10, 100, 1000, 10000, 100000, 1000000)
	recordSizeExpected = setOf(8, 16, 32, 64, 128, 256, 512, 1024)

	autoFallback = map[string]float64{
		ColDBSize:     1000,
		ColRecordSize: 32,
	}
)

func setOf(values ...float64) map[float64]bool {
	m := make(map[float64]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// Report lists what Repair changed.
type Report struct {
	RowsBefore     int
	RowsAfter      int
	DroppedColumns []string
	// SwappedRows are row indexes as they were before any row was dropped.
	SwappedRows []int
	// Coerced counts cells turned into missing values because they did not
	// parse as numbers.
	Coerced int
	// AutoReplaced maps a size column to the value substituted for "auto".
	AutoReplaced map[string]float64
	DroppedRows  int
	// Filled maps a column to the number of cells filled with its mean.
	Filled map[string]int
}

// Repair fixes the known defects of a result table in place:
//
//  1. columns with no values are dropped
//  2. swapped db_size / record_size pairs are swapped back
//  3. the known numeric columns are coerced, bad values become missing
//  4. "auto" sizes are replaced by the column median
//  5. rows with no values are dropped
//  6. missing cells of numeric columns are filled with the column mean
func Repair(t *Table) Report {
	rep := Report{
		RowsBefore:   t.Len(),
		AutoReplaced: make(map[string]float64),
		Filled:       make(map[string]int),
	}

	rep.DroppedColumns = t.dropColumns((*Column).AllMissing)
	rep.SwappedRows = swapSizes(t)

	for _, name := range numericColumns {
		if c := t.Column(name); c != nil {
			rep.Coerced += coerce(c)
		}
	}

	for _, name := range []string{ColDBSize, ColRecordSize} {
		c := t.Column(name)
		if c == nil {
			continue
		}
		if v, ok := replaceAuto(c, autoFallback[name]); ok {
			rep.AutoReplaced[name] = v
		}
		rep.Coerced += coerce(c)
	}

	rep.DroppedRows = dropEmptyRows(t)

	for _, c := range t.Columns {
		if !c.IsNumeric() {
			continue
		}
		if n := fillMean(c); n > 0 {
			rep.Filled[c.Name] = n
		}
	}

	rep.RowsAfter = t.Len()
	return rep
}

func swapSizes(t *Table) []int {
	db, rs := t.Column(ColDBSize), t.Column(ColRecordSize)
	if db == nil || rs == nil {
		return nil
	}
	var swapped []int
	for i := range db.Cells {
		d, r := db.Cells[i], rs.Cells[i]
		if d.Missing || r.Missing || !d.IsNum || !r.IsNum {
			continue
		}
		if recordSizeExpected[d.Num] && dbSizeExpected[r.Num] {
			db.Cells[i], rs.Cells[i] = r, d
			swapped = append(swapped, i)
		}
	}
	return swapped
}

func coerce(c *Column) int {
	n := 0
	for i, cell := range c.Cells {
		if !cell.Missing && !cell.IsNum {
			c.Cells[i] = MissingCell()
			n++
		}
	}
	return n
}

func isAuto(cell Cell) bool {
	return !cell.Missing && strings.TrimSpace(cell.Raw) == AutoSentinel
}

// replaceAuto substitutes the median of the column's numeric values for
// every "auto" cell, or fallback when the column has no numeric values.
func replaceAuto(c *Column, fallback float64) (float64, bool) {
	var (
		autos  []int
		values []float64
	)
	for i, cell := range c.Cells {
		switch {
		case isAuto(cell):
			autos = append(autos, i)
		case !cell.Missing && cell.IsNum:
			values = append(values, cell.Num)
		}
	}
	if len(autos) == 0 {
		return 0, false
	}

	v := fallback
	if len(values) > 0 {
		v = median(values)
	}
	for _, i := range autos {
		c.Cells[i] = NumberCell(v)
	}
	return v, true
}

func dropEmptyRows(t *Table) int {
	n := t.Len()
	keep := make([]bool, n)
	dropped := 0
	for i := 0; i < n; i++ {
		for _, c := range t.Columns {
			if !c.Cells[i].Missing {
				keep[i] = true
				break
			}
		}
		if !keep[i] {
			dropped++
		}
	}
	if dropped > 0 {
		t.keepRows(keep)
	}
	return dropped
}

func fillMean(c *Column) int {
	values := c.Values()
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	n := 0
	for i, cell := range c.Cells {
		if cell.Missing {
			c.Cells[i] = NumberCell(m)
			n++
		}
	}
	return n
}

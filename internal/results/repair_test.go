package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTable(t *testing.T, data string) *Table {
	t.Helper()
	res, err := Parse("t.csv", []byte(data))
	require.NoError(t, err)
	return res.Table
}

func TestRepairSwapsSizes(t *testing.T) {
	tbl := parseTable(t, "db_size,record_size,query_time\n64,1000,2\n1000,64,3\n")

	rep := Repair(tbl)
	assert.Equal(t, []int{0}, rep.SwappedRows)

	for row := 0; row < 2; row++ {
		db, _ := tbl.Float(ColDBSize, row)
		rs, _ := tbl.Float(ColRecordSize, row)
		assert.Equal(t, 1000.0, db)
		assert.Equal(t, 64.0, rs)
	}
}

func TestRepairLeavesUnexpectedSizes(t *testing.T) {
	tbl := parseTable(t, "db_size,record_size\n64,999\n")
	rep := Repair(tbl)
	assert.Empty(t, rep.SwappedRows)
	db, _ := tbl.Float(ColDBSize, 0)
	assert.Equal(t, 64.0, db)
}

func TestRepairAutoUsesMedian(t *testing.T) {
	tbl := parseTable(t, "db_size,query_time\n10,1\nauto,2\n100,3\n1000,4\n")

	rep := Repair(tbl)
	assert.Equal(t, 100.0, rep.AutoReplaced[ColDBSize])
	v, ok := tbl.Float(ColDBSize, 1)
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestRepairAutoFallback(t *testing.T) {
	tbl := parseTable(t, "db_size,record_size,query_time\nauto,auto,1\nauto,auto,2\n")

	rep := Repair(tbl)
	assert.Equal(t, 1000.0, rep.AutoReplaced[ColDBSize])
	assert.Equal(t, 32.0, rep.AutoReplaced[ColRecordSize])
	rs, _ := tbl.Float(ColRecordSize, 1)
	assert.Equal(t, 32.0, rs)
}

func TestRepairDropsAndFills(t *testing.T) {
	data := "scheme,db_size,empty,query_time,run_count\n" +
		"simple,10,,2,3\n" +
		",,,,\n" +
		"simple,100,,oops,3\n" +
		"simple,1000,,4,3\n"
	tbl := parseTable(t, data)

	rep := Repair(tbl)
	assert.Equal(t, []string{"empty"}, rep.DroppedColumns)
	assert.Equal(t, 1, rep.DroppedRows)
	assert.Equal(t, 1, rep.Coerced)
	assert.Equal(t, 4, rep.RowsBefore)
	assert.Equal(t, 3, rep.RowsAfter)
	assert.Equal(t, map[string]int{ColQueryTime: 1}, rep.Filled)

	assert.False(t, tbl.Has("empty"))
	v, ok := tbl.Float(ColQueryTime, 1)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)

	n, ok := tbl.RunCount()
	require.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{ColDBSize, ColQueryTime, ColRunCount}, tbl.NumericColumns())
}

func TestSortedRowsMissingLast(t *testing.T) {
	tbl := parseTable(t, "db_size,x\n100,a\n,b\n10,c\n100,d\n")
	assert.Equal(t, []int{2, 0, 3, 1}, tbl.SortedRows(ColDBSize))
	assert.Equal(t, 2, tbl.Distinct(ColDBSize))
}

package packer

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme-corp/pir-bench-tools/internal/bindb"
	"github.com/acme-corp/pir-bench-tools/internal/metrics"
)

func TestParseCode(t *testing.T) {
	cases := []struct {
		line   string
		code   uint64
		status Status
	}{
		{"123: WidgetA", 123, OK},
		{"  0042 : Oat milk", 42, OK},
		{"7", 7, OK},
		{"+9: plus", 9, OK},
		{"18446744073709551615: max", 18446744073709551615, OK},
		{"18446744073709551616: too big", 0, Overflow},
		{"99999999999999999999999: way too big", 0, Overflow},
		{"abc: Widget", 0, NotNumeric},
		{"-5: negative", 0, NotNumeric},
		{"12a: mixed", 0, NotNumeric},
		{": no code", 0, NotNumeric},
		{"   ", 0, Empty},
		{"", 0, Empty},
	}
	for _, c := range cases {
		code, status := ParseCode(c.line)
		assert.Equal(t, c.status, status, "line %q", c.line)
		assert.Equal(t, c.code, code, "line %q", c.line)
	}
}

func TestReadCodesSkipsAndKeepsOrder(t *testing.T) {
	input := "3: c\nabc: Widget\n\n1: a\n18446744073709551616: big\n2: b\n"
	var logs bytes.Buffer
	opts := Options{Logger: log.New(&logs, "", 0)}

	codes, sum, err := ReadCodes(strings.NewReader(input), opts)
	require.NoError(t, err)

	assert.Equal(t, []uint64{3, 1, 2}, codes)
	assert.EqualValues(t, 3, sum.Entries)
	assert.EqualValues(t, 1, sum.NotNumeric)
	assert.EqualValues(t, 1, sum.Overflow)
	assert.Contains(t, logs.String(), "18446744073709551616")
	assert.NotContains(t, logs.String(), "abc")
}

func TestReadCodesOverlongLine(t *testing.T) {
	input := "1: a\n2: " + strings.Repeat("n", 20*1024*1024) + "\n" + strings.Repeat("9", 17*1024*1024) + "\n3: c"

	codes, sum, err := ReadCodes(strings.NewReader(input), Options{})
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2, 3}, codes)
	assert.EqualValues(t, 4, sum.Lines)
	assert.EqualValues(t, 1, sum.Overflow)
}

func writeText(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestPackRoundTrip(t *testing.T) {
	src := writeText(t, "1: one\n2: two\nabc: Widget\n1000000: million\n")
	dst := filepath.Join(t.TempDir(), "database.bin")

	sum, err := Pack(context.Background(), src, dst, Options{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum.Entries)
	assert.EqualValues(t, 32, sum.Bytes)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	codes, err := bindb.Read(f)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 1000000}, codes)
}

func TestPackProgress(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		b.WriteString("10: x\n")
	}
	src := writeText(t, b.String())
	dst := filepath.Join(t.TempDir(), "database.bin")

	var calls [][2]uint64
	c := metrics.NewCollector()
	_, err := Pack(context.Background(), src, dst, Options{
		ProgressEvery: 10,
		OnProgress:    func(n, total uint64) { calls = append(calls, [2]uint64{n, total}) },
		Collector:     c,
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]uint64{{10, 25}, {20, 25}, {25, 25}}, calls)
	assert.EqualValues(t, 25, c.Snapshot().RowsWritten)
	assert.EqualValues(t, bindb.FileSize(25), c.Snapshot().BytesWritten)
}

func TestPackEmptySource(t *testing.T) {
	src := writeText(t, "no codes here\n")
	dst := filepath.Join(t.TempDir(), "database.bin")

	sum, err := Pack(context.Background(), src, dst, Options{})
	require.NoError(t, err)
	assert.EqualValues(t, 0, sum.Entries)
	assert.EqualValues(t, bindb.HeaderSize, sum.Bytes)
}

func TestPackMissingSource(t *testing.T) {
	_, err := Pack(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), filepath.Join(t.TempDir(), "o.bin"), Options{})
	require.Error(t, err)
}

func TestPackUnwritableDestination(t *testing.T) {
	src := writeText(t, "1: one\n")
	_, err := Pack(context.Background(), src, filepath.Join(t.TempDir(), "missing-dir", "o.bin"), Options{})
	require.Error(t, err)
}

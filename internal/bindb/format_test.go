package bindb

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []uint64{1, 2, 1000000}))

	raw := buf.Bytes()
	require.Len(t, raw, 32)
	assert.EqualValues(t, 3, binary.LittleEndian.Uint64(raw[0:8]))
	assert.EqualValues(t, 1, binary.LittleEndian.Uint64(raw[8:16]))
	assert.EqualValues(t, 2, binary.LittleEndian.Uint64(raw[16:24]))
	assert.EqualValues(t, 1000000, binary.LittleEndian.Uint64(raw[24:32]))

	codes, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 1000000}, codes)
}

func TestEncodedByteLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []uint64{math.MaxUint64}))

	want := []byte{
		1, 0, 0, 0, 0, 0, 0, 0,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestEmptyDatabase(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Len(t, buf.Bytes(), HeaderSize)

	codes, err := Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestReadErrorsOnTruncatedData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []uint64{7, 8}))
	encoded := buf.Bytes()

	for i := 0; i < len(encoded); i++ {
		_, err := Read(bytes.NewReader(encoded[:i]))
		require.ErrorIs(t, err, ErrTruncated, "length %d", i)
	}
}

func TestReadRejectsTrailingData(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []uint64{7}))
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 9})

	_, err := Read(&buf)
	require.ErrorIs(t, err, ErrCountMismatch)
}

func TestWriterCountEnforced(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 2)
	require.NoError(t, w.Append(1))
	require.ErrorIs(t, w.Close(), ErrCountMismatch)

	w = NewWriter(&buf, 1)
	require.NoError(t, w.Append(1))
	require.Error(t, w.Append(2))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(3, FileSize(3)))
	assert.ErrorIs(t, Validate(3, FileSize(2)), ErrCountMismatch)
	assert.ErrorIs(t, Validate(0, 4), ErrTruncated)
	assert.ErrorIs(t, Validate(1, FileSize(1)+3), ErrTruncated)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.bin")
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []uint64{10, 20, 30, 40}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	info, err := Inspect(path, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, info.Count)
	assert.EqualValues(t, 40, info.Size)
	assert.Equal(t, []uint64{10, 20}, info.Head)
	assert.Equal(t, xxh3.Hash(buf.Bytes()), info.Digest)
}

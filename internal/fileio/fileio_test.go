package fileio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecFor(t *testing.T) {
	assert.Equal(t, Gzip, CodecFor("db/products.csv.gz"))
	assert.Equal(t, Zstd, CodecFor("db/products.csv.zst"))
	assert.Equal(t, S2, CodecFor("db/products.csv.S2"))
	assert.Equal(t, Plain, CodecFor("db/products.csv"))
}

func TestRoundTripPerCodec(t *testing.T) {
	payload := "code\tproduct_name\n123\tWidgetA\n"

	for _, name := range []string{"plain.tsv", "c.tsv.gz", "c.tsv.zst", "c.tsv.s2"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			w, err := Create(path)
			require.NoError(t, err)
			_, err = io.WriteString(w, payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Open(path)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())

			assert.Equal(t, payload, string(got))
		})
	}
}

func TestCompressedOutputDiffersFromPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt.gz")
	w, err := Create(path)
	require.NoError(t, err)
	_, err = io.WriteString(w, "123: WidgetA\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, raw[:2])
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.False(t, Exists(filepath.Join(t.TempDir(), "missing.csv")))
}

package ingestion

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSource(t *testing.T, content string) *CatalogSource {
	t.Helper()
	src := NewReaderSource("test", strings.NewReader(content), '\t')
	require.NoError(t, src.Open(context.Background()))
	t.Cleanup(func() { src.Close() })
	return src
}

func TestReadBatchChunks(t *testing.T) {
	src := openSource(t, "code\tproduct_name\n1\tA\n2\tB\n3\tC\n4\tD\n5\tE\n")
	ctx := context.Background()

	var sizes []int
	var numbers []int64
	for {
		batch, err := src.ReadBatch(ctx, 2)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		sizes = append(sizes, len(batch.Records))
		for _, r := range batch.Records {
			numbers = append(numbers, r.Number)
		}
	}

	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, numbers)
}

func TestFieldLookup(t *testing.T) {
	src := openSource(t, "code\tproduct_name\tbrand\n123\tWidget\n")

	batch, err := src.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)

	rec := batch.Records[0]
	assert.Equal(t, "123", rec.Field("code"))
	assert.Equal(t, "Widget", rec.Field("product_name"))
	assert.Equal(t, "", rec.Field("brand"), "short row pads with empty")
	assert.Equal(t, "", rec.Field("not_a_column"))
}

func TestWideRowsAreMalformed(t *testing.T) {
	src := openSource(t, "code\tproduct_name\n1\tA\textra\n2\tB\n")

	batch, err := src.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Malformed)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "2", batch.Records[0].Field("code"))
}

func TestHeaderBOMAndSpacesStripped(t *testing.T) {
	src := openSource(t, "\ufeffcode \t product_name\n1\tA\n")
	assert.Equal(t, []string{"code", "product_name"}, src.Header().Names())
}

func TestOpenEmptyFile(t *testing.T) {
	src := NewReaderSource("empty", strings.NewReader(""), '\t')
	err := src.Open(context.Background())
	require.ErrorIs(t, err, ErrMissingHeader)
}

func TestOpenFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.tsv")
	require.NoError(t, os.WriteFile(path, []byte("code\tproduct_name\n9\tNine\n"), 0o644))

	src := NewCatalogSource("catalog", path, '\t')
	require.NoError(t, src.Open(context.Background()))
	defer src.Close()

	batch, err := src.ReadBatch(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)

	_, err = src.ReadBatch(context.Background(), 100)
	assert.Equal(t, io.EOF, err)
}

func TestReadBatchHonoursCancel(t *testing.T) {
	src := openSource(t, "code\tproduct_name\n1\tA\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.ReadBatch(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitFields(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"1\tA", []string{"1", "A"}},
		{"1\t\"Best\" cookies", []string{"1", "Best cookies"}},
		{"1\t\"tab\tinside\"", []string{"1", "tab\tinside"}},
		{"1\t\"say \"\"hi\"\"\"", []string{"1", "say \"hi\""}},
		{"1\t\"unclosed", []string{"1", "unclosed"}},
		{"1\t5\" screen", []string{"1", "5\" screen"}},
		{"1\ta\rb", []string{"1", "a b"}},
		{"\t", []string{"", ""}},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SplitFields(c.line, '\t'), "line %q", c.line)
	}
}

func TestQuoteNeverSpansLines(t *testing.T) {
	src := openSource(t, "code\tproduct_name\r\n1\t\"Best\" cookies\r\n\n2\t\"Milk\n3\tBread")

	batch, err := src.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch.Records, 3)
	assert.Equal(t, "Best cookies", batch.Records[0].Field("product_name"))
	assert.Equal(t, "Milk", batch.Records[1].Field("product_name"))
	assert.Equal(t, "3", batch.Records[2].Field("code"))
	assert.Equal(t, "Bread", batch.Records[2].Field("product_name"))
}

func TestLongLinesAreRead(t *testing.T) {
	name := strings.Repeat("x", 200*1024)
	src := openSource(t, "code\tproduct_name\n1\t"+name+"\n")

	batch, err := src.ReadBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Len(t, batch.Records[0].Field("product_name"), len(name))
}

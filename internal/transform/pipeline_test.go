package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme-corp/pir-bench-tools/internal/ingestion"
)

func batchOf(rows ...[]string) *ingestion.Batch {
	header := ingestion.NewHeader([]string{"code", "product_name"})
	b := &ingestion.Batch{}
	for i, r := range rows {
		b.Records = append(b.Records, ingestion.NewRecord(header, int64(i+1), r))
	}
	return b
}

func TestTrimThenRequire(t *testing.T) {
	p := NewPipeline().
		AddStage("trim", TrimTransform("code", "product_name")).
		AddStage("require", RequireTransform("code", "product_name"))

	res := p.Process(context.Background(), batchOf(
		[]string{" 123 ", " WidgetA\t"},
		[]string{"", "MissingCode"},
		[]string{"456", "   "},
		[]string{"789"},
	))

	require.Len(t, res.Records, 1)
	assert.Equal(t, "123", res.Records[0].Field("code"))
	assert.Equal(t, "WidgetA", res.Records[0].Field("product_name"))
	assert.Equal(t, 3, res.Dropped)
	assert.Empty(t, res.Failures)
}

func TestProcessKeepsOrder(t *testing.T) {
	p := NewPipeline().AddStage("require", RequireTransform("code"))

	res := p.Process(context.Background(), batchOf(
		[]string{"3", "c"}, []string{"1", "a"}, []string{"2", "b"},
	))

	var codes []string
	for _, r := range res.Records {
		codes = append(codes, r.Field("code"))
	}
	assert.Equal(t, []string{"3", "1", "2"}, codes)
}

func TestFailuresAreReportedAndSkipped(t *testing.T) {
	var handled int
	p := NewPipeline().AddStage("filter", FilterTransform("code", "bogus", "x"))
	p.SetErrorHandler(func(error, ingestion.Record) { handled++ })

	res := p.Process(context.Background(), batchOf([]string{"1", "a"}, []string{"2", "b"}))

	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 2)
	assert.Contains(t, res.Failures[0].Error(), `stage "filter"`)
	assert.Equal(t, 2, handled)
}

func TestFilterOperators(t *testing.T) {
	cases := []struct {
		op, value string
		keep      bool
	}{
		{"eq", "123", true},
		{"neq", "123", false},
		{"contains", "2", true},
		{"prefix", "12", true},
		{"prefix", "3", false},
	}
	for _, c := range cases {
		p := NewPipeline().AddStage("f", FilterTransform("code", c.op, c.value))
		res := p.Process(context.Background(), batchOf([]string{"123", "x"}))
		assert.Equal(t, c.keep, len(res.Records) == 1, "%s %s", c.op, c.value)
	}
}

func TestObserveSeesOnlySurvivors(t *testing.T) {
	var seen []string
	p := NewPipeline().
		AddStage("require", RequireTransform("product_name")).
		AddStage("observe", ObserveTransform(func(r ingestion.Record) { seen = append(seen, r.Field("code")) }))

	p.Process(context.Background(), batchOf([]string{"1", ""}, []string{"2", "b"}))
	assert.Equal(t, []string{"2"}, seen)
	assert.Equal(t, []string{"require", "observe"}, p.Stages())
}

func TestErrDropIsNotWrapped(t *testing.T) {
	p := NewPipeline().AddStage("require", RequireTransform("code"))
	_, err := p.apply(context.Background(), batchOf([]string{"", "x"}).Records[0])
	assert.True(t, errors.Is(err, ErrDrop))
}

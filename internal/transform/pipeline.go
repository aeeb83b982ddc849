package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/acme-corp/pir-bench-tools/internal/ingestion"
)

// ErrDrop is returned by a stage to remove a record from the batch without
// counting it as a failure.
var ErrDrop = errors.New("record dropped")

// Transformer is a single named step in the pipeline.
type Transformer struct {
	name string
	fn   TransformFunc
}

// TransformFunc is the signature for any transformation operation.
// It receives a record and returns a modified record, ErrDrop, or an error.
type TransformFunc func(ctx context.Context, record ingestion.Record) (ingestion.Record, error)

// Pipeline chains transformers. Records pass through every stage in order,
// one record at a time, so output order always matches input order.
type Pipeline struct {
	stages     []*Transformer
	errHandler func(error, ingestion.Record)
}

// Result is the outcome of processing one batch.
type Result struct {
	Records  []ingestion.Record
	Dropped  int
	Failures []error
}

// NewPipeline creates an empty pipeline. Failed records are discarded
// silently unless SetErrorHandler is used.
func NewPipeline() *Pipeline {
	return &Pipeline{
		errHandler: func(error, ingestion.Record) {},
	}
}

// AddStage appends a named transformer to the pipeline.
func (p *Pipeline) AddStage(name string, fn TransformFunc) *Pipeline {
	p.stages = append(p.stages, &Transformer{name: name, fn: fn})
	return p
}

// Stages returns the stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.name
	}
	return names
}

// SetErrorHandler sets a custom handler for failed transformations.
func (p *Pipeline) SetErrorHandler(handler func(error, ingestion.Record)) {
	p.errHandler = handler
}

// Process applies all stages to each record of the batch. A failing record
// is skipped and the rest of the batch continues.
func (p *Pipeline) Process(ctx context.Context, batch *ingestion.Batch) Result {
	res := Result{Records: make([]ingestion.Record, 0, len(batch.Records))}

	for _, rec := range batch.Records {
		out, err := p.apply(ctx, rec)
		switch {
		case err == nil:
			res.Records = append(res.Records, out)
		case errors.Is(err, ErrDrop):
			res.Dropped++
		default:
			res.Failures = append(res.Failures, err)
			p.errHandler(err, rec)
		}
	}
	return res
}

func (p *Pipeline) apply(ctx context.Context, rec ingestion.Record) (ingestion.Record, error) {
	var err error
	for _, stage := range p.stages {
		rec, err = stage.fn(ctx, rec)
		if errors.Is(err, ErrDrop) {
			return rec, err
		}
		if err != nil {
			return rec, fmt.Errorf("stage %q on row %d: %w", stage.name, rec.Number, err)
		}
	}
	return rec, nil
}

// ---- Built-in Transform Functions ----

// TrimTransform strips surrounding whitespace from the named fields.
func TrimTransform(fields ...string) TransformFunc {
	return func(ctx context.Context, rec ingestion.Record) (ingestion.Record, error) {
		for _, field := range fields {
			rec.SetField(field, strings.TrimSpace(rec.Field(field)))
		}
		return rec, nil
	}
}

// RequireTransform drops records where any of the named fields is empty.
// Absent columns count as empty.
func RequireTransform(fields ...string) TransformFunc {
	return func(ctx context.Context, rec ingestion.Record) (ingestion.Record, error) {
		for _, field := range fields {
			if rec.Field(field) == "" {
				return rec, ErrDrop
			}
		}
		return rec, nil
	}
}

// FilterTransform keeps only records whose field matches value under op
// ("eq", "neq", "contains", "prefix").
func FilterTransform(field, op, value string) TransformFunc {
	return func(ctx context.Context, rec ingestion.Record) (ingestion.Record, error) {
		v := rec.Field(field)

		var match bool
		switch op {
		case "eq":
			match = v == value
		case "neq":
			match = v != value
		case "contains":
			match = strings.Contains(v, value)
		case "prefix":
			match = strings.HasPrefix(v, value)
		default:
			return rec, fmt.Errorf("unknown operator: %s", op)
		}

		if !match {
			return rec, ErrDrop
		}
		return rec, nil
	}
}

// ObserveTransform calls fn with each record that reaches it and passes
// the record through unchanged.
func ObserveTransform(fn func(ingestion.Record)) TransformFunc {
	return func(ctx context.Context, rec ingestion.Record) (ingestion.Record, error) {
		fn(rec)
		return rec, nil
	}
}

// Package metrics accumulates the row and byte counters of a conversion run.
package metrics

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Collector accumulates the per-run counters of a conversion job. The core
// packages update it and the CLIs read a Snapshot at the end, so nothing in
// the conversion path has to print as it goes. Snapshot may be taken from
// another goroutine while a run updates it; csv2txt does so on SIGINT.
type Collector struct {
	rowsRead         atomic.Int64
	rowsWritten      atomic.Int64
	rowsMalformed    atomic.Int64
	rowsFiltered     atomic.Int64
	batchesProcessed atomic.Int64
	bytesWritten     atomic.Int64

	mu     sync.Mutex
	stages map[string]*stageTimes

	startTime time.Time
}

// stageTimes sums the time spent in one named stage.
type stageTimes struct {
	total time.Duration
	max   time.Duration
	count int64
}

func NewCollector() *Collector {
	return &Collector{
		stages:    make(map[string]*stageTimes),
		startTime: time.Now(),
	}
}

func (c *Collector) RecordRead(n int64)      { c.rowsRead.Add(n) }
func (c *Collector) RecordWritten(n int64)   { c.rowsWritten.Add(n) }
func (c *Collector) RecordMalformed(n int64) { c.rowsMalformed.Add(n) }
func (c *Collector) RecordFiltered(n int64)  { c.rowsFiltered.Add(n) }
func (c *Collector) BatchProcessed()         { c.batchesProcessed.Add(1) }
func (c *Collector) BytesWritten(n int64)    { c.bytesWritten.Add(n) }

// TrackStageDuration records one pass through a named stage.
func (c *Collector) TrackStageDuration(stage string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.stages[stage]
	if !ok {
		st = &stageTimes{}
		c.stages[stage] = st
	}
	st.total += d
	st.count++
	if d > st.max {
		st.max = d
	}
}

// StageStat is the summary of one stage.
type StageStat struct {
	Stage  string        `json:"stage"`
	Passes int64         `json:"passes"`
	Total  time.Duration `json:"total_ns"`
	Max    time.Duration `json:"max_ns"`
}

// Avg is the mean duration of a pass.
func (s StageStat) Avg() time.Duration {
	if s.Passes == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Passes)
}

// Stages returns the tracked stages sorted by name.
func (c *Collector) Stages() []StageStat {
	c.mu.Lock()
	out := make([]StageStat, 0, len(c.stages))
	for name, st := range c.stages {
		out = append(out, StageStat{Stage: name, Passes: st.count, Total: st.total, Max: st.max})
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}

// Snapshot is a point-in-time view of the run counters.
type Snapshot struct {
	RowsRead         int64             `json:"rows_read"`
	RowsWritten      int64             `json:"rows_written"`
	RowsMalformed    int64             `json:"rows_malformed"`
	RowsFiltered     int64             `json:"rows_filtered"`
	BatchesProcessed int64             `json:"batches_processed"`
	BytesWritten     int64             `json:"bytes_written"`
	Elapsed          string            `json:"elapsed"`
	Throughput       float64           `json:"rows_per_second"`
	KeepRate         float64           `json:"keep_rate_percent"`
	AvgStageDuration map[string]string `json:"avg_stage_duration_ms"`
}

func (c *Collector) Snapshot() Snapshot {
	read := c.rowsRead.Load()
	written := c.rowsWritten.Load()
	elapsed := time.Since(c.startTime)

	var throughput, keep float64
	if elapsed.Seconds() > 0 {
		throughput = float64(read) / elapsed.Seconds()
	}
	if read > 0 {
		keep = float64(written) / float64(read) * 100
	}

	avg := make(map[string]string)
	for _, st := range c.Stages() {
		if st.Passes > 0 {
			avg[st.Stage] = fmt.Sprintf("%.2fms", float64(st.Avg().Microseconds())/1000)
		}
	}

	return Snapshot{
		RowsRead:         read,
		RowsWritten:      written,
		RowsMalformed:    c.rowsMalformed.Load(),
		RowsFiltered:     c.rowsFiltered.Load(),
		BatchesProcessed: c.batchesProcessed.Load(),
		BytesWritten:     c.bytesWritten.Load(),
		Elapsed:          elapsed.Round(time.Millisecond).String(),
		Throughput:       throughput,
		KeepRate:         keep,
		AvgStageDuration: avg,
	}
}

// JSON returns the snapshot as indented JSON.
func (c *Collector) JSON() (string, error) {
	data, err := json.MarshalIndent(c.Snapshot(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

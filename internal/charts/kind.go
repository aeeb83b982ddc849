// Package charts picks and renders the PNG charts for a benchmark result
// table.
package charts

import (
	"path/filepath"
	"strings"
)

// Kind is the chart family for a result file.
type Kind int

const (
	KindGeneric Kind = iota
	KindDBSize
	KindRecordSize
	KindCombination
)

func (k Kind) String() string {
	switch k {
	case KindDBSize:
		return "dbsize"
	case KindRecordSize:
		return "recordsize"
	case KindCombination:
		return "db_recordsize"
	default:
		return "generic"
	}
}

// ResultSuffix ends every result file name the harness writes.
const ResultSuffix = "_results.csv"

// Spec is what a result file's name says about it.
type Spec struct {
	Kind Kind
	// Averaged is set for files holding means over several runs.
	Averaged bool
	// Stem is the base name without the result suffix.
	Stem string
}

// Select derives the chart spec from a result file path. Averaged stems are
// matched by prefix, single-run stems by exact name (with or without the
// "_runs" suffix).
func Select(path string) Spec {
	stem, _, _ := strings.Cut(filepath.Base(path), ResultSuffix)
	s := Spec{Stem: stem, Averaged: strings.Contains(stem, "_avg")}

	if s.Averaged {
		switch {
		case strings.HasPrefix(stem, "dbsize"):
			s.Kind = KindDBSize
		case strings.HasPrefix(stem, "recordsize"):
			s.Kind = KindRecordSize
		case strings.HasPrefix(stem, "db_recordsize"):
			s.Kind = KindCombination
		}
		return s
	}

	switch strings.TrimSuffix(stem, "_runs") {
	case "dbsize":
		s.Kind = KindDBSize
	case "recordsize":
		s.Kind = KindRecordSize
	case "db_recordsize":
		s.Kind = KindCombination
	}
	return s
}

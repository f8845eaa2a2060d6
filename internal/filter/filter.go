// Package filter removes duplicate, incomplete and out-of-bounds rows from a table.
package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

// Bound is an admissible numeric range for one column. Use math.Inf for an open end.
type Bound struct {
	Column        string
	Low           float64
	High          float64
	LowInclusive  bool
	HighInclusive bool
}

// Between builds an exclusive bound on both ends.
func Between(col string, low, high float64) Bound {
	return Bound{Column: col, Low: low, High: high}
}

// Above builds an exclusive lower bound with no upper limit.
func Above(col string, low float64) Bound {
	return Bound{Column: col, Low: low, High: math.Inf(1)}
}

// Contains reports whether v satisfies the bound. Missing and text values never do.
func (b Bound) Contains(v dataset.Value) bool {
	if !v.IsNumber() {
		return false
	}
	x := v.Float()
	if b.LowInclusive {
		if x < b.Low {
			return false
		}
	} else if x <= b.Low {
		return false
	}
	if b.HighInclusive {
		return x <= b.High
	}
	return x < b.High
}

func (b Bound) String() string {
	lo, hi := "(", ")"
	if b.LowInclusive {
		lo = "["
	}
	if b.HighInclusive {
		hi = "]"
	}
	return fmt.Sprintf("%s in %s%g, %g%s", b.Column, lo, b.Low, b.High, hi)
}

// Spec is the filter configuration for one table.
type Spec struct {
	Required []string
	Bounds   []Bound
}

// Stats counts rows removed by each step.
type Stats struct {
	In          int `json:"in"`
	Duplicates  int `json:"duplicates"`
	Missing     int `json:"missing"`
	OutOfBounds int `json:"out_of_bounds"`
	Out         int `json:"out"`
}

// Rows applies the filter and returns the surviving rows.
func Rows(t *dataset.Table, required []string, bounds []Bound) (*dataset.Table, error) {
	out, _, err := Apply(t, Spec{Required: required, Bounds: bounds})
	return out, err
}

// Apply deduplicates, drops rows missing a required column, then drops rows outside
// any bound. Surviving rows keep their relative order and t is not modified.
//
// When a required or bounded column does not exist every row fails: the result is an
// empty table with t's columns, returned together with an error wrapping
// dataset.ErrUnknownColumn that names the missing columns.
func Apply(t *dataset.Table, spec Spec) (*dataset.Table, Stats, error) {
	st := Stats{In: t.Len()}

	reqIdx, missingCols := resolve(t, spec.Required)
	boundIdx := make([]int, len(spec.Bounds))
	for i, b := range spec.Bounds {
		j, ok := t.Index(b.Column)
		if !ok {
			missingCols = appendUnique(missingCols, b.Column)
			continue
		}
		boundIdx[i] = j
	}
	if len(missingCols) > 0 {
		return t.Empty(), Stats{In: st.In}, eris.Wrapf(dataset.ErrUnknownColumn,
			"filter: %s not in table %q", strings.Join(missingCols, ", "), t.Name)
	}

	out := t.Empty()
	seen := make(map[string]struct{}, len(t.Rows))
rows:
	for _, row := range t.Rows {
		key := row.Key()
		if _, dup := seen[key]; dup {
			st.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		for _, j := range reqIdx {
			if row[j].IsMissing() {
				st.Missing++
				continue rows
			}
		}
		for i, b := range spec.Bounds {
			if !b.Contains(row[boundIdx[i]]) {
				st.OutOfBounds++
				continue rows
			}
		}
		nr := make(dataset.Row, len(row))
		copy(nr, row)
		out.Rows = append(out.Rows, nr)
	}
	st.Out = len(out.Rows)
	return out, st, nil
}

// Dedupe removes rows identical to an earlier row, keeping the first occurrence.
func Dedupe(t *dataset.Table) *dataset.Table {
	out, _, _ := Apply(t, Spec{})
	return out
}

func resolve(t *dataset.Table, cols []string) ([]int, []string) {
	idx := make([]int, 0, len(cols))
	var missing []string
	for _, c := range cols {
		j, ok := t.Index(c)
		if !ok {
			missing = appendUnique(missing, c)
			continue
		}
		idx = append(idx, j)
	}
	return idx, missing
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}

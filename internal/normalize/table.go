package normalize

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
)

const defaultChunkSize = 2048

// Column names a target column and the policy used for it. An empty policy
// inherits Options.Policy.
type Column struct {
	Name   string
	Policy Policy
}

// Options controls a table normalization pass.
type Options struct {
	// Policy applies to columns that do not set their own.
	Policy Policy
	// Workers bounds concurrent chunks; <= 1 runs inline.
	Workers int
	// ChunkSize is the number of rows per unit of work; 0 uses a default.
	ChunkSize int
	Logger    *zap.Logger
}

// ColumnStats counts outcomes for one normalized column.
type ColumnStats struct {
	Name   string `json:"name"`
	Parsed int    `json:"parsed"`
	Absent int    `json:"absent"`
	Policy Policy `json:"policy"`
}

// Columns builds target columns that all use the options' policy.
func Columns(names ...string) []Column {
	out := make([]Column, len(names))
	for i, n := range names {
		out[i] = Column{Name: n}
	}
	return out
}

// Table returns a copy of t where every target column holds Number or Missing.
// Other columns are copied untouched. Unknown target columns are a configuration
// error and wrap dataset.ErrUnknownColumn.
func Table(ctx context.Context, t *dataset.Table, cols []Column, opt Options) (*dataset.Table, []ColumnStats, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	base := opt.Policy
	if base == "" {
		base = DefaultPolicy
	}
	idx := make([]int, len(cols))
	pol := make([]Policy, len(cols))
	var missing []string
	for i, c := range cols {
		j, ok := t.Index(c.Name)
		if !ok {
			missing = append(missing, c.Name)
			continue
		}
		idx[i] = j
		pol[i] = c.Policy
		if pol[i] == "" {
			pol[i] = base
		}
	}
	if len(missing) > 0 {
		return nil, nil, eris.Wrapf(dataset.ErrUnknownColumn, "normalize: %s", strings.Join(missing, ", "))
	}

	out := t.Clone()
	chunk := opt.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	nchunks := (len(out.Rows) + chunk - 1) / chunk
	// per-chunk counters avoid sharing state between workers
	parsed := make([][]int, nchunks)

	work := func(ctx context.Context, ci int) error {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "normalize: context cancelled")
		}
		lo := ci * chunk
		hi := min(lo+chunk, len(out.Rows))
		counts := make([]int, len(cols))
		for _, row := range out.Rows[lo:hi] {
			for k, j := range idx {
				p := NormalizeWith(row[j], pol[k])
				if p.Valid {
					counts[k]++
				}
				row[j] = p.ToValue()
			}
		}
		parsed[ci] = counts
		return nil
	}

	if opt.Workers <= 1 || nchunks <= 1 {
		for ci := 0; ci < nchunks; ci++ {
			if err := work(ctx, ci); err != nil {
				return nil, nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opt.Workers)
		for ci := 0; ci < nchunks; ci++ {
			ci := ci
			g.Go(func() error { return work(gctx, ci) })
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	}

	stats := make([]ColumnStats, len(cols))
	for k, c := range cols {
		stats[k] = ColumnStats{Name: c.Name, Policy: pol[k]}
		for _, counts := range parsed {
			stats[k].Parsed += counts[k]
		}
		stats[k].Absent = len(out.Rows) - stats[k].Parsed
		log.Debug("normalized column",
			zap.String("column", c.Name),
			zap.String("policy", string(pol[k])),
			zap.Int("parsed", stats[k].Parsed),
			zap.Int("absent", stats[k].Absent),
		)
	}
	return out, stats, nil
}

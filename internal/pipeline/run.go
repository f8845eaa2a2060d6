package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/KaramelBytes/autoclean-cli/internal/dataset"
	"github.com/KaramelBytes/autoclean-cli/internal/filter"
	"github.com/KaramelBytes/autoclean-cli/internal/normalize"
)

// Options tunes a run without changing the profile.
type Options struct {
	// Policy overrides the profile policy when set. Column policies still win.
	Policy normalize.Policy
	// DefaultPolicy applies when neither Policy nor the profile sets one.
	DefaultPolicy normalize.Policy
	Workers       int
	ChunkSize     int
	Logger        *zap.Logger
}

// Timings records the duration of each stage.
type Timings struct {
	Prepare   time.Duration `json:"prepare"`
	Normalize time.Duration `json:"normalize"`
	Filter    time.Duration `json:"filter"`
	Total     time.Duration `json:"total"`
}

// Result is the outcome of a run.
type Result struct {
	ID        string                  `json:"id"`
	Profile   string                  `json:"profile"`
	Policy    normalize.Policy        `json:"policy"`
	Table     *dataset.Table          `json:"-"`
	Columns   []normalize.ColumnStats `json:"columns"`
	Filter    filter.Stats            `json:"filter"`
	Timings   Timings                 `json:"timings"`
	StartedAt time.Time               `json:"started_at"`
}

// Run cleans t according to p. The input table is not modified.
//
// When the filter names a column the table does not have, Run returns a result
// whose table is empty together with an error wrapping dataset.ErrUnknownColumn.
func Run(ctx context.Context, t *dataset.Table, p *Profile, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil {
		return nil, eris.New("pipeline: nil profile")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	policy := opt.Policy
	if policy == "" {
		policy = p.Policy
	}
	if policy == "" {
		policy = opt.DefaultPolicy
	}
	policy, err := normalize.ParsePolicy(string(policy))
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:        uuid.NewString(),
		Profile:   p.Name,
		Policy:    policy,
		StartedAt: time.Now(),
	}
	log = log.With(zap.String("run_id", res.ID), zap.String("profile", p.Name), zap.String("table", t.Name))
	log.Info("pipeline started", zap.Int("rows", t.Len()), zap.Int("columns", len(t.Columns)))

	stage := time.Now()
	work, err := Prepare(t, p)
	if err != nil {
		return nil, err
	}
	res.Timings.Prepare = time.Since(stage)

	stage = time.Now()
	cols := make([]normalize.Column, 0, len(p.Numeric))
	for _, c := range p.Numeric {
		if _, ok := work.Index(c.Name); !ok && c.Optional {
			log.Debug("optional numeric column absent", zap.String("column", c.Name))
			continue
		}
		cols = append(cols, normalize.Column{Name: c.Name, Policy: c.Policy})
	}
	work, res.Columns, err = normalize.Table(ctx, work, cols, normalize.Options{
		Policy:    policy,
		Workers:   opt.Workers,
		ChunkSize: opt.ChunkSize,
		Logger:    log,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline")
	}
	res.Timings.Normalize = time.Since(stage)

	stage = time.Now()
	out, stats, ferr := filter.Apply(work, p.FilterSpec())
	res.Table = out
	res.Filter = stats
	res.Timings.Filter = time.Since(stage)
	res.Timings.Total = time.Since(res.StartedAt)
	if ferr != nil {
		log.Warn("filter rejected every row", zap.Error(ferr))
		return res, eris.Wrap(ferr, "pipeline")
	}
	log.Info("pipeline finished",
		zap.Int("in", stats.In),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("missing", stats.Missing),
		zap.Int("out_of_bounds", stats.OutOfBounds),
		zap.Int("out", stats.Out),
		zap.Duration("elapsed", res.Timings.Total),
	)
	return res, nil
}

// Prepare applies the structural steps of a profile: rename, header
// normalization, column selection and relabeling.
func Prepare(t *dataset.Table, p *Profile) (*dataset.Table, error) {
	out := t.Rename(p.Rename)
	if p.NormalizeHeaders {
		out = out.NormalizeHeaders()
	}
	if len(p.Keep) > 0 {
		sel, err := out.Select(p.Keep...)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: keep")
		}
		out = sel
	}
	for col, mapping := range p.Relabel {
		Relabel(out, col, mapping)
	}
	return out, nil
}

// Relabel lowercases and trims the text values of col in place and replaces
// those found in mapping. Missing and numeric cells are left alone; an absent
// column is ignored.
func Relabel(t *dataset.Table, col string, mapping map[string]string) {
	j, ok := t.Index(col)
	if !ok {
		return
	}
	for _, row := range t.Rows {
		if !row[j].IsText() {
			continue
		}
		v := strings.ToLower(strings.TrimSpace(row[j].Text()))
		if to, ok := mapping[v]; ok {
			v = to
		}
		row[j] = dataset.Text(v)
	}
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/autoclean-cli/internal/config"
	"github.com/KaramelBytes/autoclean-cli/internal/manifest"
	"github.com/KaramelBytes/autoclean-cli/internal/normalize"
	"github.com/KaramelBytes/autoclean-cli/internal/pipeline"
	"github.com/KaramelBytes/autoclean-cli/internal/sink"
	"github.com/KaramelBytes/autoclean-cli/internal/source"
	"github.com/KaramelBytes/autoclean-cli/internal/utils"
)

var (
	clProfile    string
	clOutputPath string
	clSQLitePath string
	clPolicy     string
	clDelimiter  string
	clEncoding   string
	clMaxRows    int
	clSheetName  string
	clSheetIndex int
	clNoManifest bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Clean one CSV/TSV/XLSX dataset with a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := inputFlags{
			Profile:    clProfile,
			Policy:     clPolicy,
			Delimiter:  clDelimiter,
			Encoding:   clEncoding,
			MaxRows:    clMaxRows,
			SheetName:  clSheetName,
			SheetIndex: clSheetIndex,
		}
		job, err := newCleanJob(in)
		if err != nil {
			return err
		}
		path := args[0]
		out := clOutputPath
		if out == "" {
			out = filepath.Join(currentConfig().OutputDir, defaultOutputName(path))
		}
		if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
			return eris.Wrap(err, "create output dir")
		}

		entry, err := job.run(cmd.Context(), path, out, clSQLitePath)
		if !clNoManifest && entry != nil {
			if merr := recordRuns(filepath.Dir(out), entry); merr != nil {
				zap.L().Warn("manifest not updated", zap.Error(merr))
			}
		}
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), entry)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clProfile, "profile", "p", "", "profile name (cars, ev, ev-strict, or one in profiles_dir) or YAML file")
	cleanCmd.Flags().StringVarP(&clOutputPath, "output", "o", "", "output CSV path (default <output_dir>/<name>_clean.csv)")
	cleanCmd.Flags().StringVar(&clSQLitePath, "sqlite", "", "also write the cleaned table into this SQLite database")
	cleanCmd.Flags().StringVar(&clPolicy, "policy", "", "normalization policy: range-then-extract | strict-range (overrides profile)")
	cleanCmd.Flags().StringVar(&clDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	cleanCmd.Flags().StringVar(&clEncoding, "encoding", "", "CSV encoding: utf-8 | latin1 | windows-1252 (overrides config)")
	cleanCmd.Flags().IntVar(&clMaxRows, "max-rows", 0, "maximum rows to read (0 = config or unlimited)")
	cleanCmd.Flags().StringVar(&clSheetName, "sheet-name", "", "XLSX: sheet name to clean")
	cleanCmd.Flags().IntVar(&clSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cleanCmd.Flags().BoolVar(&clNoManifest, "no-manifest", false, "do not record the run in manifest.json")
}

// inputFlags are the reading and profile options shared by clean and clean-batch.
type inputFlags struct {
	Profile    string
	Policy     string
	Delimiter  string
	Encoding   string
	MaxRows    int
	SheetName  string
	SheetIndex int
}

type cleanJob struct {
	profile *pipeline.Profile
	read    source.Options
	opts    pipeline.Options
}

func newCleanJob(in inputFlags) (*cleanJob, error) {
	c := currentConfig()
	if in.Profile == "" {
		return nil, eris.Errorf("--profile is required (available: %s)", strings.Join(pipeline.Names(c.ProfilesDir), ", "))
	}
	p, err := pipeline.Resolve(in.Profile, c.ProfilesDir)
	if err != nil {
		return nil, err
	}
	var policy normalize.Policy
	if in.Policy != "" {
		if policy, err = normalize.ParsePolicy(in.Policy); err != nil {
			return nil, err
		}
	}
	delim, err := parseDelimiter(in.Delimiter)
	if err != nil {
		return nil, err
	}
	read := source.Options{
		Delimiter:  delim,
		Encoding:   c.Encoding,
		MaxRows:    c.MaxRows,
		SheetName:  in.SheetName,
		SheetIndex: in.SheetIndex,
	}
	if in.Encoding != "" {
		read.Encoding = in.Encoding
	}
	if in.MaxRows > 0 {
		read.MaxRows = in.MaxRows
	}
	return &cleanJob{
		profile: p,
		read:    read,
		opts: pipeline.Options{
			Policy:        policy,
			DefaultPolicy: normalize.Policy(c.DefaultPolicy),
			Workers:       c.Workers,
			Logger:        zap.L(),
		},
	}, nil
}

// run cleans one file and writes the outputs. The returned entry is non-nil
// whenever the pipeline produced a result, failed runs included.
func (j *cleanJob) run(ctx context.Context, path, csvOut, sqliteOut string) (*manifest.Entry, error) {
	started := time.Now()
	t, err := source.Load(path, j.read)
	if err != nil {
		return nil, err
	}
	res, err := pipeline.Run(ctx, t, j.profile, j.opts)
	if res == nil {
		return nil, eris.Wrapf(err, "clean %s", path)
	}
	entry := &manifest.Entry{
		ID:        res.ID,
		Input:     path,
		Profile:   res.Profile,
		Policy:    string(res.Policy),
		Rows:      res.Filter,
		Columns:   res.Columns,
		StartedAt: started,
	}
	if err != nil {
		entry.Error = err.Error()
		return entry, eris.Wrapf(err, "clean %s", path)
	}
	if err := sink.SaveCSV(csvOut, res.Table); err != nil {
		entry.Error = err.Error()
		return entry, err
	}
	entry.Outputs = append(entry.Outputs, csvOut)
	if sqliteOut != "" {
		res.Table.Name = tableNameFor(csvOut)
		if err := sink.SaveSQLite(ctx, sqliteOut, res.Table); err != nil {
			entry.Error = err.Error()
			return entry, err
		}
		entry.Outputs = append(entry.Outputs, sqliteOut+"#"+res.Table.Name)
	}
	entry.FinishedAt = time.Now()
	return entry, nil
}

func recordRuns(dir string, entries ...*manifest.Entry) error {
	m, err := manifest.Open(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		m.Add(e)
	}
	return m.Save()
}

func printSummary(w io.Writer, e *manifest.Entry) {
	r := e.Rows
	fmt.Fprintf(w, "✓ Wrote %d of %d rows to %s (duplicates %d, missing %d, out of bounds %d)\n",
		r.Out, r.In, e.Outputs[0], r.Duplicates, r.Missing, r.OutOfBounds)
	for _, o := range e.Outputs[1:] {
		fmt.Fprintf(w, "  also %s\n", o)
	}
}

func defaultOutputName(input string) string {
	return source.TableName(input) + "_clean.csv"
}

// tableNameFor derives a SQLite table name from an output file name.
func tableNameFor(out string) string {
	name := source.TableName(out)
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	}
	return 0, eris.Errorf("unsupported --delimiter: %s", s)
}

// currentConfig returns the loaded config, loading it when a command runs
// outside Execute.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

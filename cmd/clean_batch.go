package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/autoclean-cli/internal/manifest"
	"github.com/KaramelBytes/autoclean-cli/internal/utils"
)

var (
	cbProfile    string
	cbOutputDir  string
	cbSQLitePath string
	cbPolicy     string
	cbDelimiter  string
	cbEncoding   string
	cbMaxRows    int
	cbSheetName  string
	cbSheetIndex int
	cbKeepGoing  bool
	cbQuiet      bool
)

var cleanBatchCmd = &cobra.Command{
	Use:   "clean-batch <files...>",
	Short: "Clean multiple CSV/TSV/XLSX files with one profile, with progress",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return eris.New("no input files matched")
		}

		job, err := newCleanJob(inputFlags{
			Profile:    cbProfile,
			Policy:     cbPolicy,
			Delimiter:  cbDelimiter,
			Encoding:   cbEncoding,
			MaxRows:    cbMaxRows,
			SheetName:  cbSheetName,
			SheetIndex: cbSheetIndex,
		})
		if err != nil {
			return err
		}
		outDir := cbOutputDir
		if outDir == "" {
			outDir = currentConfig().OutputDir
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return eris.Wrap(err, "create output dir")
		}

		w := cmd.OutOrStdout()
		taken := map[string]bool{}
		var entries []*manifest.Entry
		var failed int
		total := len(files)
		for i, path := range files {
			if !cbQuiet {
				fmt.Fprintf(w, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			name := defaultOutputName(path)
			if unique := utils.UniqueName(name, taken); unique != name {
				if !cbQuiet {
					fmt.Fprintf(w, "⚠ Output name %s already used in this batch, writing to %s to avoid overwrite.\n", name, unique)
				}
				name = unique
			}
			taken[name] = true
			out := filepath.Join(outDir, name)

			entry, err := job.run(cmd.Context(), path, out, cbSQLitePath)
			if entry != nil {
				entries = append(entries, entry)
			}
			if err != nil {
				failed++
				if !cbKeepGoing {
					saveBatchManifest(outDir, entries)
					return err
				}
				fmt.Fprintf(w, "✗ %s: %v\n", filepath.Base(path), err)
				continue
			}
			if !cbQuiet {
				printSummary(w, entry)
			}
		}
		saveBatchManifest(outDir, entries)
		if failed > 0 {
			return eris.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanBatchCmd)
	cleanBatchCmd.Flags().StringVarP(&cbProfile, "profile", "p", "", "profile name or YAML file applied to every input")
	cleanBatchCmd.Flags().StringVar(&cbOutputDir, "output-dir", "", "directory for <name>_clean.csv files (default output_dir from config)")
	cleanBatchCmd.Flags().StringVar(&cbSQLitePath, "sqlite", "", "also write every cleaned table into this SQLite database")
	cleanBatchCmd.Flags().StringVar(&cbPolicy, "policy", "", "normalization policy: range-then-extract | strict-range (overrides profile)")
	cleanBatchCmd.Flags().StringVar(&cbDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	cleanBatchCmd.Flags().StringVar(&cbEncoding, "encoding", "", "CSV encoding: utf-8 | latin1 | windows-1252 (overrides config)")
	cleanBatchCmd.Flags().IntVar(&cbMaxRows, "max-rows", 0, "maximum rows to read per file (0 = config or unlimited)")
	cleanBatchCmd.Flags().StringVar(&cbSheetName, "sheet-name", "", "XLSX: sheet name to clean")
	cleanBatchCmd.Flags().IntVar(&cbSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	cleanBatchCmd.Flags().BoolVar(&cbKeepGoing, "keep-going", false, "continue with the remaining files after a failure")
	cleanBatchCmd.Flags().BoolVar(&cbQuiet, "quiet", false, "suppress progress and non-essential output")
}

// expandInputs resolves globs, keeps literal paths that exist, drops duplicates
// and sorts the result.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func saveBatchManifest(dir string, entries []*manifest.Entry) {
	if len(entries) == 0 {
		return
	}
	if err := recordRuns(dir, entries...); err != nil {
		zap.L().Warn("manifest not updated", zap.Error(err))
	}
}

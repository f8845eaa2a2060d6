package cmd

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoclean-cli/internal/manifest"
)

var (
	hsDir   string
	hsLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show cleaning runs recorded in an output directory's manifest.json",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := hsDir
		if dir == "" {
			dir = currentConfig().OutputDir
		}
		m, err := manifest.Load(dir)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(args) == 1 {
			e, ok := m.Find(args[0])
			if !ok {
				return eris.Errorf("run %s not found in %s", args[0], m.Path())
			}
			printEntry(w, e, true)
			return nil
		}
		runs := m.Latest(hsLimit)
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded")
			return nil
		}
		for _, e := range runs {
			printEntry(w, e, false)
		}
		return nil
	},
}

func printEntry(w io.Writer, e *manifest.Entry, detail bool) {
	status := "✓"
	if e.Error != "" {
		status = "✗"
	}
	fmt.Fprintf(w, "%s %s  %s  %s  %d -> %d rows  [%s]\n",
		status, e.ID, e.FinishedAt.Format("2006-01-02 15:04:05"), e.Input, e.Rows.In, e.Rows.Out, e.Profile)
	if !detail {
		return
	}
	fmt.Fprintf(w, "  policy: %s\n", e.Policy)
	fmt.Fprintf(w, "  dropped: duplicates %d, missing %d, out of bounds %d\n", e.Rows.Duplicates, e.Rows.Missing, e.Rows.OutOfBounds)
	for _, c := range e.Columns {
		fmt.Fprintf(w, "  %s: %d parsed, %d absent\n", c.Name, c.Parsed, c.Absent)
	}
	for _, o := range e.Outputs {
		fmt.Fprintf(w, "  output: %s\n", o)
	}
	if e.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", e.Error)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&hsDir, "dir", "", "output directory holding manifest.json (default output_dir from config)")
	historyCmd.Flags().IntVarP(&hsLimit, "limit", "n", 10, "number of runs to show (0 = all)")
}

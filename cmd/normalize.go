package cmd

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/autoclean-cli/internal/normalize"
)

var nmPolicy string

var normalizeCmd = &cobra.Command{
	Use:   "normalize [values...]",
	Short: "Normalize numeric text values (reads lines from stdin when no values are given)",
	Example: `  autoclean normalize '$1,100,000' '300-350 hp' 'V8 Twin Turbo'
  cut -d, -f3 cars.csv | autoclean normalize --policy strict-range`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := nmPolicy
		if name == "" {
			name = currentConfig().DefaultPolicy
		}
		policy, err := normalize.ParsePolicy(name)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		emit := func(s string) {
			p := normalize.NormalizeString(s, policy)
			out := "NA"
			if p.Valid {
				out = strconv.FormatFloat(p.Value, 'f', -1, 64)
			}
			fmt.Fprintf(w, "%s\t%s\n", s, out)
		}
		if len(args) > 0 {
			for _, a := range args {
				emit(a)
			}
			return nil
		}
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			emit(sc.Text())
		}
		return eris.Wrap(sc.Err(), "read stdin")
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	normalizeCmd.Flags().StringVar(&nmPolicy, "policy", "", "normalization policy: range-then-extract | strict-range (default from config)")
}

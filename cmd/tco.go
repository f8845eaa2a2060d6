package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/autoclean-cli/internal/normalize"
	"github.com/KaramelBytes/autoclean-cli/internal/source"
	"github.com/KaramelBytes/autoclean-cli/internal/tco"
	"github.com/KaramelBytes/autoclean-cli/internal/utils"
)

var (
	tcoA         = tco.DefaultAssumptions()
	tcoEVData    string
	tcoICEData   string
	tcoEVColumn  string
	tcoICEColumn string
	tcoJSON      bool
)

var tcoCmd = &cobra.Command{
	Use:   "tco",
	Short: "Project EV vs combustion total cost of ownership and the breakeven year",
	Long: `Projects cumulative ownership cost per year for an electric and a combustion vehicle.
Purchase prices default to US averages; pass cleaned datasets with --ev-data / --ice-data to use
the median price of each instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := tcoA
		if tcoEVData != "" {
			m, err := medianPrice(cmd.Context(), tcoEVData, tcoEVColumn)
			if err != nil {
				return err
			}
			a.EVPrice = m
		}
		if tcoICEData != "" {
			m, err := medianPrice(cmd.Context(), tcoICEData, tcoICEColumn)
			if err != nil {
				return err
			}
			a.ICEPrice = m
		}
		p, err := tco.Project(a)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if tcoJSON {
			b, err := utils.PrettyJSON(p)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			return nil
		}
		printProjection(w, p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tcoCmd)
	f := tcoCmd.Flags()
	f.IntVar(&tcoA.Years, "years", tcoA.Years, "years of ownership")
	f.Float64Var(&tcoA.AnnualMiles, "miles", tcoA.AnnualMiles, "miles driven per year")
	f.Float64Var(&tcoA.EVKWhPer100Mi, "ev-kwh-100mi", tcoA.EVKWhPer100Mi, "EV consumption in kWh per 100 miles")
	f.Float64Var(&tcoA.ICEMPG, "ice-mpg", tcoA.ICEMPG, "combustion fuel economy in miles per gallon")
	f.Float64Var(&tcoA.PricePerKWh, "price-kwh", tcoA.PricePerKWh, "electricity price per kWh")
	f.Float64Var(&tcoA.PricePerGallon, "price-gal", tcoA.PricePerGallon, "fuel price per gallon")
	f.Float64Var(&tcoA.MaintEV, "maint-ev", tcoA.MaintEV, "EV maintenance per year")
	f.Float64Var(&tcoA.MaintICE, "maint-ice", tcoA.MaintICE, "combustion maintenance per year")
	f.Float64Var(&tcoA.EVPrice, "ev-price", tcoA.EVPrice, "EV purchase price")
	f.Float64Var(&tcoA.ICEPrice, "ice-price", tcoA.ICEPrice, "combustion purchase price")
	f.StringVar(&tcoEVData, "ev-data", "", "cleaned EV dataset; its median price replaces --ev-price")
	f.StringVar(&tcoICEData, "ice-data", "", "cleaned car dataset; its median price replaces --ice-price")
	f.StringVar(&tcoEVColumn, "ev-price-column", "price_usd", "price column in --ev-data")
	f.StringVar(&tcoICEColumn, "ice-price-column", "price_usd", "price column in --ice-data")
	f.BoolVar(&tcoJSON, "json", false, "print the projection as JSON")
}

// medianPrice reads a dataset and returns the median of one column after
// normalization.
func medianPrice(ctx context.Context, path, column string) (float64, error) {
	t, err := source.Load(path, source.Options{})
	if err != nil {
		return 0, err
	}
	t, _, err = normalize.Table(ctx, t, normalize.Columns(column), normalize.Options{Logger: zap.L()})
	if err != nil {
		return 0, eris.Wrapf(err, "%s", path)
	}
	vals, err := t.Floats(column)
	if err != nil {
		return 0, err
	}
	m, ok := tco.Median(vals)
	if !ok {
		return 0, eris.Errorf("%s: no numeric values in %q", path, column)
	}
	zap.L().Debug("median price", zap.String("file", path), zap.Int("values", len(vals)), zap.Float64("median", m))
	return m, nil
}

func printProjection(w io.Writer, p *tco.Projection) {
	a := p.Assumptions
	fmt.Fprintf(w, "EV price %.0f, ICE price %.0f, %.0f mi/year\n\n", a.EVPrice, a.ICEPrice, a.AnnualMiles)
	fmt.Fprintf(w, "%-6s %14s %14s\n", "Year", "EV total", "ICE total")
	for i := range p.EV {
		fmt.Fprintf(w, "%-6d %14.2f %14.2f\n", i+1, p.EV[i], p.ICE[i])
	}
	fmt.Fprintln(w)
	if p.Breakeven > 0 {
		fmt.Fprintf(w, "Breakeven ~ Year %d\n", p.Breakeven)
	} else {
		fmt.Fprintf(w, "No breakeven within %d years\n", a.Years)
	}
}

package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/nimeshabuddhika/treasury-desk/pkg/client"
	"github.com/nimeshabuddhika/treasury-desk/pkg/treasury"
	"github.com/nimeshabuddhika/treasury-desk/pkg/views"
	"github.com/spf13/cobra"
)

func newYieldsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yields",
		Short: "Query treasury par yield curves",
	}
	cmd.AddCommand(newYieldsCurveCommand(opts), newYieldsRangeCommand(opts), newYieldsTenorCommand(opts))
	return cmd
}

func newYieldsCurveCommand(opts *options) *cobra.Command {
	var previous bool
	cmd := &cobra.Command{
		Use:   "curve <YYYY-MM-DD>",
		Short: "Show the curve published on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateOutput(); err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			curve, err := c.CurveForDate(ctx, args[0], previous)
			if err != nil {
				return describe(err)
			}
			if opts.output == "json" {
				return opts.printJSON(curve)
			}
			return opts.printCurves(curve)
		},
	}
	cmd.Flags().BoolVar(&previous, "previous", false, "fall back to the latest earlier curve")
	return cmd
}

func newYieldsRangeCommand(opts *options) *cobra.Command {
	var (
		years []int
		q     client.RangeQuery
	)
	cmd := &cobra.Command{
		Use:     "range",
		Short:   "Show curves for years or a date range",
		Example: "  deskctl yields range --start 2024-12-01 --end 2025-01-31",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validateOutput(); err != nil {
				return err
			}
			q.Years = years
			if len(q.Years) == 0 && q.StartDate == "" && q.EndDate == "" {
				return fmt.Errorf("set --years, --start or --end")
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			resp, err := c.CurvesForRange(ctx, q)
			if err != nil {
				return describe(err)
			}
			if opts.output == "json" {
				return opts.printJSON(resp)
			}
			fmt.Fprintf(opts.out, "source %s, years %s, %d curves\n", resp.Source, strings.Join(resp.Years, ","), resp.Count)
			return opts.printCurves(resp.Data...)
		},
	}
	cmd.Flags().IntSliceVar(&years, "years", nil, "comma separated years")
	cmd.Flags().StringVar(&q.StartDate, "start", "", "inclusive start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.EndDate, "end", "", "inclusive end date (YYYY-MM-DD)")
	return cmd
}

func newYieldsTenorCommand(opts *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "tenor <code>",
		Short: "Show the default yield for a tenor such as 10Y",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateOutput(); err != nil {
				return err
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			v, err := c.YieldForTenor(ctx, args[0], date)
			if err != nil {
				return describe(err)
			}
			if opts.output == "json" {
				return opts.printJSON(v)
			}
			_, err = fmt.Fprintf(opts.out, "%s %s (%s): %.2f%% (%d bp)\n", v.Date, v.Tenor, v.Label, v.Yield, v.YieldBP)
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "as-of date (YYYY-MM-DD), default today")
	return cmd
}

// printCurves renders one row per date with maturities ordered shortest first.
func (o *options) printCurves(curves ...views.CurveView) error {
	seen := make(map[string]int)
	for _, c := range curves {
		for label, bp := range c.Yields {
			seen[label] = bp
		}
	}
	labels := treasury.SortedLabels(seen)
	sort.SliceStable(curves, func(i, j int) bool { return curves[i].Date < curves[j].Date })

	w := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "DATE")
	for _, l := range labels {
		fmt.Fprintf(w, "\t%s", l)
	}
	fmt.Fprintln(w)
	for _, c := range curves {
		fmt.Fprint(w, c.Date)
		for _, l := range labels {
			if bp, ok := c.Yields[l]; ok {
				fmt.Fprintf(w, "\t%.2f", float64(bp)/100)
			} else {
				fmt.Fprint(w, "\t-")
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kannadi/internal/budget"
	"kannadi/internal/core"
	"kannadi/internal/currency"
	"kannadi/internal/services"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM | YYYY-ALL]",
	Short: "Income, spending and 50/30/20 buckets for a month or year",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummary,
}

var (
	flagFrom   string
	flagTo     string
	flagWindow int
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Monthly income, spending and savings series",
	RunE:  runTrends,
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Spending by category",
	RunE:  runBreakdown,
}

func init() {
	trendsCmd.Flags().StringVar(&flagFrom, "from", "", "First month YYYY-MM")
	trendsCmd.Flags().StringVar(&flagTo, "to", "", "Last month YYYY-MM")
	trendsCmd.Flags().IntVarP(&flagWindow, "window", "w", 0, "Also print the N-month rolling savings average")
	breakdownCmd.Flags().StringVar(&flagFrom, "from", "", "First month YYYY-MM")
	breakdownCmd.Flags().StringVar(&flagTo, "to", "", "Last month YYYY-MM")
	rootCmd.AddCommand(summaryCmd, trendsCmd, breakdownCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		period := flagMonth
		if len(args) == 1 {
			period = args[0]
		}
		if period == "" {
			m, _ := referenceMonth()
			period = m.String()
		}
		p, err := services.ParsePeriod(period)
		if err != nil {
			return err
		}
		sum, err := a.reports.Summary(ctx, p)
		if err != nil {
			return err
		}
		if flagJSON {
			return a.printJSON(sum)
		}

		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Period\t%s\n", sum.Period)
		fmt.Fprintf(tw, "Income\t%s\n", sum.Display["income"])
		fmt.Fprintf(tw, "Spent\t%s\n", sum.Display["expenses"])
		fmt.Fprintf(tw, "Saved\t%s\n", sum.Display["allocated"])
		fmt.Fprintf(tw, "Remaining\t%s\n", sum.Display["remaining"])
		fmt.Fprintln(tw, "\t")
		fmt.Fprintln(tw, "Bucket\tActual\tPlanned\tShare\tTarget")
		for _, b := range []budget.Bucket{sum.Summary.Needs, sum.Summary.Wants, sum.Summary.Savings} {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\t%s%%\n", b.Type,
				currency.Format(b.Actual, sum.Currency),
				currency.Format(b.Planned, sum.Currency),
				humanize.FtoaWithDigits(b.Percent, 1),
				humanize.FtoaWithDigits(b.TargetPercent, 0))
		}
		return tw.Flush()
	})
}

func parseBounds() (from, to core.Month, err error) {
	if flagFrom != "" {
		if from, err = core.ParseMonth(flagFrom); err != nil {
			return from, to, fmt.Errorf("invalid --from %q", flagFrom)
		}
	}
	if flagTo != "" {
		if to, err = core.ParseMonth(flagTo); err != nil {
			return from, to, fmt.Errorf("invalid --to %q", flagTo)
		}
	}
	return from, to, nil
}

func runTrends(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		from, to, err := parseBounds()
		if err != nil {
			return err
		}
		series, err := a.reports.Trends(ctx, from, to)
		if err != nil {
			return err
		}
		var rolling []budget.TrendPoint
		if flagWindow > 0 {
			if rolling, err = a.reports.RollingSavings(ctx, flagWindow); err != nil {
				return err
			}
		}
		if flagJSON {
			return a.printJSON(map[string]any{"months": series, "rolling": rolling})
		}
		if len(series) == 0 {
			fmt.Fprintln(a.out, "No transactions recorded yet.")
			return nil
		}

		code, err := a.reports.Currency(ctx)
		if err != nil {
			return err
		}
		avg := make(map[core.Month]float64, len(rolling))
		for _, p := range rolling {
			avg[p.Month] = p.Savings
		}
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', tabwriter.AlignRight)
		header := "Month\tIncome\tSpent\tSaved\t"
		if flagWindow > 0 {
			header += fmt.Sprintf("Avg %dm\t", flagWindow)
		}
		fmt.Fprintln(tw, header)
		for _, md := range series {
			line := fmt.Sprintf("%s\t%s\t%s\t%s\t", md.Month,
				currency.FormatWhole(md.Income, code),
				currency.FormatWhole(md.Expenses, code),
				currency.FormatWhole(md.Savings, code))
			if flagWindow > 0 {
				line += currency.FormatWhole(avg[md.Month], code) + "\t"
			}
			fmt.Fprintln(tw, line)
		}
		return tw.Flush()
	})
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		from, to, err := parseBounds()
		if err != nil {
			return err
		}
		totals, err := a.reports.Breakdown(ctx, from, to)
		if err != nil {
			return err
		}
		if flagJSON {
			return a.printJSON(totals)
		}
		code, err := a.reports.Currency(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "Category\tBucket\tAmount\tShare\tEntries")
		for _, t := range totals {
			fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s%%\t%s\n", t.Category.Icon, t.Category.Name, t.Category.Type,
				currency.Format(t.Amount, code), humanize.FtoaWithDigits(t.Share, 1), humanize.Comma(int64(t.Count)))
		}
		return tw.Flush()
	})
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kannadi/internal/budget"
	"kannadi/internal/currency"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Yearly savings projection and what it would cover",
	RunE:  runProject,
}

var goalCmd = &cobra.Command{
	Use:   "goal <target> <months>",
	Short: "Check whether a savings target is realistic",
	Args:  cobra.ExactArgs(2),
	RunE:  runGoal,
}

func init() {
	rootCmd.AddCommand(projectCmd, goalCmd)
}

func runProject(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		current, err := referenceMonth()
		if err != nil {
			return err
		}
		rep, err := a.reports.Projection(ctx, current)
		if err != nil {
			return err
		}
		if flagJSON {
			return a.printJSON(rep)
		}
		if !rep.Ready {
			fmt.Fprintf(a.out, "Not enough history yet: record %d more completed month(s) with income.\n", rep.Needed)
			return nil
		}

		p, cov := rep.Projection, rep.Coverage
		fmt.Fprintln(a.out, rep.Headline)
		fmt.Fprintln(a.out)
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Months analyzed\t%d\n", p.MonthsAnalyzed)
		fmt.Fprintf(tw, "Average income\t%s\n", currency.Format(p.AverageIncome, rep.Currency))
		fmt.Fprintf(tw, "Average spending\t%s\n", currency.Format(p.AverageExpenses, rep.Currency))
		fmt.Fprintf(tw, "Average savings\t%s\n", currency.Format(p.AverageSavings, rep.Currency))
		fmt.Fprintf(tw, "Yearly projection\t%s\n", currency.FormatWhole(p.YearlyProjection, rep.Currency))
		fmt.Fprintf(tw, "Covers living costs for\t%s\n", cov.LivingExpenses)
		fmt.Fprintf(tw, "Emergency buffer\t%s\n", cov.EmergencyBuffer)
		if err := tw.Flush(); err != nil {
			return err
		}

		if len(cov.Categories) > 0 {
			fmt.Fprintln(a.out)
			tw = tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Category\tMonthly\tCovers")
			for _, c := range cov.Categories {
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", c.Category.Icon, c.Category.Name,
					currency.Format(c.MonthlyAverage, rep.Currency), c.Covers)
			}
			return tw.Flush()
		}
		return nil
	})
}

func runGoal(cmd *cobra.Command, args []string) error {
	target, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid target %q", args[0])
	}
	months, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid months %q", args[1])
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		current, err := referenceMonth()
		if err != nil {
			return err
		}
		res, err := a.reports.Goal(ctx, target, months, current)
		if err != nil {
			return err
		}
		if flagJSON {
			return a.printJSON(res)
		}
		fmt.Fprintf(a.out, "%s %s\n\n%s\n", goalMark(res.Status), res.Title, res.Message)
		return nil
	})
}

func goalMark(s budget.GoalStatus) string {
	switch s {
	case budget.Achievable:
		return "[ok]"
	case budget.PartiallyAchievable:
		return "[~]"
	default:
		return "[x]"
	}
}

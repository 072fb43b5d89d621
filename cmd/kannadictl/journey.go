package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kannadi/internal/budget"
)

var journeyCmd = &cobra.Command{
	Use:   "journey",
	Short: "Cumulative 50/30/20 shares and your saver persona",
	RunE:  runJourney,
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Plain-language observations about a month",
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(journeyCmd, insightsCmd)
}

func runJourney(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		current, err := referenceMonth()
		if err != nil {
			return err
		}
		rep, err := a.reports.Journey(ctx, current)
		if err != nil {
			return err
		}
		if flagJSON {
			return a.printJSON(rep)
		}
		if !rep.Ready {
			fmt.Fprintf(a.out, "Your journey starts after %d completed months with income.\n", budget.MinAnalysisMonths)
			return nil
		}

		j, p := rep.Journey, rep.Persona
		fmt.Fprintf(a.out, "%s %s\n%s\n\n", p.Icon, p.Title, p.Description)
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Months\t%d\n", j.Months)
		fmt.Fprintf(tw, "Needs\t%s%%\n", humanize.FtoaWithDigits(j.NeedsPercentage, 1))
		fmt.Fprintf(tw, "Wants\t%s%%\n", humanize.FtoaWithDigits(j.WantsPercentage, 1))
		fmt.Fprintf(tw, "Savings\t%s%%\n", humanize.FtoaWithDigits(j.SavingsPercentage, 1))
		fmt.Fprintf(tw, "Momentum\t%s\n", p.Momentum)
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "\n%s\n", p.Recommendation)
		return nil
	})
}

func runInsights(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		month, err := referenceMonth()
		if err != nil {
			return err
		}
		lines, err := a.reports.Insights(ctx, month)
		if err != nil {
			return err
		}
		if flagJSON {
			return a.printJSON(lines)
		}
		for _, in := range lines {
			fmt.Fprintf(a.out, "%s %s\n", sentimentMark(in.Sentiment), in.Text)
		}
		return nil
	})
}

func sentimentMark(s budget.Sentiment) string {
	switch s {
	case budget.Positive:
		return "+"
	case budget.Warning:
		return "!"
	default:
		return "-"
	}
}

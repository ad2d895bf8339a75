package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/stats"
	"github.com/smith3v/mood-tracker/pkg/summary"
	"github.com/spf13/cobra"
)

var (
	trendDays        int
	distributionDays int
	contextDays      int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show mood statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			sum, err := e.svc.MoodStats(ctx, trendDays, distributionDays)
			if err != nil {
				return err
			}
			lang := e.svc.Language()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Entries:        %d\n", sum.Entries)
			fmt.Fprintf(w, "Average score:  %.1f\n", sum.Average)
			if sum.MostFrequent != nil {
				fmt.Fprintf(w, "Most frequent:  %s %s\n", sum.MostFrequent.Symbol(), sum.MostFrequent.LabelFor(lang))
			}
			fmt.Fprintln(w, "\nDistribution:")
			for _, mood := range db.MoodCategories {
				count := sum.Distribution[mood]
				if count == 0 {
					continue
				}
				fmt.Fprintf(w, "  %s %-16s %3d %s\n", mood.Symbol(), mood.LabelFor(lang), count, strings.Repeat("#", count))
			}
			if len(sum.Chart) > 0 {
				fmt.Fprintln(w, "\nTrend:")
				for _, point := range sum.Chart {
					fmt.Fprintf(w, "  %s  %4.1f\n", db.DayKey(point.Date, e.store.Location()), point.Score)
				}
			}
			return nil
		})
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show insights about the last week",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			insights, err := e.svc.Insights(ctx)
			if err != nil {
				return err
			}
			for _, insight := range insights {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", insight)
			}
			return nil
		})
	},
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print profile and recent trends as plain text for an assistant",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			text, err := e.svc.Context(ctx, contextDays)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		})
	},
}

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Recompute and print the widget snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			snap, err := e.svc.RefreshWidget(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snap)
		})
	},
}

func initStatsCmds() {
	statsCmd.Flags().IntVar(&trendDays, "days", stats.DefaultTrendDays, "trend window in days")
	statsCmd.Flags().IntVar(&distributionDays, "distribution-days", stats.DefaultDistributionDays, "distribution window in days")
	contextCmd.Flags().IntVar(&contextDays, "days", summary.DefaultDaysBack, "days of history to include")

	rootCmd.AddCommand(statsCmd, insightsCmd, contextCmd, widgetCmd)
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/spf13/cobra"
)

var (
	healthDay     string
	healthCSVPath string
	historyDays   int
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show, edit and sync health data",
}

var healthShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show today's health data and the weekly averages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			entry, err := e.svc.TodayHealth(ctx)
			if err != nil {
				return err
			}
			avg, err := e.svc.WeeklyAverages(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printHealth(w, entry)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Last 7 days (average):")
			fmt.Fprintf(w, "  Steps:     %.0f\n", avg.Steps)
			fmt.Fprintf(w, "  Calories:  %.0f kcal\n", avg.Calories)
			fmt.Fprintf(w, "  Sleep:     %.1f h\n", avg.Sleep)
			fmt.Fprintf(w, "  Water:     %.1f l\n", avg.Water)
			return nil
		})
	},
}

var healthSetCmd = &cobra.Command{
	Use:   "set <metric> <value>",
	Short: "Set a metric by hand; later syncs keep your value",
	Long:  "Metrics: steps, calories, sleep (hours), water (liters).",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			day, err := parseDayFlag(e)
			if err != nil {
				return err
			}
			entry, err := e.svc.EditHealthMetric(ctx, day, args[0], value)
			if err != nil {
				return err
			}
			printHealth(cmd.OutOrStdout(), entry)
			return nil
		})
	},
}

var healthDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a day's health entry, including its manual values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			if err := e.svc.DeleteHealth(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted health entry %s\n", args[0])
			return nil
		})
	},
}

var healthSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge health data from the provider into a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, healthCSVPath, func(ctx context.Context, e *env) error {
			day, err := parseDayFlag(e)
			if err != nil {
				return err
			}
			res, err := e.svc.SyncHealth(ctx, day)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printHealth(w, res.Entry)
			fmt.Fprintf(w, "\nUpdated %d, kept %d manual, %d not available\n",
				len(res.Merge.Applied), len(res.Merge.Locked), len(res.Merge.Missing))
			return nil
		})
	},
}

var healthHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show daily steps reported by the provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, healthCSVPath, func(ctx context.Context, e *env) error {
			history, err := e.svc.StepsHistory(ctx, historyDays)
			if err != nil {
				return err
			}
			for _, day := range history {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %6d\n", db.DayKey(day.Day, e.store.Location()), day.Steps)
			}
			return nil
		})
	},
}

func parseDayFlag(e *env) (time.Time, error) {
	if healthDay == "" {
		return time.Time{}, nil
	}
	return db.ParseDay(healthDay, e.store.Location())
}

func initHealthCmds() {
	for _, cmd := range []*cobra.Command{healthSetCmd, healthSyncCmd} {
		cmd.Flags().StringVar(&healthDay, "day", "", "calendar day YYYY-MM-DD (default today)")
	}
	for _, cmd := range []*cobra.Command{healthSyncCmd, healthHistoryCmd} {
		cmd.Flags().StringVar(&healthCSVPath, "csv", "", "health CSV export to read instead of the configured one")
	}
	healthHistoryCmd.Flags().IntVar(&historyDays, "days", 7, "number of days to show")

	healthCmd.AddCommand(healthShowCmd, healthSetCmd, healthDeleteCmd, healthSyncCmd, healthHistoryCmd)
	rootCmd.AddCommand(healthCmd)
}

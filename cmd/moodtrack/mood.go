package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/smith3v/mood-tracker/pkg/app"
	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/importexport"
	"github.com/spf13/cobra"
)

var (
	moodName       string
	moodIntensity  int
	moodNotes      string
	moodTriggers   []string
	moodActivities []string
	moodLimit      int
	exportPath     string
)

var moodCmd = &cobra.Command{
	Use:   "mood",
	Short: "Log and review moods",
}

var moodLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Log today's mood, replacing an earlier entry from today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mood, err := db.ParseMoodCategory(moodName)
		if err != nil {
			return err
		}
		input := app.MoodInput{
			Mood:       mood,
			Intensity:  moodIntensity,
			Triggers:   moodTriggers,
			Activities: moodActivities,
		}
		if cmd.Flags().Changed("notes") {
			input.Notes = &moodNotes
		}
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			entry, err := e.svc.SaveMood(ctx, input)
			if err != nil {
				return err
			}
			printMood(cmd.OutOrStdout(), *entry, e.store.Location(), e.svc.Language())
			return nil
		})
	},
}

var moodTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's mood",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			entry, err := e.svc.TodayMood(ctx)
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Fprintln(cmd.OutOrStdout(), app.NoticeText(app.NoticeNoMoodToday, e.svc.Language()))
				return nil
			}
			printMood(cmd.OutOrStdout(), *entry, e.store.Location(), e.svc.Language())
			return nil
		})
	},
}

var moodListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent moods, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			entries, err := e.svc.LoadRecentMoodEntries(ctx, moodLimit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), app.NoticeText(app.NoticeNoMoods, e.svc.Language()))
				return nil
			}
			for _, entry := range entries {
				printMood(cmd.OutOrStdout(), entry, e.store.Location(), e.svc.Language())
			}
			return nil
		})
	},
}

var moodDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a mood entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			if err := e.svc.DeleteMood(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		})
	},
}

var moodExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all moods as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			entries, err := e.svc.AllMoodEntries(ctx)
			if err != nil {
				return err
			}
			importexport.SortMoodsForExport(entries)
			data, err := importexport.BuildMoodExportCSV(entries, e.store.Location(), e.svc.Language())
			if err != nil {
				return err
			}
			path := exportPath
			if path == "" {
				path = importexport.ExportFilename(time.Now())
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), path)
			return nil
		})
	},
}

func initMoodCmds() {
	moodLogCmd.Flags().StringVar(&moodName, "mood", "", "mood category, e.g. happy or glücklich")
	moodLogCmd.Flags().IntVar(&moodIntensity, "intensity", db.DefaultIntensity, "intensity from 1 to 10")
	moodLogCmd.Flags().StringVar(&moodNotes, "notes", "", "free text notes")
	moodLogCmd.Flags().StringSliceVar(&moodTriggers, "trigger", nil, "what triggered the mood (repeatable)")
	moodLogCmd.Flags().StringSliceVar(&moodActivities, "activity", nil, "what you did today (repeatable)")
	_ = moodLogCmd.MarkFlagRequired("mood")

	moodListCmd.Flags().IntVar(&moodLimit, "limit", app.DefaultRecentLimit, "number of entries to show")
	moodExportCmd.Flags().StringVar(&exportPath, "out", "", "output file (default moods-YYYYMMDD.csv)")

	moodCmd.AddCommand(moodLogCmd, moodTodayCmd, moodListCmd, moodDeleteCmd, moodExportCmd)
	rootCmd.AddCommand(moodCmd)
}

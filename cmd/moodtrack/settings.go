package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/smith3v/mood-tracker/pkg/app"
	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/spf13/cobra"
)

var (
	settingNotifications bool
	settingReminderAt    string
	settingNoReminder    bool
	settingLanguage      string
	settingAutoSync      bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change app settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			settings, err := e.svc.Settings(ctx)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), settings, e.store.Location())
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		input := app.SettingsInput{ClearReminder: settingNoReminder}
		if flags.Changed("notifications") {
			input.NotificationsEnabled = &settingNotifications
		}
		if flags.Changed("reminder") {
			input.DailyReminderAt = &settingReminderAt
		}
		if flags.Changed("language") {
			input.PreferredLanguage = &settingLanguage
		}
		if flags.Changed("auto-sync") {
			input.AutoSyncHealthData = &settingAutoSync
		}
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			settings, err := e.svc.UpdateSettings(ctx, input)
			if err != nil {
				return err
			}
			printSettings(cmd.OutOrStdout(), settings, e.store.Location())
			return nil
		})
	},
}

func printSettings(w io.Writer, s *db.AppSettings, loc *time.Location) {
	reminder := "off"
	if at := s.DailyReminderAt; at != nil && s.NotificationsEnabled {
		reminder = *at
	}
	lastSync := "never"
	if s.LastHealthSync != nil {
		lastSync = s.LastHealthSync.In(loc).Format(timeLayout)
	}
	fmt.Fprintf(w, "Notifications:  %t\n", s.NotificationsEnabled)
	fmt.Fprintf(w, "Daily reminder: %s\n", reminder)
	fmt.Fprintf(w, "Language:       %s\n", s.PreferredLanguage)
	fmt.Fprintf(w, "Auto sync:      %t\n", s.AutoSyncHealthData)
	fmt.Fprintf(w, "Last sync:      %s\n", lastSync)
}

func initSettingsCmds() {
	flags := settingsSetCmd.Flags()
	flags.BoolVar(&settingNotifications, "notifications", true, "enable reminders")
	flags.StringVar(&settingReminderAt, "reminder", "", "daily reminder time HH:MM")
	flags.BoolVar(&settingNoReminder, "no-reminder", false, "remove the daily reminder time")
	flags.StringVar(&settingLanguage, "language", "", "preferred language: de or en")
	flags.BoolVar(&settingAutoSync, "auto-sync", true, "sync health data in the background")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

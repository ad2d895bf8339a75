package main

import (
	"context"

	"github.com/smith3v/mood-tracker/pkg/app"
	"github.com/smith3v/mood-tracker/pkg/config"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"github.com/smith3v/mood-tracker/pkg/server"
	"github.com/spf13/cobra"
)

const (
	healthSyncJob    = "health-sync"
	widgetRefreshJob = "widget-refresh"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run reminders, background sync and the local HTTP endpoints",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, "", func(ctx context.Context, e *env) error {
			cfg := config.AppConfig

			if err := e.scheduler.Every(healthSyncJob, cfg.Health.SyncInterval.Std(), func(ctx context.Context) error {
				_, err := e.svc.AutoSync(ctx)
				return err
			}); err != nil {
				return err
			}
			if err := e.scheduler.Every(widgetRefreshJob, cfg.Widget.RefreshInterval.Std(), func(ctx context.Context) error {
				// Picks up logins and settings changed by other invocations.
				user, err := e.svc.RestoreSession(ctx)
				if err != nil || user == nil {
					return err
				}
				_, err = e.svc.RefreshWidget(ctx)
				return err
			}); err != nil {
				return err
			}

			e.svc.Subscribe(func(st app.State) {
				if st.ErrorMessage != "" {
					logger.Warn("operation failed", "message", st.ErrorMessage)
				}
			})

			e.scheduler.Start()
			logger.Info("daemon started", "addr", cfg.Server.Addr, "signed_in", e.svc.State().Authenticated)

			router := server.NewRouter(e.store, e.widget, e.registry)
			return server.Run(ctx, cfg.Server.Addr, router)
		})
	},
}

func initDaemonCmd() {
	rootCmd.AddCommand(daemonCmd)
}

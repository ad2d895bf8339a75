package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/smith3v/mood-tracker/pkg/app"
	"github.com/smith3v/mood-tracker/pkg/config"
	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/health"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"github.com/smith3v/mood-tracker/pkg/metrics"
	"github.com/smith3v/mood-tracker/pkg/reminders"
	"github.com/smith3v/mood-tracker/pkg/session"
	"github.com/smith3v/mood-tracker/pkg/streak"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	configPath string
	envFile    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "moodtrack",
	Short:         "Track your daily mood and health data",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of moodtrack",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

// env is everything a command needs, built from the configuration.
type env struct {
	store     *db.Store
	svc       *app.Service
	scheduler *reminders.Scheduler
	registry  *prometheus.Registry
	widget    *streak.FileStore
}

func (e *env) close() {
	if err := e.scheduler.Shutdown(); err != nil {
		logger.Warn("failed to stop scheduler", "error", err)
	}
	if err := e.store.Close(); err != nil {
		logger.Warn("failed to close database", "error", err)
	}
}

// loadConfig reads the config file, applies the environment and configures
// logging. Quiet keeps log records off stderr.
func loadConfig(quiet bool) error {
	if err := config.LoadConfig(configPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading config %s: %w", configPath, err)
	}
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	if err := config.ApplyEnvironment(envFiles...); err != nil {
		return err
	}
	return logger.Configure(logger.Options{
		Level:  config.AppConfig.Logging.Level,
		File:   config.AppConfig.Logging.File,
		Format: config.AppConfig.Logging.Format,
		Quiet:  quiet,
	})
}

// openEnv wires the service. csvPath overrides the configured health export.
func openEnv(ctx context.Context, csvPath string, quiet bool) (*env, error) {
	if err := loadConfig(quiet); err != nil {
		return nil, err
	}
	cfg := config.AppConfig

	store, err := db.InitDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	syncMetrics := metrics.NewSyncMetrics(registry)

	syncer := health.NewSyncer(store, newProvider(csvPath, cfg.Health.CSVPath, store.Location()), health.SyncerOptions{
		Timeout: cfg.Health.FetchTimeout.Std(),
		Metrics: syncMetrics,
	})

	notifier := newNotifier(cfg.Telegram)
	scheduler, err := reminders.NewScheduler(notifier, reminders.Options{
		Location: store.Location(),
		Metrics:  syncMetrics,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	widget := streak.NewFileStore(cfg.Widget.SnapshotPath)
	svc := app.New(app.Deps{
		Store:     store,
		Syncer:    syncer,
		Scheduler: scheduler,
		Notifier:  notifier,
		Session:   session.NewStore(cfg.Session.Path),
		Widget:    widget,
	})
	e := &env{store: store, svc: svc, scheduler: scheduler, registry: registry, widget: widget}

	if _, err := svc.RestoreSession(ctx); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func newProvider(override, configured string, loc *time.Location) health.Provider {
	path := override
	if path == "" {
		path = configured
	}
	if path != "" {
		return health.NewCSVProvider(path, loc)
	}
	unavailable := health.NewStaticProvider(loc)
	unavailable.SetUnavailable(true)
	return unavailable
}

func newNotifier(cfg config.TelegramConfig) reminders.Notifier {
	if cfg.Token == "" {
		return reminders.LogNotifier{}
	}
	n, err := reminders.NewTelegramNotifier(cfg.Token, cfg.ChatID)
	if err != nil {
		logger.Warn("telegram reminders disabled", "error", err)
		return reminders.LogNotifier{}
	}
	return n
}

// withEnv runs fn against a freshly wired service and renders failures for
// the user.
func withEnv(cmd *cobra.Command, csvPath string, fn func(ctx context.Context, e *env) error) error {
	ctx := cmd.Context()
	quiet := !verbose && cmd.Name() != "daemon"
	e, err := openEnv(ctx, csvPath, quiet)
	if err != nil {
		return err
	}
	defer e.close()

	if err := fn(ctx, e); err != nil {
		logger.Debug("command failed", "command", cmd.CommandPath(), "error", err)
		return errors.New(app.Message(err, e.svc.Language()))
	}
	return nil
}

func initCmd() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the JSON config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file with MOODTRACK_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write log records to stderr")

	initSessionCmds()
	initMoodCmds()
	initHealthCmds()
	initStatsCmds()
	initSettingsCmds()
	initDaemonCmd()

	rootCmd.AddCommand(versionCmd)
}

func main() {
	initCmd()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

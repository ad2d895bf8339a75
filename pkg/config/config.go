package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/smith3v/mood-tracker/pkg/logger"
)

const EnvPrefix = "MOODTRACK"

type Config struct {
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Telegram TelegramConfig `json:"telegram"`
	Health   HealthConfig   `json:"health"`
	Widget   WidgetConfig   `json:"widget"`
	Session  SessionConfig  `json:"session"`
	Server   ServerConfig   `json:"server"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver" split_words:"true"` // sqlite or postgres
	Path     string `json:"path" split_words:"true"`
	Host     string `json:"host" split_words:"true"`
	User     string `json:"user" split_words:"true"`
	Password string `json:"password" split_words:"true"`
	DBName   string `json:"dbname" split_words:"true"`
	Port     int    `json:"port" split_words:"true"`
	SSLMode  string `json:"sslmode" split_words:"true"`

	// SlowQuery marks queries taking longer as warnings; zero disables it.
	SlowQuery Duration `json:"slow_query" split_words:"true"`
}

type LoggingConfig struct {
	Level     string `json:"level" split_words:"true"`
	File      string `json:"file" split_words:"true"`
	Format    string `json:"format" split_words:"true"`
	GormLevel string `json:"gorm_level" split_words:"true"`
}

type TelegramConfig struct {
	Token  string `json:"token" split_words:"true"`
	ChatID int64  `json:"chat_id" split_words:"true"`
}

type HealthConfig struct {
	// CSVPath points at an exported health data file used as the sync provider.
	CSVPath      string   `json:"csv_path" split_words:"true"`
	SyncInterval Duration `json:"sync_interval" split_words:"true"`
	FetchTimeout Duration `json:"fetch_timeout" split_words:"true"`
}

type WidgetConfig struct {
	SnapshotPath    string   `json:"snapshot_path" split_words:"true"`
	RefreshInterval Duration `json:"refresh_interval" split_words:"true"`
}

type SessionConfig struct {
	Path string `json:"path" split_words:"true"`
}

type ServerConfig struct {
	Addr string `json:"addr" split_words:"true"`
}

// Duration accepts "90s"-style strings in JSON and the environment.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case float64:
		*d = Duration(time.Duration(v) * time.Second)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

var AppConfig = Defaults()

func Defaults() Config {
	dir := DefaultDataDir()
	return Config{
		Database: DatabaseConfig{
			Driver:    "sqlite",
			Path:      filepath.Join(dir, "moodtrack.db"),
			Port:      5432,
			SSLMode:   "disable",
			SlowQuery: Duration(200 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			GormLevel: "warn",
		},
		Health: HealthConfig{
			SyncInterval: Duration(time.Hour),
			FetchTimeout: Duration(30 * time.Second),
		},
		Widget: WidgetConfig{
			SnapshotPath:    filepath.Join(dir, "widget.json"),
			RefreshInterval: Duration(30 * time.Minute),
		},
		Session: SessionConfig{
			Path: filepath.Join(dir, "session.json"),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8088",
		},
	}
}

// LoadConfig resets AppConfig to the defaults and overlays the JSON file on top.
func LoadConfig(filename string) error {
	AppConfig = Defaults()

	file, err := os.Open(filename)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error("failed to open config file", "error", err)
		}
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	return nil
}

// ApplyEnvironment loads an optional .env file and applies MOODTRACK_* overrides.
func ApplyEnvironment(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load env file", "error", err)
		return err
	}
	if err := envconfig.Process(EnvPrefix, &AppConfig); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", "moodtrack")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "moodtrack")
	default:
		return filepath.Join(homeDir, ".local", "share", "moodtrack")
	}
}

package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/mood-tracker/pkg/config"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store owns the gorm handle. Callers that read-modify-write a single day
// entry hold Lock for that entry around the whole sequence.
type Store struct {
	db    *gorm.DB
	loc   *time.Location
	locks keyedMutex
}

func NewStore(gdb *gorm.DB, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: gdb, loc: loc}
}

func InitDB(cfg config.DatabaseConfig) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		logger.Error("invalid database configuration", "driver", cfg.Driver, "error", err)
		return nil, err
	}
	queries, levelErr := newQueryLogger(config.AppConfig.Logging.GormLevel, cfg.SlowQuery.Std())
	if levelErr != nil {
		logger.Warn("invalid gorm log level, using warn", "value", config.AppConfig.Logging.GormLevel, "error", levelErr)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: queries, TranslateError: true})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := Migrate(gdb); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return nil, err
	}
	return NewStore(gdb, time.Local), nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&User{}, &MoodEntry{}, &HealthDataEntry{}, &AppSettings{})
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			return nil, fmt.Errorf("sqlite database path is empty")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create directory %q for database: %w", dir, err)
			}
		}
		return sqlite.Open(path + "?_foreign_keys=on&_busy_timeout=5000"), nil
	case "postgres":
		dsn := "host=" + cfg.Host +
			" user=" + cfg.User +
			" password=" + cfg.Password +
			" dbname=" + cfg.DBName +
			" port=" + strconv.Itoa(cfg.Port) +
			" sslmode=" + cfg.SSLMode
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageErr("ping", err)
	}
	return storageErr("ping", sqlDB.PingContext(ctx))
}

// Lock serializes mutations of one owner's entry of the given kind for one day.
func (s *Store) Lock(kind Kind, userID string, day time.Time) func() {
	return s.locks.lock(EntryLockKey(kind, userID, DayKey(day, s.loc)))
}

func (s *Store) tx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	return storageErr(op, s.db.WithContext(ctx).Transaction(fn))
}

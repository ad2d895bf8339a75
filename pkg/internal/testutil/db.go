package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/smith3v/mood-tracker/pkg/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestStore opens a private in-memory sqlite database for the test.
func SetupTestStore(t *testing.T, loc *time.Location) *db.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})

	return db.NewStore(gdb, loc)
}

func CreateUser(t *testing.T, store *db.Store, email string) *db.User {
	t.Helper()
	user := db.NewUser(email, "Test User")
	if err := store.CreateUser(t.Context(), &user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func Ptr[T any](v T) *T {
	return &v
}

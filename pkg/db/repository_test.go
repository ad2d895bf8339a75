package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var berlin = time.FixedZone("CET", 3600)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return NewStore(gdb, berlin)
}

func createTestUser(t *testing.T, store *Store, email string) *User {
	t.Helper()
	user := NewUser(email, "Jo")
	if err := store.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return &user
}

func TestNewMoodEntryClampsIntensity(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, berlin)
	tests := []struct {
		input int
		want  int
	}{
		{15, 10},
		{-3, 1},
		{0, 1},
		{1, 1},
		{7, 7},
		{10, 10},
	}

	for _, tt := range tests {
		entry := NewMoodEntry(MoodHappy, nil, tt.input, now, berlin)
		if entry.Intensity != tt.want {
			t.Fatalf("intensity %d: expected %d, got %d", tt.input, tt.want, entry.Intensity)
		}
	}

	entry := NewMoodEntry(MoodHappy, nil, 5, now, berlin)
	entry.SetIntensity(42)
	if entry.Intensity != 10 {
		t.Fatalf("expected SetIntensity to clamp to 10, got %d", entry.Intensity)
	}
}

func TestMoodCategoryTable(t *testing.T) {
	if len(MoodCategories) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(MoodCategories))
	}
	scores := map[MoodCategory]float64{
		MoodVeryHappy: 9, MoodEnergetic: 9,
		MoodHappy: 7, MoodCalm: 7,
		MoodNeutral: 5,
		MoodTired:   4,
		MoodSad:     3, MoodAnxious: 3,
		MoodVerySad: 1, MoodStressed: 1,
	}
	for mood, want := range scores {
		if got := mood.Score(); got != want {
			t.Fatalf("%s: expected score %.0f, got %.0f", mood, want, got)
		}
		if mood.Label() == "" || mood.Symbol() == "" {
			t.Fatalf("%s: expected label and symbol", mood)
		}
	}

	for _, input := range []string{"very_happy", "Sehr glücklich", "very happy", "Very-Happy"} {
		got, err := ParseMoodCategory(input)
		if err != nil {
			t.Fatalf("ParseMoodCategory(%q) returned error: %v", input, err)
		}
		if got != MoodVeryHappy {
			t.Fatalf("ParseMoodCategory(%q): expected very_happy, got %s", input, got)
		}
	}
	if _, err := ParseMoodCategory("ecstatic"); err == nil {
		t.Fatalf("expected error for unknown mood")
	}
}

func TestUpsertDailyEntryIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "jo@example.com")

	morning := time.Date(2026, 3, 1, 7, 30, 0, 0, berlin)
	evening := time.Date(2026, 3, 1, 22, 15, 0, 0, berlin)

	for _, kind := range []Kind{KindMood, KindHealth} {
		first, created, err := store.UpsertDailyEntry(ctx, kind, user.ID, morning)
		if err != nil {
			t.Fatalf("%s: first upsert failed: %v", kind, err)
		}
		if !created {
			t.Fatalf("%s: expected first upsert to create an entry", kind)
		}
		second, created, err := store.UpsertDailyEntry(ctx, kind, user.ID, evening)
		if err != nil {
			t.Fatalf("%s: second upsert failed: %v", kind, err)
		}
		if created {
			t.Fatalf("%s: expected second upsert to reuse the entry", kind)
		}
		if first.EntryID() != second.EntryID() {
			t.Fatalf("%s: expected same id, got %s and %s", kind, first.EntryID(), second.EntryID())
		}
		if second.CalendarDay() != "2026-03-01" {
			t.Fatalf("%s: expected calendar day 2026-03-01, got %s", kind, second.CalendarDay())
		}

		nextDay, _, err := store.UpsertDailyEntry(ctx, kind, user.ID, morning.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("%s: next day upsert failed: %v", kind, err)
		}
		if nextDay.EntryID() == first.EntryID() {
			t.Fatalf("%s: expected a new entry for the next day", kind)
		}
	}
}

func TestUpsertDailyEntryRequiresOwner(t *testing.T) {
	store := openTestStore(t)
	_, _, err := store.UpsertDailyMood(context.Background(), "missing-user", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertDailyEntryRejectsUnknownKind(t *testing.T) {
	store := openTestStore(t)
	if _, _, err := store.UpsertDailyEntry(context.Background(), Kind("sleep"), "x", time.Now()); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestSaveDailyMoodUpdatesInPlace(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "jo@example.com")
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, berlin)

	first, created, err := store.SaveDailyMood(ctx, user.ID, now, func(e *MoodEntry) {
		e.Mood = MoodHappy
		e.SetIntensity(8)
		e.Triggers = []string{"sun"}
	})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if !created {
		t.Fatalf("expected the first save to create")
	}

	second, created, err := store.SaveDailyMood(ctx, user.ID, now.Add(3*time.Hour), func(e *MoodEntry) {
		e.Mood = MoodTired
		e.Intensity = 30
	})
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("expected in-place update of %s, got %s (created=%v)", first.ID, second.ID, created)
	}

	entries, err := store.QueryMood(ctx, EntryQuery{UserID: user.ID})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Mood != MoodTired {
		t.Fatalf("expected mood tired, got %s", entries[0].Mood)
	}
	if entries[0].Intensity != 10 {
		t.Fatalf("expected intensity clamped to 10 on save, got %d", entries[0].Intensity)
	}
	if len(entries[0].Triggers) != 1 || entries[0].Triggers[0] != "sun" {
		t.Fatalf("expected triggers to persist, got %v", entries[0].Triggers)
	}
}

func TestQueryMoodOrderingAndRange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "jo@example.com")
	other := createTestUser(t, store, "other@example.com")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, berlin)

	for i := 0; i < 5; i++ {
		if _, _, err := store.UpsertDailyMood(ctx, user.ID, base.AddDate(0, 0, i)); err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
	}
	if _, _, err := store.UpsertDailyMood(ctx, other.ID, base); err != nil {
		t.Fatalf("upsert for other user failed: %v", err)
	}

	desc, err := store.QueryMood(ctx, EntryQuery{UserID: user.ID, Order: Descending, Limit: 3})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(desc) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(desc))
	}
	if desc[0].Day != "2026-03-05" || desc[2].Day != "2026-03-03" {
		t.Fatalf("unexpected descending order: %s .. %s", desc[0].Day, desc[2].Day)
	}

	ranged, err := store.Query(ctx, KindMood, EntryQuery{
		UserID: user.ID,
		From:   StartOfDay(base.AddDate(0, 0, 1), berlin),
		To:     StartOfDay(base.AddDate(0, 0, 3), berlin),
	})
	if err != nil {
		t.Fatalf("ranged query failed: %v", err)
	}
	if len(ranged) != 2 {
		t.Fatalf("expected 2 entries in range, got %d", len(ranged))
	}
	if ranged[0].CalendarDay() != "2026-03-02" || ranged[1].CalendarDay() != "2026-03-03" {
		t.Fatalf("unexpected range result: %s, %s", ranged[0].CalendarDay(), ranged[1].CalendarDay())
	}
}

func TestDeleteEntry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "jo@example.com")

	entry, _, err := store.UpsertDailyMood(ctx, user.ID, time.Now())
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := store.Delete(ctx, entry); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.FindMood(ctx, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, entry); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	store := openTestStore(t)
	createTestUser(t, store, "jo@example.com")

	dup := NewUser("  JO@Example.com ", "Other")
	err := store.CreateUser(context.Background(), &dup)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	found, err := store.FindUserByEmail(context.Background(), "Jo@Example.COM")
	if err != nil {
		t.Fatalf("find by email failed: %v", err)
	}
	if found.Name != "Jo" {
		t.Fatalf("expected original user, got %q", found.Name)
	}
}

func TestUpdateProfileRefreshesUpdatedAt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "jo@example.com")
	before := user.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	age := 34
	weight := 71.5
	updated, err := store.UpdateProfile(ctx, user.ID, ProfileUpdate{Age: &age, Weight: &weight})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Age == nil || *updated.Age != 34 {
		t.Fatalf("expected age 34, got %v", updated.Age)
	}
	if !updated.UpdatedAt.After(before) {
		t.Fatalf("expected UpdatedAt to move forward: before=%v after=%v", before, updated.UpdatedAt)
	}

	cleared, err := store.UpdateProfile(ctx, user.ID, ProfileUpdate{Clear: []string{"weight"}})
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if cleared.Weight != nil {
		t.Fatalf("expected weight cleared, got %v", *cleared.Weight)
	}
	if cleared.Age == nil {
		t.Fatalf("expected age to survive an unrelated clear")
	}
}

func TestDeleteUserCascades(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "jo@example.com")
	keep := createTestUser(t, store, "keep@example.com")
	now := time.Now()

	for _, id := range []string{user.ID, keep.ID} {
		if _, _, err := store.UpsertDailyMood(ctx, id, now); err != nil {
			t.Fatalf("mood upsert failed: %v", err)
		}
		if _, _, err := store.UpsertDailyHealth(ctx, id, now); err != nil {
			t.Fatalf("health upsert failed: %v", err)
		}
	}

	if err := store.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete user failed: %v", err)
	}

	moods, _ := store.QueryMood(ctx, EntryQuery{})
	health, _ := store.QueryHealth(ctx, EntryQuery{})
	if len(moods) != 1 || moods[0].UserID != keep.ID {
		t.Fatalf("expected only the other user's mood entry, got %+v", moods)
	}
	if len(health) != 1 || health[0].UserID != keep.ID {
		t.Fatalf("expected only the other user's health entry, got %+v", health)
	}
	if _, err := store.FindUser(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
}

func TestSettingsDefaults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	settings, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("settings failed: %v", err)
	}
	if !settings.NotificationsEnabled || !settings.AutoSyncHealthData {
		t.Fatalf("expected notifications and auto-sync enabled by default: %+v", settings)
	}
	if settings.PreferredLanguage != "de" {
		t.Fatalf("expected default language de, got %q", settings.PreferredLanguage)
	}
	hour, minute, ok := settings.ReminderClock()
	if !ok || hour != 20 || minute != 0 {
		t.Fatalf("expected 20:00 reminder, got %d:%d ok=%v", hour, minute, ok)
	}

	settings.NotificationsEnabled = false
	settings.AutoSyncHealthData = false
	if err := store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings failed: %v", err)
	}
	syncedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := store.MarkHealthSynced(ctx, syncedAt); err != nil {
		t.Fatalf("mark synced failed: %v", err)
	}

	again, err := store.Settings(ctx)
	if err != nil {
		t.Fatalf("reload settings failed: %v", err)
	}
	if again.ID != settings.ID {
		t.Fatalf("expected singleton settings row")
	}
	if again.NotificationsEnabled || again.AutoSyncHealthData {
		t.Fatalf("expected disabled flags to persist: %+v", again)
	}
	if again.LastHealthSync == nil || !again.LastHealthSync.Equal(syncedAt) {
		t.Fatalf("expected last sync %v, got %v", syncedAt, again.LastHealthSync)
	}

	var count int64
	store.DB().Model(&AppSettings{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one settings row, got %d", count)
	}
}

func TestStorageErrorOnClosedDatabase(t *testing.T) {
	store := openTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	_, err := store.QueryMood(context.Background(), EntryQuery{})
	if !IsStorageError(err) {
		t.Fatalf("expected StorageError, got %T %v", err, err)
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op == "" {
		t.Fatalf("expected StorageError with an operation, got %v", err)
	}
}

func TestLockSerializesPerKey(t *testing.T) {
	store := openTestStore(t)
	day := time.Date(2026, 3, 1, 12, 0, 0, 0, berlin)

	var wg sync.WaitGroup
	counter := 0
	inside := 0
	maxInside := 0
	var mu sync.Mutex
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Lock(KindHealth, "u1", day)
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			counter++
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if counter != 20 {
		t.Fatalf("expected 20 increments, got %d", counter)
	}
	if maxInside != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxInside)
	}
	if len(store.locks.locks) != 0 {
		t.Fatalf("expected lock table to drain, got %d keys", len(store.locks.locks))
	}
}

func TestHealthUpdateHelpersSetFlags(t *testing.T) {
	entry := NewHealthDataEntry(time.Date(2026, 3, 1, 15, 0, 0, 0, berlin), berlin)
	if entry.Day != "2026-03-01" {
		t.Fatalf("expected day 2026-03-01, got %s", entry.Day)
	}

	entry.UpdateSteps(1200, false)
	if entry.StepsManuallyEdited {
		t.Fatalf("automatic update must not set the flag")
	}
	entry.UpdateSteps(500, true)
	entry.UpdateSteps(9000, false)
	if !entry.StepsManuallyEdited {
		t.Fatalf("expected the manual flag to stay set")
	}
	if *entry.Steps != 9000 {
		t.Fatalf("helper writes the value regardless of the flag, got %d", *entry.Steps)
	}

	entry.UpdateWater(1.5, true)
	entry.UpdateSleep(7, true)
	entry.UpdateCalories(300, true)
	if !entry.WaterManuallyEdited || !entry.SleepManuallyEdited || !entry.CaloriesManuallyEdited {
		t.Fatalf("expected every manual flag to be set: %+v", entry)
	}
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("07:45")
	if err != nil || hour != 7 || minute != 45 {
		t.Fatalf("unexpected parse result %d:%d err=%v", hour, minute, err)
	}
	if _, _, err := ParseClock("25:00"); err == nil {
		t.Fatalf("expected error for invalid hour")
	}
	if FormatClock(7, 5) != "07:05" {
		t.Fatalf("unexpected FormatClock output %q", FormatClock(7, 5))
	}
}

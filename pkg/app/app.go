package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/smith3v/mood-tracker/pkg/db"
	"github.com/smith3v/mood-tracker/pkg/health"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"github.com/smith3v/mood-tracker/pkg/reminders"
	"github.com/smith3v/mood-tracker/pkg/session"
	"github.com/smith3v/mood-tracker/pkg/streak"
)

type ReminderScheduler interface {
	ScheduleDailyReminder(hour, minute int) error
	CancelDailyReminder()
	SetLanguage(lang string)
}

type SnapshotWriter interface {
	Write(snap streak.Snapshot) error
}

// Deps are the collaborators of a Service. Scheduler, Notifier and Widget
// are optional.
type Deps struct {
	Store     *db.Store
	Syncer    *health.Syncer
	Scheduler ReminderScheduler
	Notifier  reminders.Notifier
	Session   *session.Store
	Widget    SnapshotWriter
	Clock     clockwork.Clock
}

// Service is the application state holder used by the CLI and the daemon.
type Service struct {
	store     *db.Store
	syncer    *health.Syncer
	scheduler ReminderScheduler
	notifier  reminders.Notifier
	session   *session.Store
	widget    SnapshotWriter
	clock     clockwork.Clock

	mu      sync.Mutex
	state   State
	user    *db.User
	lang    string
	subs    map[int]func(State)
	nextSub int
	// notifyDenied is set when the notifier refused authorization; the daily
	// reminder stays unscheduled until a later authorization succeeds.
	notifyDenied bool
}

func New(deps Deps) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		store:     deps.Store,
		syncer:    deps.Syncer,
		scheduler: deps.Scheduler,
		notifier:  deps.Notifier,
		session:   deps.Session,
		widget:    deps.Widget,
		clock:     clock,
		lang:      db.DefaultLanguage,
		subs:      make(map[int]func(State)),
	}
}

// SignIn signs in with email, creating the user and the default settings on
// first use. Permission requests that fail are only logged.
func (s *Service) SignIn(ctx context.Context, email, name string) (*db.User, error) {
	input := SignInInput{Email: strings.TrimSpace(email), Name: strings.TrimSpace(name)}
	if err := validateInput(input); err != nil {
		return nil, s.finish(err)
	}

	s.update(func(st *State) {
		st.Loading = true
		st.ErrorMessage = ""
	})
	defer s.update(func(st *State) {
		st.Loading = false
	})

	user, err := s.findOrCreateUser(ctx, input)
	if err != nil {
		return nil, s.finish(err)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, s.finish(err)
	}
	if err := s.session.SetEmail(user.Email); err != nil {
		return nil, s.finish(err)
	}
	s.signedIn(user, settings)
	logger.Info("user signed in", "user_id", user.ID)

	s.requestPermissions(ctx)
	s.applyReminder(settings)
	s.refreshWidgetLogged(ctx)
	return user, s.finish(nil)
}

func (s *Service) findOrCreateUser(ctx context.Context, input SignInInput) (*db.User, error) {
	user, err := s.store.FindUserByEmail(ctx, input.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name, _, _ = strings.Cut(input.Email, "@")
	}
	created := db.NewUser(input.Email, name)
	if err := s.store.CreateUser(ctx, &created); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return s.store.FindUserByEmail(ctx, input.Email)
		}
		return nil, err
	}
	logger.Info("user created", "user_id", created.ID)
	return &created, nil
}

func (s *Service) requestPermissions(ctx context.Context) {
	if s.syncer != nil {
		if err := s.syncer.RequestAuthorization(ctx); err != nil {
			logger.Warn("health authorization failed", "error", err)
		}
	}
	s.authorizeNotifications(ctx)
}

func (s *Service) authorizeNotifications(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Authorize(ctx)
	if err != nil {
		logger.Warn("notification authorization failed, reminder stays unscheduled", "error", err)
	}
	s.mu.Lock()
	s.notifyDenied = err != nil
	s.mu.Unlock()
}

func (s *Service) notificationsDenied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifyDenied
}

// RestoreSession signs in the user remembered by the session store. It
// returns nil without error when nobody is remembered.
func (s *Service) RestoreSession(ctx context.Context) (*db.User, error) {
	email, err := s.session.Email()
	if err != nil {
		return nil, s.finish(err)
	}
	if email == "" {
		s.signedOut()
		return nil, s.finish(nil)
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		logger.Warn("session refers to unknown user, clearing it", "email", email)
		if err := s.session.Clear(); err != nil {
			return nil, s.finish(err)
		}
		s.signedOut()
		return nil, s.finish(nil)
	}
	if err != nil {
		return nil, s.finish(err)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, s.finish(err)
	}
	s.signedIn(user, settings)
	s.applyReminder(settings)
	return user, s.finish(nil)
}

func (s *Service) SignOut() error {
	if err := s.session.Clear(); err != nil {
		return s.finish(err)
	}
	s.signedOut()
	logger.Info("user signed out")
	return s.finish(nil)
}

// CurrentUser returns the signed-in user or ErrNotSignedIn.
func (s *Service) CurrentUser() (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, ErrNotSignedIn
	}
	user := *s.user
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, input ProfileInput) (*db.User, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return nil, s.finish(err)
	}
	if err := validateInput(input); err != nil {
		return nil, s.finish(err)
	}
	updated, err := s.store.UpdateProfile(ctx, user.ID, db.ProfileUpdate{
		Name:   input.Name,
		Age:    input.Age,
		Weight: input.Weight,
		Height: input.Height,
		Gender: input.Gender,
		Clear:  input.Clear,
	})
	if err != nil {
		return nil, s.finish(err)
	}
	s.mu.Lock()
	s.user = updated
	s.mu.Unlock()
	return updated, s.finish(nil)
}

func (s *Service) Settings(ctx context.Context) (*db.AppSettings, error) {
	settings, err := s.store.Settings(ctx)
	return settings, s.finish(err)
}

// UpdateSettings saves the changes and reschedules or cancels the daily
// reminder to match them.
func (s *Service) UpdateSettings(ctx context.Context, input SettingsInput) (*db.AppSettings, error) {
	if err := validateInput(input); err != nil {
		return nil, s.finish(err)
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, s.finish(err)
	}
	enabling := input.NotificationsEnabled != nil && *input.NotificationsEnabled && !settings.NotificationsEnabled

	if input.NotificationsEnabled != nil {
		settings.NotificationsEnabled = *input.NotificationsEnabled
	}
	if input.ClearReminder {
		settings.DailyReminderAt = nil
	}
	if input.DailyReminderAt != nil {
		hour, minute, err := db.ParseClock(*input.DailyReminderAt)
		if err != nil {
			return nil, s.finish(&ValidationError{Fields: map[string]string{"dailyReminderAt": "must be a time like 20:00"}})
		}
		at := db.FormatClock(hour, minute)
		settings.DailyReminderAt = &at
	}
	if input.PreferredLanguage != nil {
		settings.PreferredLanguage = *input.PreferredLanguage
	}
	if input.AutoSyncHealthData != nil {
		settings.AutoSyncHealthData = *input.AutoSyncHealthData
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, s.finish(err)
	}

	if enabling {
		s.authorizeNotifications(ctx)
	}
	s.setLanguage(settings.PreferredLanguage)
	s.applyReminder(settings)
	return settings, s.finish(nil)
}

func (s *Service) applyReminder(settings *db.AppSettings) {
	if s.scheduler == nil {
		return
	}
	s.scheduler.SetLanguage(settings.PreferredLanguage)
	hour, minute, ok := settings.ReminderClock()
	if !settings.NotificationsEnabled || !ok || s.notificationsDenied() {
		s.scheduler.CancelDailyReminder()
		return
	}
	if err := s.scheduler.ScheduleDailyReminder(hour, minute); err != nil {
		logger.Warn("failed to schedule daily reminder", "error", err)
	}
}

// RefreshWidget recomputes the streak snapshot and writes it for the widget.
func (s *Service) RefreshWidget(ctx context.Context) (streak.Snapshot, error) {
	user, err := s.CurrentUser()
	if err != nil {
		return streak.Snapshot{}, s.finish(err)
	}
	moods, err := s.store.QueryMood(ctx, db.EntryQuery{UserID: user.ID})
	if err != nil {
		return streak.Snapshot{}, s.finish(err)
	}
	snap := streak.Compute(moods, s.clock.Now(), s.store.Location())
	if s.widget != nil {
		if err := s.widget.Write(snap); err != nil {
			return snap, s.finish(err)
		}
	}
	return snap, s.finish(nil)
}

// refreshWidgetLogged keeps a failed snapshot write from failing the
// operation that triggered it.
func (s *Service) refreshWidgetLogged(ctx context.Context) {
	user, err := s.CurrentUser()
	if err != nil {
		return
	}
	moods, err := s.store.QueryMood(ctx, db.EntryQuery{UserID: user.ID})
	if err != nil {
		logger.Warn("failed to load moods for widget", "user_id", user.ID, "error", err)
		return
	}
	if s.widget == nil {
		return
	}
	snap := streak.Compute(moods, s.clock.Now(), s.store.Location())
	if err := s.widget.Write(snap); err != nil {
		logger.Warn("failed to write widget snapshot", "user_id", user.ID, "error", err)
	}
}

func (s *Service) signedIn(user *db.User, settings *db.AppSettings) {
	s.mu.Lock()
	s.user = user
	s.lang = settings.PreferredLanguage
	s.mu.Unlock()
	s.update(func(st *State) {
		st.Authenticated = true
		st.CurrentEmail = user.Email
	})
}

func (s *Service) signedOut() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.update(func(st *State) {
		st.Authenticated = false
		st.CurrentEmail = ""
	})
}

func (s *Service) setLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lang = lang
}

// Language is the preferred language of the installation.
func (s *Service) Language() string {
	return s.language()
}

func (s *Service) language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lang == "" {
		return db.DefaultLanguage
	}
	return s.lang
}

package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/smith3v/mood-tracker/pkg/logger"
	"github.com/smith3v/mood-tracker/pkg/metrics"
)

const dailyReminderTag = "daily-reminder"

type Options struct {
	Location *time.Location
	Clock    clockwork.Clock
	Metrics  *metrics.SyncMetrics
	Language string
}

// Scheduler owns the daily reminder and the periodic background jobs.
type Scheduler struct {
	cron     gocron.Scheduler
	notifier Notifier
	clock    clockwork.Clock
	metrics  *metrics.SyncMetrics

	mu       sync.Mutex
	language string
}

func NewScheduler(notifier Notifier, opts Options) (*Scheduler, error) {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	cron, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(loc),
	)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cron:     cron,
		notifier: notifier,
		clock:    clock,
		metrics:  opts.Metrics,
		language: opts.Language,
	}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}

// SetLanguage selects the reminder text used from the next delivery on.
func (s *Scheduler) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
}

// ScheduleDailyReminder replaces any existing daily reminder with one at hour:minute.
func (s *Scheduler) ScheduleDailyReminder(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid reminder time %02d:%02d", hour, minute)
	}
	s.cron.RemoveByTags(dailyReminderTag)
	_, err := s.cron.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
		gocron.NewTask(s.sendReminder),
		gocron.WithName(dailyReminderTag),
		gocron.WithTags(dailyReminderTag),
	)
	if err != nil {
		return err
	}
	logger.Info("daily reminder scheduled", "at", fmt.Sprintf("%02d:%02d", hour, minute))
	return nil
}

func (s *Scheduler) CancelDailyReminder() {
	s.cron.RemoveByTags(dailyReminderTag)
}

// Next reports when the daily reminder fires next.
func (s *Scheduler) Next() (time.Time, bool) {
	for _, job := range s.jobsTagged(dailyReminderTag) {
		next, err := job.NextRun()
		if err != nil || next.IsZero() {
			return time.Time{}, false
		}
		return next, true
	}
	return time.Time{}, false
}

// ReminderScheduled reports whether a daily reminder job exists.
func (s *Scheduler) ReminderScheduled() bool {
	return len(s.jobsTagged(dailyReminderTag)) > 0
}

// Every runs task at a fixed interval, skipping a run while the previous one
// is still busy. Failures are logged and counted.
func (s *Scheduler) Every(name string, interval time.Duration, task func(ctx context.Context) error) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", interval, name)
	}
	s.cron.RemoveByTags(name)
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			started := s.clock.Now()
			err := task(ctx)
			s.metrics.ObserveJob(name, s.clock.Since(started), err)
			if err != nil {
				logger.Warn("scheduled job failed", "job", name, "error", err)
			}
		}),
		gocron.WithName(name),
		gocron.WithTags(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *Scheduler) sendReminder(ctx context.Context) {
	s.mu.Lock()
	lang := s.language
	s.mu.Unlock()
	s.deliver(ctx, DailyReminder(lang))
}

// deliver never fails the job; a reminder that cannot be sent is only logged.
func (s *Scheduler) deliver(ctx context.Context, n Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.Warn("failed to deliver reminder", "title", n.Title, "error", err)
	}
}

func (s *Scheduler) jobsTagged(tag string) []gocron.Job {
	var out []gocron.Job
	for _, job := range s.cron.Jobs() {
		for _, t := range job.Tags() {
			if t == tag {
				out = append(out, job)
				break
			}
		}
	}
	return out
}

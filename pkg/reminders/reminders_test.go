package reminders

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	telegram "github.com/go-telegram/bot"
	"github.com/jonboulle/clockwork"
)

type recordedRequest struct {
	path        string
	contentType string
	body        []byte
}

type mockClient struct {
	mu       sync.Mutex
	requests []recordedRequest
	response string
}

func newMockClient() *mockClient {
	return &mockClient{
		response: `{"ok":true,"result":{}}`,
	}
}

func (m *mockClient) Do(req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if err := req.Body.Close(); err != nil {
		return nil, fmt.Errorf("failed to close request body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{
		path:        req.URL.Path,
		contentType: req.Header.Get("Content-Type"),
		body:        body,
	})

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(m.response)),
		Header:     make(http.Header),
	}, nil
}

func (m *mockClient) lastField(t *testing.T, name string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		t.Fatalf("expected at least one recorded request")
	}
	req := m.requests[len(m.requests)-1]

	mediaType, params, err := mime.ParseMediaType(req.contentType)
	if err != nil {
		t.Fatalf("failed to parse media type: %v", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		t.Fatalf("unexpected media type: %s", mediaType)
	}

	reader := multipart.NewReader(bytes.NewReader(req.body), params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read multipart part: %v", err)
		}
		if part.FormName() == name {
			data, err := io.ReadAll(part)
			if err != nil {
				t.Fatalf("failed to read %s part: %v", name, err)
			}
			return string(data)
		}
	}
	t.Fatalf("%s field not found in request", name)
	return ""
}

type recordingNotifier struct {
	sent chan Notification
	err  error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan Notification, 4)}
}

func (r *recordingNotifier) Authorize(ctx context.Context) error { return nil }

func (r *recordingNotifier) Notify(ctx context.Context, n Notification) error {
	r.sent <- n
	return r.err
}

var evening = time.Date(2026, 3, 10, 19, 59, 30, 0, time.UTC)

func newTestScheduler(t *testing.T, n Notifier, clock clockwork.Clock) *Scheduler {
	t.Helper()
	s, err := NewScheduler(n, Options{Location: time.UTC, Clock: clock})
	if err != nil {
		t.Fatalf("failed to create scheduler: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Shutdown()
	})
	return s
}

func waitForNextRun(t *testing.T, s *Scheduler, tag string) time.Time {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, job := range s.jobsTagged(tag) {
			if next, err := job.NextRun(); err == nil && !next.IsZero() {
				return next
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s was never scheduled", tag)
	return time.Time{}
}

func TestScheduleDailyReminderReplacesPrevious(t *testing.T) {
	s := newTestScheduler(t, newRecordingNotifier(), clockwork.NewFakeClockAt(evening))

	if err := s.ScheduleDailyReminder(8, 0); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if err := s.ScheduleDailyReminder(20, 0); err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if got := len(s.jobsTagged(dailyReminderTag)); got != 1 {
		t.Fatalf("expected exactly one reminder job, got %d", got)
	}

	s.Start()
	next := waitForNextRun(t, s, dailyReminderTag)
	want := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected next reminder at %v, got %v", want, next)
	}
	if got, ok := s.Next(); !ok || !got.Equal(want) {
		t.Fatalf("expected Next to report %v, got %v (ok=%v)", want, got, ok)
	}

	s.CancelDailyReminder()
	if s.ReminderScheduled() {
		t.Fatalf("expected reminder to be cancelled")
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("expected no next reminder after cancel")
	}
}

func TestScheduleDailyReminderValidatesTime(t *testing.T) {
	s := newTestScheduler(t, nil, clockwork.NewFakeClockAt(evening))
	tests := []struct {
		hour, minute int
	}{
		{24, 0}, {-1, 0}, {12, 60}, {12, -5},
	}
	for _, tt := range tests {
		if err := s.ScheduleDailyReminder(tt.hour, tt.minute); err == nil {
			t.Fatalf("expected error for %d:%d", tt.hour, tt.minute)
		}
	}
	if s.ReminderScheduled() {
		t.Fatalf("invalid times must not schedule a reminder")
	}
}

func TestDailyReminderFiresWithText(t *testing.T) {
	clock := clockwork.NewFakeClockAt(evening)
	notifier := newRecordingNotifier()
	notifier.err = errors.New("delivery failed")
	s := newTestScheduler(t, notifier, clock)

	if err := s.ScheduleDailyReminder(20, 0); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	s.Start()
	waitForNextRun(t, s, dailyReminderTag)
	clock.Advance(time.Minute)

	select {
	case n := <-notifier.sent:
		if n.Title != "Wie fühlst du dich heute?" {
			t.Fatalf("unexpected title %q", n.Title)
		}
		if n.Body != "Nimm dir einen Moment Zeit und protokolliere deinen Tag." {
			t.Fatalf("unexpected body %q", n.Body)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the reminder to fire")
	}

	if !s.ReminderScheduled() {
		t.Fatalf("a failed delivery must not drop the reminder")
	}
}

func TestEveryRunsJob(t *testing.T) {
	clock := clockwork.NewFakeClockAt(evening)
	s := newTestScheduler(t, nil, clock)
	ran := make(chan struct{}, 4)

	if err := s.Every("widget-refresh", 30*time.Minute, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	}); err != nil {
		t.Fatalf("every failed: %v", err)
	}
	if err := s.Every("bad", 0, func(ctx context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for zero interval")
	}

	s.Start()
	waitForNextRun(t, s, "widget-refresh")
	clock.Advance(30 * time.Minute)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected periodic job to run")
	}
}

func TestDailyReminderLanguage(t *testing.T) {
	if got := DailyReminder("en-GB").Title; got != "How are you feeling today?" {
		t.Fatalf("unexpected english title %q", got)
	}
	if got := DailyReminder("fr").Title; got != "Wie fühlst du dich heute?" {
		t.Fatalf("expected german fallback, got %q", got)
	}
}

func TestNewTelegramNotifierRequiresConfiguration(t *testing.T) {
	if _, err := NewTelegramNotifier("", 42); !errors.Is(err, ErrNotificationAuthorizationFailed) {
		t.Fatalf("expected ErrNotificationAuthorizationFailed without token, got %v", err)
	}
	if _, err := NewTelegramNotifier("token", 0); !errors.Is(err, ErrNotificationAuthorizationFailed) {
		t.Fatalf("expected ErrNotificationAuthorizationFailed without chat, got %v", err)
	}
}

func TestTelegramNotifierSendsMessage(t *testing.T) {
	client := newMockClient()
	n, err := NewTelegramNotifier("test-token", 4242, telegram.WithHTTPClient(time.Second, client))
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}

	if err := n.Authorize(context.Background()); err != nil {
		t.Fatalf("authorize failed: %v", err)
	}
	if err := n.Notify(context.Background(), DailyReminder("de")); err != nil {
		t.Fatalf("notify failed: %v", err)
	}

	text := client.lastField(t, "text")
	if !strings.HasPrefix(text, "Wie fühlst du dich heute?") || !strings.Contains(text, "protokolliere deinen Tag") {
		t.Fatalf("unexpected message text %q", text)
	}
	if chat := client.lastField(t, "chat_id"); chat != "4242" {
		t.Fatalf("expected chat_id 4242, got %q", chat)
	}
}

func TestTelegramNotifierAuthorizeFailure(t *testing.T) {
	client := newMockClient()
	client.response = `{"ok":false,"error_code":401,"description":"Unauthorized"}`
	n, err := NewTelegramNotifier("bad-token", 1, telegram.WithHTTPClient(time.Second, client))
	if err != nil {
		t.Fatalf("failed to create notifier: %v", err)
	}
	if err := n.Authorize(context.Background()); !errors.Is(err, ErrNotificationAuthorizationFailed) {
		t.Fatalf("expected ErrNotificationAuthorizationFailed, got %v", err)
	}
}

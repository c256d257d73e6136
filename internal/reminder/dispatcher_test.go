package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
)

type fakeStore struct {
	users   []models.User
	habits  map[string][]models.Habit
	logs    map[string]models.ReminderLog
	listErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		habits: make(map[string][]models.Habit),
		logs:   make(map[string]models.ReminderLog),
	}
}

func (s *fakeStore) GetAllUsers() ([]models.User, error) {
	return s.users, s.listErr
}

func (s *fakeStore) GetHabitsForUser(userID string) ([]models.Habit, error) {
	return s.habits[userID], nil
}

func (s *fakeStore) RecordReminder(entry models.ReminderLog) (bool, error) {
	if _, ok := s.logs[entry.Key]; ok {
		return false, nil
	}
	s.logs[entry.Key] = entry
	return true, nil
}

func (s *fakeStore) DeleteReminder(key string) error {
	delete(s.logs, key)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifier.Message
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, msg notifier.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

var dispatchNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func seededStore() *fakeStore {
	store := newFakeStore()
	store.users = []models.User{
		{ID: "u1", Name: "Ada", PushTokens: []string{"tok-a", "tok-b"}},
		{ID: "u2", Name: "Grace"},
	}

	done := dailyHabit("h-done", dispatchNow.Add(-time.Hour), dispatchNow.Add(-time.Hour))
	other := dailyHabit("h-other")
	other.NotificationTime = "18:00"
	off := dailyHabit("h-off")
	off.NotificationEnabled = false

	store.habits["u1"] = []models.Habit{dailyHabit("h-due"), done, other, off}
	store.habits["u2"] = []models.Habit{dailyHabit("h-due-2")}
	return store
}

func TestDispatcher_Run(t *testing.T) {
	store := seededStore()
	n := &fakeNotifier{}
	d := NewDispatcher(store, n, NewStoreDeduper(store))

	result, err := d.Run(context.Background(), dispatchNow, false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := Result{Evaluated: 5, Eligible: 2, Sent: 2}
	if result != want {
		t.Errorf("Run() = %+v, want %+v", result, want)
	}
	// Two tokens for u1, one token-less message for u2
	if len(n.sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(n.sent))
	}
	if n.sent[0].To != "tok-a" || n.sent[1].To != "tok-b" || n.sent[2].To != "" {
		t.Errorf("unexpected recipients: %+v", n.sent)
	}
	if n.sent[0].Body != "Don't forget: Read (0% done)" {
		t.Errorf("unexpected body %q", n.sent[0].Body)
	}
	if _, ok := store.logs["h-due:2026-03-10:09:30"]; !ok {
		t.Error("expected reminder log for h-due")
	}
}

func TestDispatcher_RunTwiceSameMinute(t *testing.T) {
	store := seededStore()
	n := &fakeNotifier{}
	d := NewDispatcher(store, n, NewStoreDeduper(store))

	if _, err := d.Run(context.Background(), dispatchNow, false); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	result, err := d.Run(context.Background(), dispatchNow.Add(20*time.Second), false)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if result.Sent != 0 || result.Skipped != 2 {
		t.Errorf("second run = %+v, want 0 sent and 2 skipped", result)
	}
	if len(n.sent) != 3 {
		t.Errorf("sent %d messages in total, want 3", len(n.sent))
	}
}

func TestDispatcher_Bypass(t *testing.T) {
	store := seededStore()
	n := &fakeNotifier{}
	d := NewDispatcher(store, n, NewStoreDeduper(store))

	// Scheduled send first, then a bypass in the same minute still goes out.
	if _, err := d.Run(context.Background(), dispatchNow, false); err != nil {
		t.Fatal(err)
	}
	result, err := d.Run(context.Background(), dispatchNow, true)
	if err != nil {
		t.Fatal(err)
	}
	want := Result{Evaluated: 5, Eligible: 4, Sent: 4}
	if result != want {
		t.Errorf("bypass Run() = %+v, want %+v", result, want)
	}
}

func TestDispatcher_FailedDeliveryReleasesKey(t *testing.T) {
	store := seededStore()
	n := &fakeNotifier{err: errors.New("gateway down")}
	d := NewDispatcher(store, n, NewStoreDeduper(store))

	result, err := d.Run(context.Background(), dispatchNow, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 2 || result.Sent != 0 {
		t.Errorf("Run() = %+v, want 2 failed", result)
	}
	if len(store.logs) != 0 {
		t.Errorf("expected keys to be released, got %d logs", len(store.logs))
	}

	n.err = nil
	result, err = d.Run(context.Background(), dispatchNow, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Sent != 2 {
		t.Errorf("retry Run() = %+v, want 2 sent", result)
	}
}

func TestDispatcher_NoRecipientIsSkipped(t *testing.T) {
	store := seededStore()
	n := &fakeNotifier{err: notifier.ErrNoRecipient}
	d := NewDispatcher(store, n, nil)

	result, err := d.Run(context.Background(), dispatchNow, false)
	if err != nil {
		t.Fatal(err)
	}
	if result.Skipped != 2 || result.Failed != 0 {
		t.Errorf("Run() = %+v, want 2 skipped", result)
	}
}

func TestDispatcher_ListUsersError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("connection refused")
	d := NewDispatcher(store, &fakeNotifier{}, nil)

	if _, err := d.Run(context.Background(), dispatchNow, false); err == nil {
		t.Error("expected error when users cannot be listed")
	}
}

func TestDispatcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(seededStore(), &fakeNotifier{}, nil)
	if _, err := d.Run(ctx, dispatchNow, false); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

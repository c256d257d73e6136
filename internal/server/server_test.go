package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/notifier"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/tracker"
)

const (
	testJWTSecret  = "jwt-test-secret"
	testCronSecret = "cron-test-secret"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifier.Message
}

func (n *recordingNotifier) Send(ctx context.Context, msg notifier.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func intPtr(n int) *int {
	return &n
}

func setupServer(t *testing.T, cfg *config.Config) (http.Handler, *recordingNotifier) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, u := range []models.User{
		{ID: "u1", Name: "Ada", PushTokens: []string{"device-1"}},
		{ID: "u2", Name: "Grace"},
	} {
		if err := store.AddUser(u); err != nil {
			t.Fatalf("AddUser: %v", err)
		}
	}
	for _, h := range []models.Habit{
		{ID: "h1", UserID: "u1", Name: "Read", Frequency: intPtr(2), FrequencyUnit: constants.UnitDay,
			NotificationEnabled: true, NotificationTime: "09:30"},
		{ID: "h2", UserID: "u2", Name: "Run", Frequency: intPtr(1), FrequencyUnit: constants.UnitWeek},
	} {
		if err := store.AddHabit(h); err != nil {
			t.Fatalf("AddHabit: %v", err)
		}
	}

	n := &recordingNotifier{}
	srv := New(cfg,
		tracker.New(store, tracker.SourceAPI),
		reminder.NewDispatcher(store, n, reminder.NewStoreDeduper(store)),
	)
	srv.now = func() time.Time { return testNow }
	return srv.Routes(), n
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.JWTSecret = testJWTSecret
	cfg.CronSecret = testCronSecret
	return cfg
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := GenerateToken(userID, testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return "Bearer " + token
}

func do(h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := setupServer(t, testConfig())

	if rec := do(h, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	h, _ := setupServer(t, testConfig())

	otherSecret, err := GenerateToken("u1", "some-other-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	noSubject, err := GenerateToken("", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"no subject", "Bearer " + noSubject, http.StatusUnauthorized},
		{"valid", bearer(t, "u1"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := do(h, http.MethodGet, "/api/habits", headers)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRegisterAndUnregister(t *testing.T) {
	h, _ := setupServer(t, testConfig())
	auth := map[string]string{"Authorization": bearer(t, "u1")}

	rec := do(h, http.MethodPost, "/api/habits/h1/register", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var status tracker.HabitStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Snapshot.Progress != 50 {
		t.Errorf("progress = %v, want 50", status.Snapshot.Progress)
	}
	if status.Habit.Dates.Total() != 1 {
		t.Errorf("completions = %d, want 1", status.Habit.Dates.Total())
	}

	rec = do(h, http.MethodPost, "/api/habits/h1/unregister", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("unregister status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(h, http.MethodPost, "/api/habits/h1/unregister", auth)
	if rec.Code != http.StatusConflict {
		t.Errorf("second unregister status = %d, want 409", rec.Code)
	}
}

func TestHabitOwnership(t *testing.T) {
	h, _ := setupServer(t, testConfig())
	auth := map[string]string{"Authorization": bearer(t, "u1")}

	for _, path := range []string{"/api/habits/h2/register", "/api/habits/missing/register"} {
		rec := do(h, http.MethodPost, path, auth)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
			t.Errorf("%s: expected JSON error body", path)
		}
	}
}

func TestProgress(t *testing.T) {
	h, _ := setupServer(t, testConfig())
	auth := map[string]string{"Authorization": bearer(t, "u1")}

	rec := do(h, http.MethodGet, "/api/habits/h1/progress?pending=true", auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status tracker.HabitStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Snapshot.Progress != 50 {
		t.Errorf("pending progress = %v, want 50", status.Snapshot.Progress)
	}

	rec = do(h, http.MethodGet, "/api/habits/h1/progress?pending=maybe", auth)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid pending status = %d, want 400", rec.Code)
	}
}

func TestListHabits(t *testing.T) {
	h, _ := setupServer(t, testConfig())

	rec := do(h, http.MethodGet, "/api/habits", map[string]string{"Authorization": bearer(t, "u2")})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Habits []tracker.HabitStatus `json:"habits"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Habits) != 1 || body.Habits[0].Habit.ID != "h2" {
		t.Errorf("unexpected habits: %+v", body.Habits)
	}
}

func TestSendNotificationIfTime(t *testing.T) {
	h, n := setupServer(t, testConfig())
	path := "/internal/send-notification-if-time"

	if rec := do(h, http.MethodPost, path, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing secret status = %d, want 401", rec.Code)
	}
	if rec := do(h, http.MethodPost, path, map[string]string{constants.CronSecretHeader: "wrong"}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", rec.Code)
	}

	secret := map[string]string{constants.CronSecretHeader: testCronSecret}
	rec := do(h, http.MethodPost, path, secret)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result reminder.Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Sent != 1 || result.Evaluated != 2 {
		t.Errorf("result = %+v, want 1 sent of 2 evaluated", result)
	}

	// Same minute again: deduplicated
	rec = do(h, http.MethodPost, path, secret)
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Sent != 0 || result.Skipped != 1 {
		t.Errorf("repeat result = %+v, want 1 skipped", result)
	}
	if len(n.sent) != 1 || n.sent[0].To != "device-1" {
		t.Errorf("unexpected deliveries: %+v", n.sent)
	}

	// Bypass ignores time and uses its own key
	rec = do(h, http.MethodPost, path+"?bypass=true", secret)
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Sent != 1 {
		t.Errorf("bypass result = %+v, want 1 sent", result)
	}
}

func TestSendNotificationIfTime_DisabledWithoutSecret(t *testing.T) {
	cfg := testConfig()
	cfg.CronSecret = ""
	h, _ := setupServer(t, cfg)

	rec := do(h, http.MethodPost, "/internal/send-notification-if-time", map[string]string{constants.CronSecretHeader: ""})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestParseToken(t *testing.T) {
	valid, err := GenerateToken("u1", testJWTSecret, 0)
	if err != nil {
		t.Fatal(err)
	}
	noSubject, err := GenerateToken("", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParseToken(valid, testJWTSecret)
	if err != nil || got != "u1" {
		t.Errorf("ParseToken(valid) = %q, %v; want u1", got, err)
	}
	if _, err := ParseToken(noSubject, testJWTSecret); !errors.Is(err, ErrMissingSubject) {
		t.Errorf("ParseToken(no subject) error = %v, want ErrMissingSubject", err)
	}
	if _, err := ParseToken(valid, "some-other-secret"); err == nil || errors.Is(err, ErrMissingSubject) {
		t.Errorf("ParseToken(wrong secret) error = %v, want a signature error", err)
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
		{"Bearer a b", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := ExtractToken(req); got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementReminder(t *testing.T) {
	before := testutil.ToFloat64(RemindersTotal.WithLabelValues(OutcomeSent))
	IncrementReminder(OutcomeSent)
	IncrementReminder(OutcomeSent)
	after := testutil.ToFloat64(RemindersTotal.WithLabelValues(OutcomeSent))
	if after-before != 2 {
		t.Errorf("sent counter delta = %v, want 2", after-before)
	}
}

func TestIncrementCompletion(t *testing.T) {
	before := testutil.ToFloat64(CompletionsTotal.WithLabelValues("register", "cli"))
	IncrementCompletion("register", "cli")
	after := testutil.ToFloat64(CompletionsTotal.WithLabelValues("register", "cli"))
	if after-before != 1 {
		t.Errorf("completion counter delta = %v, want 1", after-before)
	}
}

func TestRecordDurations(t *testing.T) {
	// Observations must not panic on label cardinality
	RecordDispatchDuration(25 * time.Millisecond)
	RecordHTTPRequestDuration("POST", "/api/habits/{habitID}/register", "200", 3*time.Millisecond)

	if n := testutil.CollectAndCount(HTTPRequestDuration); n == 0 {
		t.Error("expected at least one HTTP duration series")
	}
}

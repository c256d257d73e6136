package notifier

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestDryRun(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRun(&buf)

	if err := n.Send(context.Background(), Message{To: "tok-1", Title: "Habit reminder", Body: "Don't forget: Read (0% done)"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := n.Send(context.Background(), Message{Body: "no device"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "to=tok-1") || !strings.Contains(out, "Don't forget: Read (0% done)") {
		t.Errorf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "(no device)") {
		t.Errorf("expected placeholder recipient, got %q", out)
	}
}

func TestDryRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := NewDryRun(&buf).Send(ctx, Message{Body: "x"}); err == nil {
		t.Error("expected error for cancelled context")
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written, got %q", buf.String())
	}
}

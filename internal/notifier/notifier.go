// Package notifier delivers reminder messages to a push gateway, a local
// tray process or a writer.
package notifier

import (
	"context"
	"fmt"
	"io"
)

// Message is a single notification addressed to one device token.
type Message struct {
	To    string
	Title string
	Body  string
}

// Notifier delivers a message. Implementations must honour ctx cancellation.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// DryRun writes messages to an io.Writer instead of delivering them.
type DryRun struct {
	w io.Writer
}

func NewDryRun(w io.Writer) *DryRun {
	return &DryRun{w: w}
}

func (d *DryRun) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := msg.To
	if to == "" {
		to = "(no device)"
	}
	_, err := fmt.Fprintf(d.w, "[dry-run] to=%s title=%q body=%q\n", to, msg.Title, msg.Body)
	return err
}

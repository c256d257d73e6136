package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/storage"
)

// NotifyCmd runs the reminder dispatcher once, for use from cron.
type NotifyCmd struct {
	Bypass bool `help:"Remind about every reminder-enabled habit regardless of time and progress."`
	DryRun bool `help:"Print reminders instead of delivering them."`
	Tray   bool `help:"Deliver reminders through the tray app."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	cfg, err := ctx.LoadServerConfig()
	if err != nil {
		return err
	}

	bg := context.Background()
	var (
		store   reminder.Store = ctx.Store
		deduper reminder.Deduper
	)
	if c.DryRun {
		store = readOnlyLog{ctx.Store}
	} else {
		d, closeDeduper := newDeduper(bg, cfg, ctx.Store)
		defer closeDeduper()
		deduper = d
	}

	dispatcher := reminder.NewDispatcher(store, newNotifier(cfg, c.DryRun, c.Tray), deduper)
	result, err := dispatcher.Run(bg, ctx.Clock().UTC().Truncate(time.Minute), c.Bypass)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

// readOnlyLog keeps dry runs out of the reminder log.
type readOnlyLog struct {
	storage.Provider
}

func (readOnlyLog) RecordReminder(models.ReminderLog) (bool, error) {
	return false, nil
}

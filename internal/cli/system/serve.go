package system

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/reminder"
	"github.com/julianstephens/habitual/internal/scheduler"
	"github.com/julianstephens/habitual/internal/server"
	"github.com/julianstephens/habitual/internal/tracker"
)

type ServeCmd struct {
	Listen   string        `help:"Address to listen on. Overrides the config file."`
	NoTick   bool          `help:"Do not run the in-process reminder scheduler."`
	NoHTTP   bool          `name:"no-http" help:"Run only the reminder scheduler."`
	Interval time.Duration `help:"Reminder scheduler interval." default:"1m"`
	Tray     bool          `help:"Deliver reminders through the tray app instead of the push gateway."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if c.NoTick && c.NoHTTP {
		return errors.New("--no-tick and --no-http leave nothing to run")
	}

	cfg, err := ctx.LoadServerConfig()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Listen = c.Listen
	}
	if !c.NoHTTP {
		if err := cfg.ValidateForServe(); err != nil {
			return err
		}
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deduper, closeDeduper := newDeduper(runCtx, cfg, ctx.Store)
	defer closeDeduper()
	dispatcher := reminder.NewDispatcher(ctx.Store, newNotifier(cfg, false, c.Tray), deduper)

	g, gctx := errgroup.WithContext(runCtx)
	if !c.NoHTTP {
		srv := server.New(cfg, tracker.New(ctx.Store, tracker.SourceAPI), dispatcher)
		g.Go(func() error { return srv.Run(gctx) })
	}
	if !c.NoTick {
		interval := c.Interval
		if interval <= 0 {
			interval = constants.DefaultTickInterval
		}
		sched := scheduler.New(dispatcher, interval)
		g.Go(func() error { return sched.Start(gctx) })
	}

	err = g.Wait()
	logger.Info("Shutdown complete")
	return err
}

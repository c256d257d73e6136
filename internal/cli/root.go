package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/tracker"
)

// Context is handed to every command's Run method.
type Context struct {
	Store storage.Provider
	// UserID selects whose habits and settings commands operate on.
	UserID string
	// ServerConfigPath points at the YAML file read by serve and notify.
	ServerConfigPath string
	Now              func() time.Time
}

// Clock returns the instant a command evaluates progress at. Commands read
// it once.
func (c *Context) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Tracker returns the completion service bound to the context's store.
func (c *Context) Tracker(source string) *tracker.Service {
	return tracker.New(c.Store, source)
}

// CurrentUser loads the selected user.
func (c *Context) CurrentUser() (models.User, error) {
	user, err := c.Store.GetUser(c.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("user %q not found, add it with 'habitual user add'", c.UserID)
	}
	return user, err
}

// ResolveHabit finds one of the current user's habits by ID or name.
func (c *Context) ResolveHabit(ref string) (models.Habit, error) {
	habit, err := c.Store.GetHabit(ref)
	if err == nil && habit.UserID == c.UserID {
		return habit, nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}
	habit, err = c.Store.GetHabitByName(c.UserID, ref)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, fmt.Errorf("habit %q not found", ref)
	}
	return habit, err
}

// LoadServerConfig reads the server YAML with environment overrides.
func (c *Context) LoadServerConfig() (*config.Config, error) {
	return config.Load(c.ServerConfigPath, false)
}

// PerformAutomaticBackup snapshots a SQLite database and only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// BackupManager returns the backup manager for a SQLite store.
func (c *Context) BackupManager() (*backup.Manager, error) {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil, errors.New("backups are only supported for SQLite storage")
	}
	return backup.NewManager(c.Store.GetConfigPath()), nil
}

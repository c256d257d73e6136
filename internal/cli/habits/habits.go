package habits

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/utils"
	"github.com/julianstephens/habitual/internal/validation"
)

type HabitCmd struct {
	Add        HabitAddCmd        `cmd:"" help:"Add a new habit."`
	Edit       HabitEditCmd       `cmd:"" help:"Edit an existing habit."`
	List       HabitListCmd       `cmd:"" help:"List habits with their progress."`
	Register   HabitRegisterCmd   `cmd:"" help:"Check off a habit."`
	Unregister HabitUnregisterCmd `cmd:"" help:"Undo the latest check-off in the current period."`
	Status     HabitStatusCmd     `cmd:"" help:"Show progress for one habit."`
	Delete     HabitDeleteCmd     `cmd:"" help:"Delete a habit and its history."`
	Import     HabitImportCmd     `cmd:"" help:"Import habits from a JSON export."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	Frequency *int   `short:"f" help:"Completions per period."`
	Unit      string `short:"u" help:"Period unit (day|week|month)."`
	Icon      string `help:"Icon shown next to the habit."`
	Remind    string `short:"r" help:"Reminder time (HH:MM, UTC). Enables reminders."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.CurrentUser(); err != nil {
		return err
	}

	if _, err := ctx.Store.GetHabitByName(ctx.UserID, c.Name); err == nil {
		return fmt.Errorf("habit with name %q already exists", c.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	now := ctx.Clock()
	habit := models.Habit{
		ID:                  uuid.New().String(),
		UserID:              ctx.UserID,
		Name:                strings.TrimSpace(c.Name),
		Icon:                c.Icon,
		Frequency:           c.Frequency,
		FrequencyUnit:       constants.FrequencyUnit(strings.ToLower(c.Unit)),
		Dates:               models.Completions{},
		NotificationEnabled: c.Remind != "",
		NotificationTime:    c.Remind,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := validation.ValidateHabit(habit); err != nil {
		return err
	}

	if err := ctx.Store.AddHabit(habit); err != nil {
		return err
	}

	fmt.Printf("Added habit: %s (%s, ID: %s)\n", habit.Name, habit.FormatGoal(), habit.ID)
	return nil
}

type HabitEditCmd struct {
	Habit     string  `arg:"" help:"Habit ID or name."`
	Name      *string `help:"New name."`
	Frequency *int    `short:"f" help:"Completions per period."`
	Unit      *string `short:"u" help:"Period unit (day|week|month)."`
	Icon      *string `help:"Icon shown next to the habit."`
	Remind    *string `short:"r" help:"Reminder time (HH:MM, UTC). Enables reminders."`
	NoRemind  bool    `help:"Disable reminders."`
	Untrack   bool    `help:"Remove the goal, leaving a plain checklist habit."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	if c.Name != nil {
		habit.Name = strings.TrimSpace(*c.Name)
	}
	if c.Frequency != nil {
		habit.Frequency = c.Frequency
	}
	if c.Unit != nil {
		habit.FrequencyUnit = constants.FrequencyUnit(strings.ToLower(*c.Unit))
	}
	if c.Untrack {
		habit.Frequency = nil
		habit.FrequencyUnit = ""
	}
	if c.Icon != nil {
		habit.Icon = *c.Icon
	}
	if c.Remind != nil {
		habit.NotificationTime = *c.Remind
		habit.NotificationEnabled = true
	}
	if c.NoRemind {
		habit.NotificationEnabled = false
	}

	if err := validation.ValidateHabit(habit); err != nil {
		return err
	}
	habit.UpdatedAt = ctx.Clock()

	if err := ctx.Store.UpdateHabit(habit); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("habit with name %q already exists", habit.Name)
		}
		return err
	}

	fmt.Printf("Updated habit: %s\n", habit.Name)
	return nil
}

type HabitListCmd struct {
	JSON bool `help:"Print habits with their completions as JSON."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	statuses, err := ctx.Tracker(tracker.SourceCLI).List(ctx.UserID, ctx.Clock())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("user %q not found", ctx.UserID)
		}
		return err
	}

	if c.JSON {
		habits := make([]models.Habit, 0, len(statuses))
		for _, s := range statuses {
			habits = append(habits, s.Habit)
		}
		data, err := json.MarshalIndent(habits, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode habits: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(statuses) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "GOAL", "PROGRESS", "ELAPSED", "STATUS", "REMINDER")
	for _, s := range statuses {
		reminder := "-"
		if s.Habit.NotificationEnabled {
			reminder = s.Habit.NotificationTime
		}
		t.Row(displayName(s.Habit), s.Habit.FormatGoal(),
			fmt.Sprintf("%.0f%%", s.Snapshot.Progress), fmt.Sprintf("%.0f%%", s.Snapshot.Buffer),
			string(s.Snapshot.Status), reminder)
	}
	fmt.Println(t)
	return nil
}

type HabitRegisterCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
	At    string `help:"Completion time (RFC3339, 'YYYY-MM-DD HH:MM' or YYYY-MM-DD). Defaults to now."`
}

func (c *HabitRegisterCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	now := ctx.Clock()
	at := now
	if c.At != "" {
		if at, err = utils.ParseInstant(c.At); err != nil {
			return err
		}
		if at.After(now) {
			return fmt.Errorf("completion time %s is in the future", c.At)
		}
	}

	status, err := ctx.Tracker(tracker.SourceCLI).Register(ctx.UserID, habit.ID, at)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s\n", formatStatus(status))
	return nil
}

type HabitUnregisterCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *HabitUnregisterCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	status, err := ctx.Tracker(tracker.SourceCLI).Unregister(ctx.UserID, habit.ID, ctx.Clock())
	if err != nil {
		return err
	}
	fmt.Printf("Unregistered %s\n", formatStatus(status))
	return nil
}

type HabitStatusCmd struct {
	Habit   string `arg:"" help:"Habit ID or name."`
	Pending bool   `help:"Include one pending check-off in the progress."`
}

func (c *HabitStatusCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	status, err := ctx.Tracker(tracker.SourceCLI).Status(ctx.UserID, habit.ID, ctx.Clock(), c.Pending)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", displayName(status.Habit))
	fmt.Printf("  Goal:     %s\n", status.Habit.FormatGoal())
	if p := status.Snapshot.Period; p != nil {
		fmt.Printf("  Period:   %s - %s\n", p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
	}
	fmt.Printf("  Progress: %.1f%%\n", status.Snapshot.Progress)
	fmt.Printf("  Elapsed:  %.1f%%\n", status.Snapshot.Buffer)
	fmt.Printf("  Status:   %s\n", status.Snapshot.Status)
	fmt.Printf("  Total:    %d completions\n", status.Habit.Dates.Total())
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit ID or name."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.ResolveHabit(c.Habit)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Store.DeleteHabit(habit.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted habit: %s\n", habit.Name)
	return nil
}

type HabitImportCmd struct {
	File string `arg:"" type:"existingfile" help:"JSON file produced by 'habit list --json'."`
}

func (c *HabitImportCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.CurrentUser(); err != nil {
		return err
	}

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.File, err)
	}
	var habits []models.Habit
	if err := json.Unmarshal(data, &habits); err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.File, err)
	}

	now := ctx.Clock()
	imported, skipped := 0, 0
	for _, h := range habits {
		h.ID = uuid.New().String()
		h.UserID = ctx.UserID
		if h.CreatedAt.IsZero() {
			h.CreatedAt = now
		}
		h.UpdatedAt = now
		if err := validation.ValidateHabit(h); err != nil {
			fmt.Printf("  Skipped %q: %v\n", h.Name, err)
			skipped++
			continue
		}
		if err := ctx.Store.AddHabit(h); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				fmt.Printf("  Skipped %q: already exists\n", h.Name)
				skipped++
				continue
			}
			return fmt.Errorf("failed to import %q: %w", h.Name, err)
		}
		imported++
	}

	fmt.Printf("Imported %d habits, skipped %d\n", imported, skipped)
	return nil
}

func displayName(h models.Habit) string {
	if h.Icon != "" {
		return h.Icon + " " + h.Name
	}
	return h.Name
}

func formatStatus(s tracker.HabitStatus) string {
	if !s.Habit.Tracked() {
		return fmt.Sprintf("%s (%d completions)", s.Habit.Name, s.Habit.Dates.Total())
	}
	return fmt.Sprintf("%s: %.0f%% of %s (%s)", s.Habit.Name, s.Snapshot.Progress, s.Habit.FormatGoal(), s.Snapshot.Status)
}

package settings

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	WeekStartsMonday *bool   `help:"Start weeks on Monday instead of Sunday."`
	DayStartsAt      *string `help:"Time a day begins (HH:MM, UTC). Empty resets to midnight."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	user, err := ctx.CurrentUser()
	if err != nil {
		return err
	}
	cfg := user.Config

	if c.List {
		weekStart := "Sunday"
		if cfg.WeekStartsAtMonday {
			weekStart = "Monday"
		}
		dayStart := "00:00"
		if cfg.DayStartsAt != nil {
			dayStart = cfg.DayStartsAt.String()
		}
		fmt.Printf("Settings for %s:\n", user.Name)
		fmt.Printf("  Week Starts On: %s\n", weekStart)
		fmt.Printf("  Day Starts At:  %s\n", dayStart)
		return nil
	}

	updated := false
	if c.WeekStartsMonday != nil {
		cfg.WeekStartsAtMonday = *c.WeekStartsMonday
		updated = true
	}
	if c.DayStartsAt != nil {
		ds, err := models.ParseDayStart(*c.DayStartsAt)
		if err != nil {
			return err
		}
		cfg.DayStartsAt = ds
		updated = true
	}

	if !updated {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}

	if err := ctx.Store.UpdateUserConfig(user.ID, cfg); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Println("Settings updated successfully.")
	return nil
}

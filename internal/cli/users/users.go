package users

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/server"
	"github.com/julianstephens/habitual/internal/storage"
)

type UserCmd struct {
	Add   UserAddCmd   `cmd:"" help:"Add a user."`
	List  UserListCmd  `cmd:"" help:"List users."`
	Token struct {
		Add    TokenAddCmd    `cmd:"" help:"Register a push device token for the selected user."`
		Remove TokenRemoveCmd `cmd:"" help:"Remove a push device token."`
	} `cmd:"" help:"Manage push device tokens."`
	APIToken APITokenCmd `cmd:"" name:"api-token" help:"Issue a bearer token for the HTTP API."`
}

type UserAddCmd struct {
	Name string `arg:"" help:"Display name."`
	ID   string `help:"User ID (default: generated)."`
}

func (c *UserAddCmd) Run(ctx *cli.Context) error {
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	user := models.User{
		ID:        id,
		Name:      c.Name,
		CreatedAt: ctx.Clock(),
	}
	if err := ctx.Store.AddUser(user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("user %q already exists", id)
		}
		return err
	}
	fmt.Printf("Added user: %s (ID: %s)\n", c.Name, id)
	return nil
}

type UserListCmd struct{}

func (c *UserListCmd) Run(ctx *cli.Context) error {
	users, err := ctx.Store.GetAllUsers()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "WEEK START", "DAY START", "DEVICES")
	for _, u := range users {
		weekStart := "sunday"
		if u.Config.WeekStartsAtMonday {
			weekStart = "monday"
		}
		dayStart := "00:00"
		if u.Config.DayStartsAt != nil {
			dayStart = u.Config.DayStartsAt.String()
		}
		t.Row(u.ID, u.Name, weekStart, dayStart, strconv.Itoa(len(u.PushTokens)))
	}
	fmt.Println(t)
	return nil
}

type TokenAddCmd struct {
	Token string `arg:"" help:"Device token issued by the push gateway."`
}

func (c *TokenAddCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.CurrentUser(); err != nil {
		return err
	}
	if err := ctx.Store.AddPushToken(ctx.UserID, c.Token); err != nil {
		return err
	}
	fmt.Printf("Registered device token for %s\n", ctx.UserID)
	return nil
}

type TokenRemoveCmd struct {
	Token string `arg:"" help:"Device token to remove."`
}

func (c *TokenRemoveCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.RemovePushToken(ctx.UserID, c.Token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("token not registered for %s", ctx.UserID)
		}
		return err
	}
	fmt.Printf("Removed device token for %s\n", ctx.UserID)
	return nil
}

type APITokenCmd struct {
	TTL time.Duration `help:"Token lifetime, 0 for no expiry." default:"720h"`
}

func (c *APITokenCmd) Run(ctx *cli.Context) error {
	if _, err := ctx.CurrentUser(); err != nil {
		return err
	}
	cfg, err := ctx.LoadServerConfig()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return config.ErrMissingJWTSecret
	}

	token, err := server.GenerateToken(ctx.UserID, cfg.JWTSecret, c.TTL)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}

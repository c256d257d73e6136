// Package tui is the interactive habit list: register and unregister
// completions, add and delete habits, and watch progress against the
// elapsed share of each period.
package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/tui/components/habits"
)

// tickMsg re-evaluates progress so buffers advance while the TUI is open.
type tickMsg time.Time

const refreshInterval = time.Minute

type Model struct {
	store           storage.Provider
	tracker         *tracker.Service
	userID          string
	now             func() time.Time
	state           constants.SessionState
	keys            KeyMap
	help            help.Model
	habitsModel     habits.Model
	form            *huh.Form
	habitForm       *HabitFormModel
	habitToDeleteID string
	statusMsg       string
	errMsg          string
	quitting        bool
	width           int
	height          int
}

func NewModel(store storage.Provider, userID string, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{
		store:       store,
		tracker:     tracker.New(store, tracker.SourceTUI),
		userID:      userID,
		now:         now,
		state:       constants.StateHabits,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitsModel: habits.New(nil, 0, 0),
	}
	m.refresh()
	return m
}

// refresh reloads every habit against a fresh instant.
func (m *Model) refresh() {
	statuses, err := m.tracker.List(m.userID, m.now())
	if err != nil {
		logger.Error("Failed to load habits", "user", m.userID, "error", err)
		m.errMsg = "Failed to load habits: " + err.Error()
		return
	}
	m.habitsModel.SetHabits(statuses)
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	return m.keys.FullHelp()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m *Model) setError(err error) {
	m.statusMsg = ""
	m.errMsg = err.Error()
}

func (m *Model) register(habitID string) {
	status, err := m.tracker.Register(m.userID, habitID, m.now())
	if err != nil {
		m.setError(err)
		return
	}
	m.errMsg = ""
	m.statusMsg = "Registered " + status.Habit.Name
	m.refresh()
}

func (m *Model) unregister(habitID string) {
	status, err := m.tracker.Unregister(m.userID, habitID, m.now())
	if err != nil {
		if errors.Is(err, tracker.ErrNothingToUnregister) {
			m.statusMsg = ""
			m.errMsg = "Nothing to unregister in this period"
			return
		}
		m.setError(err)
		return
	}
	m.errMsg = ""
	m.statusMsg = "Unregistered " + status.Habit.Name
	m.refresh()
}

func (m *Model) deleteHabit(habitID string) {
	if err := m.store.DeleteHabit(habitID); err != nil {
		m.setError(err)
		return
	}
	m.errMsg = ""
	m.statusMsg = "Habit deleted"
	m.refresh()
}

func (m *Model) saveForm() error {
	habit, err := m.habitForm.toHabit(m.userID, m.now)
	if err != nil {
		return err
	}
	if err := m.store.AddHabit(habit); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return errors.New("a habit with that name already exists")
		}
		return err
	}
	m.errMsg = ""
	m.statusMsg = "Added " + habit.Name
	m.refresh()
	return nil
}

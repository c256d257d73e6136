package habits

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/tracker"
)

const barWidth = 24

type AddHabitMsg struct{}

type RegisterHabitMsg struct {
	ID string
}

type UnregisterHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID string
}

var (
	statusStyles = map[constants.TrackStatus]lipgloss.Style{
		constants.TrackOnTrack: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		constants.TrackWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		constants.TrackDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

type Item struct {
	Status tracker.HabitStatus
}

func (i Item) Title() string {
	h := i.Status.Habit
	title := h.Name
	if h.Icon != "" {
		title = h.Icon + " " + title
	}
	if h.NotificationEnabled {
		title += " ⏰ " + h.NotificationTime
	}
	return title
}

func (i Item) Description() string {
	h := i.Status.Habit
	if !h.Tracked() {
		return mutedStyle.Render(fmt.Sprintf("untracked · %d completions", h.Dates.Total()))
	}
	s := i.Status.Snapshot
	style := statusStyles[s.Status]
	return fmt.Sprintf("%s %3.0f%% · %s · %s",
		BufferBar(barWidth, s.Progress, s.Buffer, style),
		s.Progress, h.FormatGoal(),
		style.Render(strings.ReplaceAll(string(s.Status), "_", " ")))
}

func (i Item) FilterValue() string { return i.Status.Habit.Name }

// BufferBar draws a width-cell bar filled to percent with a marker at the
// buffer position, the share of the period already elapsed.
func BufferBar(width int, percent, buffer float64, fill lipgloss.Style) string {
	filled := cellsFor(width, percent)
	marker := cellsFor(width, buffer)
	if marker >= width {
		marker = width - 1
	}

	var b strings.Builder
	for c := 0; c < width; c++ {
		switch {
		case c == marker:
			b.WriteString(markerStyle.Render("│"))
		case c < filled:
			b.WriteString(fill.Render("█"))
		default:
			b.WriteString(mutedStyle.Render("░"))
		}
	}
	return b.String()
}

func cellsFor(width int, percent float64) int {
	n := int(percent / 100 * float64(width))
	if n < 0 {
		return 0
	}
	if n > width {
		return width
	}
	return n
}

type KeyMap struct {
	Add        key.Binding
	Register   key.Binding
	Unregister key.Binding
	Delete     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Register: key.NewBinding(
			key.WithKeys(" ", "r"),
			key.WithHelp("space/r", "register"),
		),
		Unregister: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unregister"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list    list.Model
	keys    KeyMap
	overall progress.Model
}

func New(statuses []tracker.HabitStatus, width, height int) Model {
	l := list.New(toItems(statuses), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Register, keys.Unregister, keys.Add, keys.Delete}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	return Model{
		list:    l,
		keys:    keys,
		overall: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func toItems(statuses []tracker.HabitStatus) []list.Item {
	items := make([]list.Item, len(statuses))
	for i, s := range statuses {
		items[i] = Item{Status: s}
	}
	return items
}

// SetHabits replaces the list contents, keeping the cursor in range.
func (m *Model) SetHabits(statuses []tracker.HabitStatus) {
	m.list.SetItems(toItems(statuses))
}

// Selected returns the highlighted habit, if any.
func (m Model) Selected() (tracker.HabitStatus, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Status, ok
}

// Overall averages the progress of tracked habits.
func (m Model) Overall() (float64, int) {
	var sum float64
	n := 0
	for _, it := range m.list.Items() {
		s := it.(Item).Status
		if !s.Habit.Tracked() {
			continue
		}
		sum += s.Snapshot.Progress
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Register):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return RegisterHabitMsg{ID: s.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Unregister):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return UnregisterHabitMsg{ID: s.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Delete):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: s.Habit.ID} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}

	header := mutedStyle.Render("  no tracked habits")
	if avg, n := m.Overall(); n > 0 {
		header = fmt.Sprintf("  %s  %d tracked", m.overall.ViewAs(avg/100), n)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.list.View())
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height-2)
}

package goallist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goaltrack/internal/derive"
	"github.com/julianstephens/goaltrack/internal/models"
)

type AddGoalMsg struct{}

type MoveGoalMsg struct {
	Goal models.Goal
}

type DeleteGoalMsg struct {
	Goal models.Goal
}

type Item struct {
	Goal     models.Goal
	Category string
	// Pending goals have a change in flight and accept no actions.
	Pending bool
}

func (i Item) Title() string {
	if i.Pending {
		return "⋯ " + i.Goal.Description
	}
	return i.Goal.Description
}

func (i Item) Description() string {
	habits := len(derive.QualifyingHabits(i.Goal))
	desc := fmt.Sprintf("%s | %d habit", i.Category, habits)
	if habits != 1 {
		desc += "s"
	}
	if habits == 0 {
		desc += " | hidden from tracking"
	}
	if i.Pending {
		desc += " | saving…"
	}
	return desc
}

func (i Item) FilterValue() string { return i.Goal.Description }

type KeyMap struct {
	Add    key.Binding
	Move   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add goal"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move goal"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete goal"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Goals"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Move, keys.Delete}
	}
	return Model{list: l, keys: keys}
}

// SetItems replaces the listed goals, keeping the cursor where possible.
func (m *Model) SetItems(items []Item) tea.Cmd {
	listItems := make([]list.Item, len(items))
	for i, it := range items {
		listItems[i] = it
	}
	return m.list.SetItems(listItems)
}

// Selected returns the highlighted goal.
func (m Model) Selected() (Item, bool) {
	it, ok := m.list.SelectedItem().(Item)
	return it, ok
}

func (m Model) Len() int {
	return len(m.list.Items())
}

// Filtering reports whether the list is capturing keys for its filter.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && !m.Filtering() {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddGoalMsg{} }
		case key.Matches(msg, m.keys.Move):
			if it, ok := m.Selected(); ok && !it.Pending {
				return m, func() tea.Msg { return MoveGoalMsg{Goal: it.Goal} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if it, ok := m.Selected(); ok && !it.Pending {
				return m, func() tea.Msg { return DeleteGoalMsg{Goal: it.Goal} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No goals yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}

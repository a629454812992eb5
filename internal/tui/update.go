package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/tui/handlers"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.GoalList.SetSize(msg.Width-4, msg.Height-10)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	for _, handle := range []func(tea.Msg) (bool, tea.Cmd){
		m.handleData,
		m.handleNotifications,
		m.handleMutations,
		m.handleGoalList,
	} {
		if handled, cmd := handle(msg); handled {
			return m, cmd
		}
	}

	if handlers.IsForm(m.State) {
		return m, handlers.HandleFormState(&m.Model, msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if handled, cmd := handlers.HandleGlobalKeys(&m.Model, msg); handled {
			return m, cmd
		}
		switch m.State {
		case constants.StateCalendar:
			return m, handlers.HandleCalendarKeys(&m.Model, msg)
		case constants.StateStats:
			return m, handlers.HandleStatsKeys(&m.Model, msg)
		}
	}

	if m.State == constants.StateGoals {
		return m, handlers.HandleGoalKeys(&m.Model, msg)
	}
	return m, nil
}

func (m *Model) handleData(msg tea.Msg) (bool, tea.Cmd) {
	return handlers.HandleDataMessages(&m.Model, msg)
}

func (m *Model) handleNotifications(msg tea.Msg) (bool, tea.Cmd) {
	return handlers.HandleNotificationMessages(&m.Model, msg)
}

func (m *Model) handleMutations(msg tea.Msg) (bool, tea.Cmd) {
	return handlers.HandleMutationMessages(&m.Model, msg)
}

func (m *Model) handleGoalList(msg tea.Msg) (bool, tea.Cmd) {
	return handlers.HandleGoalListMessages(&m.Model, msg)
}

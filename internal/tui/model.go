// Package tui is the interactive goaltrack client.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/mutation"
	"github.com/julianstephens/goaltrack/internal/tui/handlers"
	"github.com/julianstephens/goaltrack/internal/tui/state"
)

type Model struct {
	state.Model
}

// New builds the TUI around deps.
func New(deps state.Deps) Model {
	return Model{Model: state.New(deps)}
}

// FromContext wires the TUI to the invocation's session, cache and local
// store. Calendar toggles may remove completions on any past day.
func FromContext(ctx *cli.Context) (Model, error) {
	bg := context.Background()
	entities, err := ctx.Entities(bg)
	if err != nil {
		return Model{}, err
	}
	client, err := ctx.Client(bg)
	if err != nil {
		return Model{}, err
	}
	coord, err := ctx.Coordinator(bg)
	if err != nil {
		return Model{}, err
	}
	local, err := ctx.State()
	if err != nil {
		return Model{}, err
	}
	uid, err := ctx.UserID(bg)
	if err != nil {
		return Model{}, err
	}
	if err := local.RememberUser(uid); err != nil {
		return Model{}, err
	}

	deps := state.Deps{
		Entities:   entities,
		Client:     client,
		Coord:      coord,
		LocalState: local,
		UserID:     uid,
		Policy:     mutation.UnmarkAllowed,
		Clock:      ctx.Clock,
		Location:   ctx.Config.Location(),
	}
	if session, err := ctx.Session(bg); err == nil {
		if cp, ok := session.(auth.ClaimsProvider); ok {
			deps.Claims = cp
		}
	}
	return New(deps), nil
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.Keys.Tab, m.Keys.Quit, m.Keys.Help}
	switch m.State {
	case constants.StateCalendar:
		keys = append(keys, m.Keys.PrevDay, m.Keys.NextDay, m.Keys.Toggle)
	case constants.StateGoals:
		keys = append(keys, m.Keys.AddGoal, m.Keys.MoveGoal, m.Keys.DeleteGoal)
	case constants.StateStats:
		keys = append(keys, m.Keys.PrevMonth, m.Keys.NextMonth)
	}
	if m.ShowEmailPrompt {
		keys = append(keys, m.Keys.DismissPrompt)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.Keys.Tab, m.Keys.ShiftTab, m.Keys.Quit, m.Keys.Help, m.Keys.Dismiss, m.Keys.Reload, m.Keys.Quiz}
	categories := []key.Binding{m.Keys.PrevCategory, m.Keys.NextCategory, m.Keys.AddCategory, m.Keys.RenameCategory, m.Keys.DeleteCategory}

	var actions []key.Binding
	switch m.State {
	case constants.StateCalendar:
		actions = []key.Binding{m.Keys.PrevDay, m.Keys.NextDay, m.Keys.PrevMonth, m.Keys.NextMonth, m.Keys.Today, m.Keys.Up, m.Keys.Down, m.Keys.Toggle}
	case constants.StateGoals:
		actions = []key.Binding{m.Keys.Up, m.Keys.Down, m.Keys.AddGoal, m.Keys.MoveGoal, m.Keys.DeleteGoal}
	case constants.StateStats:
		actions = []key.Binding{m.Keys.PrevMonth, m.Keys.NextMonth, m.Keys.Today}
	}
	if m.ShowEmailPrompt {
		global = append(global, m.Keys.DismissPrompt)
	}
	return [][]key.Binding{global, categories, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		handlers.Reload(&m.Model),
		handlers.CheckEmail(&m.Model),
	)
}

package state

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Tab            key.Binding
	ShiftTab       key.Binding
	Quit           key.Binding
	Help           key.Binding
	Dismiss        key.Binding
	Reload         key.Binding
	PrevDay        key.Binding
	NextDay        key.Binding
	PrevMonth      key.Binding
	NextMonth      key.Binding
	Today          key.Binding
	Up             key.Binding
	Down           key.Binding
	Toggle         key.Binding
	PrevCategory   key.Binding
	NextCategory   key.Binding
	AddCategory    key.Binding
	RenameCategory key.Binding
	DeleteCategory key.Binding
	AddGoal        key.Binding
	MoveGoal       key.Binding
	DeleteGoal     key.Binding
	Quiz           key.Binding
	DismissPrompt  key.Binding
	QuizBack       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev view"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "dismiss"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "prev day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next day"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next month"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle habit"),
		),
		PrevCategory: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "prev category"),
		),
		NextCategory: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "next category"),
		),
		AddCategory: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new category"),
		),
		RenameCategory: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename category"),
		),
		DeleteCategory: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete category"),
		),
		AddGoal: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add goal"),
		),
		MoveGoal: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move goal"),
		),
		DeleteGoal: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete goal"),
		),
		Quiz: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "questionnaire"),
		),
		DismissPrompt: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "hide email reminder"),
		),
		QuizBack: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "previous question"),
		),
	}
}

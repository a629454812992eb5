package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Habit is a recurring action tracked in service of a goal.
type Habit struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// IsBlank reports whether the habit has no displayable title.
func (h Habit) IsBlank() bool {
	return strings.TrimSpace(h.Title) == ""
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	// Older payloads list habits as bare titles.
	var title string
	if err := json.Unmarshal(data, &title); err == nil {
		*h = Habit{Title: title}
		return nil
	}

	var wire struct {
		ID      flexString `json:"id"`
		HabitID flexString `json:"habit_id"`
		Title   string     `json:"title"`
		Name    string     `json:"name"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	h.ID = string(wire.ID)
	if h.ID == "" {
		h.ID = string(wire.HabitID)
	}
	h.Title = wire.Title
	if h.Title == "" {
		h.Title = wire.Name
	}
	return nil
}

// Goal is a described outcome the user is pursuing. CategoryID is empty for
// uncategorized goals.
type Goal struct {
	ID          string     `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	CategoryID  string     `json:"category_id" yaml:"category_id"`
	Habits      []Habit    `json:"habits" yaml:"habits"`
	Timeframe   string     `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// UnmarshalJSON accepts both the canonical field names and the aliases
// (goal_id, goal_description, finalised_habits) some endpoints return.
func (g *Goal) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID              flexString `json:"id"`
		GoalID          flexString `json:"goal_id"`
		Description     *string    `json:"description"`
		GoalDescription *string    `json:"goal_description"`
		CategoryID      flexString `json:"category_id"`
		Habits          []Habit    `json:"habits"`
		FinalisedHabits []Habit    `json:"finalised_habits"`
		Timeframe       string     `json:"timeframe"`
		CreatedAt       string     `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	out := Goal{
		ID:         string(wire.ID),
		CategoryID: string(wire.CategoryID),
		Habits:     wire.Habits,
		Timeframe:  wire.Timeframe,
	}
	if out.ID == "" {
		out.ID = string(wire.GoalID)
	}
	switch {
	case wire.Description != nil:
		out.Description = *wire.Description
	case wire.GoalDescription != nil:
		out.Description = *wire.GoalDescription
	}
	if len(out.Habits) == 0 {
		out.Habits = wire.FinalisedHabits
	}

	created, err := parseOptionalTimestamp(wire.CreatedAt)
	if err != nil {
		return fmt.Errorf("goal %s: %w", out.ID, err)
	}
	out.CreatedAt = created

	*g = out
	return nil
}

// HabitIDs returns the ids of the goal's habits in order.
func (g Goal) HabitIDs() []string {
	ids := make([]string, 0, len(g.Habits))
	for _, h := range g.Habits {
		ids = append(ids, h.ID)
	}
	return ids
}

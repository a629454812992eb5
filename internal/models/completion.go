package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// HabitCompletion records that a habit was performed on a calendar day.
type HabitCompletion struct {
	ID             string    `json:"id" yaml:"id"`
	HabitID        string    `json:"habit_id" yaml:"habit_id"`
	CompletionDate string    `json:"completion_date" yaml:"completion_date"` // YYYY-MM-DD format
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

func (c *HabitCompletion) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID                flexString `json:"id"`
		HabitID           flexString `json:"habit_id"`
		CompletionDate    string     `json:"completion_date"`
		CompletionDateAlt string     `json:"completionDate"`
		CreatedAt         string     `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	raw := wire.CompletionDate
	if raw == "" {
		raw = wire.CompletionDateAlt
	}
	var day string
	if raw != "" {
		d, err := NormalizeDate(raw)
		if err != nil {
			return fmt.Errorf("completion %s: %w", wire.ID, err)
		}
		day = d
	}
	created, err := parseOptionalTimestamp(wire.CreatedAt)
	if err != nil {
		return fmt.Errorf("completion %s: %w", wire.ID, err)
	}

	*c = HabitCompletion{
		ID:             string(wire.ID),
		HabitID:        string(wire.HabitID),
		CompletionDate: day,
	}
	if created != nil {
		c.CreatedAt = *created
	}
	return nil
}

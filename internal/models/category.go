package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category groups goals under a user-defined heading such as "Health".
type Category struct {
	ID         string    `json:"id" yaml:"id"`
	CustomerID string    `json:"customer_id" yaml:"customer_id"`
	Name       string    `json:"name" yaml:"name"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID         flexString `json:"id"`
		CustomerID flexString `json:"customer_id"`
		Name       string     `json:"name"`
		CreatedAt  string     `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	created, err := parseOptionalTimestamp(wire.CreatedAt)
	if err != nil {
		return fmt.Errorf("category %s: %w", wire.ID, err)
	}

	*c = Category{
		ID:         string(wire.ID),
		CustomerID: string(wire.CustomerID),
		Name:       wire.Name,
	}
	if created != nil {
		c.CreatedAt = *created
	}
	return nil
}

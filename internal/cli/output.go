package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects how commands print results.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Render prints v in the selected format. Text output is delegated to text.
func (c *Context) Render(v any, text func(w io.Writer) error) error {
	switch c.Output {
	case FormatJSON:
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(c.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return text(c.Out)
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
}

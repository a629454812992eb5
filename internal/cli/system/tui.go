package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/goaltrack/internal/backup"
	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/tui"
)

// TuiCmd opens the interactive tracker.
type TuiCmd struct {
	NoBackup bool `help:"Skip the backup taken before the TUI starts." name:"no-backup"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	m, err := tui.FromContext(ctx)
	if err != nil {
		return err
	}

	if path := ctx.Store.GetConfigPath(); !c.NoBackup && isFile(path) {
		if _, err := backup.NewManager(path).WithClock(ctx.Clock).Create(); err != nil {
			logger.Warn("Automatic backup failed", "error", err)
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/goaltrack/internal/backup"
	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/storage"
)

// InitCmd creates the local store. With --force every saved entry is removed
// first; a SQLite store is backed up before it is cleared.
type InitCmd struct {
	Force bool `help:"Clear existing local state before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if !c.Force {
		return nil
	}

	if isFile(ctx.Store.GetConfigPath()) {
		path, err := backup.NewManager(ctx.Store.GetConfigPath()).WithClock(ctx.Clock).Create()
		if err != nil {
			return fmt.Errorf("failed to back up local store: %w", err)
		}
		fmt.Fprintf(ctx.Out, "Backed up existing state to: %s\n", path)
	}
	n, err := ctx.Store.DeletePrefix(constants.LocalKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to clear local state: %w", err)
	}
	fmt.Fprintf(ctx.Out, "✓ Cleared %d saved %s\n", n, plural(n, "entry", "entries"))
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// loadStore opens the store without creating it.
func loadStore(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		if errors.Is(err, storage.ErrNotInitialized) {
			return err
		}
		return fmt.Errorf("failed to load local store: %w", err)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

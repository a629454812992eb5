package system

import (
	"fmt"
	"io"

	"github.com/julianstephens/goaltrack/internal/backup"
	"github.com/julianstephens/goaltrack/internal/cli"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
)

// BackupCmd manages copies of a SQLite local store.
type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" default:"1" help:"Back up the local store."`
	List    BackupListCmd    `cmd:"" help:"List backups, newest first."`
	Restore BackupRestoreCmd `cmd:"" help:"Replace the local store with a backup."`
}

func manager(ctx *cli.Context) (*backup.Manager, error) {
	path := ctx.Store.GetConfigPath()
	if !isFile(path) {
		return nil, apperrors.New(apperrors.KindValidation, "backup", "backups are only available for a SQLite local store that exists, run 'goaltrack init' first")
	}
	return backup.NewManager(path).WithClock(ctx.Clock), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if backups == nil {
		backups = []backup.Info{}
	}
	return ctx.Render(backups, func(w io.Writer) error {
		if len(backups) == 0 {
			fmt.Fprintln(w, "No backups found.")
			return nil
		}
		fmt.Fprintf(w, "Backups in %s:\n", mgr.Dir())
		for i, b := range backups {
			fmt.Fprintf(w, "  %d. %s  %s  %d KB\n", i+1, b.Timestamp.In(ctx.Config.Location()).Format("2006-01-02 15:04:05"), b.Path, b.Size/1024)
		}
		return nil
	})
}

// BackupRestoreCmd restores the newest backup unless a path is given.
type BackupRestoreCmd struct {
	Path string `arg:"" optional:"" help:"Backup file to restore."`
	Yes  bool   `short:"y" help:"Skip confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	path := c.Path
	if path == "" {
		backups, err := mgr.List()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			return apperrors.New(apperrors.KindNotFound, "backup", "no backups found")
		}
		path = backups[0].Path
	}

	ok, err := ctx.Confirm(c.Yes, "Restore local store?", "Current local state is backed up, then replaced with "+path)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(ctx.Out, "Restore cancelled.")
		return nil
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close local store: %w", err)
	}
	previous, err := mgr.Restore(path)
	if err != nil {
		return err
	}
	if previous != "" {
		fmt.Fprintf(ctx.Out, "Backed up current state to: %s\n", previous)
	}
	fmt.Fprintf(ctx.Out, "✓ Restored local store from: %s\n", path)
	return ctx.Store.Load()
}

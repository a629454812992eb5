package system

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/julianstephens/goaltrack/internal/api"
	"github.com/julianstephens/goaltrack/internal/backup"
	"github.com/julianstephens/goaltrack/internal/cli"
	"github.com/julianstephens/goaltrack/internal/keyring"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/storage"
	"github.com/julianstephens/goaltrack/internal/validation"
)

// DoctorCmd runs health checks against the configuration, credentials, the
// goals service and the local store.
type DoctorCmd struct {
	Timeout time.Duration `help:"Time limit for each remote check." default:"10s"`
}

type checkStatus int

const (
	statusOK checkStatus = iota
	statusFail
	statusWarn
	statusSkip
)

type doctor struct {
	w        io.Writer
	hasError bool
}

func (d *doctor) report(name string, err error) bool {
	if err != nil {
		d.print(name, statusFail, err.Error())
		return false
	}
	d.print(name, statusOK, "")
	return true
}

func (d *doctor) print(name string, status checkStatus, detail string) {
	switch status {
	case statusOK:
		fmt.Fprintf(d.w, "✓ %s: OK\n", name)
	case statusFail:
		d.hasError = true
		fmt.Fprintf(d.w, "❌ %s: FAIL\n", name)
		fmt.Fprintf(d.w, "   Error: %s\n", detail)
	case statusWarn:
		fmt.Fprintf(d.w, "⚠ %s: WARNING\n", name)
		fmt.Fprintf(d.w, "   %s\n", detail)
	case statusSkip:
		fmt.Fprintf(d.w, "⊘ %s: SKIPPED (%s)\n", name, detail)
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	d := &doctor{w: ctx.Out}

	// Configuration was validated on load; report where it came from.
	if ctx.Config.File != "" {
		d.print("Configuration", statusOK, "")
	} else {
		d.print("Configuration", statusWarn, "no config file found, using defaults and environment")
	}
	d.report("Clock/timezone", checkClock(ctx))

	if keyring.IsAvailable() {
		d.print("Keyring available", statusOK, "")
	} else {
		d.print("Keyring available", statusWarn, "OS keyring unavailable, 'goaltrack login' will fail")
	}

	bg := context.Background()
	signedIn := d.report("Signed in", cmd.withTimeout(bg, func(c context.Context) error {
		_, err := ctx.UserID(c)
		return err
	}))
	reachable := d.report("Goals service reachable", cmd.withTimeout(bg, func(c context.Context) error {
		return checkPing(c, ctx)
	}))

	storeOK := d.report("Local store reachable", loadStore(ctx))
	if storeOK {
		if reporter, ok := ctx.Store.(storage.SchemaReporter); ok {
			d.report("Schema version", checkSchema(reporter))
		} else {
			d.print("Schema version", statusSkip, "store is not versioned")
		}
		checkBackups(d, ctx)
	} else {
		d.print("Schema version", statusSkip, "local store not reachable")
		d.print("Backups present", statusSkip, "local store not reachable")
	}

	if signedIn && reachable {
		d.report("Data validation", cmd.withTimeout(bg, func(c context.Context) error {
			return checkData(c, ctx)
		}))
	} else {
		d.print("Data validation", statusSkip, "not signed in or goals service not reachable")
	}

	fmt.Fprintln(ctx.Out)
	if d.hasError {
		fmt.Fprintln(ctx.Out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Fprintln(ctx.Out, "All diagnostics passed!")
	return nil
}

func (cmd *DoctorCmd) withTimeout(parent context.Context, fn func(context.Context) error) error {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return fn(c)
}

func checkClock(ctx *cli.Context) error {
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

// checkPing does not need a session; the root endpoint is unauthenticated.
func checkPing(c context.Context, ctx *cli.Context) error {
	client, err := api.New(ctx.Config.APIConfig(), nil)
	if err != nil {
		return err
	}
	return client.Ping(c)
}

func checkSchema(r storage.SchemaReporter) error {
	current, latest, err := r.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	switch {
	case current > latest:
		return fmt.Errorf("local store schema version (%d) is newer than supported version (%d)", current, latest)
	case current < latest:
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackups(d *doctor, ctx *cli.Context) {
	path := ctx.Store.GetConfigPath()
	if !isFile(path) {
		d.print("Backups present", statusSkip, "store is not a local file")
		return
	}
	backups, err := backup.NewManager(path).List()
	switch {
	case err != nil:
		d.print("Backups present", statusWarn, err.Error())
	case len(backups) == 0:
		d.print("Backups present", statusWarn, "no backups found, consider creating one with 'goaltrack backup create'")
	default:
		d.print("Backups present", statusOK, "")
	}
}

// checkData reports inconsistencies in the remote collections and the
// current month's completions.
func checkData(c context.Context, ctx *cli.Context) error {
	ov, err := ctx.LoadOverview(c)
	if err != nil {
		return err
	}
	entities, err := ctx.Entities(c)
	if err != nil {
		return err
	}
	completions, err := entities.Completions(c, models.MonthOf(ctx.Today()))
	if err != nil {
		return err
	}

	v := validation.New()
	goalsResult := v.ValidateGoals(ov.Goals, ov.Categories)
	completionsResult := v.ValidateCompletions(completions, ov.Goals)
	var reports []string
	for _, r := range []validation.ValidationResult{goalsResult, completionsResult} {
		if r.HasConflicts() {
			reports = append(reports, strings.TrimSpace(r.FormatReport()))
		}
	}
	if len(reports) > 0 {
		return errors.New(strings.Join(reports, "\n   "))
	}
	return nil
}

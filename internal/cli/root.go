package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/julianstephens/goaltrack/internal/api"
	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/cache"
	"github.com/julianstephens/goaltrack/internal/config"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/keyring"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/mutation"
	"github.com/julianstephens/goaltrack/internal/storage"
	"github.com/julianstephens/goaltrack/internal/utils"
)

// Context carries everything a command needs. Remote collaborators are built
// on first use so offline commands never touch the keyring or network.
type Context struct {
	Config *config.Config
	Store  storage.Provider
	Out    io.Writer
	Err    io.Writer
	Clock  utils.Clock
	Output Format

	// Progress shows a bar while a month is fetched one day at a time.
	Progress bool

	session auth.Session

	mu       sync.Mutex
	client   *api.Client
	entities *cache.Entities
	coord    *mutation.Coordinator
	bar      *progressbar.ProgressBar
}

// Option configures a Context.
type Option func(*Context)

// WithSession replaces the keyring-backed session.
func WithSession(s auth.Session) Option {
	return func(c *Context) { c.session = s }
}

// WithOutput redirects normal and diagnostic output.
func WithOutput(out, errOut io.Writer) Option {
	return func(c *Context) {
		c.Out = out
		c.Err = errOut
	}
}

// WithClock fixes "now".
func WithClock(clock utils.Clock) Option {
	return func(c *Context) { c.Clock = clock }
}

func NewContext(cfg *config.Config, store storage.Provider, opts ...Option) *Context {
	c := &Context{
		Config: cfg,
		Store:  store,
		Out:    os.Stdout,
		Err:    os.Stderr,
		Clock:  utils.SystemClock,
		Output: FormatText,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now is the current instant in the configured zone.
func (c *Context) Now() time.Time {
	return c.Clock().In(c.Config.Location())
}

// Today is midnight of the current day in the configured zone.
func (c *Context) Today() time.Time {
	return utils.Today(c.Clock, c.Config.Location())
}

// Session returns the signed-in session for the configured profile.
func (c *Context) Session(ctx context.Context) (auth.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionLocked(ctx)
}

func (c *Context) sessionLocked(ctx context.Context) (auth.Session, error) {
	if c.session != nil {
		return c.session, nil
	}

	profile := c.Config.Profile
	token, err := keyring.GetRefreshToken(profile)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, apperrors.New(apperrors.KindAuth, "session", "not signed in, run 'goaltrack login' first")
		}
		return nil, apperrors.Wrap(apperrors.KindAuth, "session", err)
	}
	if c.Config.AuthTokenURL == "" {
		return nil, apperrors.Newf(apperrors.KindValidation, "session", "%s is not configured", config.KeyAuthTokenURL)
	}

	c.session = auth.NewRefreshSession(ctx, auth.ProviderConfig{
		TokenURL:     c.Config.AuthTokenURL,
		ClientID:     c.Config.AuthClientID,
		ClientSecret: c.Config.AuthClientSecret,
		OnRotate: func(refresh string) error {
			return keyring.SetRefreshToken(profile, refresh)
		},
	}, token)
	return c.session, nil
}

// Client returns the goals API client.
func (c *Context) Client(ctx context.Context) (*api.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientLocked(ctx)
}

func (c *Context) clientLocked(ctx context.Context) (*api.Client, error) {
	if c.client != nil {
		return c.client, nil
	}
	session, err := c.sessionLocked(ctx)
	if err != nil {
		return nil, err
	}
	client, err := api.New(c.Config.APIConfig(), session)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

// Entities returns the Entity Cache shared by this invocation.
func (c *Context) Entities(ctx context.Context) (*cache.Entities, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entities != nil {
		return c.entities, nil
	}
	client, err := c.clientLocked(ctx)
	if err != nil {
		return nil, err
	}

	opts := []cache.EntitiesOption{
		cache.WithPerDayFallback(c.Config.PerDayFallback),
		cache.WithPerDayConcurrency(c.Config.PerDayConcurrency),
	}
	if c.Progress {
		opts = append(opts, cache.WithProgress(c.reportProgress))
	}
	c.entities = cache.NewEntities(cache.New(c.Config.CacheOptions()), client, opts...)
	return c.entities, nil
}

// Coordinator returns the mutation coordinator bound to the Entity Cache.
func (c *Context) Coordinator(ctx context.Context) (*mutation.Coordinator, error) {
	entities, err := c.Entities(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coord == nil {
		c.coord = mutation.NewCoordinator(entities.Store())
	}
	return c.coord, nil
}

func (c *Context) reportProgress(done, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bar == nil {
		c.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(c.Err),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetDescription("Fetching days"),
			progressbar.OptionClearOnFinish(),
		)
	}
	if err := c.bar.Set(done); err != nil {
		logger.Warn("Failed to update progress bar", "error", err)
	}
	if done >= total {
		_ = c.bar.Finish()
		c.bar = nil
	}
}

// State opens the local store, creating it on first use.
func (c *Context) State() (*storage.State, error) {
	if err := c.Store.Load(); err != nil {
		if !errors.Is(err, storage.ErrNotInitialized) {
			return nil, err
		}
		logger.Info("Creating local store", "path", c.Store.GetConfigPath())
		if err := c.Store.Init(); err != nil {
			return nil, err
		}
	}
	return storage.NewState(c.Store), nil
}

// UserID resolves the signed-in user's id.
func (c *Context) UserID(ctx context.Context) (string, error) {
	session, err := c.Session(ctx)
	if err != nil {
		return "", err
	}
	return session.UserID(ctx)
}

// ResolveMonth parses a YYYY-MM flag, defaulting to the current month.
func (c *Context) ResolveMonth(s string) (models.Month, error) {
	if s == "" {
		return models.MonthOf(c.Today()), nil
	}
	m, err := models.ParseMonth(s)
	if err != nil {
		return models.Month{}, apperrors.Wrap(apperrors.KindValidation, "month", err)
	}
	return m, nil
}

// ResolveDate parses a YYYY-MM-DD flag or "today"/"yesterday", defaulting to today.
func (c *Context) ResolveDate(s string) (time.Time, error) {
	today := c.Today()
	switch s {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	d, err := utils.ParseDateInLocation(s, today.Location())
	if err != nil {
		return time.Time{}, apperrors.Newf(apperrors.KindValidation, "date", "invalid date %q (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

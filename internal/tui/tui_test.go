package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/cli/clitest"
	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/models"
	"github.com/julianstephens/goaltrack/internal/tui/handlers"
	"github.com/julianstephens/goaltrack/internal/tui/tuitest"
)

type harness struct {
	t   *testing.T
	m   Model
	svc *clitest.Service
}

func newHarness(t *testing.T, svc *clitest.Service) *harness {
	t.Helper()
	env := clitest.NewEnv(t, svc, nil)
	m, err := FromContext(env.Context)
	require.NoError(t, err)
	m.NotificationTimeout = time.Hour
	return &harness{t: t, m: m, svc: svc}
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

func (h *harness) drain(cmd tea.Cmd) {
	h.t.Helper()
	tuitest.Drain(h.t, cmd, h.update)
}

// press sends a key and waits for everything it started.
func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.drain(h.update(tuitest.Key(k)))
	}
}

func (h *harness) start() {
	h.t.Helper()
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.drain(h.m.Init())
}

func TestInitialLoad(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.AddCompletion("h1", "2026-10-18")
	h := newHarness(t, svc)

	cmd := h.m.Init()
	assert.Contains(t, h.m.View(), "Loading goals")

	h.drain(cmd)
	view := h.m.View()
	assert.Contains(t, view, "Health")
	assert.Contains(t, view, "October 2026")
	assert.Contains(t, view, "[✓] Run")
	assert.Equal(t, "1", h.m.Selection.CategoryID, "the first category with goals is selected")
	assert.Equal(t, "2026-10-18", h.m.Selection.DateString())
}

func TestEmptyState(t *testing.T) {
	h := newHarness(t, clitest.NewService(t))
	h.start()

	assert.Contains(t, h.m.View(), "No goals with habits yet")
	assert.Empty(t, h.m.Selection.CategoryID)
}

func TestNewCustomerSeesEmptyState(t *testing.T) {
	svc := clitest.NewService(t)
	svc.Unknown = true
	h := newHarness(t, svc)
	h.start()

	view := h.m.View()
	assert.Contains(t, view, "No goals with habits yet")
	assert.NotContains(t, view, "Could not load")
}

func TestLoadErrorAndRetry(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.Fail["GET /me/goals"] = true
	h := newHarness(t, svc)
	h.start()

	view := h.m.View()
	assert.Contains(t, view, "Could not load goals")
	assert.Contains(t, view, "Press r to retry")

	h.press("r")
	assert.Contains(t, h.m.View(), "Run")
}

func TestToggleIsOptimistic(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	h := newHarness(t, svc)
	h.start()

	cmd := h.update(tuitest.Key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, h.m.MonthCompletions().Completed(18, "h1"), "shown as done before the service answers")
	assert.True(t, h.m.Toggler.IsPending("2026-10-18", "h1"))

	assert.Nil(t, h.update(tuitest.Key("enter")), "a pending row ignores further toggles")

	h.drain(cmd)
	assert.Equal(t, 1, svc.CompletionCount())
	assert.False(t, h.m.Toggler.IsPending("2026-10-18", "h1"))
	assert.True(t, h.m.MonthCompletions().Completed(18, "h1"))

	h.press("enter")
	assert.Zero(t, svc.CompletionCount())
	assert.False(t, h.m.MonthCompletions().Completed(18, "h1"))
}

func TestToggleFailureRollsBack(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.Fail["POST /me/habits"] = true
	h := newHarness(t, svc)
	h.start()

	h.press("enter")
	assert.Zero(t, svc.CompletionCount())
	assert.False(t, h.m.MonthCompletions().Completed(18, "h1"))
	require.NotNil(t, h.m.Notification)
	assert.True(t, h.m.Notification.Error)
	assert.Contains(t, h.m.Notification.Message, "Could not update Run")

	h.press("esc")
	assert.Nil(t, h.m.Notification)

	h.press("enter")
	assert.Equal(t, 1, svc.CompletionCount(), "the action can be retried")
}

func TestUnmarkPastDay(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.AddCompletion("h1", "2026-10-10")
	h := newHarness(t, svc)
	h.start()

	for range 8 {
		h.press("left")
	}
	require.Equal(t, "2026-10-10", h.m.Selection.DateString())
	h.press("enter")
	assert.Zero(t, svc.CompletionCount(), "the calendar may remove completions on any past day")
}

func TestFutureDaysCannotBeSelected(t *testing.T) {
	h := newHarness(t, clitest.NewService(t).Seed())
	h.start()

	h.press("right")
	assert.Equal(t, "2026-10-18", h.m.Selection.DateString())

	h.press("left")
	assert.Equal(t, "2026-10-17", h.m.Selection.DateString())
}

func TestMonthNavigationFetchesCompletions(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.AddCompletion("h1", "2026-09-30")
	h := newHarness(t, svc)
	h.start()
	before := svc.Count("GET /me/completions")

	h.press("[")
	assert.Equal(t, models.Month{Year: 2026, Month: time.September}, h.m.Selection.Month)
	assert.Equal(t, "2026-09-01", h.m.Selection.DateString())
	assert.Equal(t, before+1, svc.Count("GET /me/completions"))
	assert.True(t, h.m.MonthCompletions().Completed(30, "h1"))

	h.press("t")
	assert.Equal(t, "2026-10-18", h.m.Selection.DateString())
	assert.Equal(t, before+1, svc.Count("GET /me/completions"), "October is still cached")
}

func TestStaleCompletionsAreIgnored(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.AddCompletion("h1", "2026-09-30")
	h := newHarness(t, svc)
	h.start()

	sep := models.Month{Year: 2026, Month: time.September}
	oct := models.Month{Year: 2026, Month: time.October}
	older := handlers.FetchCompletions(&h.m.Model, sep)
	newer := handlers.FetchCompletions(&h.m.Model, oct)

	h.update(newer())
	h.update(older())
	assert.Equal(t, oct, h.m.CompletionsMonth, "a superseded request does not overwrite newer data")
	assert.False(t, h.m.Load(constants.ViewCompletions).Loading)
}

func TestTabsAndViews(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.AddCompletion("h1", "2026-10-17")
	h := newHarness(t, svc)
	h.start()

	h.press("tab")
	assert.Equal(t, constants.StateGoals, h.m.State)
	assert.Contains(t, h.m.View(), "Get fit")

	h.press("tab")
	assert.Equal(t, constants.StateStats, h.m.State)
	view := h.m.View()
	assert.Contains(t, view, "Completion rate")
	assert.Contains(t, view, "Run")

	h.press("shift+tab", "shift+tab")
	assert.Equal(t, constants.StateCalendar, h.m.State)
}

func TestCategoryTabs(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	work := "2"
	svc.Categories = append(svc.Categories, clitest.Category{ID: "2", Name: "Work"})
	svc.Goals = append(svc.Goals, clitest.Goal{ID: "g2", Description: "Ship it", CategoryID: &work, Habits: []clitest.Habit{{ID: "h2", Title: "Write code"}}})
	h := newHarness(t, svc)
	h.start()

	h.press(".")
	assert.Equal(t, "2", h.m.Selection.CategoryID)
	assert.Contains(t, h.m.View(), "Write code")

	h.press(".")
	assert.Equal(t, "1", h.m.Selection.CategoryID, "category tabs wrap around")
}

func TestQuizAlreadyCompleted(t *testing.T) {
	svc := clitest.NewService(t).Seed()
	svc.Quiz = &models.QuizResponse{Age: 30, CurrentQuestion: 5}
	h := newHarness(t, svc)
	h.start()

	h.press("p")
	assert.Equal(t, constants.StateCalendar, h.m.State)
	require.NotNil(t, h.m.Notification)
	assert.Contains(t, h.m.Notification.Message, "already completed")
	assert.True(t, h.m.QuizDone)
}

func TestQuizOpensForm(t *testing.T) {
	h := newHarness(t, clitest.NewService(t).Seed())
	h.start()

	h.press("p")
	assert.Equal(t, constants.StateQuiz, h.m.State)
	require.NotNil(t, h.m.Form)
	assert.Contains(t, h.m.View(), "How old are you?")

	h.press("esc")
	assert.Equal(t, constants.StateCalendar, h.m.State)
}

type claims struct{ verified bool }

func (c claims) Claims(context.Context) (*auth.Claims, error) {
	return &auth.Claims{UserID: clitest.UserID, EmailVerified: c.verified}, nil
}

func TestEmailPromptDismissal(t *testing.T) {
	h := newHarness(t, clitest.NewService(t).Seed())
	h.m.Claims = claims{verified: false}
	h.start()

	assert.True(t, h.m.ShowEmailPrompt)
	assert.Contains(t, h.m.View(), "verify your email")

	h.press("v")
	assert.False(t, h.m.ShowEmailPrompt)
	dismissed, err := h.m.LocalState.EmailVerificationDismissed(clitest.UserID)
	require.NoError(t, err)
	assert.True(t, dismissed)

	h.drain(handlers.CheckEmail(&h.m.Model))
	assert.False(t, h.m.ShowEmailPrompt, "the dismissal is remembered")
}

func TestVerifiedEmailHasNoPrompt(t *testing.T) {
	h := newHarness(t, clitest.NewService(t).Seed())
	h.m.Claims = claims{verified: true}
	h.start()

	assert.False(t, h.m.ShowEmailPrompt)
}

func TestNotificationExpiry(t *testing.T) {
	h := newHarness(t, clitest.NewService(t).Seed())
	h.start()

	handlers.Notify(&h.m.Model, "first")
	first := h.m.Notification.ID
	handlers.Notify(&h.m.Model, "second")

	h.update(handlers.NotificationExpiredMsg{ID: first})
	require.NotNil(t, h.m.Notification, "an older timer does not clear a newer message")
	assert.Equal(t, "second", h.m.Notification.Message)

	h.update(handlers.NotificationExpiredMsg{ID: h.m.Notification.ID})
	assert.Nil(t, h.m.Notification)
}

func TestQuit(t *testing.T) {
	h := newHarness(t, clitest.NewService(t).Seed())
	h.start()

	cmd := h.update(tuitest.Key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, h.m.Quitting)
	assert.Empty(t, h.m.View())
}

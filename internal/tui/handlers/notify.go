package handlers

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/tui/state"
)

type NotificationExpiredMsg struct {
	ID int
}

// EmailStatusMsg reports whether the email verification prompt applies.
type EmailStatusMsg struct {
	Unverified bool
	Dismissed  bool
	Err        error
}

type EmailDismissedMsg struct {
	Err error
}

// Notify shows an informational message that clears itself.
func Notify(m *state.Model, text string) tea.Cmd {
	id := show(m, text, false)
	return tea.Tick(m.NotificationTimeout, func(time.Time) tea.Msg {
		return NotificationExpiredMsg{ID: id}
	})
}

// NotifyError shows err until it is dismissed or replaced.
func NotifyError(m *state.Model, prefix string, err error) tea.Cmd {
	text := apperrors.UserMessage(err)
	if prefix != "" {
		text = prefix + ": " + text
	}
	show(m, text, true)
	return nil
}

func show(m *state.Model, text string, isErr bool) int {
	m.NotificationSeq++
	m.Notification = &state.Notification{ID: m.NotificationSeq, Message: text, Error: isErr}
	return m.NotificationSeq
}

// CheckEmail looks up whether the signed-in user still has to verify their
// email and whether they hid the reminder before.
func CheckEmail(m *state.Model) tea.Cmd {
	if m.Claims == nil || m.LocalState == nil || m.UserID == "" {
		return nil
	}
	claims, local, uid := m.Claims, m.LocalState, m.UserID
	return func() tea.Msg {
		c, err := claims.Claims(context.Background())
		if err != nil {
			return EmailStatusMsg{Err: err}
		}
		if c.EmailVerified {
			return EmailStatusMsg{}
		}
		dismissed, err := local.EmailVerificationDismissed(uid)
		return EmailStatusMsg{Unverified: true, Dismissed: dismissed, Err: err}
	}
}

// DismissEmailPrompt hides the reminder and remembers that for this user.
func DismissEmailPrompt(m *state.Model) tea.Cmd {
	if !m.ShowEmailPrompt {
		return nil
	}
	m.ShowEmailPrompt = false
	local, uid := m.LocalState, m.UserID
	return func() tea.Msg {
		return EmailDismissedMsg{Err: local.DismissEmailVerification(uid)}
	}
}

// HandleNotificationMessages applies notification and email prompt updates.
func HandleNotificationMessages(m *state.Model, msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case NotificationExpiredMsg:
		if m.Notification != nil && m.Notification.ID == msg.ID {
			m.Notification = nil
		}
		return true, nil

	case EmailStatusMsg:
		if msg.Err != nil {
			logger.Warn("Failed to check email verification", "error", msg.Err)
		}
		m.ShowEmailPrompt = msg.Unverified && !msg.Dismissed
		return true, nil

	case EmailDismissedMsg:
		if msg.Err != nil {
			return true, NotifyError(m, "Could not save preference", msg.Err)
		}
		return true, nil
	}
	return false, nil
}

// Package tuitest runs bubbletea commands synchronously for model tests.
package tuitest

import (
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Wait bounds how long a wave of commands may run. Timers that outlive it
// (notification expiry, cursor blink) are dropped.
var Wait = 300 * time.Millisecond

// Key builds a key press from its string form: "enter", "esc", "tab",
// "shift+tab", "left", "right", "up", "down" or runes such as "n".
func Key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// Drain runs cmd, hands every message to update and keeps going with the
// commands update returns until none are left. Spinner ticks are skipped
// so the loop ends.
func Drain(t *testing.T, cmd tea.Cmd, update func(tea.Msg) tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		msgs := Run(queue...)
		queue = nil
		for _, msg := range msgs {
			if _, ok := msg.(spinner.TickMsg); ok {
				continue
			}
			if next := update(msg); next != nil {
				queue = append(queue, next)
			}
		}
	}
}

// Run executes cmds concurrently, expanding batches, and returns the
// messages produced within Wait.
func Run(cmds ...tea.Cmd) []tea.Msg {
	results := make(chan tea.Msg, 256)
	var wg sync.WaitGroup

	var launch func(c tea.Cmd)
	launch = func(c tea.Cmd) {
		if c == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, bc := range batch {
					launch(bc)
				}
				return
			}
			if msg != nil {
				results <- msg
			}
		}()
	}
	for _, c := range cmds {
		launch(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var msgs []tea.Msg
	timeout := time.After(Wait)
	for {
		select {
		case msg := <-results:
			msgs = append(msgs, msg)
		case <-done:
			for {
				select {
				case msg := <-results:
					msgs = append(msgs, msg)
				default:
					return msgs
				}
			}
		case <-timeout:
			return msgs
		}
	}
}

package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/goaltrack/internal/constants"
	"github.com/julianstephens/goaltrack/internal/derive"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/models"
)

// UserPrefix is the namespace holding every key that belongs to userID.
func UserPrefix(userID string) string {
	return constants.LocalKeyPrefix + userID + ":"
}

// FlagKey names a per-user boolean flag.
func FlagKey(userID, name string) string {
	return UserPrefix(userID) + name
}

// MonthKey names the completion snapshot for one user and month.
func MonthKey(userID string, month models.Month) string {
	return UserPrefix(userID) + constants.LocalMonthCompletionsPrefix + month.String()
}

// LastUserKey remembers who was signed in most recently, for offline reads.
const LastUserKey = constants.LocalKeyPrefix + "last-user"

// MonthSnapshot is a month's completion map as last fetched from the remote.
// Days maps day-of-month to the ids of habits completed that day.
type MonthSnapshot struct {
	Month string           `json:"month"`
	Days  map[int][]string `json:"days"`
	// Habits maps habit id to title at the time of the fetch.
	Habits  map[string]string `json:"habits,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// NewMonthSnapshot flattens byDate for month into a snapshot.
func NewMonthSnapshot(month models.Month, byDate derive.DayCompletions, savedAt time.Time) MonthSnapshot {
	snap := MonthSnapshot{Month: month.String(), Days: make(map[int][]string), SavedAt: savedAt}
	for day, habits := range byDate {
		if day < 1 || day > month.Days() {
			continue
		}
		ids := make([]string, 0, len(habits))
		for id, done := range habits {
			if done {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		sort.Strings(ids)
		snap.Days[day] = ids
	}
	return snap
}

// WithHabits records the titles of the habits in scope.
func (s MonthSnapshot) WithHabits(habits []models.Habit) MonthSnapshot {
	s.Habits = make(map[string]string, len(habits))
	for _, h := range habits {
		s.Habits[h.ID] = h.Title
	}
	return s
}

// DayCompletions rebuilds the lookup structure the calculators consume.
func (s MonthSnapshot) DayCompletions() derive.DayCompletions {
	out := make(derive.DayCompletions, len(s.Days))
	for day, ids := range s.Days {
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		out[day] = set
	}
	return out
}

// State layers typed per-user values over a Provider.
type State struct {
	p Provider
}

// NewState wraps p.
func NewState(p Provider) *State {
	return &State{p: p}
}

func requireUser(op, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.Validation(op, "local state needs a signed-in user")
	}
	return nil
}

// Flag reads a per-user flag. Unset flags are false.
func (s *State) Flag(userID, name string) (bool, error) {
	if err := requireUser("flag", userID); err != nil {
		return false, err
	}
	v, ok, err := s.p.Get(FlagKey(userID, name))
	if err != nil {
		return false, fmt.Errorf("failed to read flag %s: %w", name, err)
	}
	return ok && v == "true", nil
}

// SetFlag stores a per-user flag.
func (s *State) SetFlag(userID, name string, value bool) error {
	if err := requireUser("flag", userID); err != nil {
		return err
	}
	if err := s.p.Put(FlagKey(userID, name), fmt.Sprintf("%t", value)); err != nil {
		return fmt.Errorf("failed to write flag %s: %w", name, err)
	}
	return nil
}

// EmailVerificationDismissed reports whether userID hid the verification prompt.
func (s *State) EmailVerificationDismissed(userID string) (bool, error) {
	return s.Flag(userID, constants.FlagEmailVerificationDismissed)
}

// DismissEmailVerification hides the verification prompt for userID.
func (s *State) DismissEmailVerification(userID string) error {
	return s.SetFlag(userID, constants.FlagEmailVerificationDismissed, true)
}

// SaveMonth stores snap for userID, replacing any earlier snapshot of that month.
func (s *State) SaveMonth(userID string, snap MonthSnapshot) error {
	if err := requireUser("snapshot", userID); err != nil {
		return err
	}
	month, err := models.ParseMonth(snap.Month)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "snapshot", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode month snapshot: %w", err)
	}
	if err := s.p.Put(MonthKey(userID, month), string(data)); err != nil {
		return fmt.Errorf("failed to write month snapshot: %w", err)
	}
	return nil
}

// LoadMonth returns the stored snapshot for month, if any.
func (s *State) LoadMonth(userID string, month models.Month) (MonthSnapshot, bool, error) {
	if err := requireUser("snapshot", userID); err != nil {
		return MonthSnapshot{}, false, err
	}
	raw, ok, err := s.p.Get(MonthKey(userID, month))
	if err != nil {
		return MonthSnapshot{}, false, fmt.Errorf("failed to read month snapshot: %w", err)
	}
	if !ok {
		return MonthSnapshot{}, false, nil
	}
	var snap MonthSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return MonthSnapshot{}, false, fmt.Errorf("corrupt month snapshot for %s: %w", month, err)
	}
	return snap, true, nil
}

// SnapshotMonths lists the months with a stored snapshot for userID, oldest first.
func (s *State) SnapshotMonths(userID string) ([]string, error) {
	if err := requireUser("snapshot", userID); err != nil {
		return nil, err
	}
	prefix := UserPrefix(userID) + constants.LocalMonthCompletionsPrefix
	keys, err := s.p.Keys(prefix)
	if err != nil {
		return nil, err
	}
	months := make([]string, 0, len(keys))
	for _, k := range keys {
		months = append(months, strings.TrimPrefix(k, prefix))
	}
	sort.Strings(months)
	return months, nil
}

// RememberUser records userID as the most recent signed-in user.
func (s *State) RememberUser(userID string) error {
	if err := requireUser("remember user", userID); err != nil {
		return err
	}
	return s.p.Put(LastUserKey, userID)
}

// LastUser returns the most recent signed-in user, if any.
func (s *State) LastUser() (string, bool, error) {
	return s.p.Get(LastUserKey)
}

// Forget removes everything stored for userID.
func (s *State) Forget(userID string) (int, error) {
	if err := requireUser("forget", userID); err != nil {
		return 0, err
	}
	n, err := s.p.DeletePrefix(UserPrefix(userID))
	if err != nil {
		return n, err
	}
	if last, ok, err := s.p.Get(LastUserKey); err == nil && ok && last == userID {
		if err := s.p.Delete(LastUserKey); err != nil {
			return n, err
		}
	}
	return n, nil
}

package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

// ViewID identifies a TUI view that owns in-flight requests
type ViewID string

const (
	AppName            = "goaltrack"
	DefaultKeyringUser = "refresh-token"
	DefaultConfigDir   = "~/.config/goaltrack"
	DefaultConfigPath  = "~/.config/goaltrack/config.yaml"
	DefaultStorePath   = "~/.config/goaltrack/goaltrack.db"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat identifies a calendar month (YYYY-MM)
	MonthFormat = "2006-01"

	// LocalKeyPrefix namespaces every key in the local state store
	LocalKeyPrefix = "goaltrack:"

	// Local state flag names
	FlagEmailVerificationDismissed = "email-verification-dismissed"
	LocalMonthCompletionsPrefix    = "month-completions:"

	// Cache freshness windows. Completions have no window and are only
	// refetched after an explicit invalidation.
	CategoriesFreshness = 5 * time.Minute
	GoalsFreshness      = 5 * time.Minute

	// Remote call defaults
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultReadAttempts   = 3
	DefaultRetryDelay     = 100 * time.Millisecond
	DefaultRetryMaxDelay  = 2 * time.Second
	DefaultAPIBaseURL     = "http://localhost:8000"
	DefaultUnmarkPolicy   = "today"
	NotificationTimeout   = 6 * time.Second
	BearerTokenHeader     = "Authorization"
	BearerTokenPrefix     = "Bearer "
	JSONContentType       = "application/json"
	HabitSuggestionsLimit = 8
)

// Session States
const (
	StateCalendar SessionState = iota
	StateGoals
	StateStats
	StateAddCategory
	StateRenameCategory
	StateAddGoal
	StateMoveGoal
	StateQuiz
	StateConfirmDeleteCategory
	StateConfirmDeleteGoal
)

// Views that own requests
const (
	ViewCategories  ViewID = "categories"
	ViewGoals       ViewID = "goals"
	ViewCompletions ViewID = "completions"
	ViewQuiz        ViewID = "quiz"
)

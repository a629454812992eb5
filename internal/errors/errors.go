package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/goaltrack/internal/logger"
)

// Kind classifies failures so callers can decide how to present them.
type Kind int

const (
	// KindConflictOrUnknown is any non-ok response that fits no other kind.
	KindConflictOrUnknown Kind = iota
	// KindNotFound is a 404 from the remote. Often a legitimate absence.
	KindNotFound
	// KindValidation is a client-side precondition that failed before any network call.
	KindValidation
	// KindAuth is a missing session or a rejected/expired token.
	KindAuth
	// KindNetwork is an unreachable remote or a server-side failure.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	default:
		return "conflict_or_unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error. A nil err returns nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation is shorthand for a KindValidation error.
func Validation(op, message string) *Error {
	return New(KindValidation, op, message)
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are reported as KindConflictOrUnknown.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindConflictOrUnknown
}

// Is reports whether err is classified with kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	var e *Error
	return stderrors.As(err, &e) && e.Kind == kind
}

// UserMessage returns a human-readable description suited to inline error states.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !stderrors.As(err, &e) {
		return fmt.Sprintf("Something went wrong: %v", err)
	}
	switch e.Kind {
	case KindValidation:
		if e.Message != "" {
			return e.Message
		}
		return "The input is not valid."
	case KindNotFound:
		if e.Message != "" {
			return e.Message
		}
		return "The requested item no longer exists."
	case KindAuth:
		return "You are not signed in or your session expired. Run 'goaltrack login'."
	case KindNetwork:
		return "The goals service could not be reached. Try again in a moment."
	default:
		if e.Message != "" {
			return fmt.Sprintf("The goals service rejected the request: %s", e.Message)
		}
		return "The goals service rejected the request."
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %s", UserMessage(err))
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err, "kind", KindOf(err))
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

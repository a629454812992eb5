package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := New(KindNotFound, "get category", "category not found")
	wrapped := fmt.Errorf("loading: %w", base)

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"direct", base, KindNotFound},
		{"wrapped", wrapped, KindNotFound},
		{"unclassified", stderrors.New("boom"), KindConflictOrUnknown},
		{"network", Wrap(KindNetwork, "list goals", stderrors.New("dial tcp")), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := Validation("create category", "name cannot be empty")
	if !Is(err, KindValidation) {
		t.Error("expected validation kind")
	}
	if Is(err, KindNetwork) {
		t.Error("did not expect network kind")
	}
	if Is(nil, KindValidation) {
		t.Error("nil should not match any kind")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindNetwork, "op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(KindNetwork, "list categories", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable with errors.Is")
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindConflictOrUnknown, Op: "rename category", Message: "status 409", Err: stderrors.New("duplicate")}
	if got := err.Error(); got != "rename category: status 409: duplicate" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUserMessageIsDistinctPerKind(t *testing.T) {
	kinds := []Kind{KindNotFound, KindValidation, KindAuth, KindNetwork, KindConflictOrUnknown}
	seen := make(map[string]Kind)
	for _, k := range kinds {
		msg := UserMessage(&Error{Kind: k})
		if msg == "" {
			t.Errorf("empty message for %v", k)
		}
		if prev, ok := seen[msg]; ok {
			t.Errorf("kinds %v and %v share message %q", prev, k, msg)
		}
		seen[msg] = k
	}
}

func TestFormat(t *testing.T) {
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}
	got := Format(Validation("op", "date is in the future"))
	if !strings.HasPrefix(got, "Error: ") || !strings.Contains(got, "date is in the future") {
		t.Errorf("Format() = %q", got)
	}
}

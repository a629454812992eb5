package cache

import (
	"github.com/julianstephens/goaltrack/internal/models"
)

// Kind is an entity collection type.
type Kind string

const (
	KindCategories  Kind = "categories"
	KindGoals       Kind = "goals"
	KindCompletions Kind = "completions"
)

// Key identifies one cached collection.
type Key struct {
	Kind  Kind
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Param
}

// CategoriesKey is the customer's category collection.
func CategoriesKey() Key { return Key{Kind: KindCategories} }

// GoalsKey is the customer's goal collection.
func GoalsKey() Key { return Key{Kind: KindGoals} }

// CompletionsKey is one month of habit completions.
func CompletionsKey(m models.Month) Key {
	return Key{Kind: KindCompletions, Param: m.String()}
}

// Pattern selects keys for invalidation. An empty Kind matches every key; an
// empty Param matches every key of Kind.
type Pattern struct {
	Kind  Kind
	Param string
}

// Matches reports whether k is selected by p.
func (p Pattern) Matches(k Key) bool {
	if p.Kind == "" {
		return true
	}
	if p.Kind != k.Kind {
		return false
	}
	return p.Param == "" || p.Param == k.Param
}

func (p Pattern) String() string {
	switch {
	case p.Kind == "":
		return "*"
	case p.Param == "":
		return string(p.Kind) + ":*"
	default:
		return string(p.Kind) + ":" + p.Param
	}
}

// Exact matches only k.
func Exact(k Key) Pattern { return Pattern{Kind: k.Kind, Param: k.Param} }

// AllOf matches every key of kind.
func AllOf(kind Kind) Pattern { return Pattern{Kind: kind} }

// Everything matches every key.
func Everything() Pattern { return Pattern{} }

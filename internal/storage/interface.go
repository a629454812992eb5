package storage

import "errors"

// ErrNotInitialized is returned by Load when the backing store has never
// been created.
var ErrNotInitialized = errors.New("local store not initialized, run 'goaltrack init' first")

// Provider is a namespaced key/value store for client-only state that must
// survive restarts.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Values
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
	Delete(key string) error
	DeletePrefix(prefix string) (int, error)
	Keys(prefix string) ([]string, error)

	// Utils
	GetConfigPath() string
}

// SchemaReporter is implemented by stores whose layout is versioned by
// migrations.
type SchemaReporter interface {
	SchemaVersion() (current, latest int, err error)
}

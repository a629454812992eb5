package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/migration"
	"github.com/julianstephens/goaltrack/internal/storage"
	"github.com/julianstephens/goaltrack/migrations"
)

// Store keeps local state in a single SQLite file.
type Store struct {
	path string
	db   *sql.DB
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; the file is per user.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return fmt.Errorf("failed to configure database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return storage.ErrNotInitialized
	}
	if err := s.open(); err != nil {
		return err
	}

	runner, err := s.runner()
	if err != nil {
		return err
	}
	if err := runner.ValidateVersion(); err != nil {
		return err
	}
	// Pick up migrations added since the file was created.
	if _, err := runner.Apply(migrationLog); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub, migration.SQLite), nil
}

func (s *Store) runMigrations() error {
	runner, err := s.runner()
	if err != nil {
		return err
	}
	_, err = runner.Apply(migrationLog)
	return err
}

func migrationLog(msg string) {
	logger.Info(msg, "store", "sqlite")
}

func (s *Store) checkLoaded() error {
	if s.db == nil {
		return fmt.Errorf("local store not loaded")
	}
	return nil
}

func (s *Store) Get(key string) (string, bool, error) {
	if err := s.checkLoaded(); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRow("SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Put(key, value string) error {
	if err := s.checkLoaded(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) Delete(key string) error {
	if err := s.checkLoaded(); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM local_state WHERE key = ?", key)
	return err
}

func (s *Store) DeletePrefix(prefix string) (int, error) {
	if err := s.checkLoaded(); err != nil {
		return 0, err
	}
	res, err := s.db.Exec("DELETE FROM local_state WHERE substr(key, 1, length(?)) = ?", prefix, prefix)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) Keys(prefix string) ([]string, error) {
	if err := s.checkLoaded(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query("SELECT key FROM local_state WHERE substr(key, 1, length(?)) = ? ORDER BY key", prefix, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetConfigPath returns the database file path.
//
// Running several goaltrack processes against one file is safe for reads;
// concurrent writers wait on SQLite's busy timeout.
func (s *Store) GetConfigPath() string {
	return s.path
}

// SchemaVersion reports the applied and the newest known migration.
func (s *Store) SchemaVersion() (int, int, error) {
	if err := s.checkLoaded(); err != nil {
		return 0, 0, err
	}
	r, err := s.runner()
	if err != nil {
		return 0, 0, err
	}
	current, err := r.CurrentVersion()
	if err != nil {
		return 0, 0, err
	}
	latest, err := r.LatestVersion()
	if err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

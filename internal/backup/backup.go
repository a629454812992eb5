// Package backup keeps point-in-time copies of the SQLite local state store.
package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/goaltrack/internal/logger"
	"github.com/julianstephens/goaltrack/internal/utils"
)

const (
	// MaxBackups is how many copies survive rotation.
	MaxBackups = 7
	// DirName is created next to the store file.
	DirName     = "backups"
	filePrefix  = "goaltrack-"
	fileSuffix  = ".db"
	stampLayout = "20060102-150405"
)

// Info describes one backup file.
type Info struct {
	Path      string    `json:"path" yaml:"path"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Size      int64     `json:"size" yaml:"size"`
}

// Manager creates, lists and restores backups of a single store file.
type Manager struct {
	dbPath string
	dir    string
	clock  utils.Clock
}

func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), DirName),
		clock:  utils.SystemClock,
	}
}

// WithClock replaces the clock used to stamp new backups.
func (m *Manager) WithClock(clock utils.Clock) *Manager {
	m.clock = clock
	return m
}

func (m *Manager) Dir() string {
	return m.dir
}

// Create copies the store into the backup directory and rotates old copies.
func (m *Manager) Create() (string, error) {
	return m.create(true)
}

func (m *Manager) create(rotate bool) (string, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return "", fmt.Errorf("local store does not exist: %s", m.dbPath)
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := m.nextPath()
	if err != nil {
		return "", err
	}
	if err := m.copyDatabase(path); err != nil {
		return "", fmt.Errorf("failed to back up local store: %w", err)
	}

	if rotate {
		if err := m.rotate(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	return path, nil
}

func (m *Manager) nextPath() (string, error) {
	stamp := m.clock().UTC().Format(stampLayout)
	path := filepath.Join(m.dir, filePrefix+stamp+fileSuffix)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", filePrefix, stamp, n, fileSuffix))
	}
}

func (m *Manager) copyDatabase(dest string) error {
	src, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer src.Close()

	if err := verify(src); err != nil {
		return fmt.Errorf("local store appears to be corrupted: %w", err)
	}
	if _, err := src.Exec("VACUUM INTO ?", dest); err != nil {
		src.Close()
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns the backups, newest first. Files whose names do not carry a
// timestamp are ignored.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		if len(stamp) > len(stampLayout) {
			stamp = stamp[:len(stampLayout)]
		}
		ts, err := time.Parse(stampLayout, stamp)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{Path: filepath.Join(m.dir, name), Timestamp: ts, Size: info.Size()})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the store with a backup. The current store, when present,
// is backed up first without rotation. The store must be closed.
func (m *Manager) Restore(path string) (string, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("backup file is invalid: %w", err)
	}
	err = verify(db)
	db.Close()
	if err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.dbPath); err == nil {
		if previous, err = m.create(false); err != nil {
			return "", fmt.Errorf("failed to back up current store before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tmp); err != nil {
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to restore local store: %w", err)
	}
	return previous, nil
}

func verify(db *sql.DB) error {
	var n int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}

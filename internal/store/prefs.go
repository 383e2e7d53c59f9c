package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Preference keys stored in the local cache.
const (
	prefDarkMode     = "dark_mode"
	prefLastIdentity = "last_identity"
)

// PrefsCache is a local SQLite cache for preferences that must survive
// offline or unauthenticated startup. The remote document remains the
// source of truth; the cache is overwritten once a snapshot arrives.
type PrefsCache struct {
	db *sqlx.DB
}

// NewPrefsCache opens (or creates) a SQLite database at dbPath, enables
// WAL mode, and runs any pending schema migrations.
func NewPrefsCache(dbPath string) (*PrefsCache, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &PrefsCache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return c, nil
}

// Close closes the underlying database connection.
func (c *PrefsCache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *PrefsCache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// DarkMode returns the cached theme preference. The second return value
// reports whether a value has ever been stored.
func (c *PrefsCache) DarkMode() (bool, bool, error) {
	value, found, err := c.get(prefDarkMode)
	if err != nil || !found {
		return false, false, err
	}

	dark, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("parsing cached dark_mode %q: %w", value, err)
	}
	return dark, true, nil
}

// SetDarkMode stores the theme preference.
func (c *PrefsCache) SetDarkMode(dark bool) error {
	return c.set(prefDarkMode, strconv.FormatBool(dark))
}

// LastIdentity returns the most recent anonymous user ID seen on this
// machine, or empty if none was recorded.
func (c *PrefsCache) LastIdentity() (string, error) {
	value, _, err := c.get(prefLastIdentity)
	return value, err
}

// SetLastIdentity records the active anonymous user ID.
func (c *PrefsCache) SetLastIdentity(userID string) error {
	return c.set(prefLastIdentity, userID)
}

// get reads a single preference row.
func (c *PrefsCache) get(key string) (string, bool, error) {
	var value string
	err := c.db.Get(&value, "SELECT value FROM preferences WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %q: %w", key, err)
	}
	return value, true, nil
}

// set upserts a single preference row.
func (c *PrefsCache) set(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing preference %q: %w", key, err)
	}
	return nil
}

// Package hashindex persists file content hashes in SQLite so the daemon does
// not re-hash unchanged files after a restart.
package hashindex

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const schemaVersion = "1"

// Index implements inventory.HashCache on a SQLite database.
type Index struct {
	db     *sql.DB
	dbPath string
	logger *logrus.Entry
}

// Open opens or creates the index at dbPath.
func Open(dbPath string, logger *logrus.Entry) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS file_hashes (
			path TEXT PRIMARY KEY,
			size INTEGER NOT NULL,
			mtime INTEGER NOT NULL,
			hash TEXT NOT NULL,
			indexed_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	idx := &Index{db: db, dbPath: dbPath, logger: logger}
	if idx.logger == nil {
		idx.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := idx.checkVersion(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// checkVersion drops cached hashes written by an incompatible schema.
func (idx *Index) checkVersion() error {
	var version string
	err := idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}

	if version != "" {
		idx.logger.WithField("version", version).Info("Hash index schema changed, clearing")
		if _, err := idx.db.Exec("DELETE FROM file_hashes"); err != nil {
			return fmt.Errorf("failed to clear hash index: %w", err)
		}
	}
	_, err = idx.db.Exec(
		"INSERT INTO meta (key, value) VALUES ('schema_version', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		schemaVersion,
	)
	return err
}

// Lookup returns the cached hash if path was indexed with the same size and
// modification time.
func (idx *Index) Lookup(path string, size int64, modTime time.Time) (string, bool) {
	var hash string
	err := idx.db.QueryRow(
		"SELECT hash FROM file_hashes WHERE path = ? AND size = ? AND mtime = ?",
		path, size, modTime.UnixNano(),
	).Scan(&hash)
	if err != nil {
		if err != sql.ErrNoRows {
			idx.logger.WithError(err).WithField("path", path).Debug("Hash lookup failed")
		}
		return "", false
	}
	return hash, true
}

// Store records hash for path at the given size and modification time.
func (idx *Index) Store(path string, size int64, modTime time.Time, hash string) error {
	_, err := idx.db.Exec(`
		INSERT INTO file_hashes (path, size, mtime, hash, indexed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			hash = excluded.hash,
			indexed_at = excluded.indexed_at`,
		path, size, modTime.UnixNano(), hash, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store hash for %s: %w", path, err)
	}
	return nil
}

// Forget removes every entry under root.
func (idx *Index) Forget(root string) (int64, error) {
	root = filepath.Clean(root)
	res, err := idx.db.Exec(
		"DELETE FROM file_hashes WHERE path = ? OR substr(path, 1, ?) = ?",
		root, len(root)+1, root+string(filepath.Separator),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to forget %s: %w", root, err)
	}
	return res.RowsAffected()
}

// Count returns the number of indexed files.
func (idx *Index) Count() (int, error) {
	var n int
	err := idx.db.QueryRow("SELECT COUNT(*) FROM file_hashes").Scan(&n)
	return n, err
}

// Path returns the database file location.
func (idx *Index) Path() string {
	return idx.dbPath
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

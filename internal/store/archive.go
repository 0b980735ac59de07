// Package store archives uploaded files in SQLite so they can be listed and
// fetched again later.
//
// An upload is keyed by (user, sanitised file name, file type). Saving the
// same key again replaces the stored content.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"genesys/internal/logging"
	"genesys/internal/upload"
)

// Supported database/sql driver names.
const (
	// DriverSQLite is modernc.org/sqlite (pure Go).
	DriverSQLite = "sqlite"

	// DriverSQLite3 is github.com/mattn/go-sqlite3 (cgo).
	DriverSQLite3 = "sqlite3"
)

// DefaultUser owns uploads that arrive without a user name.
const DefaultUser = "anonymous"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no archived upload matches.
var ErrNotFound = errors.New("archived upload not found")

// Entry describes one archived upload without its content.
type Entry struct {
	ID        int64           `json:"id"`
	User      string          `json:"user"`
	Name      string          `json:"name"`
	Type      upload.FileType `json:"type"`
	Size      int             `json:"size"`
	Digest    string          `json:"sha256"`
	CreatedAt time.Time       `json:"created_at"`
}

// Key returns the archive key in the user_filename_type form.
func (e Entry) Key() string {
	return fmt.Sprintf("%s_%s_%s", e.User, e.Name, e.Type)
}

// Archive is an upload archive backed by one SQLite file. It is safe for
// concurrent use.
type Archive struct {
	db     *sql.DB
	path   string
	driver string
}

// Open opens (creating if needed) the archive at path using the given driver.
func Open(driver, path string) (*Archive, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	switch driver {
	case "":
		driver = DriverSQLite
	case DriverSQLite, DriverSQLite3:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Upload archive ready at %s (driver=%s)", path, driver)
	return &Archive{db: db, path: path, driver: driver}, nil
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

// Driver returns the database/sql driver in use.
func (a *Archive) Driver() string {
	return a.driver
}

// Close closes the database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Save stores an upload under (user, name, type), replacing any previous
// content for the same key.
func (a *Archive) Save(ctx context.Context, user string, f upload.UploadedFile, ft upload.FileType) (Entry, error) {
	if user == "" {
		user = DefaultUser
	}
	name := upload.SanitizeName(f.Name)
	now := time.Now().UTC()

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO uploads (user_name, file_name, file_type, content, size, digest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_name, file_name, file_type) DO UPDATE SET
			content = excluded.content,
			size = excluded.size,
			digest = excluded.digest,
			created_at = excluded.created_at`,
		user, name, string(ft), f.Content, f.Size(), f.Digest(), now.Format(timeLayout))
	if err != nil {
		return Entry{}, fmt.Errorf("failed to archive %s: %w", name, err)
	}

	entry, err := a.find(ctx, user, name, ft)
	if err != nil {
		return Entry{}, err
	}
	logging.StoreDebug("Archived %s as #%d (%d bytes)", entry.Key(), entry.ID, entry.Size)
	return entry, nil
}

// Find returns the entry stored under (user, name, type).
func (a *Archive) Find(ctx context.Context, user, name string, ft upload.FileType) (Entry, error) {
	if user == "" {
		user = DefaultUser
	}
	return a.find(ctx, user, upload.SanitizeName(name), ft)
}

func (a *Archive) find(ctx context.Context, user, name string, ft upload.FileType) (Entry, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, user_name, file_name, file_type, size, digest, created_at
		FROM uploads WHERE user_name = ? AND file_name = ? AND file_type = ?`,
		user, name, string(ft))
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s_%s_%s", ErrNotFound, user, name, ft)
	}
	return entry, err
}

// Get returns an archived upload and its content.
func (a *Archive) Get(ctx context.Context, id int64) (Entry, upload.UploadedFile, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, user_name, file_name, file_type, size, digest, created_at, content
		FROM uploads WHERE id = ?`, id)

	var (
		e       Entry
		ft      string
		created string
		content []byte
	)
	err := row.Scan(&e.ID, &e.User, &e.Name, &ft, &e.Size, &e.Digest, &created, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, upload.UploadedFile{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, upload.UploadedFile{}, fmt.Errorf("failed to read upload #%d: %w", id, err)
	}
	e.Type = upload.FileType(ft)
	e.CreatedAt = parseTime(created)
	return e, upload.UploadedFile{Name: e.Name, Content: content}, nil
}

// List returns archived uploads, newest first. An empty user lists everyone's.
func (a *Archive) List(ctx context.Context, user string) ([]Entry, error) {
	query := `SELECT id, user_name, file_name, file_type, size, digest, created_at FROM uploads`
	var args []any
	if user != "" {
		query += ` WHERE user_name = ?`
		args = append(args, user)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes an archived upload.
func (a *Archive) Delete(ctx context.Context, id int64) error {
	res, err := a.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete upload #%d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: #%d", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e       Entry
		ft      string
		created string
	)
	if err := s.Scan(&e.ID, &e.User, &e.Name, &ft, &e.Size, &e.Digest, &created); err != nil {
		return Entry{}, err
	}
	e.Type = upload.FileType(ft)
	e.CreatedAt = parseTime(created)
	return e, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

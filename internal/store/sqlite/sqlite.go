// Package sqlite persists forms and submissions with modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/goliatone/go-formembed/internal/store"
	"github.com/goliatone/go-formembed/internal/store/sqlite/migrations"
	"github.com/goliatone/go-formembed/pkg/model"
)

// Store is a SQLite-backed store.Store.
type Store struct {
	db   *sql.DB
	path string
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the database at path and applies pending
// migrations. ":memory:" keeps everything in process.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Forms() store.Forms             { return &formStore{db: s.db} }
func (s *Store) Submissions() store.Submissions { return &submissionStore{db: s.db} }

// migrate runs every NNN_name.up.sql newer than the recorded version.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, formatTime(time.Now())); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

type formStore struct {
	db *sql.DB
}

func (f *formStore) Get(ctx context.Context, id string) (model.FormDefinition, error) {
	row := f.db.QueryRowContext(ctx, `SELECT published, definition FROM forms WHERE id = ?`, id)
	def, err := scanForm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FormDefinition{}, fmt.Errorf("form %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return model.FormDefinition{}, fmt.Errorf("sqlite: scanning form: %w", err)
	}
	return def, nil
}

func (f *formStore) List(ctx context.Context) ([]model.FormDefinition, error) {
	rows, err := f.db.QueryContext(ctx, `SELECT published, definition FROM forms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing forms: %w", err)
	}
	defer rows.Close()

	var out []model.FormDefinition
	for rows.Next() {
		def, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning form: %w", err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func (f *formStore) Put(ctx context.Context, def model.FormDefinition) error {
	if strings.TrimSpace(def.ID) == "" {
		return errors.New("sqlite: form id is required")
	}
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("sqlite: marshalling form: %w", err)
	}
	_, err = f.db.ExecContext(ctx, `
		INSERT INTO forms (id, published, definition, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			published = excluded.published,
			definition = excluded.definition,
			updated_at = excluded.updated_at
	`, def.ID, boolInt(def.Published), string(payload), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite: saving form: %w", err)
	}
	return nil
}

func (f *formStore) Delete(ctx context.Context, id string) error {
	res, err := f.db.ExecContext(ctx, `DELETE FROM forms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting form: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("form %q: %w", id, store.ErrNotFound)
	}
	return nil
}

type submissionStore struct {
	db *sql.DB
}

func (s *submissionStore) Save(ctx context.Context, sub model.Submission) error {
	if sub.ID == "" || sub.FormID == "" {
		return errors.New("sqlite: submission id and form id are required")
	}
	values, err := json.Marshal(sub.Values)
	if err != nil {
		return fmt.Errorf("sqlite: marshalling values: %w", err)
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, form_id, submitted, remote_addr, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sub.ID, sub.FormID, string(values), sub.RemoteAddr, formatTime(sub.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: saving submission: %w", err)
	}
	return nil
}

func (s *submissionStore) ListByForm(ctx context.Context, formID string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, form_id, submitted, remote_addr, created_at
		FROM submissions WHERE form_id = ?
		ORDER BY created_at, id
	`, formID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submissions: %w", err)
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var (
			sub       model.Submission
			values    string
			createdAt string
		)
		if err := rows.Scan(&sub.ID, &sub.FormID, &values, &sub.RemoteAddr, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning submission: %w", err)
		}
		if err := json.Unmarshal([]byte(values), &sub.Values); err != nil {
			return nil, fmt.Errorf("sqlite: unmarshalling values: %w", err)
		}
		if sub.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: parsing created_at: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (model.FormDefinition, error) {
	var (
		published int
		payload   string
		def       model.FormDefinition
	)
	if err := row.Scan(&published, &payload); err != nil {
		return def, err
	}
	if err := json.Unmarshal([]byte(payload), &def); err != nil {
		return def, err
	}
	def.Published = published != 0
	return def, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

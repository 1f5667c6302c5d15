// Package blob is the durable local store for project file
// attachments. It has no network dependency and no remote mirror:
// records are created and deleted only through direct calls here and
// survive process restarts.
package blob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/woorkia/nexus-business/domain"
)

// ErrNotFound is returned by Get for an unknown attachment id.
var ErrNotFound = errors.New("attachment not found")

const schema = `
CREATE TABLE IF NOT EXISTS attachments (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	mime_type  TEXT NOT NULL,
	size       INTEGER NOT NULL,
	category   TEXT NOT NULL DEFAULT 'general',
	data       BLOB NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attachments_project ON attachments(project_id);
`

// Store is a SQLite-backed attachment store. The database runs in
// embedded mode with WAL so reads stay concurrent with writes.
type Store struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the attachment database at path. The caller
// must Close the store when done.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create blob store directory: %w", err)
	}
	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping blob store: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("configure blob store: %w", err)
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init blob store schema: %w", err)
	}
	return &Store{conn: conn, path: path, now: time.Now}, nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	_, _ = s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	err := s.conn.Close()
	s.conn = nil
	return err
}

// newID builds a time-prefixed id with a random suffix. Uniqueness
// within this store is all that is required.
func (s *Store) newID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), suffix)
}

// Put stores the file bytes verbatim alongside their metadata and
// returns the stored record. An empty category defaults to "general".
func (s *Store) Put(ctx context.Context, projectID, name, mimeType, category string, data []byte) (domain.Attachment, error) {
	if category == "" {
		category = domain.CategoryGeneral
	}
	att := domain.Attachment{
		ID:        s.newID(),
		ProjectID: projectID,
		Name:      name,
		MimeType:  mimeType,
		Size:      int64(len(data)),
		Category:  category,
		Data:      data,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO attachments (id, project_id, name, mime_type, size, category, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		att.ID, att.ProjectID, att.Name, att.MimeType, att.Size, att.Category, att.Data,
		att.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("store attachment: %w", err)
	}
	return att, nil
}

// Get returns the attachment with the given id, payload included.
func (s *Store) Get(ctx context.Context, id string) (domain.Attachment, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, project_id, name, mime_type, size, category, data, created_at
		 FROM attachments WHERE id = ?`, id)
	att, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attachment{}, ErrNotFound
	}
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("load attachment %s: %w", id, err)
	}
	return att, nil
}

// ListByOwner returns every attachment filed under the given project
// id, served from the project_id index. Order is not guaranteed.
func (s *Store) ListByOwner(ctx context.Context, projectID string) ([]domain.Attachment, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, project_id, name, mime_type, size, category, data, created_at
		 FROM attachments WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list attachments for %s: %w", projectID, err)
	}
	defer rows.Close()
	var out []domain.Attachment
	for rows.Next() {
		att, err := scanAttachment(rows)
		if err != nil {
			return nil, fmt.Errorf("list attachments for %s: %w", projectID, err)
		}
		out = append(out, att)
	}
	return out, rows.Err()
}

// Remove deletes the attachment. Deleting an unknown id is not an
// error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove attachment %s: %w", id, err)
	}
	return nil
}

// RemoveByOwner deletes every attachment filed under the project id.
func (s *Store) RemoveByOwner(ctx context.Context, projectID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM attachments WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("remove attachments for %s: %w", projectID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (domain.Attachment, error) {
	var att domain.Attachment
	var created string
	if err := row.Scan(&att.ID, &att.ProjectID, &att.Name, &att.MimeType, &att.Size, &att.Category, &att.Data, &created); err != nil {
		return domain.Attachment{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("parse created_at: %w", err)
	}
	att.CreatedAt = ts
	return att, nil
}

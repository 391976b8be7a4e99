package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lllllllleong/jobgrid/internal/models"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SQLite stores each document as a JSON blob keyed by (collection, id),
// which keeps Firestore's set/merge/update semantics without a schema per type.
type SQLite struct {
	Pool  *sql.DB
	users string
	jobs  string
}

// OpenSQLite opens (or creates) the database at path and migrates it.
// Use ":memory:" for a throwaway store.
func OpenSQLite(path, usersCollection, jobsCollection string) (*SQLite, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	}

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; an in-memory database also lives only as long as its connection
	pool.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	s := &SQLite{Pool: pool, users: usersCollection, jobs: jobsCollection}
	if err := s.migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.Pool == nil {
		return nil
	}
	return s.Pool.Close()
}

func (s *SQLite) migrate(ctx context.Context) error {
	_, err := s.Pool.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS documents (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  data TEXT NOT NULL,
  UNIQUE(collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_company
ON documents(collection, json_extract(data, '$.companyId'));
`)
	return err
}

func (s *SQLite) CreateJob(ctx context.Context, job models.Job) (string, error) {
	now := time.Now().UTC()
	job.ID = uuid.NewString()
	job.CreatedAt = now
	job.UpdatedAt = now
	if err := s.put(ctx, s.jobs, job.ID, job); err != nil {
		return "", fmt.Errorf("failed to create job document: %w", err)
	}
	return job.ID, nil
}

func (s *SQLite) GetJob(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	if err := s.get(ctx, s.jobs, id, &j); err != nil {
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	j.ID = id
	return &j, nil
}

func (s *SQLite) ListJobs(ctx context.Context) ([]models.Job, error) {
	return s.queryJobs(ctx, `SELECT id, data FROM documents WHERE collection = ? ORDER BY seq;`, s.jobs)
}

func (s *SQLite) ListJobsByCompany(ctx context.Context, companyID string) ([]models.Job, error) {
	return s.queryJobs(ctx, `
SELECT id, data FROM documents
WHERE collection = ? AND json_extract(data, '$.companyId') = ?
ORDER BY seq;`, s.jobs, companyID)
}

func (s *SQLite) UpdateJob(ctx context.Context, id string, patch models.JobPatch) error {
	fields := patch.Fields()
	fields["updatedAt"] = time.Now().UTC()
	if err := s.merge(ctx, s.jobs, id, fields, false); err != nil {
		return fmt.Errorf("job %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) DeleteJob(ctx context.Context, id string) error {
	_, err := s.Pool.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?;`, s.jobs, id)
	if err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) DeleteAllJobs(ctx context.Context) (int, error) {
	return s.deleteCollection(ctx, s.jobs)
}

func (s *SQLite) SetProfile(ctx context.Context, profile models.Profile) error {
	if profile.Gallery == nil {
		profile.Gallery = []string{}
	}
	if err := s.put(ctx, s.users, profile.UID, profile); err != nil {
		return fmt.Errorf("failed to set profile %s: %w", profile.UID, err)
	}
	return nil
}

func (s *SQLite) MergeProfile(ctx context.Context, uid string, fields map[string]any) error {
	if err := s.merge(ctx, s.users, uid, fields, true); err != nil {
		return fmt.Errorf("failed to merge profile %s: %w", uid, err)
	}
	return nil
}

func (s *SQLite) UpdateProfileFields(ctx context.Context, uid string, fields map[string]any) error {
	if err := s.merge(ctx, s.users, uid, fields, false); err != nil {
		return fmt.Errorf("profile %s: %w", uid, err)
	}
	return nil
}

func (s *SQLite) GetProfile(ctx context.Context, uid string) (*models.Profile, error) {
	var p models.Profile
	if err := s.get(ctx, s.users, uid, &p); err != nil {
		return nil, fmt.Errorf("profile %s: %w", uid, err)
	}
	if p.UID == "" {
		p.UID = uid
	}
	return &p, nil
}

func (s *SQLite) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, err := s.Pool.QueryContext(ctx, `SELECT id, data FROM documents WHERE collection = ? ORDER BY seq;`, s.users)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var p models.Profile
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to decode profile %s: %w", id, err)
		}
		if p.UID == "" {
			p.UID = id
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) DeleteAllProfiles(ctx context.Context) (int, error) {
	return s.deleteCollection(ctx, s.users)
}

func (s *SQLite) queryJobs(ctx context.Context, query string, args ...any) ([]models.Job, error) {
	rows, err := s.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		var j models.Job
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
		}
		j.ID = id
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *SQLite) put(ctx context.Context, collection, id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.Pool.ExecContext(ctx, `
INSERT INTO documents(collection, id, data)
VALUES(?,?,?)
ON CONFLICT(collection, id) DO UPDATE SET
  data = excluded.data;`, collection, id, string(b))
	return err
}

func (s *SQLite) get(ctx context.Context, collection, id string, dst any) error {
	var data string
	err := s.Pool.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ? LIMIT 1;`, collection, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dst)
}

// merge overlays fields onto the stored document. With create=false a
// missing document is ErrNotFound (Firestore Update); with create=true it
// is created from fields alone (Firestore Set with MergeAll).
func (s *SQLite) merge(ctx context.Context, collection, id string, fields map[string]any, create bool) error {
	tx, err := s.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	doc := map[string]any{}
	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ? LIMIT 1;`, collection, id,
	).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if !create {
			return ErrNotFound
		}
	case err != nil:
		return err
	default:
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return err
		}
	}

	for k, v := range fields {
		doc[k] = v
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO documents(collection, id, data)
VALUES(?,?,?)
ON CONFLICT(collection, id) DO UPDATE SET
  data = excluded.data;`, collection, id, string(b)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) deleteCollection(ctx context.Context, collection string) (int, error) {
	res, err := s.Pool.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?;`, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", collection, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/store"
)

type ReferenceStore struct {
	db *sql.DB
}

func (s *ReferenceStore) Upsert(ctx context.Context, r *domain.Reference) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reference_vectors (name, description, real_part, dual_part, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE
		 SET description = excluded.description,
		     real_part = excluded.real_part,
		     dual_part = excluded.dual_part,
		     updated_at = excluded.updated_at`,
		r.Name, r.Description, encodeVector(r.Value.Real), encodeVector(r.Value.Dual),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	return err
}

func scanReference(row scanner) (*domain.Reference, error) {
	var (
		r                  domain.Reference
		realBlob, dualBlob []byte
		created, updated   string
	)
	if err := row.Scan(&r.Name, &r.Description, &realBlob, &dualBlob, &created, &updated); err != nil {
		return nil, err
	}
	value, err := decodeSplit(realBlob, dualBlob)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", r.Name, err)
	}
	r.Value = value
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return &r, nil
}

func (s *ReferenceStore) GetByName(ctx context.Context, name string) (*domain.Reference, error) {
	r, err := scanReference(s.db.QueryRowContext(ctx,
		`SELECT name, description, real_part, dual_part, created_at, updated_at
		 FROM reference_vectors WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *ReferenceStore) List(ctx context.Context) ([]domain.Reference, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, real_part, dual_part, created_at, updated_at
		 FROM reference_vectors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reference
	for rows.Next() {
		r, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

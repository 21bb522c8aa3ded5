package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type ReferenceStore struct {
	db *pgxpool.Pool
}

func NewReferenceStore(db *pgxpool.Pool) *ReferenceStore {
	return &ReferenceStore{db: db}
}

func (s *ReferenceStore) Upsert(ctx context.Context, r *domain.Reference) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO reference_vectors (name, description, real_part, dual_part)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE
		 SET description = EXCLUDED.description,
		     real_part = EXCLUDED.real_part,
		     dual_part = EXCLUDED.dual_part,
		     updated_at = NOW()
		 RETURNING created_at, updated_at`,
		r.Name, r.Description, toPGVector(r.Value.Real), toPGVector(r.Value.Dual),
	).Scan(&r.CreatedAt, &r.UpdatedAt)
}

func scanReference(row pgx.Row) (*domain.Reference, error) {
	var (
		r          domain.Reference
		real, dual pgvector.Vector
	)
	if err := row.Scan(&r.Name, &r.Description, &real, &dual, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	value, err := splitFromPG(real, dual)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", r.Name, err)
	}
	r.Value = value
	return &r, nil
}

func (s *ReferenceStore) GetByName(ctx context.Context, name string) (*domain.Reference, error) {
	r, err := scanReference(s.db.QueryRow(ctx,
		`SELECT name, description, real_part, dual_part, created_at, updated_at
		 FROM reference_vectors WHERE name = $1`,
		name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *ReferenceStore) List(ctx context.Context) ([]domain.Reference, error) {
	rows, err := s.db.Query(ctx,
		`SELECT name, description, real_part, dual_part, created_at, updated_at
		 FROM reference_vectors ORDER BY name`,
	)
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

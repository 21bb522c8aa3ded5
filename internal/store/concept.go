package store

import (
	"context"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type ConceptStore struct {
	db *pgxpool.Pool
}

func NewConceptStore(db *pgxpool.Pool) *ConceptStore {
	return &ConceptStore{db: db}
}

func (s *ConceptStore) Upsert(ctx context.Context, c *domain.Concept) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO concepts (predicate, object, embedding, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (predicate, object) DO UPDATE
		 SET embedding = EXCLUDED.embedding, updated_at = NOW()
		 RETURNING updated_at`,
		c.Predicate, c.Object, toPGVector(c.Vector),
	).Scan(&c.UpdatedAt)
}

func (s *ConceptStore) List(ctx context.Context) ([]domain.Concept, error) {
	rows, err := s.db.Query(ctx,
		`SELECT predicate, object, embedding, updated_at
		 FROM concepts ORDER BY predicate, object`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Concept
	for rows.Next() {
		var (
			c   domain.Concept
			vec pgvector.Vector
		)
		if err := rows.Scan(&c.Predicate, &c.Object, &vec, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Vector = fromPGVector(vec)
		out = append(out, c)
	}
	return out, rows.Err()
}

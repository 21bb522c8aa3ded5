package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FactStore struct {
	db *pgxpool.Pool
}

func NewFactStore(db *pgxpool.Pool) *FactStore {
	return &FactStore{db: db}
}

// Append inserts facts in order. The batch runs in one implicit transaction.
func (s *FactStore) Append(ctx context.Context, facts []domain.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range facts {
		batch.Queue(
			`INSERT INTO facts (id, entity_id, predicate, object, observed_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			f.ID, f.EntityID, f.Predicate, f.Object, f.ObservedAt,
		)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert facts: %w", err)
	}
	return nil
}

func (s *FactStore) ListByEntity(ctx context.Context, entityID string) ([]domain.Fact, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, entity_id, predicate, object, observed_at
		 FROM facts WHERE entity_id = $1
		 ORDER BY seq`,
		entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []domain.Fact
	for rows.Next() {
		var f domain.Fact
		if err := rows.Scan(&f.ID, &f.EntityID, &f.Predicate, &f.Object, &f.ObservedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

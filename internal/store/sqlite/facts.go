package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/google/uuid"
)

type FactStore struct {
	db *sql.DB
}

func (s *FactStore) Append(ctx context.Context, facts []domain.Fact) error {
	if len(facts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO facts (id, entity_id, predicate, object, observed_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		if _, err := stmt.ExecContext(ctx, f.ID.String(), f.EntityID, f.Predicate, f.Object, formatTime(f.ObservedAt)); err != nil {
			return fmt.Errorf("insert fact: %w", err)
		}
	}
	return tx.Commit()
}

func (s *FactStore) ListByEntity(ctx context.Context, entityID string) ([]domain.Fact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_id, predicate, object, observed_at
		 FROM facts WHERE entity_id = ? ORDER BY seq`, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Fact
	for rows.Next() {
		var (
			f      domain.Fact
			id, at string
		)
		if err := rows.Scan(&id, &f.EntityID, &f.Predicate, &f.Object, &at); err != nil {
			return nil, err
		}
		f.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("fact id %q: %w", id, err)
		}
		f.ObservedAt = parseTime(at)
		out = append(out, f)
	}
	return out, rows.Err()
}

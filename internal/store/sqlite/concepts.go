package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Harshitk-cp/epistate/internal/domain"
)

type ConceptStore struct {
	db *sql.DB
}

func (s *ConceptStore) Upsert(ctx context.Context, c *domain.Concept) error {
	c.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO concepts (predicate, object, vector, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(predicate, object) DO UPDATE
		 SET vector = excluded.vector, updated_at = excluded.updated_at`,
		c.Predicate, c.Object, encodeVector(c.Vector), formatTime(c.UpdatedAt))
	return err
}

func (s *ConceptStore) List(ctx context.Context) ([]domain.Concept, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT predicate, object, vector, updated_at FROM concepts ORDER BY predicate, object`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Concept
	for rows.Next() {
		var (
			c    domain.Concept
			blob []byte
			at   string
		)
		if err := rows.Scan(&c.Predicate, &c.Object, &blob, &at); err != nil {
			return nil, err
		}
		if c.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("concept %s: %w", c.Key(), err)
		}
		c.UpdatedAt = parseTime(at)
		out = append(out, c)
	}
	return out, rows.Err()
}

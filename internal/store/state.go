package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// StateStore keeps immutable state versions and a per-entity head pointer.
type StateStore struct {
	db *pgxpool.Pool
}

func NewStateStore(db *pgxpool.Pool) *StateStore {
	return &StateStore{db: db}
}

// Commit inserts the version and moves the entity head to it in a single statement.
func (s *StateStore) Commit(ctx context.Context, st *domain.EntityState) error {
	_, err := s.db.Exec(ctx,
		`WITH v AS (
		     INSERT INTO entity_state_versions (version_id, parent_id, entity_id, real_part, dual_part, origin, fact_count, created_at)
		     VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		     RETURNING entity_id, version_id
		 )
		 INSERT INTO entity_heads (entity_id, version_id, updated_at)
		 SELECT entity_id, version_id, NOW() FROM v
		 ON CONFLICT (entity_id) DO UPDATE
		 SET version_id = EXCLUDED.version_id, updated_at = NOW()`,
		st.VersionID, st.ParentID, st.EntityID,
		toPGVector(st.Value.Real), toPGVector(st.Value.Dual),
		string(st.Origin), st.FactCount, st.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("commit state version: %w", err)
	}
	return nil
}

const stateColumns = `v.version_id, v.parent_id, v.entity_id, v.real_part, v.dual_part, v.origin, v.fact_count, v.created_at`

func scanState(row pgx.Row) (*domain.EntityState, error) {
	var (
		st         domain.EntityState
		origin     string
		real, dual pgvector.Vector
	)
	if err := row.Scan(&st.VersionID, &st.ParentID, &st.EntityID, &real, &dual, &origin, &st.FactCount, &st.CreatedAt); err != nil {
		return nil, err
	}
	value, err := splitFromPG(real, dual)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", st.VersionID, err)
	}
	st.Value = value
	st.Origin = domain.StateOrigin(origin)
	return &st, nil
}

func (s *StateStore) GetCurrent(ctx context.Context, entityID string) (*domain.EntityState, error) {
	st, err := scanState(s.db.QueryRow(ctx,
		`SELECT `+stateColumns+`
		 FROM entity_heads h
		 JOIN entity_state_versions v ON v.version_id = h.version_id
		 WHERE h.entity_id = $1`,
		entityID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

// seq is assigned by the database on insert, so ordering does not depend on client clocks.
const listVersionsSQL = `SELECT ` + stateColumns + `
	FROM entity_state_versions v
	WHERE v.entity_id = $1
	ORDER BY v.seq DESC
	LIMIT $2`

// ListVersions returns up to limit versions, newest first.
func (s *StateStore) ListVersions(ctx context.Context, entityID string, limit int) ([]domain.EntityState, error) {
	rows, err := s.db.Query(ctx, listVersionsSQL, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EntityState
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// Rollback points the entity head at an existing version of the same entity.
func (s *StateStore) Rollback(ctx context.Context, entityID string, versionID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE entity_heads h
		 SET version_id = v.version_id, updated_at = NOW()
		 FROM entity_state_versions v
		 WHERE h.entity_id = $1 AND v.version_id = $2 AND v.entity_id = $1`,
		entityID, versionID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *StateStore) ListEntityIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT entity_id FROM entity_heads ORDER BY entity_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/store"
	"github.com/google/uuid"
)

type StateStore struct {
	db *sql.DB
}

// Commit inserts a new version and moves the entity head atomically.
func (s *StateStore) Commit(ctx context.Context, st *domain.EntityState) error {
	var parent sql.NullString
	if st.ParentID != nil {
		parent = sql.NullString{String: st.ParentID.String(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entity_state_versions (version_id, parent_id, entity_id, real_part, dual_part, origin, fact_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.VersionID.String(), parent, st.EntityID,
		encodeVector(st.Value.Real), encodeVector(st.Value.Dual),
		string(st.Origin), st.FactCount, formatTime(st.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entity_heads (entity_id, version_id) VALUES (?, ?)
		 ON CONFLICT(entity_id) DO UPDATE SET version_id = excluded.version_id`,
		st.EntityID, st.VersionID.String(),
	)
	if err != nil {
		return fmt.Errorf("set head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const stateColumns = `v.version_id, v.parent_id, v.entity_id, v.real_part, v.dual_part, v.origin, v.fact_count, v.created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (*domain.EntityState, error) {
	var (
		st                 domain.EntityState
		versionID, origin  string
		createdAt          string
		parent             sql.NullString
		realBlob, dualBlob []byte
	)
	if err := row.Scan(&versionID, &parent, &st.EntityID, &realBlob, &dualBlob, &origin, &st.FactCount, &createdAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(versionID)
	if err != nil {
		return nil, fmt.Errorf("version id %q: %w", versionID, err)
	}
	st.VersionID = id
	if parent.Valid {
		pid, err := uuid.Parse(parent.String)
		if err != nil {
			return nil, fmt.Errorf("parent id %q: %w", parent.String, err)
		}
		st.ParentID = &pid
	}
	st.Value, err = decodeSplit(realBlob, dualBlob)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", versionID, err)
	}
	st.Origin = domain.StateOrigin(origin)
	st.CreatedAt = parseTime(createdAt)
	return &st, nil
}

func (s *StateStore) GetCurrent(ctx context.Context, entityID string) (*domain.EntityState, error) {
	st, err := scanState(s.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+`
		 FROM entity_heads h
		 JOIN entity_state_versions v ON v.version_id = h.version_id
		 WHERE h.entity_id = ?`, entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

// ListVersions returns up to limit versions, newest first.
func (s *StateStore) ListVersions(ctx context.Context, entityID string, limit int) ([]domain.EntityState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+stateColumns+`
		 FROM entity_state_versions v
		 WHERE v.entity_id = ?
		 ORDER BY v.seq DESC
		 LIMIT ?`, entityID, limit)
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE entity_heads SET version_id = ?
		 WHERE entity_id = ?
		   AND EXISTS (SELECT 1 FROM entity_state_versions WHERE version_id = ? AND entity_id = ?)`,
		versionID.String(), entityID, versionID.String(), entityID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *StateStore) ListEntityIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entity_id FROM entity_heads ORDER BY entity_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

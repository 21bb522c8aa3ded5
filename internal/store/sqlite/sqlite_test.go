package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Harshitk-cp/epistate/internal/algebra"
	"github.com/Harshitk-cp/epistate/internal/domain"
	"github.com/Harshitk-cp/epistate/internal/store"
	"github.com/google/uuid"
)

func tempDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newState(entityID string, parent *uuid.UUID, real, dual algebra.Vector, origin domain.StateOrigin) *domain.EntityState {
	value, _ := algebra.New(real, dual)
	return &domain.EntityState{
		VersionID: uuid.New(),
		ParentID:  parent,
		EntityID:  entityID,
		Value:     value,
		Origin:    origin,
		FactCount: 1,
		CreatedAt: time.Now().UTC(),
	}
}

func TestFactStore_AppendAndList(t *testing.T) {
	db := tempDB(t)
	fs := db.Facts()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	facts := []domain.Fact{
		{ID: uuid.New(), EntityID: "p1", Predicate: "hasDiagnosis", Object: "Hypertension", ObservedAt: now},
		{ID: uuid.New(), EntityID: "p2", Predicate: "hasSymptom", Object: "Tremor", ObservedAt: now},
		{ID: uuid.New(), EntityID: "p1", Predicate: "hasSymptom", Object: "Fatigue", ObservedAt: now},
	}
	if err := fs.Append(ctx, facts); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := fs.ListByEntity(ctx, "p1")
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(got))
	}
	if got[0].ID != facts[0].ID || got[1].Object != "Fatigue" {
		t.Errorf("facts out of order: %+v", got)
	}
	if !got[0].ObservedAt.Equal(now) {
		t.Errorf("observed_at = %v, want %v", got[0].ObservedAt, now)
	}

	none, err := fs.ListByEntity(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Errorf("expected empty log, got %v, %v", none, err)
	}
}

func TestStateStore_CommitAndGetCurrent(t *testing.T) {
	db := tempDB(t)
	ss := db.States()
	ctx := context.Background()

	if _, err := ss.GetCurrent(ctx, "p1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// 0.1 and 0.3 are not representable in float32; blobs must keep them exact.
	v1 := newState("p1", nil, algebra.Vector{0.1, 0.6, 0}, algebra.Vector{0, 0, 0.3}, domain.OriginAggregate)
	if err := ss.Commit(ctx, v1); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cur, err := ss.GetCurrent(ctx, "p1")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur.VersionID != v1.VersionID || cur.ParentID != nil {
		t.Errorf("unexpected version: %+v", cur)
	}
	if !algebra.ApproxEqual(cur.Value, v1.Value, 0) {
		t.Errorf("value = %v, want %v", cur.Value, v1.Value)
	}
	if cur.Origin != domain.OriginAggregate {
		t.Errorf("origin = %s", cur.Origin)
	}

	v2 := newState("p1", &v1.VersionID, algebra.Vector{1}, algebra.Vector{0.4}, domain.OriginUpdate)
	if err := ss.Commit(ctx, v2); err != nil {
		t.Fatalf("Commit v2: %v", err)
	}
	cur, err = ss.GetCurrent(ctx, "p1")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur.Dim() != 1 || cur.ParentID == nil || *cur.ParentID != v1.VersionID {
		t.Errorf("unexpected head after update: %+v", cur)
	}
}

func TestStateStore_HistoryAndRollback(t *testing.T) {
	db := tempDB(t)
	ss := db.States()
	ctx := context.Background()

	v1 := newState("p1", nil, algebra.Vector{1, 0}, algebra.Vector{0, 0}, domain.OriginAggregate)
	v2 := newState("p1", &v1.VersionID, algebra.Vector{1, 1}, algebra.Vector{0, 0}, domain.OriginAggregate)
	other := newState("p2", nil, algebra.Vector{0, 1}, algebra.Vector{0, 0}, domain.OriginAggregate)
	for _, st := range []*domain.EntityState{v1, v2, other} {
		if err := ss.Commit(ctx, st); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}

	history, err := ss.ListVersions(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(history) != 2 || history[0].VersionID != v2.VersionID || history[1].VersionID != v1.VersionID {
		t.Fatalf("history not newest first: %+v", history)
	}

	limited, err := ss.ListVersions(ctx, "p1", 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("limit ignored: %d, %v", len(limited), err)
	}

	if err := ss.Rollback(ctx, "p1", v1.VersionID); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	cur, err := ss.GetCurrent(ctx, "p1")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur.VersionID != v1.VersionID {
		t.Errorf("head = %s, want %s", cur.VersionID, v1.VersionID)
	}

	// versions of another entity are not valid rollback targets
	if err := ss.Rollback(ctx, "p1", other.VersionID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := ss.Rollback(ctx, "p1", uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	ids, err := ss.ListEntityIDs(ctx)
	if err != nil {
		t.Fatalf("ListEntityIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "p1" || ids[1] != "p2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestConceptStore_UpsertReplaces(t *testing.T) {
	db := tempDB(t)
	cs := db.Concepts()
	ctx := context.Background()

	for _, v := range []algebra.Vector{{1, 0}, {0.2, 0.7}} {
		c := &domain.Concept{Predicate: "hasSymptom", Object: "Fatigue", Vector: v}
		if err := cs.Upsert(ctx, c); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	if err := cs.Upsert(ctx, &domain.Concept{Predicate: "hasDiagnosis", Object: "Anemia", Vector: algebra.Vector{0, 1}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	list, err := cs.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 concepts, got %d", len(list))
	}
	if list[1].Key() != "hasSymptom:Fatigue" || list[1].Vector[1] != 0.7 {
		t.Errorf("last write should win: %+v", list[1])
	}
}

func TestReferenceStore(t *testing.T) {
	db := tempDB(t)
	rs := db.References()
	ctx := context.Background()

	if _, err := rs.GetByName(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ref := &domain.Reference{
		Name:        "guideline",
		Description: "hypertension with fatigue",
		Value:       algebra.FromReal(algebra.Vector{1, 1, 0}),
	}
	if err := rs.Upsert(ctx, ref); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := rs.GetByName(ctx, "guideline")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.Description != ref.Description || !algebra.ApproxEqual(got.Value, ref.Value, 0) {
		t.Errorf("got %+v", got)
	}

	list, err := rs.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: %v, %v", list, err)
	}
}

func TestOpenInMemory(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	st := newState("p1", nil, algebra.Vector{1}, algebra.Vector{0}, domain.OriginAggregate)
	if err := db.States().Commit(context.Background(), st); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := db.States().GetCurrent(context.Background(), "p1"); err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
}

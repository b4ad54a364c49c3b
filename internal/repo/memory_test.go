package repo

import (
	"context"
	"testing"
	"time"

	"dealpipe/internal/deal"
	"dealpipe/internal/env"
)

var fixedDate = time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)

func testEnv() env.Env {
	return env.Env{Clock: env.NewFixedClock(fixedDate), IDs: env.NewSequentialIDs()}
}

func TestMemory_UpsertAssignsIDAndReturnsChanges(t *testing.T) {
	t.Parallel()

	m := NewMemory(testEnv())

	stored, changes, err := m.Upsert(context.Background(), deal.Deal{Name: "Acme", Stage: deal.StageProposal})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if stored.ID == "" {
		t.Error("expected generated ID")
	}

	if len(changes) == 0 {
		t.Error("expected normalization changes")
	}

	if stored.Probability != 60 {
		t.Errorf("Probability = %d, want stage default 60", stored.Probability)
	}
}

func TestMemory_UpsertReplacesCaseInsensitively(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(testEnv())

	first, _, err := m.Upsert(ctx, deal.Deal{Name: "Acme", Stage: deal.StageLead})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	update := first.Clone()
	update.ID = "d-20250315-00000001" // lowered case, same identity
	update.Name = "Acme Corp"

	_, _, err = m.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	all, err := m.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}

	if len(all) != 1 {
		t.Fatalf("expected 1 record after replace, got %d", len(all))
	}

	if all[0].Name != "Acme Corp" {
		t.Errorf("Name = %q, want Acme Corp", all[0].Name)
	}
}

func TestMemory_GetByIDMissingReturnsNil(t *testing.T) {
	t.Parallel()

	m := NewMemory(testEnv())

	got, err := m.GetByID(context.Background(), "D-19990101-00000001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got != nil {
		t.Errorf("expected nil for missing ID, got %+v", got)
	}
}

func TestMemory_DeleteMissingIsNoOp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(testEnv())

	_, _, err := m.Upsert(ctx, deal.Deal{Name: "Keep", Stage: deal.StageLead})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	deleteErr := m.Delete(ctx, "no-such-id")
	if deleteErr != nil {
		t.Fatalf("Delete of missing ID returned error: %v", deleteErr)
	}

	all, _ := m.GetAll(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 record, got %d", len(all))
	}
}

func TestMemory_DeleteRemoves(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(testEnv())

	stored, _, err := m.Upsert(ctx, deal.Deal{Name: "Gone", Stage: deal.StageLead})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	deleteErr := m.Delete(ctx, stored.ID)
	if deleteErr != nil {
		t.Fatalf("Delete failed: %v", deleteErr)
	}

	got, _ := m.GetByID(ctx, stored.ID)
	if got != nil {
		t.Errorf("record still present after delete: %+v", got)
	}
}

func TestMemory_ReadsAreDefensiveCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(testEnv())

	stored, _, err := m.Upsert(ctx, deal.Deal{Name: "Original", Stage: deal.StageLead, Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	fetched, _ := m.GetByID(ctx, stored.ID)
	fetched.Name = "Mutated"
	fetched.Tags[0] = "mutated"

	again, _ := m.GetByID(ctx, stored.ID)
	if again.Name != "Original" || again.Tags[0] != "a" {
		t.Errorf("caller mutation reached stored state: %+v", again)
	}
}

func TestMemory_SaveChangesIsNoOp(t *testing.T) {
	t.Parallel()

	m := NewMemory(testEnv())

	if err := m.SaveChanges(context.Background()); err != nil {
		t.Errorf("SaveChanges returned error: %v", err)
	}
}

package mysql

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryPlanRepositorySaveAndList(t *testing.T) {
	t.Parallel()

	repo, err := NewMemoryPlanRepository(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create memory repo: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		record := PlanRecord{
			PlanID:     fmt.Sprintf("plan-%d", i),
			ActionType: "STAKE",
			TxCount:    1,
			CreatedAt:  int64(1000 + i),
		}
		if err := repo.Save(ctx, record); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	list, err := repo.ListLatest(ctx, 2)
	if err != nil {
		t.Fatalf("list latest failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	// Newest first.
	if list[0].PlanID != "plan-2" || list[1].PlanID != "plan-1" {
		t.Fatalf("unexpected order: %+v", list)
	}

	all, err := repo.ListLatest(ctx, 0)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestMemoryPlanRepositoryReloadsFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewMemoryPlanRepository(dir)
	if err != nil {
		t.Fatalf("failed to create memory repo: %v", err)
	}
	if err := repo.Save(ctx, PlanRecord{PlanID: "plan-1", ActionType: "VOTE", CreatedAt: 42}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reopened, err := NewMemoryPlanRepository(dir)
	if err != nil {
		t.Fatalf("failed to reopen memory repo: %v", err)
	}
	list, err := reopened.ListLatest(ctx, 10)
	if err != nil {
		t.Fatalf("list latest failed: %v", err)
	}
	if len(list) != 1 || list[0].PlanID != "plan-1" || list[0].ActionType != "VOTE" {
		t.Fatalf("unexpected records after reload: %+v", list)
	}
}

func TestMemoryPlanRepositoryRetention(t *testing.T) {
	t.Parallel()

	repo, err := NewMemoryPlanRepository(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create memory repo: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < memoryRetention+10; i++ {
		if err := repo.Save(ctx, PlanRecord{PlanID: fmt.Sprintf("plan-%d", i)}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	list, err := repo.ListLatest(ctx, 0)
	if err != nil {
		t.Fatalf("list latest failed: %v", err)
	}
	if len(list) != memoryRetention {
		t.Fatalf("expected %d retained records, got %d", memoryRetention, len(list))
	}
	if list[0].PlanID != fmt.Sprintf("plan-%d", memoryRetention+9) {
		t.Fatalf("unexpected newest record: %+v", list[0])
	}
}

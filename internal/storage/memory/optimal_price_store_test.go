package memory

import (
	"context"
	"errors"
	"testing"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

func TestOptimalPriceStore_InsertAndGet(t *testing.T) {
	store := NewOptimalPriceStore()
	ctx := context.Background()

	prices := []*domain.OptimalPrice{
		{RunID: "run1", ProductID: "P2", Price: 21.5},
		{RunID: "run1", ProductID: "P1", Price: 19.9, Fallback: true, Reason: domain.FallbackSolverFailed},
	}

	if err := store.InsertBulk(ctx, prices); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByKey(ctx, "run1", "P1")
	if err != nil {
		t.Fatalf("GetByKey failed: %v", err)
	}
	if got.Price != 19.9 || !got.Fallback {
		t.Errorf("unexpected price row: %+v", got)
	}

	all, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 prices, got %d", len(all))
	}
	if all[0].ProductID != "P1" || all[1].ProductID != "P2" {
		t.Error("Results not ordered by product_id")
	}
}

func TestOptimalPriceStore_ImmutableOnceWritten(t *testing.T) {
	store := NewOptimalPriceStore()
	ctx := context.Background()

	first := []*domain.OptimalPrice{{RunID: "run1", ProductID: "P1", Price: 10}}
	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	batch := []*domain.OptimalPrice{
		{RunID: "run1", ProductID: "P2", Price: 11},
		{RunID: "run1", ProductID: "P1", Price: 99}, // rewrite attempt
	}
	err := store.InsertBulk(ctx, batch)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	// Verify all-or-nothing
	all, _ := store.GetByRunID(ctx, "run1")
	if len(all) != 1 || all[0].Price != 10 {
		t.Errorf("Expected original single row, got %+v", all)
	}
}

func TestOptimalPriceStore_IntraBatchDuplicate(t *testing.T) {
	store := NewOptimalPriceStore()

	err := store.InsertBulk(context.Background(), []*domain.OptimalPrice{
		{RunID: "run1", ProductID: "P1", Price: 10},
		{RunID: "run1", ProductID: "P1", Price: 12},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestOptimalPriceStore_SameProductDifferentRuns(t *testing.T) {
	store := NewOptimalPriceStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.OptimalPrice{{RunID: "run1", ProductID: "P1", Price: 10}}); err != nil {
		t.Fatalf("Insert run1 failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.OptimalPrice{{RunID: "run2", ProductID: "P1", Price: 11}}); err != nil {
		t.Fatalf("Insert run2 failed: %v", err)
	}
}

func TestOptimalPriceStore_NotFoundAndInvalid(t *testing.T) {
	store := NewOptimalPriceStore()
	ctx := context.Background()

	_, err := store.GetByKey(ctx, "run1", "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.OptimalPrice{nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}

	err = store.InsertBulk(ctx, []*domain.OptimalPrice{{RunID: "run1"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty product, got %v", err)
	}
}

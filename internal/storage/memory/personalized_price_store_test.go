package memory

import (
	"context"
	"errors"
	"testing"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

func TestPersonalizedPriceStore_InsertAndQuery(t *testing.T) {
	store := NewPersonalizedPriceStore()
	ctx := context.Background()

	prices := []*domain.PersonalizedPrice{
		{RunID: "run1", ProductID: "P1", CustomerID: "C2", Price: 9, Rule: domain.RuleHighSensitivity},
		{RunID: "run1", ProductID: "P1", CustomerID: "C1", Price: 10, Rule: domain.RuleNone},
		{RunID: "run1", ProductID: "P2", CustomerID: "C1", Price: 19, Rule: domain.RuleLoyalty},
	}
	if err := store.InsertBulk(ctx, prices); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetByRunID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(all))
	}
	if all[0].CustomerID != "C1" || all[1].CustomerID != "C2" || all[2].ProductID != "P2" {
		t.Error("Results not ordered by (product_id, customer_id)")
	}

	p1, err := store.GetByProduct(ctx, "run1", "P1")
	if err != nil {
		t.Fatalf("GetByProduct failed: %v", err)
	}
	if len(p1) != 2 {
		t.Errorf("Expected 2 rows for P1, got %d", len(p1))
	}
}

func TestPersonalizedPriceStore_DuplicatePair(t *testing.T) {
	store := NewPersonalizedPriceStore()
	ctx := context.Background()

	row := &domain.PersonalizedPrice{RunID: "run1", ProductID: "P1", CustomerID: "C1", Price: 10}
	if err := store.InsertBulk(ctx, []*domain.PersonalizedPrice{row}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.PersonalizedPrice{row})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestPersonalizedPriceStore_InvalidInput(t *testing.T) {
	store := NewPersonalizedPriceStore()

	err := store.InsertBulk(context.Background(), []*domain.PersonalizedPrice{
		{RunID: "run1", ProductID: "P1"},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty customer, got %v", err)
	}
}

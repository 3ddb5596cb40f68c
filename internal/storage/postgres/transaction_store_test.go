package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynamic-pricing/internal/dataset"
	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

func TestTransactionStore_InsertBulkAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)

	fixtures := dataset.Fixtures()
	require.NoError(t, store.InsertBulk(ctx, fixtures))

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(fixtures))

	// Insertion order and values survive the round trip
	for i, want := range fixtures {
		assert.Equal(t, want.ProductID, got[i].ProductID, "row %d", i)
		assert.Equal(t, want.CustomerID, got[i].CustomerID, "row %d", i)
		assert.True(t, want.DateTime.Equal(got[i].DateTime), "row %d", i)
		assert.Equal(t, want.BasePrice, got[i].BasePrice, "row %d", i)
		assert.Equal(t, want.CompetitorFinalPrice, got[i].CompetitorFinalPrice, "row %d", i)
		assert.Greater(t, got[i].ID, int64(0))
		if i > 0 {
			assert.Greater(t, got[i].ID, got[i-1].ID)
		}
	}

	// Rows without competitor data keep NULLs
	last := got[len(got)-1]
	assert.Equal(t, "P300", last.ProductID)
	assert.Nil(t, last.CompetitorFinalPrice)
	assert.Nil(t, last.CompetitorStockAvailability)
}

func TestTransactionStore_GetByProductID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)
	require.NoError(t, store.InsertBulk(ctx, dataset.Fixtures()))

	rows, err := store.GetByProductID(ctx, "P300")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C3", rows[0].CustomerID)
	assert.Equal(t, "C1", rows[1].CustomerID)

	rows, err = store.GetByProductID(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTransactionStore(pool)

	tests := []struct {
		name string
		rows []*domain.Transaction
	}{
		{"nil row", []*domain.Transaction{nil}},
		{"missing product", []*domain.Transaction{{CustomerID: "C1", DateTime: time.Now()}}},
		{"negative stock", []*domain.Transaction{{ProductID: "P1", CustomerID: "C1", DateTime: time.Now(), StockLevel: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.InsertBulk(ctx, tt.rows)
			assert.ErrorIs(t, err, storage.ErrInvalidInput)
		})
	}

	got, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

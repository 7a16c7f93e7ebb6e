package inventory

import (
	"errors"
	"testing"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestInventoryItem(t *testing.T, stock string) *InventoryItem {
	t.Helper()
	item, err := NewInventoryItem("Popcorn Kernels", "kg", dec("10"), dec("2.5"))
	require.NoError(t, err)
	item.CurrentStock = dec(stock)
	item.ClearDomainEvents()
	return item
}

func eventTypes(item *InventoryItem) []string {
	var types []string
	for _, e := range item.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	return types
}

func TestNewInventoryItem(t *testing.T) {
	t.Run("creates item with zero stock", func(t *testing.T) {
		item, err := NewInventoryItem("  Popcorn Kernels ", "kg", DefaultReorderPoint, dec("2.5"))

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.Equal(t, "Popcorn Kernels", item.Name)
		assert.True(t, item.CurrentStock.IsZero())
		assert.True(t, item.ReorderPoint.Equal(dec("10")))
		assert.Equal(t, 1, item.GetVersion())
		assert.Equal(t, []string{EventTypeInventoryItemCreated}, eventTypes(item))
	})

	t.Run("fails with empty name", func(t *testing.T) {
		item, err := NewInventoryItem("   ", "kg", DefaultReorderPoint, decimal.Zero)

		require.Error(t, err)
		assert.Nil(t, item)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_NAME", de.Code)
	})

	t.Run("fails with empty unit", func(t *testing.T) {
		_, err := NewInventoryItem("Cups", "", DefaultReorderPoint, decimal.Zero)
		assert.Contains(t, err.Error(), "Unit")
	})

	t.Run("fails with negative cost", func(t *testing.T) {
		_, err := NewInventoryItem("Cups", "unit", DefaultReorderPoint, dec("-1"))
		require.Error(t, err)
	})
}

func TestInventoryItem_Update(t *testing.T) {
	item := createTestInventoryItem(t, "40")

	err := item.Update("Popcorn Kernels (Yellow)", "kg", dec("15"), dec("3"))

	require.NoError(t, err)
	assert.Equal(t, "Popcorn Kernels (Yellow)", item.Name)
	assert.True(t, item.ReorderPoint.Equal(dec("15")))
	assert.True(t, item.CurrentStock.Equal(dec("40")), "update must not touch stock")
	assert.Equal(t, 2, item.GetVersion())
}

func TestInventoryItem_ApplyMovement(t *testing.T) {
	userID := uuid.New()

	t.Run("sale deducts and records balance", func(t *testing.T) {
		item := createTestInventoryItem(t, "100")

		m, err := item.ApplyMovement(MovementRequest{
			Delta:       dec("-0.6"),
			Type:        MovementTypeSale,
			ReferenceID: "sale-1",
			UserID:      &userID,
		}, DefaultStockPolicy())

		require.NoError(t, err)
		assert.True(t, item.CurrentStock.Equal(dec("99.4")))
		assert.True(t, m.Quantity.Equal(dec("-0.6")))
		assert.True(t, m.BalanceAfter.Equal(dec("99.4")))
		assert.Equal(t, item.ID, m.InventoryItemID)
		assert.Equal(t, "sale-1", m.ReferenceID)
		assert.Equal(t, &userID, m.UserID)
		assert.True(t, m.IsConsumption())
		assert.Equal(t, []string{EventTypeStockMovementRecorded}, eventTypes(item))
	})

	t.Run("zero delta is rejected", func(t *testing.T) {
		item := createTestInventoryItem(t, "5")

		_, err := item.ApplyMovement(MovementRequest{Delta: decimal.Zero, Type: MovementTypeAdjustment}, DefaultStockPolicy())

		require.Error(t, err)
		assert.True(t, item.CurrentStock.Equal(dec("5")))
	})

	t.Run("delta is rounded to the stock scale", func(t *testing.T) {
		item := createTestInventoryItem(t, "100")

		m, err := item.ApplyMovement(MovementRequest{Delta: dec("-0.0625"), Type: MovementTypeSale}, DefaultStockPolicy())

		require.NoError(t, err)
		assert.True(t, m.Quantity.Equal(dec("-0.063")), "got %s", m.Quantity)
		assert.True(t, m.BalanceAfter.Equal(dec("99.937")), "got %s", m.BalanceAfter)
		assert.True(t, item.CurrentStock.Equal(m.BalanceAfter))
	})

	t.Run("delta below the smallest unit is rejected", func(t *testing.T) {
		item := createTestInventoryItem(t, "5")

		_, err := item.ApplyMovement(MovementRequest{Delta: dec("0.0004"), Type: MovementTypeAdjustment}, DefaultStockPolicy())

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_QUANTITY", de.Code)
		assert.True(t, item.CurrentStock.Equal(dec("5")))
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		item := createTestInventoryItem(t, "5")

		_, err := item.ApplyMovement(MovementRequest{Delta: dec("1"), Type: "GIFT"}, DefaultStockPolicy())

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_MOVEMENT_TYPE", de.Code)
	})

	t.Run("negative balance allowed by default and flagged", func(t *testing.T) {
		item := createTestInventoryItem(t, "1")

		_, err := item.ApplyMovement(MovementRequest{Delta: dec("-3"), Type: MovementTypeSale}, DefaultStockPolicy())

		require.NoError(t, err)
		assert.True(t, item.CurrentStock.Equal(dec("-2")))
		assert.Contains(t, eventTypes(item), EventTypeNegativeStockDetected)
	})

	t.Run("negative balance refused when policy forbids it", func(t *testing.T) {
		item := createTestInventoryItem(t, "1")
		policy := StockPolicy{AllowNegativeStock: false}

		_, err := item.ApplyMovement(MovementRequest{Delta: dec("-3"), Type: MovementTypeSale}, policy)

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.True(t, item.CurrentStock.Equal(dec("1")))
		assert.Equal(t, 1, item.GetVersion())
		assert.Empty(t, item.GetDomainEvents())
	})

	t.Run("restock of an already negative item is accepted under strict policy", func(t *testing.T) {
		item := createTestInventoryItem(t, "-5")
		policy := StockPolicy{AllowNegativeStock: false}

		_, err := item.ApplyMovement(MovementRequest{Delta: dec("2"), Type: MovementTypeRestock}, policy)

		require.NoError(t, err)
		assert.True(t, item.CurrentStock.Equal(dec("-3")))
	})

	t.Run("crossing the reorder point raises an alert once", func(t *testing.T) {
		item := createTestInventoryItem(t, "12")

		_, err := item.ApplyMovement(MovementRequest{Delta: dec("-3"), Type: MovementTypeLoss}, DefaultStockPolicy())
		require.NoError(t, err)
		assert.Contains(t, eventTypes(item), EventTypeStockBelowReorderPoint)
		assert.True(t, item.IsBelowReorderPoint())

		item.ClearDomainEvents()
		_, err = item.ApplyMovement(MovementRequest{Delta: dec("-1"), Type: MovementTypeLoss}, DefaultStockPolicy())
		require.NoError(t, err)
		assert.NotContains(t, eventTypes(item), EventTypeStockBelowReorderPoint)
	})
}

func TestStockPolicy_Check(t *testing.T) {
	strict := StockPolicy{AllowNegativeStock: true, EnforceMovementSign: true}

	tests := []struct {
		name    string
		typ     MovementType
		delta   string
		wantErr bool
	}{
		{"restock positive", MovementTypeRestock, "5", false},
		{"restock negative", MovementTypeRestock, "-5", true},
		{"initial negative", MovementTypeInitial, "-1", true},
		{"loss negative", MovementTypeLoss, "-2", false},
		{"loss positive", MovementTypeLoss, "2", true},
		{"sale positive", MovementTypeSale, "1", true},
		{"adjustment positive", MovementTypeAdjustment, "3", false},
		{"adjustment negative", MovementTypeAdjustment, "-3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := strict.Check(tt.typ, dec(tt.delta))
			if tt.wantErr {
				var de *shared.DomainError
				require.True(t, errors.As(err, &de))
				assert.Equal(t, "INVALID_SIGN", de.Code)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("default policy accepts any sign", func(t *testing.T) {
		assert.NoError(t, DefaultStockPolicy().Check(MovementTypeLoss, dec("4")))
	})
}

func TestParseMovementType(t *testing.T) {
	mt, err := ParseMovementType(" restock ")
	require.NoError(t, err)
	assert.Equal(t, MovementTypeRestock, mt)

	_, err = ParseMovementType("transfer")
	assert.Error(t, err)

	assert.Equal(t, 0, MovementTypeAdjustment.ExpectedSign())
	assert.Len(t, AllMovementTypes, 5)
}

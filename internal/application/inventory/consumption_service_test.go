package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedItem(t *testing.T, store *memStore, name, unit, stock string) *inventory.InventoryItem {
	t.Helper()
	item, err := inventory.NewInventoryItem(name, unit, inventory.DefaultReorderPoint, d("1"))
	require.NoError(t, err)
	item.ClearDomainEvents()
	item.CurrentStock = d(stock)
	store.items[item.ID] = *item
	if !item.CurrentStock.IsZero() {
		store.movements = append(store.movements, inventory.StockMovement{
			ID:              uuid.New(),
			InventoryItemID: item.ID,
			Quantity:        item.CurrentStock,
			MovementType:    inventory.MovementTypeInitial,
			BalanceAfter:    item.CurrentStock,
			CreatedAt:       time.Now().Add(-time.Hour),
		})
	}
	return item
}

func seedProduct(t *testing.T, store *memStore, name string, typ catalog.ProductType) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, typ, d("5"))
	require.NoError(t, err)
	store.products[p.ID] = *p
	return p
}

func seedComponent(t *testing.T, store *memStore, parent *catalog.Product, target catalog.ComponentTarget, qty string) {
	t.Helper()
	c, err := catalog.NewRecipeComponent(parent.ID, target, d(qty))
	require.NoError(t, err)
	store.recipes[parent.ID] = append(store.recipes[parent.ID], *c)
}

func stockOf(store *memStore, id uuid.UUID) decimal.Decimal {
	return store.items[id].CurrentStock
}

func ledgerSum(store *memStore, id uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range store.movements {
		if m.InventoryItemID == id {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum
}

func saleMovements(store *memStore, saleID string) []inventory.StockMovement {
	var out []inventory.StockMovement
	for _, m := range store.movements {
		if m.ReferenceID == saleID && m.MovementType == inventory.MovementTypeSale {
			out = append(out, m)
		}
	}
	return out
}

func newConsumptionService(t *testing.T, store *memStore, policy inventory.StockPolicy) (*ConsumptionService, *recordingPublisher) {
	t.Helper()
	svc := NewConsumptionService(store.scope(), policy, 0)
	pub := &recordingPublisher{}
	svc.SetEventPublisher(pub)
	svc.SetLogger(zaptest.NewLogger(t))
	return svc, pub
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	return de.Code
}

func TestConsumptionService_PopcornScenario(t *testing.T) {
	store := newMemStore()
	kernels := seedItem(t, store, "Popcorn Kernels", "kg", "100")
	popcorn := seedProduct(t, store, "Large Popcorn", catalog.ProductTypeSimple)
	seedComponent(t, store, popcorn, catalog.ItemTarget(kernels.ID), "0.2")
	svc, pub := newConsumptionService(t, store, inventory.DefaultStockPolicy())
	userID := uuid.New()

	result, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID:    "1001",
		LineItems: []SaleLineItem{{ProductID: popcorn.ID, Quantity: d("3")}},
		UserID:    &userID,
	})

	require.NoError(t, err)
	assert.True(t, stockOf(store, kernels.ID).Equal(d("99.4")))
	movements := saleMovements(store, "1001")
	require.Len(t, movements, 1)
	assert.True(t, movements[0].Quantity.Equal(d("-0.6")))
	assert.Equal(t, &userID, movements[0].UserID)
	assert.Equal(t, "Sale of product Large Popcorn", movements[0].Notes)
	assert.True(t, ledgerSum(store, kernels.ID).Equal(stockOf(store, kernels.ID)))

	require.Len(t, result.Movements, 1)
	assert.True(t, result.Movements[0].BalanceAfter.Equal(d("99.4")))
	assert.Empty(t, result.Anomalies)
	assert.Contains(t, pub.types(), inventory.EventTypeSaleConsumptionApplied)
	assert.Contains(t, pub.types(), inventory.EventTypeStockMovementRecorded)
}

func TestConsumptionService_ComboExpansion(t *testing.T) {
	store := newMemStore()
	itemX := seedItem(t, store, "Raw X", "unit", "100")
	itemY := seedItem(t, store, "Raw Y", "unit", "100")

	childA := seedProduct(t, store, "Child A", catalog.ProductTypeSimple)
	seedComponent(t, store, childA, catalog.ItemTarget(itemY.ID), "3")
	combo := seedProduct(t, store, "Combo", catalog.ProductTypeCombo)
	seedComponent(t, store, combo, catalog.ProductTarget(childA.ID), "2")
	seedComponent(t, store, combo, catalog.ItemTarget(itemX.ID), "1")

	svc, _ := newConsumptionService(t, store, inventory.DefaultStockPolicy())

	_, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID:    "2001",
		LineItems: []SaleLineItem{{ProductID: combo.ID, Quantity: d("5")}},
	})

	require.NoError(t, err)
	assert.True(t, stockOf(store, itemY.ID).Equal(d("70")))
	assert.True(t, stockOf(store, itemX.ID).Equal(d("95")))
	assert.Len(t, saleMovements(store, "2001"), 2)
}

func TestConsumptionService_AtomicityOnFailedLine(t *testing.T) {
	store := newMemStore()
	cups := seedItem(t, store, "Cups", "unit", "50")
	syrup := seedItem(t, store, "Syrup", "l", "20")
	kernels := seedItem(t, store, "Kernels", "kg", "30")

	soda := seedProduct(t, store, "Soda", catalog.ProductTypeSimple)
	seedComponent(t, store, soda, catalog.ItemTarget(cups.ID), "1")
	water := seedProduct(t, store, "Flavored Water", catalog.ProductTypeSimple)
	seedComponent(t, store, water, catalog.ItemTarget(syrup.ID), "0.1")
	popcorn := seedProduct(t, store, "Popcorn", catalog.ProductTypeSimple)
	seedComponent(t, store, popcorn, catalog.ItemTarget(kernels.ID), "0.2")

	store.failDeltaOn[syrup.ID] = shared.WrapPersistence("update stock", errInjected)
	svc, pub := newConsumptionService(t, store, inventory.DefaultStockPolicy())

	_, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID: "3001",
		LineItems: []SaleLineItem{
			{ProductID: soda.ID, Quantity: d("2")},
			{ProductID: water.ID, Quantity: d("1")},
			{ProductID: popcorn.ID, Quantity: d("1")},
		},
	})

	require.Error(t, err)
	assert.True(t, shared.IsPersistenceError(err))
	assert.Empty(t, saleMovements(store, "3001"))
	assert.True(t, stockOf(store, cups.ID).Equal(d("50")))
	assert.True(t, stockOf(store, syrup.ID).Equal(d("20")))
	assert.True(t, stockOf(store, kernels.ID).Equal(d("30")))
	assert.Empty(t, pub.types(), "nothing is published for a rolled back sale")
}

func TestConsumptionService_ResolverErrorRollsBack(t *testing.T) {
	store := newMemStore()
	cups := seedItem(t, store, "Cups", "unit", "50")
	soda := seedProduct(t, store, "Soda", catalog.ProductTypeSimple)
	seedComponent(t, store, soda, catalog.ItemTarget(cups.ID), "1")
	svc, _ := newConsumptionService(t, store, inventory.DefaultStockPolicy())

	_, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID: "3002",
		LineItems: []SaleLineItem{
			{ProductID: soda.ID, Quantity: d("1")},
			{ProductID: uuid.New(), Quantity: d("1")},
		},
	})

	assert.Equal(t, "PRODUCT_NOT_FOUND", domainCode(t, err))
	assert.Empty(t, saleMovements(store, "3002"))
	assert.True(t, stockOf(store, cups.ID).Equal(d("50")))
}

func TestConsumptionService_SaleAppliedOnlyOnce(t *testing.T) {
	store := newMemStore()
	cups := seedItem(t, store, "Cups", "unit", "10")
	soda := seedProduct(t, store, "Soda", catalog.ProductTypeSimple)
	seedComponent(t, store, soda, catalog.ItemTarget(cups.ID), "1")
	svc, _ := newConsumptionService(t, store, inventory.DefaultStockPolicy())
	req := DeductStockForSaleRequest{
		SaleID:    "4001",
		LineItems: []SaleLineItem{{ProductID: soda.ID, Quantity: d("1")}},
	}

	_, err := svc.DeductStockForSale(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.DeductStockForSale(context.Background(), req)
	assert.Equal(t, "SALE_ALREADY_APPLIED", domainCode(t, err))
	assert.True(t, stockOf(store, cups.ID).Equal(d("9")))
}

func TestConsumptionService_NegativeStockPolicy(t *testing.T) {
	build := func(t *testing.T) (*memStore, *inventory.InventoryItem, *catalog.Product) {
		store := newMemStore()
		cups := seedItem(t, store, "Cups", "unit", "1")
		soda := seedProduct(t, store, "Soda", catalog.ProductTypeSimple)
		seedComponent(t, store, soda, catalog.ItemTarget(cups.ID), "1")
		return store, cups, soda
	}

	t.Run("allowed by default with a warning", func(t *testing.T) {
		store, cups, soda := build(t)
		svc, pub := newConsumptionService(t, store, inventory.DefaultStockPolicy())

		result, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
			SaleID:    "5001",
			LineItems: []SaleLineItem{{ProductID: soda.ID, Quantity: d("3")}},
		})

		require.NoError(t, err)
		assert.True(t, stockOf(store, cups.ID).Equal(d("-2")))
		assert.Len(t, result.Warnings, 1)
		assert.Contains(t, pub.types(), inventory.EventTypeNegativeStockDetected)
	})

	t.Run("refused when negative stock is disabled", func(t *testing.T) {
		store, cups, soda := build(t)
		svc, _ := newConsumptionService(t, store, inventory.StockPolicy{AllowNegativeStock: false})

		_, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
			SaleID:    "5002",
			LineItems: []SaleLineItem{{ProductID: soda.ID, Quantity: d("3")}},
		})

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.True(t, stockOf(store, cups.ID).Equal(d("1")))
		assert.Empty(t, saleMovements(store, "5002"))
	})
}

func TestConsumptionService_SameItemAcrossLinesSeesRunningBalance(t *testing.T) {
	store := newMemStore()
	cups := seedItem(t, store, "Cups", "unit", "10")
	soda := seedProduct(t, store, "Soda", catalog.ProductTypeSimple)
	seedComponent(t, store, soda, catalog.ItemTarget(cups.ID), "1")
	svc, _ := newConsumptionService(t, store, inventory.StockPolicy{AllowNegativeStock: false})

	_, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID: "5003",
		LineItems: []SaleLineItem{
			{ProductID: soda.ID, Quantity: d("6")},
			{ProductID: soda.ID, Quantity: d("6")},
		},
	})

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, stockOf(store, cups.ID).Equal(d("10")))
}

func TestConsumptionService_EmptyRecipeAnomaly(t *testing.T) {
	store := newMemStore()
	nachos := seedProduct(t, store, "Nachos", catalog.ProductTypeSimple)
	svc, pub := newConsumptionService(t, store, inventory.DefaultStockPolicy())

	result, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID:    "6001",
		LineItems: []SaleLineItem{{ProductID: nachos.ID, Quantity: d("2")}},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Movements)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, catalog.AnomalyEmptyRecipe, result.Anomalies[0].Kind)
	assert.Equal(t, []string{inventory.EventTypeSaleConsumptionApplied}, pub.types())
}

func TestConsumptionService_Validation(t *testing.T) {
	store := newMemStore()
	soda := seedProduct(t, store, "Soda", catalog.ProductTypeSimple)
	svc, _ := newConsumptionService(t, store, inventory.DefaultStockPolicy())
	ctx := context.Background()

	tests := []struct {
		name string
		req  DeductStockForSaleRequest
		code string
	}{
		{"missing sale id", DeductStockForSaleRequest{LineItems: []SaleLineItem{{ProductID: soda.ID, Quantity: d("1")}}}, "INVALID_REFERENCE"},
		{"no lines", DeductStockForSaleRequest{SaleID: "x"}, "INVALID_QUANTITY"},
		{"zero quantity", DeductStockForSaleRequest{SaleID: "x", LineItems: []SaleLineItem{{ProductID: soda.ID, Quantity: decimal.Zero}}}, "INVALID_QUANTITY"},
		{"negative quantity", DeductStockForSaleRequest{SaleID: "x", LineItems: []SaleLineItem{{ProductID: soda.ID, Quantity: d("-1")}}}, "INVALID_QUANTITY"},
		{"missing product", DeductStockForSaleRequest{SaleID: "x", LineItems: []SaleLineItem{{Quantity: d("1")}}}, "INVALID_COMPONENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.DeductStockForSale(ctx, tt.req)
			assert.Equal(t, tt.code, domainCode(t, err))
		})
	}
}

func TestConsumptionService_PreviewDoesNotWrite(t *testing.T) {
	store := newMemStore()
	kernels := seedItem(t, store, "Popcorn Kernels", "kg", "100")
	popcorn := seedProduct(t, store, "Large Popcorn", catalog.ProductTypeSimple)
	seedComponent(t, store, popcorn, catalog.ItemTarget(kernels.ID), "0.2")
	svc, _ := newConsumptionService(t, store, inventory.DefaultStockPolicy())
	before := len(store.movements)

	preview, err := svc.PreviewConsumption(context.Background(), popcorn.ID, d("10"))

	require.NoError(t, err)
	assert.True(t, preview.Totals[kernels.ID].Equal(d("-2")))
	assert.Len(t, store.movements, before)
	assert.True(t, stockOf(store, kernels.ID).Equal(d("100")))
}

type countingRecorder struct {
	sales    int
	failures []string
}

func (r *countingRecorder) RecordSale(_ context.Context, _, _, _ int) { r.sales++ }
func (r *countingRecorder) RecordFailure(_ context.Context, code string) {
	r.failures = append(r.failures, code)
}

func TestConsumptionService_RecordsOutcomes(t *testing.T) {
	store := newMemStore()
	soda := seedProduct(t, store, "Soda", catalog.ProductTypeSimple)
	svc, _ := newConsumptionService(t, store, inventory.DefaultStockPolicy())
	rec := &countingRecorder{}
	svc.SetRecorder(rec)

	_, err := svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID: "7001", LineItems: []SaleLineItem{{ProductID: soda.ID, Quantity: d("1")}},
	})
	require.NoError(t, err)
	_, err = svc.DeductStockForSale(context.Background(), DeductStockForSaleRequest{
		SaleID: "7002", LineItems: []SaleLineItem{{ProductID: uuid.New(), Quantity: d("1")}},
	})
	require.Error(t, err)

	assert.Equal(t, 1, rec.sales)
	assert.Equal(t, []string{"PRODUCT_NOT_FOUND"}, rec.failures)
}

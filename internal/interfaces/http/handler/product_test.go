package handler

import (
	"net/http"
	"testing"

	catalogapp "github.com/StoneFind22/CineMan/internal/application/catalog"
	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductHandler_CRUD(t *testing.T) {
	f := newAPIFixture(t)

	product := f.createProduct(t, "Hot Dog")
	assert.Equal(t, "SIMPLE", product.ProductType)
	assert.True(t, product.IsActive)
	assert.True(t, product.TrackStock)

	w := f.do(t, http.MethodPut, "/api/v1/products/"+product.ID.String(), map[string]any{"price": "12.50"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[catalogapp.ProductResponse](t, w).Data
	assert.True(t, decimal.RequireFromString("12.5").Equal(updated.Price))
	assert.Equal(t, "Hot Dog", updated.Name)

	w = f.do(t, http.MethodPost, "/api/v1/products/"+product.ID.String()+"/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[catalogapp.ProductResponse](t, w).Data.IsActive)

	w = f.do(t, http.MethodGet, "/api/v1/products?is_active=false", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[[]catalogapp.ProductResponse](t, w).Data, 1)

	w = f.do(t, http.MethodPost, "/api/v1/products/"+product.ID.String()+"/activate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/products", map[string]any{"name": "Hot Dog", "price": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/products", map[string]any{"name": "Nachos", "price": "-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PRICE", decode[any](t, w).Error.Code)

	w = f.do(t, http.MethodGet, "/api/v1/products?category_id=oops", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/products/"+product.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = f.do(t, http.MethodGet, "/api/v1/products/"+product.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandler_Recipe(t *testing.T) {
	f := newComboFixture(t, "10", "20")

	w := f.do(t, http.MethodGet, "/api/v1/products/"+f.combo.String()+"/recipe", nil)
	require.Equal(t, http.StatusOK, w.Code)
	components := decode[[]catalogapp.RecipeComponentResponse](t, w).Data
	require.Len(t, components, 2)
	assert.Equal(t, 0, components[0].Position)
	require.NotNil(t, components[0].ChildProductID)

	t.Run("cycle is refused", func(t *testing.T) {
		popcorn := *components[0].ChildProductID
		w := f.do(t, http.MethodPut, "/api/v1/products/"+popcorn.String()+"/recipe", map[string]any{
			"components": []map[string]any{{"child_product_id": f.combo, "quantity": "1"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.Equal(t, "BOM_CYCLE_DETECTED", decode[any](t, w).Error.Code)
	})

	t.Run("component must reference exactly one target", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/v1/products/"+f.combo.String()+"/recipe", map[string]any{
			"components": []map[string]any{{
				"inventory_item_id": f.kernels,
				"child_product_id":  components[0].ChildProductID,
				"quantity":          "1",
			}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_COMPONENT", decode[any](t, w).Error.Code)
	})

	t.Run("unknown inventory item", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/v1/products/"+f.combo.String()+"/recipe", map[string]any{
			"components": []map[string]any{{"inventory_item_id": uuid.New(), "quantity": "1"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	})
}

func TestProductHandler_PreviewConsumption(t *testing.T) {
	f := newComboFixture(t, "10", "20")
	path := "/api/v1/products/" + f.combo.String() + "/consumption"

	w := f.do(t, http.MethodGet, path+"?quantity=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[inventoryapp.ConsumptionPreview](t, w).Data
	assert.True(t, decimal.RequireFromString("0.8").Equal(preview.Totals[f.kernels]))
	assert.True(t, decimal.RequireFromString("2").Equal(preview.Totals[f.syrup]))

	t.Run("defaults to one unit", func(t *testing.T) {
		w := f.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		preview := decode[inventoryapp.ConsumptionPreview](t, w).Data
		assert.True(t, decimal.RequireFromString("0.4").Equal(preview.Totals[f.kernels]))
	})

	t.Run("preview writes nothing", func(t *testing.T) {
		assert.True(t, decimal.NewFromInt(10).Equal(f.stock(t, f.kernels)))
	})

	for _, q := range []string{"0", "-1", "abc"} {
		w := f.do(t, http.MethodGet, path+"?quantity="+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Equal(t, dto.ErrCodeValidation, decode[any](t, w).Error.Code, q)
	}
}

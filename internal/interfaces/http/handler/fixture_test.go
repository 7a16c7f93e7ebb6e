package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	catalogapp "github.com/StoneFind22/CineMan/internal/application/catalog"
	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/infrastructure/cache"
	"github.com/StoneFind22/CineMan/internal/infrastructure/persistence"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/dto"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// apiFixture serves the real handlers on top of an in-memory database
type apiFixture struct {
	db     *gorm.DB
	engine *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(persistence.SchemaModels()...))

	policy := inventory.StockPolicy{AllowNegativeStock: false, EnforceMovementSign: true}
	items := persistence.NewGormInventoryItemRepository(db)
	movements := persistence.NewGormStockMovementRepository(db)
	products := persistence.NewGormProductRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	recipes := persistence.NewGormRecipeRepository(db)
	txScope := persistence.NewGormTransactionScope(db)

	inventorySvc := inventoryapp.NewInventoryService(items, movements, recipes, txScope, policy)
	consumptionSvc := inventoryapp.NewConsumptionService(txScope, policy, 0)
	productSvc := catalogapp.NewProductService(products, categories, recipes, items,
		persistence.NewGormRecipeTransactionScope(db), 0)
	categorySvc := catalogapp.NewCategoryService(categories, products)

	store := cache.NewMemoryPlanStore(time.Hour, time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	importSvc := importapp.NewReconciliationService(items, txScope, store, policy,
		importapp.ReconciliationConfig{MaxFileSize: 1 << 20, MaxRows: 1000})

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.UserAttribution())
	api := engine.Group("/api/v1")

	itemH := NewInventoryItemHandler(inventorySvc)
	inv := api.Group("/inventory")
	inv.POST("/items", itemH.CreateItem)
	inv.GET("/items", itemH.ListItems)
	inv.GET("/items/:id", itemH.GetItem)
	inv.PUT("/items/:id", itemH.UpdateItem)
	inv.DELETE("/items/:id", itemH.DeleteItem)
	inv.POST("/items/:id/movements", itemH.RecordMovement)
	inv.GET("/items/:id/movements", itemH.ListItemMovements)
	inv.GET("/items/:id/reconcile", itemH.ReconcileStock)
	inv.GET("/movements", itemH.ListMovements)

	importH := NewImportHandler(importSvc, 1<<20)
	inv.POST("/import/analyze", importH.Analyze)
	inv.GET("/import/:planId", importH.GetPlan)
	inv.POST("/import/:planId/execute", importH.Execute)

	saleH := NewSaleHandler(consumptionSvc, inventorySvc)
	api.POST("/sales/:saleId/consumption", saleH.DeductStockForSale)
	api.GET("/sales/:saleId/movements", saleH.GetSaleMovements)

	productH := NewProductHandler(productSvc, consumptionSvc)
	api.POST("/products", productH.Create)
	api.GET("/products", productH.List)
	api.GET("/products/:id", productH.GetByID)
	api.PUT("/products/:id", productH.Update)
	api.DELETE("/products/:id", productH.Delete)
	api.POST("/products/:id/activate", productH.Activate)
	api.POST("/products/:id/deactivate", productH.Deactivate)
	api.GET("/products/:id/recipe", productH.GetRecipe)
	api.PUT("/products/:id/recipe", productH.ReplaceRecipe)
	api.GET("/products/:id/consumption", productH.PreviewConsumption)

	categoryH := NewCategoryHandler(categorySvc)
	api.POST("/categories", categoryH.Create)
	api.GET("/categories", categoryH.List)
	api.GET("/categories/:id", categoryH.GetByID)
	api.PUT("/categories/:id", categoryH.Update)
	api.DELETE("/categories/:id", categoryH.Delete)

	return &apiFixture{db: db, engine: engine}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// typedResponse decodes the envelope with a concrete data type
type typedResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) typedResponse[T] {
	t.Helper()
	var resp typedResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (f *apiFixture) createItem(t *testing.T, name, unit, stock string) inventoryapp.InventoryItemResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/inventory/items", map[string]any{
		"name":          name,
		"unit":          unit,
		"initial_stock": stock,
		"cost_per_unit": "0.5",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[inventoryapp.InventoryItemResponse](t, w).Data
}

func (f *apiFixture) createProduct(t *testing.T, name string) catalogapp.ProductResponse {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"name":  name,
		"price": "45.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[catalogapp.ProductResponse](t, w).Data
}

package router

import (
	"github.com/StoneFind22/CineMan/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers served under the versioned API
type Handlers struct {
	Inventory  *handler.InventoryItemHandler
	Import     *handler.ImportHandler
	Sales      *handler.SaleHandler
	Products   *handler.ProductHandler
	Categories *handler.CategoryHandler
	System     *handler.SystemHandler
}

// InventoryRoutes serves items, the movement ledger and CSV reconciliation
func InventoryRoutes(items *handler.InventoryItemHandler, imports *handler.ImportHandler) *DomainGroup {
	g := NewDomainGroup("inventory", "/inventory")

	g.POST("/items", items.CreateItem)
	g.GET("/items", items.ListItems)
	g.GET("/items/:id", items.GetItem)
	g.PUT("/items/:id", items.UpdateItem)
	g.DELETE("/items/:id", items.DeleteItem)
	g.POST("/items/:id/movements", items.RecordMovement)
	g.GET("/items/:id/movements", items.ListItemMovements)
	g.GET("/items/:id/reconcile", items.ReconcileStock)
	g.GET("/movements", items.ListMovements)

	if imports != nil {
		imp := g.Group("import", "/import")
		imp.POST("/analyze", imports.Analyze)
		imp.GET("/:planId", imports.GetPlan)
		imp.POST("/:planId/execute", imports.Execute)
	}
	return g
}

// SaleRoutes serves recipe-driven stock deduction for POS sales
func SaleRoutes(sales *handler.SaleHandler) *DomainGroup {
	g := NewDomainGroup("sales", "/sales")
	g.POST("/:saleId/consumption", sales.DeductStockForSale)
	g.GET("/:saleId/movements", sales.GetSaleMovements)
	return g
}

// ProductRoutes serves the sellable catalog and recipes
func ProductRoutes(products *handler.ProductHandler) *DomainGroup {
	g := NewDomainGroup("products", "/products")
	g.POST("", products.Create)
	g.GET("", products.List)
	g.GET("/:id", products.GetByID)
	g.PUT("/:id", products.Update)
	g.DELETE("/:id", products.Delete)
	g.POST("/:id/activate", products.Activate)
	g.POST("/:id/deactivate", products.Deactivate)
	g.GET("/:id/recipe", products.GetRecipe)
	g.PUT("/:id/recipe", products.ReplaceRecipe)
	g.GET("/:id/consumption", products.PreviewConsumption)
	return g
}

// CategoryRoutes serves product categories
func CategoryRoutes(categories *handler.CategoryHandler) *DomainGroup {
	g := NewDomainGroup("categories", "/categories")
	g.POST("", categories.Create)
	g.GET("", categories.List)
	g.GET("/:id", categories.GetByID)
	g.PUT("/:id", categories.Update)
	g.DELETE("/:id", categories.Delete)
	return g
}

// SystemRoutes serves build information and liveness
func SystemRoutes(system *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", system.GetSystemInfo)
	g.GET("/ping", system.Ping)
	return g
}

// Groups returns the domain groups for the configured handlers. Nil
// handlers are skipped.
func (h Handlers) Groups() []*DomainGroup {
	var groups []*DomainGroup
	if h.Inventory != nil {
		groups = append(groups, InventoryRoutes(h.Inventory, h.Import))
	}
	if h.Sales != nil {
		groups = append(groups, SaleRoutes(h.Sales))
	}
	if h.Products != nil {
		groups = append(groups, ProductRoutes(h.Products))
	}
	if h.Categories != nil {
		groups = append(groups, CategoryRoutes(h.Categories))
	}
	if h.System != nil {
		groups = append(groups, SystemRoutes(h.System))
	}
	return groups
}

package handler

import (
	"strings"

	catalogapp "github.com/StoneFind22/CineMan/internal/application/catalog"
	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductHandler handles sellable product and recipe endpoints
type ProductHandler struct {
	BaseHandler
	productService     *catalogapp.ProductService
	consumptionService *inventoryapp.ConsumptionService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService, consumptionService *inventoryapp.ConsumptionService) *ProductHandler {
	return &ProductHandler{
		productService:     productService,
		consumptionService: consumptionService,
	}
}

// ConsumptionPreviewQuery is the query of the consumption preview endpoint
type ConsumptionPreviewQuery struct {
	Quantity string `form:"quantity" binding:"omitempty,decimal_gt0"`
}

// Create godoc
// @ID           createProduct
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateProductRequest true "Product"
// @Success      201 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Category not found"
// @Failure      409 {object} ErrorResponse
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalogapp.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetByID godoc
// @ID           getProduct
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List godoc
// @ID           listProducts
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        search query string false "Name search"
// @Param        category_id query string false "Category ID" format(uuid)
// @Param        product_type query string false "Product type" Enums(SIMPLE, COMBO, SERVICE)
// @Param        is_active query boolean false "Active flag"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(name)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} PageResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	categoryID, ok := h.QueryUUID(c, "category_id")
	if !ok {
		return
	}
	filter.CategoryID = categoryID
	pageDefaults(&filter.Page, &filter.PageSize)

	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// Update godoc
// @ID           updateProduct
// @Summary      Update a product
// @Description  Omitted fields are left unchanged
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.UpdateProductRequest true "Product fields"
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}
	var req catalogapp.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Delete godoc
// @ID           deleteProduct
// @Summary      Delete a product
// @Description  Products used as a combo component cannot be deleted
// @Tags         products
// @Param        id path string true "Product ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.productService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate godoc
// @ID           activateProduct
// @Summary      Activate a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /products/{id}/activate [post]
func (h *ProductHandler) Activate(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.Activate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate godoc
// @ID           deactivateProduct
// @Summary      Deactivate a product
// @Description  Inactive products are skipped (with a warning) when they appear inside a combo
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[catalogapp.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /products/{id}/deactivate [post]
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.productService.Deactivate(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// GetRecipe godoc
// @ID           getProductRecipe
// @Summary      Get a product's recipe
// @Tags         recipes
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[[]catalogapp.RecipeComponentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /products/{id}/recipe [get]
func (h *ProductHandler) GetRecipe(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}

	components, err := h.productService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, components)
}

// ReplaceRecipe godoc
// @ID           replaceProductRecipe
// @Summary      Replace a product's recipe
// @Description  Replaces all components at once. Each component references either an inventory item
// @Description  or a child product. Cycles and excessive nesting are rejected.
// @Tags         recipes
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        request body catalogapp.ReplaceRecipeRequest true "Components"
// @Success      200 {object} APIResponse[[]catalogapp.RecipeComponentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse "Cycle or depth exceeded"
// @Router       /products/{id}/recipe [put]
func (h *ProductHandler) ReplaceRecipe(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}
	var req catalogapp.ReplaceRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	components, err := h.productService.ReplaceRecipe(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, components)
}

// PreviewConsumption godoc
// @ID           previewProductConsumption
// @Summary      Preview what a sale would consume
// @Description  Resolves the recipe tree without touching stock
// @Tags         recipes
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Param        quantity query string false "Units sold" default(1)
// @Success      200 {object} APIResponse[inventoryapp.ConsumptionPreview]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /products/{id}/consumption [get]
func (h *ProductHandler) PreviewConsumption(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "product")
	if !ok {
		return
	}
	var query ConsumptionPreviewQuery
	if !h.BindQuery(c, &query) {
		return
	}
	quantity := decimal.NewFromInt(1)
	if query.Quantity != "" {
		q, err := decimal.NewFromString(strings.TrimSpace(query.Quantity))
		if err != nil {
			h.BadRequest(c, "quantity must be a decimal number")
			return
		}
		quantity = q
	}

	preview, err := h.consumptionService.PreviewConsumption(c.Request.Context(), id, quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}

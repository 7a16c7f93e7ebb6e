package handler

import (
	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// InventoryItemHandler handles raw material stock endpoints
type InventoryItemHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewInventoryItemHandler creates a new InventoryItemHandler
func NewInventoryItemHandler(inventoryService *inventoryapp.InventoryService) *InventoryItemHandler {
	return &InventoryItemHandler{inventoryService: inventoryService}
}

// CreateItem godoc
// @ID           createInventoryItem
// @Summary      Register an inventory item
// @Description  Registers a raw material. A positive initial stock is booked as an INITIAL movement.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting user" format(uuid)
// @Param        request body inventoryapp.CreateItemRequest true "Item"
// @Success      201 {object} APIResponse[inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/items [post]
func (h *InventoryItemHandler) CreateItem(c *gin.Context) {
	var req inventoryapp.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.UserID = actingUser(c)

	item, err := h.inventoryService.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem godoc
// @ID           getInventoryItem
// @Summary      Get an inventory item
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/items/{id} [get]
func (h *InventoryItemHandler) GetItem(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "inventory item")
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ListItems godoc
// @ID           listInventoryItems
// @Summary      List current stock
// @Description  Lists inventory items with their cached stock, optionally only those below the reorder point
// @Tags         inventory
// @Produce      json
// @Param        search query string false "Name search"
// @Param        below_reorder query boolean false "Only items at or below the reorder point"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(name)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} PageResponse[inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/items [get]
func (h *InventoryItemHandler) ListItems(c *gin.Context) {
	var filter inventoryapp.ItemListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	pageDefaults(&filter.Page, &filter.PageSize)

	items, total, err := h.inventoryService.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// UpdateItem godoc
// @ID           updateInventoryItem
// @Summary      Update an inventory item
// @Description  Changes name, unit, reorder point and cost. Stock only changes through movements.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        request body inventoryapp.UpdateItemRequest true "Item fields"
// @Success      200 {object} APIResponse[inventoryapp.InventoryItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /inventory/items/{id} [put]
func (h *InventoryItemHandler) UpdateItem(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "inventory item")
	if !ok {
		return
	}
	var req inventoryapp.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteItem godoc
// @ID           deleteInventoryItem
// @Summary      Delete an inventory item
// @Description  Only items without movements or recipe references can be deleted
// @Tags         inventory
// @Param        id path string true "Inventory item ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /inventory/items/{id} [delete]
func (h *InventoryItemHandler) DeleteItem(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "inventory item")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RecordMovement godoc
// @ID           recordStockMovement
// @Summary      Record a manual stock movement
// @Description  Books a RESTOCK, ADJUSTMENT or LOSS movement. The quantity is a signed delta.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting user" format(uuid)
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        request body inventoryapp.RecordMovementRequest true "Movement"
// @Success      201 {object} APIResponse[inventoryapp.StockMovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /inventory/items/{id}/movements [post]
func (h *InventoryItemHandler) RecordMovement(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "inventory item")
	if !ok {
		return
	}
	var req inventoryapp.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.ItemID = id
	req.UserID = actingUser(c)

	movement, err := h.inventoryService.RecordMovement(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// ListItemMovements godoc
// @ID           listInventoryItemMovements
// @Summary      Movement history of one item
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Param        from query string false "From (RFC3339)"
// @Param        to query string false "To (RFC3339)"
// @Param        type query string false "Movement type"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(200)
// @Success      200 {object} PageResponse[inventoryapp.StockMovementResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/items/{id}/movements [get]
func (h *InventoryItemHandler) ListItemMovements(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "inventory item")
	if !ok {
		return
	}
	var filter inventoryapp.MovementListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	filter.ItemID = &id
	h.listMovements(c, filter)
}

// ListMovements godoc
// @ID           listStockMovements
// @Summary      Query the movement ledger
// @Description  Filters the ledger by item, date range, type and reference
// @Tags         inventory
// @Produce      json
// @Param        item_id query string false "Inventory item ID" format(uuid)
// @Param        from query string false "From (RFC3339)"
// @Param        to query string false "To (RFC3339)"
// @Param        type query string false "Movement type" Enums(SALE, RESTOCK, ADJUSTMENT, LOSS, INITIAL)
// @Param        reference_id query string false "Reference (sale ID, import plan)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(200)
// @Success      200 {object} PageResponse[inventoryapp.StockMovementResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /inventory/movements [get]
func (h *InventoryItemHandler) ListMovements(c *gin.Context) {
	var filter inventoryapp.MovementListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	itemID, ok := h.QueryUUID(c, "item_id")
	if !ok {
		return
	}
	filter.ItemID = itemID
	h.listMovements(c, filter)
}

func (h *InventoryItemHandler) listMovements(c *gin.Context, filter inventoryapp.MovementListFilter) {
	pageDefaults(&filter.Page, &filter.PageSize)

	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// ReconcileStock godoc
// @ID           reconcileInventoryItem
// @Summary      Compare cached stock with the ledger
// @Description  Reports the difference between current_stock and the sum of the item's movements
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Inventory item ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.StockReconciliationResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /inventory/items/{id}/reconcile [get]
func (h *InventoryItemHandler) ReconcileStock(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id", "inventory item")
	if !ok {
		return
	}

	report, err := h.inventoryService.ReconcileStock(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

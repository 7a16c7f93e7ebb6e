package handler

import (
	"strings"

	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// maxSaleIDLength matches the reference_id column
const maxSaleIDLength = 100

// SaleHandler exposes stock consumption for POS sales
type SaleHandler struct {
	BaseHandler
	consumptionService *inventoryapp.ConsumptionService
	inventoryService   *inventoryapp.InventoryService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(consumptionService *inventoryapp.ConsumptionService, inventoryService *inventoryapp.InventoryService) *SaleHandler {
	return &SaleHandler{
		consumptionService: consumptionService,
		inventoryService:   inventoryService,
	}
}

// DeductStockForSale godoc
// @ID           deductStockForSale
// @Summary      Consume stock for a completed sale
// @Description  Expands every sold product through its recipe and books one SALE movement per inventory item,
// @Description  all or nothing. A sale can only be applied once.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Cashier" format(uuid)
// @Param        saleId path string true "Sale identifier from the POS"
// @Param        request body inventoryapp.DeductStockForSaleRequest true "Sold lines"
// @Success      201 {object} APIResponse[inventoryapp.SaleConsumptionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Sale already applied"
// @Failure      422 {object} ErrorResponse "Insufficient stock or recipe error"
// @Failure      500 {object} ErrorResponse
// @Router       /sales/{saleId}/consumption [post]
func (h *SaleHandler) DeductStockForSale(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}
	var req inventoryapp.DeductStockForSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.SaleID = saleID
	req.UserID = actingUser(c)

	result, err := h.consumptionService.DeductStockForSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetSaleMovements godoc
// @ID           getSaleMovements
// @Summary      Movements booked for a sale
// @Tags         sales
// @Produce      json
// @Param        saleId path string true "Sale identifier from the POS"
// @Success      200 {object} APIResponse[[]inventoryapp.StockMovementResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sales/{saleId}/movements [get]
func (h *SaleHandler) GetSaleMovements(c *gin.Context) {
	saleID, ok := h.saleID(c)
	if !ok {
		return
	}

	movements, err := h.inventoryService.GetMovementsByReference(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

func (h *SaleHandler) saleID(c *gin.Context) (string, bool) {
	saleID := strings.TrimSpace(c.Param("saleId"))
	if saleID == "" || len(saleID) > maxSaleIDLength {
		h.InvalidID(c, "sale")
		return "", false
	}
	return saleID, true
}

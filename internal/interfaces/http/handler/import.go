package handler

import (
	"io"
	"net/http"
	"strings"

	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	csvimport "github.com/StoneFind22/CineMan/internal/infrastructure/import"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/dto"
	"github.com/StoneFind22/CineMan/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// importFileField is the multipart field carrying the uploaded file
const importFileField = "file"

// ImportHandler handles the two-phase stock import (analyze, then execute)
type ImportHandler struct {
	BaseHandler
	reconciliationService *importapp.ReconciliationService
	maxFileSize           int64
}

// NewImportHandler creates a new ImportHandler. Uploads larger than
// maxFileSize bytes are refused before parsing; zero disables the check.
func NewImportHandler(reconciliationService *importapp.ReconciliationService, maxFileSize int64) *ImportHandler {
	return &ImportHandler{
		reconciliationService: reconciliationService,
		maxFileSize:           maxFileSize,
	}
}

// AnalyzeRowsRequest carries already parsed rows, for clients that read the file themselves
type AnalyzeRowsRequest struct {
	Rows []csvimport.ImportRow `json:"rows" binding:"required,min=1"`
}

// ExecutePlanRequest controls how an analyzed plan is applied
type ExecutePlanRequest struct {
	// ValidRowsOnly applies the clean rows of a plan that also has row errors
	ValidRowsOnly bool `json:"valid_rows_only"`
}

// Analyze godoc
// @ID           analyzeInventoryImport
// @Summary      Analyze a stock import
// @Description  Dry run: matches each row against existing items by name and unit and classifies it as a
// @Description  restock, a new item or an error. Nothing is written; the plan is kept for execution.
// @Description  Send either a multipart CSV/XLSX upload in the "file" field or a JSON body with rows.
// @Tags         import
// @Accept       multipart/form-data
// @Accept       json
// @Produce      json
// @Param        file formData file false "CSV or XLSX file"
// @Param        request body AnalyzeRowsRequest false "Parsed rows"
// @Success      200 {object} APIResponse[importapp.ReconciliationPlan]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Router       /inventory/import/analyze [post]
func (h *ImportHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		data, filename, ok := h.readUpload(c)
		if !ok {
			return
		}
		plan, err := h.reconciliationService.AnalyzeFile(ctx, filename, data)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, plan)
		return
	}

	var req AnalyzeRowsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	plan, err := h.reconciliationService.Analyze(ctx, req.Rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// GetPlan godoc
// @ID           getInventoryImportPlan
// @Summary      Get an analyzed import plan
// @Tags         import
// @Produce      json
// @Param        planId path string true "Plan ID" format(uuid)
// @Success      200 {object} APIResponse[importapp.ReconciliationPlan]
// @Failure      404 {object} ErrorResponse "Plan not found or expired"
// @Router       /inventory/import/{planId} [get]
func (h *ImportHandler) GetPlan(c *gin.Context) {
	planID, ok := h.ParamUUID(c, "planId", "plan")
	if !ok {
		return
	}

	plan, err := h.reconciliationService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, plan)
}

// Execute godoc
// @ID           executeInventoryImport
// @Summary      Execute an analyzed import plan
// @Description  Applies the plan in one transaction: restocks become RESTOCK movements, new items get an
// @Description  INITIAL movement. Plans with row errors are refused unless valid_rows_only is set.
// @Tags         import
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting user" format(uuid)
// @Param        planId path string true "Plan ID" format(uuid)
// @Param        request body ExecutePlanRequest false "Options"
// @Success      200 {object} APIResponse[importapp.ReconciliationResult]
// @Failure      404 {object} ErrorResponse "Plan not found or expired"
// @Failure      422 {object} ErrorResponse "Plan has errors"
// @Router       /inventory/import/{planId}/execute [post]
func (h *ImportHandler) Execute(c *gin.Context) {
	planID, ok := h.ParamUUID(c, "planId", "plan")
	if !ok {
		return
	}
	var req ExecutePlanRequest
	if c.Request.ContentLength != 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	result, err := h.reconciliationService.ExecutePlan(c.Request.Context(), planID, importapp.ExecuteOptions{
		UserID:        actingUser(c),
		ValidRowsOnly: req.ValidRowsOnly,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ImportHandler) readUpload(c *gin.Context) ([]byte, string, bool) {
	header, err := c.FormFile(importFileField)
	if err != nil {
		if middleware.BodyTooLarge(err) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Uploaded file is too large")
			return nil, "", false
		}
		h.BadRequest(c, "A file is required in the \"file\" field")
		return nil, "", false
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Uploaded file is too large")
		return nil, "", false
	}

	f, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Uploaded file cannot be read")
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.BadRequest(c, "Uploaded file cannot be read")
		return nil, "", false
	}
	return data, header.Filename, true
}

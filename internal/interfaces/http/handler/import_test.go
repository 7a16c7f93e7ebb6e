package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *apiFixture) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(importFileField, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/import/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestImportHandler_AnalyzeAndExecuteCSV(t *testing.T) {
	f := newAPIFixture(t)
	kernels := f.createItem(t, "Maiz pop", "kg", "5")

	csv := "nombre;unidad_medida;cantidad;costo_unitario\n" +
		"Maiz pop;kg;20.5;\n" +
		"Vasos 22oz;unid;500;0.12\n"
	w := f.upload(t, "compras.csv", []byte(csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	plan := decode[importapp.ReconciliationPlan](t, w).Data
	assert.Equal(t, "compras.csv", plan.FileName)
	assert.Equal(t, 2, plan.TotalRows)
	require.Len(t, plan.ToUpdate, 1)
	assert.Equal(t, kernels.ID, plan.ToUpdate[0].ItemID)
	require.Len(t, plan.ToCreate, 1)
	assert.Equal(t, "Vasos 22oz", plan.ToCreate[0].Name)
	assert.Zero(t, plan.TotalErrors)

	t.Run("analysis writes nothing", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/inventory/items/"+kernels.ID.String(), nil)
		assert.True(t, decimal.NewFromInt(5).Equal(decode[inventoryapp.InventoryItemResponse](t, w).Data.CurrentStock))
	})

	t.Run("plan can be fetched", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/inventory/import/"+plan.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, plan.ID, decode[importapp.ReconciliationPlan](t, w).Data.ID)
	})

	user := uuid.New()
	w = f.do(t, http.MethodPost, "/api/v1/inventory/import/"+plan.ID.String()+"/execute", nil,
		"X-User-ID", user.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[importapp.ReconciliationResult](t, w).Data
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)

	w = f.do(t, http.MethodGet, "/api/v1/inventory/items/"+kernels.ID.String(), nil)
	assert.True(t, decimal.RequireFromString("25.5").Equal(decode[inventoryapp.InventoryItemResponse](t, w).Data.CurrentStock))

	w = f.do(t, http.MethodGet, "/api/v1/inventory/movements?reference_id=IMPORT-"+plan.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]inventoryapp.StockMovementResponse](t, w).Data, 2)

	t.Run("plan is consumed by execution", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/inventory/import/"+plan.ID.String()+"/execute", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "PLAN_NOT_FOUND", decode[any](t, w).Error.Code)
	})
}

func TestImportHandler_PlanWithErrors(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/inventory/import/analyze", map[string]any{
		"rows": []map[string]any{
			{"name": "Nachos", "unit": "bolsa", "quantity": "40"},
			{"name": "Queso cheddar", "unit": "kg", "quantity": "muchos"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	plan := decode[importapp.ReconciliationPlan](t, w).Data
	assert.Equal(t, 1, plan.TotalErrors)
	require.Len(t, plan.Errors, 1)
	assert.Equal(t, 3, plan.Errors[0].Row)

	execPath := "/api/v1/inventory/import/" + plan.ID.String() + "/execute"
	w = f.do(t, http.MethodPost, execPath, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "PLAN_HAS_ERRORS", decode[any](t, w).Error.Code)

	w = f.do(t, http.MethodPost, execPath, map[string]any{"valid_rows_only": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[importapp.ReconciliationResult](t, w).Data
	assert.Equal(t, 1, result.Created)
}

func TestImportHandler_BadUploads(t *testing.T) {
	f := newAPIFixture(t)

	w := f.upload(t, "compras.pdf", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE", decode[any](t, w).Error.Code)

	w = f.upload(t, "compras.csv", []byte("descripcion;precio\nx;1\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/inventory/import/analyze", map[string]any{"rows": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/inventory/import/not-a-plan", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

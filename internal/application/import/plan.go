package importapp

import (
	"context"
	"time"

	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	csvimport "github.com/StoneFind22/CineMan/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrPlanNotFound is returned when a plan expired or never existed
var ErrPlanNotFound = shared.NewDomainError("PLAN_NOT_FOUND", "Import plan not found or expired")

// ErrPlanAlreadyApplied is returned when the ledger already holds the plan's movements
var ErrPlanAlreadyApplied = shared.NewDomainError("PLAN_ALREADY_APPLIED", "Import plan was already applied")

// PlannedCreate is a row that will register a new inventory item
type PlannedCreate struct {
	RowNumber    int             `json:"row"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
}

// PlannedRestock is a row that matched an existing item and will restock it
type PlannedRestock struct {
	RowNumber    int             `json:"row"`
	ItemID       uuid.UUID       `json:"item_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// ReconciliationPlan is the dry-run outcome of an import file.
// Building one never touches stock.
type ReconciliationPlan struct {
	ID          uuid.UUID            `json:"id"`
	FileName    string               `json:"file_name,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	TotalRows   int                  `json:"total_rows"`
	ToUpdate    []PlannedRestock     `json:"to_update"`
	ToCreate    []PlannedCreate      `json:"to_create"`
	Errors      []csvimport.RowError `json:"errors"`
	TotalErrors int                  `json:"total_errors"`
	IsTruncated bool                 `json:"is_truncated,omitempty"`
}

// HasErrors reports whether any row was rejected
func (p *ReconciliationPlan) HasErrors() bool {
	return p.TotalErrors > 0
}

// PlanStore keeps analyzed plans until they are executed or expire
type PlanStore interface {
	// Save stores the plan under its ID
	Save(ctx context.Context, plan *ReconciliationPlan) error
	// Get returns the plan, or ErrPlanNotFound
	Get(ctx context.Context, id uuid.UUID) (*ReconciliationPlan, error)
	// Take removes and returns the plan in one step, so of two callers
	// racing on the same ID only one gets it. Missing plans yield ErrPlanNotFound.
	Take(ctx context.Context, id uuid.UUID) (*ReconciliationPlan, error)
	// Delete removes the plan. Deleting a missing plan is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ImportArchive keeps a copy of uploaded import files
type ImportArchive interface {
	Put(ctx context.Context, planID uuid.UUID, filename string, data []byte) (string, error)
}

// ExecuteOptions control how a plan is applied
type ExecuteOptions struct {
	UserID *uuid.UUID
	// ValidRowsOnly applies the clean rows of a plan that also has row errors
	ValidRowsOnly bool
}

// ReconciliationResult is the outcome of an executed plan
type ReconciliationResult struct {
	PlanID         uuid.UUID                            `json:"plan_id"`
	Created        int                                  `json:"created"`
	Updated        int                                  `json:"updated"`
	Skipped        int                                  `json:"skipped"`
	CreatedItemIDs []uuid.UUID                          `json:"created_item_ids"`
	UpdatedItemIDs []uuid.UUID                          `json:"updated_item_ids"`
	Movements      []inventoryapp.StockMovementResponse `json:"movements"`
}

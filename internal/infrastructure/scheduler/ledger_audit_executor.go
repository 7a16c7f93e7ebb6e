package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const auditPageSize = 200

// ItemSource lists inventory items for the audit
type ItemSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error)
	FindAll(ctx context.Context, filter inventory.ItemFilter) ([]inventory.InventoryItem, error)
}

// LedgerSource sums ledger deltas per item
type LedgerSource interface {
	SumByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}

// Drift is an item whose cached stock disagrees with its ledger
type Drift struct {
	InventoryItemID uuid.UUID
	Name            string
	CurrentStock    decimal.Decimal
	LedgerSum       decimal.Decimal
}

// Difference returns CurrentStock minus LedgerSum
func (d Drift) Difference() decimal.Decimal {
	return d.CurrentStock.Sub(d.LedgerSum)
}

// AuditResult summarizes one ledger audit
type AuditResult struct {
	Checked int
	Drifts  []Drift
}

// LedgerAuditExecutor recomputes every audited item's balance from the
// ledger and reports items whose current_stock has drifted. It only reads.
type LedgerAuditExecutor struct {
	items   ItemSource
	ledger  LedgerSource
	logger  *zap.Logger
	onDrift func(ctx context.Context, d Drift)
}

// NewLedgerAuditExecutor creates a new LedgerAuditExecutor
func NewLedgerAuditExecutor(items ItemSource, ledger LedgerSource, logger *zap.Logger) *LedgerAuditExecutor {
	return &LedgerAuditExecutor{items: items, ledger: ledger, logger: logger}
}

// OnDrift registers a callback invoked for every drifted item
func (e *LedgerAuditExecutor) OnDrift(fn func(ctx context.Context, d Drift)) {
	e.onDrift = fn
}

// Execute implements JobExecutor
func (e *LedgerAuditExecutor) Execute(ctx context.Context, job *Job) error {
	result := &AuditResult{}
	job.Result = result

	if len(job.ItemIDs) > 0 {
		for _, id := range job.ItemIDs {
			item, err := e.items.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					e.logger.Warn("Audited item no longer exists", zap.String("inventory_item_id", id.String()))
					continue
				}
				return fmt.Errorf("load item %s: %w", id, err)
			}
			if err := e.check(ctx, item, result); err != nil {
				return err
			}
		}
		return nil
	}

	filter := inventory.ItemFilter{Filter: shared.DefaultFilter()}
	filter.PageSize = auditPageSize
	filter.OrderBy = "created_at"
	filter.OrderDir = "asc"
	for {
		items, err := e.items.FindAll(ctx, filter)
		if err != nil {
			return fmt.Errorf("list items page %d: %w", filter.Page, err)
		}
		for i := range items {
			if err := e.check(ctx, &items[i], result); err != nil {
				return err
			}
		}
		if len(items) < filter.PageSize {
			return nil
		}
		filter.Page++
	}
}

func (e *LedgerAuditExecutor) check(ctx context.Context, item *inventory.InventoryItem, result *AuditResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sum, err := e.ledger.SumByItem(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("sum ledger for %s: %w", item.ID, err)
	}
	result.Checked++
	if item.CurrentStock.Equal(sum) {
		return nil
	}

	d := Drift{
		InventoryItemID: item.ID,
		Name:            item.Name,
		CurrentStock:    item.CurrentStock,
		LedgerSum:       sum,
	}
	result.Drifts = append(result.Drifts, d)
	e.logger.Warn("Stock drift between item and ledger",
		zap.String("inventory_item_id", item.ID.String()),
		zap.String("name", item.Name),
		zap.String("current_stock", item.CurrentStock.String()),
		zap.String("ledger_sum", sum.String()),
		zap.String("difference", d.Difference().String()),
	)
	if e.onDrift != nil {
		e.onDrift(ctx, d)
	}
	return nil
}

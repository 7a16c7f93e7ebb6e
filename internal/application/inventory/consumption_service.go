package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/StoneFind22/CineMan/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConsumptionRecorder observes committed and failed sale deductions
type ConsumptionRecorder interface {
	RecordSale(ctx context.Context, lineItems, movements, anomalies int)
	RecordFailure(ctx context.Context, code string)
}

// ConsumptionService turns sales into raw-material consumption.
// A sale's whole expansion is applied in one transaction: either every ledger
// entry and stock update commits or none does.
type ConsumptionService struct {
	txScope        TransactionScope
	policy         inventory.StockPolicy
	maxDepth       int
	eventPublisher shared.EventPublisher
	recorder       ConsumptionRecorder
	logger         *zap.Logger
}

// NewConsumptionService creates a new ConsumptionService
func NewConsumptionService(txScope TransactionScope, policy inventory.StockPolicy, maxRecipeDepth int) *ConsumptionService {
	return &ConsumptionService{
		txScope:  txScope,
		policy:   policy,
		maxDepth: maxRecipeDepth,
		logger:   zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ConsumptionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRecorder sets the metrics recorder
func (s *ConsumptionService) SetRecorder(recorder ConsumptionRecorder) {
	s.recorder = recorder
}

// SetLogger sets the logger used for anomalies and stock warnings
func (s *ConsumptionService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// DeductStockForSale expands every line item of a sale through the recipe
// graph and records one SALE movement per raw-item delta, tagged with the sale ID.
func (s *ConsumptionService) DeductStockForSale(ctx context.Context, req DeductStockForSaleRequest) (*SaleConsumptionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "consumption", "deduct_for_sale",
		telemetry.WithAttribute(telemetry.SpanAttrSaleID, req.SaleID),
		telemetry.WithAttribute(telemetry.SpanAttrLineItems, len(req.LineItems)),
	)
	defer span.End()

	var (
		result *SaleConsumptionResult
		err    error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("deduct_for_sale", nil), func(ctx context.Context) {
		result, err = s.deduct(ctx, req)
	})
	if err != nil {
		code := errorCode(err)
		telemetry.RecordError(span, err)
		telemetry.SetAttributes(span, telemetry.SpanAttrErrorCode, code)
		if s.recorder != nil {
			s.recorder.RecordFailure(ctx, code)
		}
		s.logger.Error("sale consumption rolled back",
			zap.String("sale_id", req.SaleID),
			zap.Int("line_items", len(req.LineItems)),
			zap.String("trace_id", telemetry.GetTraceID(ctx)),
			zap.Error(err))
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrMovements, len(result.Movements),
		telemetry.SpanAttrAnomalies, len(result.Anomalies),
	)
	for _, a := range result.Anomalies {
		telemetry.AddEvent(span, "recipe_anomaly",
			telemetry.SpanAttrProductID, a.ProductID.String(),
			"kind", string(a.Kind))
	}
	if s.recorder != nil {
		s.recorder.RecordSale(ctx, len(req.LineItems), len(result.Movements), len(result.Anomalies))
	}
	return result, nil
}

func (s *ConsumptionService) deduct(ctx context.Context, req DeductStockForSaleRequest) (*SaleConsumptionResult, error) {
	saleID := strings.TrimSpace(req.SaleID)
	if saleID == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Sale ID is required")
	}
	if len(req.LineItems) == 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "A sale needs at least one line item")
	}
	for i, line := range req.LineItems {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_COMPONENT", fmt.Sprintf("Line %d: product ID is required", i+1))
		}
		if !line.Quantity.IsPositive() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Line %d: quantity sold must be greater than zero", i+1))
		}
	}

	result := &SaleConsumptionResult{
		SaleID:    saleID,
		Movements: make([]StockMovementResponse, 0),
	}
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		applied, err := repos.MovementRepo().ExistsByReference(ctx, saleID, inventory.MovementTypeSale)
		if err != nil {
			return err
		}
		if applied {
			return shared.NewDomainError("SALE_ALREADY_APPLIED", fmt.Sprintf("Stock for sale %s was already deducted", saleID))
		}

		resolver := catalog.NewBOMResolver(repos.ProductRepo(), repos.RecipeRepo(), s.maxDepth)
		writer := NewStockWriter(repos, s.policy)

		for _, line := range req.LineItems {
			res, err := resolver.Resolve(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			result.Anomalies = append(result.Anomalies, res.Anomalies...)

			for _, c := range res.Consumptions {
				m, err := writer.Apply(ctx, c.InventoryItemID, inventory.MovementRequest{
					Delta:       c.Quantity,
					Type:        inventory.MovementTypeSale,
					ReferenceID: saleID,
					UserID:      req.UserID,
					Notes:       "Sale of product " + c.SourceProductName,
				})
				if err != nil {
					return err
				}
				result.Movements = append(result.Movements, ToStockMovementResponse(m))
				if m.BalanceAfter.IsNegative() {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("Inventory item %s is at negative stock %s", m.InventoryItemID, m.BalanceAfter))
				}
			}
		}
		events = writer.Events()
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range result.Anomalies {
		s.logger.Warn("recipe anomaly during sale consumption",
			zap.String("sale_id", saleID),
			zap.String("kind", string(a.Kind)),
			zap.String("product_id", a.ProductID.String()),
			zap.String("product_name", a.ProductName))
	}
	for _, w := range result.Warnings {
		s.logger.Warn("negative stock after sale", zap.String("sale_id", saleID), zap.String("detail", w))
	}

	events = append(events, inventory.NewSaleConsumptionAppliedEvent(saleID, len(result.Movements), len(result.Anomalies)))
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, events...)
	}

	s.logger.Info("sale consumption applied",
		zap.String("sale_id", saleID),
		zap.Int("line_items", len(req.LineItems)),
		zap.Int("movements", len(result.Movements)))
	return result, nil
}

// ConsumptionPreview is the dry-run expansion of a product
type ConsumptionPreview struct {
	ProductID    uuid.UUID                     `json:"product_id"`
	Quantity     decimal.Decimal               `json:"quantity"`
	Consumptions []catalog.Consumption         `json:"consumptions"`
	Totals       map[uuid.UUID]decimal.Decimal `json:"totals"`
	Anomalies    []catalog.Anomaly             `json:"anomalies,omitempty"`
}

// PreviewConsumption resolves what selling quantity units of a product would
// consume, without writing anything
func (s *ConsumptionService) PreviewConsumption(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal) (*ConsumptionPreview, error) {
	var preview *ConsumptionPreview
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		res, err := catalog.NewBOMResolver(repos.ProductRepo(), repos.RecipeRepo(), s.maxDepth).Resolve(ctx, productID, quantity)
		if err != nil {
			return err
		}
		preview = &ConsumptionPreview{
			ProductID:    res.ProductID,
			Quantity:     res.Quantity,
			Consumptions: res.Consumptions,
			Totals:       res.TotalsByItem(),
			Anomalies:    res.Anomalies,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preview, nil
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	if shared.IsPersistenceError(err) {
		return "PERSISTENCE_ERROR"
	}
	return "INTERNAL_ERROR"
}

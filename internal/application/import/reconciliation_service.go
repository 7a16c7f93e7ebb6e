package importapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	csvimport "github.com/StoneFind22/CineMan/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconciliationConfig holds the importer limits
type ReconciliationConfig struct {
	MaxErrors   int
	MaxFileSize int64
	MaxRows     int
}

// ReconciliationService turns stock count files into plans and applies them.
// Matched items are restocked by the file quantity, unmatched ones are created
// with an INITIAL movement. Descriptive fields of existing items are never
// overwritten.
type ReconciliationService struct {
	itemRepo       inventory.InventoryItemRepository
	txScope        inventoryapp.TransactionScope
	store          PlanStore
	policy         inventory.StockPolicy
	config         ReconciliationConfig
	archive        ImportArchive
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	itemRepo inventory.InventoryItemRepository,
	txScope inventoryapp.TransactionScope,
	store PlanStore,
	policy inventory.StockPolicy,
	config ReconciliationConfig,
) *ReconciliationService {
	if config.MaxErrors <= 0 {
		config.MaxErrors = 100
	}
	return &ReconciliationService{
		itemRepo: itemRepo,
		txScope:  txScope,
		store:    store,
		policy:   policy,
		config:   config,
		logger:   zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetArchive enables archiving of uploaded files
func (s *ReconciliationService) SetArchive(archive ImportArchive) {
	s.archive = archive
}

// SetLogger sets the logger
func (s *ReconciliationService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// AnalyzeFile parses an uploaded CSV or XLSX file and analyzes its rows.
// File-level problems (format, encoding, missing columns) are returned as
// INVALID_FILE domain errors.
func (s *ReconciliationService) AnalyzeFile(ctx context.Context, filename string, data []byte) (*ReconciliationPlan, error) {
	reader := csvimport.NewFileReader(s.config.MaxFileSize, s.config.MaxRows)
	rows, err := reader.Read(filename, bytes.NewReader(data))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FILE", err.Error())
	}

	plan, err := s.analyze(ctx, rows)
	if err != nil {
		return nil, err
	}
	plan.FileName = filename

	if s.archive != nil {
		key, err := s.archive.Put(ctx, plan.ID, filename, data)
		if err != nil {
			s.logger.Warn("failed to archive import file",
				zap.String("plan_id", plan.ID.String()),
				zap.String("file", filename),
				zap.Error(err))
		} else {
			s.logger.Debug("import file archived", zap.String("key", key))
		}
	}

	if err := s.save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Analyze classifies rows into restocks, creations and row errors.
// Rows without a row number are numbered as if they followed a header line.
func (s *ReconciliationService) Analyze(ctx context.Context, rows []csvimport.ImportRow) (*ReconciliationPlan, error) {
	if len(rows) == 0 {
		return nil, shared.NewDomainError("INVALID_FILE", csvimport.ErrNoDataRows.Error())
	}
	plan, err := s.analyze(ctx, rows)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *ReconciliationService) analyze(ctx context.Context, rows []csvimport.ImportRow) (*ReconciliationPlan, error) {
	validator := csvimport.NewFieldValidator(csvimport.InventoryRules(), s.config.MaxErrors)
	errs := validator.Errors()

	valid := make([]csvimport.ImportRow, 0, len(rows))
	names := make([]string, 0, len(rows))
	for i, row := range rows {
		if row.RowNumber == 0 {
			row.RowNumber = i + 2
		}
		row.Name = shared.NormalizeName(row.Name)
		if !validator.ValidateRow(row) {
			continue
		}
		valid = append(valid, row)
		names = append(names, row.Name)
	}

	existing, err := s.itemRepo.FindByNames(ctx, names)
	if err != nil {
		return nil, err
	}

	plan := &ReconciliationPlan{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		TotalRows: len(rows),
		ToUpdate:  []PlannedRestock{},
		ToCreate:  []PlannedCreate{},
	}
	createdBy := make(map[string]int)
	for _, row := range valid {
		quantity := *csvimport.ParseDecimal(row.Quantity)

		if item, ok := existing[row.Name]; ok {
			plan.ToUpdate = append(plan.ToUpdate, PlannedRestock{
				RowNumber:    row.RowNumber,
				ItemID:       item.ID,
				Name:         item.Name,
				Unit:         item.Unit,
				CurrentStock: item.CurrentStock,
				Quantity:     quantity,
			})
			continue
		}

		if row.Unit == "" {
			errs.AddRequiredError(row.RowNumber, csvimport.ColumnUnit)
			continue
		}
		if first, dup := createdBy[row.Name]; dup {
			errs.AddDuplicateError(row.RowNumber, csvimport.ColumnName, row.Name, first)
			continue
		}
		createdBy[row.Name] = row.RowNumber

		create := PlannedCreate{
			RowNumber:    row.RowNumber,
			Name:         row.Name,
			Unit:         row.Unit,
			Quantity:     quantity,
			ReorderPoint: inventory.DefaultReorderPoint,
			CostPerUnit:  decimal.Zero,
		}
		if rp := csvimport.ParseDecimal(row.ReorderPoint); rp != nil {
			create.ReorderPoint = *rp
		}
		if cost := csvimport.ParseDecimal(row.Cost); cost != nil {
			create.CostPerUnit = *cost
		}
		plan.ToCreate = append(plan.ToCreate, create)
	}

	plan.Errors = errs.Errors()
	plan.TotalErrors = errs.TotalCount()
	plan.IsTruncated = errs.IsTruncated()

	s.logger.Info("import analyzed",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("rows", plan.TotalRows),
		zap.Int("to_update", len(plan.ToUpdate)),
		zap.Int("to_create", len(plan.ToCreate)),
		zap.Int("errors", plan.TotalErrors))
	return plan, nil
}

func (s *ReconciliationService) save(ctx context.Context, plan *ReconciliationPlan) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(ctx, plan); err != nil {
		return fmt.Errorf("failed to store import plan: %w", err)
	}
	return nil
}

// GetPlan returns a stored plan
func (s *ReconciliationService) GetPlan(ctx context.Context, planID uuid.UUID) (*ReconciliationPlan, error) {
	if s.store == nil {
		return nil, ErrPlanNotFound
	}
	return s.store.Get(ctx, planID)
}

// ExecutePlan claims a stored plan and applies it. A plan that fails to
// apply is put back so it can be retried, or executed with valid rows only.
func (s *ReconciliationService) ExecutePlan(ctx context.Context, planID uuid.UUID, opts ExecuteOptions) (*ReconciliationResult, error) {
	if s.store == nil {
		return nil, ErrPlanNotFound
	}
	plan, err := s.store.Take(ctx, planID)
	if err != nil {
		return nil, err
	}
	result, err := s.Execute(ctx, plan, opts)
	if err != nil {
		if !errors.Is(err, ErrPlanAlreadyApplied) {
			if saveErr := s.store.Save(ctx, plan); saveErr != nil {
				s.logger.Warn("failed to restore import plan after a failed execution",
					zap.String("plan_id", planID.String()), zap.Error(saveErr))
			}
		}
		return nil, err
	}
	return result, nil
}

// Execute applies a plan in a single transaction: any failure rolls back
// every creation and restock of the plan.
func (s *ReconciliationService) Execute(ctx context.Context, plan *ReconciliationPlan, opts ExecuteOptions) (*ReconciliationResult, error) {
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	if plan.HasErrors() && !opts.ValidRowsOnly {
		return nil, shared.NewDomainError("PLAN_HAS_ERRORS",
			fmt.Sprintf("Import plan has %d row error(s); fix the file or execute valid rows only", plan.TotalErrors))
	}

	reference := "IMPORT-" + plan.ID.String()
	var result *ReconciliationResult
	var events []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos inventoryapp.TransactionalRepositories) error {
		result = &ReconciliationResult{
			PlanID:         plan.ID,
			CreatedItemIDs: []uuid.UUID{},
			UpdatedItemIDs: []uuid.UUID{},
			Movements:      []inventoryapp.StockMovementResponse{},
		}
		for _, t := range []inventory.MovementType{inventory.MovementTypeRestock, inventory.MovementTypeInitial} {
			applied, err := repos.MovementRepo().ExistsByReference(ctx, reference, t)
			if err != nil {
				return err
			}
			if applied {
				return ErrPlanAlreadyApplied
			}
		}

		writer := inventoryapp.NewStockWriter(repos, s.policy)

		restock := func(row int, itemID uuid.UUID, quantity decimal.Decimal) error {
			if quantity.IsZero() {
				result.Skipped++
				return nil
			}
			m, err := writer.Apply(ctx, itemID, inventory.MovementRequest{
				Delta:       quantity,
				Type:        inventory.MovementTypeRestock,
				ReferenceID: reference,
				UserID:      opts.UserID,
				Notes:       fmt.Sprintf("Import row %d", row),
			})
			if err != nil {
				return fmt.Errorf("row %d: %w", row, err)
			}
			result.Updated++
			result.UpdatedItemIDs = append(result.UpdatedItemIDs, itemID)
			result.Movements = append(result.Movements, inventoryapp.ToStockMovementResponse(m))
			return nil
		}

		for _, c := range plan.ToCreate {
			// The item may have been registered since the plan was analyzed
			existing, err := repos.ItemRepo().FindByName(ctx, c.Name)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			if existing != nil {
				if err := restock(c.RowNumber, existing.ID, c.Quantity); err != nil {
					return err
				}
				continue
			}

			item, err := inventory.NewInventoryItem(c.Name, c.Unit, c.ReorderPoint, c.CostPerUnit)
			if err != nil {
				return fmt.Errorf("row %d: %w", c.RowNumber, err)
			}
			if err := repos.ItemRepo().Create(ctx, item); err != nil {
				return err
			}
			writer.Track(item)
			if !c.Quantity.IsZero() {
				m, err := writer.Apply(ctx, item.ID, inventory.MovementRequest{
					Delta:       c.Quantity,
					Type:        inventory.MovementTypeInitial,
					ReferenceID: reference,
					UserID:      opts.UserID,
					Notes:       fmt.Sprintf("Import row %d", c.RowNumber),
				})
				if err != nil {
					return fmt.Errorf("row %d: %w", c.RowNumber, err)
				}
				result.Movements = append(result.Movements, inventoryapp.ToStockMovementResponse(m))
			}
			result.Created++
			result.CreatedItemIDs = append(result.CreatedItemIDs, item.ID)
		}


		for _, u := range plan.ToUpdate {
			if err := restock(u.RowNumber, u.ItemID, u.Quantity); err != nil {
				return err
			}
		}

		events = writer.Events()
		return nil
	})
	if err != nil {
		s.logger.Warn("import plan rolled back",
			zap.String("plan_id", plan.ID.String()), zap.Error(err))
		return nil, err
	}

	s.logger.Info("import plan executed",
		zap.String("plan_id", plan.ID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}
	return result, nil
}

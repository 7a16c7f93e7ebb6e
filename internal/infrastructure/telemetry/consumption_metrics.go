package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StockLevelProvider reports how many inventory items are in an alerting state
type StockLevelProvider interface {
	CountBelowReorderPoint(ctx context.Context) (int64, error)
	CountNegative(ctx context.Context) (int64, error)
}

// ConsumptionMetricsConfig configures NewConsumptionMetrics
type ConsumptionMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider StockLevelProvider
}

// ConsumptionMetrics counts sale deductions and samples stock health.
// It satisfies the consumption service's recorder contract.
type ConsumptionMetrics struct {
	logger *zap.Logger

	salesTotal     *Counter
	lineItemsTotal *Counter
	movementsTotal *Counter
	anomaliesTotal *Counter
	failuresTotal  *Counter

	itemsInState *Gauge
	provider     StockLevelProvider

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup
}

// NewConsumptionMetrics registers the consumption instruments on cfg.Meter
func NewConsumptionMetrics(cfg ConsumptionMetricsConfig) (*ConsumptionMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &ConsumptionMetrics{
		logger:   logger,
		provider: cfg.StockProvider,
		stopChan: make(chan struct{}),
	}

	var err error
	if cm.salesTotal, err = NewCounter(cfg.Meter,
		"inventory_sales_consumed_total", "Sales whose stock deduction committed", "{sale}"); err != nil {
		return nil, err
	}
	if cm.lineItemsTotal, err = NewCounter(cfg.Meter,
		"inventory_sale_line_items_total", "Sale line items processed", "{line_item}"); err != nil {
		return nil, err
	}
	if cm.movementsTotal, err = NewCounter(cfg.Meter,
		"inventory_stock_movements_total", "Stock movements written by sale deductions", "{movement}"); err != nil {
		return nil, err
	}
	if cm.anomaliesTotal, err = NewCounter(cfg.Meter,
		"inventory_recipe_anomalies_total", "Recipe anomalies found while expanding sales", "{anomaly}"); err != nil {
		return nil, err
	}
	if cm.failuresTotal, err = NewCounter(cfg.Meter,
		"inventory_sale_consumption_failures_total", "Sale deductions rolled back, by error code", "{sale}"); err != nil {
		return nil, err
	}
	if cm.itemsInState, err = NewGauge(cfg.Meter,
		"inventory_items_in_state", "Inventory items below reorder point or below zero", "{item}"); err != nil {
		return nil, err
	}
	return cm, nil
}

// RecordSale counts one committed sale deduction
func (cm *ConsumptionMetrics) RecordSale(ctx context.Context, lineItems, movements, anomalies int) {
	cm.salesTotal.Inc(ctx)
	cm.lineItemsTotal.Add(ctx, int64(lineItems))
	cm.movementsTotal.Add(ctx, int64(movements), AttrMovementType.String(string(inventory.MovementTypeSale)))
	if anomalies > 0 {
		cm.anomaliesTotal.Add(ctx, int64(anomalies))
	}
}

// RecordFailure counts one rolled back sale deduction
func (cm *ConsumptionMetrics) RecordFailure(ctx context.Context, code string) {
	if code == "" {
		code = "UNKNOWN"
	}
	cm.failuresTotal.Inc(ctx, AttrErrorCode.String(code))
}

// StartPeriodicCollection samples stock health every interval until Stop is
// called or ctx is cancelled. Only the first call starts a collector.
func (cm *ConsumptionMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if cm.provider == nil {
		cm.logger.Debug("No stock level provider, skipping stock gauges")
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	cm.collectOnce.Do(func() {
		cm.wg.Add(1)
		go cm.runPeriodicCollection(ctx, interval)
	})
}

func (cm *ConsumptionMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	defer cm.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cm.CollectStockLevels(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-cm.stopChan:
			return
		case <-ticker.C:
			cm.CollectStockLevels(ctx)
		}
	}
}

// CollectStockLevels records the current below-reorder and negative counts
func (cm *ConsumptionMetrics) CollectStockLevels(ctx context.Context) {
	if cm.provider == nil {
		return
	}
	if n, err := cm.provider.CountBelowReorderPoint(ctx); err != nil {
		cm.logger.Warn("Failed to count items below reorder point", zap.Error(err))
	} else {
		cm.itemsInState.Record(ctx, n, AttrStockState.String("below_reorder_point"))
	}
	if n, err := cm.provider.CountNegative(ctx); err != nil {
		cm.logger.Warn("Failed to count items with negative stock", zap.Error(err))
	} else {
		cm.itemsInState.Record(ctx, n, AttrStockState.String("negative"))
	}
}

// Stop ends periodic collection and waits for the collector to exit
func (cm *ConsumptionMetrics) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopChan) })
	cm.wg.Wait()
}

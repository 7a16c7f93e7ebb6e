package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBInstrumentationConfig controls tracing and metrics on the GORM handle
type DBInstrumentationConfig struct {
	TraceEnabled    bool
	LogFullSQL      bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBInstrumentationConfig hides query variables and flags statements over 200ms
func DefaultDBInstrumentationConfig() DBInstrumentationConfig {
	return DBInstrumentationConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

type dbTimingKey struct{}

// DBInstrumentation is a GORM plugin that times every statement, records
// query metrics, flags slow statements on the active span and in the log,
// and optionally installs otelgorm spans.
type DBInstrumentation struct {
	config DBInstrumentationConfig
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
}

// NewDBInstrumentation creates the plugin. meter may be nil, in which case only
// tracing and slow-query logging are active.
func NewDBInstrumentation(cfg DBInstrumentationConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	p := &DBInstrumentation{config: cfg, logger: logger.Named("db")}
	if meter == nil {
		return p, nil
	}

	var err error
	if p.queryTotal, err = NewCounter(meter,
		"db_query_total", "Database statements by operation and table", "{query}"); err != nil {
		return nil, err
	}
	if p.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if p.slowQueryTotal, err = NewCounter(meter,
		"db_slow_query_total", "Database statements slower than the threshold", "{query}"); err != nil {
		return nil, err
	}
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBInstrumentation) Name() string {
	return "cineman:db_instrumentation"
}

// Initialize implements gorm.Plugin
func (p *DBInstrumentation) Initialize(db *gorm.DB) error {
	if p.config.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
		if !p.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	hooks := []struct {
		op       string
		register func(before, after func(*gorm.DB)) error
	}{
		{"create", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Create().Before("gorm:create").Register("cineman:before_create", b),
				cb.Create().After("gorm:create").Register("cineman:after_create", a))
		}},
		{"query", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Query().Before("gorm:query").Register("cineman:before_query", b),
				cb.Query().After("gorm:query").Register("cineman:after_query", a))
		}},
		{"update", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Update().Before("gorm:update").Register("cineman:before_update", b),
				cb.Update().After("gorm:update").Register("cineman:after_update", a))
		}},
		{"delete", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Delete().Before("gorm:delete").Register("cineman:before_delete", b),
				cb.Delete().After("gorm:delete").Register("cineman:after_delete", a))
		}},
		{"row", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Row().Before("gorm:row").Register("cineman:before_row", b),
				cb.Row().After("gorm:row").Register("cineman:after_row", a))
		}},
		{"raw", func(b, a func(*gorm.DB)) error {
			return errors.Join(
				cb.Raw().Before("gorm:raw").Register("cineman:before_raw", b),
				cb.Raw().After("gorm:raw").Register("cineman:after_raw", a))
		}},
	}
	for _, h := range hooks {
		if err := h.register(p.before, p.afterFor(h.op)); err != nil {
			return err
		}
	}

	p.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", p.config.TraceEnabled),
		zap.Bool("metrics", p.queryTotal != nil),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func (p *DBInstrumentation) before(db *gorm.DB) {
	if db.Statement.Context == nil {
		db.Statement.Context = context.Background()
	}
	db.Statement.Context = context.WithValue(db.Statement.Context, dbTimingKey{}, time.Now())
}

func (p *DBInstrumentation) afterFor(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		p.after(db, op)
	}
}

func (p *DBInstrumentation) after(db *gorm.DB, op string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(dbTimingKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	table := db.Statement.Table
	failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)

	if p.queryTotal != nil {
		attrs := []attribute.KeyValue{AttrDBOperation.String(op), AttrDBTable.String(table)}
		p.queryTotal.Inc(ctx, attrs...)
		p.queryDuration.RecordDuration(ctx, elapsed, attrs...)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if table != "" {
			span.SetAttributes(attribute.String("db.sql.table", table))
		}
		if failed {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}

	if elapsed <= p.config.SlowQueryThresh {
		return
	}
	if p.slowQueryTotal != nil {
		p.slowQueryTotal.Inc(ctx, AttrDBOperation.String(op), AttrDBTable.String(table))
	}
	if span.IsRecording() {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("table", table),
		zap.Duration("elapsed", elapsed),
		zap.String("trace_id", GetTraceID(ctx)),
	}
	if p.config.LogFullSQL {
		fields = append(fields, zap.String("sql", db.Statement.SQL.String()))
	}
	p.logger.Warn("Slow query", fields...)
}

// RegisterDBPoolMetrics exports sql.DB pool statistics as observable gauges
// read at collection time
func RegisterDBPoolMetrics(db *gorm.DB, meter metric.Meter) (metric.Registration, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"), metric.WithUnit("{wait}"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, conns, maxConns, waits)
}

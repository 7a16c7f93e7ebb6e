package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Statement log messages
const (
	MsgStatementFailed = "database statement failed"
	MsgStatementSlow   = "slow database statement"
	MsgStockLockWait   = "slow stock row lock"
	MsgStatement       = "database statement"
)

// GormLogger routes gorm traces into zap. Bound values are left out of the
// logged SQL unless WithBoundValues is set, since sale payloads and import
// rows carry prices and quantities that do not belong in the log stream.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	boundValues   bool
	logNotFound   bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration above which a statement is reported
// at warn. Zero disables slow statement reporting.
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithBoundValues logs SQL with its bound values inlined
func WithBoundValues(enabled bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.boundValues = enabled
	}
}

// WithRecordNotFound reports gorm.ErrRecordNotFound as an error. Lookups
// by sale reference miss on every first apply, so it is off by default.
func WithRecordNotFound(enabled bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.logNotFound = enabled
	}
}

// NewGormLogger creates a gorm logger writing to zapLogger under "db"
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("db"),
		level:         level,
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// ParamsFilter implements gormlogger.ParamsFilter. Returning nil params
// makes gorm render the statement with placeholders.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.boundValues {
		return sql, params
	}
	return sql, nil
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data...)
}

func (l *GormLogger) printf(ctx context.Context, level gormlogger.LogLevel, msg string, data ...any) {
	if l.level < level {
		return
	}
	sugar := l.logger.With(correlationFields(ctx)...).Sugar()
	switch level {
	case gormlogger.Error:
		sugar.Errorf(msg, data...)
	case gormlogger.Warn:
		sugar.Warnf(msg, data...)
	default:
		sugar.Infof(msg, data...)
	}
}

// Trace implements gormlogger.Interface. Slow SELECT ... FOR UPDATE
// statements are reported separately: they are the stock row locks taken
// while a sale is consumed, and a slow one means sales are queueing on
// the same inventory item.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if !l.logNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		_, fields := statementFields(ctx, elapsed, fc)
		l.logger.Error(MsgStatementFailed, append(fields, zap.Error(err))...)

	case slow && l.level >= gormlogger.Warn:
		sql, fields := statementFields(ctx, elapsed, fc)
		msg := MsgStatementSlow
		if strings.Contains(strings.ToUpper(sql), "FOR UPDATE") {
			msg = MsgStockLockWait
		}
		l.logger.Warn(msg, append(fields, zap.Duration("threshold", l.slowThreshold))...)

	case l.level >= gormlogger.Info:
		_, fields := statementFields(ctx, elapsed, fc)
		l.logger.Debug(MsgStatement, fields...)
	}
}

func statementFields(ctx context.Context, elapsed time.Duration, fc func() (string, int64)) (string, []zap.Field) {
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	return sql, append(fields, correlationFields(ctx)...)
}

func correlationFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	return fields
}

// MapGormLogLevel maps the application log level to a gorm level.
// Statements are only traced at debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func statement(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormLogger_Trace(t *testing.T) {
	const lockSQL = `SELECT * FROM "inventory_items" WHERE id = $1 FOR UPDATE`

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		opts      []GormLoggerOption
		elapsed   time.Duration
		sql       string
		err       error
		wantMsg   string
		wantLevel zapcore.Level
	}{
		{
			name:      "failed statement",
			level:     gormlogger.Warn,
			sql:       `UPDATE "inventory_items" SET current_stock = ROUND(current_stock + $1, 3)`,
			err:       errors.New("deadlock detected"),
			wantMsg:   MsgStatementFailed,
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "record not found reported when enabled",
			level:     gormlogger.Warn,
			opts:      []GormLoggerOption{WithRecordNotFound(true)},
			sql:       `SELECT * FROM "stock_movements" WHERE reference_id = $1`,
			err:       gormlogger.ErrRecordNotFound,
			wantMsg:   MsgStatementFailed,
			wantLevel: zapcore.ErrorLevel,
		},
		{
			name:      "slow ledger query",
			level:     gormlogger.Warn,
			opts:      []GormLoggerOption{WithSlowThreshold(time.Millisecond)},
			elapsed:   time.Second,
			sql:       `SELECT * FROM "stock_movements" ORDER BY created_at`,
			wantMsg:   MsgStatementSlow,
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:      "slow stock row lock",
			level:     gormlogger.Warn,
			opts:      []GormLoggerOption{WithSlowThreshold(time.Millisecond)},
			elapsed:   time.Second,
			sql:       lockSQL,
			wantMsg:   MsgStockLockWait,
			wantLevel: zapcore.WarnLevel,
		},
		{
			name:      "statements traced at debug",
			level:     gormlogger.Info,
			opts:      []GormLoggerOption{WithSlowThreshold(0)},
			elapsed:   time.Second,
			sql:       lockSQL,
			wantMsg:   MsgStatement,
			wantLevel: zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			l := NewGormLogger(zap.New(core), tt.level, tt.opts...)

			l.Trace(context.Background(), time.Now().Add(-tt.elapsed), statement(tt.sql), tt.err)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "db", entry.LoggerName)
			assert.Equal(t, tt.sql, entry.ContextMap()["sql"])
		})
	}
}

func TestGormLogger_TraceSilenced(t *testing.T) {
	t.Run("record not found is dropped by default", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)

		l.Trace(context.Background(), time.Now(), statement("SELECT"), gormlogger.ErrRecordNotFound)

		assert.Zero(t, logs.Len())
	})

	t.Run("silent mode", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn).LogMode(gormlogger.Silent)

		l.Trace(context.Background(), time.Now(), statement("SELECT"), errors.New("x"))

		assert.Zero(t, logs.Len())
	})

	t.Run("fast statements below info", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)

		l.Trace(context.Background(), time.Now(), statement("SELECT 1"), nil)

		assert.Zero(t, logs.Len())
	})
}

func TestGormLogger_CarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), gormlogger.Warn)
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-7")

	l.Trace(ctx, time.Now(), statement("UPDATE inventory_items"), errors.New("deadlock"))
	l.Warn(ctx, "pool exhausted after %d waits", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "req-7", e.ContextMap()["request_id"])
	}
	assert.Equal(t, "pool exhausted after 3 waits", entries[1].Message)
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	const sql = `INSERT INTO "stock_movements" ("quantity") VALUES ($1)`

	hidden := NewGormLogger(zap.NewNop(), gormlogger.Info)
	gotSQL, params := hidden.ParamsFilter(context.Background(), sql, "-0.063")
	assert.Equal(t, sql, gotSQL)
	assert.Nil(t, params)

	shown := NewGormLogger(zap.NewNop(), gormlogger.Info, WithBoundValues(true))
	_, params = shown.ParamsFilter(context.Background(), sql, "-0.063")
	assert.Equal(t, []any{"-0.063"}, params)

	var _ gorm.ParamsFilter = hidden
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"debug":  gormlogger.Info,
		"DEBUG":  gormlogger.Info,
		"info":   gormlogger.Warn,
		"warn":   gormlogger.Warn,
		"error":  gormlogger.Error,
		"silent": gormlogger.Silent,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(in), in)
	}
}

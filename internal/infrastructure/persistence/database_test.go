package persistence

import (
	"path/filepath"
	"testing"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/infrastructure/config"
	applogger "github.com/StoneFind22/CineMan/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "cineman.db"),
	}

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.Driver)
	assert.NoError(t, db.Ping())

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)

	require.NoError(t, db.AutoMigrate())
	assert.True(t, db.DB.Migrator().HasTable(&inventory.InventoryItem{}))
	assert.True(t, db.DB.Migrator().HasTable(&inventory.StockMovement{}))
	assert.NoError(t, db.PingContext(t.Context()))
}

func TestNewDatabase_WithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := &config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"}

	db, err := NewDatabase(cfg, WithLogger(applogger.NewGormLogger(zap.New(core), gormlogger.Error)))
	require.NoError(t, err)
	defer db.Close()

	err = db.DB.Exec("SELECT * FROM missing_table").Error
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage(applogger.MsgStatementFailed).Len())
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping())
}

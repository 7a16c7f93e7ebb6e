package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(SchemaModels()...))
	return db
}

// newMockDB opens gorm on top of sqlmock with the postgres dialect
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func seedItem(t *testing.T, db *gorm.DB, name string, stock int64) *inventory.InventoryItem {
	t.Helper()

	item, err := inventory.NewInventoryItem(name, "kg", inventory.DefaultReorderPoint, decimal.NewFromFloat(1.5))
	require.NoError(t, err)
	item.CurrentStock = decimal.NewFromInt(stock)
	require.NoError(t, NewGormInventoryItemRepository(db).Create(t.Context(), item))
	return item
}

func seedProduct(t *testing.T, db *gorm.DB, name string, productType catalog.ProductType) *catalog.Product {
	t.Helper()

	product, err := catalog.NewProduct(name, productType, decimal.NewFromInt(12))
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Create(t.Context(), product))
	return product
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

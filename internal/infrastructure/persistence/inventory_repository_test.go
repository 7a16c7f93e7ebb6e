package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInventoryItemRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	item := seedItem(t, db, "Maíz pira", 100)

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Maíz pira", found.Name)
		assert.True(t, decimal.NewFromInt(100).Equal(found.CurrentStock))
		assert.True(t, inventory.DefaultReorderPoint.Equal(found.ReorderPoint))
		assert.Equal(t, 1, found.Version)
	})

	t.Run("finds by exact name only", func(t *testing.T) {
		found, err := repo.FindByName(ctx, "Maíz pira")
		require.NoError(t, err)
		assert.Equal(t, item.ID, found.ID)

		_, err = repo.FindByName(ctx, "maíz pira")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		_, err := repo.FindByIDForUpdate(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.False(t, shared.IsPersistenceError(err))
	})

	t.Run("duplicate name is ALREADY_EXISTS", func(t *testing.T) {
		dup, err := inventory.NewInventoryItem("Maíz pira", "kg", decimal.Zero, decimal.Zero)
		require.NoError(t, err)

		err = repo.Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("exists by name", func(t *testing.T) {
		exists, err := repo.ExistsByName(ctx, "Maíz pira")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByName(ctx, "Aceite")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormInventoryItemRepository_FindByNames(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInventoryItemRepository(db)

	seedItem(t, db, "Maíz pira", 100)
	seedItem(t, db, "Aceite", 20)

	found, err := repo.FindByNames(context.Background(), []string{"Maíz pira", "Sal", "Aceite"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, "Aceite")
	assert.NotContains(t, found, "Sal")

	empty, err := repo.FindByNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormInventoryItemRepository_CountNegative(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInventoryItemRepository(db)

	seedItem(t, db, "Maíz pira", -3)
	seedItem(t, db, "Aceite", 0)
	seedItem(t, db, "Vasos 16oz", 40)

	count, err := repo.Count(context.Background(), inventory.ItemFilter{Negative: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGormInventoryItemRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	seedItem(t, db, "Maíz pira", 100)
	seedItem(t, db, "Aceite", 5)
	seedItem(t, db, "Vasos 16oz", 10)

	t.Run("ordered by name by default", func(t *testing.T) {
		items, err := repo.FindAll(ctx, inventory.ItemFilter{})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "Aceite", items[0].Name)
		assert.Equal(t, "Vasos 16oz", items[2].Name)
	})

	t.Run("below reorder point includes equality", func(t *testing.T) {
		filter := inventory.ItemFilter{BelowReorder: true}
		items, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		assert.Len(t, items, 2)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		filter := inventory.ItemFilter{Filter: shared.Filter{Search: "VASOS"}}
		items, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Vasos 16oz", items[0].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := inventory.ItemFilter{Filter: shared.Filter{Page: 2, PageSize: 2, OrderBy: "current_stock", OrderDir: "desc"}}
		items, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Aceite", items[0].Name)
	})
}

func TestGormInventoryItemRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	seeded := seedItem(t, db, "Aceite", 20)

	t.Run("saves descriptive fields and leaves stock alone", func(t *testing.T) {
		item, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		item.CurrentStock = decimal.NewFromInt(999)
		require.NoError(t, item.Update("Aceite vegetal", "l", decimal.NewFromInt(4), decimal.NewFromFloat(8.25)))

		require.NoError(t, repo.SaveWithLock(ctx, item))

		stored, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, "Aceite vegetal", stored.Name)
		assert.Equal(t, "l", stored.Unit)
		assert.True(t, decimal.NewFromInt(20).Equal(stored.CurrentStock))
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		stale, err := repo.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.NoError(t, repo.ApplyStockDelta(ctx, seeded.ID, dec("-1")))

		require.NoError(t, stale.Update("Aceite", "l", decimal.NewFromInt(4), decimal.Zero))
		err = repo.SaveWithLock(ctx, stale)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "OPTIMISTIC_LOCK_FAILED", domainErr.Code)
	})
}

func TestGormInventoryItemRepository_ApplyStockDelta(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	item := seedItem(t, db, "Maíz pira", 100)

	require.NoError(t, repo.ApplyStockDelta(ctx, item.ID, dec("-0.6")))
	require.NoError(t, repo.ApplyStockDelta(ctx, item.ID, dec("10")))

	stored, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "109.4", stored.CurrentStock.String())
	assert.Equal(t, 3, stored.Version)

	err = repo.ApplyStockDelta(ctx, uuid.New(), dec("1"))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInventoryItemRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInventoryItemRepository(db)
	ctx := context.Background()

	item := seedItem(t, db, "Sal", 3)

	require.NoError(t, repo.Delete(ctx, item.ID))
	assert.ErrorIs(t, repo.Delete(ctx, item.ID), shared.ErrNotFound)
}

func TestGormInventoryItemRepository_SQL(t *testing.T) {
	t.Run("row lock uses FOR UPDATE on postgres", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInventoryItemRepository(gormDB)
		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "inventory_items" WHERE id = \$1 ORDER BY .* LIMIT \$2 FOR UPDATE`).
			WithArgs(id, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "unit", "current_stock", "version"}).
				AddRow(id.String(), "Maíz pira", "kg", "100", 4))

		item, err := repo.FindByIDForUpdate(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 4, item.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stock delta is an in-database increment", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInventoryItemRepository(gormDB)
		id := uuid.New()

		mock.ExpectExec(`UPDATE "inventory_items" SET "current_stock"=ROUND\(current_stock \+ \$1, 3\),"updated_at"=\$2,"version"=version \+ 1 WHERE id = \$3`).
			WithArgs(dec("-0.6"), sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.ApplyStockDelta(context.Background(), id, dec("-0.6")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failures become persistence errors", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormInventoryItemRepository(gormDB)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "inventory_items"`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.Count(context.Background(), inventory.ItemFilter{})
		assert.True(t, shared.IsPersistenceError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

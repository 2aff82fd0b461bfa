package gormpersistence_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pixel-place/internal/domain"
	gormpersistence "pixel-place/internal/infra/persistence/gorm"
	"pixel-place/internal/infra/setup"
	"pixel-place/internal/repository"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := setup.InitDB(setup.DBOptions{
		Driver: setup.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tiles.db"),
	})
	require.NoError(t, err)
	require.NoError(t, setup.MigrateDB(db))
	t.Cleanup(func() { _ = setup.CloseDB(db) })
	return db
}

func TestGormTileRepository_SeedAndFind(t *testing.T) {
	repo := gormpersistence.NewGormTileRepository(openTestDB(t))
	ctx := context.Background()

	tiles, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tiles)

	seed := []domain.Tile{
		{X: 1, Y: 0, Color: "#FFFFFF"},
		{X: 0, Y: 1, Color: "#FFFFFF"},
		{X: 0, Y: 0, Color: "#FFFFFF"},
	}
	require.NoError(t, repo.CreateBatch(ctx, seed))

	tiles, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tiles, 3)
	assert.Equal(t, [2]int{0, 0}, [2]int{tiles[0].X, tiles[0].Y})
	assert.Equal(t, [2]int{0, 1}, [2]int{tiles[1].X, tiles[1].Y})
	assert.Equal(t, [2]int{1, 0}, [2]int{tiles[2].X, tiles[2].Y})
}

func TestGormTileRepository_CreateBatchDuplicate(t *testing.T) {
	repo := gormpersistence.NewGormTileRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateBatch(ctx, []domain.Tile{{X: 0, Y: 0, Color: "#FFFFFF"}}))
	err := repo.CreateBatch(ctx, []domain.Tile{{X: 1, Y: 1, Color: "#FFFFFF"}, {X: 0, Y: 0, Color: "#000000"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	// 事务回滚，(1,1) 不应被插入
	tiles, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tiles, 1)
	assert.Equal(t, "#FFFFFF", tiles[0].Color)
}

func TestGormTileRepository_SaveColorUpserts(t *testing.T) {
	repo := gormpersistence.NewGormTileRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateBatch(ctx, []domain.Tile{{X: 2, Y: 3, Color: "#FFFFFF"}}))
	require.NoError(t, repo.SaveColor(ctx, domain.Tile{X: 2, Y: 3, Color: "#FF0000"}))
	require.NoError(t, repo.SaveColor(ctx, domain.Tile{X: 4, Y: 4, Color: "#00FF00"}))

	tiles, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tiles, 2, "upsert 不应产生重复坐标")
	assert.Equal(t, "#FF0000", tiles[0].Color)
	assert.Equal(t, "#00FF00", tiles[1].Color)
}

func TestGormTileRepository_SaveColorCanceledContext(t *testing.T) {
	repo := gormpersistence.NewGormTileRepository(openTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.SaveColor(ctx, domain.Tile{X: 0, Y: 0, Color: "#FF0000"})
	assert.Error(t, err)
}

func TestGormActionRepository_SaveAndPrune(t *testing.T) {
	db := openTestDB(t)
	repo := gormpersistence.NewGormActionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := domain.NewTileAction(domain.Tile{X: 1, Y: 1, Color: "#FF0000"}, "old", now.Add(-48*time.Hour))
	fresh := domain.NewTileAction(domain.Tile{X: 1, Y: 1, Color: "#00FF00"}, "fresh", now)
	require.NoError(t, repo.Save(ctx, &old))
	require.NoError(t, repo.Save(ctx, &fresh))
	assert.NotZero(t, old.ID)

	deleted, err := repo.DeleteBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []domain.TileAction
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh", remaining[0].SessionID)

	assert.Error(t, repo.Save(ctx, nil))
}

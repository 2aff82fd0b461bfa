package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pixel-place/internal/domain"
	"pixel-place/internal/repository"
)

// seedBatchSize 控制初始化时每条 INSERT 的行数，避免超出 SQLite 的变量上限
const seedBatchSize = 200

// GormTileRepository 是 TileRepository 接口的 GORM 实现
type GormTileRepository struct {
	db *gorm.DB
}

// NewGormTileRepository 创建 GormTileRepository 实例
func NewGormTileRepository(db *gorm.DB) *GormTileRepository {
	if db == nil {
		panic("database connection cannot be nil for GormTileRepository")
	}
	return &GormTileRepository{db: db}
}

// FindAll 读取所有格子，按 x、y 排序
func (r *GormTileRepository) FindAll(ctx context.Context) ([]domain.Tile, error) {
	var tiles []domain.Tile
	err := r.db.WithContext(ctx).Order("x ASC, y ASC").Find(&tiles).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: failed to load tiles: %w", err)
	}
	return tiles, nil
}

// CreateBatch 在一个事务内批量插入格子
func (r *GormTileRepository) CreateBatch(ctx context.Context, tiles []domain.Tile) error {
	if len(tiles) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&tiles, seedBatchSize).Error
	})
	if err != nil {
		// 需要 gorm.Config.TranslateError 才能识别唯一约束冲突
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("gorm: failed to seed %d tiles: %w", len(tiles), repository.ErrDuplicateEntry)
		}
		return fmt.Errorf("gorm: failed to seed %d tiles: %w", len(tiles), err)
	}
	return nil
}

// SaveColor 按 (x, y) upsert 颜色
func (r *GormTileRepository) SaveColor(ctx context.Context, tile domain.Tile) error {
	row := domain.Tile{X: tile.X, Y: tile.Y, Color: tile.Color}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "x"}, {Name: "y"}},
			DoUpdates: clause.AssignmentColumns([]string{"color", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("gorm: failed to save tile (%d,%d): %w", tile.X, tile.Y, err)
	}
	return nil
}

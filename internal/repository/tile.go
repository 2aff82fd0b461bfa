package repository

import (
	"context"

	"pixel-place/internal/domain"
)

// TileRepository 定义了格子在持久化存储中的操作。
type TileRepository interface {
	// FindAll 返回所有已存储的格子，按 x、y 升序。
	FindAll(ctx context.Context) ([]domain.Tile, error)

	// CreateBatch 批量插入新格子 (用于初始化)。
	// 任一坐标已存在时返回 ErrDuplicateEntry。
	CreateBatch(ctx context.Context, tiles []domain.Tile) error

	// SaveColor 按 (x, y) 写入颜色，行不存在时插入。
	SaveColor(ctx context.Context, tile domain.Tile) error
}

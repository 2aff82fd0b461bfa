package repository

import (
	"context"
	"time"

	"pixel-place/internal/domain"
)

// ActionRepository 定义了格子修改审计记录的存储。
type ActionRepository interface {
	// Save 保存一条审计记录。
	Save(ctx context.Context, action *domain.TileAction) error

	// DeleteBefore 删除 committed_at 早于 cutoff 的记录，返回删除条数。
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

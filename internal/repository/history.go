package repository

import (
	"context"

	"pixel-place/internal/domain"
)

// HistoryRepository 维护最近提交的修改列表，通常由 Redis 实现。
type HistoryRepository interface {
	// PushCommit 追加一条修改并裁剪列表长度，同时递增提交计数。
	PushCommit(ctx context.Context, action domain.TileAction) error

	// RecentCommits 返回最近的最多 limit 条修改，按提交先后排列。
	RecentCommits(ctx context.Context, limit int) ([]domain.TileAction, error)

	// CommitCount 返回累计提交次数，key 不存在时为 0。
	CommitCount(ctx context.Context) (int64, error)
}

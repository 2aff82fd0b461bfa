package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"pixel-place/internal/domain"
)

// GormActionRepository 是 ActionRepository 接口的 GORM 实现
type GormActionRepository struct {
	db *gorm.DB
}

// NewGormActionRepository 创建 GormActionRepository 实例
func NewGormActionRepository(db *gorm.DB) *GormActionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormActionRepository")
	}
	return &GormActionRepository{db: db}
}

// Save 保存一条审计记录
func (r *GormActionRepository) Save(ctx context.Context, action *domain.TileAction) error {
	if action == nil {
		return fmt.Errorf("gorm: cannot save nil tile action")
	}
	if err := r.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("gorm: failed to save tile action (%d,%d): %w", action.X, action.Y, err)
	}
	return nil
}

// DeleteBefore 删除过期的审计记录
func (r *GormActionRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("committed_at < ?", cutoff).
		Delete(&domain.TileAction{})
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: failed to delete tile actions before %v: %w", cutoff, result.Error)
	}
	return result.RowsAffected, nil
}

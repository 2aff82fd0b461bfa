package service

import (
	"context"
	"errors"
	"time"

	"pixel-place/internal/domain"
	"pixel-place/internal/repository"
	"pixel-place/internal/tasks"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TaskEnqueuer 是 asynq.Client 中 HistoryService 用到的部分
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// HistoryService 记录已提交的修改：写入 Redis 最近列表，并投递审计持久化任务。
type HistoryService struct {
	historyRepo repository.HistoryRepository
	enqueuer    TaskEnqueuer
}

// NewHistoryService 创建 HistoryService。enqueuer 可以为 nil (不做审计持久化)。
func NewHistoryService(historyRepo repository.HistoryRepository, enqueuer TaskEnqueuer) *HistoryService {
	if historyRepo == nil {
		panic("HistoryRepository cannot be nil for HistoryService")
	}
	return &HistoryService{
		historyRepo: historyRepo,
		enqueuer:    enqueuer,
	}
}

// RecordCommit 记录一次成功的提交。两个步骤互不影响，返回遇到的错误。
func (s *HistoryService) RecordCommit(ctx context.Context, tile domain.Tile, sessionID string, committedAt time.Time) error {
	action := domain.NewTileAction(tile, sessionID, committedAt)
	logCtx := logrus.WithFields(logrus.Fields{
		"operation":  "RecordCommit",
		"session_id": sessionID,
		"x":          tile.X,
		"y":          tile.Y,
	})

	var errs []error
	if err := s.historyRepo.PushCommit(ctx, action); err != nil {
		logCtx.WithError(err).Warn("Failed to push commit to history")
		errs = append(errs, err)
	}

	if s.enqueuer != nil {
		task, err := tasks.NewTileAuditTask(action)
		if err == nil {
			_, err = s.enqueuer.EnqueueContext(ctx, task, asynq.Queue("default"))
		}
		if err != nil {
			logCtx.WithError(err).Warn("Failed to enqueue tile audit task")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recent 返回最近的提交，以及累计提交次数
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.TileAction, int64, error) {
	commits, err := s.historyRepo.RecentCommits(ctx, limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to read commit history")
		return nil, 0, ErrInternalServer
	}
	count, err := s.historyRepo.CommitCount(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to read commit count")
		return nil, 0, ErrInternalServer
	}
	return commits, count, nil
}

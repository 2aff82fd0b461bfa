package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-place/internal/repository"
	"pixel-place/internal/tasks"
)

// ErrInvalidAuditPayload 表示审计任务的数据不可用，不会重试
var ErrInvalidAuditPayload = errors.New("invalid tile audit payload")

// taskLogger 从 Task 和 Context 中取出任务信息
func taskLogger(ctx context.Context, t *asynq.Task) *logrus.Entry {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	queue, _ := asynq.GetQueueName(ctx)
	currentRetry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"queue":     queue,
		"retry":     currentRetry,
		"max_retry": maxRetry,
	})
}

// TileAuditHandler 把已提交的格子修改写入审计表
type TileAuditHandler struct {
	actionRepo repository.ActionRepository
}

// NewTileAuditHandler 创建 Handler 实例
func NewTileAuditHandler(actionRepo repository.ActionRepository) *TileAuditHandler {
	if actionRepo == nil {
		panic("ActionRepository cannot be nil for TileAuditHandler")
	}
	return &TileAuditHandler{actionRepo: actionRepo}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *TileAuditHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)
	logCtx.Debug("Processing tile audit task...")

	payload, err := tasks.ParseTileAuditPayload(t)
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("%w: %v: %w", ErrInvalidAuditPayload, err, asynq.SkipRetry)
	}
	action := payload.Action
	if action.Color == "" || action.CommittedAt.IsZero() {
		logCtx.Error("Tile audit payload is missing color or commit time")
		return fmt.Errorf("%w: incomplete action: %w", ErrInvalidAuditPayload, asynq.SkipRetry)
	}
	action.ID = 0 // 由数据库分配

	if err := h.actionRepo.Save(ctx, &action); err != nil {
		logCtx.WithError(err).Errorf("Failed to save tile action (%d,%d)", action.X, action.Y)
		return fmt.Errorf("failed to save tile action (%d,%d): %w", action.X, action.Y, err)
	}

	logCtx.WithFields(logrus.Fields{
		"x":          action.X,
		"y":          action.Y,
		"session_id": action.SessionID,
	}).Info("Tile audit task processed successfully")
	return nil
}

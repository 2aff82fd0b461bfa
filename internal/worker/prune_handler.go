package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"pixel-place/internal/repository"
)

// AuditPruneHandler 处理周期性的审计记录清理任务
type AuditPruneHandler struct {
	actionRepo repository.ActionRepository
	retention  time.Duration
	now        func() time.Time
}

// NewAuditPruneHandler 创建 Handler 实例。retention <= 0 时不清理。
func NewAuditPruneHandler(actionRepo repository.ActionRepository, retention time.Duration) *AuditPruneHandler {
	if actionRepo == nil {
		panic("ActionRepository cannot be nil for AuditPruneHandler")
	}
	return &AuditPruneHandler{
		actionRepo: actionRepo,
		retention:  retention,
		now:        time.Now,
	}
}

// ProcessTask 删除 committed_at 早于保留期的记录
func (h *AuditPruneHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := taskLogger(ctx, t)
	if h.retention <= 0 {
		logCtx.Debug("Audit retention disabled, skipping prune")
		return nil
	}

	cutoff := h.now().UTC().Add(-h.retention)
	deleted, err := h.actionRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		logCtx.WithError(err).Error("Failed to prune tile actions")
		return fmt.Errorf("failed to prune tile actions before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	logCtx.WithFields(logrus.Fields{
		"deleted": deleted,
		"cutoff":  cutoff,
	}).Info("Pruned expired tile actions")
	return nil
}

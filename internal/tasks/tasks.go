package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"pixel-place/internal/domain"
)

// 定义任务类型常量
const (
	TypeTileAudit      = "tile:audit"       // 审计记录持久化
	TypeTileAuditPrune = "tile:audit:prune" // 周期性清理过期审计记录
)

// TileAuditPayload 定义了审计持久化任务的数据结构
type TileAuditPayload struct {
	Action domain.TileAction `json:"action"`
}

// NewTileAuditTask 创建一个审计持久化任务
func NewTileAuditTask(action domain.TileAction) (*asynq.Task, error) {
	payload, err := json.Marshal(TileAuditPayload{Action: action})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tile audit payload: %w", err)
	}
	return asynq.NewTask(TypeTileAudit, payload, asynq.MaxRetry(5)), nil
}

// ParseTileAuditPayload 解析审计任务的 payload
func ParseTileAuditPayload(t *asynq.Task) (TileAuditPayload, error) {
	var payload TileAuditPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal tile audit payload: %w", err)
	}
	return payload, nil
}

// NewTileAuditPruneTask 创建周期性清理任务，无 payload
func NewTileAuditPruneTask() *asynq.Task {
	return asynq.NewTask(TypeTileAuditPrune, nil)
}

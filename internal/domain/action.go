package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// TileAction 记录一次已提交的格子修改，用于审计日志和最近修改列表。
type TileAction struct {
	ID          uint      `gorm:"primaryKey" json:"id,omitempty"`
	X           int       `gorm:"index:idx_tile_actions_xy;not null" json:"x"`
	Y           int       `gorm:"index:idx_tile_actions_xy;not null" json:"y"`
	Color       string    `gorm:"size:16;not null" json:"color"`
	SessionID   string    `gorm:"size:64;index" json:"session_id"`
	CommittedAt time.Time `gorm:"index;not null" json:"committed_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
}

// NewTileAction 根据提交结果构造审计记录。
func NewTileAction(tile Tile, sessionID string, committedAt time.Time) TileAction {
	return TileAction{
		X:           tile.X,
		Y:           tile.Y,
		Color:       tile.Color,
		SessionID:   sessionID,
		CommittedAt: committedAt.UTC(),
	}
}

// Tile 返回该操作写入的格子。
func (a TileAction) Tile() Tile {
	return Tile{X: a.X, Y: a.Y, Color: a.Color}
}

// Marshal 序列化为 JSON 字符串 (Redis 列表中的存储格式)。
func (a TileAction) Marshal() (string, error) {
	bytes, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tile action: %w", err)
	}
	return string(bytes), nil
}

// ParseTileAction 反序列化 Marshal 的结果。
func ParseTileAction(raw string) (TileAction, error) {
	var action TileAction
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		return action, fmt.Errorf("failed to unmarshal tile action: %w", err)
	}
	return action, nil
}

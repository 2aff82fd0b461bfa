package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"pixel-place/internal/domain"
)

// 线上消息类型
const (
	TypeRequestTiles = "request_tiles" // 客户端请求全量快照
	TypeTiles        = "tiles"         // 快照，只发给请求者
	TypeUpdateTile   = "update_tile"   // 客户端请求修改一个格子
	TypeTileUpdated  = "tile_updated"  // 已提交的修改，广播给所有连接
	TypeError        = "error"         // 只发给出错的请求者
)

// ErrMalformedMessage 表示无法解析的客户端消息
var ErrMalformedMessage = errors.New("malformed message")

// Envelope 是所有 WebSocket 文本帧的外层结构
type Envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// TileUpdate 是 update_tile 的 payload。坐标用指针以区分缺失和 0。
type TileUpdate struct {
	X     *int   `json:"x"`
	Y     *int   `json:"y"`
	Color string `json:"color"`
}

// DecodeEnvelope 解析客户端发来的原始帧
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return env, nil
}

// DecodeTileUpdate 解析 update_tile 的 data 字段
func (e Envelope) DecodeTileUpdate() (x, y int, color string, err error) {
	if len(e.Data) == 0 {
		return 0, 0, "", fmt.Errorf("%w: update_tile without data", ErrMalformedMessage)
	}
	var update TileUpdate
	if err := json.Unmarshal(e.Data, &update); err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if update.X == nil || update.Y == nil {
		return 0, 0, "", fmt.Errorf("%w: update_tile requires x and y", ErrMalformedMessage)
	}
	return *update.X, *update.Y, update.Color, nil
}

// EncodeTiles 构造 tiles 快照消息
func EncodeTiles(tiles []domain.Tile) ([]byte, error) {
	if tiles == nil {
		tiles = []domain.Tile{}
	}
	return encode(TypeTiles, tiles)
}

// EncodeTileUpdated 构造 tile_updated 广播消息
func EncodeTileUpdated(tile domain.Tile) ([]byte, error) {
	return encode(TypeTileUpdated, tile)
}

// EncodeError 构造 error 消息
func EncodeError(message string) []byte {
	// 只含字符串字段，Marshal 不会失败
	bytes, _ := json.Marshal(Envelope{Type: TypeError, Message: message})
	return bytes
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{Type: msgType, Data: data})
}

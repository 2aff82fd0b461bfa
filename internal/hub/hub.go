package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"pixel-place/internal/domain"
	"pixel-place/internal/dto"
	"pixel-place/internal/service"

	"github.com/sirupsen/logrus"
)

// 包级别的 WebSocket 常量，供 hub 和 client 使用
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// DefaultSendBuffer 是每个连接出站缓冲的默认长度
	DefaultSendBuffer = 256

	// recordTimeout 限制单次历史记录的耗时
	recordTimeout = 5 * time.Second
)

// ErrConnectionLost 表示连接在投递过程中断开或被判定为过慢
var ErrConnectionLost = errors.New("connection lost")

// CommitRecorder 在提交成功后接收通知 (最近修改列表、审计日志)
type CommitRecorder interface {
	RecordCommit(ctx context.Context, tile domain.Tile, sessionID string, committedAt time.Time) error
}

// HubMessage 是投递给调度循环的一条客户端事件
type HubMessage struct {
	Type      string  // dto.TypeRequestTiles 或 dto.TypeUpdateTile
	SessionID string  // 来源连接
	Sender    Session // 用于回复快照和错误
	X, Y      int     // 仅 update_tile
	Color     string  // 仅 update_tile
}

// Hub 组合连接注册表、网格和广播。
// 所有客户端事件由 Run 中的单个循环顺序处理，因此每个连接收到的 tile_updated 顺序与提交顺序一致。
type Hub struct {
	messageChan chan HubMessage
	registry    *Registry
	grid        *service.GridService
	recorder    CommitRecorder
	sendBuffer  int

	done     chan struct{}
	stopOnce sync.Once

	recordMu sync.Mutex
	stopping bool
	records  sync.WaitGroup
}

// NewHub 创建 Hub。recorder 可以为 nil。
func NewHub(grid *service.GridService, recorder CommitRecorder, sendBuffer int) *Hub {
	if grid == nil {
		panic("GridService cannot be nil for Hub")
	}
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		registry:    NewRegistry(),
		grid:        grid,
		recorder:    recorder,
		sendBuffer:  sendBuffer,
		done:        make(chan struct{}),
	}
}

// Run 启动调度循环，应在单独的 goroutine 中运行，Stop 后返回。
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")
	for {
		select {
		case msg := <-h.messageChan:
			h.handleMessage(msg)
		case <-h.done:
			log.Info("Hub is shutting down...")
			return
		}
	}
}

// Stop 停止调度循环并关闭所有连接，可重复调用。
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.recordMu.Lock()
		h.stopping = true
		h.recordMu.Unlock()
		h.registry.ForEach(func(id string, s Session) {
			h.registry.Deregister(id)
			s.Close()
		})
		h.records.Wait()
	})
}

// Register 把连接加入注册表并返回分配的 ID
func (h *Hub) Register(s Session) string {
	id := h.registry.Register(s)
	logrus.WithFields(logrus.Fields{
		"component":  "hub",
		"session_id": id,
		"sessions":   h.registry.Len(),
	}).Info("Session registered")
	return id
}

// Deregister 从注册表移除连接，可重复调用
func (h *Hub) Deregister(id string) {
	if h.registry.Deregister(id) {
		logrus.WithFields(logrus.Fields{
			"component":  "hub",
			"session_id": id,
			"sessions":   h.registry.Len(),
		}).Info("Session deregistered")
	}
}

// SessionCount 返回当前连接数
func (h *Hub) SessionCount() int {
	return h.registry.Len()
}

// Dispatch 把事件交给调度循环。队列满时阻塞调用方 (即该连接的 readPump)，
// Hub 已停止时返回 false。
func (h *Hub) Dispatch(msg HubMessage) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) handleMessage(msg HubMessage) {
	switch msg.Type {
	case dto.TypeRequestTiles:
		h.sendSnapshot(msg)
	case dto.TypeUpdateTile:
		h.handleUpdate(msg)
	default:
		logrus.WithFields(logrus.Fields{
			"component":  "hub",
			"session_id": msg.SessionID,
		}).Warnf("Hub: Received unknown message type: %s", msg.Type)
		h.sendError(msg, "unknown message type: "+msg.Type)
	}
}

// sendSnapshot 只向请求者发送当前全量快照
func (h *Hub) sendSnapshot(msg HubMessage) {
	logCtx := logrus.WithFields(logrus.Fields{
		"session_id": msg.SessionID,
		"operation":  "sendSnapshot",
	})
	if msg.Sender == nil {
		logCtx.Warn("Snapshot requested without a sender, ignoring")
		return
	}
	tiles := h.grid.Snapshot()
	payload, err := dto.EncodeTiles(tiles)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal snapshot message")
		h.sendError(msg, "failed to load tiles")
		return
	}
	if !msg.Sender.Send(payload) {
		h.dropSession(msg.SessionID, msg.Sender, logCtx)
		return
	}
	logCtx.WithField("tiles", len(tiles)).Debug("Snapshot sent")
}

// handleUpdate 提交修改，成功后广播给所有连接，失败只回复请求者
func (h *Hub) handleUpdate(msg HubMessage) {
	logCtx := logrus.WithFields(logrus.Fields{
		"session_id": msg.SessionID,
		"operation":  "handleUpdate",
		"x":          msg.X,
		"y":          msg.Y,
	})

	tile, err := h.grid.Commit(context.Background(), msg.X, msg.Y, msg.Color)
	if err != nil {
		if errors.Is(err, service.ErrStorageFailure) {
			logCtx.WithError(err).Error("Commit failed")
		} else {
			logCtx.WithError(err).Debug("Commit rejected")
		}
		h.sendError(msg, clientErrorMessage(err))
		return
	}

	delivered := h.Publish(tile)
	logCtx.WithFields(logrus.Fields{
		"color":      tile.Color,
		"recipients": delivered,
	}).Info("Tile committed and broadcast")

	if h.recorder != nil {
		h.startRecord(tile, msg.SessionID, time.Now().UTC())
	}
}

// startRecord 在后台记录提交，Stop 之后不再启动新的记录
func (h *Hub) startRecord(tile domain.Tile, sessionID string, committedAt time.Time) {
	h.recordMu.Lock()
	defer h.recordMu.Unlock()
	if h.stopping {
		return
	}
	h.records.Add(1)
	go h.record(tile, sessionID, committedAt)
}

func (h *Hub) record(tile domain.Tile, sessionID string, committedAt time.Time) {
	defer h.records.Done()
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	// 错误已在 recorder 内记录，不影响客户端
	_ = h.recorder.RecordCommit(ctx, tile, sessionID, committedAt)
}

// Publish 把已提交的格子发送给调用时刻注册的每个连接 (包括发起者)，返回成功入队的数量。
// 不会等待慢连接：出站缓冲已满的连接会被移除并关闭。
func (h *Hub) Publish(tile domain.Tile) int {
	logCtx := logrus.WithFields(logrus.Fields{
		"operation": "Publish",
		"x":         tile.X,
		"y":         tile.Y,
	})
	payload, err := dto.EncodeTileUpdated(tile)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal tile_updated message")
		return 0
	}

	delivered := 0
	h.registry.ForEach(func(id string, s Session) {
		if s.Send(payload) {
			delivered++
			return
		}
		h.dropSession(id, s, logCtx)
	})
	return delivered
}

func (h *Hub) sendError(msg HubMessage, message string) {
	if msg.Sender == nil {
		return
	}
	if !msg.Sender.Send(dto.EncodeError(message)) {
		h.dropSession(msg.SessionID, msg.Sender, logrus.WithField("operation", "sendError"))
	}
}

// dropSession 移除并关闭一个无法投递的连接，不影响其他连接
func (h *Hub) dropSession(id string, s Session, logCtx *logrus.Entry) {
	logCtx.WithField("session_id", id).WithError(ErrConnectionLost).Warn("Session send buffer full or closed, dropping session")
	h.Deregister(id)
	s.Close()
}

// clientErrorMessage 把服务层错误转成发给客户端的文字
func clientErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrOutOfBounds), errors.Is(err, service.ErrInvalidColor):
		return err.Error()
	case errors.Is(err, service.ErrStorageFailure):
		return "failed to save tile, please retry"
	default:
		return "internal server error"
	}
}

package hub

import (
	"sync"
	"time"

	"pixel-place/internal/dto"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client 代表一个连接到 Hub 的 WebSocket 客户端，实现 Session。
type Client struct {
	hub  *Hub            // 指向其所属的 Hub
	conn *websocket.Conn // WebSocket 连接
	id   string          // Register 分配的连接 ID
	send chan []byte     // 出站缓冲，只由 WritePump 消费，从不关闭

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.sendBuffer),
		done: make(chan struct{}),
	}
}

// Attach 注册一个新升级的连接并启动读写 goroutine
func (h *Hub) Attach(conn *websocket.Conn) *Client {
	c := NewClient(h, conn)
	c.id = h.Register(c)
	c.Run()
	return c
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

// ID 返回连接 ID
func (c *Client) ID() string { return c.id }

// Send 把消息放入出站缓冲，不阻塞。缓冲已满或连接已关闭时返回 false。
func (c *Client) Send(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close 关闭连接，可重复调用
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) logger() *logrus.Entry {
	return logrus.WithField("session_id", c.id)
}

// ReadPump 将消息从 WebSocket 连接解码后交给 Hub。
// 它在自己的 goroutine 中运行，退出时注销并关闭连接。
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Deregister(c.id)
		c.Close()
		c.logger().Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait)) // 收到 Pong 后重置读取超时
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logger().Debug("WebSocket connection closed normally or read error")
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger().Debugf("Received non-text message type: %d", messageType)
			continue
		}

		msg, ok := c.decode(message)
		if !ok {
			continue
		}
		// 阻塞投递：Hub 忙时只会拖慢这个连接自己的读取
		if !c.hub.Dispatch(msg) {
			return
		}
	}
}

// decode 把一帧文本转成 HubMessage，格式错误时直接回复错误
func (c *Client) decode(raw []byte) (HubMessage, bool) {
	env, err := dto.DecodeEnvelope(raw)
	if err != nil {
		c.logger().WithError(err).Debug("Malformed client message")
		c.Send(dto.EncodeError(err.Error()))
		return HubMessage{}, false
	}

	msg := HubMessage{Type: env.Type, SessionID: c.id, Sender: c}
	switch env.Type {
	case dto.TypeRequestTiles:
	case dto.TypeUpdateTile:
		msg.X, msg.Y, msg.Color, err = env.DecodeTileUpdate()
		if err != nil {
			c.logger().WithError(err).Debug("Malformed update_tile payload")
			c.Send(dto.EncodeError(err.Error()))
			return HubMessage{}, false
		}
	default:
		c.logger().Debugf("Unknown message type: %s", env.Type)
		c.Send(dto.EncodeError("unknown message type: " + env.Type))
		return HubMessage{}, false
	}
	return msg, true
}

// WritePump 将消息从 send 通道写入 WebSocket 连接，并定期发送 Ping。
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		c.logger().Debug("writePump exited")
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger().WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger().WithError(err).Warn("Failed to send ping message")
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

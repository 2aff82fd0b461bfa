package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pixel-place/internal/domain"
	"pixel-place/internal/repository/mocks"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConnPair 返回服务端升级后的连接和对端连接
func newConnPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })

	select {
	case conn := <-serverConns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn, peer
	case <-time.After(2 * time.Second):
		t.Fatal("server side of websocket was not upgraded")
		return nil, nil
	}
}

func isDone(c *Client) bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func TestClient_FullSendBufferDropsSession(t *testing.T) {
	repo := mocks.NewTileRepository(t)
	h := NewHub(newTestHub(t, repo, nil).grid, nil, 1)
	conn, peer := newConnPair(t)

	// 不启动读写 goroutine，缓冲不会被消费
	c := NewClient(h, conn)
	c.id = h.Register(c)
	other := &fakeSession{}
	h.Register(other)
	require.Equal(t, 2, h.SessionCount())

	assert.True(t, c.Send([]byte(`{"type":"tiles","data":[]}`)))
	assert.False(t, c.Send([]byte(`{"type":"tiles","data":[]}`)), "second message must not fit into a buffer of one")
	assert.False(t, isDone(c), "a failed Send alone does not close the client")

	delivered := h.Publish(domain.Tile{X: 0, Y: 0, Color: "#000000"})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, h.SessionCount())
	assert.Len(t, other.envelopes(t), 1)
	assert.True(t, isDone(c))
	assert.Len(t, c.send, 1)

	// 关闭后 Send 不再入队
	assert.False(t, c.Send([]byte("late")))

	// 对端看到连接已断开
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := peer.ReadMessage()
	assert.Error(t, err)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	repo := mocks.NewTileRepository(t)
	h := NewHub(newTestHub(t, repo, nil).grid, nil, 1)
	conn, _ := newConnPair(t)

	c := NewClient(h, conn)
	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
	assert.False(t, c.Send([]byte("x")))
}

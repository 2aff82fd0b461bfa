package websocket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pixel-place/internal/domain"
	"pixel-place/internal/dto"
	wshandler "pixel-place/internal/handler/websocket"
	"pixel-place/internal/hub"
	gormpersistence "pixel-place/internal/infra/persistence/gorm"
	"pixel-place/internal/infra/setup"
	"pixel-place/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	url  string
	db   *gorm.DB
	grid *service.GridService
}

func newGrid(t *testing.T, db *gorm.DB) *service.GridService {
	t.Helper()
	grid, err := service.NewGridService(gormpersistence.NewGormTileRepository(db), service.GridConfig{
		Width: 3, Height: 3, DefaultColor: "#FFFFFF",
	})
	require.NoError(t, err)
	require.NoError(t, grid.LoadOrInit(context.Background()))
	return grid
}

func startServer(t *testing.T, allowedOrigins []string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := setup.InitDB(setup.DBOptions{
		Driver: setup.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "canvas.db"),
	})
	require.NoError(t, err)
	require.NoError(t, setup.MigrateDB(db))

	grid := newGrid(t, db)
	h := hub.NewHub(grid, nil, 16)
	go h.Run()

	router := gin.New()
	router.GET("/ws", wshandler.NewWebSocketHandler(h, allowedOrigins).HandleConnection)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		h.Stop()
		_ = setup.CloseDB(db)
	})
	return &testServer{
		url:  "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		db:   db,
		grid: grid,
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) dto.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var env dto.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func requestTiles(t *testing.T, conn *websocket.Conn) []domain.Tile {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"request_tiles"}`)))
	env := readEnvelope(t, conn)
	require.Equal(t, dto.TypeTiles, env.Type)
	var tiles []domain.Tile
	require.NoError(t, json.Unmarshal(env.Data, &tiles))
	return tiles
}

func colorAt(tiles []domain.Tile, x, y int) string {
	for _, tile := range tiles {
		if tile.X == x && tile.Y == y {
			return tile.Color
		}
	}
	return ""
}

func TestWebSocket_EndToEnd(t *testing.T) {
	srv := startServer(t, []string{"*"})
	a := dial(t, srv.url)
	b := dial(t, srv.url)

	// 快照往返同时保证两个连接都已注册
	tiles := requestTiles(t, a)
	require.Len(t, tiles, 9)
	for _, tile := range tiles {
		assert.Equal(t, "#FFFFFF", tile.Color)
	}
	require.Len(t, requestTiles(t, b), 9)

	require.NoError(t, a.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"update_tile","data":{"x":1,"y":1,"color":"#ff0000"}}`)))

	for _, conn := range []*websocket.Conn{a, b} {
		env := readEnvelope(t, conn)
		require.Equal(t, dto.TypeTileUpdated, env.Type)
		var tile domain.Tile
		require.NoError(t, json.Unmarshal(env.Data, &tile))
		assert.Equal(t, domain.Tile{X: 1, Y: 1, Color: "#FF0000"}, tile)
	}

	// 越界修改只回复发起者
	require.NoError(t, a.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"update_tile","data":{"x":3,"y":0,"color":"#000000"}}`)))
	env := readEnvelope(t, a)
	assert.Equal(t, dto.TypeError, env.Type)
	assert.NotEmpty(t, env.Message)

	// 格式错误的消息
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, dto.TypeError, readEnvelope(t, a).Type)

	// b 下一条收到的应该是自己的快照，而不是 a 的错误
	tiles = requestTiles(t, b)
	assert.Equal(t, "#FF0000", colorAt(tiles, 1, 1))

	// 修改之后新连接的客户端拿到完整且已更新的网格
	c := dial(t, srv.url)
	fresh := requestTiles(t, c)
	require.Len(t, fresh, 9)
	assert.Equal(t, "#FF0000", colorAt(fresh, 1, 1))
	for _, tile := range fresh {
		if tile.X != 1 || tile.Y != 1 {
			assert.Equal(t, "#FFFFFF", tile.Color)
		}
	}

	// 重新加载后颜色仍在
	reloaded := newGrid(t, srv.db)
	assert.Equal(t, "#FF0000", colorAt(reloaded.Snapshot(), 1, 1))
	assert.Equal(t, "#FFFFFF", colorAt(reloaded.Snapshot(), 0, 0))
}

func TestWebSocket_RejectsDisallowedOrigin(t *testing.T) {
	srv := startServer(t, []string{"https://place.example.com"})

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(srv.url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://place.example.com")
	conn, _, err := websocket.DefaultDialer.Dial(srv.url, header)
	require.NoError(t, err)
	_ = conn.Close()
}

package http

import (
	"net/http"
	"strconv"

	"pixel-place/internal/domain"
	"pixel-place/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxHistoryLimit 是单次历史查询的上限
const maxHistoryLimit = 1000

// TileHandler 提供网格的只读 HTTP 接口
type TileHandler struct {
	gridService    *service.GridService
	historyService *service.HistoryService // 未配置 Redis 时为 nil
	historyLimit   int
}

// NewTileHandler 创建 TileHandler 实例。historyService 可以为 nil。
func NewTileHandler(gridService *service.GridService, historyService *service.HistoryService, historyLimit int) *TileHandler {
	if gridService == nil {
		panic("GridService cannot be nil for TileHandler")
	}
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &TileHandler{
		gridService:    gridService,
		historyService: historyService,
		historyLimit:   historyLimit,
	}
}

// TilesResponse 是 GET /api/tiles 的响应
type TilesResponse struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Tiles  []domain.Tile `json:"tiles"`
}

// HistoryResponse 是 GET /api/tiles/history 的响应
type HistoryResponse struct {
	Total   int64               `json:"total"`
	Commits []domain.TileAction `json:"commits"`
}

// GetTiles 返回当前网格的完整快照
func (h *TileHandler) GetTiles(c *gin.Context) {
	tiles := h.gridService.Snapshot()
	if tiles == nil {
		HandleServiceError(c, service.ErrStorageFailure)
		return
	}
	bounds := h.gridService.Bounds()
	SuccessResponse(c, http.StatusOK, TilesResponse{
		Width:  bounds.Width,
		Height: bounds.Height,
		Tiles:  tiles,
	})
}

// GetHistory 返回最近的提交，?limit=N 控制条数
func (h *TileHandler) GetHistory(c *gin.Context) {
	if h.historyService == nil {
		HandleServiceError(c, service.ErrHistoryUnavailable)
		return
	}

	limit := h.historyLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			logrus.WithField("limit", raw).Debug("Handler.GetHistory: Invalid limit")
			ErrorResponse(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	commits, total, err := h.historyService.Recent(c.Request.Context(), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if commits == nil {
		commits = []domain.TileAction{}
	}
	SuccessResponse(c, http.StatusOK, HistoryResponse{Total: total, Commits: commits})
}

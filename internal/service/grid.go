package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixel-place/internal/domain"
	"pixel-place/internal/repository"

	"github.com/sirupsen/logrus"
)

// DefaultWriteTimeout 是单次持久化写入的默认超时
const DefaultWriteTimeout = 3 * time.Second

// GridConfig 是网格的部署期配置
type GridConfig struct {
	Width        int
	Height       int
	DefaultColor string
	Palette      []string      // 为空时接受任意 #RRGGBB
	WriteTimeout time.Duration // <= 0 时使用 DefaultWriteTimeout
}

// GridService 持有权威的网格状态，是唯一允许修改格子的入口。
// 所有提交都经过同一把锁串行化，快照在读锁下获取，不会看到写了一半的提交。
type GridService struct {
	repo         repository.TileRepository
	bounds       domain.Bounds
	palette      domain.Palette
	defaultColor string
	writeTimeout time.Duration

	mu    sync.RWMutex
	cells []string // 按 bounds.Index 存放颜色，LoadOrInit 之前为 nil
}

// NewGridService 校验配置并创建 GridService。需要调用 LoadOrInit 后才能使用。
func NewGridService(repo repository.TileRepository, cfg GridConfig) (*GridService, error) {
	if repo == nil {
		panic("TileRepository cannot be nil for GridService")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%d", cfg.Width, cfg.Height)
	}
	palette, err := domain.NewPalette(cfg.Palette)
	if err != nil {
		return nil, fmt.Errorf("invalid palette: %w", err)
	}
	defaultColor, err := domain.NormalizeColor(cfg.DefaultColor)
	if err != nil {
		return nil, fmt.Errorf("invalid default color: %w", err)
	}
	if !palette.Allows(defaultColor) {
		return nil, fmt.Errorf("default color %s is not in the palette", defaultColor)
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &GridService{
		repo:         repo,
		bounds:       domain.Bounds{Width: cfg.Width, Height: cfg.Height},
		palette:      palette,
		defaultColor: defaultColor,
		writeTimeout: writeTimeout,
	}, nil
}

// Bounds 返回网格尺寸
func (s *GridService) Bounds() domain.Bounds {
	return s.bounds
}

// LoadOrInit 从持久化存储加载网格。
// 缺失的坐标 (包括空库的全部坐标) 以默认颜色补齐并写回，已有颜色从不覆盖，重复调用是幂等的。
func (s *GridService) LoadOrInit(ctx context.Context) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"operation": "LoadOrInit",
		"width":     s.bounds.Width,
		"height":    s.bounds.Height,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load tiles: %w", err)
	}

	cells := make([]string, s.bounds.Size())
	ignored := 0
	for _, row := range rows {
		if !s.bounds.Contains(row.X, row.Y) {
			ignored++
			continue
		}
		cells[s.bounds.Index(row.X, row.Y)] = row.Color
	}
	if ignored > 0 {
		logCtx.WithField("ignored", ignored).Warn("Stored tiles outside the configured grid were ignored")
	}

	var missing []domain.Tile
	for x := 0; x < s.bounds.Width; x++ {
		for y := 0; y < s.bounds.Height; y++ {
			idx := s.bounds.Index(x, y)
			if cells[idx] == "" {
				cells[idx] = s.defaultColor
				missing = append(missing, domain.Tile{X: x, Y: y, Color: s.defaultColor})
			}
		}
	}
	if len(missing) > 0 {
		if err := s.repo.CreateBatch(ctx, missing); err != nil {
			return fmt.Errorf("seed %d tiles: %w", len(missing), err)
		}
		logCtx.WithField("seeded", len(missing)).Info("Seeded missing tiles with default color")
	}

	s.cells = cells
	logCtx.WithField("loaded", len(rows)-ignored).Info("Grid loaded")
	return nil
}

// Snapshot 返回所有格子的当前颜色，按 x 再按 y 排列。
func (s *GridService) Snapshot() []domain.Tile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cells == nil {
		return nil
	}
	tiles := make([]domain.Tile, 0, len(s.cells))
	for x := 0; x < s.bounds.Width; x++ {
		for y := 0; y < s.bounds.Height; y++ {
			tiles = append(tiles, domain.Tile{X: x, Y: y, Color: s.cells[s.bounds.Index(x, y)]})
		}
	}
	return tiles
}

// Commit 校验并写入一个格子。
// 内存先更新，持久化失败 (包括超时) 时回滚内存并返回 ErrStorageFailure。
// 同一坐标的并发提交按加锁顺序生效，后者覆盖前者。
func (s *GridService) Commit(ctx context.Context, x, y int, color string) (domain.Tile, error) {
	canonical, err := domain.ValidateMutation(x, y, color, s.bounds, s.palette)
	if err != nil {
		return domain.Tile{}, err
	}
	tile := domain.Tile{X: x, Y: y, Color: canonical}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cells == nil {
		return domain.Tile{}, fmt.Errorf("%w: grid not loaded", ErrStorageFailure)
	}

	idx := s.bounds.Index(x, y)
	previous := s.cells[idx]
	s.cells[idx] = canonical

	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	if err := s.repo.SaveColor(writeCtx, tile); err != nil {
		s.cells[idx] = previous
		logrus.WithFields(logrus.Fields{
			"operation": "Commit",
			"x":         x,
			"y":         y,
			"color":     canonical,
		}).WithError(err).Error("Durable write failed, rolled back tile")
		return domain.Tile{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return tile, nil
}

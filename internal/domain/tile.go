package domain

import "time"

// Tile 表示画布上的一个格子，同时也是 tiles 表的一行。
// (x, y) 上有唯一索引，自增 ID 只是附带的。
type Tile struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	X         int       `gorm:"uniqueIndex:idx_tiles_xy;not null" json:"x"`
	Y         int       `gorm:"uniqueIndex:idx_tiles_xy;not null" json:"y"`
	Color     string    `gorm:"size:16;not null" json:"color"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Bounds 描述网格的固定尺寸，部署期间不变。
type Bounds struct {
	Width  int
	Height int
}

// Contains 判断坐标是否落在 [0,Width) × [0,Height) 内。
func (b Bounds) Contains(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// Size 返回格子总数。
func (b Bounds) Size() int {
	return b.Width * b.Height
}

// Index 把坐标映射到扁平数组下标 (x 优先，与快照顺序一致)。
// 调用方需先用 Contains 检查。
func (b Bounds) Index(x, y int) int {
	return x*b.Height + y
}

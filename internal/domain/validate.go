package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrOutOfBounds 坐标超出网格范围
	ErrOutOfBounds = errors.New("tile coordinate out of bounds")
	// ErrInvalidColor 颜色格式错误或不在调色板中
	ErrInvalidColor = errors.New("invalid tile color")
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Palette 是允许使用的颜色集合。nil 或空表示接受任意 #RRGGBB 颜色。
type Palette map[string]struct{}

// NewPalette 规范化并去重颜色列表。
func NewPalette(colors []string) (Palette, error) {
	if len(colors) == 0 {
		return nil, nil
	}
	p := make(Palette, len(colors))
	for _, c := range colors {
		normalized, err := NormalizeColor(c)
		if err != nil {
			return nil, err
		}
		p[normalized] = struct{}{}
	}
	return p, nil
}

// Allows 判断颜色 (已规范化) 是否被调色板允许。
func (p Palette) Allows(color string) bool {
	if len(p) == 0 {
		return true
	}
	_, ok := p[color]
	return ok
}

// NormalizeColor 校验 #RRGGBB 格式并统一转为大写。
func NormalizeColor(color string) (string, error) {
	trimmed := strings.TrimSpace(color)
	if trimmed == "" {
		return "", fmt.Errorf("%w: color is empty", ErrInvalidColor)
	}
	if !hexColorPattern.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q is not a #RRGGBB value", ErrInvalidColor, color)
	}
	return strings.ToUpper(trimmed), nil
}

// ValidateMutation 检查一次写入请求，返回规范化后的颜色。
// 纯函数，没有副作用。
func ValidateMutation(x, y int, color string, bounds Bounds, palette Palette) (string, error) {
	if !bounds.Contains(x, y) {
		return "", fmt.Errorf("%w: (%d,%d) outside %dx%d grid", ErrOutOfBounds, x, y, bounds.Width, bounds.Height)
	}
	normalized, err := NormalizeColor(color)
	if err != nil {
		return "", err
	}
	if !palette.Allows(normalized) {
		return "", fmt.Errorf("%w: %s is not in the palette", ErrInvalidColor, normalized)
	}
	return normalized, nil
}

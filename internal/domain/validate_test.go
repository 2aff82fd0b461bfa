package domain_test

import (
	"errors"
	"testing"
	"time"

	"pixel-place/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMutation(t *testing.T) {
	bounds := domain.Bounds{Width: 3, Height: 3}

	tests := []struct {
		name    string
		x, y    int
		color   string
		palette domain.Palette
		want    string
		wantErr error
	}{
		{name: "valid", x: 1, y: 1, color: "#FF0000", want: "#FF0000"},
		{name: "lowercase normalized", x: 0, y: 2, color: "#00ff00", want: "#00FF00"},
		{name: "surrounding space", x: 2, y: 0, color: " #abcdef ", want: "#ABCDEF"},
		{name: "negative x", x: -1, y: 0, color: "#FFFFFF", wantErr: domain.ErrOutOfBounds},
		{name: "x equals width", x: 3, y: 0, color: "#FFFFFF", wantErr: domain.ErrOutOfBounds},
		{name: "y equals height", x: 0, y: 3, color: "#FFFFFF", wantErr: domain.ErrOutOfBounds},
		{name: "empty color", x: 0, y: 0, color: "", wantErr: domain.ErrInvalidColor},
		{name: "named color", x: 0, y: 0, color: "white", wantErr: domain.ErrInvalidColor},
		{name: "short hex", x: 0, y: 0, color: "#FFF", wantErr: domain.ErrInvalidColor},
		{name: "bounds checked before color", x: 9, y: 9, color: "nope", wantErr: domain.ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.ValidateMutation(tt.x, tt.y, tt.color, bounds, tt.palette)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMutation_Palette(t *testing.T) {
	palette, err := domain.NewPalette([]string{"#ff4500", "#FFFFFF"})
	require.NoError(t, err)
	bounds := domain.Bounds{Width: 2, Height: 2}

	got, err := domain.ValidateMutation(0, 0, "#FF4500", bounds, palette)
	require.NoError(t, err)
	assert.Equal(t, "#FF4500", got)

	_, err = domain.ValidateMutation(0, 0, "#123456", bounds, palette)
	assert.ErrorIs(t, err, domain.ErrInvalidColor)
}

func TestNewPalette(t *testing.T) {
	p, err := domain.NewPalette(nil)
	require.NoError(t, err)
	assert.True(t, p.Allows("#010203"), "空调色板应允许任意颜色")

	_, err = domain.NewPalette([]string{"#FFFFFF", "red"})
	assert.ErrorIs(t, err, domain.ErrInvalidColor)
}

func TestBoundsIndex(t *testing.T) {
	b := domain.Bounds{Width: 3, Height: 2}
	assert.Equal(t, 6, b.Size())

	seen := make(map[int]bool)
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			idx := b.Index(x, y)
			assert.False(t, seen[idx], "index %d reused", idx)
			assert.True(t, idx >= 0 && idx < b.Size())
			seen[idx] = true
		}
	}
	assert.Len(t, seen, b.Size())
}

func TestTileActionRoundTrip(t *testing.T) {
	tile := domain.Tile{X: 4, Y: 2, Color: "#00FF00"}
	action := domain.NewTileAction(tile, "session-1", fixedTime())

	raw, err := action.Marshal()
	require.NoError(t, err)

	parsed, err := domain.ParseTileAction(raw)
	require.NoError(t, err)
	assert.Equal(t, tile, parsed.Tile())
	assert.Equal(t, "session-1", parsed.SessionID)
	assert.True(t, action.CommittedAt.Equal(parsed.CommittedAt))

	_, err = domain.ParseTileAction("{broken")
	assert.Error(t, err)
}

func fixedTime() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

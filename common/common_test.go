package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, "", Coalesce[string]())
}

func TestBounds(t *testing.T) {
	var empty Bounds
	assert.True(t, empty.Empty())
	assert.Equal(t, mgl64.Vec3{}, empty.Center())
	assert.Zero(t, empty.Radius())
	assert.True(t, empty.Transform(2, mgl64.Vec3{1, 1, 1}).Empty())

	b := NewBounds(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{3, 2, 0})
	assert.False(t, b.Empty())
	assert.Equal(t, mgl64.Vec3{1, 1, 0}, b.Center())
	assert.InDelta(t, math.Sqrt(20)/2, b.Radius(), 1e-12)

	grown := b.ExtendRadius(mgl64.Vec3{0, 0, 5}, 1)
	assert.Equal(t, mgl64.Vec3{-1, -1, 0}, grown.Min)
	assert.Equal(t, mgl64.Vec3{3, 2, 6}, grown.Max)

	assert.Equal(t, b, b.Union(empty))
	assert.Equal(t, b, empty.Union(b))

	moved := b.Transform(2, mgl64.Vec3{10, 0, 0})
	assert.Equal(t, mgl64.Vec3{8, 0, 0}, moved.Min)
	assert.Equal(t, mgl64.Vec3{16, 4, 0}, moved.Max)
}

func TestColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, "#ff8000", c.Hex())
	assert.InDelta(t, 128.0/255, c.G, 1e-12)

	_, err = ParseHexColor("red")
	assert.Error(t, err)
	_, err = ParseHexColor("#gg0000")
	assert.Error(t, err)

	assert.Equal(t, Color{0.5, 0.5, 0.5}, Black.Lerp(White, 0.5))
	assert.Equal(t, White, RGB(2, 1.5, 1))
	assert.Equal(t, Color{1, 0.5, 0}, RGB(0.5, 0.25, 0).Scale(2))
	assert.Equal(t, uint8(128), White.NRGBA(0.5).A)
}

func TestLerpAndClamp(t *testing.T) {
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, LerpVec3(mgl64.Vec3{}, mgl64.Vec3{2, 4, 6}, 0.5))
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(3))
	assert.Equal(t, 0.25, Clamp01(0.25))
}

func TestFrustum_IntersectsSphere(t *testing.T) {
	proj := mgl64.Perspective(math.Pi/4, 1, 0.1, 100)
	view := mgl64.LookAtV(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	f := ExtractFrustum(proj.Mul4(view))

	tests := []struct {
		name   string
		center mgl64.Vec3
		radius float64
		want   bool
	}{
		{"in front", mgl64.Vec3{}, 1, true},
		{"behind the camera", mgl64.Vec3{0, 0, 20}, 1, false},
		{"far to the side", mgl64.Vec3{100, 0, 0}, 1, false},
		{"straddles the side", mgl64.Vec3{5, 0, 0}, 2, true},
		{"beyond the far plane", mgl64.Vec3{0, 0, -200}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsSphere(tt.center, tt.radius))
		})
	}

	// Planes are normalized, so signed distances are in world units.
	assert.InDelta(t, 10-0.1, f.Planes[FrustumNear].SignedDistance(mgl64.Vec3{}), 1e-6)
}

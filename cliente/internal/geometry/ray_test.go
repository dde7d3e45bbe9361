package geometry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSnapToGrid(t *testing.T) {
	tests := []struct {
		v, grid, want float32
	}{
		{3.4, 1, 3},
		{7.9, 1, 8},
		{-2.6, 1, -3},
		{4.9, 2.5, 5},
		{1.2, 0, 1.2},
	}
	for _, tt := range tests {
		if got := SnapToGrid(tt.v, tt.grid); got != tt.want {
			t.Errorf("SnapToGrid(%v, %v) = %v, want %v", tt.v, tt.grid, got, tt.want)
		}
	}
}

func TestSnapToGridIdempotent(t *testing.T) {
	for _, grid := range []float32{0.5, 1, 2, 2.5, 4} {
		for v := float32(-20); v <= 20; v += 0.37 {
			once := SnapToGrid(v, grid)
			assert.Equal(t, once, SnapToGrid(once, grid), "grid=%v v=%v", grid, v)
		}
	}
}

func TestSnapXZKeepsHeight(t *testing.T) {
	got := SnapXZ(mgl32.Vec3{3.4, 0.7, 7.9}, 1)
	assert.Equal(t, mgl32.Vec3{3, 0.7, 8}, got)
}

func TestIntersectPlaneY(t *testing.T) {
	r := NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, -1, 0})
	p, dist, ok := r.IntersectPlaneY(0)
	assert.True(t, ok)
	assert.InDelta(t, 10, p.X(), 1e-4)
	assert.Equal(t, float32(0), p.Y())
	assert.Greater(t, dist, float32(0))

	up := NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, 1, 0})
	_, _, ok = up.IntersectPlaneY(0)
	assert.False(t, ok)

	flat := NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{1, 0, 0})
	_, _, ok = flat.IntersectPlaneY(0)
	assert.False(t, ok)
}

func TestIntersectAABB(t *testing.T) {
	box := BoxAround(mgl32.Vec3{0, 1, 10}, mgl32.Vec3{1, 1, 1})

	hit := NewRay(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1})
	d, ok := hit.IntersectAABB(box)
	assert.True(t, ok)
	assert.InDelta(t, 9, d, 1e-5)

	miss := NewRay(mgl32.Vec3{5, 1, 0}, mgl32.Vec3{0, 0, 1})
	_, ok = miss.IntersectAABB(box)
	assert.False(t, ok)

	behind := NewRay(mgl32.Vec3{0, 1, 20}, mgl32.Vec3{0, 0, 1})
	_, ok = behind.IntersectAABB(box)
	assert.False(t, ok)

	inside := NewRay(mgl32.Vec3{0, 1, 10}, mgl32.Vec3{1, 0, 0})
	d, ok = inside.IntersectAABB(box)
	assert.True(t, ok)
	assert.Zero(t, d)

	_, ok = hit.IntersectAABB(EmptyAABB())
	assert.False(t, ok)
}

func TestAABBTransformAndUnion(t *testing.T) {
	box := AABB{Min: mgl32.Vec3{-1, 0, -2}, Max: mgl32.Vec3{1, 1, 2}}

	// Rotação de 90° em Y troca as extensões de x e z.
	rot := mgl32.Translate3D(5, 0, 0).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90)))
	got := box.Transform(rot)
	assert.InDelta(t, 3, got.Min.X(), 1e-5)
	assert.InDelta(t, 7, got.Max.X(), 1e-5)
	assert.InDelta(t, -1, got.Min.Z(), 1e-5)
	assert.InDelta(t, 1, got.Max.Z(), 1e-5)

	u := EmptyAABB().Union(box)
	assert.Equal(t, box, u)
	u = u.Union(BoxAround(mgl32.Vec3{10, 0, 0}, mgl32.Vec3{1, 1, 1}))
	assert.Equal(t, float32(11), u.Max.X())
	assert.True(t, u.Contains(mgl32.Vec3{5, 0.5, 0}))
	assert.Equal(t, mgl32.Vec3{5, 0, 0}, u.Center())
}

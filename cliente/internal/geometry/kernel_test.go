package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectOnSegment(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Point
		p     Point
		want  Point
		wantT float64
	}{
		{"meio", Point{0, 0}, Point{10, 0}, Point{5, 3}, Point{5, 0}, 0.5},
		{"antes do inicio", Point{0, 0}, Point{10, 0}, Point{-4, 1}, Point{0, 0}, 0},
		{"depois do fim", Point{0, 0}, Point{10, 0}, Point{14, -2}, Point{10, 0}, 1},
		{"degenerado", Point{2, 2}, Point{2, 2}, Point{7, 7}, Point{2, 2}, 0},
	}
	for _, tt := range tests {
		got, gotT := ProjectOnSegment(tt.a, tt.b, tt.p)
		if got != tt.want || gotT != tt.wantT {
			t.Errorf("%s: ProjectOnSegment = %v,%v, want %v,%v", tt.name, got, gotT, tt.want, tt.wantT)
		}
	}
}

func TestClosestOnPolylineDegenerate(t *testing.T) {
	_, ok := ClosestOnPolyline(nil, Point{})
	assert.False(t, ok)
	_, ok = ClosestOnPolyline([]Point{{1, 1}}, Point{})
	assert.False(t, ok)
}

func TestClosestOnPolylineTieKeepsFirstSegment(t *testing.T) {
	// Equidistante dos dois segmentos horizontais.
	poly := []Point{{0, 1}, {2, 1}, {2, -1}, {0, -1}}
	c, ok := ClosestOnPolyline(poly, Point{1, 0})
	require.True(t, ok)
	assert.Equal(t, 0, c.SegmentIndex)
}

// Rota norte-sul com posição levemente a leste do meio.
func TestRouteProjectionNorthSouth(t *testing.T) {
	route := []Point{{0, 0}, {0, 0.001}}
	pos := Point{0.0005, 0.0006}

	c, ok := ClosestOnPolyline(route, pos)
	require.True(t, ok)
	assert.Equal(t, 0, c.SegmentIndex)
	assert.GreaterOrEqual(t, c.T, 0.5)
	assert.LessOrEqual(t, c.T, 0.6)

	d := DistanceKm(c.Point, pos)
	assert.Less(t, d, 0.15)
	assert.InDelta(t, 0.0557, d, 0.001)
}

func TestClosestOnPolylineProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		n := 2 + rng.Intn(8)
		poly := make([]Point, n)
		for i := range poly {
			poly[i] = Point{rng.Float64()*20 - 10, rng.Float64()*20 - 10}
		}
		p := Point{rng.Float64()*30 - 15, rng.Float64()*30 - 15}

		c, ok := ClosestOnPolyline(poly, p)
		require.True(t, ok)
		require.GreaterOrEqual(t, c.T, 0.0)
		require.LessOrEqual(t, c.T, 1.0)

		a, b := poly[c.SegmentIndex], poly[c.SegmentIndex+1]
		onSeg := Point{a.X + c.T*(b.X-a.X), a.Y + c.T*(b.Y-a.Y)}
		require.InDelta(t, onSeg.X, c.Point.X, 1e-9)
		require.InDelta(t, onSeg.Y, c.Point.Y, 1e-9)

		for _, v := range poly {
			require.LessOrEqual(t, c.DistanceSquared, distSq(v, p)+1e-12)
		}
	}
}

func TestSliceRemainingEndpoints(t *testing.T) {
	poly := []Point{{0, 0}, {1, 0}, {2, 1}, {3, 1}}

	first, ok := ClosestOnPolyline(poly, poly[0])
	require.True(t, ok)
	assert.Equal(t, poly, SliceRemaining(poly, first))

	last, ok := ClosestOnPolyline(poly, poly[len(poly)-1])
	require.True(t, ok)
	assert.Equal(t, []Point{poly[len(poly)-1]}, SliceRemaining(poly, last))
}

func TestSliceRemainingMiddle(t *testing.T) {
	poly := []Point{{0, 0}, {2, 0}, {2, 2}}
	c, ok := ClosestOnPolyline(poly, Point{1, 0.5})
	require.True(t, ok)

	assert.Equal(t, []Point{{1, 0}, {2, 0}, {2, 2}}, SliceRemaining(poly, c))
	assert.Equal(t, []Point{{0, 0}, {1, 0}}, SliceTraveled(poly, c))
}

func TestSliceTraveledAtStart(t *testing.T) {
	poly := []Point{{0, 0}, {2, 0}}
	c, _ := ClosestOnPolyline(poly, Point{-1, 0})
	assert.Equal(t, []Point{{0, 0}}, SliceTraveled(poly, c))
}

func TestDistances(t *testing.T) {
	// 0,001 grau de latitude ~ 111 m.
	d := DistanceKm(Point{0, 0}, Point{0, 0.001})
	assert.InDelta(t, 0.11132, d, 1e-6)

	poly := []Point{{0, 0}, {0, 0.001}, {0, 0.002}}
	assert.InDelta(t, 0.22264, ApproxLength(poly), 1e-6)
	assert.Zero(t, ApproxLength(poly[:1]))

	// Em escala curta as duas fórmulas concordam.
	assert.InDelta(t, ApproxLength(poly), GeodesicLength(poly), 0.001)

	// Longitude encolhe com a latitude.
	east := DistanceKm(Point{0, 60}, Point{1, 60})
	assert.InDelta(t, KmPerDegree*math.Cos(60*math.Pi/180), east, 0.01)
}

func TestExtentKm(t *testing.T) {
	assert.Zero(t, ExtentKm(nil))
	poly := []Point{{0, 0}, {0.3, 0}, {0.3, 0.4}}
	assert.InDelta(t, 0.5*KmPerDegree, ExtentKm(poly), 0.05)
}

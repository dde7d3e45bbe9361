package scene

import (
	"errors"
	"testing"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/props"
	"YardVision/shared/config"
	"YardVision/shared/telemetry"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.YardHalfX = 30
	cfg.YardHalfZ = 20
	cfg.FenceMargin = 0
	cfg.PostInterval = 5
	cfg.FenceHeight = 2
	cfg.Gates = []config.Gate{{Side: SideSouth, CenterOffset: 0, Width: 10}}
	return cfg
}

func newTestBase(t *testing.T) *Base {
	t.Helper()
	reg := props.NewDefaultRegistry(zerolog.Nop(), telemetry.Nop())
	return NewBase(testConfig(), NewGraph(), reg, zerolog.Nop())
}

func TestBuildFenceOpenings(t *testing.T) {
	l := BuildFence(testConfig())

	var south []FencePanel
	total := map[string]float32{}
	for _, p := range l.Panels {
		total[p.Side] += p.Length
		if p.Side == SideSouth {
			south = append(south, p)
		}
	}
	require.Len(t, south, 2)
	assert.InDelta(t, 60, total[SideNorth], 1e-4)
	assert.InDelta(t, 50, total[SideSouth], 1e-4)
	assert.InDelta(t, 40, total[SideEast], 1e-4)
	assert.InDelta(t, 40, total[SideWest], 1e-4)

	// Nenhum painel nem poste dentro do portão.
	for _, p := range south {
		lo, hi := p.Center.X()-p.Length/2, p.Center.X()+p.Length/2
		assert.True(t, hi <= -5+1e-4 || lo >= 5-1e-4, "painel cobre o portão: [%v, %v]", lo, hi)
	}
	for _, post := range l.Posts {
		if post.Z() == 20 {
			assert.False(t, post.X() > -4.99 && post.X() < 4.99, "poste no portão em x=%v", post.X())
		}
	}
	assert.Equal(t, [][2]float32{{-5, 5}}, l.Openings[SideSouth])
}

func TestBuildFenceGatesClipAndMerge(t *testing.T) {
	cfg := testConfig()
	cfg.Gates = []config.Gate{
		{Side: SideEast, CenterOffset: 18, Width: 8},
		{Side: SideEast, CenterOffset: -2, Width: 4},
		{Side: SideEast, CenterOffset: 1, Width: 4},
		{Side: "up", Width: 5},
	}
	l := BuildFence(cfg)
	assert.Equal(t, [][2]float32{{-4, 3}, {14, 20}}, l.Openings[SideEast])
	assert.Empty(t, l.Openings[SideNorth])
}

func TestPostsAtInterval(t *testing.T) {
	posts := postPositions(nil, 10, 5)
	assert.Equal(t, []float32{-10, -5, 0, 5, 10}, posts)

	// Batentes nas bordas da abertura.
	posts = postPositions([][2]float32{{-2, 2}}, 10, 5)
	assert.Equal(t, []float32{-10, -5, -2, 2, 5, 10}, posts)

	// Intervalo que não divide o lado fecha com um poste na ponta.
	posts = postPositions(nil, 4, 3)
	assert.Equal(t, []float32{-4, -1, 2, 4}, posts)
}

func TestBaseCollidersExcludeFoliage(t *testing.T) {
	b := newTestBase(t)
	cols := b.BaseColliders()
	require.NotEmpty(t, cols)

	names := map[string]bool{}
	for _, n := range cols {
		assert.False(t, n.Decorative, n.Name)
		assert.NotEqual(t, "nature.tree", n.Name)
		names[n.Name] = true
	}
	assert.True(t, names["ground"])
	assert.True(t, names["terrain.hill"])
	assert.True(t, names["fence.post"])
	assert.True(t, names["building.gatehouse"])
	assert.NotEmpty(t, b.Foliage.Children)
}

func TestBaseIsDeterministic(t *testing.T) {
	a, b := newTestBase(t), newTestBase(t)
	require.Equal(t, len(a.Terrain.Children), len(b.Terrain.Children))
	for i := range a.Terrain.Children {
		assert.Equal(t, a.Terrain.Children[i].Position, b.Terrain.Children[i].Position)
	}
	for i := range a.Foliage.Children {
		assert.Equal(t, a.Foliage.Children[i].Position, b.Foliage.Children[i].Position)
	}
}

func TestGroundHit(t *testing.T) {
	b := newTestBase(t)
	p, ok := b.GroundHit(geometry.NewRay(mgl32.Vec3{3.4, 10, 7.9}, mgl32.Vec3{0, -1, 0}))
	require.True(t, ok)
	assert.InDelta(t, 3.4, p.X(), 1e-5)
	assert.InDelta(t, 7.9, p.Z(), 1e-5)

	_, ok = b.GroundHit(geometry.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, 1, 0}))
	assert.False(t, ok)

	_, ok = b.GroundHit(geometry.NewRay(mgl32.Vec3{10000, 10, 0}, mgl32.Vec3{0, -1, 0}))
	assert.False(t, ok)
}

func TestResize(t *testing.T) {
	b := newTestBase(t)
	var calls [][2]int32
	b.OnResize(func(w, h int32) { calls = append(calls, [2]int32{w, h}) })

	b.Resize(800, 600)
	b.Resize(800, 600)
	b.Resize(0, 0)
	assert.Equal(t, [][2]int32{{800, 600}}, calls)
	w, h := b.Size()
	assert.Equal(t, int32(800), w)
	assert.Equal(t, int32(600), h)
}

func TestDisposeReleasesEverythingOnce(t *testing.T) {
	b := newTestBase(t)
	released := 0
	for i := 0; i < 3; i++ {
		require.NoError(t, b.GPU.Track("mesh", func() { released++ }))
	}
	b.Dispose()
	b.Dispose()
	assert.Equal(t, 3, released)
	assert.Zero(t, b.GPU.Len())

	err := b.GPU.Track("late", func() { released++ })
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Equal(t, 4, released)
}

func TestRaycastNearestAndAncestor(t *testing.T) {
	g := NewGraph()
	group := NewNode("prop")
	group.PropID = "p1"
	group.Position = mgl32.Vec3{0, 0, 10}
	child := NewGeometryNode("part", props.Geometry{
		Parts:  []props.Part{{Kind: props.KindBox, Size: mgl32.Vec3{2, 2, 2}}},
		Bounds: geometry.BoxAround(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}),
	})
	group.AddChild(child)
	g.Props.AddChild(group)

	far := NewGeometryNode("far", props.Geometry{Bounds: geometry.BoxAround(mgl32.Vec3{0, 0, 20}, mgl32.Vec3{1, 1, 1})})
	g.Props.AddChild(far)

	ray := geometry.NewRay(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	hits := Raycast(ray, []*Node{g.Props}, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, child, hits[0].Node)
	assert.InDelta(t, 9, hits[0].Distance, 1e-4)
	assert.Equal(t, group, AncestorWithProp(hits[0].Node))
	assert.Nil(t, AncestorWithProp(far))

	child.Visible = false
	h, ok := Nearest(ray, []*Node{g.Props}, nil)
	require.True(t, ok)
	assert.Equal(t, far, h.Node)
}

func TestWorldTransformComposes(t *testing.T) {
	parent := NewNode("p")
	parent.Position = mgl32.Vec3{10, 0, 0}
	parent.RotationY = mgl32.DegToRad(90)
	child := NewNode("c")
	child.Position = mgl32.Vec3{1, 0, 0}
	parent.AddChild(child)

	p := child.WorldMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 10, p.X(), 1e-5)
	assert.InDelta(t, -1, p.Z(), 1e-5)

	assert.True(t, parent.RemoveChild(child))
	assert.Nil(t, child.Parent)
	assert.False(t, parent.RemoveChild(child))
}

func TestLoopRunsPhasesInOrderAndSurvivesFailures(t *testing.T) {
	l := NewLoop(zerolog.Nop(), telemetry.Nop())
	var order []string
	l.Add(PhaseRender, "draw", func(float32) error { order = append(order, "draw"); return nil })
	l.Add(PhaseUpdate, "boom", func(float32) error { panic("estourou") })
	l.Add(PhaseInput, "input", func(float32) error { order = append(order, "input"); return nil })
	l.Add(PhaseUpdate, "fail", func(float32) error { return errors.New("falhou") })
	l.Add(PhaseUpdate, "update", func(float32) error { order = append(order, "update"); return nil })

	require.NoError(t, l.Tick(0.016))
	require.NoError(t, l.Tick(0.016))
	assert.Equal(t, []string{"input", "update", "draw", "input", "update", "draw"}, order)
	assert.Equal(t, map[string]int{"boom": 2, "fail": 2}, l.Failures())
	assert.Equal(t, uint64(2), l.Frame())

	l.Stop()
	assert.ErrorIs(t, l.Tick(0.016), ErrDisposed)
	assert.Equal(t, uint64(2), l.Frame())
}

func TestSessionCloseOrder(t *testing.T) {
	loop := NewLoop(zerolog.Nop(), nil)
	s := NewSession(loop, zerolog.Nop())

	var events []string
	loop.Add(PhaseRender, "render", func(float32) error {
		events = append(events, "render")
		return nil
	})
	require.NoError(t, s.AddListener(ReleaseFunc(func() {
		assert.True(t, loop.Stopped(), "listener liberado com o loop rodando")
		events = append(events, "listener")
	})))
	require.NoError(t, s.AddWatch(ReleaseFunc(func() { events = append(events, "watch") })))
	require.NoError(t, s.OnDispose(func() { events = append(events, "gpu") }))
	require.NoError(t, s.OnDispose(func() { panic("driver") }))

	require.NoError(t, s.Tick(0.016))
	err := s.Close()
	assert.Error(t, err)
	assert.NoError(t, s.Close())

	assert.Equal(t, []string{"render", "listener", "watch", "gpu"}, events)
	assert.ErrorIs(t, s.Tick(0.016), ErrDisposed)

	late := false
	assert.ErrorIs(t, s.AddWatch(ReleaseFunc(func() { late = true })), ErrDisposed)
	assert.True(t, late)
}

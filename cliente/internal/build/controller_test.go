package build

import (
	"context"
	"fmt"
	"math"
	"testing"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/props"
	"YardVision/cliente/internal/scene"
	"YardVision/cliente/internal/world"
	"YardVision/shared/telemetry"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// topDown devolve raios verticais: o pixel (x, y) vira o ponto (x, 0, y) do chão.
type topDown struct{}

func (topDown) ScreenRay(x, y float32) geometry.Ray {
	return geometry.NewRay(mgl32.Vec3{x, 50, y}, mgl32.Vec3{0, -1, 0})
}

type plane struct{ half float32 }

func (p plane) GroundHit(r geometry.Ray) (mgl32.Vec3, bool) {
	hit, _, ok := r.IntersectPlaneY(0)
	if !ok || math.Abs(float64(hit.X())) > float64(p.half) || math.Abs(float64(hit.Z())) > float64(p.half) {
		return mgl32.Vec3{}, false
	}
	return hit, true
}

type fixture struct {
	ctrl  *Controller
	store *world.Store
	graph *scene.Graph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	store, err := world.Open(context.Background(), world.NewMemoryBackend(), zerolog.Nop(),
		world.WithIDGenerator(func() string { n++; return fmt.Sprintf("p%d", n) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	g := scene.NewGraph()
	ctrl := New(Deps{
		Store:    store,
		Registry: props.NewDefaultRegistry(zerolog.Nop(), telemetry.Nop()),
		Props:    g.Props,
		Overlay:  g.Overlay,
		Camera:   topDown{},
		Ground:   plane{half: 100},
		GridSize: 1,
		Log:      zerolog.Nop(),
	})
	t.Cleanup(ctrl.Close)
	return &fixture{ctrl: ctrl, store: store, graph: g}
}

func TestPlaceSnapsToGrid(t *testing.T) {
	f := newFixture(t)
	var committed []world.PropInstance
	f.ctrl.OnPropCommitted = func(p world.PropInstance) { committed = append(committed, p) }

	f.ctrl.SetMode(ModePlace)
	f.ctrl.SetType(props.RoadSegment)
	assert.Equal(t, StatePlacing, f.ctrl.State())

	require.True(t, f.ctrl.UpdatePreviewAt(3.4, 7.9))
	assert.Equal(t, StatePreviewing, f.ctrl.State())
	assert.Equal(t, mgl32.Vec3{3, 0, 8}, f.ctrl.Ghost().Position)

	id, ok := f.ctrl.ClickAt(3.4, 7.9)
	require.True(t, ok)
	assert.Equal(t, StatePlacing, f.ctrl.State())

	list := f.store.List()
	require.Len(t, list, 1)
	assert.Equal(t, world.Vec3{X: 3, Y: 0, Z: 8}, list[0].Position)
	assert.Equal(t, props.RoadSegment, list[0].Type)
	assert.Equal(t, id, f.ctrl.Selected())
	require.Len(t, committed, 1)
	assert.Equal(t, id, committed[0].ID)
	assert.NotNil(t, f.ctrl.Node(id))
}

func TestPreviewMissIsNoop(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)

	assert.False(t, f.ctrl.UpdatePreviewAt(500, 500))
	assert.Equal(t, StatePlacing, f.ctrl.State())
	_, ok := f.ctrl.ClickAt(500, 500)
	assert.False(t, ok)
	assert.Zero(t, f.store.Len())

	// Fora do modo colocar a pré-visualização não anda.
	f.ctrl.SetMode(ModeIdle)
	assert.False(t, f.ctrl.UpdatePreviewAt(1, 1))
}

func TestGhostMaterial(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)
	f.ctrl.SetType(props.BuildingBox)

	g := f.ctrl.Ghost()
	require.NotNil(t, g)
	assert.Equal(t, float32(GhostOpacity), g.Material.Opacity)
	assert.False(t, g.Material.DepthWrite)
	assert.False(t, g.Collidable)
	assert.Same(t, f.graph.Overlay, g.Parent)

	f.ctrl.SetType(props.NatureTree)
	assert.NotSame(t, g, f.ctrl.Ghost())
	assert.Len(t, f.graph.Overlay.Children, 1)

	f.ctrl.SetMode(ModeRemove)
	assert.Nil(t, f.ctrl.Ghost())
	assert.Empty(t, f.graph.Overlay.Children)
}

func TestRemoveWalksToPropAncestor(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)
	f.ctrl.SetType(props.BuildingBox)
	id, ok := f.ctrl.ClickAt(10, 10)
	require.True(t, ok)

	var removed []string
	f.ctrl.OnPropRemoved = func(id string) { removed = append(removed, id) }

	f.ctrl.SetMode(ModeRemove)
	_, ok = f.ctrl.ClickAt(-40, -40)
	assert.False(t, ok)

	got, ok := f.ctrl.ClickAt(10, 10)
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, []string{id}, removed)
	assert.Zero(t, f.store.Len())
	assert.Nil(t, f.ctrl.Node(id))
	assert.Empty(t, f.ctrl.Selected())
	assert.Equal(t, StateRemoving, f.ctrl.State())
}

func TestRotateSelectedPersists(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)
	id, _ := f.ctrl.ClickAt(0, 0)

	require.True(t, f.ctrl.RotateStep(1))
	p, _ := f.store.Get(id)
	assert.InDelta(t, math.Pi/2, p.RotationY, 1e-9)
	assert.InDelta(t, math.Pi/2, f.ctrl.Node(id).RotationY, 1e-6)

	require.True(t, f.ctrl.RotateStep(-1))
	require.True(t, f.ctrl.RotateStep(-1))
	p, _ = f.store.Get(id)
	assert.InDelta(t, 3*math.Pi/2, p.RotationY, 1e-9)
}

func TestRotatePreviewIsStaged(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)
	require.True(t, f.ctrl.RotateStep(1))
	assert.Zero(t, f.store.Len())
	assert.InDelta(t, math.Pi/2, f.ctrl.Ghost().RotationY, 1e-6)

	f.ctrl.ClickAt(2, 2)
	list := f.store.List()
	require.Len(t, list, 1)
	assert.InDelta(t, math.Pi/2, list[0].RotationY, 1e-9)
}

func TestNudgeSelected(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.ctrl.NudgeSelected(1, 0))

	f.ctrl.SetMode(ModePlace)
	id, _ := f.ctrl.ClickAt(5, 5)
	require.True(t, f.ctrl.NudgeSelected(1, -1))
	p, _ := f.store.Get(id)
	assert.Equal(t, world.Vec3{X: 6, Y: 0, Z: 4}, p.Position)
}

func TestSelectDeselectRestoresExactMaterials(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)
	id, _ := f.ctrl.ClickAt(5, 5)
	f.ctrl.Deselect()

	node := f.ctrl.Node(id)
	mesh := node.Children[0]
	origNode, origMesh := node.Material, mesh.Material

	for i := 0; i < 5; i++ {
		require.True(t, f.ctrl.Select(id))
		assert.NotSame(t, origMesh, mesh.Material)
		assert.Equal(t, props.ColorHighlight, mesh.Material.Emissive)
		f.ctrl.Deselect()
		assert.Same(t, origNode, node.Material)
		assert.Same(t, origMesh, mesh.Material)
	}
	assert.Equal(t, props.Color{}, origMesh.Emissive)
}

func TestIdleClickSelects(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)
	id, _ := f.ctrl.ClickAt(5, 5)
	f.ctrl.SetMode(ModeIdle)
	f.ctrl.Deselect()

	got, ok := f.ctrl.ClickAt(5, 5)
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, id, f.ctrl.Selected())

	_, ok = f.ctrl.ClickAt(-60, -60)
	assert.False(t, ok)
	assert.Empty(t, f.ctrl.Selected())
}

func TestRebuildFromStoreIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetMode(ModePlace)
	for i := 0; i < 4; i++ {
		f.ctrl.SetType(f.ctrl.registry.ListTypes()[i].Key)
		f.ctrl.RotateStep(1)
		f.ctrl.ClickAt(float32(i*7)+0.3, float32(-i*5)-0.2)
	}

	// Um nó perdido, fora do cache.
	f.graph.Props.AddChild(scene.NewNode("stray"))

	f.ctrl.RebuildFromStore()
	once := f.ctrl.Transforms()
	f.ctrl.RebuildFromStore()
	twice := f.ctrl.Transforms()

	assert.Equal(t, once, twice)
	assert.Len(t, once, 4)
	assert.Len(t, f.graph.Props.Children, 4)
}

func TestStoreChangesFromElsewhereAreMirrored(t *testing.T) {
	f := newFixture(t)
	p, err := f.store.Add(world.PropDraft{Type: "unknown.kind", Position: world.Vec3{X: 1}})
	require.NoError(t, err)

	n := f.ctrl.Node(p.ID)
	require.NotNil(t, n)
	assert.True(t, n.Children[0].Placeholder)

	f.store.Clear()
	assert.Zero(t, f.ctrl.Len())
	assert.Empty(t, f.graph.Props.Children)
}

func TestSnapRotation(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{-math.Pi / 2, 3 * math.Pi / 2},
		{2 * math.Pi, 0},
		{0.1, 0},
		{5 * math.Pi / 2, math.Pi / 2},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, SnapRotation(tt.in), 1e-9, "%v", tt.in)
	}
}

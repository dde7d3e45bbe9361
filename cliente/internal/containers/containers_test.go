package containers

import (
	"testing"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/scene"
	"YardVision/shared/config"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCam struct {
	target mgl32.Vec3
	dist   float32
	smooth bool
	calls  int
}

// Raio vertical de cima para baixo no ponto (x, z) do pátio.
func (c *fakeCam) ScreenRay(x, y float32) geometry.Ray {
	return geometry.NewRay(mgl32.Vec3{x, 100, y}, mgl32.Vec3{0, -1, 0})
}

func (c *fakeCam) FocusOn(t mgl32.Vec3, d float32, smooth bool) {
	c.target, c.dist, c.smooth = t, d, smooth
	c.calls++
}

func newTestLayer() (*Layer, *fakeCam, *scene.Graph) {
	g := scene.NewGraph()
	cam := &fakeCam{}
	cfg := config.DefaultConfig()
	return NewLayer(g.Containers, DefaultLayout(cfg), cam, zerolog.Nop(), nil), cam, g
}

func sample() []Record {
	return []Record{
		{ID: "c1", Matricula: "MSCU1234565", Type: "20DV", PositionCode: "A-01-1"},
		{ID: "c2", Matricula: "MAEU7654321", Type: "40HC", PositionCode: "B-03-2", Source: SourceScheduled},
		{ID: "c3", Matricula: "TGHU0000001", Type: "20", PositionCode: "???", Source: SourceDefective},
	}
}

func TestParsePositionCode(t *testing.T) {
	tests := []struct {
		code string
		want Slot
		ok   bool
	}{
		{"B-07-2", Slot{Row: 1, Bay: 6, Tier: 2}, true},
		{"a-1", Slot{Row: 0, Bay: 0, Tier: 1}, true},
		{"AA-10-3", Slot{Row: 26, Bay: 9, Tier: 3}, true},
		{" c-02 ", Slot{Row: 2, Bay: 1, Tier: 1}, true},
		{"", Slot{}, false},
		{"B", Slot{}, false},
		{"B-0", Slot{}, false},
		{"1-2-3", Slot{}, false},
		{"B-2-x", Slot{}, false},
		{"B-2-3-4", Slot{}, false},
	}
	for _, tt := range tests {
		got, err := ParsePositionCode(tt.code)
		if tt.ok {
			assert.NoError(t, err, tt.code)
			assert.Equal(t, tt.want, got, tt.code)
		} else {
			assert.ErrorIs(t, err, ErrBadPosition, tt.code)
		}
	}
}

func TestInboundConversion(t *testing.T) {
	in := []InboundRecord{
		{ID: "1", Matricula: "X", Tipo: "40", Posicion: "A-1", Estado: "en patio"},
		{ID: "2", Estado: "Programado"},
		{ID: "3", Estado: "DAÑADO"},
		{ID: "4", Estado: "defective"},
	}
	recs := FromInbound(in)
	require.Len(t, recs, 4)
	assert.Equal(t, Record{ID: "1", Matricula: "X", Type: "40", PositionCode: "A-1", Source: SourceInYard}, recs[0])
	assert.Equal(t, SourceScheduled, recs[1].Source)
	assert.Equal(t, SourceDefective, recs[2].Source)
	assert.Equal(t, SourceDefective, recs[3].Source)
}

func TestSizeForType(t *testing.T) {
	assert.InDelta(t, length20, SizeForType("20DV").X(), 1e-5)
	assert.InDelta(t, length40, SizeForType("40HC").X(), 1e-5)
	assert.InDelta(t, heightHigh, SizeForType("40HC").Y(), 1e-5)
	assert.InDelta(t, heightStd, SizeForType("").Y(), 1e-5)
}

func TestRefreshDiff(t *testing.T) {
	l, _, g := newTestLayer()

	st := l.Refresh(sample())
	assert.Equal(t, 3, st.Added)
	assert.Equal(t, 1, st.Staged)
	assert.Equal(t, 3, st.Nodes)
	assert.Equal(t, 3, len(g.Containers.Children))

	// Segunda chamada idêntica: nada muda, nenhuma alocação.
	st = l.Refresh(sample())
	assert.Equal(t, 3, st.Unchanged)
	assert.Zero(t, st.Added+st.Updated+st.Removed)
	assert.Equal(t, 3, st.Allocations)

	moved := sample()[:2]
	moved[0].PositionCode = "A-02-1"
	moved[1].Matricula = "MAEU7654321-R"
	before := l.Node("c1")
	oldPos := before.Position

	st = l.Refresh(moved)
	assert.Equal(t, 2, st.Updated)
	assert.Equal(t, 1, st.Removed)
	assert.Equal(t, 3, st.Allocations)
	assert.Same(t, before, l.Node("c1"))
	assert.NotEqual(t, oldPos, l.Node("c1").Position)
	assert.Equal(t, "MAEU7654321-R", l.Node("c2").Label)
	assert.Nil(t, l.Node("c3"))
}

func TestRefreshEmptyClearsEverything(t *testing.T) {
	l, cam, g := newTestLayer()
	l.Refresh(sample())
	n := l.Node("c1")
	require.NotNil(t, n)
	c := n.WorldBounds().Center()
	require.NotNil(t, l.HitTestScreen(c.X(), c.Z()))

	st := l.Refresh(nil)
	assert.Equal(t, 3, st.Removed)
	assert.Zero(t, l.Len())
	assert.Empty(t, g.Containers.Children)
	assert.Nil(t, l.HitTestScreen(c.X(), c.Z()))
	assert.Zero(t, cam.calls)
}

func TestHitTestIgnoresOtherNodes(t *testing.T) {
	l, _, g := newTestLayer()
	l.Refresh(sample()[:1])
	n := l.Node("c1")
	c := n.WorldBounds().Center()

	// Um prop qualquer no mesmo lugar, fora do grupo de contêineres.
	other := scene.NewGeometryNode("box", containerGeometry(Record{}))
	other.Position = n.Position
	other.Position[1] = 10
	g.Props.AddChild(other)

	hit, _, ok := l.HitTest(geometry.NewRay(mgl32.Vec3{c.X(), 100, c.Z()}, mgl32.Vec3{0, -1, 0}))
	require.True(t, ok)
	assert.Same(t, n, hit)

	_, _, ok = l.HitTest(geometry.NewRay(mgl32.Vec3{1000, 100, 1000}, mgl32.Vec3{0, -1, 0}))
	assert.False(t, ok)
}

func TestSelectFiresOncePerAction(t *testing.T) {
	l, _, _ := newTestLayer()
	l.Refresh(sample())

	var events []*Selection
	l.OnContainerSelected = func(s *Selection) { events = append(events, s) }

	n1, n2 := l.Node("c1"), l.Node("c2")
	orig1 := n1.Material

	l.Select(n1)
	require.Len(t, events, 1)
	assert.Equal(t, "c1", events[0].Record.ID)
	assert.NotSame(t, orig1, n1.Material)

	// Reselecionar dispara de novo.
	l.Select(n1)
	require.Len(t, events, 2)

	l.Select(n2)
	require.Len(t, events, 3)
	assert.Same(t, orig1, n1.Material)
	rec, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "c2", rec.ID)

	l.Select(nil)
	require.Len(t, events, 4)
	assert.Nil(t, events[3])
	_, ok = l.Selected()
	assert.False(t, ok)
}

// fakeProps imita o controlador de build ocioso: acerta só os pontos cadastrados.
type fakeProps struct {
	at       map[[2]float32]string
	selected string
	calls    int
}

func (f *fakeProps) ClickAt(x, y float32) (string, bool) {
	f.calls++
	id, ok := f.at[[2]float32{x, y}]
	f.selected = id
	return id, ok
}

func TestSelectAtKeepsDomainsIndependent(t *testing.T) {
	l, _, _ := newTestLayer()
	l.Refresh(sample()[:1])
	c := l.Node("c1").WorldBounds().Center()

	var events []*Selection
	l.OnContainerSelected = func(s *Selection) { events = append(events, s) }
	props := &fakeProps{at: map[[2]float32]string{{1000, 1000}: "q"}, selected: "p"}

	// Contêiner acertado: o prop selecionado continua selecionado.
	n, id := l.SelectAt(c.X(), c.Z(), props)
	require.NotNil(t, n)
	assert.Empty(t, id)
	assert.Zero(t, props.calls)
	assert.Equal(t, "p", props.selected)
	require.Len(t, events, 1)

	// Prop acertado: o contêiner continua selecionado e nada é emitido.
	n, id = l.SelectAt(1000, 1000, props)
	assert.Nil(t, n)
	assert.Equal(t, "q", id)
	assert.Len(t, events, 1)
	rec, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, "c1", rec.ID)

	// Vazio: limpa os dois.
	n, id = l.SelectAt(-1000, -1000, props)
	assert.Nil(t, n)
	assert.Empty(t, id)
	assert.Empty(t, props.selected)
	require.Len(t, events, 2)
	assert.Nil(t, events[1])

	// Vazio de novo sem nada selecionado não emite.
	l.SelectAt(-1000, -1000, props)
	assert.Len(t, events, 2)
}

func TestFocusCamera(t *testing.T) {
	l, cam, _ := newTestLayer()
	l.Refresh(sample()[:1])
	n := l.Node("c1")

	l.FocusCamera(n, true)
	assert.Equal(t, 1, cam.calls)
	assert.True(t, cam.smooth)
	assert.Equal(t, n.WorldBounds().Center(), cam.target)
	assert.Greater(t, cam.dist, float32(10))

	l.FocusCamera(n, false)
	assert.False(t, cam.smooth)
	l.FocusCamera(nil, false)
	assert.Equal(t, 2, cam.calls)
}

func TestFortyFootSpansTwoBays(t *testing.T) {
	lay := DefaultLayout(config.DefaultConfig())
	p20 := lay.SlotPosition(Slot{Bay: 2, Tier: 1}, SizeForType("20"))
	p40 := lay.SlotPosition(Slot{Bay: 2, Tier: 2}, SizeForType("40"))
	assert.InDelta(t, lay.BayPitch/2, p40.X()-p20.X(), 1e-5)
	assert.InDelta(t, lay.TierHeight, p40.Y(), 1e-5)
}

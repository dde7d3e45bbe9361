package props

import (
	"os"
	"path/filepath"
	"testing"

	"YardVision/shared/telemetry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewDefaultRegistry(zerolog.Nop(), telemetry.Nop())
}

func TestListTypesOrder(t *testing.T) {
	r := newTestRegistry()
	var keys []string
	for _, ti := range r.ListTypes() {
		keys = append(keys, ti.Key)
	}
	assert.Equal(t, []string{RoadSegment, RoadRoundabout, FencePanel, BuildingBox, NatureTree, TerrainHill}, keys)
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRegistry()
	dummy := func(Options) Geometry { return Geometry{} }

	tests := []struct {
		name  string
		entry Entry
	}{
		{"chave vazia", Entry{Factory: dummy}},
		{"sem fabrica", Entry{Key: "x.y"}},
		{"duplicada", Entry{Key: RoadSegment, Factory: dummy}},
	}
	for _, tt := range tests {
		err := r.Register(tt.entry)
		assert.ErrorIs(t, err, ErrInvalidEntry, tt.name)
	}

	require.NoError(t, r.Register(Entry{Key: "yard.crane", Factory: dummy}))
	assert.True(t, r.Has("yard.crane"))
	assert.Equal(t, "yard.crane", r.ListTypes()[len(r.ListTypes())-1].Label)
}

func TestCreateUnknownReturnsPlaceholder(t *testing.T) {
	r := newTestRegistry()

	g := r.Create("spaceship", nil)
	assert.True(t, g.Placeholder)
	assert.Equal(t, "spaceship", g.Type)
	assert.NotEmpty(t, g.Parts)
	assert.False(t, g.Bounds.IsEmpty())

	r.Create("spaceship", nil)
	assert.Equal(t, map[string]int{"spaceship": 2}, r.UnknownTypes())
}

func TestCreatePanickingFactory(t *testing.T) {
	r := newTestRegistry()
	require.NoError(t, r.Register(Entry{Key: "broken", Factory: func(Options) Geometry { panic("boom") }}))

	g := r.Create("broken", nil)
	assert.True(t, g.Placeholder)
}

func TestRoundaboutDims(t *testing.T) {
	tests := []struct {
		outer, ring, inner, island float64
	}{
		{20, 12, 8, 4.8},
		{10, 2, 8, 4.8},
		{5, 12, 0.5, 0.3},
	}
	for _, tt := range tests {
		inner, island := RoundaboutDims(tt.outer, tt.ring)
		assert.InDelta(t, tt.inner, inner, 1e-9)
		assert.InDelta(t, tt.island, island, 1e-9)
	}
}

func TestRoundaboutFactory(t *testing.T) {
	r := newTestRegistry()
	g := r.Create(RoadRoundabout, Options{"outerRadius": 20.0, "ringWidth": 12})
	require.Len(t, g.Parts, 3)

	ring := g.Parts[0]
	assert.Equal(t, KindRing, ring.Kind)
	assert.Equal(t, float32(20), ring.Size.X())
	assert.Equal(t, float32(8), ring.Inner)
	// 2π·20 / 12 ≈ 10,47
	assert.Equal(t, float32(10), ring.TextureRepeat.X())

	island := g.Parts[2]
	assert.Equal(t, KindDisc, island.Kind)
	assert.InDelta(t, 4.8, island.Size.X(), 1e-5)

	assert.InDelta(t, -20, g.Bounds.Min.X(), 1e-5)
	assert.InDelta(t, 20, g.Bounds.Max.Z(), 1e-5)
}

func TestFactoriesArePure(t *testing.T) {
	r := newTestRegistry()
	for _, ti := range r.ListTypes() {
		a := r.Create(ti.Key, Options{"length": 4})
		b := r.Create(ti.Key, Options{"length": 4})
		assert.Equal(t, a, b, ti.Key)
		assert.False(t, a.Placeholder, ti.Key)
		assert.False(t, a.Bounds.IsEmpty(), ti.Key)
	}
}

func TestDefaultsMerge(t *testing.T) {
	r := newTestRegistry()
	g := r.Create(BuildingBox, Options{"height": 12})
	assert.Equal(t, float32(12), g.Parts[0].Size.Y())
	assert.Equal(t, float32(10), g.Parts[0].Size.X())
}

func TestLoadCatalog(t *testing.T) {
	r := newTestRegistry()
	path := filepath.Join(t.TempDir(), "props.yaml")
	yml := `props:
  - key: road.segment
    label: Via de acesso
    defaults:
      width: 8
  - key: no.such.prop
    label: Nada
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	require.NoError(t, r.LoadCatalog(path))

	assert.Equal(t, "Via de acesso", r.ListTypes()[0].Label)
	assert.Equal(t, 8.0, r.Defaults(RoadSegment)["width"])
	assert.Equal(t, 10.0, r.Defaults(RoadSegment)["length"])
	assert.False(t, r.Has("no.such.prop"))

	assert.NoError(t, r.LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("props: [:"), 0644))
	assert.Error(t, r.LoadCatalog(bad))
}

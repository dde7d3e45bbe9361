package scene

import (
	"math"
	"math/rand"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/props"
	"YardVision/shared/config"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Semente do terreno distante. Fixa para o cenário ser sempre o mesmo.
const terrainSeed = 1977

// SkyColors são as cores do gradiente de fundo.
type SkyColors struct {
	Top     props.Color
	Horizon props.Color
}

// Base é o ambiente fixo do pátio: chão, céu, terreno distante, vegetação e alambrado.
type Base struct {
	cfg *config.Config
	log zerolog.Logger

	Graph     *Graph
	Ground    *Node
	Terrain   *Node
	Foliage   *Node
	Fence     *Node
	Buildings *Node
	Sky       SkyColors
	Layout    FenceLayout

	// GPU registra meshes e texturas criados pelo renderer para esta sessão.
	GPU *Resources

	groundHalf float32
	width      int32
	height     int32
	onResize   []func(w, h int32)
	colliders  []*Node
}

// NewBase monta o ambiente dentro de graph.Environment.
func NewBase(cfg *config.Config, graph *Graph, registry *props.Registry, log zerolog.Logger) *Base {
	b := &Base{
		cfg:    cfg,
		log:    log,
		Graph:  graph,
		GPU:    &Resources{},
		width:  cfg.WindowWidth,
		height: cfg.WindowHeight,
		Sky: SkyColors{
			Top:     props.Color{R: 94, G: 146, B: 214, A: 255},
			Horizon: props.Color{R: 206, G: 224, B: 240, A: 255},
		},
	}

	b.buildGround()
	b.buildFence()
	b.buildTerrain(registry)
	b.buildFoliage(registry)
	b.buildBuildings(registry)

	for _, n := range []*Node{b.Ground, b.Terrain, b.Foliage, b.Fence, b.Buildings} {
		graph.Environment.AddChild(n)
	}
	b.collectColliders()

	log.Info().
		Int("fence_panels", len(b.Layout.Panels)).
		Int("fence_posts", len(b.Layout.Posts)).
		Int("colliders", len(b.colliders)).
		Msg("Ambiente do pátio montado")
	return b
}

func (b *Base) yardHalf() (float32, float32) {
	return b.cfg.YardHalfX + b.cfg.FenceMargin, b.cfg.YardHalfZ + b.cfg.FenceMargin
}

func (b *Base) buildGround() {
	hx, hz := b.yardHalf()
	b.groundHalf = 4 * max(hx, hz)
	size := 2 * b.groundHalf
	tile := b.cfg.GroundTile
	if tile <= 0 {
		tile = 4
	}

	b.Ground = NewGeometryNode("ground", props.Geometry{
		Type: "ground",
		Parts: []props.Part{{
			Kind:          props.KindPlane,
			Size:          mgl32.Vec3{size, 0, size},
			Color:         props.Color{R: 132, G: 128, B: 118, A: 255},
			Texture:       "gravel",
			TextureRepeat: mgl32.Vec2{size / tile, size / tile},
		}},
		Bounds: geometry.AABB{
			Min: mgl32.Vec3{-b.groundHalf, -0.01, -b.groundHalf},
			Max: mgl32.Vec3{b.groundHalf, 0, b.groundHalf},
		},
	})
	b.Ground.Collidable = true
}

func (b *Base) buildFence() {
	b.Layout = BuildFence(b.cfg)
	b.Fence = NewNode("fence")
	h := b.cfg.FenceHeight

	for _, p := range b.Layout.Panels {
		part := props.Part{
			Kind:          props.KindBox,
			Size:          mgl32.Vec3{p.Length, h, 0.04},
			Color:         props.ColorFence,
			Texture:       "mesh",
			TextureRepeat: mgl32.Vec2{p.Length / h, 1},
		}
		n := NewGeometryNode("fence.panel."+p.Side, props.Geometry{Parts: []props.Part{part}, Bounds: part.Bounds()})
		n.Position = p.Center
		n.RotationY = p.RotationY
		n.Collidable = true
		b.Fence.AddChild(n)
	}
	for _, pos := range b.Layout.Posts {
		part := props.Part{
			Kind:   props.KindCylinder,
			Offset: mgl32.Vec3{0, h / 2, 0},
			Size:   mgl32.Vec3{0.06, h + 0.1, 0},
			Color:  props.ColorPost,
		}
		n := NewGeometryNode("fence.post", props.Geometry{Parts: []props.Part{part}, Bounds: part.Bounds()})
		n.Position = pos
		n.Collidable = true
		b.Fence.AddChild(n)
	}
}

// buildTerrain espalha colinas num anel fora do pátio.
func (b *Base) buildTerrain(registry *props.Registry) {
	b.Terrain = NewNode("terrain")
	hx, hz := b.yardHalf()
	rng := rand.New(rand.NewSource(terrainSeed))
	inner := 1.8 * max(hx, hz)
	const hills = 14

	for i := 0; i < hills; i++ {
		angle := float64(i)/hills*2*math.Pi + rng.Float64()*0.3
		dist := float64(inner) * (1 + rng.Float64()*0.6)
		radius := 14 + rng.Float64()*18
		height := 5 + rng.Float64()*12

		n := NewGeometryNode("terrain.hill", registry.Create(props.TerrainHill, props.Options{
			"radius": radius,
			"height": height,
		}))
		n.Position = mgl32.Vec3{float32(math.Cos(angle) * dist), 0, float32(math.Sin(angle) * dist)}
		n.Collidable = true
		b.Terrain.AddChild(n)
	}
}

// buildFoliage coloca árvores decorativas entre o alambrado e as colinas.
func (b *Base) buildFoliage(registry *props.Registry) {
	b.Foliage = NewNode("foliage")
	hx, hz := b.yardHalf()
	rng := rand.New(rand.NewSource(terrainSeed + 1))
	const trees = 48

	for i := 0; i < trees; i++ {
		var x, z float32
		// Faixa de 6 a 20 m fora do alambrado.
		off := 6 + float32(rng.Float64())*14
		along := float32(rng.Float64()*2 - 1)
		switch i % 4 {
		case 0:
			x, z = along*hx, -hz-off
		case 1:
			x, z = along*hx, hz+off
		case 2:
			x, z = hx+off, along*hz
		default:
			x, z = -hx-off, along*hz
		}
		n := NewGeometryNode("nature.tree", registry.Create(props.NatureTree, props.Options{
			"height":      4 + rng.Float64()*4,
			"crownRadius": 1.2 + rng.Float64()*1.2,
		}))
		n.Position = mgl32.Vec3{x, 0, z}
		n.RotationY = float32(rng.Float64() * 2 * math.Pi)
		n.Decorative = true
		b.Foliage.AddChild(n)
	}
}

// buildBuildings coloca a guarita do lado de fora do primeiro portão.
func (b *Base) buildBuildings(registry *props.Registry) {
	b.Buildings = NewNode("buildings")
	if len(b.cfg.Gates) == 0 {
		return
	}
	g := b.cfg.Gates[0]
	hx, hz := b.yardHalf()
	side := g.CenterOffset + g.Width/2 + 4
	var pos mgl32.Vec3
	switch g.Side {
	case SideNorth:
		pos = mgl32.Vec3{side, 0, -hz - 5}
	case SideEast:
		pos = mgl32.Vec3{hx + 5, 0, side}
	case SideWest:
		pos = mgl32.Vec3{-hx - 5, 0, side}
	default:
		pos = mgl32.Vec3{side, 0, hz + 5}
	}
	n := NewGeometryNode("building.gatehouse", registry.Create(props.BuildingBox, props.Options{
		"width": 4, "depth": 4, "height": 3,
	}))
	n.Position = pos
	n.Collidable = true
	b.Buildings.AddChild(n)
}

func (b *Base) collectColliders() {
	b.colliders = b.colliders[:0]
	for _, group := range []*Node{b.Ground, b.Terrain, b.Fence, b.Buildings} {
		group.Walk(func(n *Node) bool {
			if n.Decorative {
				return false
			}
			if n.Collidable && !n.LocalBounds.IsEmpty() {
				b.colliders = append(b.colliders, n)
			}
			return true
		})
	}
}

// BaseColliders devolve os objetos sólidos do ambiente (nunca a vegetação).
func (b *Base) BaseColliders() []*Node {
	out := make([]*Node, len(b.colliders))
	copy(out, b.colliders)
	return out
}

// GroundHit intersecta o raio com o plano do chão (y = 0) dentro da área do chão.
func (b *Base) GroundHit(ray geometry.Ray) (mgl32.Vec3, bool) {
	p, _, ok := ray.IntersectPlaneY(0)
	if !ok {
		return mgl32.Vec3{}, false
	}
	if abs32(p[0]) > b.groundHalf || abs32(p[2]) > b.groundHalf {
		return mgl32.Vec3{}, false
	}
	return p, true
}

// InsideYard indica se (x, z) está dentro do alambrado, com folga r.
func (b *Base) InsideYard(x, z, r float32) bool {
	hx, hz := b.yardHalf()
	return x > -hx+r && x < hx-r && z > -hz+r && z < hz-r
}

// YardExtents devolve as meias-extensões até o alambrado.
func (b *Base) YardExtents() (float32, float32) { return b.yardHalf() }

// OnResize registra quem precisa saber do tamanho da janela (câmera, renderer).
func (b *Base) OnResize(fn func(w, h int32)) {
	b.onResize = append(b.onResize, fn)
}

// Resize repassa o novo tamanho. Tamanhos inválidos (janela minimizada) são ignorados.
func (b *Base) Resize(w, h int32) {
	if w <= 0 || h <= 0 || (w == b.width && h == b.height) {
		return
	}
	b.width, b.height = w, h
	for _, fn := range b.onResize {
		fn(w, h)
	}
}

// Size devolve o tamanho atual da superfície.
func (b *Base) Size() (int32, int32) { return b.width, b.height }

// Dispose libera os recursos de GPU da sessão. Idempotente.
func (b *Base) Dispose() {
	if n := b.GPU.Dispose(); n > 0 {
		b.log.Info().Int("resources", n).Msg("Recursos de GPU liberados")
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

package props

import (
	"math"

	"YardVision/cliente/internal/geometry"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind identifica a primitiva de uma parte.
type Kind int

const (
	KindBox Kind = iota
	KindCylinder
	KindDisc
	KindRing
	KindCone
	KindSphere
	KindPlane
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindCylinder:
		return "cylinder"
	case KindDisc:
		return "disc"
	case KindRing:
		return "ring"
	case KindCone:
		return "cone"
	case KindSphere:
		return "sphere"
	case KindPlane:
		return "plane"
	case KindMarker:
		return "marker"
	}
	return "unknown"
}

// Color é uma cor RGBA de 8 bits (mesmo layout do raylib, sem depender dele).
type Color struct {
	R, G, B, A uint8
}

var (
	ColorAsphalt   = Color{58, 60, 64, 255}
	ColorLaneMark  = Color{235, 200, 60, 255}
	ColorCurb      = Color{190, 190, 180, 255}
	ColorGrass     = Color{86, 140, 62, 255}
	ColorFence     = Color{150, 160, 170, 160}
	ColorPost      = Color{110, 115, 120, 255}
	ColorWall      = Color{205, 196, 176, 255}
	ColorRoof      = Color{120, 70, 60, 255}
	ColorTrunk     = Color{96, 68, 44, 255}
	ColorFoliage   = Color{54, 110, 48, 255}
	ColorHill      = Color{104, 132, 70, 255}
	ColorMagenta   = Color{255, 0, 255, 255}
	ColorWhite     = Color{255, 255, 255, 255}
	ColorHighlight = Color{255, 190, 40, 255}
)

// Part é uma primitiva posicionada no espaço local do prop.
//
// Offset é o centro da parte. Size depende do tipo:
//   - box, marker: largura, altura, profundidade
//   - plane: largura (X) e profundidade (Z); Y é ignorado
//   - cylinder, cone: raio (X) e altura (Y)
//   - disc: raio (X), espessura (Y)
//   - ring: raio externo (X), espessura (Y); Inner é o raio interno
//   - sphere: raio (X)
type Part struct {
	Kind          Kind
	Offset        mgl32.Vec3
	Size          mgl32.Vec3
	Inner         float32
	RotationY     float32
	Color         Color
	Texture       string
	TextureRepeat mgl32.Vec2
}

// Bounds devolve a caixa local da parte.
func (p Part) Bounds() geometry.AABB {
	var half mgl32.Vec3
	switch p.Kind {
	case KindBox, KindMarker:
		half = p.Size.Mul(0.5)
	case KindPlane:
		half = mgl32.Vec3{p.Size[0] / 2, 0.01, p.Size[2] / 2}
	case KindCylinder, KindCone, KindDisc, KindRing:
		half = mgl32.Vec3{p.Size[0], p.Size[1] / 2, p.Size[0]}
	case KindSphere:
		half = mgl32.Vec3{p.Size[0], p.Size[0], p.Size[0]}
	}
	b := geometry.BoxAround(mgl32.Vec3{}, half)
	if p.RotationY != 0 {
		b = b.Transform(mgl32.HomogRotate3DY(p.RotationY))
	}
	return geometry.AABB{Min: b.Min.Add(p.Offset), Max: b.Max.Add(p.Offset)}
}

// Geometry é o resultado de uma fábrica: partes prontas para o renderer.
type Geometry struct {
	Type        string
	Parts       []Part
	Bounds      geometry.AABB
	Placeholder bool
}

func newGeometry(typ string, parts ...Part) Geometry {
	g := Geometry{Type: typ, Parts: parts, Bounds: geometry.EmptyAABB()}
	for _, p := range parts {
		g.Bounds = g.Bounds.Union(p.Bounds())
	}
	return g
}

// Placeholder devolve o marcador magenta usado para tipos desconhecidos.
func Placeholder(typ string) Geometry {
	g := newGeometry(typ,
		Part{Kind: KindMarker, Offset: mgl32.Vec3{0, 0.5, 0}, Size: mgl32.Vec3{1, 1, 1}, Color: ColorMagenta},
		Part{Kind: KindCone, Offset: mgl32.Vec3{0, 1.5, 0}, Size: mgl32.Vec3{0.4, 1, 0}, Color: ColorMagenta},
	)
	g.Placeholder = true
	return g
}

// Options são os parâmetros dimensionais de uma instância.
type Options map[string]any

// Float lê um número de o, aceitando os tipos que chegam de JSON e YAML.
func (o Options) Float(key string, def float64) float64 {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return def
}

func (o Options) merged(defaults map[string]float64) Options {
	out := make(Options, len(defaults)+len(o))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

func f32(v float64) float32 { return float32(v) }

func repeat(length, tile float64) float32 {
	if tile <= 0 {
		return 1
	}
	return f32(math.Max(1, math.Round(length/tile)))
}

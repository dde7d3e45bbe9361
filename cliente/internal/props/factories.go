package props

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Chaves do catálogo embutido.
const (
	RoadSegment    = "road.segment"
	RoadRoundabout = "road.roundabout"
	FencePanel     = "fence.panel"
	BuildingBox    = "building.box"
	NatureTree     = "nature.tree"
	TerrainHill    = "terrain.hill"
)

// RoundaboutDims calcula os raios derivados da rotatória.
// O anel nunca fecha: o raio interno tem mínimo de 0,5.
func RoundaboutDims(outerR, ringWidth float64) (innerR, islandR float64) {
	innerR = math.Max(outerR-ringWidth, 0.5)
	islandR = innerR * 0.6
	return innerR, islandR
}

func roadSegment(o Options) Geometry {
	length := o.Float("length", 10)
	width := o.Float("width", 6)
	return newGeometry(RoadSegment,
		Part{
			Kind:          KindPlane,
			Offset:        mgl32.Vec3{0, 0.02, 0},
			Size:          mgl32.Vec3{f32(width), 0, f32(length)},
			Color:         ColorAsphalt,
			Texture:       "asphalt",
			TextureRepeat: mgl32.Vec2{1, repeat(length, width)},
		},
		Part{
			Kind:   KindPlane,
			Offset: mgl32.Vec3{0, 0.03, 0},
			Size:   mgl32.Vec3{0.15, 0, f32(length * 0.9)},
			Color:  ColorLaneMark,
		},
	)
}

func roadRoundabout(o Options) Geometry {
	outerR := o.Float("outerRadius", 20)
	ringW := o.Float("ringWidth", 12)
	innerR, islandR := RoundaboutDims(outerR, ringW)
	circumference := 2 * math.Pi * outerR

	return newGeometry(RoadRoundabout,
		Part{
			Kind:          KindRing,
			Offset:        mgl32.Vec3{0, 0.02, 0},
			Size:          mgl32.Vec3{f32(outerR), 0.04, 0},
			Inner:         f32(innerR),
			Color:         ColorAsphalt,
			Texture:       "asphalt",
			TextureRepeat: mgl32.Vec2{repeat(circumference, ringW), 1},
		},
		Part{
			Kind:   KindRing,
			Offset: mgl32.Vec3{0, 0.08, 0},
			Size:   mgl32.Vec3{f32(innerR), 0.16, 0},
			Inner:  f32(islandR),
			Color:  ColorCurb,
		},
		Part{
			Kind:    KindDisc,
			Offset:  mgl32.Vec3{0, 0.1, 0},
			Size:    mgl32.Vec3{f32(islandR), 0.2, 0},
			Color:   ColorGrass,
			Texture: "grass",
		},
	)
}

func fencePanel(o Options) Geometry {
	length := o.Float("length", 3)
	height := o.Float("height", 2.4)
	l, h := f32(length), f32(height)
	return newGeometry(FencePanel,
		Part{Kind: KindBox, Offset: mgl32.Vec3{0, h / 2, 0}, Size: mgl32.Vec3{l, h, 0.04}, Color: ColorFence, Texture: "mesh"},
		Part{Kind: KindCylinder, Offset: mgl32.Vec3{-l / 2, h / 2, 0}, Size: mgl32.Vec3{0.05, h, 0}, Color: ColorPost},
		Part{Kind: KindCylinder, Offset: mgl32.Vec3{l / 2, h / 2, 0}, Size: mgl32.Vec3{0.05, h, 0}, Color: ColorPost},
	)
}

func buildingBox(o Options) Geometry {
	w := f32(o.Float("width", 10))
	d := f32(o.Float("depth", 8))
	h := f32(o.Float("height", 6))
	return newGeometry(BuildingBox,
		Part{Kind: KindBox, Offset: mgl32.Vec3{0, h / 2, 0}, Size: mgl32.Vec3{w, h, d}, Color: ColorWall, Texture: "wall"},
		Part{Kind: KindBox, Offset: mgl32.Vec3{0, h + 0.15, 0}, Size: mgl32.Vec3{w + 0.4, 0.3, d + 0.4}, Color: ColorRoof},
	)
}

func natureTree(o Options) Geometry {
	h := f32(o.Float("height", 5))
	crown := f32(o.Float("crownRadius", 1.8))
	trunkH := h * 0.45
	return newGeometry(NatureTree,
		Part{Kind: KindCylinder, Offset: mgl32.Vec3{0, trunkH / 2, 0}, Size: mgl32.Vec3{0.18, trunkH, 0}, Color: ColorTrunk},
		Part{Kind: KindCone, Offset: mgl32.Vec3{0, trunkH + (h-trunkH)/2, 0}, Size: mgl32.Vec3{crown, h - trunkH, 0}, Color: ColorFoliage},
	)
}

func terrainHill(o Options) Geometry {
	r := f32(o.Float("radius", 12))
	h := f32(o.Float("height", 4))
	return newGeometry(TerrainHill,
		Part{Kind: KindCone, Offset: mgl32.Vec3{0, h / 2, 0}, Size: mgl32.Vec3{r, h, 0}, Color: ColorHill, Texture: "grass"},
	)
}

// builtins é o catálogo padrão, na ordem em que aparece na paleta.
func builtins() []Entry {
	return []Entry{
		{Key: RoadSegment, Label: "Estrada", Defaults: map[string]float64{"length": 10, "width": 6}, Factory: roadSegment},
		{Key: RoadRoundabout, Label: "Rotatória", Defaults: map[string]float64{"outerRadius": 20, "ringWidth": 12}, Factory: roadRoundabout},
		{Key: FencePanel, Label: "Alambrado", Defaults: map[string]float64{"length": 3, "height": 2.4}, Factory: fencePanel},
		{Key: BuildingBox, Label: "Prédio", Defaults: map[string]float64{"width": 10, "depth": 8, "height": 6}, Factory: buildingBox},
		{Key: NatureTree, Label: "Árvore", Defaults: map[string]float64{"height": 5, "crownRadius": 1.8}, Factory: natureTree},
		{Key: TerrainHill, Label: "Colina", Defaults: map[string]float64{"radius": 12, "height": 4}, Factory: terrainHill},
	}
}

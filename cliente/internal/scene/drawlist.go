package scene

import (
	"sort"

	"YardVision/cliente/internal/props"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawItem é uma parte pronta para o renderer: matriz da malha unitária e cor final.
type DrawItem struct {
	Node       *Node
	Part       props.Part
	Transform  mgl32.Mat4
	Color      props.Color
	DepthWrite bool
	Depth      float32
}

// DrawList separa as partes visíveis em opacas e transparentes. Os buffers são
// reaproveitados entre frames.
type DrawList struct {
	Opaque      []DrawItem
	Transparent []DrawItem
}

// Reset esvazia a lista mantendo a capacidade.
func (l *DrawList) Reset() {
	l.Opaque = l.Opaque[:0]
	l.Transparent = l.Transparent[:0]
}

// Len devolve o total de partes.
func (l *DrawList) Len() int { return len(l.Opaque) + len(l.Transparent) }

// Build percorre root e preenche a lista. Transparentes ficam ordenadas do mais
// distante de eye para o mais próximo.
func (l *DrawList) Build(root *Node, eye mgl32.Vec3) {
	l.Reset()
	if root == nil || !root.EffectiveVisible() {
		return
	}
	var parent mgl32.Mat4
	if root.Parent != nil {
		parent = root.Parent.WorldMatrix()
	} else {
		parent = mgl32.Ident4()
	}
	l.collect(root, parent, eye)
	sort.SliceStable(l.Transparent, func(i, j int) bool {
		return l.Transparent[i].Depth > l.Transparent[j].Depth
	})
}

func (l *DrawList) collect(n *Node, parent mgl32.Mat4, eye mgl32.Vec3) {
	if !n.Visible {
		return
	}
	world := parent.Mul4(n.LocalMatrix())
	mat := n.Material
	if mat == nil {
		mat = DefaultMaterial()
	}
	for _, p := range n.Parts {
		item := DrawItem{
			Node:       n,
			Part:       p,
			Transform:  world.Mul4(PartMatrix(p)),
			Color:      Shade(p.Color, mat),
			DepthWrite: mat.DepthWrite,
		}
		center := world.Mul4x1(p.Offset.Vec4(1)).Vec3()
		item.Depth = center.Sub(eye).Len()
		if item.Color.A < 255 || !mat.DepthWrite {
			l.Transparent = append(l.Transparent, item)
		} else {
			l.Opaque = append(l.Opaque, item)
		}
	}
	for _, c := range n.Children {
		l.collect(c, world, eye)
	}
}

// PartMatrix leva a malha unitária do tipo da parte até o espaço local do nó.
// Caixa, marcador e esfera são centrados na origem; cilindro, cone, disco e anel têm a
// base em y=0 e altura 1; o plano tem lado 1 no plano XZ.
func PartMatrix(p props.Part) mgl32.Mat4 {
	m := mgl32.Translate3D(p.Offset[0], p.Offset[1], p.Offset[2])
	if p.RotationY != 0 {
		m = m.Mul4(mgl32.HomogRotate3DY(p.RotationY))
	}
	s := p.Size
	switch p.Kind {
	case props.KindBox, props.KindMarker:
		return m.Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	case props.KindPlane:
		return m.Mul4(mgl32.Scale3D(s[0], 1, s[2]))
	case props.KindSphere:
		return m.Mul4(mgl32.Scale3D(s[0], s[0], s[0]))
	case props.KindCylinder, props.KindCone, props.KindDisc, props.KindRing:
		return m.Mul4(mgl32.Translate3D(0, -s[1]/2, 0)).Mul4(mgl32.Scale3D(s[0], s[1], s[0]))
	}
	return m
}

// Shade combina a cor da parte com o material: tinta multiplica, opacidade multiplica o
// alfa e o emissivo (destaque) puxa a cor pela metade em direção a ele.
func Shade(c props.Color, m *Material) props.Color {
	out := props.Color{
		R: mul8(c.R, m.Tint.R),
		G: mul8(c.G, m.Tint.G),
		B: mul8(c.B, m.Tint.B),
		A: uint8(float32(mul8(c.A, m.Tint.A))*clamp01(m.Opacity) + 0.5),
	}
	if m.Emissive.A > 0 {
		out.R = mix8(out.R, m.Emissive.R)
		out.G = mix8(out.G, m.Emissive.G)
		out.B = mix8(out.B, m.Emissive.B)
	}
	return out
}

func mul8(a, b uint8) uint8 {
	return uint8((uint16(a)*uint16(b) + 127) / 255)
}

func mix8(a, b uint8) uint8 {
	return uint8((uint16(a) + uint16(b) + 1) / 2)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package scene contém o grafo de cena do pátio, o ambiente fixo (chão, terreno, alambrado)
// e o ciclo de vida do loop de renderização.
package scene

import (
	"sort"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/props"

	"github.com/go-gl/mathgl/mgl32"
)

// Material é o que o renderer usa para tingir as partes de um nó.
// Nós compartilham ponteiros; destaque de seleção troca o ponteiro por um clone.
type Material struct {
	Tint       props.Color
	Emissive   props.Color
	Opacity    float32
	DepthWrite bool
	Wireframe  bool
}

// DefaultMaterial devolve um material opaco sem tinta.
func DefaultMaterial() *Material {
	return &Material{Tint: props.ColorWhite, Opacity: 1, DepthWrite: true}
}

// Clone copia o material.
func (m *Material) Clone() *Material {
	c := *m
	return &c
}

// Node é um objeto da cena. PropID e ContainerID marcam nós que pertencem a um prop
// do mundo ou a um contêiner do inventário.
type Node struct {
	Name        string
	PropID      string
	ContainerID string
	Label       string

	Position  mgl32.Vec3
	RotationY float32
	Scale     mgl32.Vec3

	Parts       []props.Part
	LocalBounds geometry.AABB
	Material    *Material
	Placeholder bool

	Collidable bool
	Decorative bool
	Visible    bool

	Parent   *Node
	Children []*Node
}

// NewNode cria um nó visível com escala 1.
func NewNode(name string) *Node {
	return &Node{
		Name:        name,
		Scale:       mgl32.Vec3{1, 1, 1},
		LocalBounds: geometry.EmptyAABB(),
		Material:    DefaultMaterial(),
		Visible:     true,
	}
}

// NewGeometryNode cria um nó a partir da geometria de uma fábrica.
func NewGeometryNode(name string, g props.Geometry) *Node {
	n := NewNode(name)
	n.SetGeometry(g)
	return n
}

// SetGeometry troca as partes do nó.
func (n *Node) SetGeometry(g props.Geometry) {
	n.Parts = g.Parts
	n.LocalBounds = g.Bounds
	n.Placeholder = g.Placeholder
}

// AddChild pendura c em n (removendo de um pai anterior).
func (n *Node) AddChild(c *Node) {
	if c.Parent != nil {
		c.Parent.RemoveChild(c)
	}
	c.Parent = n
	n.Children = append(n.Children, c)
}

// RemoveChild solta c de n. Devolve false se c não era filho.
func (n *Node) RemoveChild(c *Node) bool {
	for i, ch := range n.Children {
		if ch == c {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			c.Parent = nil
			return true
		}
	}
	return false
}

// LocalMatrix é T * Ry * S.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2]).
		Mul4(mgl32.HomogRotate3DY(n.RotationY)).
		Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
}

// WorldMatrix acumula as matrizes até a raiz.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.LocalMatrix()
	for p := n.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// WorldBounds é a caixa das partes do próprio nó em coordenadas do mundo.
func (n *Node) WorldBounds() geometry.AABB {
	return n.LocalBounds.Transform(n.WorldMatrix())
}

// SubtreeBounds inclui os filhos.
func (n *Node) SubtreeBounds() geometry.AABB {
	b := n.WorldBounds()
	for _, c := range n.Children {
		b = b.Union(c.SubtreeBounds())
	}
	return b
}

// EffectiveVisible é falso se o nó ou algum ancestral estiver oculto.
func (n *Node) EffectiveVisible() bool {
	for p := n; p != nil; p = p.Parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Walk visita n e descendentes em profundidade. fn devolve false para não descer.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// AncestorWithProp sobe a partir de n até o primeiro nó marcado com PropID.
func AncestorWithProp(n *Node) *Node {
	for p := n; p != nil; p = p.Parent {
		if p.PropID != "" {
			return p
		}
	}
	return nil
}

// AncestorWithContainer sobe a partir de n até o primeiro nó de contêiner.
func AncestorWithContainer(n *Node) *Node {
	for p := n; p != nil; p = p.Parent {
		if p.ContainerID != "" {
			return p
		}
	}
	return nil
}

// Hit é um acerto de raycast.
type Hit struct {
	Node     *Node
	Distance float32
	Point    mgl32.Vec3
}

// Raycast testa o raio contra as caixas de nodes (e descendentes) e devolve os acertos
// ordenados por distância. Nós invisíveis e sem geometria são ignorados.
func Raycast(ray geometry.Ray, nodes []*Node, filter func(*Node) bool) []Hit {
	var hits []Hit
	for _, root := range nodes {
		root.Walk(func(n *Node) bool {
			if !n.Visible {
				return false
			}
			if n.LocalBounds.IsEmpty() || (filter != nil && !filter(n)) {
				return true
			}
			if d, ok := ray.IntersectAABB(n.WorldBounds()); ok {
				hits = append(hits, Hit{Node: n, Distance: d, Point: ray.At(d)})
			}
			return true
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// Nearest devolve o acerto mais próximo.
func Nearest(ray geometry.Ray, nodes []*Node, filter func(*Node) bool) (Hit, bool) {
	hits := Raycast(ray, nodes, filter)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// Graph é a árvore de cena. As camadas fixas são filhas diretas da raiz.
type Graph struct {
	Root *Node

	Environment *Node
	Props       *Node
	Containers  *Node
	Overlay     *Node
}

// NewGraph cria a raiz com as camadas vazias.
func NewGraph() *Graph {
	g := &Graph{Root: NewNode("root")}
	g.Environment = NewNode("environment")
	g.Props = NewNode("props")
	g.Containers = NewNode("containers")
	g.Overlay = NewNode("overlay")
	for _, l := range []*Node{g.Environment, g.Props, g.Containers, g.Overlay} {
		g.Root.AddChild(l)
	}
	return g
}

// Walk percorre a árvore inteira.
func (g *Graph) Walk(fn func(*Node) bool) { g.Root.Walk(fn) }

// Count devolve o número de nós abaixo de parent (sem contar parent).
func Count(parent *Node) int {
	total := 0
	parent.Walk(func(n *Node) bool {
		if n != parent {
			total++
		}
		return true
	})
	return total
}

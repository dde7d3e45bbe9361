package build

import (
	"YardVision/cliente/internal/props"
	"YardVision/cliente/internal/scene"
	"YardVision/cliente/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// onStoreChange mantém o cache id -> nó em dia com o Store.
func (c *Controller) onStoreChange(ch world.Change) {
	switch ch.Kind {
	case world.ChangeAdded:
		if ch.Instance != nil {
			c.upsertNode(*ch.Instance)
		}
	case world.ChangeUpdated:
		if ch.Instance != nil {
			c.upsertNode(*ch.Instance)
		}
	case world.ChangeRemoved:
		c.dropNode(ch.ID)
	case world.ChangeCleared, world.ChangeReset:
		c.RebuildFromStore()
	}
}

// RebuildFromStore descarta todos os nós de props (inclusive os perdidos) e recria a
// cena a partir do Store, na ordem de criação. Sem aleatoriedade: duas chamadas
// seguidas produzem as mesmas transformações.
func (c *Controller) RebuildFromStore() {
	for _, n := range append([]*scene.Node(nil), c.group.Children...) {
		c.group.RemoveChild(n)
	}
	c.nodes = make(map[string]*scene.Node)
	c.originals = make(map[*scene.Node]*scene.Material)

	selected := c.selected
	c.selected = ""
	for _, inst := range c.store.List() {
		c.upsertNode(inst)
	}
	if selected != "" {
		c.Select(selected)
	}
}

func (c *Controller) upsertNode(inst world.PropInstance) {
	n, ok := c.nodes[inst.ID]
	if !ok {
		n = scene.NewNode(inst.Type)
		n.PropID = inst.ID
		n.Collidable = true
		n.AddChild(scene.NewNode("mesh"))
		c.group.AddChild(n)
		c.nodes[inst.ID] = n
	}
	n.Position = mgl32.Vec3{float32(inst.Position.X), float32(inst.Position.Y), float32(inst.Position.Z)}
	n.RotationY = float32(inst.RotationY)
	n.Scale = mgl32.Vec3{float32(inst.Scale.X), float32(inst.Scale.Y), float32(inst.Scale.Z)}

	mesh := n.Children[0]
	mesh.SetGeometry(c.registry.Create(inst.Type, props.Options(inst.Params)))
	mesh.Collidable = true
}

func (c *Controller) dropNode(id string) {
	n, ok := c.nodes[id]
	if !ok {
		return
	}
	if c.selected == id {
		c.selected = ""
		for k := range c.originals {
			delete(c.originals, k)
		}
	}
	c.group.RemoveChild(n)
	delete(c.nodes, id)
}

// Select destaca o prop id (clonando os materiais) e desfaz o destaque anterior.
func (c *Controller) Select(id string) bool {
	n, ok := c.nodes[id]
	if !ok {
		return false
	}
	if c.selected == id {
		return true
	}
	c.Deselect()

	n.Walk(func(child *scene.Node) bool {
		if child.Material != nil {
			c.originals[child] = child.Material
			hl := child.Material.Clone()
			hl.Emissive = props.ColorHighlight
			child.Material = hl
		}
		return true
	})
	c.selected = id
	return true
}

// Deselect devolve exatamente os materiais originais.
func (c *Controller) Deselect() {
	if c.selected == "" {
		return
	}
	for n, m := range c.originals {
		n.Material = m
		delete(c.originals, n)
	}
	c.selected = ""
}

// Selected devolve o id selecionado ("" se nenhum).
func (c *Controller) Selected() string { return c.selected }

// Node devolve o nó de um prop.
func (c *Controller) Node(id string) *scene.Node { return c.nodes[id] }

// Len devolve quantos props estão na cena.
func (c *Controller) Len() int { return len(c.nodes) }

// Transforms devolve a matriz de mundo de cada prop renderizado.
func (c *Controller) Transforms() map[string]mgl32.Mat4 {
	out := make(map[string]mgl32.Mat4, len(c.nodes))
	for id, n := range c.nodes {
		out[id] = n.WorldMatrix()
	}
	return out
}

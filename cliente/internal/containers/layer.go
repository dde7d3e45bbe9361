package containers

import (
	"context"
	"sort"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/props"
	"YardVision/cliente/internal/scene"
	"YardVision/shared/telemetry"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Camera é o que a camada precisa da câmera.
type Camera interface {
	ScreenRay(x, y float32) geometry.Ray
	FocusOn(target mgl32.Vec3, distance float32, smooth bool)
}

// Selection é entregue a OnContainerSelected. nil significa "nada selecionado".
type Selection struct {
	Record Record
	Node   *scene.Node
}

// Stats resume o último Refresh. Allocations é acumulado desde a criação da camada.
type Stats struct {
	Added       int
	Updated     int
	Removed     int
	Unchanged   int
	Staged      int
	Nodes       int
	Allocations int
}

type entry struct {
	rec      Record
	node     *scene.Node
	original *scene.Material
}

// Layer mantém um nó por contêiner do inventário.
type Layer struct {
	group  *scene.Node
	layout Layout
	cam    Camera

	nodes       map[string]*entry
	selected    string
	allocations int
	last        Stats

	// OnContainerSelected é chamado uma vez por ação de seleção (inclusive ao reselecionar).
	OnContainerSelected func(*Selection)

	log     zerolog.Logger
	metrics *telemetry.Counters
}

// NewLayer cria a camada pendurando os nós em group.
func NewLayer(group *scene.Node, layout Layout, cam Camera, log zerolog.Logger, metrics *telemetry.Counters) *Layer {
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Layer{
		group:   group,
		layout:  layout,
		cam:     cam,
		nodes:   make(map[string]*entry),
		log:     log,
		metrics: metrics,
	}
}

// Refresh compara records com os nós atuais por id: cria, atualiza ou remove.
// Registros iguais ao anterior não geram nenhuma alocação.
func (l *Layer) Refresh(records []Record) Stats {
	st := Stats{}
	seen := make(map[string]bool, len(records))
	staging := 0

	for _, r := range records {
		if r.ID == "" {
			l.log.Warn().Str("matricula", r.Matricula).Msg("Contêiner sem id ignorado")
			continue
		}
		if seen[r.ID] {
			l.log.Warn().Str("id", r.ID).Msg("Contêiner duplicado no inventário, mantendo o primeiro")
			continue
		}
		seen[r.ID] = true

		size := SizeForType(r.Type)
		var pos mgl32.Vec3
		if slot, err := ParsePositionCode(r.PositionCode); err != nil {
			pos = l.layout.StagingPosition(staging)
			staging++
			st.Staged++
			if e, ok := l.nodes[r.ID]; !ok || e.rec.PositionCode != r.PositionCode {
				l.log.Warn().Err(err).Str("id", r.ID).Msg("Posição inválida, contêiner na área de espera")
			}
		} else {
			pos = l.layout.SlotPosition(slot, size)
		}

		e, ok := l.nodes[r.ID]
		if !ok {
			n := scene.NewGeometryNode("container", containerGeometry(r))
			n.ContainerID = r.ID
			n.Label = r.Matricula
			n.Position = pos
			n.Collidable = true
			l.group.AddChild(n)
			l.nodes[r.ID] = &entry{rec: r, node: n, original: n.Material}
			l.allocations++
			st.Added++
			continue
		}

		if e.rec == r && e.node.Position == pos {
			st.Unchanged++
			continue
		}
		if e.rec.Type != r.Type || e.rec.Source != r.Source {
			e.node.SetGeometry(containerGeometry(r))
		}
		e.node.Position = pos
		e.node.Label = r.Matricula
		e.rec = r
		st.Updated++
	}

	for id, e := range l.nodes {
		if seen[id] {
			continue
		}
		l.group.RemoveChild(e.node)
		delete(l.nodes, id)
		st.Removed++
		if l.selected == id {
			l.selected = ""
		}
	}

	ctx := context.Background()
	l.metrics.InventoryNodes.Add(ctx, int64(st.Added-st.Removed))

	st.Nodes = len(l.nodes)
	st.Allocations = l.allocations
	l.last = st
	if st.Added+st.Updated+st.Removed > 0 {
		l.log.Debug().
			Int("added", st.Added).Int("updated", st.Updated).Int("removed", st.Removed).
			Int("staged", st.Staged).Int("nodes", st.Nodes).
			Msg("Inventário atualizado")
	}
	return st
}

// LastStats devolve as estatísticas do último Refresh.
func (l *Layer) LastStats() Stats { return l.last }

// Len devolve o número de contêineres renderizados.
func (l *Layer) Len() int { return len(l.nodes) }

// Node devolve o nó de um contêiner.
func (l *Layer) Node(id string) *scene.Node {
	if e, ok := l.nodes[id]; ok {
		return e.node
	}
	return nil
}

// Record devolve o registro de um contêiner.
func (l *Layer) Record(id string) (Record, bool) {
	e, ok := l.nodes[id]
	if !ok {
		return Record{}, false
	}
	return e.rec, true
}

// Nodes devolve os nós ordenados por id.
func (l *Layer) Nodes() []*scene.Node {
	ids := make([]string, 0, len(l.nodes))
	for id := range l.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*scene.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.nodes[id].node)
	}
	return out
}

// HitTest devolve o contêiner mais próximo atingido pelo raio (só contêineres).
func (l *Layer) HitTest(ray geometry.Ray) (*scene.Node, float32, bool) {
	h, ok := scene.Nearest(ray, []*scene.Node{l.group}, func(n *scene.Node) bool {
		return n.ContainerID != ""
	})
	if !ok {
		return nil, 0, false
	}
	return scene.AncestorWithContainer(h.Node), h.Distance, true
}

// HitTestScreen faz HitTest com o raio que passa pelo pixel (x, y).
func (l *Layer) HitTestScreen(x, y float32) *scene.Node {
	if l.cam == nil {
		return nil
	}
	n, _, _ := l.HitTest(l.cam.ScreenRay(x, y))
	return n
}

// FocusCamera enquadra o contêiner. smooth anima; senão salta.
func (l *Layer) FocusCamera(n *scene.Node, smooth bool) {
	if n == nil || l.cam == nil {
		return
	}
	b := n.WorldBounds()
	size := b.Size()
	dist := 3*max(size[0], size[1], size[2]) + 10
	l.cam.FocusOn(b.Center(), dist, smooth)
}

// Select marca n como selecionado e notifica OnContainerSelected (uma vez por chamada,
// mesmo que n já esteja selecionado). Select(nil) limpa e notifica nil.
func (l *Layer) Select(n *scene.Node) {
	if n != nil {
		n = scene.AncestorWithContainer(n)
	}
	var e *entry
	if n != nil {
		e = l.nodes[n.ContainerID]
	}

	if l.selected != "" && (e == nil || l.selected != e.rec.ID) {
		if prev, ok := l.nodes[l.selected]; ok {
			prev.node.Material = prev.original
		}
	}

	if e == nil {
		l.selected = ""
		if l.OnContainerSelected != nil {
			l.OnContainerSelected(nil)
		}
		return
	}

	if l.selected != e.rec.ID {
		hl := e.original.Clone()
		hl.Emissive = props.ColorHighlight
		e.node.Material = hl
		l.selected = e.rec.ID
	}
	if l.OnContainerSelected != nil {
		l.OnContainerSelected(&Selection{Record: e.rec, Node: e.node})
	}
}

// PropClicker é o lado dos props num clique de seleção (o build.Controller ocioso).
type PropClicker interface {
	ClickAt(x, y float32) (string, bool)
}

// SelectAt roteia um clique de seleção entre contêineres e props, que são seleções
// independentes: acertar um contêiner não mexe no prop selecionado e vice-versa.
// Clique no vazio limpa as duas.
func (l *Layer) SelectAt(x, y float32, props PropClicker) (n *scene.Node, propID string) {
	if n = l.HitTestScreen(x, y); n != nil {
		l.Select(n)
		return n, ""
	}
	if props != nil {
		if id, ok := props.ClickAt(x, y); ok {
			return nil, id
		}
	}
	if l.selected != "" {
		l.Select(nil)
	}
	return nil, ""
}

// Selected devolve o registro selecionado.
func (l *Layer) Selected() (Record, bool) {
	if l.selected == "" {
		return Record{}, false
	}
	return l.Record(l.selected)
}

// Package build implementa o modo construção: colocar, remover, girar e empurrar props
// com pré-visualização ("fantasma") e encaixe na grade.
package build

import (
	"math"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/props"
	"YardVision/cliente/internal/scene"
	"YardVision/cliente/internal/world"
	"YardVision/shared/telemetry"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// Mode é o modo escolhido na paleta.
type Mode int

const (
	ModeIdle Mode = iota
	ModePlace
	ModeRemove
)

func (m Mode) String() string {
	switch m {
	case ModePlace:
		return "place"
	case ModeRemove:
		return "remove"
	}
	return "idle"
}

// State é o estado interno da máquina.
type State int

const (
	StateIdle State = iota
	StatePlacing
	StatePreviewing
	StateRemoving
)

func (s State) String() string {
	switch s {
	case StatePlacing:
		return "placing"
	case StatePreviewing:
		return "previewing"
	case StateRemoving:
		return "removing"
	}
	return "idle"
}

// GhostOpacity é a opacidade do fantasma de pré-visualização.
const GhostOpacity = 0.45

const quarterTurn = math.Pi / 2

// RayCaster converte pixels em raios (a câmera).
type RayCaster interface {
	ScreenRay(x, y float32) geometry.Ray
}

// GroundPicker intersecta raios com o chão (a base da cena).
type GroundPicker interface {
	GroundHit(ray geometry.Ray) (mgl32.Vec3, bool)
}

// Deps reúne as dependências do controlador.
type Deps struct {
	Store    *world.Store
	Registry *props.Registry
	Props    *scene.Node // grupo onde ficam os props do mundo
	Overlay  *scene.Node // grupo do fantasma
	Camera   RayCaster
	Ground   GroundPicker
	GridSize float32
	Log      zerolog.Logger
	Metrics  *telemetry.Counters
}

// Controller é a máquina de estados do modo construção. Os nós dos props são mantidos
// por uma inscrição no Store: o controlador só pede mudanças ao Store.
type Controller struct {
	store    *world.Store
	registry *props.Registry
	group    *scene.Node
	overlay  *scene.Node
	cam      RayCaster
	ground   GroundPicker
	grid     float32

	mode     Mode
	state    State
	propType string

	ghost       *scene.Node
	ghostRot    float64
	lastPreview mgl32.Vec3
	hasPreview  bool

	nodes     map[string]*scene.Node
	selected  string
	originals map[*scene.Node]*scene.Material

	unsubscribe func()

	// OnPropCommitted é chamado depois de cada colocação.
	OnPropCommitted func(world.PropInstance)
	// OnPropRemoved é chamado depois de cada remoção pelo modo remover.
	OnPropRemoved func(id string)

	log     zerolog.Logger
	metrics *telemetry.Counters
}

// New cria o controlador, assina o Store e reconstrói a cena a partir dele.
func New(d Deps) *Controller {
	if d.Metrics == nil {
		d.Metrics = telemetry.Nop()
	}
	if d.GridSize <= 0 {
		d.GridSize = 1
	}
	c := &Controller{
		store:     d.Store,
		registry:  d.Registry,
		group:     d.Props,
		overlay:   d.Overlay,
		cam:       d.Camera,
		ground:    d.Ground,
		grid:      d.GridSize,
		propType:  props.RoadSegment,
		nodes:     make(map[string]*scene.Node),
		originals: make(map[*scene.Node]*scene.Material),
		log:       d.Log,
		metrics:   d.Metrics,
	}
	if types := d.Registry.ListTypes(); len(types) > 0 {
		c.propType = types[0].Key
	}
	c.unsubscribe = d.Store.Subscribe(c.onStoreChange)
	c.RebuildFromStore()
	return c
}

// Mode devolve o modo atual.
func (c *Controller) Mode() Mode { return c.mode }

// State devolve o estado atual.
func (c *Controller) State() State { return c.state }

// Type devolve o tipo usado nas próximas colocações.
func (c *Controller) Type() string { return c.propType }

// Grid devolve o tamanho da grade.
func (c *Controller) Grid() float32 { return c.grid }

// Ghost devolve o nó de pré-visualização (nil fora do modo colocar).
func (c *Controller) Ghost() *scene.Node { return c.ghost }

// SetMode troca o modo.
func (c *Controller) SetMode(m Mode) {
	if m == c.mode {
		return
	}
	c.mode = m
	c.hasPreview = false
	switch m {
	case ModePlace:
		c.state = StatePlacing
		c.rebuildGhost()
	case ModeRemove:
		c.state = StateRemoving
		c.dropGhost()
	default:
		c.state = StateIdle
		c.dropGhost()
	}
	c.log.Debug().Str("mode", m.String()).Msg("Modo construção")
}

// SetType troca o tipo de prop e regenera o fantasma.
func (c *Controller) SetType(typ string) {
	if typ == "" || typ == c.propType {
		return
	}
	c.propType = typ
	if c.mode == ModePlace {
		c.rebuildGhost()
	}
}

func (c *Controller) rebuildGhost() {
	c.dropGhost()
	g := c.registry.Create(c.propType, nil)
	n := scene.NewGeometryNode("ghost", g)
	n.Material = &scene.Material{
		Tint:       props.ColorWhite,
		Opacity:    GhostOpacity,
		DepthWrite: false,
	}
	n.Collidable = false
	n.Visible = c.hasPreview
	n.RotationY = float32(c.ghostRot)
	if c.hasPreview {
		n.Position = c.lastPreview
	}
	c.ghost = n
	if c.overlay != nil {
		c.overlay.AddChild(n)
	}
}

func (c *Controller) dropGhost() {
	if c.ghost != nil && c.ghost.Parent != nil {
		c.ghost.Parent.RemoveChild(c.ghost)
	}
	c.ghost = nil
}

// UpdatePreviewAt move o fantasma para a célula sob o pixel (x, y).
func (c *Controller) UpdatePreviewAt(x, y float32) bool {
	if c.cam == nil {
		return false
	}
	return c.UpdatePreviewRay(c.cam.ScreenRay(x, y))
}

// UpdatePreviewRay move o fantasma para a célula onde ray toca o chão.
// Raio que não toca o chão não muda nada.
func (c *Controller) UpdatePreviewRay(ray geometry.Ray) bool {
	if c.mode != ModePlace {
		return false
	}
	hit, ok := c.ground.GroundHit(ray)
	if !ok {
		return false
	}
	snapped := geometry.SnapXZ(hit, c.grid)
	snapped[1] = 0
	c.lastPreview = snapped
	c.hasPreview = true
	c.state = StatePreviewing
	if c.ghost != nil {
		c.ghost.Position = snapped
		c.ghost.Visible = true
	}
	return true
}

// Preview devolve a última célula pré-visualizada.
func (c *Controller) Preview() (mgl32.Vec3, bool) { return c.lastPreview, c.hasPreview }

// ClickAt trata um clique no pixel (x, y).
func (c *Controller) ClickAt(x, y float32) (string, bool) {
	if c.cam == nil {
		return "", false
	}
	return c.ClickRay(c.cam.ScreenRay(x, y))
}

// ClickRay trata um clique: colocar confirma a célula pré-visualizada e seleciona o
// novo prop; remover apaga o prop atingido; ocioso seleciona ou limpa a seleção.
// Devolve o id afetado.
func (c *Controller) ClickRay(ray geometry.Ray) (string, bool) {
	switch c.mode {
	case ModePlace:
		// Toque não tem "hover": sem pré-visualização, usa o próprio clique.
		if !c.hasPreview && !c.UpdatePreviewRay(ray) {
			return "", false
		}
		return c.commit()
	case ModeRemove:
		id, ok := c.pickProp(ray)
		if !ok {
			return "", false
		}
		return id, c.remove(id)
	default:
		id, ok := c.pickProp(ray)
		if !ok {
			c.Deselect()
			return "", false
		}
		c.Select(id)
		return id, true
	}
}

func (c *Controller) commit() (string, bool) {
	var params map[string]any
	if defs := c.registry.Defaults(c.propType); len(defs) > 0 {
		params = make(map[string]any, len(defs))
		for k, v := range defs {
			params[k] = v
		}
	}
	p := c.lastPreview
	inst, err := c.store.Add(world.PropDraft{
		Type:      c.propType,
		Position:  world.Vec3{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])},
		RotationY: c.ghostRot,
		Params:    params,
	})
	if err != nil {
		c.log.Error().Err(err).Str("type", c.propType).Msg("Falha ao colocar prop")
		return "", false
	}

	c.hasPreview = false
	c.state = StatePlacing
	c.Select(inst.ID)
	telemetry.Inc(c.metrics.PropsCommitted, telemetry.Kind(inst.Type))
	if c.OnPropCommitted != nil {
		c.OnPropCommitted(inst)
	}
	return inst.ID, true
}

func (c *Controller) remove(id string) bool {
	if err := c.store.Remove(id); err != nil {
		c.log.Warn().Err(err).Str("id", id).Msg("Falha ao remover prop")
		return false
	}
	c.state = StateRemoving
	telemetry.Inc(c.metrics.PropsRemoved)
	if c.OnPropRemoved != nil {
		c.OnPropRemoved(id)
	}
	return true
}

// pickProp devolve o prop mais próximo atingido pelo raio.
func (c *Controller) pickProp(ray geometry.Ray) (string, bool) {
	for _, h := range scene.Raycast(ray, []*scene.Node{c.group}, nil) {
		if owner := scene.AncestorWithProp(h.Node); owner != nil {
			return owner.PropID, true
		}
	}
	return "", false
}

// RotateStep gira 90° * dir. Com um prop selecionado a rotação é gravada; senão só o
// fantasma gira e a rotação vale para a próxima colocação.
func (c *Controller) RotateStep(dir int) bool {
	if dir == 0 {
		return false
	}
	if c.selected != "" {
		inst, ok := c.store.Get(c.selected)
		if !ok {
			return false
		}
		rot := SnapRotation(inst.RotationY + float64(dir)*quarterTurn)
		_, err := c.store.Update(c.selected, world.Patch{RotationY: &rot})
		return err == nil
	}
	if c.mode != ModePlace {
		return false
	}
	c.ghostRot = SnapRotation(c.ghostRot + float64(dir)*quarterTurn)
	if c.ghost != nil {
		c.ghost.RotationY = float32(c.ghostRot)
	}
	return true
}

// SnapRotation arredonda para múltiplos de 90° em [0, 2π).
func SnapRotation(r float64) float64 {
	steps := math.Round(r / quarterTurn)
	steps = math.Mod(steps, 4)
	if steps < 0 {
		steps += 4
	}
	return steps * quarterTurn
}

// NudgeSelected empurra o prop selecionado dx, dz unidades de grade e grava.
func (c *Controller) NudgeSelected(dx, dz int) bool {
	if c.selected == "" || (dx == 0 && dz == 0) {
		return false
	}
	inst, ok := c.store.Get(c.selected)
	if !ok {
		return false
	}
	g := float64(c.grid)
	pos := inst.Position.Add(world.Vec3{X: float64(dx) * g, Z: float64(dz) * g})
	_, err := c.store.Update(c.selected, world.Patch{Position: &pos})
	return err == nil
}

// Close cancela a inscrição no Store e remove o fantasma.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.dropGhost()
}

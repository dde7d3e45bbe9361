package camera

import (
	"math"

	"YardVision/cliente/internal/geometry"

	"github.com/go-gl/mathgl/mgl32"
)

// Mode define qual controle comanda a câmera. Só um modo fica ativo por vez.
type Mode int

const (
	ModeOrbit Mode = iota
	ModeFirstPerson
	ModeFixed
)

func (m Mode) String() string {
	switch m {
	case ModeOrbit:
		return "orbit"
	case ModeFirstPerson:
		return "firstPerson"
	case ModeFixed:
		return "fixed"
	}
	return "unknown"
}

// FocusDuration é a duração da animação de foco suave.
const FocusDuration float32 = 0.6

// State é a foto da câmera num frame.
type State struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Zoom     float32
	Mode     Mode
}

type focusAnim struct {
	fromLook, toLook mgl32.Vec3
	fromZoom, toZoom float32
	elapsed          float32
}

// CameraController gerencia a movimentação e a projeção da câmera.
// Em órbita segue um alvo com movimento suave e zoom que afeta a velocidade.
type CameraController struct {
	mode Mode

	// Projeção
	FOV    float32 // graus
	Near   float32
	Far    float32
	Width  int32
	Height int32

	// Configurações da órbita
	MinDistance  float32
	MaxDistance  float32
	MinElevation float32 // radianos, negativo = olhando para baixo
	MaxElevation float32
	MoveSpeed    float32
	RotateSpeed  float32
	ZoomSpeed    float32
	SmoothFactor float32 // 0.0 a 1.0 (quanto menor, mais suave/lento)
	BoundsX      float32 // o alvo não sai de [-BoundsX, BoundsX]
	BoundsZ      float32

	// Estado alvo (para interpolação suave)
	TargetLookAt mgl32.Vec3
	TargetZoom   float32
	TargetAngleY float32 // azimute
	TargetAngleX float32 // elevação

	// Estado atual (interpolado)
	CurrentLookAt mgl32.Vec3
	CurrentZoom   float32

	// Primeira pessoa
	Eye   mgl32.Vec3
	Yaw   float32
	Pitch float32

	// Fixa
	fixedPos    mgl32.Vec3
	fixedTarget mgl32.Vec3

	anim *focusAnim

	position mgl32.Vec3
	target   mgl32.Vec3
}

// New cria um controlador em órbita olhando para a origem.
func New(width, height int32, fov float32) *CameraController {
	if fov <= 0 {
		fov = 45
	}
	c := &CameraController{
		mode:         ModeOrbit,
		FOV:          fov,
		Near:         0.1,
		Far:          2000,
		Width:        width,
		Height:       height,
		MinDistance:  5,
		MaxDistance:  200,
		MinElevation: -89 * math.Pi / 180,
		MaxElevation: -5 * math.Pi / 180,
		MoveSpeed:    30,
		RotateSpeed:  2,
		ZoomSpeed:    5,
		SmoothFactor: 0.1,
		BoundsX:      500,
		BoundsZ:      500,

		TargetZoom:   60,
		TargetAngleY: 45 * math.Pi / 180,  // 45 graus (vista isométrica)
		TargetAngleX: -35 * math.Pi / 180, // olhando de cima
	}
	c.CurrentLookAt = c.TargetLookAt
	c.CurrentZoom = c.TargetZoom
	c.recompute()
	return c
}

// SetBounds limita o alvo e a distância máxima às extensões do pátio.
func (c *CameraController) SetBounds(halfX, halfZ float32) {
	c.BoundsX = halfX
	c.BoundsZ = halfZ
	c.MaxDistance = 2.5 * max(halfX, halfZ)
	if c.MaxDistance < c.MinDistance {
		c.MaxDistance = c.MinDistance
	}
	c.TargetZoom = clamp(c.TargetZoom, c.MinDistance, c.MaxDistance)
	c.CurrentZoom = clamp(c.CurrentZoom, c.MinDistance, c.MaxDistance)
	c.TargetLookAt = c.clampLook(c.TargetLookAt)
	c.recompute()
}

// Mode devolve o modo ativo.
func (c *CameraController) Mode() Mode { return c.mode }

// SetMode troca o modo e recalcula a posição no mesmo instante, sem frame intermediário.
func (c *CameraController) SetMode(m Mode) {
	if m == c.mode {
		return
	}
	c.anim = nil
	c.mode = m
	c.recompute()
}

// SetFirstPerson posiciona o olho da primeira pessoa.
func (c *CameraController) SetFirstPerson(eye mgl32.Vec3, yaw, pitch float32) {
	c.Eye = eye
	c.Yaw = yaw
	c.Pitch = pitch
	if c.mode == ModeFirstPerson {
		c.recompute()
	}
}

// SetFixed define a pose da câmera fixa.
func (c *CameraController) SetFixed(pos, target mgl32.Vec3) {
	c.fixedPos = pos
	c.fixedTarget = target
	if c.mode == ModeFixed {
		c.recompute()
	}
}

// Orbit gira a câmera (radianos). Só vale em órbita.
func (c *CameraController) Orbit(dYaw, dPitch float32) {
	if c.mode != ModeOrbit {
		return
	}
	c.TargetAngleY += dYaw
	// Limite entre -89 graus (quase topo) e -5 graus (quase horizonte)
	c.TargetAngleX = clamp(c.TargetAngleX+dPitch, c.MinElevation, c.MaxElevation)
}

// ZoomBy aproxima (delta > 0) ou afasta a câmera.
func (c *CameraController) ZoomBy(delta float32) {
	if c.mode != ModeOrbit {
		return
	}
	c.TargetZoom = clamp(c.TargetZoom-delta*c.ZoomSpeed, c.MinDistance, c.MaxDistance)
}

// Pan move o alvo no plano do chão, relativo à direção da câmera.
// dx positivo vai para a direita, dz positivo para frente.
func (c *CameraController) Pan(dx, dz float32) {
	if c.mode != ModeOrbit {
		return
	}
	fwd, right := c.groundAxes()
	// Velocidade baseada no zoom: quanto mais alto, mais rápido.
	scale := c.CurrentZoom / 50
	move := right.Mul(dx * scale).Add(fwd.Mul(dz * scale))
	c.TargetLookAt = c.clampLook(c.TargetLookAt.Add(move))
	c.anim = nil
}

// Recenter move o alvo sem alterar o zoom.
func (c *CameraController) Recenter(target mgl32.Vec3) {
	c.TargetLookAt = c.clampLook(target)
}

// FocusOn enquadra target a uma distância. Com smooth a transição dura FocusDuration;
// sem smooth a câmera salta na hora.
func (c *CameraController) FocusOn(target mgl32.Vec3, distance float32, smooth bool) {
	if distance <= 0 {
		distance = c.TargetZoom
	}
	distance = clamp(distance, c.MinDistance, c.MaxDistance)
	target = c.clampLook(target)

	if !smooth {
		c.anim = nil
		c.TargetLookAt, c.CurrentLookAt = target, target
		c.TargetZoom, c.CurrentZoom = distance, distance
		c.recompute()
		return
	}
	c.anim = &focusAnim{
		fromLook: c.CurrentLookAt, toLook: target,
		fromZoom: c.CurrentZoom, toZoom: distance,
	}
}

// Animating indica se há uma animação de foco em andamento.
func (c *CameraController) Animating() bool { return c.anim != nil }

// Update avança a animação/interpolação. Deve ser chamado a cada frame.
func (c *CameraController) Update(dt float32) {
	if c.mode == ModeOrbit {
		if c.anim != nil {
			c.stepAnim(dt)
		} else {
			// Normaliza para 60 FPS
			factor := min(c.SmoothFactor*60*dt, 1)
			c.CurrentLookAt = c.CurrentLookAt.Add(c.TargetLookAt.Sub(c.CurrentLookAt).Mul(factor))
			c.CurrentZoom += (c.TargetZoom - c.CurrentZoom) * factor
		}
	}
	c.recompute()
}

func (c *CameraController) stepAnim(dt float32) {
	a := c.anim
	a.elapsed += dt
	t := min(a.elapsed/FocusDuration, 1)
	// smoothstep
	e := t * t * (3 - 2*t)
	c.CurrentLookAt = a.fromLook.Add(a.toLook.Sub(a.fromLook).Mul(e))
	c.CurrentZoom = a.fromZoom + (a.toZoom-a.fromZoom)*e
	c.TargetLookAt = c.CurrentLookAt
	c.TargetZoom = c.CurrentZoom
	if t >= 1 {
		c.anim = nil
	}
}

// recompute converte o estado do modo ativo em posição/alvo.
func (c *CameraController) recompute() {
	switch c.mode {
	case ModeFirstPerson:
		c.position = c.Eye
		c.target = c.Eye.Add(ForwardFromAngles(c.Yaw, c.Pitch))
	case ModeFixed:
		c.position = c.fixedPos
		c.target = c.fixedTarget
	default:
		// Coordenadas esféricas -> cartesianas
		cosX := float32(math.Cos(float64(c.TargetAngleX)))
		sinX := float32(math.Sin(float64(c.TargetAngleX)))
		cosY := float32(math.Cos(float64(c.TargetAngleY)))
		sinY := float32(math.Sin(float64(c.TargetAngleY)))
		dist := c.CurrentZoom
		offset := mgl32.Vec3{dist * cosX * sinY, dist * -sinX, dist * cosX * cosY}
		c.position = c.CurrentLookAt.Add(offset)
		c.target = c.CurrentLookAt
	}
}

// ForwardFromAngles devolve a direção de visão; yaw 0 olha para -Z.
func ForwardFromAngles(yaw, pitch float32) mgl32.Vec3 {
	cp := float32(math.Cos(float64(pitch)))
	return mgl32.Vec3{
		float32(math.Sin(float64(yaw))) * cp,
		float32(math.Sin(float64(pitch))),
		-float32(math.Cos(float64(yaw))) * cp,
	}
}

func (c *CameraController) groundAxes() (fwd, right mgl32.Vec3) {
	fwd = c.target.Sub(c.position)
	fwd[1] = 0
	if fwd.Len() < 1e-6 {
		fwd = mgl32.Vec3{0, 0, -1}
	}
	fwd = fwd.Normalize()
	right = fwd.Cross(mgl32.Vec3{0, 1, 0}).Normalize()
	return fwd, right
}

func (c *CameraController) clampLook(p mgl32.Vec3) mgl32.Vec3 {
	p[0] = clamp(p[0], -c.BoundsX, c.BoundsX)
	p[2] = clamp(p[2], -c.BoundsZ, c.BoundsZ)
	return p
}

// Position devolve a posição atual do olho.
func (c *CameraController) Position() mgl32.Vec3 { return c.position }

// Target devolve o ponto para onde a câmera olha.
func (c *CameraController) Target() mgl32.Vec3 { return c.target }

// State devolve a foto da câmera.
func (c *CameraController) State() State {
	zoom := c.CurrentZoom
	if c.mode != ModeOrbit {
		zoom = c.target.Sub(c.position).Len()
	}
	return State{Position: c.position, Target: c.target, Zoom: zoom, Mode: c.mode}
}

// Resize atualiza o aspecto da projeção.
func (c *CameraController) Resize(w, h int32) {
	if w > 0 && h > 0 {
		c.Width, c.Height = w, h
	}
}

// Aspect é largura/altura.
func (c *CameraController) Aspect() float32 {
	if c.Height == 0 {
		return 1
	}
	return float32(c.Width) / float32(c.Height)
}

// View devolve a matriz de visão.
func (c *CameraController) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.target, mgl32.Vec3{0, 1, 0})
}

// Projection devolve a matriz de projeção perspectiva.
func (c *CameraController) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect(), c.Near, c.Far)
}

// ScreenRay devolve o raio que sai do olho e passa pelo pixel (x, y).
func (c *CameraController) ScreenRay(x, y float32) geometry.Ray {
	w, h := float32(c.Width), float32(c.Height)
	if w <= 0 || h <= 0 {
		return geometry.NewRay(c.position, c.target.Sub(c.position))
	}
	ndcX := 2*x/w - 1
	ndcY := 1 - 2*y/h

	fwd := c.target.Sub(c.position).Normalize()
	worldUp := mgl32.Vec3{0, 1, 0}
	right := fwd.Cross(worldUp)
	if right.Len() < 1e-6 {
		// Olhando reto para baixo: usa o azimute para definir a direita.
		right = mgl32.Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up := right.Cross(fwd)

	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(c.FOV)) / 2))
	dir := fwd.
		Add(right.Mul(ndcX * tanHalf * c.Aspect())).
		Add(up.Mul(ndcY * tanHalf))
	return geometry.NewRay(c.position, dir)
}

// CenterRay é o raio da mira (centro da tela).
func (c *CameraController) CenterRay() geometry.Ray {
	return c.ScreenRay(float32(c.Width)/2, float32(c.Height)/2)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

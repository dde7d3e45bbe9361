// Package firstperson implementa a caminhada em primeira pessoa pelo pátio, com
// dois joysticks virtuais (mover e olhar) ou teclado, e seleção pela mira.
package firstperson

import (
	"math"

	"YardVision/cliente/internal/camera"
	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/input"
	"YardVision/cliente/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog"
)

// MaxPitch limita a inclinação do olhar (85°).
const MaxPitch = 85 * math.Pi / 180

// Camera é o que o controlador precisa da câmera.
type Camera interface {
	Mode() camera.Mode
	SetMode(camera.Mode)
	SetFirstPerson(eye mgl32.Vec3, yaw, pitch float32)
	CenterRay() geometry.Ray
}

// Yard é o ambiente onde se caminha (a base da cena).
type Yard interface {
	InsideYard(x, z, r float32) bool
	BaseColliders() []*scene.Node
}

// ContainerPicker acha contêineres atingidos por um raio.
type ContainerPicker interface {
	HitTest(ray geometry.Ray) (*scene.Node, float32, bool)
}

// Target é o resultado de Select.
type Target struct {
	Node      *scene.Node
	Container bool
	Distance  float32
}

// Controller é a máquina disabled <-> enabled da primeira pessoa.
type Controller struct {
	cam        Camera
	yard       Yard
	containers ContainerPicker

	MoveStick *input.Joystick
	LookStick *input.Joystick
	keys      input.Keys

	WalkSpeed float32 // m/s
	LookSpeed float32 // rad/s com o joystick no máximo
	Height    float32
	Radius    float32

	enabled  bool
	prevMode camera.Mode
	eye      mgl32.Vec3
	yaw      float32
	pitch    float32

	log zerolog.Logger
}

// New cria o controlador desligado. Os joysticks podem ser reposicionados pelo app.
func New(cam Camera, yard Yard, containers ContainerPicker, log zerolog.Logger) *Controller {
	return &Controller{
		cam:        cam,
		yard:       yard,
		containers: containers,
		MoveStick:  input.NewJoystick(0, 0, 60),
		LookStick:  input.NewJoystick(0, 0, 60),
		WalkSpeed:  4.5,
		LookSpeed:  1.8,
		Height:     1.7,
		Radius:     0.35,
		log:        log,
	}
}

// SetDeadzone aplica a zona morta aos dois joysticks.
func (c *Controller) SetDeadzone(dz float32) {
	c.MoveStick.Deadzone = dz
	c.LookStick.Deadzone = dz
}

// Enabled indica se a primeira pessoa está ativa.
func (c *Controller) Enabled() bool { return c.enabled }

// Enable liga a primeira pessoa com o olho sobre (x, z) olhando para yaw. A câmera troca
// de modo numa única chamada, sem estado intermediário.
func (c *Controller) Enable(x, z, yaw float32) {
	if c.enabled {
		return
	}
	c.eye = mgl32.Vec3{x, c.Height, z}
	c.yaw = yaw
	c.pitch = 0
	c.prevMode = c.cam.Mode()
	if c.prevMode == camera.ModeFirstPerson {
		c.prevMode = camera.ModeOrbit
	}
	c.cam.SetFirstPerson(c.eye, c.yaw, c.pitch)
	c.cam.SetMode(camera.ModeFirstPerson)
	c.enabled = true
	c.log.Info().Float32("x", x).Float32("z", z).Msg("Primeira pessoa ligada")
}

// Disable volta ao modo de câmera anterior e solta os joysticks.
func (c *Controller) Disable() {
	if !c.enabled {
		return
	}
	c.enabled = false
	c.MoveStick.Release(c.MoveStick.Pointer())
	c.LookStick.Release(c.LookStick.Pointer())
	c.keys = input.Keys{}
	c.cam.SetMode(c.prevMode)
	c.log.Info().Msg("Primeira pessoa desligada")
}

// Toggle alterna o modo, entrando pelo ponto (x, z).
func (c *Controller) Toggle(x, z, yaw float32) {
	if c.enabled {
		c.Disable()
		return
	}
	c.Enable(x, z, yaw)
}

// SetKeys registra o estado do teclado do frame.
func (c *Controller) SetKeys(k input.Keys) { c.keys = k }

// Eye devolve a posição do olho.
func (c *Controller) Eye() mgl32.Vec3 { return c.eye }

// Angles devolve yaw e pitch.
func (c *Controller) Angles() (yaw, pitch float32) { return c.yaw, c.pitch }

// Update integra olhar e movimento do frame.
func (c *Controller) Update(dt float32) {
	if !c.enabled || dt <= 0 {
		return
	}

	lx, ly := c.LookStick.Value()
	kx, ky := c.keys.Look()
	lx, ly = clampUnit(lx+kx), clampUnit(ly+ky)
	c.yaw = wrapAngle(c.yaw + lx*c.LookSpeed*dt)
	// Y de tela cresce para baixo: puxar para cima olha para cima.
	c.pitch = max(-MaxPitch, min(MaxPitch, c.pitch-ly*c.LookSpeed*dt))

	mx, my := c.MoveStick.Value()
	kmx, kmy := c.keys.Move()
	mx, my = clampUnit(mx+kmx), clampUnit(my+kmy)
	if mx != 0 || my != 0 {
		sin := float32(math.Sin(float64(c.yaw)))
		cos := float32(math.Cos(float64(c.yaw)))
		fwd := mgl32.Vec3{sin, 0, -cos}
		right := mgl32.Vec3{cos, 0, sin}
		step := fwd.Mul(-my).Add(right.Mul(mx)).Mul(c.WalkSpeed * dt)
		c.walk(step)
	}

	c.cam.SetFirstPerson(c.eye, c.yaw, c.pitch)
}

// walk divide o passo em pedaços menores que o raio do corpo para não atravessar paredes.
func (c *Controller) walk(step mgl32.Vec3) {
	n := 1
	if c.Radius > 0 {
		n = max(1, int(math.Ceil(float64(step.Len()/c.Radius))))
	}
	part := step.Mul(1 / float32(n))
	for i := 0; i < n; i++ {
		c.substep(part)
	}
}

// substep tenta o passo inteiro e, se bloqueado, desliza em cada eixo.
func (c *Controller) substep(step mgl32.Vec3) {
	for _, s := range []mgl32.Vec3{step, {step[0], 0, 0}, {0, 0, step[2]}} {
		if s[0] == 0 && s[2] == 0 {
			continue
		}
		next := c.eye.Add(s)
		if !c.Blocked(next[0], next[2]) {
			c.eye = next
			return
		}
	}
}

// Blocked indica se o corpo não cabe em (x, z): fora do alambrado ou dentro de um colisor.
func (c *Controller) Blocked(x, z float32) bool {
	if c.yard == nil {
		return false
	}
	if !c.yard.InsideYard(x, z, c.Radius) {
		return true
	}
	const knee = 0.3
	for _, n := range c.yard.BaseColliders() {
		b := n.WorldBounds()
		if b.IsEmpty() || b.Max[1] < knee || b.Min[1] > c.Height {
			continue
		}
		if x > b.Min[0]-c.Radius && x < b.Max[0]+c.Radius &&
			z > b.Min[2]-c.Radius && z < b.Max[2]+c.Radius {
			return true
		}
	}
	return false
}

// Select lança um raio pela mira. Qualquer contêiner atingido vence os colisores da base;
// sem contêiner, devolve o colisor mais próximo.
func (c *Controller) Select() (Target, bool) {
	if !c.enabled {
		return Target{}, false
	}
	ray := c.cam.CenterRay()
	if c.containers != nil {
		if n, d, ok := c.containers.HitTest(ray); ok && n != nil {
			return Target{Node: n, Container: true, Distance: d}, true
		}
	}
	if c.yard == nil {
		return Target{}, false
	}
	h, ok := scene.Nearest(ray, c.yard.BaseColliders(), nil)
	if !ok {
		return Target{}, false
	}
	return Target{Node: h.Node, Distance: h.Distance}, true
}

func clampUnit(v float32) float32 { return max(-1, min(1, v)) }

func wrapAngle(a float32) float32 {
	a = float32(math.Mod(float64(a), 2*math.Pi))
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

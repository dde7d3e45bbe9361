// Package input trata joysticks virtuais, teclado e o registro de listeners de entrada.
// Não depende do raylib: o app amostra o dispositivo e entrega eventos aqui.
package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultDeadzone é a zona morta padrão dos joysticks (fração do raio).
const DefaultDeadzone = 0.05

// ApplyDeadzone zera vetores com módulo abaixo de dz e limita o módulo a 1.
// Acima da zona morta o valor é reescalado para começar em 0.
func ApplyDeadzone(x, y, dz float32) (float32, float32) {
	mag := float32(math.Hypot(float64(x), float64(y)))
	if mag <= dz || mag == 0 {
		return 0, 0
	}
	clamped := min(mag, 1)
	scale := (clamped - dz) / (1 - dz) / mag
	return x * scale, y * scale
}

// Joystick é um joystick virtual na tela. Y cresce para baixo (coordenada de tela).
type Joystick struct {
	Center   mgl32.Vec2
	Radius   float32
	Deadzone float32

	active  bool
	pointer int
	knob    mgl32.Vec2
}

// NewJoystick cria um joystick centrado em (x, y).
func NewJoystick(x, y, radius float32) *Joystick {
	return &Joystick{Center: mgl32.Vec2{x, y}, Radius: radius, Deadzone: DefaultDeadzone}
}

// Active indica se algum ponteiro está segurando o joystick.
func (j *Joystick) Active() bool { return j.active }

// Pointer devolve o id do ponteiro que segura o joystick.
func (j *Joystick) Pointer() int { return j.pointer }

// Knob devolve a posição do botão na tela.
func (j *Joystick) Knob() mgl32.Vec2 {
	if !j.active {
		return j.Center
	}
	return j.Center.Add(j.knob)
}

// Press captura o ponteiro se ele tocar a área do joystick (1,5x o raio).
func (j *Joystick) Press(pointer int, pos mgl32.Vec2) bool {
	if j.active {
		return false
	}
	if pos.Sub(j.Center).Len() > j.Radius*1.5 {
		return false
	}
	j.active = true
	j.pointer = pointer
	j.setKnob(pos)
	return true
}

// Move atualiza o botão se pointer for o capturado.
func (j *Joystick) Move(pointer int, pos mgl32.Vec2) bool {
	if !j.active || pointer != j.pointer {
		return false
	}
	j.setKnob(pos)
	return true
}

// Release solta o joystick se pointer for o capturado.
func (j *Joystick) Release(pointer int) bool {
	if !j.active || pointer != j.pointer {
		return false
	}
	j.active = false
	j.knob = mgl32.Vec2{}
	return true
}

func (j *Joystick) setKnob(pos mgl32.Vec2) {
	d := pos.Sub(j.Center)
	if l := d.Len(); l > j.Radius && l > 0 {
		d = d.Mul(j.Radius / l)
	}
	j.knob = d
}

// Value devolve o deslocamento normalizado em [-1, 1] com a zona morta aplicada.
func (j *Joystick) Value() (float32, float32) {
	if !j.active || j.Radius <= 0 {
		return 0, 0
	}
	return ApplyDeadzone(j.knob[0]/j.Radius, j.knob[1]/j.Radius, j.Deadzone)
}

// Keys é o estado do teclado relevante para a primeira pessoa.
type Keys struct {
	Forward, Back, Left, Right bool

	TurnLeft, TurnRight, LookUp, LookDown bool
}

// Move devolve o vetor de movimento do teclado no mesmo formato do joystick (y negativo = frente).
func (k Keys) Move() (float32, float32) {
	var x, y float32
	if k.Forward {
		y--
	}
	if k.Back {
		y++
	}
	if k.Left {
		x--
	}
	if k.Right {
		x++
	}
	if x != 0 && y != 0 {
		x, y = x*math.Sqrt2/2, y*math.Sqrt2/2
	}
	return x, y
}

// Look devolve o vetor de olhar do teclado.
func (k Keys) Look() (float32, float32) {
	var x, y float32
	if k.TurnLeft {
		x--
	}
	if k.TurnRight {
		x++
	}
	if k.LookUp {
		y--
	}
	if k.LookDown {
		y++
	}
	return x, y
}

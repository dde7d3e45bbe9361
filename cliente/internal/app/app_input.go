package app

import (
	"math"

	"YardVision/cliente/internal/build"
	"YardVision/cliente/internal/input"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// pointerSample guarda o último estado conhecido de um ponteiro (0 = mouse, 1-9 = toque).
type pointerSample struct {
	down   bool
	x, y   float32
	button int
	stick  bool // o último PointerDown foi capturado por um joystick
}

// Teclas observadas a cada frame para gerar KeyDown/KeyUp.
var watchedKeys = []int32{
	rl.KeyEscape, rl.KeyF3, rl.KeyF5, rl.KeyF11, rl.KeyG, rl.KeyF, rl.KeyN, rl.KeyM, rl.KeyC,
	rl.KeyOne, rl.KeyTwo, rl.KeyThree, rl.KeyTab, rl.KeyR, rl.KeyEnter, rl.KeySpace,
	rl.KeyUp, rl.KeyDown, rl.KeyLeft, rl.KeyRight,
}

const (
	orbitPerPixel = 0.01  // radianos por pixel de arraste
	panPerPixel   = 0.05
)

// registerInput registra os listeners do app. Ordem de prioridade: joysticks, barra de
// ferramentas, cena. Todos são liberados pela sessão.
func (a *App) registerInput() {
	a.dispatcher = input.NewDispatcher()

	on := func(kind input.EventKind, priority int, fn input.Handler) {
		_ = a.session.AddListener(a.dispatcher.On(kind, priority, fn))
	}

	for _, k := range []input.EventKind{input.PointerDown, input.PointerMove, input.PointerUp, input.Click} {
		on(k, 100, a.onJoystick)
	}
	on(input.PointerDown, 50, a.onToolbarPress)
	on(input.Click, 50, a.onToolbarClick)

	on(input.PointerMove, 0, a.onPointerMove)
	on(input.Click, 0, a.onSceneClick)
	on(input.Wheel, 0, func(e input.Event) bool {
		a.Cam.ZoomBy(e.Wheel)
		return true
	})
	on(input.KeyDown, 0, a.onKeyDown)
}

// pollInput traduz mouse, toque e teclado do raylib em eventos do dispatcher.
func (a *App) pollInput(dt float32) error {
	if rl.IsWindowResized() {
		a.base.Resize(int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()))
	}

	for _, k := range watchedKeys {
		switch {
		case rl.IsKeyPressed(k):
			a.keysDown[k] = true
			a.dispatcher.Dispatch(input.Event{Kind: input.KeyDown, Key: k})
		case rl.IsKeyReleased(k):
			delete(a.keysDown, k)
			a.dispatcher.Dispatch(input.Event{Kind: input.KeyUp, Key: k})
		}
	}

	// Pausado, o menu lê o mouse direto em drawButton.
	if a.State == StatePaused {
		return nil
	}

	a.pollMouse()
	if a.Config.TouchMode {
		a.pollTouch()
	}
	a.walker.SetKeys(input.Keys{
		Forward:   rl.IsKeyDown(rl.KeyW),
		Back:      rl.IsKeyDown(rl.KeyS),
		Left:      rl.IsKeyDown(rl.KeyA),
		Right:     rl.IsKeyDown(rl.KeyD),
		TurnLeft:  rl.IsKeyDown(rl.KeyQ),
		TurnRight: rl.IsKeyDown(rl.KeyE),
		LookUp:    rl.IsKeyDown(rl.KeyPageUp),
		LookDown:  rl.IsKeyDown(rl.KeyPageDown),
	})
	return nil
}

func (a *App) pollMouse() {
	pos := rl.GetMousePosition()
	p := &a.pointers[0]

	for _, b := range []rl.MouseButton{rl.MouseLeftButton, rl.MouseRightButton} {
		if rl.IsMouseButtonPressed(b) && !p.down {
			a.dispatcher.Dispatch(input.Event{Kind: input.PointerDown, Pointer: 0, X: pos.X, Y: pos.Y, Button: int(b)})
		}
	}
	if pos.X != p.x || pos.Y != p.y {
		a.dispatcher.Dispatch(input.Event{Kind: input.PointerMove, Pointer: 0, X: pos.X, Y: pos.Y, Button: p.button})
	}
	if p.down && rl.IsMouseButtonReleased(rl.MouseButton(p.button)) {
		a.dispatcher.Dispatch(input.Event{Kind: input.PointerUp, Pointer: 0, X: pos.X, Y: pos.Y, Button: p.button})
	}
	p.x, p.y = pos.X, pos.Y

	if w := rl.GetMouseWheelMove(); w != 0 {
		a.dispatcher.Dispatch(input.Event{Kind: input.Wheel, Pointer: 0, X: pos.X, Y: pos.Y, Wheel: w})
	}
}

// pollTouch mapeia os ids de toque do raylib para os ponteiros 1-9.
func (a *App) pollTouch() {
	var seen [len(a.pointers)]bool
	n := int(rl.GetTouchPointCount())
	for i := 0; i < n; i++ {
		id := 1 + int(rl.GetTouchPointId(int32(i)))%(len(a.pointers)-1)
		pos := rl.GetTouchPosition(int32(i))
		seen[id] = true
		p := &a.pointers[id]
		switch {
		case !p.down:
			a.dispatcher.Dispatch(input.Event{Kind: input.PointerDown, Pointer: id, X: pos.X, Y: pos.Y})
		case pos.X != p.x || pos.Y != p.y:
			a.dispatcher.Dispatch(input.Event{Kind: input.PointerMove, Pointer: id, X: pos.X, Y: pos.Y})
		}
		p.x, p.y = pos.X, pos.Y
	}
	for id := 1; id < len(a.pointers); id++ {
		if a.pointers[id].down && !seen[id] {
			p := a.pointers[id]
			a.dispatcher.Dispatch(input.Event{Kind: input.PointerUp, Pointer: id, X: p.x, Y: p.y})
		}
	}
}

// onJoystick roda antes de tudo e só age em primeira pessoa. O clique que nasce de um
// toque no joystick também é consumido.
func (a *App) onJoystick(e input.Event) bool {
	p := &a.pointers[e.Pointer]
	switch e.Kind {
	case input.PointerDown:
		p.down, p.x, p.y, p.button = true, e.X, e.Y, e.Button
		p.stick = false
	case input.PointerUp:
		p.down = false
	case input.Click:
		if p.stick {
			p.stick = false
			return true
		}
		return false
	}
	if !a.walker.Enabled() {
		return false
	}

	pos := mgl32.Vec2{e.X, e.Y}
	switch e.Kind {
	case input.PointerDown:
		p.stick = a.walker.MoveStick.Press(e.Pointer, pos) || a.walker.LookStick.Press(e.Pointer, pos)
		return p.stick
	case input.PointerMove:
		m := a.walker.MoveStick.Move(e.Pointer, pos)
		l := a.walker.LookStick.Move(e.Pointer, pos)
		return m || l
	case input.PointerUp:
		m := a.walker.MoveStick.Release(e.Pointer)
		l := a.walker.LookStick.Release(e.Pointer)
		return m || l
	}
	return false
}

func (a *App) onToolbarPress(e input.Event) bool {
	_, ok := a.toolbarHit(e.X, e.Y)
	return ok
}

func (a *App) onToolbarClick(e input.Event) bool {
	b, ok := a.toolbarHit(e.X, e.Y)
	if !ok {
		return false
	}
	b.action()
	return true
}

// onPointerMove arrasta a câmera (esquerdo gira, direito desloca) ou move o fantasma.
func (a *App) onPointerMove(e input.Event) bool {
	p := &a.pointers[e.Pointer]
	dx, dy := e.X-p.x, e.Y-p.y

	if a.dispatcher.Dragging(e.Pointer) && !a.walker.Enabled() {
		s := a.Config.CameraSensitivity
		if s <= 0 {
			s = 1
		}
		if e.Button == int(rl.MouseRightButton) {
			a.Cam.Pan(-dx*panPerPixel, dy*panPerPixel)
		} else {
			a.Cam.Orbit(-dx*orbitPerPixel*s, -dy*orbitPerPixel*s)
		}
		return true
	}

	if a.builder.Mode() == build.ModePlace && !a.walker.Enabled() {
		a.builder.UpdatePreviewAt(e.X, e.Y)
	}
	return false
}

// onSceneClick: em primeira pessoa seleciona pela mira; em órbita, construção ou
// seleção de contêiner conforme o modo.
func (a *App) onSceneClick(e input.Event) bool {
	if a.walker.Enabled() {
		a.selectAhead()
		return true
	}

	if a.builder.Mode() != build.ModeIdle {
		// Sem hover no toque: o próprio clique posiciona o fantasma antes de confirmar.
		if a.builder.Mode() == build.ModePlace {
			a.builder.UpdatePreviewAt(e.X, e.Y)
		}
		if id, ok := a.builder.ClickAt(e.X, e.Y); ok {
			a.log.Debug().Str("id", id).Str("mode", a.builder.Mode().String()).Msg("Prop alterado")
		}
		return true
	}

	if _, id := a.layer.SelectAt(e.X, e.Y, a.builder); id != "" {
		a.flash("Prop " + id)
	}
	return true
}

// selectAhead seleciona o que estiver na mira.
func (a *App) selectAhead() {
	t, ok := a.walker.Select()
	switch {
	case !ok:
		a.layer.Select(nil)
	case t.Container:
		a.layer.Select(t.Node)
	default:
		a.flash(t.Node.Name)
	}
}

func (a *App) onKeyDown(e input.Event) bool {
	shift := rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift)

	switch e.Key {
	case rl.KeyEscape:
		a.togglePause()
		return true
	case rl.KeyF3:
		a.Config.ShowDebugInfo = !a.Config.ShowDebugInfo
	case rl.KeyF11:
		rl.ToggleFullscreen()
		a.Config.Fullscreen = !a.Config.Fullscreen
	case rl.KeyF5:
		a.exportWorld()
	}
	if a.State == StatePaused {
		return false
	}

	switch e.Key {
	case rl.KeyG:
		a.Config.ShowGrid = !a.Config.ShowGrid
		a.renderer.ShowGrid = a.Config.ShowGrid
	case rl.KeyF:
		a.toggleFirstPerson()
	case rl.KeyN:
		a.toggleNavigation()
	case rl.KeyM:
		a.showNav = !a.showNav
	case rl.KeyC:
		if rec, ok := a.layer.Selected(); ok {
			a.layer.FocusCamera(a.layer.Node(rec.ID), true)
		}
	case rl.KeyOne:
		a.builder.SetMode(build.ModeIdle)
	case rl.KeyTwo:
		a.builder.SetMode(build.ModePlace)
	case rl.KeyThree:
		a.builder.SetMode(build.ModeRemove)
	case rl.KeyTab:
		a.nextType(shift)
	case rl.KeyR:
		if shift {
			a.builder.RotateStep(-1)
		} else {
			a.builder.RotateStep(1)
		}
	case rl.KeyEnter, rl.KeySpace:
		if a.walker.Enabled() {
			a.selectAhead()
		}
	case rl.KeyUp:
		a.builder.NudgeSelected(0, -1)
	case rl.KeyDown:
		a.builder.NudgeSelected(0, 1)
	case rl.KeyLeft:
		a.builder.NudgeSelected(-1, 0)
	case rl.KeyRight:
		a.builder.NudgeSelected(1, 0)
	default:
		return false
	}
	return true
}

func (a *App) togglePause() {
	if a.State == StateViewing {
		a.State = StatePaused
		a.log.Info().Msg("Pausado")
		return
	}
	a.State = StateViewing
	a.log.Info().Msg("Retomando")
}

// toggleFirstPerson entra no ponto que a câmera olha, virado na mesma direção.
func (a *App) toggleFirstPerson() {
	if a.walker.Enabled() {
		a.walker.Disable()
		return
	}
	a.builder.SetMode(build.ModeIdle)

	target, pos := a.Cam.Target(), a.Cam.Position()
	d := target.Sub(pos)
	yaw := float32(math.Atan2(float64(d[0]), float64(-d[2])))
	x, z := target[0], target[2]
	if a.walker.Blocked(x, z) {
		x, z = 0, 0
	}
	a.walker.Enable(x, z, yaw)
}

func (a *App) toggleNavigation() {
	if a.nav.Running() {
		a.nav.Stop()
		a.stopSimulation()
		return
	}
	a.startNavigation()
}

// nextType avança (ou volta com shift) na paleta de tipos.
func (a *App) nextType(back bool) {
	types := a.registry.ListTypes()
	if len(types) == 0 {
		return
	}
	step := 1
	if back {
		step = -1
	}
	a.typeIndex = (a.typeIndex + step + len(types)) % len(types)
	a.builder.SetType(types[a.typeIndex].Key)
	a.flash("Tipo: " + types[a.typeIndex].Label)
}

// syncTypeIndex alinha o índice da paleta ao tipo atual do construtor.
func (a *App) syncTypeIndex() {
	for i, t := range a.registry.ListTypes() {
		if t.Key == a.builder.Type() {
			a.typeIndex = i
			return
		}
	}
	a.typeIndex = 0
}

package app

import (
	"fmt"

	"YardVision/cliente/internal/build"
	"YardVision/cliente/internal/render"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// toolButton é um botão da barra de ferramentas. A mesma lista serve ao desenho e ao
// teste de clique.
type toolButton struct {
	rect   rl.Rectangle
	label  string
	active bool
	action func()
}

const (
	toolbarX      = 10
	toolbarY      = 10
	toolbarW      = 130
	toolbarH      = 32
	toolbarGap    = 6
	routePanelW   = 320
	routePanelH   = 240
	routePanelPad = 10
)

// toolbar monta os botões do frame atual.
func (a *App) toolbar() []toolButton {
	typeLabel := a.builder.Type()
	if types := a.registry.ListTypes(); a.typeIndex < len(types) {
		typeLabel = types[a.typeIndex].Label
	}
	mode := a.builder.Mode()
	buttons := []toolButton{
		{label: "Navegar [1]", active: mode == build.ModeIdle, action: func() { a.builder.SetMode(build.ModeIdle) }},
		{label: "Colocar [2]", active: mode == build.ModePlace, action: func() { a.builder.SetMode(build.ModePlace) }},
		{label: "Remover [3]", active: mode == build.ModeRemove, action: func() { a.builder.SetMode(build.ModeRemove) }},
		{label: typeLabel, action: func() { a.nextType(false) }},
		{label: "Girar [R]", action: func() { a.builder.RotateStep(1) }},
		{label: "1a pessoa [F]", active: a.walker.Enabled(), action: a.toggleFirstPerson},
		{label: "Rota [N]", active: a.nav.Running(), action: a.toggleNavigation},
	}
	for i := range buttons {
		buttons[i].rect = rl.Rectangle{
			X:      toolbarX + float32(i)*(toolbarW+toolbarGap),
			Y:      toolbarY,
			Width:  toolbarW,
			Height: toolbarH,
		}
	}
	return buttons
}

// toolbarHit devolve o botão sob (x, y).
func (a *App) toolbarHit(x, y float32) (toolButton, bool) {
	p := rl.Vector2{X: x, Y: y}
	for _, b := range a.toolbar() {
		if rl.CheckCollisionPointRec(p, b.rect) {
			return b, true
		}
	}
	return toolButton{}, false
}

// draw renderiza o frame.
func (a *App) draw(dt float32) error {
	rl.BeginDrawing()
	defer rl.EndDrawing()

	rl.ClearBackground(rl.NewColor(30, 30, 40, 255))
	a.renderer.DrawSky(a.base.Sky)

	a.cam3d = render.CameraFor(a.Cam)
	a.lastStats = a.renderer.Draw(a.graph.Root, a.cam3d)

	a.drawLabels()
	if a.walker.Enabled() {
		render.DrawCrosshair()
		render.DrawJoystick(a.walker.MoveStick, "Andar")
		render.DrawJoystick(a.walker.LookStick, "Olhar")
	}
	a.drawRoutePanel()
	a.drawToolbar()
	a.drawHUD()
	a.drawNotice()

	if a.State == StatePaused {
		a.drawPauseMenu()
	}
	return nil
}

// drawLabels escreve a matrícula do contêiner e o tipo do prop selecionados.
func (a *App) drawLabels() {
	if rec, ok := a.layer.Selected(); ok {
		if n := a.layer.Node(rec.ID); n != nil {
			b := n.WorldBounds()
			top := mgl32.Vec3{b.Center()[0], b.Max[1] + 0.8, b.Center()[2]}
			render.DrawLabel(top, fmt.Sprintf("%s  %s  %s", rec.Matricula, rec.Type, rec.PositionCode), a.cam3d, rl.Gold)
		}
	}
	if id := a.builder.Selected(); id != "" {
		if n := a.builder.Node(id); n != nil {
			b := n.WorldBounds()
			top := mgl32.Vec3{b.Center()[0], b.Max[1] + 0.5, b.Center()[2]}
			render.DrawLabel(top, n.PropID, a.cam3d, rl.SkyBlue)
		}
	}
}

func (a *App) drawRoutePanel() {
	route := a.nav.Route()
	if !a.showNav || (!route.Valid() && !a.nav.Running()) {
		return
	}
	area := rl.Rectangle{
		X:      float32(rl.GetScreenWidth()) - routePanelW - routePanelPad,
		Y:      float32(rl.GetScreenHeight()) - routePanelH - routePanelPad,
		Width:  routePanelW,
		Height: routePanelH,
	}
	if a.walker.Enabled() {
		// Os joysticks ocupam os cantos inferiores.
		area.X = toolbarX
		area.Y = toolbarY + toolbarH + routePanelPad
	}
	render.DrawRoute(area, route, a.nav.State(), a.nav.View(), a.nav.Projector())
}

func (a *App) drawToolbar() {
	mouse := rl.GetMousePosition()
	for _, b := range a.toolbar() {
		bg := rl.NewColor(40, 40, 45, 220)
		if b.active {
			bg = rl.NewColor(40, 90, 150, 230)
		}
		border := rl.NewColor(90, 90, 90, 255)
		if rl.CheckCollisionPointRec(mouse, b.rect) {
			border = rl.White
		}
		rl.DrawRectangleRec(b.rect, bg)
		rl.DrawRectangleLinesEx(b.rect, 1, border)

		label := []rune(b.label)
		for len(label) > 3 && rl.MeasureText(string(label), 16) > int32(b.rect.Width)-8 {
			label = label[:len(label)-1]
		}
		w := rl.MeasureText(string(label), 16)
		rl.DrawText(string(label), int32(b.rect.X)+(int32(b.rect.Width)-w)/2, int32(b.rect.Y)+8, 16, rl.White)
	}
}

// drawHUD desenha o painel de debug.
func (a *App) drawHUD() {
	if !a.Config.ShowDebugInfo {
		return
	}

	width := int32(340)
	height := int32(230)
	x := int32(rl.GetScreenWidth()) - width - 10
	y := int32(toolbarY + toolbarH + 10)

	rl.DrawRectangle(x, y, width, height, rl.NewColor(0, 0, 0, 180))
	rl.DrawRectangleLines(x, y, width, height, rl.NewColor(50, 50, 50, 255))

	fps := rl.GetFPS()
	fpsColor := rl.Green
	if fps < 30 {
		fpsColor = rl.Red
	} else if fps < 50 {
		fpsColor = rl.Yellow
	}
	rl.DrawText(fmt.Sprintf("FPS: %d", fps), x+10, y+10, 20, fpsColor)

	syncStatus, syncColor := "Offline", rl.Red
	if a.netClient != nil && a.netClient.IsConnected() {
		syncStatus, syncColor = "Conectado", rl.Green
	}
	rl.DrawText(syncStatus, x+215, y+10, 20, syncColor)

	rl.DrawLine(x+10, y+35, x+width-10, y+35, rl.NewColor(100, 100, 100, 100))

	rl.DrawText("CENA", x+10, y+45, 12, rl.Gray)
	st := a.lastStats
	rl.DrawText(fmt.Sprintf("Opacos: %d | Transp.: %d | Draws: %d", st.Opaque, st.Transparent, st.DrawCalls), x+10, y+60, 14, rl.White)
	rl.DrawText(fmt.Sprintf("Contêineres: %d | Props: %d | Malhas: %d", a.layer.Len(), a.store.Len(), st.Meshes), x+10, y+78, 14, rl.LightGray)
	t := a.Cam.Target()
	rl.DrawText(fmt.Sprintf("Câmera: %s (%.1f, %.1f)", a.Cam.Mode(), t[0], t[2]), x+10, y+96, 14, rl.LightGray)

	rl.DrawLine(x+10, y+116, x+width-10, y+116, rl.NewColor(100, 100, 100, 100))

	rl.DrawText("SERVIDOR", x+10, y+126, 12, rl.Gray)
	msg := a.serverStatus.Message
	if msg == "" {
		msg = "-"
	}
	rl.DrawText(fmt.Sprintf("%s | pátios: %d | negócio: %d", msg, a.serverStatus.Clients, a.serverStatus.Business), x+10, y+141, 14, rl.LightGray)
	rl.DrawText(fmt.Sprintf("Modo: %s | Tipo: %s", a.builder.Mode(), a.builder.Type()), x+10, y+159, 14, rl.LightGray)

	rl.DrawLine(x+10, y+179, x+width-10, y+179, rl.NewColor(100, 100, 100, 100))

	rl.DrawText("Arrastar: Girar | Scroll: Zoom | WASD: Mover", x+10, y+189, 14, rl.SkyBlue)
	rl.DrawText("F: 1a pessoa | N: Rota | F5: Exportar | F3: HUD", x+10, y+207, 14, rl.SkyBlue)

	title := "YardVision"
	titleWidth := rl.MeasureText(title, 18)
	rl.DrawText(title,
		int32(rl.GetScreenWidth())-titleWidth-20, int32(rl.GetScreenHeight())-30,
		18, rl.NewColor(200, 200, 200, 150))
}

func (a *App) drawNotice() {
	if a.notice == "" || rl.GetTime() > a.noticeUntil {
		return
	}
	w := rl.MeasureText(a.notice, 20)
	x := (int32(rl.GetScreenWidth()) - w) / 2
	y := int32(toolbarY + toolbarH + 14)
	rl.DrawRectangle(x-10, y-6, w+20, 32, rl.NewColor(0, 0, 0, 180))
	rl.DrawText(a.notice, x, y, 20, rl.White)
}

// drawPauseMenu desenha o menu de escape centralizado.
func (a *App) drawPauseMenu() {
	screenWidth := int32(rl.GetScreenWidth())
	screenHeight := int32(rl.GetScreenHeight())

	rl.DrawRectangle(0, 0, screenWidth, screenHeight, rl.NewColor(0, 0, 0, 150))

	panelWidth := int32(400)
	panelHeight := int32(300)
	panelX := (screenWidth - panelWidth) / 2
	panelY := (screenHeight - panelHeight) / 2

	rl.DrawRectangle(panelX, panelY, panelWidth, panelHeight, rl.NewColor(30, 30, 35, 255))
	rl.DrawRectangleLines(panelX, panelY, panelWidth, panelHeight, rl.White)

	menuTitle := "MENU DE PAUSA"
	titleWidth := rl.MeasureText(menuTitle, 24)
	rl.DrawText(menuTitle, panelX+(panelWidth-titleWidth)/2, panelY+30, 24, rl.Gold)

	buttonX := panelX + 50
	buttonWidth := panelWidth - 100
	buttonHeight := int32(40)

	if a.drawButton(buttonX, panelY+90, buttonWidth, buttonHeight, "RETOMAR (ESC)", rl.Green) {
		a.State = StateViewing
	}

	if a.drawButton(buttonX, panelY+145, buttonWidth, buttonHeight, "EXPORTAR MUNDO (F5)", rl.Gray) {
		a.exportWorld()
	}

	if a.drawButton(buttonX, panelY+200, buttonWidth, buttonHeight, "SAIR", rl.Red) {
		a.log.Info().Msg("Encerrando pelo menu")
		a.quit = true
	}
}

// drawButton desenha um botão genérico com hover e retorna true se clicado.
func (a *App) drawButton(x, y, w, h int32, text string, color rl.Color) bool {
	mousePos := rl.GetMousePosition()
	isHover := mousePos.X >= float32(x) && mousePos.X <= float32(x+w) &&
		mousePos.Y >= float32(y) && mousePos.Y <= float32(y+h)

	drawColor := color
	if isHover {
		drawColor.R = lighten(drawColor.R)
		drawColor.G = lighten(drawColor.G)
		drawColor.B = lighten(drawColor.B)
	}

	rl.DrawRectangle(x, y, w, h, rl.NewColor(50, 50, 50, 255))
	rl.DrawRectangleLines(x, y, w, h, drawColor)

	textWidth := rl.MeasureText(text, 18)
	rl.DrawText(text, x+(w-textWidth)/2, y+(h-18)/2, 18, rl.White)

	return isHover && rl.IsMouseButtonPressed(rl.MouseLeftButton)
}

func lighten(c uint8) uint8 { return uint8(min(255, int(c)+30)) }

package render

import (
	"fmt"

	"YardVision/cliente/internal/geometry"
	"YardVision/cliente/internal/input"
	"YardVision/cliente/internal/navigation"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	panelBg      = rl.NewColor(0, 0, 0, 180)
	panelBorder  = rl.NewColor(50, 50, 50, 255)
	routeAhead   = rl.NewColor(40, 140, 255, 255)
	routeBehind  = rl.NewColor(140, 140, 150, 255)
	offRouteTint = rl.NewColor(230, 60, 50, 255)
)

// DrawJoystick desenha a base e o botão de um joystick virtual.
func DrawJoystick(j *input.Joystick, label string) {
	c := rl.Vector2{X: j.Center[0], Y: j.Center[1]}
	rl.DrawCircleV(c, j.Radius, rl.NewColor(255, 255, 255, 40))
	rl.DrawCircleLines(int32(c.X), int32(c.Y), j.Radius, rl.NewColor(255, 255, 255, 140))

	k := j.Knob()
	alpha := uint8(140)
	if j.Active() {
		alpha = 220
	}
	rl.DrawCircleV(rl.Vector2{X: k[0], Y: k[1]}, j.Radius*0.4, rl.NewColor(255, 255, 255, alpha))

	if label != "" {
		w := rl.MeasureText(label, 14)
		rl.DrawText(label, int32(c.X)-w/2, int32(c.Y+j.Radius)+8, 14, rl.LightGray)
	}
}

// DrawCrosshair desenha a mira no centro da tela.
func DrawCrosshair() {
	cx := int32(rl.GetScreenWidth() / 2)
	cy := int32(rl.GetScreenHeight() / 2)
	rl.DrawLine(cx-8, cy, cx+8, cy, rl.White)
	rl.DrawLine(cx, cy-8, cx, cy+8, rl.White)
}

// DrawLabel escreve text sobre o ponto do mundo pos, se ele estiver na frente da câmera.
func DrawLabel(pos mgl32.Vec3, text string, cam rl.Camera3D, c rl.Color) {
	toPoint := rl.Vector3Subtract(vec3(pos), cam.Position)
	forward := rl.Vector3Subtract(cam.Target, cam.Position)
	if rl.Vector3DotProduct(toPoint, forward) <= 0 {
		return
	}
	p := rl.GetWorldToScreen(vec3(pos), cam)
	w := rl.MeasureText(text, 16)
	rl.DrawRectangle(int32(p.X)-w/2-4, int32(p.Y)-2, w+8, 20, panelBg)
	rl.DrawText(text, int32(p.X)-w/2, int32(p.Y), 16, c)
}

// DrawRoute desenha o painel de navegação em area: trecho percorrido, trecho restante,
// posição atual e o aviso de fora da rota.
// Sem posição a rota inteira aparece como restante.
func DrawRoute(area rl.Rectangle, route navigation.Route, st navigation.State, view navigation.View, proj navigation.Projector) {
	rl.DrawRectangleRec(area, panelBg)
	rl.DrawRectangleLinesEx(area, 1, panelBorder)

	rl.BeginScissorMode(int32(area.X), int32(area.Y), int32(area.Width), int32(area.Height))
	switch {
	case !route.Valid():
	case !st.HasFix:
		drawPolyline(area, proj.ProjectLine(route.Points), view, routeAhead, 4)
	default:
		drawPolyline(area, proj.ProjectLine(st.Traveled), view, routeBehind, 3)
		drawPolyline(area, proj.ProjectLine(st.Remaining), view, routeAhead, 4)
	}
	if st.HasFix {
		x, y := proj.Project(st.Position)
		sx, sy := view.ToScreen(x, y, area.Width, area.Height)
		dot := rl.Vector2{X: area.X + sx, Y: area.Y + sy}
		tint := rl.White
		if st.OffRoute {
			tint = offRouteTint
			rl.DrawCircleLines(int32(dot.X), int32(dot.Y), 14, offRouteTint)
		}
		rl.DrawCircleV(dot, 6, tint)
	}
	rl.EndScissorMode()

	x, y := int32(area.X)+10, int32(area.Y)+8
	rl.DrawText(st.Status.Message(), x, y, 16, rl.White)
	if st.HasFix {
		rl.DrawText(fmt.Sprintf("Faltam %.2f km | Percorrido %.2f km", st.RemainingKm, st.TraveledKm), x, y+20, 14, rl.LightGray)
		if st.OffRoute {
			rl.DrawText(fmt.Sprintf("FORA DA ROTA (%.0f m)", st.DistanceKm*1000), x, y+38, 16, offRouteTint)
		}
	}
}

func drawPolyline(area rl.Rectangle, pts []geometry.Point, view navigation.View, c rl.Color, thick float32) {
	for i := 1; i < len(pts); i++ {
		ax, ay := view.ToScreen(pts[i-1].X, pts[i-1].Y, area.Width, area.Height)
		bx, by := view.ToScreen(pts[i].X, pts[i].Y, area.Width, area.Height)
		rl.DrawLineEx(
			rl.Vector2{X: area.X + ax, Y: area.Y + ay},
			rl.Vector2{X: area.X + bx, Y: area.Y + by},
			thick, c)
	}
}

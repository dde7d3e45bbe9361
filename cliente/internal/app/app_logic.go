package app

import (
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const noticeSeconds = 3.0

// updateNavigation aplica a posição mais recente recebida do Locator.
func (a *App) updateNavigation(dt float32) error {
	a.nav.Poll()
	return nil
}

// updateCamera move a câmera: primeira pessoa pelo controlador, órbita pelo teclado.
func (a *App) updateCamera(dt float32) error {
	a.frameCount++
	if a.State == StatePaused {
		return nil
	}

	if a.walker.Enabled() {
		a.walker.Update(dt)
	} else {
		var dx, dz, turn float32
		if rl.IsKeyDown(rl.KeyW) {
			dz++
		}
		if rl.IsKeyDown(rl.KeyS) {
			dz--
		}
		if rl.IsKeyDown(rl.KeyD) {
			dx++
		}
		if rl.IsKeyDown(rl.KeyA) {
			dx--
		}
		if rl.IsKeyDown(rl.KeyQ) {
			turn--
		}
		if rl.IsKeyDown(rl.KeyE) {
			turn++
		}
		if dx != 0 || dz != 0 {
			step := a.Config.CameraSpeed * dt
			a.Cam.Pan(dx*step, dz*step)
		}
		if turn != 0 {
			a.Cam.Orbit(turn*a.Cam.RotateSpeed*dt, 0)
		}
	}

	a.Cam.Update(dt)
	return nil
}

// flash mostra uma mensagem curta no HUD.
func (a *App) flash(msg string) {
	a.notice = msg
	a.noticeUntil = rl.GetTime() + noticeSeconds
}

// exportWorld grava o mundo atual em JSON ao lado do banco.
func (a *App) exportWorld() {
	data, err := a.store.ExportJSON()
	if err != nil {
		a.log.Error().Err(err).Msg("Falha ao exportar o mundo")
		a.flash("Falha ao exportar")
		return
	}
	name := a.Config.WorldName + "-" + time.Now().Format("20060102-150405") + ".json"
	path := filepath.Join(a.Config.SaveDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		a.log.Error().Err(err).Str("path", path).Msg("Falha ao gravar exportação")
		a.flash("Falha ao exportar")
		return
	}
	a.log.Info().Str("path", path).Int("props", a.store.Len()).Msg("Mundo exportado")
	a.flash("Exportado: " + name)
}

package app

import (
	"context"
	"errors"
	"time"

	"YardVision/cliente/internal/client"
	"YardVision/cliente/internal/navigation"
	"YardVision/shared/logging"
	"YardVision/shared/protocol"
)

// simulatedSpeedKmh é a velocidade do GPS simulado.
const simulatedSpeedKmh = 40

// connectServer conecta ao servidor ponte. Roda em goroutine; o loop de frame só vê o
// cliente depois que ele existe e só lê mensagens por Drain.
func (a *App) connectServer() {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("Erro em connectServer")
		}
	}()

	if a.netClient == nil {
		return
	}
	if err := a.netClient.Connect(a.ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			a.log.Error().Err(err).Str("url", a.Config.ServerURL).Msg("Erro ao conectar ao servidor")
		}
		return
	}
	a.log.Info().Str("url", a.Config.ServerURL).Msg("Conectado ao servidor ponte")
}

// setupNetwork cria o cliente antes do loop para que ele nunca mude durante um frame.
func (a *App) setupNetwork() {
	nc, err := client.NewNetworkClient(a.Config.ServerURL, a.Config.BridgeCodec,
		logging.For(a.log, "Rede"), a.metrics)
	if err != nil {
		a.log.Error().Err(err).Str("codec", a.Config.BridgeCodec).Msg("Cliente de rede desativado")
		return
	}
	a.netClient = nc
}

// send manda um evento ao servidor. Desconectado, o evento é descartado.
func (a *App) send(typ string, payload any) {
	if a.netClient == nil {
		return
	}
	if err := a.netClient.Send(typ, payload); err != nil {
		if errors.Is(err, client.ErrNotConnected) {
			return
		}
		a.log.Debug().Err(err).Str("type", typ).Msg("Evento não enviado")
	}
}

// drainNetwork aplica as mensagens recebidas desde o último frame.
func (a *App) drainNetwork(dt float32) error {
	if a.netClient == nil {
		return nil
	}
	a.netClient.Drain(a.handleEnvelope)
	return nil
}

func (a *App) handleEnvelope(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeInventoryRefresh:
		recs, err := client.InventoryRecords(env)
		if err != nil {
			a.log.Warn().Err(err).Msg("Inventário rejeitado")
			return
		}
		st := a.layer.Refresh(recs)
		a.log.Debug().
			Int("added", st.Added).
			Int("updated", st.Updated).
			Int("removed", st.Removed).
			Int("staged", st.Staged).
			Msg("Inventário aplicado")

	case protocol.TypeRouteLoad:
		if err := a.nav.LoadRouteGeoJSON(env.Payload); err != nil {
			a.flash("Rota indisponível")
			return
		}
		a.startNavigation()

	case protocol.TypePositionFix:
		if a.Config.SimulateGPS {
			return
		}
		fix, err := client.PositionFix(env, time.Now())
		if err != nil {
			a.log.Warn().Err(err).Msg("Posição rejeitada")
			return
		}
		a.feed.Push(fix)

	case protocol.TypeServerStatus:
		var st protocol.ServerStatus
		if err := env.Decode(&st); err != nil {
			a.log.Warn().Err(err).Msg("Status do servidor rejeitado")
			return
		}
		a.serverStatus = st

	default:
		a.log.Debug().Str("type", env.Type).Msg("Mensagem ignorada")
	}
}

// startNavigation liga a vigia de posição. Com GPS simulado, as posições vêm de um
// percurso pela rota empurrado para o mesmo feed.
func (a *App) startNavigation() {
	if err := a.nav.Start(a.ctx); err != nil {
		a.flash("GPS indisponível")
		return
	}
	if a.Config.SimulateGPS {
		a.simulate(a.nav.Route())
	}
}

func (a *App) simulate(route navigation.Route) {
	a.stopSimulation()
	ctx, cancel := context.WithCancel(a.ctx)
	fixes, err := navigation.SimulatedLocator{Route: route, SpeedKmh: simulatedSpeedKmh}.Watch(ctx)
	if err != nil {
		cancel()
		a.log.Warn().Err(err).Msg("Simulação de GPS indisponível")
		return
	}
	a.simCancel = cancel
	go func() {
		for f := range fixes {
			a.feed.Push(f)
		}
	}()
}

func (a *App) stopSimulation() {
	if a.simCancel != nil {
		a.simCancel()
		a.simCancel = nil
	}
}

// Package bridge é a ponte entre os clientes do pátio e a camada de negócio: recebe
// inventário, rotas e posições por HTTP e repassa eventos do pátio aos assinantes.
package bridge

import (
	"context"
	"errors"
	"sync"

	"YardVision/shared/protocol"
	"YardVision/shared/telemetry"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Role separa os dois lados da ponte.
type Role int

const (
	RoleYard     Role = iota // cliente 3D (/ws)
	RoleBusiness             // camada de negócio (/ws/business)
)

func (r Role) String() string {
	if r == RoleBusiness {
		return "business"
	}
	return "yard"
}

// errUnknownPeer indica escrita para uma conexão que já saiu do hub.
var errUnknownPeer = errors.New("cliente não encontrado no hub")

type peer struct {
	conn  *websocket.Conn
	role  Role
	codec protocol.Codec
	lock  sync.Mutex
}

type outbound struct {
	role Role
	env  protocol.Envelope
}

// Hub gerencia as conexões WebSocket ativas.
type Hub struct {
	clients    map[*websocket.Conn]*peer
	broadcast  chan outbound
	register   chan *peer
	unregister chan *websocket.Conn
	done       chan struct{}
	mu         sync.Mutex

	// último inventário e última rota, reenviados a quem conecta depois
	last map[string]protocol.Envelope

	log     zerolog.Logger
	metrics *telemetry.Counters
}

func newHub(log zerolog.Logger, metrics *telemetry.Counters) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*peer),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *peer),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		last:       make(map[string]protocol.Envelope),
		log:        log,
		metrics:    metrics,
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Msg("Hub recuperado de pânico")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case p := <-h.register:
			h.mu.Lock()
			h.clients[p.conn] = p
			var replay []protocol.Envelope
			if p.role == RoleYard {
				for _, typ := range []string{protocol.TypeInventoryRefresh, protocol.TypeRouteLoad} {
					if env, ok := h.last[typ]; ok {
						replay = append(replay, env)
					}
				}
			}
			h.mu.Unlock()

			h.log.Info().Str("addr", p.conn.RemoteAddr().String()).Stringer("role", p.role).Msg("Cliente registrado")
			for _, env := range replay {
				h.write(p, env)
			}
			h.broadcastStatus("cliente conectado")
		case conn := <-h.unregister:
			h.mu.Lock()
			p, ok := h.clients[conn]
			if ok {
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			if ok {
				p.lock.Lock()
				conn.Close()
				p.lock.Unlock()
				h.log.Info().Str("addr", conn.RemoteAddr().String()).Msg("Cliente desregistrado")
				h.broadcastStatus("cliente desconectado")
			}
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// deliver escreve fora do lock do hub; cada conexão tem o seu.
func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	if msg.role == RoleYard && (msg.env.Type == protocol.TypeInventoryRefresh || msg.env.Type == protocol.TypeRouteLoad) {
		h.last[msg.env.Type] = msg.env
	}
	var targets []*peer
	for _, p := range h.clients {
		if p.role == msg.role {
			targets = append(targets, p)
		}
	}
	h.mu.Unlock()

	for _, p := range targets {
		h.write(p, msg.env)
	}
}

func (h *Hub) write(p *peer, env protocol.Envelope) {
	data, err := p.codec.Encode(env)
	if err != nil {
		h.log.Error().Err(err).Str("type", env.Type).Msg("Erro ao serializar envelope")
		return
	}
	p.lock.Lock()
	err = p.conn.WriteMessage(p.codec.MessageType(), data)
	p.lock.Unlock()
	if err != nil {
		h.log.Warn().Err(err).Str("addr", p.conn.RemoteAddr().String()).Msg("Erro ao enviar para cliente")
		h.mu.Lock()
		delete(h.clients, p.conn)
		h.mu.Unlock()
		p.conn.Close()
		return
	}
	telemetry.Inc(h.metrics.BridgeMessages, telemetry.Kind(env.Type))
}

// WriteSafe garante que apenas uma goroutine escreva no WebSocket por vez.
func (h *Hub) WriteSafe(conn *websocket.Conn, env protocol.Envelope) error {
	h.mu.Lock()
	p, ok := h.clients[conn]
	h.mu.Unlock()
	if !ok {
		return errUnknownPeer
	}
	h.write(p, env)
	return nil
}

// Publish enfileira env para todos os clientes de role. Com o hub parado não faz nada.
func (h *Hub) Publish(role Role, env protocol.Envelope) {
	select {
	case h.broadcast <- outbound{role: role, env: env}:
	case <-h.done:
	}
}

func (h *Hub) join(p *peer) bool {
	select {
	case h.register <- p:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) broadcastStatus(message string) {
	yard, business := h.Count(RoleYard), h.Count(RoleBusiness)
	env, err := protocol.NewEnvelope(protocol.TypeServerStatus, protocol.ServerStatus{
		Message:  message,
		Clients:  yard,
		Business: business,
	})
	if err != nil {
		return
	}
	h.deliver(outbound{role: RoleYard, env: env})
	h.deliver(outbound{role: RoleBusiness, env: env})
}

// Count devolve quantos clientes de role estão conectados.
func (h *Hub) Count(role Role) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, p := range h.clients {
		if p.role == role {
			n++
		}
	}
	return n
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, p := range h.clients {
		p.lock.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "servidor encerrando"))
		conn.Close()
		p.lock.Unlock()
		delete(h.clients, conn)
	}
}

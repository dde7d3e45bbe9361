package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"YardVision/shared/protocol"
	"YardVision/shared/telemetry"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const maxBody = 8 << 20

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server expõe o hub por HTTP.
type Server struct {
	hub       *Hub
	validator *protocol.Validator
	log       zerolog.Logger
	started   time.Time
}

// NewServer compila os esquemas e cria o hub. O hub só roda depois de Run.
func NewServer(log zerolog.Logger, metrics *telemetry.Counters) (*Server, error) {
	v, err := protocol.NewValidator()
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Server{
		hub:       newHub(log, metrics),
		validator: v,
		log:       log,
		started:   time.Now(),
	}, nil
}

// Run processa o hub até ctx terminar.
func (s *Server) Run(ctx context.Context) { s.hub.run(ctx) }

// Hub devolve o hub (testes e diagnósticos).
func (s *Server) Hub() *Hub { return s.hub }

// Handler monta as rotas da ponte.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/inventory", s.ingress(protocol.TypeInventoryRefresh))
	mux.HandleFunc("POST /api/route", s.ingress(protocol.TypeRouteLoad))
	mux.HandleFunc("POST /api/position", s.ingress(protocol.TypePositionFix))
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) { s.serveWs(RoleYard, w, r) })
	mux.HandleFunc("GET /ws/business", func(w http.ResponseWriter, r *http.Request) { s.serveWs(RoleBusiness, w, r) })
	mux.HandleFunc("GET /healthz", s.health)
	return mux
}

// ingress valida o payload e repassa aos clientes do pátio.
func (s *Server) ingress(typ string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := s.validator.Validate(typ, body); err != nil {
			s.log.Warn().Err(err).Str("type", typ).Msg("Payload rejeitado")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.hub.Publish(RoleYard, protocol.Envelope{Type: typ, Payload: json.RawMessage(body)})
		writeJSON(w, http.StatusAccepted, map[string]int{"clients": s.hub.Count(RoleYard)})
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"clients":  s.hub.Count(RoleYard),
		"business": s.hub.Count(RoleBusiness),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) serveWs(role Role, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("Erro no upgrade")
		return
	}
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		codec = protocol.JSONCodec{}
	}
	p := &peer{conn: conn, role: role, codec: codec}
	if !s.hub.join(p) {
		conn.Close()
		return
	}
	defer s.hub.leave(conn)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.CodecFor(mt).Decode(data)
		if err != nil {
			s.log.Warn().Err(err).Msg("Envelope inválido")
			continue
		}
		s.handle(p, env)
	}
}

// handle roteia uma mensagem recebida por websocket.
func (s *Server) handle(p *peer, env protocol.Envelope) {
	switch {
	case env.Type == protocol.TypePing:
		pong, _ := protocol.NewEnvelope(protocol.TypePong, nil)
		_ = s.hub.WriteSafe(p.conn, pong)
	case p.role == RoleYard && protocol.Outbound(env.Type):
		s.hub.Publish(RoleBusiness, env)
	case p.role == RoleBusiness && protocol.Inbound(env.Type):
		if err := s.validator.Validate(env.Type, env.Payload); err != nil {
			s.log.Warn().Err(err).Msg("Payload rejeitado")
			return
		}
		s.hub.Publish(RoleYard, env)
	default:
		s.log.Debug().Str("type", env.Type).Stringer("role", p.role).Msg("Mensagem ignorada")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package client conecta o pátio ao servidor ponte por websocket.
package client

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"YardVision/shared/protocol"
	"YardVision/shared/telemetry"
	"YardVision/shared/util"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrNotConnected indica envio sem conexão ativa.
var ErrNotConnected = errors.New("não conectado ao servidor")

// NetworkClient lida com a comunicação com o servidor ponte. As mensagens recebidas
// esperam numa fila (uma por tipo, a mais recente vence) até o loop de frames chamar Drain.
type NetworkClient struct {
	conn      *websocket.Conn
	url       string
	codec     protocol.Codec
	connected bool
	mu        sync.RWMutex
	writeMu   sync.Mutex
	done      chan struct{}

	inbox *util.LatestQueue[string, protocol.Envelope]

	Retries    int
	RetryDelay time.Duration

	log     zerolog.Logger
	metrics *telemetry.Counters
}

// NewNetworkClient prepara o cliente. codec é "json" ou "proto".
func NewNetworkClient(serverURL, codec string, log zerolog.Logger, metrics *telemetry.Counters) (*NetworkClient, error) {
	c, err := protocol.CodecByName(codec)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &NetworkClient{
		url:        serverURL,
		codec:      c,
		inbox:      util.NewLatestQueue[string, protocol.Envelope](),
		Retries:    10,
		RetryDelay: 2 * time.Second,
		log:        log,
		metrics:    metrics,
	}, nil
}

func (c *NetworkClient) dialURL() string {
	u, err := url.Parse(c.url)
	if err != nil {
		return c.url
	}
	q := u.Query()
	q.Set("codec", c.codec.Name())
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect tenta conectar algumas vezes antes de desistir e inicia a leitura.
func (c *NetworkClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	var conn *websocket.Conn
	var err error
	target := c.dialURL()
	for i := 0; i < max(c.Retries, 1); i++ {
		c.log.Info().Int("tentativa", i+1).Str("url", c.url).Msg("Conectando ao servidor")
		conn, _, err = dialer.DialContext(ctx, target, nil)
		if err == nil {
			break
		}
		c.log.Warn().Err(err).Msg("Servidor ainda não está pronto. Aguardando...")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryDelay):
		}
	}
	if err != nil {
		c.log.Error().Err(err).Int("tentativas", c.Retries).Msg("Falha ao conectar")
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.readLoop(conn, done)
	return nil
}

// IsConnected indica se a conexão está ativa.
func (c *NetworkClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Send envia um evento para a camada de negócio.
func (c *NetworkClient) Send(typ string, payload any) error {
	c.mu.RLock()
	conn, ok := c.conn, c.connected
	c.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}

	env, err := protocol.NewEnvelope(typ, payload)
	if err != nil {
		return err
	}
	data, err := c.codec.Encode(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(c.codec.MessageType(), data)
	c.writeMu.Unlock()
	if err != nil {
		c.log.Warn().Err(err).Str("type", typ).Msg("Erro ao enviar mensagem")
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return err
	}
	telemetry.Inc(c.metrics.BridgeMessages, telemetry.Kind(typ))
	return nil
}

func (c *NetworkClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.connected = false
		}
		c.mu.Unlock()
		conn.Close()
		close(done)
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			c.log.Warn().Err(err).Msg("Conexão perdida")
			return
		}
		env, err := protocol.CodecFor(mt).Decode(message)
		if err != nil {
			c.log.Warn().Err(err).Msg("Erro ao desempacotar envelope")
			continue
		}
		c.handleMessage(env)
	}
}

func (c *NetworkClient) handleMessage(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypePong:
	case protocol.TypePing:
		_ = c.Send(protocol.TypePong, nil)
	default:
		telemetry.Inc(c.metrics.BridgeMessages, telemetry.Kind(env.Type))
		c.inbox.Put(env.Type, env)
	}
}

// Pending devolve quantas mensagens esperam o próximo Drain.
func (c *NetworkClient) Pending() int { return c.inbox.Len() }

// Drain entrega as mensagens pendentes a fn, na ordem de chegada. Chamado pelo loop de frames.
func (c *NetworkClient) Drain(fn func(protocol.Envelope)) int {
	return c.inbox.Drain(func(_ string, env protocol.Envelope) { fn(env) })
}

// Close encerra a conexão e espera a leitura terminar.
func (c *NetworkClient) Close() {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.connected = false
	c.mu.Unlock()
	if conn == nil {
		return
	}
	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	conn.Close()
	<-done
}

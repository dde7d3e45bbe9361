// Package protocol define os envelopes trocados entre o cliente do pátio, o servidor ponte
// e a camada de negócio.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Tipos de mensagem.
const (
	// Entrada (negócio -> cliente)
	TypeInventoryRefresh = "inventory.refresh"
	TypeRouteLoad        = "route.load"
	TypePositionFix      = "position.fix"

	// Saída (cliente -> negócio)
	TypeContainerSelected = "container.selected"
	TypePropCommitted     = "prop.committed"
	TypePropRemoved       = "prop.removed"
	TypeNavigationState   = "navigation.state"

	// Controle
	TypeServerStatus = "server.status"
	TypePing         = "ping"
	TypePong         = "pong"
)

// ErrUnknownType indica um envelope de tipo desconhecido.
var ErrUnknownType = errors.New("tipo de mensagem desconhecido")

// Envelope é a moldura comum: {type, payload}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope serializa payload dentro de um envelope. payload nil vira "null".
func NewEnvelope(typ string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("payload %s: %w", typ, err)
	}
	return Envelope{Type: typ, Payload: raw}, nil
}

// Decode lê o payload em v.
func (e Envelope) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("payload %s vazio", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("payload %s: %w", e.Type, err)
	}
	return nil
}

// IsNull indica payload ausente ou null.
func (e Envelope) IsNull() bool {
	return len(e.Payload) == 0 || string(e.Payload) == "null"
}

// Inbound indica se o tipo vem da camada de negócio.
func Inbound(typ string) bool {
	switch typ {
	case TypeInventoryRefresh, TypeRouteLoad, TypePositionFix:
		return true
	}
	return false
}

// Outbound indica se o tipo é um evento do cliente para a camada de negócio.
func Outbound(typ string) bool {
	switch typ {
	case TypeContainerSelected, TypePropCommitted, TypePropRemoved, TypeNavigationState:
		return true
	}
	return false
}

// InventoryItem é um contêiner como a camada de negócio o envia.
type InventoryItem struct {
	ID        string `json:"id"`
	Matricula string `json:"matricula"`
	Tipo      string `json:"tipo"`
	Posicion  string `json:"posicion"`
	Estado    string `json:"estado"`
}

// PositionFix é uma posição GPS repassada pela camada de negócio.
type PositionFix struct {
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// Vec3 é a posição no pátio, em metros.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PropCommitted confirma um prop colocado no modo construção.
type PropCommitted struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Position  Vec3           `json:"position"`
	RotationY float64        `json:"rotationY"`
	Scale     Vec3           `json:"scale"`
	Params    map[string]any `json:"params,omitempty"`
}

// PropRemoved confirma uma remoção.
type PropRemoved struct {
	ID string `json:"id"`
}

// NavigationState resume o overlay de navegação.
type NavigationState struct {
	RemainingKm float64 `json:"remainingKm"`
	OffRoute    bool    `json:"offRoute"`
	Running     bool    `json:"running"`
	Status      string  `json:"status"`
}

// ServerStatus é enviado pela ponte quando clientes entram ou saem.
type ServerStatus struct {
	Message  string `json:"message"`
	Clients  int    `json:"clients"`
	Business int    `json:"business"`
}

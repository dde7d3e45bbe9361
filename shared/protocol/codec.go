package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec converte envelopes de e para quadros websocket.
type Codec interface {
	Name() string
	// MessageType é o tipo de quadro websocket (texto ou binário).
	MessageType() int
	Encode(Envelope) ([]byte, error)
	Decode([]byte) (Envelope, error)
}

// CodecByName devolve "json" (padrão) ou "proto".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "proto", "protobuf":
		return ProtoCodec{}, nil
	}
	return nil, fmt.Errorf("codec desconhecido: %q", name)
}

// CodecFor escolhe o codec pelo tipo de quadro recebido.
func CodecFor(messageType int) Codec {
	if messageType == websocket.BinaryMessage {
		return ProtoCodec{}
	}
	return JSONCodec{}
}

// JSONCodec usa quadros de texto com o envelope em JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string     { return "json" }
func (JSONCodec) MessageType() int { return websocket.TextMessage }

func (JSONCodec) Encode(e Envelope) ([]byte, error) { return json.Marshal(e) }

func (JSONCodec) Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("envelope json: %w", err)
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("envelope json: %w", ErrUnknownType)
	}
	return e, nil
}

// ProtoCodec usa quadros binários com o envelope num google.protobuf.Struct.
type ProtoCodec struct{}

func (ProtoCodec) Name() string     { return "proto" }
func (ProtoCodec) MessageType() int { return websocket.BinaryMessage }

func (ProtoCodec) Encode(e Envelope) ([]byte, error) {
	var payload any
	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return nil, fmt.Errorf("envelope proto: %w", err)
		}
	}
	st, err := structpb.NewStruct(map[string]any{"type": e.Type, "payload": payload})
	if err != nil {
		return nil, fmt.Errorf("envelope proto: %w", err)
	}
	return proto.Marshal(st)
}

func (ProtoCodec) Decode(data []byte) (Envelope, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return Envelope{}, fmt.Errorf("envelope proto: %w", err)
	}
	typ := st.GetFields()["type"].GetStringValue()
	if typ == "" {
		return Envelope{}, fmt.Errorf("envelope proto: %w", ErrUnknownType)
	}
	e := Envelope{Type: typ}
	if v, ok := st.GetFields()["payload"]; ok {
		raw, err := json.Marshal(v.AsInterface())
		if err != nil {
			return Envelope{}, fmt.Errorf("envelope proto: %w", err)
		}
		e.Payload = raw
	}
	return e, nil
}

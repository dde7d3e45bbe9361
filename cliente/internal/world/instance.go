// Package world guarda os props colocados pelo operador (PropInstance), notifica quem
// desenha a cena e grava tudo em disco de forma assíncrona.
package world

import (
	"encoding/json"
	"fmt"
	"time"
)

// Vec3 é uma posição/escala em metros no espaço do pátio.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// One é a escala neutra.
var One = Vec3{1, 1, 1}

// Add soma dois vetores.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// PropInstance é um prop colocado no mundo.
type PropInstance struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Position  Vec3           `json:"position"`
	RotationY float64        `json:"rotationY"`
	Scale     Vec3           `json:"scale"`
	Params    map[string]any `json:"params,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Clone devolve uma cópia profunda.
func (p PropInstance) Clone() PropInstance {
	p.Params = cloneMap(p.Params)
	return p
}

// PropDraft é o que o modo construção entrega para Add.
type PropDraft struct {
	Type      string
	Position  Vec3
	RotationY float64
	Scale     Vec3 // zero vira (1,1,1)
	Params    map[string]any
}

// Patch altera campos de uma instância existente. Campos nil não mudam.
// Params substitui o mapa inteiro.
type Patch struct {
	Position  *Vec3
	RotationY *float64
	Scale     *Vec3
	Params    map[string]any
}

// ChangeKind diz o que aconteceu no Store.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeUpdated
	ChangeRemoved
	ChangeCleared
	ChangeReset
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeUpdated:
		return "updated"
	case ChangeRemoved:
		return "removed"
	case ChangeCleared:
		return "cleared"
	case ChangeReset:
		return "reset"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

// Change é entregue aos assinantes. Instance é nil para Removed, Cleared e Reset.
type Change struct {
	Kind     ChangeKind
	ID       string
	Instance *PropInstance
}

// normalizeParams passa os parâmetros por JSON para que exportar/importar seja sem perdas
// (inteiros viram float64, structs viram mapas). Mapa vazio vira nil.
func normalizeParams(in map[string]any) (map[string]any, error) {
	if len(in) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("params: %w", err)
	}
	return out, nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		s := make([]any, len(t))
		for i := range t {
			s[i] = cloneValue(t[i])
		}
		return s
	}
	return v
}

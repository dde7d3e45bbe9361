// Package containers projeta o inventário de contêineres (vindo da camada de negócio)
// em nós 3D selecionáveis no pátio.
package containers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Source é a origem/estado de um contêiner no inventário.
type Source int

const (
	SourceInYard Source = iota
	SourceScheduled
	SourceDefective
)

func (s Source) String() string {
	switch s {
	case SourceScheduled:
		return "scheduled"
	case SourceDefective:
		return "defective"
	}
	return "in-yard"
}

// ParseSource traduz o campo "estado" do inventário.
func ParseSource(estado string) Source {
	e := strings.ToLower(strings.TrimSpace(estado))
	switch {
	case strings.Contains(e, "defect"), strings.Contains(e, "dañ"), strings.Contains(e, "danif"),
		strings.Contains(e, "averi"):
		return SourceDefective
	case strings.Contains(e, "sched"), strings.Contains(e, "program"), strings.Contains(e, "agend"):
		return SourceScheduled
	}
	return SourceInYard
}

// Record é a parte do registro de negócio que a cena usa.
type Record struct {
	ID           string `json:"id"`
	Matricula    string `json:"matricula"`
	Type         string `json:"type"`
	PositionCode string `json:"positionCode"`
	Source       Source `json:"source"`
}

// InboundRecord é o formato recebido da camada de negócio.
type InboundRecord struct {
	ID        string `json:"id"`
	Matricula string `json:"matricula"`
	Tipo      string `json:"tipo"`
	Posicion  string `json:"posicion"`
	Estado    string `json:"estado"`
}

// Record converte para o formato interno.
func (r InboundRecord) Record() Record {
	return Record{
		ID:           r.ID,
		Matricula:    r.Matricula,
		Type:         r.Tipo,
		PositionCode: r.Posicion,
		Source:       ParseSource(r.Estado),
	}
}

// FromInbound converte uma lista inteira.
func FromInbound(in []InboundRecord) []Record {
	out := make([]Record, 0, len(in))
	for _, r := range in {
		out = append(out, r.Record())
	}
	return out
}

// ErrBadPosition indica um código de posição que não segue "<fila>-<baia>[-<altura>]".
var ErrBadPosition = errors.New("código de posição inválido")

// Slot é uma célula da grade do pátio. Row e Bay começam em 0; Tier começa em 1.
type Slot struct {
	Row  int
	Bay  int
	Tier int
}

// ParsePositionCode lê códigos como "B-07-2" (fila B, baia 7, altura 2).
// Filas com várias letras seguem a ordem de planilha: A..Z, AA, AB...
func ParsePositionCode(code string) (Slot, error) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(code)), "-")
	if len(parts) < 2 || len(parts) > 3 {
		return Slot{}, fmt.Errorf("%w: %q", ErrBadPosition, code)
	}

	if parts[0] == "" {
		return Slot{}, fmt.Errorf("%w: %q", ErrBadPosition, code)
	}
	acc := 0
	for _, r := range parts[0] {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return Slot{}, fmt.Errorf("%w: fila %q", ErrBadPosition, parts[0])
		}
		acc = acc*26 + int(r-'A'+1)
	}
	row := acc - 1

	bay, err := strconv.Atoi(parts[1])
	if err != nil || bay < 1 {
		return Slot{}, fmt.Errorf("%w: baia %q", ErrBadPosition, parts[1])
	}

	tier := 1
	if len(parts) == 3 {
		tier, err = strconv.Atoi(parts[2])
		if err != nil || tier < 1 {
			return Slot{}, fmt.Errorf("%w: altura %q", ErrBadPosition, parts[2])
		}
	}
	return Slot{Row: row, Bay: bay - 1, Tier: tier}, nil
}

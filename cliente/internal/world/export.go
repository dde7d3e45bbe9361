package world

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CSVHeader é a primeira linha de ExportCSV.
const CSVHeader = "id,type,x,y,z,rotY,sx,sy,sz,params"

// ExportJSON serializa o mundo no mesmo layout persistido, indentado.
func (s *Store) ExportJSON() ([]byte, error) {
	return EncodeJSON(s.List())
}

// ExportCSV serializa o mundo em CSV.
func (s *Store) ExportCSV() []byte {
	return EncodeCSV(s.List())
}

// ImportJSON substitui o mundo pelo conteúdo de um ExportJSON.
func (s *Store) ImportJSON(data []byte) error {
	list, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	return s.Reset(list)
}

// EncodeJSON gera { "props": [...] } com indentação de dois espaços.
func EncodeJSON(list []PropInstance) ([]byte, error) {
	if list == nil {
		list = []PropInstance{}
	}
	return json.MarshalIndent(snapshot{Props: list}, "", "  ")
}

// DecodeJSON lê o layout { "props": [...] }.
func DecodeJSON(data []byte) ([]PropInstance, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("importando mundo: %w", err)
	}
	return snap.Props, nil
}

// EncodeCSV gera uma linha por instância. Vírgulas dentro de params viram ';'
// (sem aspas), então a coluna params nunca quebra o número de colunas.
func EncodeCSV(list []PropInstance) []byte {
	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteByte('\n')
	for _, p := range list {
		params := ""
		if len(p.Params) > 0 {
			raw, err := json.Marshal(p.Params)
			if err == nil {
				params = strings.ReplaceAll(string(raw), ",", ";")
			}
		}
		fields := []string{
			csvSafe(p.ID),
			csvSafe(p.Type),
			num(p.Position.X), num(p.Position.Y), num(p.Position.Z),
			strconv.FormatFloat(p.RotationY, 'f', 4, 64),
			num(p.Scale.X), num(p.Scale.Y), num(p.Scale.Z),
			params,
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func csvSafe(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	return strings.ReplaceAll(s, "\n", " ")
}

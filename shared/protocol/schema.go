package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	TypeInventoryRefresh: "schemas/inventory.schema.json",
	TypeRouteLoad:        "schemas/route.schema.json",
	TypePositionFix:      "schemas/position.schema.json",
}

// Validator valida os payloads de entrada contra os esquemas embutidos.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compila todos os esquemas.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	v := &Validator{schemas: make(map[string]*jsonschema.Schema)}
	for typ, file := range schemaFiles {
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, err
		}
		url := "mem://" + file
		if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("esquema %s: %w", file, err)
		}
		s, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("esquema %s: %w", file, err)
		}
		v.schemas[typ] = s
	}
	return v, nil
}

// Validate confere o payload bruto de um tipo de entrada.
func (v *Validator) Validate(typ string, payload []byte) error {
	s, ok := v.schemas[typ]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%s: json inválido: %w", typ, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", typ, err)
	}
	return nil
}

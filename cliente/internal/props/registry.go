// Package props mantém o catálogo de objetos colocáveis (estradas, cercas, prédios...)
// e as fábricas que transformam parâmetros dimensionais em geometria.
package props

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"YardVision/shared/telemetry"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ErrInvalidEntry é devolvido por Register para entradas inválidas ou duplicadas.
var ErrInvalidEntry = errors.New("entrada de catálogo inválida")

// Factory gera a geometria de um tipo a partir dos parâmetros (já mesclados com os padrões).
type Factory func(Options) Geometry

// Entry é um tipo registrado no catálogo.
type Entry struct {
	Key      string
	Label    string
	Defaults map[string]float64
	Factory  Factory
}

// TypeInfo é o que a paleta do modo construção precisa saber de um tipo.
type TypeInfo struct {
	Key   string
	Label string
}

// Registry mapeia chave -> entrada. Tipos desconhecidos viram placeholder.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
	unknown map[string]int

	log     zerolog.Logger
	metrics *telemetry.Counters
}

// NewRegistry cria um catálogo vazio.
func NewRegistry(log zerolog.Logger, metrics *telemetry.Counters) *Registry {
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Registry{
		entries: make(map[string]*Entry),
		unknown: make(map[string]int),
		log:     log,
		metrics: metrics,
	}
}

// NewDefaultRegistry cria o catálogo com os seis tipos embutidos.
func NewDefaultRegistry(log zerolog.Logger, metrics *telemetry.Counters) *Registry {
	r := NewRegistry(log, metrics)
	for _, e := range builtins() {
		if err := r.Register(e); err != nil {
			// Catálogo embutido é fixo; falhar aqui é erro de programação.
			panic(err)
		}
	}
	return r
}

// Register valida e adiciona uma entrada.
func (r *Registry) Register(e Entry) error {
	if e.Key == "" {
		return fmt.Errorf("%w: chave vazia", ErrInvalidEntry)
	}
	if e.Factory == nil {
		return fmt.Errorf("%w: %s sem fábrica", ErrInvalidEntry, e.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Key]; ok {
		return fmt.Errorf("%w: %s duplicada", ErrInvalidEntry, e.Key)
	}
	if e.Label == "" {
		e.Label = e.Key
	}
	defaults := make(map[string]float64, len(e.Defaults))
	for k, v := range e.Defaults {
		defaults[k] = v
	}
	e.Defaults = defaults
	r.entries[e.Key] = &e
	r.order = append(r.order, e.Key)
	return nil
}

// Has indica se o tipo está registrado.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// ListTypes devolve os tipos na ordem de registro.
func (r *Registry) ListTypes() []TypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypeInfo, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, TypeInfo{Key: k, Label: r.entries[k].Label})
	}
	return out
}

// Defaults devolve uma cópia dos parâmetros padrão de um tipo (nil se desconhecido).
func (r *Registry) Defaults(key string) map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[key]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(e.Defaults))
	for k, v := range e.Defaults {
		out[k] = v
	}
	return out
}

// Create gera a geometria de uma instância. Nunca falha: tipo desconhecido
// (ou fábrica que entra em pânico) devolve o placeholder e fica registrado em UnknownTypes.
func (r *Registry) Create(typ string, opts Options) (g Geometry) {
	r.mu.RLock()
	e, ok := r.entries[typ]
	r.mu.RUnlock()

	if !ok {
		r.noteUnknown(typ)
		return Placeholder(typ)
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Str("type", typ).Interface("panic", rec).Msg("Fábrica falhou, usando placeholder")
			g = Placeholder(typ)
		}
	}()
	g = e.Factory(opts.merged(e.Defaults))
	g.Type = typ
	return g
}

func (r *Registry) noteUnknown(typ string) {
	r.mu.Lock()
	r.unknown[typ]++
	first := r.unknown[typ] == 1
	r.mu.Unlock()

	telemetry.Inc(r.metrics.UnknownProps, telemetry.Kind(typ))
	if first {
		r.log.Warn().Str("type", typ).Msg("Tipo de prop desconhecido, renderizando placeholder")
	}
}

// UnknownTypes devolve quantas vezes cada tipo desconhecido foi pedido.
func (r *Registry) UnknownTypes() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.unknown))
	for k, v := range r.unknown {
		out[k] = v
	}
	return out
}

// catalogFile é o formato de assets/props.yaml.
type catalogFile struct {
	Props []struct {
		Key      string             `yaml:"key"`
		Label    string             `yaml:"label"`
		Defaults map[string]float64 `yaml:"defaults"`
	} `yaml:"props"`
}

// LoadCatalog aplica um catálogo YAML sobre os tipos registrados, trocando rótulos e
// dimensões padrão. Arquivo ausente não é erro; chaves desconhecidas são ignoradas.
func (r *Registry) LoadCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("lendo catálogo %s: %w", path, err)
	}

	var cat catalogFile
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return fmt.Errorf("catálogo %s: %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var skipped []string
	for _, p := range cat.Props {
		e, ok := r.entries[p.Key]
		if !ok {
			skipped = append(skipped, p.Key)
			continue
		}
		if p.Label != "" {
			e.Label = p.Label
		}
		for k, v := range p.Defaults {
			e.Defaults[k] = v
		}
	}
	if len(skipped) > 0 {
		sort.Strings(skipped)
		r.log.Warn().Strs("keys", skipped).Str("path", path).Msg("Catálogo cita tipos sem fábrica")
	}
	r.log.Info().Int("props", len(cat.Props)).Str("path", path).Msg("Catálogo carregado")
	return nil
}

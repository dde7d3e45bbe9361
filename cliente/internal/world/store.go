package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"YardVision/shared/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound indica um id que não está no Store.
	ErrNotFound = errors.New("prop não encontrado")
	// ErrClosed indica uso do Store depois de Close.
	ErrClosed = errors.New("store fechado")
)

// snapshot é o layout persistido: { "props": [...] }.
type snapshot struct {
	Props []PropInstance `json:"props"`
}

// Store é o dono único dos props colocados. Mutações notificam os assinantes
// de forma síncrona e agendam a gravação do estado completo.
type Store struct {
	mu    sync.RWMutex
	items map[string]*PropInstance
	order []string

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int

	persist *persister
	backend Backend
	closed  bool

	log     zerolog.Logger
	metrics *telemetry.Counters
	now     func() time.Time
	newID   func() string
}

// Option configura um Store.
type Option func(*Store)

// WithClock troca o relógio usado em CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator troca o gerador de ids.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithMetrics liga os contadores de telemetria.
func WithMetrics(c *telemetry.Counters) Option {
	return func(s *Store) { s.metrics = c }
}

// Open carrega o mundo do backend e inicia o gravador. Chave ausente é um mundo vazio;
// conteúdo corrompido é registrado no log e também abre vazio.
func Open(ctx context.Context, backend Backend, log zerolog.Logger, opts ...Option) (*Store, error) {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	s := &Store{
		items:   make(map[string]*PropInstance),
		subs:    make(map[int]func(Change)),
		backend: backend,
		log:     log,
		metrics: telemetry.Nop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}

	data, err := backend.Load(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("carregando mundo: %w", err)
	}
	if len(data) > 0 {
		var snap snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			s.log.Error().Err(err).Msg("Mundo salvo ilegível, iniciando vazio")
		} else {
			for _, p := range snap.Props {
				p := p.Clone()
				if p.ID == "" || s.items[p.ID] != nil {
					continue
				}
				s.items[p.ID] = &p
				s.order = append(s.order, p.ID)
			}
		}
	}

	s.persist = newPersister(backend, func(err error) {
		telemetry.Inc(s.metrics.PersistFailures)
		s.log.Error().Err(err).Msg("Falha ao gravar mundo (estado em memória continua valendo)")
	})
	s.log.Info().Int("props", len(s.order)).Msg("Mundo carregado")
	return s, nil
}

// Subscribe registra fn para receber as mudanças. A função devolvida cancela a inscrição.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	s.subMu.Unlock()

	// Ordem de inscrição.
	sort.Ints(ids)
	for _, id := range ids {
		s.subMu.Lock()
		fn := s.subs[id]
		s.subMu.Unlock()
		if fn == nil {
			continue
		}
		if c.Instance != nil {
			inst := c.Instance.Clone()
			fn(Change{Kind: c.Kind, ID: c.ID, Instance: &inst})
		} else {
			fn(c)
		}
	}
}

// Add cria uma instância com id e timestamp novos.
func (s *Store) Add(d PropDraft) (PropInstance, error) {
	params, err := normalizeParams(d.Params)
	if err != nil {
		return PropInstance{}, err
	}
	scale := d.Scale
	if scale == (Vec3{}) {
		scale = One
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return PropInstance{}, ErrClosed
	}
	inst := PropInstance{
		ID:        s.newID(),
		Type:      d.Type,
		Position:  d.Position,
		RotationY: d.RotationY,
		Scale:     scale,
		Params:    params,
		CreatedAt: s.now().UTC().Round(0),
	}
	stored := inst.Clone()
	s.items[inst.ID] = &stored
	s.order = append(s.order, inst.ID)
	s.schedulePersistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeAdded, ID: inst.ID, Instance: &inst})
	return inst, nil
}

// Update aplica um Patch.
func (s *Store) Update(id string, p Patch) (PropInstance, error) {
	var params map[string]any
	if p.Params != nil {
		var err error
		if params, err = normalizeParams(p.Params); err != nil {
			return PropInstance{}, err
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return PropInstance{}, ErrClosed
	}
	cur, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return PropInstance{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if p.Position != nil {
		cur.Position = *p.Position
	}
	if p.RotationY != nil {
		cur.RotationY = *p.RotationY
	}
	if p.Scale != nil {
		cur.Scale = *p.Scale
	}
	if p.Params != nil {
		cur.Params = params
	}
	inst := cur.Clone()
	s.schedulePersistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeUpdated, ID: id, Instance: &inst})
	return inst, nil
}

// Remove apaga uma instância.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.schedulePersistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeRemoved, ID: id})
	return nil
}

// Clear apaga todas as instâncias.
func (s *Store) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.items = make(map[string]*PropInstance)
	s.order = nil
	s.schedulePersistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeCleared})
}

// Reset troca todo o conteúdo por list (ids e timestamps preservados).
func (s *Store) Reset(list []PropInstance) error {
	items := make(map[string]*PropInstance, len(list))
	order := make([]string, 0, len(list))
	for _, p := range list {
		if p.ID == "" {
			return fmt.Errorf("prop sem id (tipo %q)", p.Type)
		}
		if _, dup := items[p.ID]; dup {
			return fmt.Errorf("id duplicado: %s", p.ID)
		}
		params, err := normalizeParams(p.Params)
		if err != nil {
			return err
		}
		p.Params = params
		p.CreatedAt = p.CreatedAt.UTC().Round(0)
		items[p.ID] = &p
		order = append(order, p.ID)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.items = items
	s.order = order
	s.schedulePersistLocked()
	s.mu.Unlock()

	s.notify(Change{Kind: ChangeReset})
	return nil
}

// Get devolve uma cópia da instância.
func (s *Store) Get(id string) (PropInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	if !ok {
		return PropInstance{}, false
	}
	return p.Clone(), true
}

// List devolve uma cópia de todas as instâncias, na ordem de criação.
func (s *Store) List() []PropInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PropInstance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id].Clone())
	}
	return out
}

// Len devolve o número de instâncias.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// schedulePersistLocked serializa o estado atual e entrega ao gravador.
// Erros de serialização ficam no log; a memória continua sendo a fonte da verdade.
func (s *Store) schedulePersistLocked() {
	snap := snapshot{Props: make([]PropInstance, 0, len(s.order))}
	for _, id := range s.order {
		snap.Props = append(snap.Props, *s.items[id])
	}
	data, err := json.Marshal(snap)
	if err != nil {
		telemetry.Inc(s.metrics.PersistFailures)
		s.log.Error().Err(err).Msg("Falha ao serializar mundo")
		return
	}
	s.persist.enqueue(data)
}

// Flush espera a gravação pendente terminar.
func (s *Store) Flush() {
	s.persist.Flush()
}

// Close grava o estado pendente e fecha o backend. Chamadas seguintes não fazem nada.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.persist.Close()

	s.subMu.Lock()
	s.subs = make(map[int]func(Change))
	s.subMu.Unlock()

	return s.backend.Close()
}

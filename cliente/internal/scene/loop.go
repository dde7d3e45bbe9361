package scene

import (
	"fmt"
	"sort"
	"sync"

	"YardVision/shared/telemetry"

	"github.com/rs/zerolog"
)

// Phase ordena os passos de um frame.
type Phase int

const (
	PhaseInput Phase = iota
	PhaseUpdate
	PhaseRender
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseUpdate:
		return "update"
	case PhaseRender:
		return "render"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// StepFunc é executado uma vez por frame.
type StepFunc func(dt float32) error

type step struct {
	phase Phase
	name  string
	seq   int
	fn    StepFunc
}

// Loop executa os passos do frame em ordem (input, update, render).
// Um passo que devolve erro ou entra em pânico é registrado e pulado naquele frame;
// o loop continua.
type Loop struct {
	mu      sync.Mutex
	steps   []step
	seq     int
	stopped bool
	frame   uint64
	failed  map[string]int

	log     zerolog.Logger
	metrics *telemetry.Counters
}

// NewLoop cria um loop sem passos.
func NewLoop(log zerolog.Logger, metrics *telemetry.Counters) *Loop {
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Loop{log: log, metrics: metrics, failed: make(map[string]int)}
}

// Add registra um passo.
func (l *Loop) Add(phase Phase, name string, fn StepFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.steps = append(l.steps, step{phase: phase, name: name, seq: l.seq, fn: fn})
	l.seq++
	sort.SliceStable(l.steps, func(i, j int) bool {
		if l.steps[i].phase != l.steps[j].phase {
			return l.steps[i].phase < l.steps[j].phase
		}
		return l.steps[i].seq < l.steps[j].seq
	})
}

// Tick executa um frame. Depois de Stop devolve ErrDisposed sem executar nada.
func (l *Loop) Tick(dt float32) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrDisposed
	}
	l.frame++
	steps := make([]step, len(l.steps))
	copy(steps, l.steps)
	l.mu.Unlock()

	for _, s := range steps {
		if err := l.run(s, dt); err != nil {
			telemetry.Inc(l.metrics.FrameErrors, telemetry.Kind(s.name))
			l.mu.Lock()
			l.failed[s.name]++
			count := l.failed[s.name]
			l.mu.Unlock()
			// Um erro repetido em todo frame lotaria o log.
			if count <= 3 || count%300 == 0 {
				l.log.Error().Err(err).Str("step", s.name).Str("phase", s.phase.String()).
					Int("count", count).Msg("Passo do frame falhou, pulando")
			}
		}
		l.mu.Lock()
		stopped := l.stopped
		l.mu.Unlock()
		if stopped {
			return ErrDisposed
		}
	}
	return nil
}

func (l *Loop) run(s step, dt float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.fn(dt)
}

// Stop encerra o loop. Ticks seguintes são rejeitados.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
}

// Stopped indica se Stop já foi chamado.
func (l *Loop) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

// Frame devolve quantos ticks foram executados.
func (l *Loop) Frame() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame
}

// Failures devolve quantas vezes cada passo falhou.
func (l *Loop) Failures() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]int, len(l.failed))
	for k, v := range l.failed {
		out[k] = v
	}
	return out
}

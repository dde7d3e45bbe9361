package scene

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Releaser é qualquer coisa que pode ser liberada (listener de entrada, observação de GPS).
type Releaser interface {
	Remove()
}

// ReleaseFunc adapta uma função a Releaser.
type ReleaseFunc func()

func (f ReleaseFunc) Remove() { f() }

// Session agrupa o loop, os listeners de entrada e as observações de posição como um
// único recurso. Close libera na ordem: loop, listeners, observações, GPU.
type Session struct {
	mu        sync.Mutex
	loop      *Loop
	listeners []Releaser
	watches   []Releaser
	gpu       []func()
	closed    bool

	log zerolog.Logger
}

// NewSession cria uma sessão em volta de loop.
func NewSession(loop *Loop, log zerolog.Logger) *Session {
	return &Session{loop: loop, log: log}
}

// Loop devolve o loop da sessão.
func (s *Session) Loop() *Loop { return s.loop }

// AddListener registra um listener de entrada. Sessão fechada libera na hora.
func (s *Session) AddListener(r Releaser) error {
	return s.add(&s.listeners, r)
}

// AddWatch registra uma observação de posição.
func (s *Session) AddWatch(r Releaser) error {
	return s.add(&s.watches, r)
}

func (s *Session) add(list *[]Releaser, r Releaser) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		r.Remove()
		return ErrDisposed
	}
	*list = append(*list, r)
	s.mu.Unlock()
	return nil
}

// OnDispose registra uma liberação de GPU, executada por último.
func (s *Session) OnDispose(fn func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return ErrDisposed
	}
	s.gpu = append(s.gpu, fn)
	s.mu.Unlock()
	return nil
}

// Tick executa um frame do loop.
func (s *Session) Tick(dt float32) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrDisposed
	}
	return s.loop.Tick(dt)
}

// Closed indica se a sessão foi encerrada.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close encerra a sessão. Pânicos em liberações individuais são registrados e não
// interrompem as demais. Idempotente.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listeners, watches, gpu := s.listeners, s.watches, s.gpu
	s.listeners, s.watches, s.gpu = nil, nil, nil
	s.mu.Unlock()

	s.loop.Stop()

	var failures int
	for i := len(listeners) - 1; i >= 0; i-- {
		failures += s.safe("listener", listeners[i].Remove)
	}
	for i := len(watches) - 1; i >= 0; i-- {
		failures += s.safe("watch", watches[i].Remove)
	}
	for i := len(gpu) - 1; i >= 0; i-- {
		failures += s.safe("gpu", gpu[i])
	}

	s.log.Info().Int("listeners", len(listeners)).Int("watches", len(watches)).Msg("Sessão encerrada")
	if failures > 0 {
		return fmt.Errorf("sessão encerrada com %d falhas de liberação", failures)
	}
	return nil
}

func (s *Session) safe(kind string, fn func()) (failed int) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Str("kind", kind).Interface("panic", r).Msg("Falha ao liberar recurso")
			failed = 1
		}
	}()
	fn()
	return 0
}

package scene

import (
	"errors"
	"sync"
)

// ErrDisposed indica uso de um recurso depois do descarte.
var ErrDisposed = errors.New("recurso já descartado")

// Resources registra as liberações de recursos de GPU (meshes, texturas) de uma sessão.
type Resources struct {
	mu       sync.Mutex
	names    []string
	release  []func()
	disposed bool
}

// Track registra uma função de liberação. Depois de Dispose a liberação é imediata.
func (r *Resources) Track(name string, release func()) error {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		release()
		return ErrDisposed
	}
	r.names = append(r.names, name)
	r.release = append(r.release, release)
	r.mu.Unlock()
	return nil
}

// Len devolve quantos recursos estão vivos.
func (r *Resources) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.release)
}

// Disposed indica se Dispose já foi chamado.
func (r *Resources) Disposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

// Dispose libera tudo na ordem inversa do registro. Idempotente.
func (r *Resources) Dispose() int {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return 0
	}
	r.disposed = true
	rel := r.release
	r.release, r.names = nil, nil
	r.mu.Unlock()

	for i := len(rel) - 1; i >= 0; i-- {
		rel[i]()
	}
	return len(rel)
}

// Package util reúne estruturas pequenas compartilhadas por cliente e servidor.
package util

import "sync"

// LatestQueue guarda no máximo um valor por chave, na ordem em que cada chave chegou.
// Um Put numa chave pendente troca o valor sem mudar a posição, então quem drena vê só o
// valor mais recente de cada chave. Seguro para um produtor e um consumidor em goroutines
// diferentes.
type LatestQueue[K comparable, V any] struct {
	mu         sync.Mutex
	keys       []K
	values     []V
	index      map[K]int
	superseded uint64
}

// NewLatestQueue cria uma fila vazia.
func NewLatestQueue[K comparable, V any]() *LatestQueue[K, V] {
	return &LatestQueue[K, V]{index: make(map[K]int)}
}

// Put guarda v em key. Devolve false se key já estava pendente (o valor antigo é descartado).
func (q *LatestQueue[K, V]) Put(key K, v V) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i, ok := q.index[key]; ok {
		q.values[i] = v
		q.superseded++
		return false
	}
	q.index[key] = len(q.keys)
	q.keys = append(q.keys, key)
	q.values = append(q.values, v)
	return true
}

// Drain esvazia a fila e chama fn para cada par, fora do lock: fn pode chamar Put.
func (q *LatestQueue[K, V]) Drain(fn func(K, V)) int {
	q.mu.Lock()
	keys, values := q.keys, q.values
	q.keys, q.values = nil, nil
	clear(q.index)
	q.mu.Unlock()

	for i := range keys {
		fn(keys[i], values[i])
	}
	return len(keys)
}

// Len devolve quantas chaves estão pendentes.
func (q *LatestQueue[K, V]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.keys)
}

// Superseded conta os valores descartados por um Put mais novo na mesma chave.
func (q *LatestQueue[K, V]) Superseded() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.superseded
}

package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatestQueueKeepsLatestValueInPlace(t *testing.T) {
	q := NewLatestQueue[string, int]()
	assert.True(t, q.Put("inventory", 1))
	assert.True(t, q.Put("route", 2))
	assert.False(t, q.Put("inventory", 3))
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, uint64(1), q.Superseded())

	var keys []string
	var values []int
	n := q.Drain(func(k string, v int) {
		keys = append(keys, k)
		values = append(values, v)
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"inventory", "route"}, keys)
	assert.Equal(t, []int{3, 2}, values)
	assert.Zero(t, q.Len())

	assert.True(t, q.Put("inventory", 4), "chave drenada volta a ser nova")
}

func TestLatestQueuePutDuringDrain(t *testing.T) {
	q := NewLatestQueue[string, int]()
	q.Put("a", 1)

	n := q.Drain(func(k string, v int) {
		assert.True(t, q.Put(k, v+1))
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, q.Len())

	q.Drain(func(_ string, v int) { assert.Equal(t, 2, v) })
	assert.Zero(t, q.Drain(func(string, int) { t.Fatal("fila deveria estar vazia") }))
}

func TestLatestQueueConcurrent(t *testing.T) {
	q := NewLatestQueue[int, int]()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Put(i%10, w)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 10, q.Len())
	assert.Equal(t, uint64(800-10), q.Superseded())
}

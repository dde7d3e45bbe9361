package render

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

type drawCall struct {
	Transform rl.Matrix
	Color     rl.Color
}

// Batch agrupa as partes opacas que usam a mesma malha e a mesma textura, para trocar
// de textura uma vez por lote.
type Batch struct {
	MeshKey     string
	TextureName string
	Mesh        rl.Mesh
	Calls       []drawCall
}

// BatchSet coordena os lotes do passo opaco.
type BatchSet struct {
	Batches map[string]*Batch
	order   []*Batch
}

func NewBatchSet() *BatchSet {
	return &BatchSet{Batches: make(map[string]*Batch)}
}

// Clear reseta os buffers sem desalocar memória.
func (bs *BatchSet) Clear() {
	for _, b := range bs.order {
		b.Calls = b.Calls[:0]
	}
}

// Add coloca uma parte no lote da sua malha e textura.
func (bs *BatchSet) Add(meshKey, texture string, mesh rl.Mesh, m rl.Matrix, c rl.Color) {
	key := meshKey + "|" + texture
	b, ok := bs.Batches[key]
	if !ok {
		b = &Batch{
			MeshKey:     meshKey,
			TextureName: texture,
			Mesh:        mesh,
			Calls:       make([]drawCall, 0, 64),
		}
		bs.Batches[key] = b
		bs.order = append(bs.order, b)
	}
	b.Calls = append(b.Calls, drawCall{Transform: m, Color: c})
}

// DrawAll desenha os lotes na ordem em que foram criados. Devolve o número de draw calls.
func (bs *BatchSet) DrawAll(r *Renderer) int {
	calls := 0
	for _, b := range bs.order {
		if len(b.Calls) == 0 {
			continue
		}
		r.bindTexture(b.TextureName)
		for _, c := range b.Calls {
			r.material.Maps.Color = c.Color
			rl.DrawMesh(b.Mesh, r.material, c.Transform)
			calls++
		}
	}
	return calls
}

package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray representa um raio no espaço 3D (Origem e Direção normalizada).
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// NewRay cria um raio normalizando a direção.
func NewRay(origin, dir mgl32.Vec3) Ray {
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: origin, Direction: dir}
}

// At devolve o ponto a uma distância d da origem.
func (r Ray) At(d float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(d))
}

// AABB é uma caixa alinhada aos eixos.
type AABB struct {
	Min, Max mgl32.Vec3
}

// EmptyAABB devolve uma caixa "invertida" pronta para Extend.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// BoxAround cria uma caixa centrada em c com meias-dimensões half.
func BoxAround(c, half mgl32.Vec3) AABB {
	return AABB{Min: c.Sub(half), Max: c.Add(half)}
}

// IsEmpty indica se a caixa não contém nenhum ponto.
func (b AABB) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend aumenta a caixa para conter p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Union devolve a menor caixa que contém as duas.
func (b AABB) Union(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Center devolve o centro da caixa.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size devolve as dimensões da caixa.
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Contains indica se p está dentro (ou na borda) da caixa.
func (b AABB) Contains(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Transform aplica m aos 8 cantos e devolve a caixa alinhada resultante.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		out = out.Extend(m.Mul4x1(c.Vec4(1)).Vec3())
	}
	return out
}

// IntersectAABB testa o raio contra a caixa (método das fatias).
// Devolve a distância de entrada (0 se a origem está dentro).
func (r Ray) IntersectAABB(b AABB) (float32, bool) {
	if b.IsEmpty() {
		return 0, false
	}
	tMin := float32(0)
	tMax := float32(math.MaxFloat32)
	for i := 0; i < 3; i++ {
		o := r.Origin[i]
		d := r.Direction[i]
		if d == 0 {
			if o < b.Min[i] || o > b.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / d
		t1 := (b.Min[i] - o) * inv
		t2 := (b.Max[i] - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// IntersectPlaneY intersecta o raio com o plano horizontal y = h.
// Raios paralelos ou que apontam para longe do plano não acertam.
func (r Ray) IntersectPlaneY(h float32) (mgl32.Vec3, float32, bool) {
	d := r.Direction[1]
	if d == 0 {
		return mgl32.Vec3{}, 0, false
	}
	t := (h - r.Origin[1]) / d
	if t < 0 {
		return mgl32.Vec3{}, 0, false
	}
	p := r.At(t)
	p[1] = h
	return p, t, true
}

// SnapToGrid arredonda v para o múltiplo mais próximo de grid (round(v/grid)*grid).
// grid <= 0 devolve v sem alteração.
func SnapToGrid(v, grid float32) float32 {
	if grid <= 0 {
		return v
	}
	return float32(math.Round(float64(v/grid))) * grid
}

// SnapXZ aplica SnapToGrid em x e z, mantendo y.
func SnapXZ(p mgl32.Vec3, grid float32) mgl32.Vec3 {
	return mgl32.Vec3{SnapToGrid(p[0], grid), p[1], SnapToGrid(p[2], grid)}
}

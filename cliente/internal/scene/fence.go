package scene

import (
	"math"
	"sort"

	"YardVision/shared/config"

	"github.com/go-gl/mathgl/mgl32"
)

// Lados do alambrado.
const (
	SideNorth = "north"
	SideSouth = "south"
	SideEast  = "east"
	SideWest  = "west"
)

// FencePanel é um trecho contínuo de tela. Length corre ao longo do eixo local X.
type FencePanel struct {
	Side      string
	Center    mgl32.Vec3
	Length    float32
	RotationY float32
}

// FenceLayout é o alambrado calculado: painéis, postes e aberturas por lado.
type FenceLayout struct {
	Panels   []FencePanel
	Posts    []mgl32.Vec3
	Openings map[string][][2]float32
}

type sideSpec struct {
	name   string
	half   float32 // metade do comprimento do lado
	origin func(s float32) mgl32.Vec3
	rot    float32
}

// BuildFence gera o alambrado nas meias-extensões do pátio mais a margem.
// Cada lado tem coordenada s em [-half, half]; as aberturas {side, centerOffset, width}
// removem a tela no intervalo [centerOffset-width/2, centerOffset+width/2].
func BuildFence(cfg *config.Config) FenceLayout {
	hx := cfg.YardHalfX + cfg.FenceMargin
	hz := cfg.YardHalfZ + cfg.FenceMargin
	sides := []sideSpec{
		{SideNorth, hx, func(s float32) mgl32.Vec3 { return mgl32.Vec3{s, 0, -hz} }, 0},
		{SideSouth, hx, func(s float32) mgl32.Vec3 { return mgl32.Vec3{s, 0, hz} }, 0},
		{SideEast, hz, func(s float32) mgl32.Vec3 { return mgl32.Vec3{hx, 0, s} }, math.Pi / 2},
		{SideWest, hz, func(s float32) mgl32.Vec3 { return mgl32.Vec3{-hx, 0, s} }, math.Pi / 2},
	}

	layout := FenceLayout{Openings: make(map[string][][2]float32)}
	for _, side := range sides {
		openings := sideOpenings(cfg.Gates, side.name, side.half)
		layout.Openings[side.name] = openings

		for _, iv := range complement(openings, -side.half, side.half) {
			length := iv[1] - iv[0]
			if length <= 0.01 {
				continue
			}
			c := side.origin((iv[0] + iv[1]) / 2)
			c[1] = cfg.FenceHeight / 2
			layout.Panels = append(layout.Panels, FencePanel{
				Side: side.name, Center: c, Length: length, RotationY: side.rot,
			})
		}

		for _, s := range postPositions(openings, side.half, cfg.PostInterval) {
			layout.Posts = append(layout.Posts, side.origin(s))
		}
	}
	return layout
}

// sideOpenings devolve as aberturas do lado, recortadas e fundidas, em ordem.
func sideOpenings(gates []config.Gate, side string, half float32) [][2]float32 {
	var out [][2]float32
	for _, g := range gates {
		if g.Side != side || g.Width <= 0 {
			continue
		}
		a := max(g.CenterOffset-g.Width/2, -half)
		b := min(g.CenterOffset+g.Width/2, half)
		if b > a {
			out = append(out, [2]float32{a, b})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })

	merged := out[:0]
	for _, iv := range out {
		if n := len(merged); n > 0 && iv[0] <= merged[n-1][1] {
			merged[n-1][1] = max(merged[n-1][1], iv[1])
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

func complement(openings [][2]float32, lo, hi float32) [][2]float32 {
	var out [][2]float32
	cur := lo
	for _, iv := range openings {
		if iv[0] > cur {
			out = append(out, [2]float32{cur, iv[0]})
		}
		cur = max(cur, iv[1])
	}
	if cur < hi {
		out = append(out, [2]float32{cur, hi})
	}
	return out
}

// postPositions distribui postes a cada interval, pulando aberturas, e sempre
// coloca postes nas bordas das aberturas (batentes do portão).
func postPositions(openings [][2]float32, half, interval float32) []float32 {
	var out []float32
	inside := func(s float32) bool {
		for _, iv := range openings {
			if s > iv[0]+0.01 && s < iv[1]-0.01 {
				return true
			}
		}
		return false
	}
	if interval > 0 {
		n := int(math.Floor(float64(2*half/interval) + 1e-6))
		for i := 0; i <= n; i++ {
			s := -half + float32(i)*interval
			if !inside(s) {
				out = append(out, s)
			}
		}
		if last := -half + float32(n)*interval; half-last > 0.01 {
			out = append(out, half)
		}
	}
	for _, iv := range openings {
		out = append(out, iv[0], iv[1])
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	dedup := out[:0]
	for _, s := range out {
		if n := len(dedup); n > 0 && s-dedup[n-1] < 0.05 {
			continue
		}
		dedup = append(dedup, s)
	}
	return dedup
}

package containers

import (
	"strconv"
	"strings"

	"YardVision/cliente/internal/props"
	"YardVision/shared/config"

	"github.com/go-gl/mathgl/mgl32"
)

// Dimensões ISO em metros.
const (
	length20   = 6.06
	length40   = 12.19
	width      = 2.44
	heightStd  = 2.59
	heightHigh = 2.90
)

// Layout converte células da grade em posições no pátio.
// Baias correm ao longo de X, filas ao longo de Z.
type Layout struct {
	OriginX    float32
	OriginZ    float32
	BayPitch   float32
	RowPitch   float32
	TierHeight float32

	StagingZ      float32
	StagingStartX float32
	StagingPitch  float32
}

// DefaultLayout ocupa o pátio a partir do canto noroeste, deixando a faixa sul para
// a área de espera (códigos inválidos).
func DefaultLayout(cfg *config.Config) Layout {
	return Layout{
		OriginX:       -cfg.YardHalfX + 4,
		OriginZ:       -cfg.YardHalfZ + 4,
		BayPitch:      6.6,
		RowPitch:      3.2,
		TierHeight:    heightStd + 0.02,
		StagingZ:      cfg.YardHalfZ - 4,
		StagingStartX: -cfg.YardHalfX + 8,
		StagingPitch:  7,
	}
}

// SlotPosition devolve o centro da base do contêiner na célula.
// Contêineres de 40 pés ocupam duas baias e ficam centrados entre elas.
func (l Layout) SlotPosition(s Slot, size mgl32.Vec3) mgl32.Vec3 {
	x := l.OriginX + float32(s.Bay)*l.BayPitch
	if size[0] > length20+0.5 {
		x += l.BayPitch / 2
	}
	z := l.OriginZ + float32(s.Row)*l.RowPitch
	y := float32(s.Tier-1) * l.TierHeight
	return mgl32.Vec3{x, y, z}
}

// StagingPosition devolve a vaga i da área de espera.
func (l Layout) StagingPosition(i int) mgl32.Vec3 {
	return mgl32.Vec3{l.StagingStartX + float32(i)*l.StagingPitch, 0, l.StagingZ}
}

// SizeForType interpreta tipos como "20DV", "40HC", "40" (padrão 20 pés).
func SizeForType(tipo string) mgl32.Vec3 {
	t := strings.ToUpper(strings.TrimSpace(tipo))
	digits := strings.TrimLeftFunc(t, func(r rune) bool { return r < '0' || r > '9' })
	end := 0
	for end < len(digits) && digits[end] >= '0' && digits[end] <= '9' {
		end++
	}
	length := float32(length20)
	if n, err := strconv.Atoi(digits[:end]); err == nil && n >= 40 {
		length = length40
	}
	height := float32(heightStd)
	if strings.Contains(t, "HC") || strings.Contains(t, "HQ") {
		height = heightHigh
	}
	return mgl32.Vec3{length, height, width}
}

// ColorFor devolve a cor do contêiner conforme a origem.
func ColorFor(s Source) props.Color {
	switch s {
	case SourceScheduled:
		return props.Color{R: 70, G: 160, B: 90, A: 255}
	case SourceDefective:
		return props.Color{R: 200, G: 60, B: 50, A: 255}
	}
	return props.Color{R: 50, G: 105, B: 180, A: 255}
}

func containerGeometry(r Record) props.Geometry {
	size := SizeForType(r.Type)
	part := props.Part{
		Kind:    props.KindBox,
		Offset:  mgl32.Vec3{0, size[1] / 2, 0},
		Size:    size,
		Color:   ColorFor(r.Source),
		Texture: "corrugated",
	}
	return props.Geometry{Type: "container", Parts: []props.Part{part}, Bounds: part.Bounds()}
}

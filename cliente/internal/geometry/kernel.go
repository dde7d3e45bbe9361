// Package geometry reúne a matemática pura usada pelo pátio: projeção em segmentos e polilinhas
// (rotas em lon/lat) e raios/caixas 3D para seleção na cena.
//
// Nenhuma função guarda estado; todas são seguras para uso concorrente.
package geometry

import "math"

// KmPerDegree é o comprimento aproximado de um grau de latitude (e de longitude no equador).
const KmPerDegree = 111.32

// EarthRadiusKm é o raio médio usado por HaversineKm.
const EarthRadiusKm = 6371.0088

// Point é um ponto 2D. Em rotas, X = longitude e Y = latitude.
type Point struct {
	X, Y float64
}

// Closest descreve o ponto mais próximo de uma polilinha.
type Closest struct {
	SegmentIndex    int
	T               float64
	Point           Point
	DistanceSquared float64
}

// ProjectOnSegment devolve o ponto de ab mais próximo de p e o parâmetro t em [0,1].
// Segmento degenerado (a == b) devolve (a, 0).
func ProjectOnSegment(a, b, p Point) (Point, float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a, 0
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Point{X: a.X + t*dx, Y: a.Y + t*dy}, t
}

// ClosestOnPolyline procura o ponto da polilinha mais próximo de p.
// Empates ficam com o primeiro segmento. Menos de 2 pontos devolve ok=false.
func ClosestOnPolyline(points []Point, p Point) (Closest, bool) {
	if len(points) < 2 {
		return Closest{}, false
	}
	best := Closest{SegmentIndex: -1, DistanceSquared: math.Inf(1)}
	for i := 0; i < len(points)-1; i++ {
		q, t := ProjectOnSegment(points[i], points[i+1], p)
		d := distSq(q, p)
		if d < best.DistanceSquared {
			best = Closest{SegmentIndex: i, T: t, Point: q, DistanceSquared: d}
		}
	}
	return best, true
}

// SliceRemaining devolve o trecho que falta percorrer: o ponto mais próximo seguido dos vértices
// posteriores ao segmento. Se o ponto coincide com o fim do segmento (t == 1) esse vértice não é repetido.
func SliceRemaining(points []Point, c Closest) []Point {
	if len(points) == 0 || c.SegmentIndex < 0 || c.SegmentIndex >= len(points) {
		return nil
	}
	next := c.SegmentIndex + 1
	if c.T >= 1 {
		next++
	}
	if next > len(points) {
		next = len(points)
	}
	out := make([]Point, 0, 1+len(points)-next)
	out = append(out, c.Point)
	out = append(out, points[next:]...)
	return out
}

// SliceTraveled devolve o trecho já percorrido: vértices até o início do segmento mais o ponto mais próximo.
func SliceTraveled(points []Point, c Closest) []Point {
	if len(points) == 0 || c.SegmentIndex < 0 || c.SegmentIndex >= len(points) {
		return nil
	}
	end := c.SegmentIndex + 1
	if c.T <= 0 {
		end = c.SegmentIndex
	}
	out := make([]Point, 0, end+1)
	out = append(out, points[:end]...)
	out = append(out, c.Point)
	return out
}

// DistanceKm é a distância aproximada (Terra plana) entre dois pontos lon/lat.
// Válida para as escalas curtas de pátio e rota urbana.
func DistanceKm(a, b Point) float64 {
	avgLat := (a.Y + b.Y) / 2 * math.Pi / 180
	dx := (b.X - a.X) * math.Cos(avgLat)
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx+dy*dy) * KmPerDegree
}

// ApproxLength soma os segmentos da polilinha com DistanceKm.
// Não é geodesicamente exato; para rotas longas use GeodesicLength.
func ApproxLength(poly []Point) float64 {
	total := 0.0
	for i := 1; i < len(poly); i++ {
		total += DistanceKm(poly[i-1], poly[i])
	}
	return total
}

// HaversineKm é a distância de grande círculo entre dois pontos lon/lat.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Y * math.Pi / 180
	lat2 := b.Y * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.X - a.X) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// GeodesicLength soma os segmentos da polilinha com HaversineKm.
func GeodesicLength(poly []Point) float64 {
	total := 0.0
	for i := 1; i < len(poly); i++ {
		total += HaversineKm(poly[i-1], poly[i])
	}
	return total
}

// ExtentKm é a diagonal (aproximada) da caixa envolvente da polilinha.
func ExtentKm(poly []Point) float64 {
	if len(poly) == 0 {
		return 0
	}
	minP, maxP := poly[0], poly[0]
	for _, p := range poly[1:] {
		minP.X = math.Min(minP.X, p.X)
		minP.Y = math.Min(minP.Y, p.Y)
		maxP.X = math.Max(maxP.X, p.X)
		maxP.Y = math.Max(maxP.Y, p.Y)
	}
	return DistanceKm(minP, maxP)
}

func distSq(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Package navigation acompanha um veículo ao longo de uma rota: projeta cada posição na
// polilinha, calcula o trecho restante e detecta quando o veículo sai da rota.
package navigation

import (
	"encoding/json"
	"errors"
	"fmt"

	"YardVision/cliente/internal/geometry"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

var (
	// ErrRouteUnavailable indica rota ausente ou com menos de 2 pontos.
	ErrRouteUnavailable = errors.New("rota indisponível")
	// ErrGPSUnavailable indica que a posição ao vivo foi negada ou falhou.
	ErrGPSUnavailable = errors.New("gps indisponível")
)

// Route é a sequência (lon, lat) de uma sessão de navegação. Não muda depois de carregada.
type Route struct {
	Points []geometry.Point
}

// Valid indica se a rota tem ao menos um segmento.
func (r Route) Valid() bool { return len(r.Points) >= 2 }

// LengthKm devolve o comprimento aproximado da rota.
func (r Route) LengthKm() float64 { return geometry.ApproxLength(r.Points) }

// LoadRouteGeoJSON lê a rota de um FeatureCollection, de um Feature ou de uma geometria
// solta. Vale a primeira LineString ou MultiLineString; multi-linhas são concatenadas em ordem.
// Features sem "type", com geometria nula ou ilegível são puladas.
func LoadRouteGeoJSON(data []byte) (Route, error) {
	var doc struct {
		Type     string          `json:"type"`
		Geometry json.RawMessage `json:"geometry"`
		Features []struct {
			Geometry json.RawMessage `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Route{}, fmt.Errorf("geojson: %w", err)
	}

	var raws []json.RawMessage
	switch {
	case doc.Type == "FeatureCollection" || (doc.Type == "" && doc.Features != nil):
		for _, f := range doc.Features {
			raws = append(raws, f.Geometry)
		}
	case doc.Type == "Feature":
		raws = append(raws, doc.Geometry)
	default:
		raws = append(raws, data)
	}

	for _, raw := range raws {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		// Sem validação: [[0,0],[0,0]] ainda é uma rota de 2 pontos.
		g, err := geom.UnmarshalGeoJSON(raw, geom.DisableAllValidations)
		if err != nil {
			continue
		}
		if pts, ok := linePoints(g); ok {
			return Route{Points: pts}, nil
		}
	}
	return Route{}, fmt.Errorf("%w: nenhuma LineString", ErrRouteUnavailable)
}

func linePoints(g geom.Geometry) ([]geometry.Point, bool) {
	switch g.Type() {
	case geom.TypeLineString:
		return appendSequence(nil, g.MustAsLineString().Coordinates()), true
	case geom.TypeMultiLineString:
		mls := g.MustAsMultiLineString()
		var pts []geometry.Point
		for i := 0; i < mls.NumLineStrings(); i++ {
			pts = appendSequence(pts, mls.LineStringN(i).Coordinates())
		}
		return pts, true
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		for i := 0; i < gc.NumGeometries(); i++ {
			if pts, ok := linePoints(gc.GeometryN(i)); ok {
				return pts, true
			}
		}
	}
	return nil, false
}

func appendSequence(dst []geometry.Point, seq geom.Sequence) []geometry.Point {
	for i := 0; i < seq.Length(); i++ {
		xy := seq.GetXY(i)
		dst = append(dst, geometry.Point{X: xy.X, Y: xy.Y})
	}
	return dst
}

// Projector converte lon/lat para Web Mercator (EPSG:3857), em metros.
type Projector struct {
	f func(a, b, c float64) (float64, float64, float64)
}

// NewProjector cria a projeção 4326 -> 3857.
func NewProjector() Projector {
	return Projector{f: wgs84.EPSG().Transform(4326, 3857)}
}

// Project projeta um ponto.
func (p Projector) Project(pt geometry.Point) (x, y float64) {
	x, y, _ = p.f(pt.X, pt.Y, 0)
	return x, y
}

// ProjectLine projeta uma polilinha.
func (p Projector) ProjectLine(pts []geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	for i, pt := range pts {
		x, y := p.Project(pt)
		out[i] = geometry.Point{X: x, Y: y}
	}
	return out
}

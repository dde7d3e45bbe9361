package navigation

import (
	"context"
	"fmt"
	"sync"

	"YardVision/cliente/internal/geometry"
	"YardVision/shared/telemetry"

	"github.com/rs/zerolog"
)

// Status é o estado exibido pelo overlay.
type Status int

const (
	StatusIdle Status = iota
	StatusTracking
	StatusRouteUnavailable
	StatusGPSUnavailable
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusTracking:
		return "tracking"
	case StatusRouteUnavailable:
		return "route unavailable"
	case StatusGPSUnavailable:
		return "gps unavailable"
	case StatusStopped:
		return "stopped"
	}
	return "idle"
}

// Message devolve o texto para o HUD.
func (s Status) Message() string {
	switch s {
	case StatusTracking:
		return "Navegando"
	case StatusRouteUnavailable:
		return "Rota indisponível"
	case StatusGPSUnavailable:
		return "GPS indisponível"
	case StatusStopped:
		return "Navegação parada"
	}
	return "Aguardando posição"
}

// DefaultOffRouteKm é a distância a partir da qual o veículo está fora da rota (150 m).
const DefaultOffRouteKm = 0.15

// DefaultMaxFlatExtentKm é a extensão acima da qual as distâncias usam haversine.
const DefaultMaxFlatExtentKm = 25.0

// State é o retrato do overlay depois da última posição.
type State struct {
	Status      Status
	Running     bool
	HasFix      bool
	Position    geometry.Point
	Closest     geometry.Closest
	DistanceKm  float64
	OffRoute    bool
	RemainingKm float64
	TraveledKm  float64
	Remaining   []geometry.Point
	Traveled    []geometry.Point
}

// View é o enquadramento 2D em Web Mercator. Zoom em metros por pixel.
type View struct {
	CenterX, CenterY float64
	Zoom             float64
}

// ToScreen leva um ponto em metros Web Mercator para pixels de uma área w x h
// centrada na vista. Y da tela cresce para baixo.
func (v View) ToScreen(x, y float64, w, h float32) (float32, float32) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	sx := float64(w)/2 + (x-v.CenterX)/zoom
	sy := float64(h)/2 - (y-v.CenterY)/zoom
	return float32(sx), float32(sy)
}

// Options ajusta os limiares.
type Options struct {
	OffRouteKm      float64
	MaxFlatExtentKm float64
}

// Overlay consome a rota e as posições e mantém o State. Update e Poll rodam no
// loop de frames; as posições do Locator chegam por uma goroutine e esperam em pending.
type Overlay struct {
	opts      Options
	locator   Locator
	projector Projector
	geodesic  bool

	route Route
	state State
	view  View

	mu      sync.Mutex
	cancel  context.CancelFunc
	gen     int
	pending *Fix

	// OnState é chamado a cada mudança de estado (no loop de frames).
	OnState func(State)

	log     zerolog.Logger
	metrics *telemetry.Counters
}

// New cria o overlay ocioso.
func New(loc Locator, opts Options, log zerolog.Logger, metrics *telemetry.Counters) *Overlay {
	if opts.OffRouteKm <= 0 {
		opts.OffRouteKm = DefaultOffRouteKm
	}
	if opts.MaxFlatExtentKm <= 0 {
		opts.MaxFlatExtentKm = DefaultMaxFlatExtentKm
	}
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	return &Overlay{
		opts:      opts,
		locator:   loc,
		projector: NewProjector(),
		state:     State{Status: StatusRouteUnavailable},
		log:       log,
		metrics:   metrics,
	}
}

// LoadRoute troca a rota. Rota com menos de 2 pontos deixa o overlay em "rota indisponível".
func (o *Overlay) LoadRoute(r Route) error {
	o.route = Route{Points: append([]geometry.Point(nil), r.Points...)}
	running := o.state.Running
	o.state = State{Running: running}

	if !o.route.Valid() {
		o.state.Status = StatusRouteUnavailable
		o.emit()
		o.log.Warn().Int("points", len(r.Points)).Msg("Rota inválida")
		return ErrRouteUnavailable
	}

	extent := geometry.ExtentKm(o.route.Points)
	o.geodesic = extent > o.opts.MaxFlatExtentKm
	o.state.Status = StatusIdle
	if running {
		o.state.Status = StatusTracking
	}
	o.state.Remaining = o.route.Points
	o.state.RemainingKm = o.lengthKm(o.route.Points)
	o.fitView()
	o.emit()
	o.log.Info().Int("points", len(o.route.Points)).Float64("km", o.state.RemainingKm).Bool("geodesic", o.geodesic).Msg("Rota carregada")
	return nil
}

// LoadRouteGeoJSON lê e carrega a rota. Erro de leitura também deixa "rota indisponível".
func (o *Overlay) LoadRouteGeoJSON(data []byte) error {
	r, err := LoadRouteGeoJSON(data)
	if err != nil {
		o.route = Route{}
		o.state = State{Status: StatusRouteUnavailable, Running: o.state.Running}
		o.emit()
		o.log.Warn().Err(err).Msg("GeoJSON da rota rejeitado")
		return err
	}
	return o.LoadRoute(r)
}

// Route devolve a rota carregada.
func (o *Overlay) Route() Route { return o.route }

// Geodesic indica se a rota é longa o bastante para usar haversine.
func (o *Overlay) Geodesic() bool { return o.geodesic }

// Start começa a vigiar a posição. Chamadas repetidas sem Stop não abrem outra vigia.
// Falha do Locator deixa o overlay em "gps indisponível", com a rota ainda visível.
func (o *Overlay) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.cancel != nil {
		o.mu.Unlock()
		return nil
	}
	wctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.gen++
	gen := o.gen
	o.mu.Unlock()

	if o.locator == nil {
		o.abortWatch(gen)
		o.state.Status = StatusGPSUnavailable
		o.emit()
		return ErrGPSUnavailable
	}
	fixes, err := o.locator.Watch(wctx)
	if err != nil {
		o.abortWatch(gen)
		o.state.Running = false
		o.state.Status = StatusGPSUnavailable
		o.emit()
		o.log.Warn().Err(err).Msg("Posição ao vivo indisponível")
		return fmt.Errorf("%w: %v", ErrGPSUnavailable, err)
	}

	go o.pump(gen, fixes)
	o.state.Running = true
	if o.route.Valid() {
		o.state.Status = StatusTracking
	}
	o.emit()
	o.log.Info().Msg("Navegação iniciada")
	return nil
}

func (o *Overlay) abortWatch(gen int) {
	o.mu.Lock()
	if o.gen == gen && o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()
}

// pump guarda só a posição mais recente; Poll a aplica no próximo frame.
func (o *Overlay) pump(gen int, fixes <-chan Fix) {
	for f := range fixes {
		o.mu.Lock()
		if o.gen != gen || o.cancel == nil {
			o.mu.Unlock()
			continue
		}
		fix := f
		o.pending = &fix
		o.mu.Unlock()
	}
}

// Stop cancela a vigia e congela o último estado.
func (o *Overlay) Stop() {
	o.mu.Lock()
	if o.cancel == nil {
		o.mu.Unlock()
		return
	}
	o.cancel()
	o.cancel = nil
	o.gen++
	o.pending = nil
	o.mu.Unlock()

	o.state.Running = false
	if o.state.Status == StatusTracking || o.state.Status == StatusIdle {
		o.state.Status = StatusStopped
	}
	o.emit()
	o.log.Info().Float64("remaining_km", o.state.RemainingKm).Msg("Navegação parada")
}

// Running indica se há uma vigia ativa.
func (o *Overlay) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancel != nil
}

// Poll aplica a posição pendente, se houver. Chamado uma vez por frame.
func (o *Overlay) Poll() bool {
	o.mu.Lock()
	f := o.pending
	o.pending = nil
	o.mu.Unlock()
	if f == nil {
		return false
	}
	o.Update(*f)
	return true
}

// Update processa uma posição: ponto mais próximo, fora da rota, trecho restante e
// percorrido, e recentraliza a vista sem mexer no zoom. Parado, o estado fica congelado.
func (o *Overlay) Update(f Fix) State {
	if o.state.Status == StatusStopped {
		return o.State()
	}
	telemetry.Inc(o.metrics.NavigationFixes)
	pos := f.Point()
	o.state.HasFix = true
	o.state.Position = pos

	closest, ok := geometry.ClosestOnPolyline(o.route.Points, pos)
	if !ok {
		o.state.Status = StatusRouteUnavailable
		o.state.Remaining, o.state.Traveled = nil, nil
		o.emit()
		return o.State()
	}

	o.state.Status = StatusTracking
	o.state.Closest = closest
	o.state.DistanceKm = o.distanceKm(closest.Point, pos)
	o.state.OffRoute = o.state.DistanceKm > o.opts.OffRouteKm
	o.state.Remaining = geometry.SliceRemaining(o.route.Points, closest)
	o.state.Traveled = geometry.SliceTraveled(o.route.Points, closest)
	o.state.RemainingKm = o.lengthKm(o.state.Remaining)
	o.state.TraveledKm = o.lengthKm(o.state.Traveled)

	o.view.CenterX, o.view.CenterY = o.projector.Project(pos)
	o.emit()
	return o.State()
}

func (o *Overlay) distanceKm(a, b geometry.Point) float64 {
	if o.geodesic {
		return geometry.HaversineKm(a, b)
	}
	return geometry.DistanceKm(a, b)
}

func (o *Overlay) lengthKm(pts []geometry.Point) float64 {
	if o.geodesic {
		return geometry.GeodesicLength(pts)
	}
	return geometry.ApproxLength(pts)
}

// State devolve uma cópia do estado atual.
func (o *Overlay) State() State {
	s := o.state
	s.Remaining = append([]geometry.Point(nil), s.Remaining...)
	s.Traveled = append([]geometry.Point(nil), s.Traveled...)
	return s
}

// View devolve o enquadramento atual.
func (o *Overlay) View() View { return o.view }

// Projector devolve a projeção usada pela vista.
func (o *Overlay) Projector() Projector { return o.projector }

// fitView centraliza na rota e escolhe o zoom para ela caber em ~800 px. Só na carga.
func (o *Overlay) fitView() {
	pts := o.projector.ProjectLine(o.route.Points)
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	o.view.CenterX = (minX + maxX) / 2
	o.view.CenterY = (minY + maxY) / 2
	o.view.Zoom = max(max(maxX-minX, maxY-minY)/800, 0.5)
}

func (o *Overlay) emit() {
	if o.OnState != nil {
		o.OnState(o.State())
	}
}

package navigation

import (
	"context"
	"sync"
	"time"

	"YardVision/cliente/internal/geometry"
)

// Fix é uma posição recebida do GPS.
type Fix struct {
	Lon      float64   `json:"lon"`
	Lat      float64   `json:"lat"`
	Accuracy float64   `json:"accuracy,omitempty"`
	At       time.Time `json:"-"`
}

// Point devolve a posição como ponto lon/lat.
func (f Fix) Point() geometry.Point { return geometry.Point{X: f.Lon, Y: f.Lat} }

// Locator entrega posições ao vivo. Watch pede a permissão (pode demorar) e devolve um
// canal que fecha quando ctx termina. Erro em Watch significa permissão negada ou GPS ausente.
type Locator interface {
	Watch(ctx context.Context) (<-chan Fix, error)
}

// FeedLocator recebe posições empurradas de fora (a camada de negócio, pela ponte).
type FeedLocator struct {
	mu       sync.Mutex
	watchers map[chan Fix]struct{}
	denied   error
}

// NewFeedLocator cria um FeedLocator sem inscritos.
func NewFeedLocator() *FeedLocator {
	return &FeedLocator{watchers: make(map[chan Fix]struct{})}
}

// Deny faz os próximos Watch falharem com err (nil libera).
func (l *FeedLocator) Deny(err error) {
	l.mu.Lock()
	l.denied = err
	l.mu.Unlock()
}

// Watch inscreve um novo consumidor.
func (l *FeedLocator) Watch(ctx context.Context) (<-chan Fix, error) {
	l.mu.Lock()
	if l.denied != nil {
		err := l.denied
		l.mu.Unlock()
		return nil, err
	}
	ch := make(chan Fix, 16)
	l.watchers[ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.watchers, ch)
		close(ch)
		l.mu.Unlock()
	}()
	return ch, nil
}

// Push entrega f a todos os inscritos. Consumidor lento perde a posição mais antiga.
func (l *FeedLocator) Push(f Fix) {
	if f.At.IsZero() {
		f.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.watchers {
		select {
		case ch <- f:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
			}
		}
	}
}

// Watchers devolve quantos consumidores estão inscritos.
func (l *FeedLocator) Watchers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.watchers)
}

// SimulatedLocator percorre a rota a uma velocidade fixa (demonstração e testes).
type SimulatedLocator struct {
	Route    Route
	SpeedKmh float64
	Interval time.Duration
}

// Watch começa a emitir posições ao longo da rota até o fim dela ou de ctx.
func (s SimulatedLocator) Watch(ctx context.Context) (<-chan Fix, error) {
	if !s.Route.Valid() {
		return nil, ErrRouteUnavailable
	}
	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	speed := s.SpeedKmh
	if speed <= 0 {
		speed = 30
	}
	stepKm := speed * interval.Hours()

	ch := make(chan Fix)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		total := s.Route.LengthKm()
		for traveled := 0.0; ; traveled += stepKm {
			p := PointAlong(s.Route.Points, min(traveled, total))
			select {
			case ch <- Fix{Lon: p.X, Lat: p.Y, Accuracy: 5, At: time.Now()}:
			case <-ctx.Done():
				return
			}
			if traveled >= total {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// PointAlong devolve o ponto a km quilômetros do início da polilinha.
func PointAlong(pts []geometry.Point, km float64) geometry.Point {
	if len(pts) == 0 {
		return geometry.Point{}
	}
	for i := 1; i < len(pts); i++ {
		seg := geometry.DistanceKm(pts[i-1], pts[i])
		if km <= seg && seg > 0 {
			t := km / seg
			return geometry.Point{
				X: pts[i-1].X + (pts[i].X-pts[i-1].X)*t,
				Y: pts[i-1].Y + (pts[i].Y-pts[i-1].Y)*t,
			}
		}
		km -= seg
	}
	return pts[len(pts)-1]
}

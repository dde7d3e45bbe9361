package navigation

import (
	"context"
	"errors"
	"testing"
	"time"

	"YardVision/cliente/internal/geometry"
	"YardVision/shared/telemetry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var northSouth = Route{Points: []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 0.001}}}

func newOverlay(t *testing.T, loc Locator) *Overlay {
	t.Helper()
	o := New(loc, Options{}, zerolog.Nop(), telemetry.Nop())
	t.Cleanup(o.Stop)
	return o
}

func TestUpdateNearMidpoint(t *testing.T) {
	o := newOverlay(t, nil)
	require.NoError(t, o.LoadRoute(northSouth))

	st := o.Update(Fix{Lon: 0.0005, Lat: 0.0006})
	assert.Equal(t, StatusTracking, st.Status)
	assert.Equal(t, 0, st.Closest.SegmentIndex)
	assert.InDelta(t, 0.6, st.Closest.T, 1e-9)
	assert.False(t, st.OffRoute)
	assert.InDelta(t, 0.0005*geometry.KmPerDegree, st.DistanceKm, 1e-6)
	assert.InDelta(t, 0.0004*geometry.KmPerDegree, st.RemainingKm, 1e-6)
	assert.InDelta(t, 0.0006*geometry.KmPerDegree, st.TraveledKm, 1e-6)

	require.Len(t, st.Remaining, 2)
	assert.InDelta(t, 0.0006, st.Remaining[0].Y, 1e-12)
	assert.Equal(t, northSouth.Points[1], st.Remaining[1])
	require.Len(t, st.Traveled, 2)
	assert.Equal(t, northSouth.Points[0], st.Traveled[0])
}

func TestOffRouteThreshold(t *testing.T) {
	tests := []struct {
		name string
		lon  float64
		want bool
	}{
		{"on route", 0.0001, false},
		{"just inside", 0.0013, false},
		{"outside", 0.0014, true},
		{"far", 0.01, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOverlay(t, nil)
			require.NoError(t, o.LoadRoute(northSouth))
			assert.Equal(t, tt.want, o.Update(Fix{Lon: tt.lon, Lat: 0.0005}).OffRoute)
		})
	}
}

func TestShortRouteIsUnavailable(t *testing.T) {
	o := newOverlay(t, nil)
	var states []State
	o.OnState = func(s State) { states = append(states, s) }

	err := o.LoadRoute(Route{Points: []geometry.Point{{X: 1, Y: 1}}})
	assert.ErrorIs(t, err, ErrRouteUnavailable)
	assert.Equal(t, StatusRouteUnavailable, o.State().Status)

	var st State
	assert.NotPanics(t, func() { st = o.Update(Fix{Lon: 1, Lat: 1}) })
	assert.Equal(t, StatusRouteUnavailable, st.Status)
	assert.Empty(t, st.Remaining)
	assert.Len(t, states, 2)
	assert.Equal(t, "Rota indisponível", st.Status.Message())
}

func TestViewRecentersWithoutZoom(t *testing.T) {
	o := newOverlay(t, nil)
	require.NoError(t, o.LoadRoute(northSouth))
	zoom := o.View().Zoom
	require.Positive(t, zoom)

	o.Update(Fix{Lon: 0.0002, Lat: 0.0009})
	v := o.View()
	x, y := o.Projector().Project(geometry.Point{X: 0.0002, Y: 0.0009})
	assert.Equal(t, zoom, v.Zoom)
	assert.InDelta(t, x, v.CenterX, 1e-6)
	assert.InDelta(t, y, v.CenterY, 1e-6)
}

func TestViewToScreen(t *testing.T) {
	v := View{CenterX: 1000, CenterY: 500, Zoom: 2}

	x, y := v.ToScreen(1000, 500, 800, 600)
	assert.Equal(t, float32(400), x)
	assert.Equal(t, float32(300), y)

	x, y = v.ToScreen(1200, 700, 800, 600)
	assert.Equal(t, float32(500), x)
	assert.Equal(t, float32(200), y, "norte fica para cima")
}

func TestProjectorWebMercator(t *testing.T) {
	p := NewProjector()
	x, y := p.Project(geometry.Point{})
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, _ = p.Project(geometry.Point{X: 1})
	assert.InDelta(t, 111319.49, x, 1)
}

func TestLongRouteUsesHaversine(t *testing.T) {
	o := newOverlay(t, nil)
	long := Route{Points: []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}}
	require.NoError(t, o.LoadRoute(long))
	assert.True(t, o.Geodesic())
	assert.InDelta(t, geometry.HaversineKm(long.Points[0], long.Points[1]), o.State().RemainingKm, 1e-9)

	require.NoError(t, o.LoadRoute(northSouth))
	assert.False(t, o.Geodesic())
}

func TestLoadRouteGeoJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    []geometry.Point
		wantErr error
	}{
		{
			name: "feature collection skips points and flattens multilines",
			doc: `{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[9,9]}},
				{"type":"Feature","properties":{"nome":"rota"},"geometry":{"type":"MultiLineString","coordinates":[[[0,0],[0,1]],[[0,2],[1,2]]]}},
				{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[5,5],[6,6]]}}]}`,
			want: []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}, {X: 1, Y: 2}},
		},
		{
			name: "single feature",
			doc:  `{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[-46.3,-23.9],[-46.31,-23.95]]}}`,
			want: []geometry.Point{{X: -46.3, Y: -23.9}, {X: -46.31, Y: -23.95}},
		},
		{
			name: "bare geometry",
			doc:  `{"type":"LineString","coordinates":[[1,2],[3,4],[5,6]]}`,
			want: []geometry.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}},
		},
		{
			name: "features without type",
			doc:  `{"type":"FeatureCollection","features":[{"geometry":{"type":"LineString","coordinates":[[0,0],[0,0.001]]}}]}`,
			want: []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 0.001}},
		},
		{
			name: "null geometry before the line",
			doc: `{"type":"FeatureCollection","features":[
				{"type":"Feature","properties":{},"geometry":null},
				{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[1,1],[2,2]]}}]}`,
			want: []geometry.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
		},
		{
			name: "self intersecting polygon before the line",
			doc: `{"type":"FeatureCollection","features":[
				{"geometry":{"type":"Polygon","coordinates":[[[0,0],[2,2],[2,0],[0,2],[0,0]]]}},
				{"geometry":{"type":"LineString","coordinates":[[3,3],[4,4]]}}]}`,
			want: []geometry.Point{{X: 3, Y: 3}, {X: 4, Y: 4}},
		},
		{
			name: "two identical points",
			doc:  `{"type":"FeatureCollection","features":[{"geometry":{"type":"LineString","coordinates":[[0,0],[0,0]]}}]}`,
			want: []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 0}},
		},
		{
			name:    "no lines",
			doc:     `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,1]}}]}`,
			wantErr: ErrRouteUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := LoadRouteGeoJSON([]byte(tt.doc))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Points)
		})
	}

	_, err := LoadRouteGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestOverlayRejectsBadGeoJSON(t *testing.T) {
	o := newOverlay(t, nil)
	require.NoError(t, o.LoadRoute(northSouth))
	assert.Error(t, o.LoadRouteGeoJSON([]byte(`{"type":"Point","coordinates":[1,1]}`)))
	assert.Equal(t, StatusRouteUnavailable, o.State().Status)
	assert.False(t, o.Route().Valid())
}

func TestStartIsIdempotent(t *testing.T) {
	feed := NewFeedLocator()
	o := newOverlay(t, feed)
	require.NoError(t, o.LoadRoute(northSouth))

	require.NoError(t, o.Start(context.Background()))
	require.NoError(t, o.Start(context.Background()))
	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, 1, feed.Watchers())
	assert.True(t, o.Running())
	assert.Equal(t, StatusTracking, o.State().Status)

	o.Stop()
	assert.False(t, o.Running())
	assert.Eventually(t, func() bool { return feed.Watchers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestFixesFlowThroughPoll(t *testing.T) {
	feed := NewFeedLocator()
	o := newOverlay(t, feed)
	require.NoError(t, o.LoadRoute(northSouth))
	require.NoError(t, o.Start(context.Background()))
	assert.False(t, o.Poll())

	feed.Push(Fix{Lon: 0.0005, Lat: 0.0006})
	assert.Eventually(t, o.Poll, time.Second, time.Millisecond)
	st := o.State()
	assert.True(t, st.HasFix)
	assert.InDelta(t, 0.6, st.Closest.T, 1e-9)
}

func TestStopFreezesState(t *testing.T) {
	feed := NewFeedLocator()
	o := newOverlay(t, feed)
	require.NoError(t, o.LoadRoute(northSouth))
	require.NoError(t, o.Start(context.Background()))
	o.Update(Fix{Lon: 0, Lat: 0.0003})
	before := o.State()

	o.Stop()
	o.Stop()
	st := o.State()
	assert.Equal(t, StatusStopped, st.Status)
	assert.False(t, st.Running)
	assert.Equal(t, before.RemainingKm, st.RemainingKm)
	assert.Equal(t, before.Remaining, st.Remaining)

	st = o.Update(Fix{Lon: 0, Lat: 0.0009})
	assert.Equal(t, before.RemainingKm, st.RemainingKm)
	assert.False(t, o.Poll())

	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, StatusTracking, o.State().Status)
}

func TestDeniedPermission(t *testing.T) {
	feed := NewFeedLocator()
	feed.Deny(errors.New("permissão negada"))
	o := newOverlay(t, feed)
	require.NoError(t, o.LoadRoute(northSouth))

	err := o.Start(context.Background())
	assert.ErrorIs(t, err, ErrGPSUnavailable)
	st := o.State()
	assert.Equal(t, StatusGPSUnavailable, st.Status)
	assert.False(t, st.Running)
	assert.False(t, o.Running())
	assert.Equal(t, northSouth.Points, st.Remaining, "rota estática continua visível")

	feed.Deny(nil)
	require.NoError(t, o.Start(context.Background()))
	assert.Equal(t, 1, feed.Watchers())

	assert.ErrorIs(t, newOverlay(t, nil).Start(context.Background()), ErrGPSUnavailable)
}

func TestSimulatedLocatorReachesEnd(t *testing.T) {
	sim := SimulatedLocator{Route: northSouth, SpeedKmh: 36000, Interval: time.Millisecond}
	ch, err := sim.Watch(context.Background())
	require.NoError(t, err)

	var fixes []Fix
	for f := range ch {
		fixes = append(fixes, f)
	}
	require.GreaterOrEqual(t, len(fixes), 2)
	assert.Equal(t, northSouth.Points[0], fixes[0].Point())
	assert.Equal(t, northSouth.Points[1], fixes[len(fixes)-1].Point())

	_, err = SimulatedLocator{}.Watch(context.Background())
	assert.ErrorIs(t, err, ErrRouteUnavailable)
}

func TestPointAlong(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 0, Y: 0.001}, {X: 0.001, Y: 0.001}}
	seg := geometry.DistanceKm(pts[0], pts[1])

	assert.Equal(t, pts[0], PointAlong(pts, 0))
	assert.InDelta(t, 0.0005, PointAlong(pts, seg/2).Y, 1e-12)
	assert.Equal(t, pts[2], PointAlong(pts, 10))
	assert.Equal(t, geometry.Point{}, PointAlong(nil, 1))
}

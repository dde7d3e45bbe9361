package client

import (
	"encoding/json"
	"testing"
	"time"

	"YardVision/cliente/internal/containers"
	"YardVision/cliente/internal/navigation"
	"YardVision/cliente/internal/world"
	"YardVision/shared/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryRecords(t *testing.T) {
	env, err := protocol.NewEnvelope(protocol.TypeInventoryRefresh, []protocol.InventoryItem{
		{ID: "c1", Matricula: "MSCU1234567", Tipo: "40HC", Posicion: "A-03-2", Estado: "defectuoso"},
		{ID: "", Matricula: "sem id"},
		{ID: "c2", Tipo: "20DV", Posicion: "B-01-1", Estado: "programado"},
	})
	require.NoError(t, err)

	recs, err := InventoryRecords(env)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "c1", recs[0].ID)
	assert.Equal(t, "A-03-2", recs[0].PositionCode)
	assert.Equal(t, containers.SourceDefective, recs[0].Source)
	assert.Equal(t, containers.SourceScheduled, recs[1].Source)

	_, err = InventoryRecords(protocol.Envelope{Type: protocol.TypeInventoryRefresh, Payload: json.RawMessage(`{"id":1}`)})
	assert.Error(t, err)
}

func TestPositionFix(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env, _ := protocol.NewEnvelope(protocol.TypePositionFix, protocol.PositionFix{Lon: -58.4, Lat: -34.6, Accuracy: 8})

	fix, err := PositionFix(env, now)
	require.NoError(t, err)
	assert.Equal(t, navigation.Fix{Lon: -58.4, Lat: -34.6, Accuracy: 8, At: now}, fix)

	_, err = PositionFix(protocol.Envelope{Type: protocol.TypePositionFix}, now)
	assert.Error(t, err)
}

func TestSelectionPayload(t *testing.T) {
	assert.Nil(t, SelectionPayload(nil))

	env, err := protocol.NewEnvelope(protocol.TypeContainerSelected, SelectionPayload(nil))
	require.NoError(t, err)
	assert.True(t, env.IsNull())

	sel := &containers.Selection{Record: containers.Record{
		ID: "c1", Matricula: "MSCU1234567", Type: "40HC", PositionCode: "A-03-2", Source: containers.SourceInYard,
	}}
	got, ok := SelectionPayload(sel).(protocol.InventoryItem)
	require.True(t, ok)
	assert.Equal(t, protocol.InventoryItem{
		ID: "c1", Matricula: "MSCU1234567", Tipo: "40HC", Posicion: "A-03-2", Estado: "in-yard",
	}, got)
}

func TestCommittedAndNavigationPayloads(t *testing.T) {
	p := world.PropInstance{
		ID:        "p1",
		Type:      "road.segment",
		Position:  world.Vec3{X: 3, Z: 8},
		RotationY: 1.5,
		Scale:     world.One,
		Params:    map[string]any{"length": 10.0},
	}
	c := CommittedPayload(p)
	assert.Equal(t, "p1", c.ID)
	assert.Equal(t, protocol.Vec3{X: 3, Z: 8}, c.Position)
	assert.Equal(t, protocol.Vec3{X: 1, Y: 1, Z: 1}, c.Scale)
	assert.Equal(t, 10.0, c.Params["length"])

	n := NavigationPayload(navigation.State{Status: navigation.StatusTracking, Running: true, RemainingKm: 2.5, OffRoute: true})
	assert.Equal(t, protocol.NavigationState{RemainingKm: 2.5, OffRoute: true, Running: true, Status: "tracking"}, n)
}

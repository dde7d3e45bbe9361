package protocol

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecsCarryEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypePropCommitted, PropCommitted{
		ID:        "p1",
		Type:      "road.segment",
		Position:  Vec3{X: 3, Z: 8},
		RotationY: 1.5708,
		Scale:     Vec3{X: 1, Y: 1, Z: 1},
		Params:    map[string]any{"length": 8.0, "lanes": []any{"a", "b"}},
	})
	require.NoError(t, err)

	for _, name := range []string{"json", "proto"} {
		t.Run(name, func(t *testing.T) {
			c, err := CodecByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, c.Name())

			data, err := c.Encode(env)
			require.NoError(t, err)
			got, err := c.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, TypePropCommitted, got.Type)

			var p PropCommitted
			require.NoError(t, got.Decode(&p))
			assert.Equal(t, "p1", p.ID)
			assert.Equal(t, Vec3{X: 3, Z: 8}, p.Position)
			assert.InDelta(t, 1.5708, p.RotationY, 1e-12)
			assert.Equal(t, 8.0, p.Params["length"])
			assert.Equal(t, []any{"a", "b"}, p.Params["lanes"])
		})
	}
}

func TestNullPayload(t *testing.T) {
	env, err := NewEnvelope(TypeContainerSelected, nil)
	require.NoError(t, err)
	assert.True(t, env.IsNull())

	for _, c := range []Codec{JSONCodec{}, ProtoCodec{}} {
		data, err := c.Encode(env)
		require.NoError(t, err)
		got, err := c.Decode(data)
		require.NoError(t, err)
		assert.True(t, got.IsNull(), c.Name())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := JSONCodec{}.Decode([]byte(`{"payload":1}`))
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = JSONCodec{}.Decode([]byte(`{`))
	assert.Error(t, err)
	_, err = ProtoCodec{}.Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)

	var v struct{}
	assert.Error(t, Envelope{Type: "x"}.Decode(&v))

	_, err = CodecByName("xml")
	assert.Error(t, err)
}

func TestCodecFor(t *testing.T) {
	assert.Equal(t, "proto", CodecFor(websocket.BinaryMessage).Name())
	assert.Equal(t, "json", CodecFor(websocket.TextMessage).Name())
	assert.Equal(t, websocket.BinaryMessage, ProtoCodec{}.MessageType())
}

func TestDirections(t *testing.T) {
	assert.True(t, Inbound(TypeInventoryRefresh))
	assert.False(t, Inbound(TypePropRemoved))
	assert.True(t, Outbound(TypeNavigationState))
	assert.False(t, Outbound(TypePing))
}

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		typ     string
		payload string
		ok      bool
	}{
		{TypeInventoryRefresh, `[{"id":"c1","matricula":"MSCU1234567","tipo":"40HC","posicion":"B-07-2","estado":"en patio"}]`, true},
		{TypeInventoryRefresh, `[]`, true},
		{TypeInventoryRefresh, `[{"matricula":"x"}]`, false},
		{TypeInventoryRefresh, `{"id":"c1"}`, false},
		{TypeRouteLoad, `{"type":"FeatureCollection","features":[]}`, true},
		{TypeRouteLoad, `{"type":"Point","coordinates":[0,0]}`, false},
		{TypePositionFix, `{"lon":-46.3,"lat":-23.9,"accuracy":4}`, true},
		{TypePositionFix, `{"lon":200,"lat":0}`, false},
		{TypePositionFix, `{"lat":0}`, false},
		{TypePositionFix, `nope`, false},
	}
	for _, tt := range tests {
		err := v.Validate(tt.typ, []byte(tt.payload))
		if tt.ok {
			assert.NoError(t, err, tt.payload)
		} else {
			assert.Error(t, err, tt.payload)
		}
	}

	assert.ErrorIs(t, v.Validate(TypePropRemoved, []byte(`{}`)), ErrUnknownType)
}

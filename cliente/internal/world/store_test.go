package world

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2026, 3, 14, 9, 30, 0, 123456789, time.FixedZone("BRT", -3*3600))
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("prop-%03d", n)
	}
}

func openTestStore(t *testing.T, b Backend) *Store {
	t.Helper()
	s, err := Open(context.Background(), b, zerolog.Nop(), WithClock(fixedClock()), WithIDGenerator(seqIDs()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAssignsIDAndTimestamp(t *testing.T) {
	s, err := Open(context.Background(), NewMemoryBackend(), zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	p, err := s.Add(PropDraft{Type: "road.segment", Position: Vec3{3, 0, 8}})
	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, One, p.Scale)
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
}

func TestMutationsNotifySynchronously(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())

	var got []Change
	unsub := s.Subscribe(func(c Change) { got = append(got, c) })

	p, _ := s.Add(PropDraft{Type: "building.box"})
	require.Len(t, got, 1)
	assert.Equal(t, ChangeAdded, got[0].Kind)
	assert.Equal(t, p.ID, got[0].Instance.ID)

	rot := math.Pi / 2
	_, err := s.Update(p.ID, Patch{RotationY: &rot})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rot, got[1].Instance.RotationY)

	require.NoError(t, s.Remove(p.ID))
	require.Len(t, got, 3)
	assert.Equal(t, ChangeRemoved, got[2].Kind)
	assert.Nil(t, got[2].Instance)

	s.Clear()
	require.Len(t, got, 4)

	unsub()
	unsub()
	s.Add(PropDraft{Type: "nature.tree"})
	assert.Len(t, got, 4)
}

func TestSubscriberGetsCopies(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())
	s.Subscribe(func(c Change) {
		if c.Instance != nil {
			c.Instance.Params["width"] = 999.0
		}
	})
	p, _ := s.Add(PropDraft{Type: "road.segment", Params: map[string]any{"width": 6}})
	got, ok := s.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 6.0, got.Params["width"])
}

func TestUpdateAndRemoveUnknown(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())
	_, err := s.Update("nope", Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Remove("nope"), ErrNotFound)
}

func TestListKeepsCreationOrder(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())
	for i := 0; i < 5; i++ {
		s.Add(PropDraft{Type: "fence.panel", Position: Vec3{X: float64(i)}})
	}
	require.NoError(t, s.Remove("prop-002"))

	var ids []string
	for _, p := range s.List() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"prop-001", "prop-003", "prop-004", "prop-005"}, ids)
}

func TestPersistAndReload(t *testing.T) {
	b := NewMemoryBackend()
	s, err := Open(context.Background(), b, zerolog.Nop(), WithIDGenerator(seqIDs()))
	require.NoError(t, err)

	s.Add(PropDraft{Type: "road.segment", Position: Vec3{3, 0, 8}})
	s.Add(PropDraft{Type: "road.roundabout", Params: map[string]any{"outerRadius": 20}})
	s.Flush()
	want := s.List()
	require.NoError(t, s.Close())

	s2 := openTestStore(t, b)
	assert.Equal(t, want, s2.List())
}

func TestAbsentKeyIsEmptyWorld(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())
	assert.Empty(t, s.List())
}

func TestCorruptBlobOpensEmpty(t *testing.T) {
	b := NewMemoryBackend()
	require.NoError(t, b.Save(context.Background(), StorageKey, []byte("{not json")))
	s := openTestStore(t, b)
	assert.Zero(t, s.Len())
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	b := NewMemoryBackend()
	b.SetFail(errors.New("disco cheio"))
	s := openTestStore(t, b)

	p, err := s.Add(PropDraft{Type: "nature.tree"})
	require.NoError(t, err)
	s.Flush()

	_, ok := s.Get(p.ID)
	assert.True(t, ok)
	assert.Zero(t, b.Saves())
}

func TestClosedStoreRejectsMutations(t *testing.T) {
	s, err := Open(context.Background(), NewMemoryBackend(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Add(PropDraft{Type: "x"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestJSONRoundTrip(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())
	s.Add(PropDraft{Type: "road.segment", Position: Vec3{3, 0, 8}, RotationY: math.Pi / 2})
	s.Add(PropDraft{
		Type:     "building.box",
		Position: Vec3{-12.5, 0, 4.25},
		Scale:    Vec3{2, 1.5, 2},
		Params:   map[string]any{"height": 9, "name": "Oficina, doca 2", "tags": []string{"a", "b"}},
	})
	s.Add(PropDraft{Type: "unknown.thing"})

	data, err := s.ExportJSON()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"props\": ["))

	other := openTestStore(t, NewMemoryBackend())
	require.NoError(t, other.ImportJSON(data))
	assert.Equal(t, s.List(), other.List())
}

func TestImportRejectsDuplicates(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())
	err := s.ImportJSON([]byte(`{"props":[{"id":"a","type":"x"},{"id":"a","type":"y"}]}`))
	assert.Error(t, err)
	assert.Error(t, s.ImportJSON([]byte(`[`)))
}

func TestExportCSV(t *testing.T) {
	s := openTestStore(t, NewMemoryBackend())
	s.Add(PropDraft{Type: "road.segment", Position: Vec3{3, 0, 8}, RotationY: math.Pi / 2})
	s.Add(PropDraft{Type: "building.box", Params: map[string]any{"width": 10, "depth": 8}})

	lines := strings.Split(strings.TrimSpace(string(s.ExportCSV())), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, CSVHeader, lines[0])
	assert.Equal(t, "prop-001,road.segment,3,0,8,1.5708,1,1,1,", lines[1])
	assert.Equal(t, `prop-002,building.box,0,0,0,0.0000,1,1,1,{"depth":8;"width":10}`, lines[2])

	for _, l := range lines {
		assert.Equal(t, 9, strings.Count(l, ","), l)
	}
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "patio.yv")
	b, err := OpenSQLite(path, "patio")
	require.NoError(t, err)

	data, err := b.Load(context.Background(), StorageKey)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, b.Save(context.Background(), StorageKey, []byte(`{"props":[]}`)))
	require.NoError(t, b.Save(context.Background(), StorageKey, []byte(`{"props":[{"id":"x"}]}`)))
	data, err = b.Load(context.Background(), StorageKey)
	require.NoError(t, err)
	assert.Equal(t, `{"props":[{"id":"x"}]}`, string(data))
	assert.Equal(t, "patio", b.Metadata("WorldName"))
	require.NoError(t, b.Close())

	b2, err := OpenSQLite(path, "patio")
	require.NoError(t, err)
	s := openTestStore(t, b2)
	assert.Equal(t, 1, s.Len())
}

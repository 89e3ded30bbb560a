package collection

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/distance"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := New(Apply(
		WithName("test"),
		WithDimension(2),
		WithMetric(distance.MetricL2),
		WithSeed(42),
	))
	require.NoError(t, err)
	return c
}

func TestInsertSizeInvariant(t *testing.T) {
	c := newTestCollection(t)
	for i := uint64(0); i < 50; i++ {
		require.NoError(t, c.Insert(i, []float32{float32(i), 0}))
	}
	assert.Equal(t, 50, c.Count())

	for i := uint64(0); i < 10; i++ {
		assert.True(t, c.Delete(i))
	}
	assert.Equal(t, 40, c.Count())

	// Reinserting a deleted user id succeeds and gets a fresh internal id.
	prevNext := c.NextInternalID()
	require.NoError(t, c.Insert(0, []float32{99, 99}))
	assert.Equal(t, 41, c.Count())
	assert.Equal(t, prevNext+1, c.NextInternalID())
}

func TestBijectionAndGet(t *testing.T) {
	c := newTestCollection(t)
	v := []float32{1.5, -2.5}
	require.NoError(t, c.Insert(7, v))

	got, ok := c.Get(7)
	require.True(t, ok)
	assert.Equal(t, v, got)
	assert.True(t, c.Contains(7))

	// Returned slice is a copy: mutating it must not affect the store.
	got[0] = 0
	got2, _ := c.Get(7)
	assert.Equal(t, v, got2)

	assert.True(t, c.Delete(7))
	_, ok = c.Get(7)
	assert.False(t, ok)
	assert.False(t, c.Contains(7))
}

func TestDuplicateUserIDRejected(t *testing.T) {
	c := newTestCollection(t)
	require.NoError(t, c.Insert(1, []float32{0, 0}))
	err := c.Insert(1, []float32{1, 1})
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindDuplicateID))
	assert.Equal(t, 1, c.Count())
}

func TestDimensionMismatchOnInsert(t *testing.T) {
	c := newTestCollection(t)
	err := c.Insert(1, []float32{0, 0, 0})
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindDimensionMismatch))
	assert.Equal(t, 0, c.Count())
}

func TestSearchTranslatesToUserIDs(t *testing.T) {
	c := newTestCollection(t)
	require.NoError(t, c.Insert(100, []float32{0, 0}))
	require.NoError(t, c.Insert(200, []float32{1, 0}))
	require.NoError(t, c.Insert(300, []float32{0, 1}))

	results, err := c.Search([]float32{0.1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(100), results[0].UserID)
	assert.Equal(t, uint64(200), results[1].UserID)
}

func TestLoggerReceivesOperationEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := vecdb.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := New(Apply(
		WithName("logged"),
		WithDimension(2),
		WithMetric(distance.MetricL2),
		WithLogger(logger),
	))
	require.NoError(t, err)

	require.NoError(t, c.Insert(1, []float32{0, 0}))
	_, err = c.Search([]float32{0, 0}, 1)
	require.NoError(t, err)
	assert.True(t, c.Delete(1))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var events []map[string]any
	for _, line := range lines {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		events = append(events, m)
	}
	assert.Equal(t, "insert completed", events[0]["msg"])
	assert.Equal(t, "logged", events[0]["collection"])
	assert.Equal(t, "search completed", events[1]["msg"])
	assert.Equal(t, "delete completed", events[2]["msg"])
}

func TestDeleteOddThenSearchReturnsOnlyEven(t *testing.T) {
	c := newTestCollection(t)
	for i := uint64(1); i <= 100; i++ {
		require.NoError(t, c.Insert(i, []float32{float32(i), 0}))
	}
	for i := uint64(1); i <= 100; i += 2 {
		require.True(t, c.Delete(i))
	}
	assert.Equal(t, 50, c.Count())

	results, err := c.Search([]float32{50, 0}, 100)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, uint64(0), r.UserID%2)
	}
}

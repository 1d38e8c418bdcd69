package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeConn(t *testing.T) net.Conn {
	t.Helper()
	server, clientEnd := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = clientEnd.Close()
	})
	return server
}

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Count())

	r.Add("conn_a", pipeConn(t))
	r.Add("conn_b", pipeConn(t))
	assert.Equal(t, 2, r.Count())

	r.Remove("conn_a")
	assert.Equal(t, 1, r.Count())

	// Removing twice is harmless.
	r.Remove("conn_a")
	assert.Equal(t, 1, r.Count())
}

func TestRegistryTouch(t *testing.T) {
	r := NewRegistry()
	r.Add("conn_a", pipeConn(t))

	r.Touch("conn_a")
	r.Touch("conn_a")
	r.Touch("conn_missing")

	infos := r.List()
	require.Len(t, infos, 1)
	assert.Equal(t, int64(2), infos[0].Queries)
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	r.Add("conn_a", pipeConn(t))
	r.Add("conn_b", pipeConn(t))

	assert.Equal(t, 2, r.CloseAll())
	assert.Equal(t, 0, r.Count())
	assert.Equal(t, 0, r.CloseAll())
}

func TestStatsRecord(t *testing.T) {
	s := NewStats()
	s.Record("10.0.0.1:5000", 4*time.Millisecond)
	s.Record("10.0.0.1:5000", 8*time.Millisecond)
	s.Record("10.0.0.2:6000", 2*time.Millisecond)

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)

	first := snapshot["10.0.0.1:5000"]
	assert.Equal(t, int64(2), first.Queries)
	assert.Equal(t, 12*time.Millisecond, first.TotalTime)
	assert.Equal(t, 6*time.Millisecond, first.Avg())

	second := snapshot["10.0.0.2:6000"]
	assert.Equal(t, int64(1), second.Queries)
}

func TestStatsAvgNoQueries(t *testing.T) {
	var p PeerSummary
	assert.Equal(t, time.Duration(0), p.Avg())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 20))
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaa...", truncate("aaaaaaaaaaaaaaaaaaaaaaaaa", 20))
}

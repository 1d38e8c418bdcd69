package server

import (
	"log/slog"
	"sync"
	"time"
)

// PeerSummary aggregates query activity for one peer address.
type PeerSummary struct {
	// Queries is the number of queries answered for this peer.
	Queries int64
	// TotalTime is the cumulative search latency across all queries.
	TotalTime time.Duration
	// LastSeen is when the peer's most recent query was answered.
	LastSeen time.Time
}

// Avg returns the mean per-query latency, or zero with no queries.
func (p PeerSummary) Avg() time.Duration {
	if p.Queries == 0 {
		return 0
	}
	return p.TotalTime / time.Duration(p.Queries)
}

// Stats tracks per-peer query statistics. Updated by every session
// under one mutex, read only at shutdown/reporting time.
type Stats struct {
	mu    sync.Mutex
	peers map[string]*PeerSummary
}

// NewStats creates an empty statistics table.
func NewStats() *Stats {
	return &Stats{peers: make(map[string]*PeerSummary)}
}

// Record adds one query with the given latency for a peer.
func (s *Stats) Record(peer string, elapsed time.Duration) {
	s.mu.Lock()
	p, ok := s.peers[peer]
	if !ok {
		p = &PeerSummary{}
		s.peers[peer] = p
	}
	p.Queries++
	p.TotalTime += elapsed
	p.LastSeen = time.Now()
	s.mu.Unlock()
}

// Snapshot returns a copy of the per-peer summaries.
func (s *Stats) Snapshot() map[string]PeerSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]PeerSummary, len(s.peers))
	for peer, p := range s.peers {
		out[peer] = *p
	}
	return out
}

// LogSummary emits one log line per peer, used when the server shuts
// down.
func (s *Stats) LogSummary(log *slog.Logger) {
	for peer, p := range s.Snapshot() {
		log.Info("peer statistics",
			"peer", peer,
			"queries", p.Queries,
			"avg_ms", float64(p.Avg().Microseconds())/1000.0,
			"last_seen", p.LastSeen.Format(time.RFC3339),
		)
	}
}

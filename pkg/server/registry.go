package server

import (
	"net"
	"sync"
	"time"
)

// ConnectionInfo describes one live client connection.
type ConnectionInfo struct {
	// ID is the unique identifier assigned at accept time.
	ID string
	// RemoteAddr is the peer's network address.
	RemoteAddr string
	// ConnectedAt is when the connection was accepted.
	ConnectedAt time.Time
	// LastActivity is when the last complete frame was processed.
	LastActivity time.Time
	// Queries is the number of frames answered on this connection.
	Queries int64
}

type trackedConn struct {
	conn net.Conn
	info ConnectionInfo
}

// Registry is the process-wide set of live connections. Sessions add
// themselves on accept and remove themselves on every exit path; the
// shutdown coordinator force-closes whatever is still tracked. The
// mutex is held only around map operations, never across socket I/O.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*trackedConn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*trackedConn)}
}

// Add registers a connection under id.
func (r *Registry) Add(id string, conn net.Conn) {
	now := time.Now()
	r.mu.Lock()
	r.conns[id] = &trackedConn{
		conn: conn,
		info: ConnectionInfo{
			ID:           id,
			RemoteAddr:   conn.RemoteAddr().String(),
			ConnectedAt:  now,
			LastActivity: now,
		},
	}
	r.mu.Unlock()
}

// Touch records query activity on a connection.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	if tc, ok := r.conns[id]; ok {
		tc.info.LastActivity = time.Now()
		tc.info.Queries++
	}
	r.mu.Unlock()
}

// Remove drops a connection from the registry. Safe to call for ids
// already removed.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// List returns a snapshot of all live connections.
func (r *Registry) List() []ConnectionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	infos := make([]ConnectionInfo, 0, len(r.conns))
	for _, tc := range r.conns {
		infos = append(infos, tc.info)
	}
	return infos
}

// CloseAll closes every tracked connection and empties the registry,
// returning the number of connections closed. Used at shutdown for
// sessions that have not yet observed the shutdown flag.
func (r *Registry) CloseAll() int {
	r.mu.Lock()
	conns := make([]net.Conn, 0, len(r.conns))
	for _, tc := range r.conns {
		conns = append(conns, tc.conn)
	}
	r.conns = make(map[string]*trackedConn)
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
	return len(conns)
}

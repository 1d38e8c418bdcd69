package server

import (
	"bytes"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
	"unicode/utf8"
)

// Wire protocol constants. A query is an arbitrary byte sequence
// terminated by a single NUL; the server answers each frame with
// exactly one newline-terminated verdict line.
const (
	frameTerminator = byte(0x00)

	responseExists   = "STRING EXISTS\n"
	responseNotFound = "STRING NOT FOUND\n"
)

// queryLogLimit caps how much query text appears in log events.
const queryLogLimit = 20

// session is the per-connection state machine. It accumulates bytes,
// extracts complete NUL-terminated frames in arrival order, dispatches
// each to the search engine, and writes one verdict per frame.
type session struct {
	id      string
	conn    net.Conn
	peer    string
	server  *Server
	buffer  []byte
	queries int64
}

// run reads until the peer disconnects, an unrecoverable error occurs,
// or the shutdown flag is set. Each blocking read carries a short
// deadline so both conditions are observed promptly.
func (s *session) run() {
	readBuf := make([]byte, 4096)

	for !s.server.shutdown.Load() {
		_ = s.conn.SetReadDeadline(time.Now().Add(pollInterval))

		n, err := s.conn.Read(readBuf)
		if n > 0 {
			s.buffer = append(s.buffer, readBuf[:n]...)
			if !s.drainFrames() {
				return
			}
		}
		if err != nil {
			var ne net.Error
			switch {
			case errors.As(err, &ne) && ne.Timeout():
				continue
			case errors.Is(err, io.EOF):
				// Peer closed the connection.
				return
			case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
				s.server.log.Warn("peer dropped connection", "conn", s.id, "peer", s.peer, "error", err)
				return
			case errors.Is(err, net.ErrClosed):
				return
			default:
				s.server.log.Error("read failed", "conn", s.id, "peer", s.peer, "error", err)
				return
			}
		}
	}
}

// drainFrames processes every complete frame currently buffered, in
// arrival order, leaving any trailing partial frame for the next read.
// Returns false if the connection should close.
func (s *session) drainFrames() bool {
	for {
		i := bytes.IndexByte(s.buffer, frameTerminator)
		if i < 0 {
			return true
		}
		frame := s.buffer[:i]
		s.buffer = s.buffer[i+1:]
		if !s.handleFrame(frame) {
			return false
		}
	}
}

// handleFrame answers a single query frame. An undecodable frame yields
// a deterministic not-found rather than terminating the connection.
// Returns false only when the response cannot be written.
func (s *session) handleFrame(frame []byte) bool {
	srv := s.server

	if !utf8.Valid(frame) {
		srv.log.Warn("invalid utf-8 frame", "conn", s.id, "peer", s.peer, "bytes", len(frame))
		srv.queriesTotal.Inc("invalid")
		return s.respond(responseNotFound)
	}
	query := string(frame)

	start := time.Now()
	exists := srv.engine.Search(query)
	elapsed := time.Since(start)

	s.queries++
	srv.registry.Touch(s.id)
	srv.stats.Record(s.peer, elapsed)

	ceiling := time.Duration(srv.settings.Server.MaxQueryTimeMs) * time.Millisecond
	if elapsed > ceiling {
		srv.slowQueries.Inc()
		srv.log.Warn("slow query",
			"conn", s.id,
			"peer", s.peer,
			"query", truncate(query, queryLogLimit),
			"elapsed_us", elapsed.Microseconds(),
			"ceiling_ms", srv.settings.Server.MaxQueryTimeMs,
		)
	}

	response := responseNotFound
	result := "not_found"
	if exists {
		response = responseExists
		result = "found"
	}
	srv.queriesTotal.Inc(result)

	srv.log.Info("query answered",
		"conn", s.id,
		"peer", s.peer,
		"query", truncate(query, queryLogLimit),
		"result", result,
		"elapsed_us", elapsed.Microseconds(),
	)

	return s.respond(response)
}

// respond writes exactly one verdict line for one completed frame.
func (s *session) respond(response string) bool {
	if _, err := s.conn.Write([]byte(response)); err != nil {
		s.server.log.Warn("write failed", "conn", s.id, "peer", s.peer, "error", err)
		return false
	}
	return true
}

func truncate(q string, limit int) string {
	if len(q) <= limit {
		return q
	}
	return q[:limit] + "..."
}

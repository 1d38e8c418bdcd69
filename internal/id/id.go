// Package id generates the short random identifiers haystackd attaches
// to connections and log events. All randomness comes from crypto/rand.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Short returns a 16-character random hex identifier.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Conn returns a connection identifier with a "conn_" prefix, used to
// correlate all log events for one client connection.
func Conn() string {
	return "conn_" + Short()
}

//go:build !unix

package server

import "syscall"

// reuseAddr is a no-op on platforms without SO_REUSEADDR via x/sys.
func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}

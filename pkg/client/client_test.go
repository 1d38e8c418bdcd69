package client

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers the wire protocol for a fixed set of known
// strings.
func fakeServer(t *testing.T, known ...string) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer func() { _ = c.Close() }()
				var buffer []byte
				readBuf := make([]byte, 1024)
				for {
					n, err := c.Read(readBuf)
					if err != nil {
						return
					}
					buffer = append(buffer, readBuf[:n]...)
					for {
						i := bytes.IndexByte(buffer, 0)
						if i < 0 {
							break
						}
						query := string(buffer[:i])
						buffer = buffer[i+1:]
						response := "STRING NOT FOUND\n"
						for _, k := range known {
							if k == query {
								response = "STRING EXISTS\n"
								break
							}
						}
						if _, err := c.Write([]byte(response)); err != nil {
							return
						}
					}
				}
			}(conn)
		}
	}()

	return listener.Addr().String()
}

func TestQueryRoundTrip(t *testing.T) {
	addr := fakeServer(t, "alpha", "bravo")

	c, err := Dial(addr, Options{})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	verdict, elapsed, err := c.Query("alpha")
	require.NoError(t, err)
	assert.Equal(t, VerdictExists, verdict)
	assert.Greater(t, elapsed.Nanoseconds(), int64(0))

	verdict, _, err = c.Query("charlie")
	require.NoError(t, err)
	assert.Equal(t, VerdictNotFound, verdict)
}

func TestExists(t *testing.T) {
	addr := fakeServer(t, "alpha")

	c, err := Dial(addr, Options{})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	found, _, err := c.Exists("alpha")
	require.NoError(t, err)
	assert.True(t, found)

	found, _, err = c.Exists("missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestQueryRejectsNUL(t *testing.T) {
	addr := fakeServer(t)

	c, err := Dial(addr, Options{})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, _, err = c.Query("bad\x00query")
	assert.ErrorIs(t, err, ErrQueryContainsNUL)
}

func TestDialUnreachable(t *testing.T) {
	_, err := Dial("127.0.0.1:1", Options{})
	assert.Error(t, err)
}

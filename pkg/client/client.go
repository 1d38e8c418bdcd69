// Package client implements the haystackd wire protocol from the
// client side: send a NUL-terminated query, read one newline-terminated
// verdict. Used by the query CLI command and the benchmark runner.
package client

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Verdict lines the server may answer with, without the trailing
// newline.
const (
	VerdictExists   = "STRING EXISTS"
	VerdictNotFound = "STRING NOT FOUND"
)

// ErrQueryContainsNUL is returned for queries containing the frame
// terminator byte, which the protocol cannot carry.
var ErrQueryContainsNUL = errors.New("query must not contain a NUL byte")

// Options configures Dial.
type Options struct {
	// TLSConfig, when set, dials an encrypted connection.
	TLSConfig *tls.Config
	// Timeout bounds the dial and each query round-trip. Zero means
	// 10 seconds.
	Timeout time.Duration
}

// Client is one connection to a haystackd server. A client may issue
// any number of queries before Close. Not safe for concurrent use.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial connects to addr (host:port), optionally over TLS.
func Dial(addr string, opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	var conn net.Conn
	var err error
	if opts.TLSConfig != nil {
		dialer := &net.Dialer{Timeout: timeout}
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, opts.TLSConfig)
	} else {
		conn, err = net.DialTimeout("tcp", addr, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return &Client{conn: conn, reader: bufio.NewReader(conn), timeout: timeout}, nil
}

// Query sends one query and returns the server's verdict line (without
// the newline) and the round-trip time.
func (c *Client) Query(query string) (string, time.Duration, error) {
	if strings.ContainsRune(query, 0) {
		return "", 0, ErrQueryContainsNUL
	}

	deadline := time.Now().Add(c.timeout)
	_ = c.conn.SetDeadline(deadline)

	start := time.Now()
	if _, err := c.conn.Write(append([]byte(query), 0)); err != nil {
		return "", 0, fmt.Errorf("failed to send query: %w", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", 0, fmt.Errorf("failed to read response: %w", err)
	}
	elapsed := time.Since(start)

	return strings.TrimRight(line, "\n"), elapsed, nil
}

// Exists sends one query and reports whether the string was found.
func (c *Client) Exists(query string) (bool, time.Duration, error) {
	verdict, elapsed, err := c.Query(query)
	if err != nil {
		return false, elapsed, err
	}
	return verdict == VerdictExists, elapsed, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

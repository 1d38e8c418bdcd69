// Package search implements the exact-match line-existence engine.
//
// An Engine answers whether a query string appears verbatim as a line in
// a line-oriented dataset file. Behavior has two fixed axes chosen at
// construction: the matching algorithm (linear or binary) and the
// freshness mode (load the file once, or re-derive the dataset from the
// file on every query). Reread mode can scan a memory-mapped view of the
// file where the platform supports it; results are identical to the
// buffered fallback.
//
// Normalization is uniform across all variants: stored lines and queries
// are both whitespace-trimmed, lines that are empty after trimming are
// never stored, and queries that are empty after trimming never match.
package search

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Algorithm selects the matching strategy.
type Algorithm string

// Supported algorithms.
const (
	AlgorithmLinear Algorithm = "linear"
	AlgorithmBinary Algorithm = "binary"
)

// ErrUnknownAlgorithm is returned for algorithm names other than
// "linear" and "binary".
var ErrUnknownAlgorithm = errors.New("unknown search algorithm")

// ParseAlgorithm maps an algorithm name to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AlgorithmLinear:
		return AlgorithmLinear, nil
	case AlgorithmBinary:
		return AlgorithmBinary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// Options fixes engine behavior at construction time.
type Options struct {
	// Algorithm is the matching strategy. Defaults to linear.
	Algorithm Algorithm
	// RereadOnQuery re-derives the dataset from the file on every call.
	RereadOnQuery bool
	// UseMmap scans a memory-mapped view of the file in reread mode.
	// Ignored in cached mode and on platforms without mmap support.
	UseMmap bool
}

// Engine answers existence queries against the dataset.
type Engine interface {
	// Search reports whether query, after trimming, appears verbatim
	// as a stored line. Empty-after-trim queries are always false.
	Search(query string) bool

	// Algorithm returns the matching strategy fixed at construction.
	Algorithm() Algorithm

	// Reread reports whether the engine re-derives the dataset from
	// the file on every query.
	Reread() bool
}

// New constructs an Engine for the dataset at path. In cached mode the
// file is loaded immediately and a load failure is returned here, so a
// server refuses to start on a missing or unreadable dataset. In reread
// mode the file is still opened once up front to surface the same class
// of error before any query runs.
func New(path string, opts Options) (Engine, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmLinear
	}
	if opts.Algorithm != AlgorithmLinear && opts.Algorithm != AlgorithmBinary {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, opts.Algorithm)
	}

	if opts.RereadOnQuery {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("dataset not readable: %w", err)
		}
		_ = f.Close()
		return &rereadEngine{path: path, algorithm: opts.Algorithm, useMmap: opts.UseMmap}, nil
	}

	lines, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	e := &cachedEngine{algorithm: opts.Algorithm, lines: lines}
	if opts.Algorithm == AlgorithmBinary {
		e.sorted = make([]string, len(lines))
		copy(e.sorted, lines)
		sort.Strings(e.sorted)
	}
	return e, nil
}

// cachedEngine holds the dataset loaded once at construction. The line
// slices are read-only after New returns, so concurrent Search calls
// need no synchronization.
type cachedEngine struct {
	algorithm Algorithm
	lines     []string
	sorted    []string
}

func (e *cachedEngine) Algorithm() Algorithm { return e.algorithm }
func (e *cachedEngine) Reread() bool         { return false }

func (e *cachedEngine) Search(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}
	if e.algorithm == AlgorithmBinary {
		return binaryLookup(e.sorted, query)
	}
	return linearLookup(e.lines, query)
}

// rereadEngine re-derives the dataset from the file on every call,
// trading latency for immediate visibility of out-of-band edits. Each
// call opens the file independently, so concurrent Search calls are
// safe.
type rereadEngine struct {
	path      string
	algorithm Algorithm
	useMmap   bool
}

func (e *rereadEngine) Algorithm() Algorithm { return e.algorithm }
func (e *rereadEngine) Reread() bool         { return true }

func (e *rereadEngine) Search(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return false
	}

	if e.useMmap && mmapSupported {
		return e.searchMapped(query)
	}

	lines, err := loadFile(e.path)
	if err != nil {
		return false
	}
	return e.match(lines, query)
}

func (e *rereadEngine) searchMapped(query string) bool {
	data, cleanup, err := mapFile(e.path)
	if err != nil {
		return false
	}
	defer cleanup()

	if e.algorithm == AlgorithmLinear {
		// Scan the mapping in place; no per-query copy of the file.
		return scanMappedLinear(data, query)
	}
	lines := splitMapped(data)
	sort.Strings(lines)
	return binaryLookup(lines, query)
}

func (e *rereadEngine) match(lines []string, query string) bool {
	if e.algorithm == AlgorithmBinary {
		sort.Strings(lines)
		return binaryLookup(lines, query)
	}
	return linearLookup(lines, query)
}

// linearLookup walks lines front to back; first match wins.
func linearLookup(lines []string, query string) bool {
	for _, line := range lines {
		if line == query {
			return true
		}
	}
	return false
}

// binaryLookup locates the insertion point for query in a sorted slice
// and succeeds only on exact equality at that point.
func binaryLookup(sorted []string, query string) bool {
	i := sort.SearchStrings(sorted, query)
	return i < len(sorted) && sorted[i] == query
}

// loadFile reads the dataset, trimming each line and dropping lines
// that are empty after trimming.
func loadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return readLines(f)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return lines, nil
}

// scanMappedLinear searches a mapped file for query without building a
// line slice. Lines are trimmed with the same rule as readLines.
func scanMappedLinear(data []byte, query string) bool {
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		trimmed := strings.TrimSpace(string(line))
		if trimmed != "" && trimmed == query {
			return true
		}
	}
	return false
}

// splitMapped converts a mapped file into trimmed non-empty lines.
func splitMapped(data []byte) []string {
	var lines []string
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		trimmed := strings.TrimSpace(string(line))
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

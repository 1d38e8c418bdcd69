// Package metrics provides the small set of operational counters the
// search server exposes, rendered in the Prometheus text exposition
// format. It is intentionally dependency-free: the handful of counters
// and gauges here do not justify a client library.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Counter is a monotonically increasing metric with optional labels.
// All methods are safe for concurrent use.
type Counter struct {
	name   string
	help   string
	labels []string

	mu     sync.Mutex
	values map[string]float64
}

// Gauge is a metric that can go up and down.
type Gauge struct {
	name string
	help string

	mu    sync.Mutex
	value float64
}

// Registry holds metrics and renders them for exposition.
type Registry struct {
	mu       sync.Mutex
	counters []*Counter
	gauges   []*Gauge
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewCounter registers a counter with the given label names.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := &Counter{name: name, help: help, labels: labels, values: make(map[string]float64)}
	r.mu.Lock()
	r.counters = append(r.counters, c)
	r.mu.Unlock()
	return c
}

// NewGauge registers an unlabeled gauge.
func (r *Registry) NewGauge(name, help string) *Gauge {
	g := &Gauge{name: name, help: help}
	r.mu.Lock()
	r.gauges = append(r.gauges, g)
	r.mu.Unlock()
	return g
}

// Inc increments the counter by 1 for the given label values. The
// number of values must match the label names the counter was
// registered with; extra or missing values are ignored by key identity
// rather than rejected, keeping call sites simple.
func (c *Counter) Inc(labelValues ...string) {
	c.mu.Lock()
	c.values[labelKey(labelValues)]++
	c.mu.Unlock()
}

// Value returns the current count for the given label values.
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[labelKey(labelValues)]
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() {
	g.mu.Lock()
	g.value++
	g.mu.Unlock()
}

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() {
	g.mu.Lock()
	g.value--
	g.mu.Unlock()
}

// Value returns the current gauge value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// WriteTo renders all registered metrics in Prometheus text format.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	counters := append([]*Counter(nil), r.counters...)
	gauges := append([]*Gauge(nil), r.gauges...)
	r.mu.Unlock()

	var b strings.Builder
	for _, c := range counters {
		fmt.Fprintf(&b, "# HELP %s %s\n", c.name, c.help)
		fmt.Fprintf(&b, "# TYPE %s counter\n", c.name)
		c.mu.Lock()
		keys := make([]string, 0, len(c.values))
		for k := range c.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s%s %g\n", c.name, formatLabels(c.labels, k), c.values[k])
		}
		c.mu.Unlock()
	}
	for _, g := range gauges {
		fmt.Fprintf(&b, "# HELP %s %s\n", g.name, g.help)
		fmt.Fprintf(&b, "# TYPE %s gauge\n", g.name)
		fmt.Fprintf(&b, "%s %g\n", g.name, g.Value())
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

const labelSep = "\x1f"

func labelKey(values []string) string {
	return strings.Join(values, labelSep)
}

func formatLabels(names []string, key string) string {
	if len(names) == 0 {
		return ""
	}
	values := strings.Split(key, labelSep)
	pairs := make([]string, 0, len(names))
	for i, name := range names {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		pairs = append(pairs, fmt.Sprintf("%s=%q", name, v))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// Package bench measures search latency across every algorithm ×
// freshness combination and renders a text report. It drives the engine
// purely through its public Search interface, generating synthetic
// datasets of configurable size.
package bench

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/haystackd/haystackd/pkg/search"
)

// Options configures a benchmark run.
type Options struct {
	// Sizes are the dataset line counts to benchmark against.
	Sizes []int
	// Queries are run against each dataset; half should hit, half
	// miss, but any mix works.
	Queries []string
	// Iterations is how many times each query is timed. Defaults
	// to 10.
	Iterations int
	// CeilingMs flags combinations whose average exceeds it. Zero
	// disables flagging.
	CeilingMs float64
	// Dir is where temporary datasets are written. Defaults to the
	// OS temp dir.
	Dir string
}

// Result holds the latency distribution for one combination.
type Result struct {
	Algorithm search.Algorithm
	Reread    bool
	Size      int
	Samples   int

	Avg time.Duration
	Min time.Duration
	Max time.Duration
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// Combination renders the algorithm/freshness pair for display.
func (r Result) Combination() string {
	mode := "cached"
	if r.Reread {
		mode = "reread"
	}
	return fmt.Sprintf("%s/%s", r.Algorithm, mode)
}

// Run benchmarks every combination and returns results ordered by
// size, then algorithm, then freshness.
func Run(opts Options) ([]Result, error) {
	if opts.Iterations <= 0 {
		opts.Iterations = 10
	}
	if len(opts.Sizes) == 0 {
		opts.Sizes = []int{10000, 100000}
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}

	var results []Result
	for _, size := range opts.Sizes {
		path, err := writeDataset(opts.Dir, size)
		if err != nil {
			return nil, err
		}

		queries := opts.Queries
		if len(queries) == 0 {
			queries = defaultQueries(size)
		}

		for _, alg := range []search.Algorithm{search.AlgorithmLinear, search.AlgorithmBinary} {
			for _, reread := range []bool{false, true} {
				r, err := benchmarkCombination(path, alg, reread, size, queries, opts.Iterations)
				if err != nil {
					_ = os.Remove(path)
					return nil, err
				}
				results = append(results, r)
			}
		}
		_ = os.Remove(path)
	}
	return results, nil
}

func benchmarkCombination(path string, alg search.Algorithm, reread bool, size int, queries []string, iterations int) (Result, error) {
	engine, err := search.New(path, search.Options{
		Algorithm:     alg,
		RereadOnQuery: reread,
		UseMmap:       reread,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to build %s engine: %w", alg, err)
	}

	samples := make([]time.Duration, 0, len(queries)*iterations)
	for i := 0; i < iterations; i++ {
		for _, q := range queries {
			start := time.Now()
			engine.Search(q)
			samples = append(samples, time.Since(start))
		}
	}

	return summarize(alg, reread, size, samples), nil
}

func summarize(alg search.Algorithm, reread bool, size int, samples []time.Duration) Result {
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, s := range sorted {
		total += s
	}

	return Result{
		Algorithm: alg,
		Reread:    reread,
		Size:      size,
		Samples:   len(sorted),
		Avg:       total / time.Duration(len(sorted)),
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
		P50:       percentile(sorted, 0.50),
		P95:       percentile(sorted, 0.95),
		P99:       percentile(sorted, 0.99),
	}
}

// percentile returns the nearest-rank percentile of a sorted sample
// set.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// WriteReport renders results as an aligned table. Combinations whose
// average exceeds ceilingMs are marked SLOW.
func WriteReport(w io.Writer, results []Result, ceilingMs float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMBINATION\tLINES\tSAMPLES\tAVG\tP50\tP95\tP99\tMAX\t")
	for _, r := range results {
		flag := ""
		if ceilingMs > 0 && float64(r.Avg.Microseconds())/1000.0 > ceilingMs {
			flag = "SLOW"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Combination(), r.Size, r.Samples,
			formatDuration(r.Avg), formatDuration(r.P50), formatDuration(r.P95),
			formatDuration(r.P99), formatDuration(r.Max), flag,
		)
	}
	return tw.Flush()
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.1fµs", float64(d.Nanoseconds())/1000.0)
	}
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
}

// writeDataset generates a synthetic dataset of size lines in the style
// of the production files (semicolon-separated digit groups).
func writeDataset(dir string, size int) (string, error) {
	f, err := os.CreateTemp(dir, "bench-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create benchmark dataset: %w", err)
	}
	for i := 0; i < size; i++ {
		if _, err := fmt.Fprintf(f, "%d;0;%d;%d;0;%d;%d;0;\n", i%10, i%28, i%32, i%24, i%6); err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return "", fmt.Errorf("failed to write benchmark dataset: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// defaultQueries mixes guaranteed hits with guaranteed misses.
func defaultQueries(size int) []string {
	mid := size / 2
	return []string{
		fmt.Sprintf("%d;0;%d;%d;0;%d;%d;0;", mid%10, mid%28, mid%32, mid%24, mid%6),
		"0;0;0;0;0;0;0;0;",
		"nonexistent_string",
		"9;9;9;99;9;99;99;9;",
	}
}

package bench

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haystackd/haystackd/pkg/search"
)

func TestRunCoversAllCombinations(t *testing.T) {
	results, err := Run(Options{
		Sizes:      []int{100},
		Iterations: 2,
		Dir:        t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, results, 4, "linear/binary × cached/reread")

	seen := make(map[string]bool)
	for _, r := range results {
		seen[r.Combination()] = true
		assert.Equal(t, 100, r.Size)
		assert.Equal(t, 8, r.Samples, "4 default queries × 2 iterations")
		assert.GreaterOrEqual(t, r.Max, r.Avg)
		assert.GreaterOrEqual(t, r.Avg, time.Duration(0))
		assert.GreaterOrEqual(t, r.P99, r.P50)
	}
	assert.True(t, seen["linear/cached"])
	assert.True(t, seen["linear/reread"])
	assert.True(t, seen["binary/cached"])
	assert.True(t, seen["binary/reread"])
}

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, time.Duration(5), percentile(samples, 0.50))
	assert.Equal(t, time.Duration(10), percentile(samples, 0.99))
	assert.Equal(t, time.Duration(1), percentile(samples, 0.0))
	assert.Equal(t, time.Duration(0), percentile(nil, 0.5))
}

func TestSummarize(t *testing.T) {
	samples := []time.Duration{
		4 * time.Millisecond,
		2 * time.Millisecond,
		6 * time.Millisecond,
	}
	r := summarize(search.AlgorithmBinary, true, 500, samples)

	assert.Equal(t, "binary/reread", r.Combination())
	assert.Equal(t, 3, r.Samples)
	assert.Equal(t, 4*time.Millisecond, r.Avg)
	assert.Equal(t, 2*time.Millisecond, r.Min)
	assert.Equal(t, 6*time.Millisecond, r.Max)
}

func TestWriteReport(t *testing.T) {
	results := []Result{
		{
			Algorithm: search.AlgorithmLinear,
			Size:      1000,
			Samples:   40,
			Avg:       50 * time.Millisecond,
			P50:       45 * time.Millisecond,
			P95:       70 * time.Millisecond,
			P99:       90 * time.Millisecond,
			Max:       95 * time.Millisecond,
		},
		{
			Algorithm: search.AlgorithmBinary,
			Size:      1000,
			Samples:   40,
			Avg:       100 * time.Microsecond,
			Max:       200 * time.Microsecond,
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteReport(&sb, results, 10))
	out := sb.String()

	assert.Contains(t, out, "COMBINATION")
	assert.Contains(t, out, "linear/cached")
	assert.Contains(t, out, "binary/cached")
	assert.Contains(t, out, "SLOW", "linear average above the ceiling must be flagged")
}

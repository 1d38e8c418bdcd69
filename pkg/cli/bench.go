package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/haystackd/haystackd/pkg/bench"
)

var (
	benchSizes      []int
	benchIterations int
	benchCeilingMs  float64
	benchQueries    []string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark search latency across all algorithm and freshness combinations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := bench.Run(bench.Options{
			Sizes:      benchSizes,
			Queries:    benchQueries,
			Iterations: benchIterations,
			CeilingMs:  benchCeilingMs,
		})
		if err != nil {
			return err
		}
		return bench.WriteReport(os.Stdout, results, benchCeilingMs)
	},
}

func init() {
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{10000, 50000, 100000, 200000}, "Dataset line counts to benchmark")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 10, "Timed runs per query")
	benchCmd.Flags().Float64Var(&benchCeilingMs, "ceiling-ms", 40, "Flag combinations averaging above this many milliseconds")
	benchCmd.Flags().StringSliceVar(&benchQueries, "queries", nil, "Queries to run (defaults to a generated hit/miss mix)")
	rootCmd.AddCommand(benchCmd)
}

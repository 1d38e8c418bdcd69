// haystackd - TCP server answering exact-match line-existence queries.
package main

import (
	"fmt"
	"os"

	"github.com/haystackd/haystackd/pkg/cli"
)

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.SetVersion(Version, Commit, BuildDate)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

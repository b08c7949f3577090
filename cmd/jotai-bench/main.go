// Command jotai-bench measures atom store performance on synthetic
// dependency graphs and hosts a demo store for the devtools inspector.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jotai-bench",
		Short: "Benchmark and inspect jotai atom stores",
		Long: `jotai-bench exercises the jotai store on synthetic dependency
graphs and reports read, write and invalidation throughput.

Commands:

  graph     benchmark chain/fanout/diamond graphs
  devtools  run a demo store with the devtools inspector
  version   print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		graphCmd(),
		devtoolsCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

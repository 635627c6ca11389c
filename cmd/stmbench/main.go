// Command stmbench is a demonstration/benchmark driver for the rtm STM
// library, grounded on the teacher's benchmarks/single-train and
// benchmarks/tpcc-train mains (flag-parsed workload drivers spinning up a
// Coordinator and Workers, printing a report at the end) but rebuilt on
// cobra+pflag instead of stdlib flag, and driving the in-scope STM API
// directly instead of a TPCC/smallbank workload generator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "stmbench",
		Short: "Drive the rtm software transactional memory library",
	}
	root.AddCommand(newRunCmd(), newSwapCmd(), newListCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

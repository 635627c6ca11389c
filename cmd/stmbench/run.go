package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	rtm "github.com/gshashidhar125/rstm"
	_ "github.com/gshashidhar125/rstm/algs"
	"github.com/gshashidhar125/rstm/bench"
	"github.com/gshashidhar125/rstm/rtmconfig"
)

func newRunCmd() *cobra.Command {
	var (
		algorithm string
		threads   int
		duration  time.Duration
		scenario  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one of the §8 end-to-end scenarios against a chosen algorithm",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rtmconfig.Load()
			if err != nil {
				return err
			}
			if algorithm == "" {
				algorithm = cfg.Algorithm
			}
			if !rtm.InstallInitial(algorithm) {
				return fmt.Errorf("unknown algorithm %q", algorithm)
			}

			coord, err := bench.NewCoordinator(threads)
			if err != nil {
				return err
			}
			defer coord.Close()

			switch scenario {
			case "counter":
				runCounterScenario(coord, duration)
			case "accumulate":
				runAccumulateScenario(coord)
			default:
				return fmt.Errorf("unknown scenario %q", scenario)
			}

			coord.PrintStats(os.Stdout, algorithm)
			return nil
		},
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", "", "algorithm name (default from STM_ALGORITHM, falls back to NOrec)")
	cmd.Flags().IntVar(&threads, "threads", 2, "number of worker threads")
	cmd.Flags().DurationVar(&duration, "duration", time.Second, "how long to run the counter scenario")
	cmd.Flags().StringVar(&scenario, "scenario", "counter", "counter|accumulate")
	return cmd
}

// sharedVector backs the §8 scenarios' "shared vector V of words".
type sharedVector struct {
	v0, v1 uint64
}

func runCounterScenario(coord *bench.Coordinator, duration time.Duration) {
	var vec sharedVector
	deadline := time.Now().Add(duration)

	var wg sync.WaitGroup
	for _, w := range coord.Workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.RunFor(func(d *rtm.Descriptor) {
				cur := rtm.ReadBarrier(d, rtm.AddrOf(&vec.v0), ^uint64(0))
				rtm.WriteBarrier(d, rtm.AddrOf(&vec.v0), cur+1, ^uint64(0))
			}, deadline)
		}()
	}
	wg.Wait()
}

func runAccumulateScenario(coord *bench.Coordinator) {
	var vec sharedVector
	const txnsPerThread = 1000

	var wg sync.WaitGroup
	for _, w := range coord.Workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.RunN(func(d *rtm.Descriptor) {
				temp := rtm.ReadBarrier(d, rtm.AddrOf(&vec.v0), ^uint64(0))
				v1 := rtm.ReadBarrier(d, rtm.AddrOf(&vec.v1), ^uint64(0))
				rtm.WriteBarrier(d, rtm.AddrOf(&vec.v0), temp+v1, ^uint64(0))
				rtm.WriteBarrier(d, rtm.AddrOf(&vec.v1), v1+1, ^uint64(0))
			}, txnsPerThread)
		}()
	}
	wg.Wait()
}

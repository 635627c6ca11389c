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
)

func newSwapCmd() *cobra.Command {
	var (
		from, to string
		threads  int
		before   time.Duration
		after    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Run the algorithm hot-swap scenario (§8 scenario 5)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rtm.InstallInitial(from) {
				return fmt.Errorf("unknown algorithm %q", from)
			}

			coord, err := bench.NewCoordinator(threads)
			if err != nil {
				return err
			}
			defer coord.Close()

			var vec sharedVector
			stop := make(chan struct{})
			var wg sync.WaitGroup
			for _, w := range coord.Workers {
				w := w
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-stop:
							return
						default:
						}
						rtm.Atomically(w.Descriptor(), func(d *rtm.Descriptor) {
							rtm.BeginTx(d)
							cur := rtm.ReadBarrier(d, rtm.AddrOf(&vec.v0), ^uint64(0))
							rtm.WriteBarrier(d, rtm.AddrOf(&vec.v0), cur+1, ^uint64(0))
							rtm.CommitTx(d)
						})
					}
				}()
			}

			time.Sleep(before)
			if err := coord.Swap(to, 5*time.Second); err != nil {
				close(stop)
				wg.Wait()
				return err
			}
			time.Sleep(after)
			close(stop)
			wg.Wait()

			coord.PrintStats(os.Stdout, to)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "NOrec", "algorithm to start with")
	cmd.Flags().StringVar(&to, "to", "OrecEager", "algorithm to swap to")
	cmd.Flags().IntVar(&threads, "threads", 4, "number of worker threads")
	cmd.Flags().DurationVar(&before, "before", time.Second, "how long to run before swapping")
	cmd.Flags().DurationVar(&after, "after", time.Second, "how long to run after swapping")
	return cmd
}

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	rtm "github.com/gshashidhar125/rstm"
	_ "github.com/gshashidhar125/rstm/algs"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered algorithm",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := rtm.Names()
			sort.Strings(names)
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/aretw0/kiln"
	"github.com/aretw0/kiln/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newVersionCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kiln",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if isTerminal(s.out) {
				tui.PrintBanner(s.out, kiln.Version)
				return
			}
			fmt.Fprintf(s.out, "kiln version %s\n", kiln.Version)
		},
	}
}

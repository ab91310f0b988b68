package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pdflinkcheck %s\n", version)
			fmt.Fprintf(out, "  Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "  Git Commit: %s\n", gitCommit)
			fmt.Fprintf(out, "  Built with: %s\n", runtime.Version())
		},
	}
}

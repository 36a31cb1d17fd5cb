package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/goplayer/internal/app"
)

func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			info := app.GetVersionInfo()
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, info.Version)
				return
			}
			fmt.Fprintln(out, info.FullString())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version")
	return cmd
}

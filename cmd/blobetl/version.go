package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			label := color.New(color.FgGreen)
			color.New(color.FgCyan, color.Bold).Fprintf(w, "blobetl %s\n", version)
			label.Fprint(w, "Git commit: ")
			fmt.Fprintln(w, gitCommit)
			label.Fprint(w, "Go version: ")
			fmt.Fprintln(w, runtime.Version())
			label.Fprint(w, "OS/Arch:    ")
			fmt.Fprintf(w, "%s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
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
		Use:   "strand",
		Short: "Incremental reactive runtime for Go",
		Long: `Strand is an incremental computation runtime for UI-shaped workloads.

Components declare ordered hooks over a normalized in-memory store;
transactions commit immutable snapshots and invalidate exactly the
queries whose observed keys changed. Features include:

  • Dirty-bit hook scheduling with suspend/resume
  • Snapshot store with observed reads and transacted writes
  • Depth-ordered cooperative work scheduler
  • Prometheus metrics and a live websocket inspector`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		demoCmd(),
		inspectCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf(format+"\n", args...)
}

// info prints an info message.
func info(format string, args ...any) {
	color.New(color.FgCyan).Print("→ ")
	fmt.Printf(format+"\n", args...)
}

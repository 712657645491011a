package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go"`
	Arch    string `json:"arch"`
}

func currentBuild() buildInfo {
	return buildInfo{
		Version: version,
		Commit:  commit,
		Built:   date,
		Go:      runtime.Version(),
		Arch:    runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func versionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			bi := currentBuild()

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				enc.Encode(bi)
				return
			}

			color.New(color.Bold).Printf("strand %s", bi.Version)
			fmt.Printf(" (%s, %s)\n", bi.Commit, bi.Built)
			fmt.Printf("%s %s\n", bi.Go, bi.Arch)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Machine-readable output")

	return cmd
}

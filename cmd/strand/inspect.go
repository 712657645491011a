package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/strandui/strand/internal/config"
	"github.com/strandui/strand/pkg/engine"
	"github.com/strandui/strand/pkg/inspect"
)

func inspectCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve the debug inspector over a sandbox engine",
		Long: `Start the inspector HTTP server over a sandbox engine with the demo
task handlers registered. Useful for poking at the engine from a
browser or websocket client: submit events, watch the transaction
stream, browse live components and queries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.Load(cwd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			rt := engine.NewRuntime(
				engine.WithLogger(logger),
				engine.WithMetrics(engine.NewMetrics()),
			)
			registerTaskHandlers(rt)
			if _, err := rt.MountComponent(taskListConfig()); err != nil {
				return err
			}

			srv := inspect.NewServer(rt, inspect.WithServerLogger(logger))
			rt.AddObserver(srv.Hub())

			if addr == "" {
				addr = cfg.InspectorAddress()
			}
			info("inspector listening on http://%s", addr)
			return srv.ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Bind address (default from strand.yaml)")

	return cmd
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/strandui/strand/internal/config"
	"github.com/strandui/strand/pkg/engine"
	"github.com/strandui/strand/pkg/inspect"
	"github.com/strandui/strand/pkg/query"
	"github.com/strandui/strand/pkg/store"
)

func demoCmd() *cobra.Command {
	var inspectFlag bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the task-list demo engine",
		Long: `Run a small task-list application through the engine: a component
bound to a collection query, transactions adding and completing tasks,
and a table of the renders the component produced.

With --inspect, the debug inspector stays up afterwards so the live
component and query state can be browsed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(inspectFlag)
		},
	}

	cmd.Flags().BoolVar(&inspectFlag, "inspect", false, "Keep the inspector server running after the demo")

	return cmd
}

const taskEntity = "task"

func taskListConfig() *engine.Config {
	tasks := engine.QueryHook("tasks", func(c *engine.Component) engine.QuerySpec {
		return engine.QuerySpec{Shape: query.Shape{
			query.Join{Key: store.CollectionKey(taskEntity), Shape: query.Shape{"title", "done"}},
		}}
	})
	tasks.Affects = engine.Bits(1)
	tasks.RenderDep = true

	remaining := engine.ValueHook("remaining", func(c *engine.Component) any {
		out, _ := c.HookValue(0).(map[any]any)
		rows, _ := out[store.CollectionKey(taskEntity)].([]any)
		n := 0
		for _, row := range rows {
			task, _ := row.(map[any]any)
			if done, _ := task["done"].(bool); !done {
				n++
			}
		}
		return n
	})
	remaining.DependsOn = engine.Bits(0)
	remaining.RenderDep = true

	return &engine.Config{
		Name:  "task-list",
		Slots: []engine.SlotDescriptor{tasks, remaining},
		Render: func(c *engine.Component) any {
			out, _ := c.HookValue(0).(map[any]any)
			rows, _ := out[store.CollectionKey(taskEntity)].([]any)
			titles := make([]string, 0, len(rows))
			for _, row := range rows {
				task, _ := row.(map[any]any)
				title, _ := task["title"].(string)
				if done, _ := task["done"].(bool); done {
					title += " ✔"
				}
				titles = append(titles, title)
			}
			sort.Strings(titles)
			return fmt.Sprintf("%d open | %s", c.HookValue(1), strings.Join(titles, ", "))
		},
	}
}

func registerTaskHandlers(rt *engine.Runtime) {
	rt.RegisterEventHandler("add-task", func(env engine.TxEnv, ev engine.Event) engine.TxEnv {
		id := ev.Payload["id"]
		env.DB = env.DB.Put(store.NewIdent(taskEntity, id), map[any]any{
			"title": ev.Payload["title"],
			"done":  false,
		})
		return env
	})
	rt.RegisterEventHandler("complete-task", func(env engine.TxEnv, ev engine.Event) engine.TxEnv {
		id := store.NewIdent(taskEntity, ev.Payload["id"])
		task := env.DB.Get(id).(map[any]any)
		next := make(map[any]any, len(task))
		for k, v := range task {
			next[k] = v
		}
		next["done"] = true
		env.DB = env.DB.Put(id, next)
		return env
	})
}

func runDemo(withInspector bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	opts := []engine.Option{engine.WithLogger(logger)}
	if cfg.Engine.Metrics {
		opts = append(opts, engine.WithMetrics(engine.NewMetrics()))
	}
	rt := engine.NewRuntime(opts...)
	registerTaskHandlers(rt)

	var srv *inspect.Server
	if withInspector {
		srv = inspect.NewServer(rt, inspect.WithServerLogger(logger))
		rt.AddObserver(srv.Hub())
	}

	target := &engine.RecordingTarget{}
	comp, err := rt.MountComponent(taskListConfig(), engine.WithTarget(target))
	if err != nil {
		return err
	}

	info("demo: three transactions against the task store")
	rt.Submit(engine.Event{ID: "add-task", Payload: map[string]any{"id": 1, "title": "write spec"}})
	rt.Submit(engine.Event{ID: "add-task", Payload: map[string]any{"id": 2, "title": "ship engine"}})
	rt.Submit(engine.Event{ID: "complete-task", Payload: map[string]any{"id": 1}})

	printRenders(target.Updates())
	printTasks(rt)
	success("renders: %d, skips: %d", comp.RenderCount(), comp.RenderSkips())

	if withInspector {
		info("inspector listening on http://%s (Ctrl-C to exit)", cfg.InspectorAddress())
		go func() {
			if err := srv.ListenAndServe(cfg.InspectorAddress()); err != nil {
				logger.Error("inspector stopped", "error", err)
			}
		}()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
	}
	return nil
}

func printRenders(updates []any) {
	bold := color.New(color.Bold)
	bold.Println("\nRender log")

	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"#", "Output"})
	for i, out := range updates {
		table.Append([]string{fmt.Sprint(i + 1), fmt.Sprint(out)})
	}
	table.Render()
	fmt.Println()
}

// printTasks reads the final store state through the same pull path
// components use and renders it as a table.
func printTasks(rt *engine.Runtime) {
	bold := color.New(color.Bold)
	bold.Println("Store contents")

	r := store.NewReader(rt.Snapshot())
	result := query.PullExecutor{}.Query(nil, r, nil, query.Shape{
		query.Join{Key: store.CollectionKey(taskEntity), Shape: query.Shape{"title", "done"}},
	})
	out, _ := result.(map[any]any)
	rows, _ := out[store.CollectionKey(taskEntity)].([]any)

	table := tablewriter.NewTable(os.Stdout)
	table.Header([]string{"Title", "Done"})
	for _, row := range rows {
		task, _ := row.(map[any]any)
		table.Append([]string{
			fmt.Sprint(task["title"]),
			fmt.Sprint(task["done"]),
		})
	}
	table.Render()
	fmt.Println()
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

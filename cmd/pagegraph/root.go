package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"pagegraph/internal/config"
	"pagegraph/internal/ctxkeys"
	"pagegraph/internal/logger"
	"pagegraph/internal/storage"
	"pagegraph/pkg/api"
	"pagegraph/pkg/model"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
)

var (
	Version = "dev"
	Commit  = "none"
)

// app 命令执行期间共享的状态
type app struct {
	configPath string
	logLevel   string
	memory     bool

	cfg *config.Config
	log logger.Logger
	svc api.Service
	ctx context.Context
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pagegraph",
		Short:         "Build resource dependency graphs from DevTools network event logs",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.svc == nil {
				return nil
			}
			return a.svc.Close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (trace, debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.memory, "memory", false, "Use the in-memory graph store")

	root.AddCommand(
		a.buildCmd(),
		a.showCmd(),
		a.listCmd(),
		a.deleteCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "pagegraph version %s\n", Version)
				fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", Commit)
			},
		},
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.memory {
		cfg.Storage.Driver = "memory"
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{Level: cfg.Log.Level, Writer: cfg.Log.Writer, File: cfg.Log.File})

	exclude, err := cfg.ExclusionEngine()
	if err != nil {
		return err
	}

	var store storage.Store
	switch cfg.Storage.Driver {
	case "memory":
		store = storage.NewMemoryStore(a.log)
	default:
		store, err = storage.OpenSQLite(cfg.Sqlite.Dsn, cfg.Sqlite.Prefix, a.log)
		if err != nil {
			return err
		}
	}

	a.svc = api.NewService(api.Config{Store: store, Exclude: exclude, Logger: a.log})
	a.ctx = context.WithValue(context.Background(), ctxkeys.TraceIDKey{}, uuid.NewString())
	return nil
}

func (a *app) buildCmd() *cobra.Command {
	var (
		output string
		source string
		noSave bool
	)
	cmd := &cobra.Command{
		Use:   "build <trace.json|->",
		Short: "Build a dependency graph from an event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, name, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			defer in.Close()
			if source == "" {
				source = name
			}

			res, err := a.svc.BuildGraph(a.ctx, in, source, !noSave)
			if err != nil {
				return err
			}
			if output != "" {
				if err := writeGraph(cmd, output, res.Graph, res.ID); err != nil {
					return err
				}
			}
			if output != "-" {
				printStats(cmd.OutOrStdout(), res)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write graph JSON to file (\"-\" for stdout)")
	cmd.Flags().StringVar(&source, "source", "", "Source label stored with the graph (defaults to the file name)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not persist the graph")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <graph-id>",
		Short: "Print a stored graph as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.GraphID(args[0])
			g, err := a.svc.GetGraph(a.ctx, id)
			if err != nil {
				return err
			}
			return writeGraph(cmd, output, g, id)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Write graph JSON to file (\"-\" for stdout)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.svc.ListGraphs(a.ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tNODES\tLINKS\tINSTANCES\tSOURCE")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
					s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.Nodes, s.Links, s.Instances, s.Source)
			}
			return tw.Flush()
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <graph-id>",
		Short: "Delete a stored graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.DeleteGraph(a.ctx, model.GraphID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "stdin", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("打开事件日志失败: %w", err)
	}
	return f, path, nil
}

// writeGraph 输出图 JSON，已保存的图带上 id 字段
func writeGraph(cmd *cobra.Command, output string, g *model.Graph, id model.GraphID) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化依赖图失败: %w", err)
	}
	if id != "" {
		if data, err = sjson.SetBytes(data, "id", string(id)); err != nil {
			return fmt.Errorf("写入图ID失败: %w", err)
		}
	}
	data = append(data, '\n')

	if output == "-" || output == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}

func printStats(w io.Writer, res *api.BuildResult) {
	g := res.Graph
	if res.ID != "" {
		fmt.Fprintf(w, "graph:      %s\n", res.ID)
	}
	fmt.Fprintf(w, "nodes:      %d\n", len(g.Nodes))
	fmt.Fprintf(w, "links:      %d\n", len(g.Links))
	fmt.Fprintf(w, "events:     %d (skipped %d)\n", g.Stats.Events, g.Stats.Skipped)
	fmt.Fprintf(w, "instances:  %d\n", g.Stats.Instances)
	fmt.Fprintf(w, "dropped:    orphaned=%d broken-redirects=%d incomplete=%d excluded=%d uncaptured-initiators=%d\n",
		g.Stats.Orphaned, g.Stats.BrokenRedirects, g.Stats.Incomplete, g.Stats.Excluded, g.Stats.UncapturedInitiators)
}

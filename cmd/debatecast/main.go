package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alienxp03/debatecast/internal/client"
	"github.com/alienxp03/debatecast/internal/config"
	"github.com/alienxp03/debatecast/internal/core"
	"github.com/alienxp03/debatecast/internal/export"
	"github.com/alienxp03/debatecast/internal/plain"
	"github.com/alienxp03/debatecast/internal/renderer"
	"github.com/alienxp03/debatecast/internal/storage"
	"github.com/alienxp03/debatecast/internal/tui"
)

var (
	configPath string
	dbPath     string
	serverURL  string
	debug      bool
	plainFlag  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "debatecast [topic]",
	Short: "Watch AI agents debate a topic",
	Long: `debatecast submits a topic to a debate server and renders the
streamed debate live: agents join with their stance, think, and argue,
with each argument typed out as it arrives.

Without a subcommand it behaves like 'debatecast watch'.`,
	Args:          cobra.ArbitraryArgs,
	RunE:          runWatch,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.debatecast/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: ~/.debatecast/debatecast.db)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Debate endpoint URL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&plainFlag, "plain", false, "Print lines instead of the interactive viewer")
	watchCmd.Flags().BoolVar(&plainFlag, "plain", false, "Print lines instead of the interactive viewer")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(pingCmd)
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(configPath)
	}
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// setupLogger installs the default JSON logger writing to w.
func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}
	logger := slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// openLogFile opens the viewer's log file. The alternate screen owns the
// terminal, so the interactive viewer never logs to stderr.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func getStorage(cfg *config.Config) (storage.Storage, error) {
	path := cfg.Storage.DBPath
	if path == "" {
		path = storage.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}

	if err := store.Initialize(); err != nil {
		store.Close()
		return nil, err
	}

	return store, nil
}

// rendererOptions returns the options shared by both views. The returned
// close function releases the history store, if any.
func rendererOptions(cfg *config.Config, logger *slog.Logger) ([]renderer.Option, func()) {
	opts := []renderer.Option{
		renderer.WithServer(cfg.Server.URL),
		renderer.WithLogger(logger),
	}
	if !cfg.Storage.Enabled {
		return opts, func() {}
	}

	store, err := getStorage(cfg)
	if err != nil {
		logger.Warn("History disabled", "error", err)
		return opts, func() {}
	}
	opts = append(opts, renderer.WithRecorder(store))
	return opts, func() { store.Close() }
}

func newOpener(cfg *config.Config) renderer.Opener {
	var copts []client.Option
	if cfg.Server.NumTurns > 0 {
		copts = append(copts, client.WithNumTurns(cfg.Server.NumTurns))
	}
	return renderer.FromClient(client.New(cfg.Server.URL, copts...))
}

// watch command - interactive viewer
var watchCmd = &cobra.Command{
	Use:   "watch [topic]",
	Short: "Open the interactive debate viewer",
	Long: `Open the interactive viewer. An optional topic is submitted right away;
more topics can be entered once a debate concludes.

Examples:
  debatecast watch
  debatecast watch "Should cities ban cars?"
  debatecast watch --server http://debates.local:8000/debate`,
	Args: cobra.ArbitraryArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if plainFlag || cfg.Display.Plain {
		if len(args) == 0 {
			return errors.New("a topic is required in plain mode")
		}
		return runPlain(cmd.Context(), cfg, strings.Join(args, " "))
	}

	logFile, err := openLogFile(cfg.Log.Path)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := setupLogger(cfg, logFile)

	opts, closeStore := rendererOptions(cfg, logger)
	defer closeStore()
	opts = append(opts, renderer.WithInterval(cfg.Display.RevealInterval))

	r, notifier := tui.NewRenderer(newOpener(cfg), opts...)
	logger.Info("Starting viewer", "server", cfg.Server.URL)
	app := tui.New(cmd.Context(), r, strings.Join(args, " "))
	return app.Run(notifier)
}

// run command - plain line output
var runCmd = &cobra.Command{
	Use:   "run [topic]",
	Short: "Stream one debate as plain lines",
	Long: `Stream a single debate to stdout without the interactive viewer.
Colors are dropped automatically when stdout is not a terminal.

Examples:
  debatecast run "Is remote work here to stay?"
  debatecast run "Nuclear power" | tee debate.log`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runPlain(cmd.Context(), cfg, strings.Join(args, " "))
	},
}

func runPlain(ctx context.Context, cfg *config.Config, topic string) error {
	logger := setupLogger(cfg, os.Stderr)

	opts, closeStore := rendererOptions(cfg, logger)
	defer closeStore()

	printer := plain.New(os.Stdout, cfg.Display.RevealInterval)

	// The printer types arguments itself.
	var r *renderer.Renderer
	opts = append(opts,
		renderer.WithInterval(0),
		renderer.WithOnChange(func(c renderer.Change) { printer.OnChange(r.Session())(c) }),
	)
	r = renderer.New(newOpener(cfg), opts...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := r.Submit(ctx, topic)
	r.Wait()
	printer.Close()

	if errors.Is(err, context.Canceled) {
		fmt.Println("\nInterrupted.")
		return nil
	}
	if err != nil {
		return err
	}
	if rec := r.Session().Record(cfg.Server.URL); rec.Status == core.StatusFailed {
		return fmt.Errorf("could not stream debate from %s", cfg.Server.URL)
	}
	return nil
}

// history command - list recorded debates
var historyLimit int

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"list"},
	Short:   "List recorded debates",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.ListSessions(historyLimit, 0)
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No debates recorded. Watch one with: debatecast \"Your topic\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTOPIC\tSTATUS\tAGENTS\tARGUMENTS\tSTARTED")
		fmt.Fprintln(w, "──\t─────\t──────\t──────\t─────────\t───────")

		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				core.ShortID(s.ID),
				truncate(s.Topic, 40),
				s.Status,
				s.AgentCount,
				s.MessageCount,
				s.StartedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "Maximum number of debates to list")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func openStore() (storage.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg, os.Stderr)
	store, err := getStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// findSession resolves an ID prefix to a stored record.
func findSession(store storage.Storage, prefix string) (*core.Record, error) {
	id, err := store.FindByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	rec, err := store.GetSession(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("debate not found: %s", prefix)
	}
	return rec, nil
}

// show command
var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a recorded debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := findSession(store, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Debate: %s\n", rec.Topic)
		fmt.Printf("   ID: %s\n", rec.ID)
		fmt.Printf("   Status: %s\n", rec.Status)
		if rec.Server != "" {
			fmt.Printf("   Server: %s\n", rec.Server)
		}
		fmt.Printf("   Started: %s\n", rec.StartedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Println(strings.Repeat("─", 60))

		p := plain.New(os.Stdout, 0)
		p.PrintRecord(rec)
		p.Close()
		return nil
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a recorded debate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.FindByPrefix(args[0])
		if err != nil {
			return err
		}
		if err := store.DeleteSession(id); err != nil {
			return err
		}

		fmt.Printf("Deleted debate: %s\n", id)
		return nil
	},
}

// export command
var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export a recorded debate",
	Long: `Export a recorded debate as Markdown, JSON or PDF.

Examples:
  debatecast export 0f4c2a9e
  debatecast export 0f4c2a9e --format pdf -o cars.pdf
  debatecast export 0f4c2a9e --format json -o -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := export.GetExporter(export.Format(exportFormat))
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := findSession(store, args[0])
		if err != nil {
			return err
		}

		if exportOutput == "-" {
			return exp.Export(rec, os.Stdout)
		}

		path := exportOutput
		if path == "" {
			path = export.GenerateFilename(rec, exp.FileExtension())
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := exp.Export(rec, f); err != nil {
			f.Close()
			return fmt.Errorf("export failed: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Export format (markdown, json, pdf)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file, - for stdout (default: generated name)")
}

// ping command
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the debate server is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		status := client.New(cfg.Server.URL).Check(cmd.Context())
		if !status.Available {
			return fmt.Errorf("%s unavailable: %s", cfg.Server.URL, status.Error)
		}
		fmt.Printf("%s reachable (HTTP %d, %s)\n", cfg.Server.URL, status.StatusCode, status.ResponseTime.Round(time.Millisecond))
		return nil
	},
}

// config commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.GenerateExample()), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "server.url\t%s\n", cfg.Server.URL)
		fmt.Fprintf(w, "server.num_turns\t%d\n", cfg.Server.NumTurns)
		fmt.Fprintf(w, "display.reveal_interval\t%s\n", cfg.Display.RevealInterval)
		fmt.Fprintf(w, "display.plain\t%t\n", cfg.Display.Plain)
		fmt.Fprintf(w, "storage.enabled\t%t\n", cfg.Storage.Enabled)
		fmt.Fprintf(w, "storage.db_path\t%s\n", cfg.Storage.DBPath)
		fmt.Fprintf(w, "log.path\t%s\n", cfg.Log.Path)
		fmt.Fprintf(w, "log.level\t%s\n", cfg.Log.Level)
		return w.Flush()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdpage/internal/config"
	"github.com/dgallion1/mdpage/internal/logging"
	"github.com/dgallion1/mdpage/internal/notify"
	"github.com/dgallion1/mdpage/internal/page"
	"github.com/dgallion1/mdpage/internal/pipeline"
	"github.com/dgallion1/mdpage/internal/render"
)

// Version is set at build time.
var Version = "dev"

type app struct {
	configPath string
	logFormat  string
	logLevel   string

	cfg    config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the mdpage command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "mdpage",
		Short: "Export markdown documents as self-contained HTML pages",
		Long: `mdpage converts markdown documents into styled HTML pages with a table
of contents, inlined images and, for whole workspaces, a navigation menu
mirroring the folder tree.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("mdpage {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	pf.StringVar(&a.logFormat, "log-format", "", "log output format (json, text)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newExportCmd(a),
		newExportAllCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.stdout = cmd.OutOrStdout()
	a.stderr = cmd.ErrOrStderr()
	a.log, err = logging.New(a.stderr, cfg.LogFormat, cfg.LogLevel)
	return err
}

// validate checks the final configuration once command flags are applied.
func (a *app) validate() error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !render.HasStyle(a.cfg.HighlightStyle) {
		return fmt.Errorf("invalid configuration: unknown highlight style %q", a.cfg.HighlightStyle)
	}
	return nil
}

func (a *app) builder() *page.Builder {
	return &page.Builder{
		Renderer:      render.NewGoldmark(a.cfg.HighlightStyle),
		RenderOptions: render.Options{RewriteLinks: a.cfg.RewriteLinks},
		FormatOptions: page.FormatOptions{Timeout: a.cfg.FormatTimeout},
		SkipFormat:    !a.cfg.Format,
		Logger:        a.log,
	}
}

func (a *app) exporter(stats *pipeline.Stats) *pipeline.Exporter {
	return pipeline.NewExporter(
		a.builder(),
		notify.NewConsole(a.stdout, a.stderr, a.log),
		stats,
		pipeline.Options{
			Root:          a.cfg.Root,
			OutDir:        a.cfg.OutDir,
			Workers:       a.cfg.Workers,
			Exclude:       a.cfg.Exclude,
			FolderAliases: a.cfg.FolderAliases,
		},
		a.log,
	)
}

func (a *app) newStats() *pipeline.Stats {
	return pipeline.NewStats(time.Hour)
}

// commonFlags binds the export flags shared by several commands.
func (a *app) commonFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "write pages under this directory instead of beside their sources")
	cmd.Flags().Bool("no-format", false, "skip HTML pretty-printing")
}

// applyFlags copies changed command flags and an optional ROOT argument
// into the configuration.
func (a *app) applyFlags(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	if fs.Changed("out") {
		a.cfg.OutDir, _ = fs.GetString("out")
	}
	if fs.Changed("no-format") {
		noFormat, _ := fs.GetBool("no-format")
		a.cfg.Format = !noFormat
	}
	if fs.Lookup("workers") != nil && fs.Changed("workers") {
		a.cfg.Workers, _ = fs.GetInt("workers")
	}
	if fs.Lookup("exclude") != nil && fs.Changed("exclude") {
		a.cfg.Exclude, _ = fs.GetStringSlice("exclude")
	}
	if fs.Lookup("port") != nil && fs.Changed("port") {
		a.cfg.Port, _ = fs.GetString("port")
	}
	if len(args) > 0 {
		a.cfg.Root = args[0]
	}
	return a.validate()
}

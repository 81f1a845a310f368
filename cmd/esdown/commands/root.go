// Package commands implements the esdown CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/esdown/pkg/config"
	"github.com/Sumatoshi-tech/esdown/pkg/observability"
	"github.com/Sumatoshi-tech/esdown/pkg/version"
)

const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
	flagLogJSON  = "log-json"
	flagNoColor  = "no-color"
)

// ErrNotJavaScript is returned for inputs that are recognizably another
// language.
var ErrNotJavaScript = errors.New("input is not JavaScript")

// App carries the state shared by every subcommand. It is populated by the
// root command's pre-run hook.
type App struct {
	Fs afero.Fs

	Config  *config.Config
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.TranslateMetrics

	shutdown func(context.Context) error

	configPath string
	logLevel   string
	logJSON    bool
	noColor    bool
}

// NewRootCommand builds the esdown command tree over fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	app := &App{Fs: fs}

	cmd := &cobra.Command{
		Use:   "esdown",
		Short: "Down-level modern JavaScript and bundle ES modules",
		Long: `esdown translates modern JavaScript into code that runs on older engines
and bundles a module graph into a single script.

Commands:
  translate  Translate one module or script
  bundle     Bundle a module and everything it imports
  graph      Print the module graph of a bundle root
  runtime    Print the runtime helper library`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  app.setup,
		PersistentPostRunE: app.teardown,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.configPath, flagConfig, "", "config file (default: .esdown.yaml in . or ./config)")
	pf.StringVar(&app.logLevel, flagLogLevel, "", "log level: debug, info, warn, error")
	pf.BoolVar(&app.logJSON, flagLogJSON, false, "write logs as JSON")
	pf.BoolVar(&app.noColor, flagNoColor, false, "disable colored output")

	cmd.AddCommand(
		NewTranslateCommand(app),
		NewBundleCommand(app),
		NewGraphCommand(app),
		NewRuntimeCommand(),
		newVersionCommand(),
	)

	return cmd
}

func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()

	if flags.Changed(flagLogLevel) {
		if _, err := config.ParseLevel(a.logLevel); err != nil {
			return err
		}

		cfg.Logging.Level = a.logLevel
	}

	if flags.Changed(flagLogJSON) {
		cfg.Logging.JSON = a.logJSON
	}

	if a.noColor {
		color.NoColor = true
	}

	obsCfg := cfg.Observability(version.Version)
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	metrics, err := observability.NewTranslateMetrics(providers.Meter)
	if err != nil {
		return errors.Join(err, providers.Shutdown(context.Background()))
	}

	a.Config = cfg
	a.Logger = providers.Logger
	a.Tracer = providers.Tracer
	a.Metrics = metrics
	a.shutdown = providers.Shutdown

	return nil
}

func (a *App) teardown(_ *cobra.Command, _ []string) error {
	if a.shutdown == nil {
		return nil
	}

	if err := a.shutdown(context.Background()); err != nil {
		a.Logger.Warn("observability shutdown failed", "error", err)
	}

	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

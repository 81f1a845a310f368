package commands

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/esdown/pkg/bundle"
	"github.com/Sumatoshi-tech/esdown/pkg/config"
)

// BundleCommand holds the flags of esdown bundle.
type BundleCommand struct {
	app *App

	output             string
	global             string
	maxConcurrentReads int64
	runtime            bool
	wrap               bool
	quiet              bool
}

// NewBundleCommand creates the bundle subcommand.
func NewBundleCommand(app *App) *cobra.Command {
	bc := &BundleCommand{app: app}

	cmd := &cobra.Command{
		Use:   "bundle <root>",
		Short: "Bundle a module and everything it imports",
		Long: `Bundle the module at root together with every local module it imports,
directly or transitively, into a single script. Imports with a URL scheme
are left to the runtime loader.`,
		Args: cobra.ExactArgs(1),
		RunE: bc.run,
	}

	cmd.Flags().StringVarP(&bc.output, "output", "o", "", "write the bundle to file instead of stdout")
	cmd.Flags().StringVarP(&bc.global, "global", "g", "", "global name the bundle is published as")
	cmd.Flags().Int64Var(&bc.maxConcurrentReads, "max-concurrent-reads", 0, "cap on in-flight module reads (0 = no cap)")
	cmd.Flags().BoolVarP(&bc.runtime, "runtime", "r", false, "prepend the runtime helper library")
	cmd.Flags().BoolVar(&bc.wrap, "wrap", true, "wrap the bundle in the module loader shim")
	cmd.Flags().BoolVarP(&bc.quiet, "quiet", "q", false, "do not print the summary line")

	return cmd
}

func (bc *BundleCommand) run(cmd *cobra.Command, args []string) error {
	cfg := bc.app.Config
	flags := cmd.Flags()

	if !flags.Changed("runtime") {
		bc.runtime = cfg.Bundle.Runtime
	}

	if !flags.Changed("max-concurrent-reads") {
		bc.maxConcurrentReads = cfg.Bundle.MaxConcurrentReads
	}

	if bc.maxConcurrentReads < 0 {
		return fmt.Errorf("%w: %d", config.ErrInvalidConcurrency, bc.maxConcurrentReads)
	}

	if !flags.Changed("global") {
		bc.global = cfg.Translate.Global
	}

	res, err := bc.app.bundle(cmd.Context(), args[0], func(o *bundle.Options) {
		o.Runtime = bc.runtime
		o.Wrap = bc.wrap
		o.Global = bc.global
		o.MaxConcurrentReads = bc.maxConcurrentReads
	})
	if err != nil {
		return err
	}

	if err := writeOutput(bc.app.Fs, cmd.OutOrStdout(), bc.output, res.Text); err != nil {
		return err
	}

	if !bc.quiet && bc.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d modules, %d external, %s -> %s\n",
			color.GreenString("bundled"),
			len(res.Order),
			len(res.Dependencies),
			humanize.Bytes(uint64(len(res.Text))),
			bc.output)
	}

	return nil
}

// bundle runs the bundler over the app file system with the configured
// resolver and telemetry. configure adjusts the options per command.
func (a *App) bundle(ctx context.Context, root string, configure func(*bundle.Options)) (*bundle.Result, error) {
	if err := checkRoot(a.Fs, root); err != nil {
		return nil, err
	}

	opts := bundle.Options{
		Fs:       a.Fs,
		Resolver: a.Config.NewResolver(a.Fs),
		Logger:   a.Logger,
		Tracer:   a.Tracer,
		Metrics:  a.Metrics,
		Schemes:  a.Config.Schemes(),
	}

	if configure != nil {
		configure(&opts)
	}

	return bundle.Bundle(ctx, root, opts) //nolint:wrapcheck // errors carry their module path
}

// checkRoot applies the language guard to the bundle root; dependencies
// are taken as they are imported.
func checkRoot(fs afero.Fs, root string) error {
	data, err := afero.ReadFile(fs, root)
	if err != nil {
		return nil //nolint:nilerr // the bundler reports unreadable roots with their path
	}

	return checkLanguage(root, data)
}

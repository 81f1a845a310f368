// Package main provides the entry point for the esdown CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/esdown/cmd/esdown/commands"
	"github.com/Sumatoshi-tech/esdown/pkg/diag"
	"github.com/Sumatoshi-tech/esdown/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := commands.NewRootCommand(afero.NewOsFs()).ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, diag.Excerpt(err, !color.NoColor))
		os.Exit(1)
	}
}

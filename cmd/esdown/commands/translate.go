package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/src-d/enry/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/esdown/pkg/diag"
	"github.com/Sumatoshi-tech/esdown/pkg/runtime"
	"github.com/Sumatoshi-tech/esdown/pkg/translate"
)

const (
	stdinPath     = "-"
	outputPerm    = 0o644
	langJS        = "JavaScript"
	diffLinePlus  = "+"
	diffLineMinus = "-"
	diffLineSame  = " "
)

// TranslateCommand holds the flags of esdown translate.
type TranslateCommand struct {
	app *App

	output  string
	global  string
	runtime bool
	wrap    bool
	script  bool
	diff    bool
}

// NewTranslateCommand creates the translate subcommand.
func NewTranslateCommand(app *App) *cobra.Command {
	tc := &TranslateCommand{app: app}

	cmd := &cobra.Command{
		Use:   "translate [file]",
		Short: "Translate one module or script",
		Long: `Translate a single file, or standard input when the file is omitted or "-".

Imports are bound to __load calls at the top of the output. Use --wrap to
enclose the result in a loader shim that works under CommonJS and, with
--global, in browsers.`,
		Args: cobra.MaximumNArgs(1),
		RunE: tc.run,
	}

	cmd.Flags().StringVarP(&tc.output, "output", "o", "", "write output to file instead of stdout")
	cmd.Flags().StringVarP(&tc.global, "global", "g", "", "global name the wrapped module is published as")
	cmd.Flags().BoolVarP(&tc.runtime, "runtime", "r", false, "prepend the runtime helper library")
	cmd.Flags().BoolVarP(&tc.wrap, "wrap", "w", false, "wrap the output in the module loader shim")
	cmd.Flags().BoolVar(&tc.script, "script", false, "parse the input as a script instead of a module")
	cmd.Flags().BoolVar(&tc.diff, "diff", false, "print a line diff of input and output instead of the output")

	return cmd
}

func (tc *TranslateCommand) run(cmd *cobra.Command, args []string) error {
	cfg := tc.app.Config
	flags := cmd.Flags()

	if !flags.Changed("runtime") {
		tc.runtime = cfg.Translate.Runtime
	}

	if !flags.Changed("wrap") {
		tc.wrap = cfg.Translate.Wrap
	}

	if !flags.Changed("global") {
		tc.global = cfg.Translate.Global
	}

	path := stdinPath
	if len(args) > 0 {
		path = args[0]
	}

	source, err := tc.read(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	text, err := tc.translate(cmd.Context(), path, source)
	if err != nil {
		return err
	}

	if tc.diff {
		_, err := io.WriteString(cmd.OutOrStdout(), lineDiff(source, text))

		return err //nolint:wrapcheck // write to stdout
	}

	return writeOutput(tc.app.Fs, cmd.OutOrStdout(), tc.output, text)
}

func (tc *TranslateCommand) read(stdin io.Reader, path string) (string, error) {
	if path == stdinPath {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", &diag.IOError{Path: "<stdin>", Err: err}
		}

		return string(data), nil
	}

	data, err := afero.ReadFile(tc.app.Fs, path)
	if err != nil {
		return "", &diag.IOError{Path: path, Err: err}
	}

	if err := checkLanguage(path, data); err != nil {
		return "", err
	}

	return string(data), nil
}

func (tc *TranslateCommand) translate(ctx context.Context, path, source string) (string, error) {
	ctx, span := tc.app.Tracer.Start(ctx, "esdown.translate", trace.WithAttributes(attribute.String("module.path", path)))
	defer span.End()

	started := time.Now()

	out, err := translate.Translate(ctx, source, translate.Options{
		Module:  !tc.script,
		Logger:  tc.app.Logger,
		Schemes: tc.app.Config.Schemes(),
	})
	if err != nil {
		if path != stdinPath {
			err = diag.WithPath(err, path)
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tc.app.Metrics.RecordModule(ctx, time.Since(started), diag.Kind(err))

		return "", err
	}

	tc.app.Metrics.RecordModule(ctx, time.Since(started), "")

	text := out.Text

	if tc.runtime {
		text = runtime.Prepend(text)
	}

	if tc.wrap {
		text = runtime.Wrap(text, tc.global)
	}

	tc.app.Metrics.RecordOutput(ctx, "translate", len(text))

	return text, nil
}

// checkLanguage rejects files that enry identifies as something other than
// JavaScript. Unknown extensions are let through.
func checkLanguage(path string, content []byte) error {
	lang := enry.GetLanguage(filepath.Base(path), content)
	if lang == "" || lang == langJS {
		return nil
	}

	return fmt.Errorf("%w: %s looks like %s", ErrNotJavaScript, path, lang)
}

func writeOutput(fs afero.Fs, stdout io.Writer, path, text string) error {
	if path == "" || path == stdinPath {
		if _, err := io.WriteString(stdout, text); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		return nil
	}

	if err := afero.WriteFile(fs, path, []byte(text), outputPerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// lineDiff renders a line-level diff of before and after, with removed
// lines in red and added lines in green.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)

	var b strings.Builder

	for _, d := range diffs {
		prefix, paint := diffLineSame, (*color.Color)(nil)

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, paint = diffLineMinus, removed
		case diffmatchpatch.DiffInsert:
			prefix, paint = diffLinePlus, added
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			line = prefix + strings.TrimSuffix(line, "\n")
			if paint != nil {
				line = paint.Sprint(line)
			}

			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/Sumatoshi-tech/esdown/pkg/diag"
	"github.com/Sumatoshi-tech/esdown/pkg/observability"
	"github.com/Sumatoshi-tech/esdown/pkg/resolve"
	"github.com/Sumatoshi-tech/esdown/pkg/runtime"
	"github.com/Sumatoshi-tech/esdown/pkg/translate"
)

// Reader reads module source files.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

// Resolver maps an import specifier to a module path.
type Resolver interface {
	Resolve(specifier, dir string) (string, error)
}

// FSReader reads modules from an afero file system.
type FSReader struct {
	Fs afero.Fs
}

// ReadFile implements Reader.
func (r FSReader) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(r.Fs, path) //nolint:wrapcheck // wrapped by the caller as diag.IOError
}

// Options configures Bundle.
type Options struct {
	// Fs backs the default Reader and Resolver. Nil means the OS file system.
	Fs       afero.Fs
	Reader   Reader
	Resolver Resolver

	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.TranslateMetrics

	Schemes resolve.Schemes

	// Global names the browser global the wrapped bundle is published as.
	Global string

	// MaxConcurrentReads caps in-flight module reads. Zero means no cap.
	MaxConcurrentReads int64

	// Runtime prepends the helper library.
	Runtime bool

	// Wrap encloses the bundle in the loader shim.
	Wrap bool
}

// Result is an assembled bundle.
type Result struct {
	Graph *Graph
	Text  string

	// Order lists the bundled modules in output order.
	Order []ModuleID

	// Dependencies lists the external modules the bundle loads at run time.
	Dependencies []string
}

type fetch struct {
	done chan struct{}
	err  error
	path string
	data []byte
	id   ModuleID
}

type bundler struct {
	opts     Options
	reader   Reader
	resolver Resolver
	logger   *slog.Logger
	tracer   trace.Tracer
	sem      *semaphore.Weighted
	graph    *Graph
}

// Bundle builds the bundle rooted at the module at root.
//
// Reads are issued as soon as a module is discovered and run concurrently.
// Translation happens on the calling goroutine in discovery order, so the
// graph, module names and output are the same on every run. The first read
// or translation error aborts the bundle.
func Bundle(ctx context.Context, root string, opts Options) (*Result, error) {
	b := newBundler(opts)

	if !filepath.IsAbs(root) {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root: %w", err)
		}

		root = abs
	}

	ctx, span := b.tracer.Start(ctx, "esdown.bundle", trace.WithAttributes(attribute.String("module.path", root)))
	defer span.End()

	started := time.Now()

	if err := b.discover(ctx, root); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	res := b.assemble()

	span.SetAttributes(
		attribute.Int("bundle.modules", len(res.Order)),
		attribute.Int("bundle.bytes", len(res.Text)),
	)
	opts.Metrics.RecordOutput(ctx, "bundle", len(res.Text))

	b.logger.InfoContext(ctx, "bundle complete",
		"root", root,
		"modules", len(res.Order),
		"external", len(res.Dependencies),
		"size", humanize.Bytes(uint64(len(res.Text))),
		"duration", time.Since(started))

	return res, nil
}

func newBundler(opts Options) *bundler {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	b := &bundler{
		opts:     opts,
		reader:   opts.Reader,
		resolver: opts.Resolver,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
	}

	if b.reader == nil {
		b.reader = FSReader{Fs: fs}
	}

	if b.resolver == nil {
		b.resolver = resolve.NewResolver(fs)
	}

	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}

	if b.tracer == nil {
		b.tracer = otel.Tracer(observability.InstrumentationName)
	}

	if opts.MaxConcurrentReads > 0 {
		b.sem = semaphore.NewWeighted(opts.MaxConcurrentReads)
	}

	return b
}

// discover walks the import closure of root. Pending fetches form a FIFO
// queue; the traversal is complete when the queue drains.
func (b *bundler) discover(ctx context.Context, root string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.graph = NewGraph(root)
	queue := []*fetch{b.read(ctx, b.graph.Root())}
	queued := map[ModuleID]bool{b.graph.Root(): true}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("bundle %s: %w", root, err)
		}

		f := queue[0]
		queue = queue[1:]

		select {
		case <-f.done:
		case <-ctx.Done():
			return fmt.Errorf("bundle %s: %w", root, ctx.Err())
		}

		if f.err != nil {
			return &diag.IOError{Path: f.path, Err: f.err}
		}

		if err := b.process(ctx, f); err != nil {
			return err
		}

		for _, e := range b.graph.Module(f.id).Edges {
			if queued[e] || b.graph.Module(e).External() {
				continue
			}

			queued[e] = true
			queue = append(queue, b.read(ctx, e))
		}
	}

	return nil
}

func (b *bundler) read(ctx context.Context, id ModuleID) *fetch {
	f := &fetch{id: id, path: b.graph.Module(id).Path, done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if b.sem != nil {
			if err := b.sem.Acquire(ctx, 1); err != nil {
				f.err = err

				return
			}

			defer b.sem.Release(1)
		}

		f.data, f.err = b.reader.ReadFile(f.path)
	}()

	return f
}

// process translates one module and records its imports as edges.
func (b *bundler) process(ctx context.Context, f *fetch) error {
	ctx, span := b.tracer.Start(ctx, "esdown.translate", trace.WithAttributes(attribute.String("module.path", f.path)))
	defer span.End()

	started := time.Now()
	dir := filepath.Dir(f.path)

	var resolveErr error

	out, err := translate.Translate(ctx, string(f.data), translate.Options{
		Module:  true,
		Logger:  b.logger,
		Schemes: b.opts.Schemes,
		IdentifyModule: func(specifier string) string {
			path, err := b.resolver.Resolve(specifier, dir)
			if err != nil {
				if resolveErr == nil {
					resolveErr = err
				}

				return "void 0"
			}

			to := b.graph.Add(path)
			b.graph.AddEdge(f.id, to)

			return b.graph.Module(to).Name
		},
	})

	if err == nil && resolveErr != nil {
		err = fmt.Errorf("resolve imports of %s: %w", f.path, resolveErr)
	}

	if err != nil {
		err = diag.WithPath(err, f.path)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.opts.Metrics.RecordModule(ctx, time.Since(started), diag.Kind(err))

		return err
	}

	if err := b.graph.SetOutput(f.path, out.Text); err != nil {
		return err
	}

	b.opts.Metrics.RecordModule(ctx, time.Since(started), "")

	m := b.graph.Module(f.id)
	b.logger.DebugContext(ctx, "module translated",
		"path", f.path,
		"id", m.Name,
		"edges", len(m.Edges))

	return nil
}

func (b *bundler) assemble() *Result {
	g := b.graph
	order := g.Sort()
	res := &Result{Graph: g}

	var decls []string

	for _, id := range order {
		m := g.Module(id)

		switch {
		case m.processed:
			value := "{}"
			if id == g.Root() {
				value = "exports"
			}

			decls = append(decls, m.Name+" = "+value)
			res.Order = append(res.Order, id)

		default:
			path, legacy := m.Path, ""
			if b.opts.Schemes.IsLegacy(path) {
				path = b.opts.Schemes.Strip(path)
				legacy = ", 1"
			}

			res.Dependencies = append(res.Dependencies, path)
			decls = append(decls, m.Name+" = __load("+jsonString(path)+legacy+")")
		}
	}

	var out strings.Builder

	if len(decls) > 0 {
		out.WriteString("var " + strings.Join(decls, ", ") + ";\n")
	}

	for _, id := range res.Order {
		m := g.Module(id)
		out.WriteString("\n(function(exports) {\n\n")
		out.WriteString(m.Output)
		out.WriteString("\n\n}).call(this, " + m.Name + ");\n")
	}

	text := out.String()

	if b.opts.Runtime {
		text = runtime.Prepend(text)
	}

	if b.opts.Wrap {
		text = runtime.Wrap(text, b.opts.Global)
	}

	res.Text = text

	return res
}

// jsonString renders s as a string literal the way JSON.stringify does.
func jsonString(s string) string {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return `""`
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

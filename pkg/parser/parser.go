// Package parser turns JavaScript source into the arena AST and scope tree
// consumed by the translator. It wraps the tree-sitter JavaScript grammar.
package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/alexaandru/go-sitter-forest/javascript"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
	"github.com/Sumatoshi-tech/esdown/pkg/diag"
	"github.com/Sumatoshi-tech/esdown/pkg/scope"
)

var (
	errPoolType   = errors.New("parser: pool returned unexpected type")
	errNoRootNode = errors.New("parser: no root node")
)

var (
	languageOnce sync.Once
	language     *sitter.Language

	parserPool = sync.Pool{
		New: func() any {
			p := sitter.NewParser()
			p.SetLanguage(jsLanguage())

			return p
		},
	}
)

func jsLanguage() *sitter.Language {
	languageOnce.Do(func() {
		language = sitter.NewLanguage(javascript.GetLanguage())
	})

	return language
}

// Options configures a parse.
type Options struct {
	// Module enables import and export declarations.
	Module bool
}

// Location is a 1-based line and column.
type Location struct {
	Line   int
	Column int
}

// Result is a parsed module.
type Result struct {
	Tree   *ast.Tree
	Scopes *scope.Tree

	// ASI holds the statements that directly follow an automatically
	// inserted semicolon.
	ASI map[ast.NodeID]bool

	lineStarts []int
}

// Parse parses text. A syntax error is returned as *diag.SyntaxError.
func Parse(ctx context.Context, text string, opts Options) (*Result, error) {
	p, ok := parserPool.Get().(*sitter.Parser)
	if !ok {
		return nil, errPoolType
	}

	defer parserPool.Put(p)

	source := rewritePrivateNames([]byte(text))

	tsTree, err := p.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parser: failed to parse: %w", err)
	}
	defer tsTree.Close()

	root := tsTree.RootNode()
	if root.IsNull() {
		return nil, errNoRootNode
	}

	conv := &converter{
		tree:   ast.NewTree(text, len(text)/4+16),
		fields: make(map[nodeKey]string),
	}
	conv.convert(root, ast.NoNode, "")

	res := &Result{
		Tree:       conv.tree,
		lineStarts: lineStarts(text),
	}

	if len(conv.errs) > 0 {
		bad := res.Tree.Node(conv.errs[0])
		if bad.Start == bad.End {
			return nil, res.SyntaxError(fmt.Sprintf("missing %q", bad.Type), conv.errs[0])
		}

		return nil, res.SyntaxError("unexpected token", conv.errs[0])
	}

	if !opts.Module {
		if id := firstModuleItem(res.Tree); id != ast.NoNode {
			return nil, res.SyntaxError("import and export declarations are only valid in modules", id)
		}
	}

	res.ASI = autoSemicolons(res.Tree)
	res.Scopes = scope.Build(res.Tree)

	return res, nil
}

// Locate returns the location of a byte offset.
func (r *Result) Locate(offset int) Location {
	line := sort.Search(len(r.lineStarts), func(i int) bool {
		return r.lineStarts[i] > offset
	})

	return Location{Line: line, Column: offset - r.lineStarts[line-1] + 1}
}

// SyntaxError builds an error located at node id.
func (r *Result) SyntaxError(message string, id ast.NodeID) *diag.SyntaxError {
	n := r.Tree.Node(id)

	return diag.NewSyntaxError(r.Tree.Source, message, diag.Span{Start: n.Start, End: n.End})
}

func lineStarts(text string) []int {
	starts := []int{0}

	for i := range len(text) {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}

	return starts
}

func firstModuleItem(tree *ast.Tree) ast.NodeID {
	for _, c := range tree.NamedChildren(tree.Root) {
		switch tree.Kind(c) {
		case ast.KindImportStatement, ast.KindExportStatement:
			return c
		}
	}

	return ast.NoNode
}

// Package translate down-levels a parsed module into portable JavaScript.
//
// The engine walks the syntax tree depth-first. Every node gets its output
// text exactly once, after all of its children, so a rule only ever reads
// finished child text. Rules that need extra state attach it to side tables
// keyed by node id instead of mutating shared nodes.
package translate

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
	"github.com/Sumatoshi-tech/esdown/pkg/parser"
	"github.com/Sumatoshi-tech/esdown/pkg/resolve"
	"github.com/Sumatoshi-tech/esdown/pkg/scope"
)

// Options configures a translation.
type Options struct {
	// IdentifyModule binds an import specifier to the identifier of a bundled
	// module. When nil, each distinct specifier is bound to a local "_M<n>"
	// loaded through __load at the top of the output.
	IdentifyModule func(specifier string) string

	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger

	// Schemes classifies external specifiers. The zero value treats "node:"
	// as the only legacy scheme.
	Schemes resolve.Schemes

	// Module parses the input as a module: strict, with import and export.
	Module bool
}

// Dependency is an external module loaded by standalone output.
type Dependency struct {
	Specifier string
	Name      string
	Legacy    bool
}

// Output is a translated module.
type Output struct {
	Text         string
	Dependencies []Dependency
}

// Translate parses source and returns its down-leveled text. Parse failures
// and unsupported constructs are reported as *diag.SyntaxError; per-iteration
// closure captures as *diag.ClosureCaptureError.
func Translate(ctx context.Context, source string, opts Options) (*Output, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	started := time.Now()

	res, err := parser.Parse(ctx, source, parser.Options{Module: opts.Module})
	if err != nil {
		return nil, err
	}

	if err := scope.Collapse(res.Scopes); err != nil {
		return nil, err
	}

	e := newEngine(res, opts)

	out, err := e.run()
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "translated",
		"bytes_in", len(source),
		"bytes_out", len(out.Text),
		"imports", len(e.imports),
		"exports", len(e.exports.keys),
		"duration", time.Since(started))

	return out, nil
}

type tempVar struct {
	name      string
	noDeclare bool
}

type exportTable struct {
	values map[string]string
	keys   []string
}

func (t *exportTable) set(name, value string) {
	if _, ok := t.values[name]; !ok {
		t.keys = append(t.keys, name)
	}

	t.values[name] = value
}

type engine struct {
	opts   Options
	res    *parser.Result
	tree   *ast.Tree
	scopes *scope.Tree
	err    error

	text   []string
	strict bool

	temps       map[ast.NodeID][]tempVar
	lexicalVars map[ast.NodeID][]string
	paramNames  map[ast.NodeID]string
	restParams  map[ast.NodeID]ast.NodeID
	injectThis  map[ast.NodeID]string
	privateSets map[ast.NodeID]privateRef
	privates    map[ast.NodeID]*privateTable
	initPrivate map[ast.NodeID]bool

	privateSeq int
	callSites  int

	imports map[string]string
	deps    []Dependency
	exports exportTable
}

func newEngine(res *parser.Result, opts Options) *engine {
	return &engine{
		opts:        opts,
		res:         res,
		tree:        res.Tree,
		scopes:      res.Scopes,
		text:        make([]string, res.Tree.Len()),
		strict:      opts.Module,
		temps:       make(map[ast.NodeID][]tempVar),
		lexicalVars: make(map[ast.NodeID][]string),
		paramNames:  make(map[ast.NodeID]string),
		restParams:  make(map[ast.NodeID]ast.NodeID),
		injectThis:  make(map[ast.NodeID]string),
		privateSets: make(map[ast.NodeID]privateRef),
		privates:    make(map[ast.NodeID]*privateTable),
		initPrivate: make(map[ast.NodeID]bool),
		imports:     make(map[string]string),
		exports:     exportTable{values: make(map[string]string)},
	}
}

func (e *engine) run() (*Output, error) {
	t := e.tree
	if t.Root == ast.NoNode {
		return &Output{Text: t.Source}, nil
	}

	// Subclassing is rejected before anything else so the error always
	// points at the base class expression.
	if heritage := e.firstHeritage(); heritage != ast.NoNode {
		e.fail("subclassing is not supported", t.FirstNamed(heritage))

		return nil, e.err
	}

	if !e.visit(t.Root) {
		return nil, e.err
	}

	root := t.Node(t.Root)

	var b strings.Builder

	if e.opts.Module {
		b.WriteString(`"use strict"; `)
	}

	for i, dep := range e.deps {
		if i == 0 {
			b.WriteString("var ")
		} else {
			b.WriteString(", ")
		}

		b.WriteString(dep.Name + " = __load(" + quote(dep.Specifier))

		if dep.Legacy {
			b.WriteString(", 1")
		}

		b.WriteString(")")
	}

	if len(e.deps) > 0 {
		b.WriteString("; ")
	}

	b.WriteString(t.Source[:root.Start])
	b.WriteString(e.text[t.Root])
	b.WriteString(t.Source[root.End:])

	if len(e.exports.keys) > 0 {
		b.WriteString("\n")

		for i, name := range e.exports.keys {
			if i > 0 {
				b.WriteString("\n")
			}

			b.WriteString("exports" + propAccess(name) + " = " + e.exports.values[name] + ";")
		}

		b.WriteString("\n")
	}

	return &Output{Text: b.String(), Dependencies: e.deps}, nil
}

func (e *engine) firstHeritage() ast.NodeID {
	found := ast.NoNode

	e.tree.Walk(e.tree.Root, func(id ast.NodeID) bool {
		if found != ast.NoNode {
			return false
		}

		if e.tree.Kind(id) == ast.KindClassHeritage {
			found = id

			return false
		}

		return true
	})

	return found
}

func (e *engine) fail(message string, id ast.NodeID) {
	if e.err == nil {
		e.err = e.res.SyntaxError(message, id)
	}
}

// visit translates id and its subtree. It returns false once an error has
// been recorded.
func (e *engine) visit(id ast.NodeID) bool {
	n := e.tree.Node(id)

	if !n.Named && len(n.Children) == 0 {
		e.text[id] = e.tree.Source[n.Start:n.End]

		return true
	}

	e.begin(id)

	strict := e.strict
	if n.Kind.IsClass() {
		e.strict = true
	}

	for _, c := range n.Children {
		if !e.visit(c) {
			return false
		}
	}

	e.strict = strict

	text, ok := e.rule(id)
	if e.err != nil {
		return false
	}

	if !ok {
		text = e.stringify(id)
	}

	e.text[id] = e.syncNewlines(n.Start, n.End, text)

	return true
}

// begin runs before the children of id are translated.
func (e *engine) begin(id ast.NodeID) {
	if e.tree.Kind(id) == ast.KindClassBody {
		e.collectPrivateNames(id)
	}
}

// rule returns the replacement text for id, or false to keep the default
// reconstruction from child text.
func (e *engine) rule(id ast.NodeID) (string, bool) {
	switch e.tree.Kind(id) {
	case ast.KindProgram:
		return e.program(id)
	case ast.KindIdentifier, ast.KindShorthandPropertyIdentifier, ast.KindShorthandPropertyIdentifierPattern:
		return e.identifier(id)
	case ast.KindThis:
		return e.lexicalName(id, "this"), true
	case ast.KindLexicalDeclaration:
		return e.stringifyWith(id, map[ast.NodeID]string{e.tree.Field(id, "kind"): "var"}), true
	case ast.KindVariableDeclarator:
		return e.variableDeclarator(id)
	case ast.KindForInStatement:
		return e.forIn(id)
	case ast.KindDoStatement:
		return e.doWhile(id)
	case ast.KindExpressionStatement:
		return e.expressionStatement(id)
	case ast.KindStatementBlock:
		return e.statementBlock(id)
	case ast.KindCatchClause:
		return e.catchClause(id)
	case ast.KindFormalParameters:
		return e.formalParameters(id)
	case ast.KindArrowFunction:
		return e.arrowFunction(id)
	case ast.KindFunctionDeclaration, ast.KindFunctionExpression,
		ast.KindGeneratorFunctionDeclaration, ast.KindGeneratorFunction:
		return e.function(id)
	case ast.KindMethodDefinition:
		return e.methodDefinition(id)
	case ast.KindFieldDefinition:
		return e.fieldDefinition(id)
	case ast.KindClassDeclaration, ast.KindClass:
		return e.class(id)
	case ast.KindClassBody:
		return e.classBody(id)
	case ast.KindClassStaticBlock:
		e.fail("static initialization blocks are not supported", id)
	case ast.KindPrivatePropertyIdentifier:
		return e.privateName(id)
	case ast.KindMemberExpression:
		return e.memberExpression(id)
	case ast.KindSuper:
		return e.super(id)
	case ast.KindCallExpression:
		return e.callExpression(id)
	case ast.KindNewExpression:
		return e.newExpression(id)
	case ast.KindArray:
		return e.array(id)
	case ast.KindObject:
		return e.object(id)
	case ast.KindComputedPropertyName:
		return "_", true
	case ast.KindAssignmentExpression, ast.KindAugmentedAssignmentExpression:
		return e.assignment(id)
	case ast.KindUpdateExpression:
		return e.update(id)
	case ast.KindAwaitExpression:
		return e.await(id)
	case ast.KindYieldExpression:
		return e.yield(id)
	case ast.KindTemplateString:
		return e.template(id)
	case ast.KindImportStatement:
		return e.importStatement(id)
	case ast.KindExportStatement:
		return e.exportStatement(id)
	}

	return "", false
}

func (e *engine) program(id ast.NodeID) (string, bool) {
	var inserted []string

	if vars := e.lexicalVarNames(id); vars != "" {
		inserted = append(inserted, vars)
	}

	if temps := e.tempDecl(id); temps != "" {
		inserted = append(inserted, temps)
	}

	if len(inserted) == 0 {
		return "", false
	}

	return strings.Join(inserted, " ") + " " + e.stringify(id), true
}

func (e *engine) identifier(id ast.NodeID) (string, bool) {
	n := e.tree.Node(id)
	raw := e.tree.Text(id)
	name := raw + e.scopes.Suffix[id]

	if raw == "arguments" && n.Kind != ast.KindShorthandPropertyIdentifierPattern {
		name = e.lexicalName(id, "arguments")
	}

	if name == raw {
		return "", false
	}

	if n.Kind == ast.KindShorthandPropertyIdentifier {
		return raw + ": " + name, true
	}

	return name, true
}

func (e *engine) expressionStatement(id ast.NodeID) (string, bool) {
	if !e.res.ASI[id] {
		return "", false
	}

	text := e.stringify(id)
	if strings.HasPrefix(text, "(") || strings.HasPrefix(text, "[") {
		return ";" + text, true
	}

	return text, true
}

func (e *engine) doWhile(id ast.NodeID) (string, bool) {
	text := e.stringify(id)
	if !strings.HasSuffix(text, ";") {
		return text + ";", true
	}

	return text, true
}

// stringify rebuilds the source span of id, splicing in child text.
func (e *engine) stringify(id ast.NodeID) string {
	return e.stringifyWith(id, nil)
}

// stringifyWith is stringify with replacement text for some children.
func (e *engine) stringifyWith(id ast.NodeID, over map[ast.NodeID]string) string {
	t := e.tree
	n := t.Node(id)
	src := t.Source
	offset := n.Start

	var b strings.Builder

	for _, c := range n.Children {
		cn := t.Node(c)
		if offset < cn.Start {
			b.WriteString(src[offset:cn.Start])
		}

		if text, ok := over[c]; ok {
			b.WriteString(text)
		} else {
			b.WriteString(e.text[c])
		}

		offset = cn.End
	}

	if offset < n.End {
		b.WriteString(src[offset:n.End])
	}

	return b.String()
}

// joinList concatenates the text of consecutive siblings with the source
// between them.
func (e *engine) joinList(list []ast.NodeID) string {
	var b strings.Builder

	offset := -1

	for _, c := range list {
		cn := e.tree.Node(c)
		if offset >= 0 && offset < cn.Start {
			b.WriteString(e.tree.Source[offset:cn.Start])
		}

		b.WriteString(e.text[c])
		offset = cn.End
	}

	return b.String()
}

// syncNewlines pads text so it spans at least as many lines as the source
// range it replaces.
func (e *engine) syncNewlines(start, end int, text string) string {
	if end <= start {
		return text
	}

	height := e.res.Locate(end-1).Line - e.res.Locate(start).Line

	return preserveNewlines(text, height)
}

func preserveNewlines(text string, height int) string {
	if n := countNewlines(text); height > 0 && n < height {
		return text + strings.Repeat("\n", height-n)
	}

	return text
}

func countNewlines(text string) int {
	n := 0

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			n++
		case '\r':
			n++

			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		}
	}

	return n
}

func isVarScope(k ast.Kind) bool {
	return k.IsFunction() || k == ast.KindProgram
}

// parentFunction returns the nearest enclosing function or the program.
func (e *engine) parentFunction(id ast.NodeID) ast.NodeID {
	return e.tree.Enclosing(id, isVarScope)
}

func (e *engine) varScopeOf(id ast.NodeID) ast.NodeID {
	if isVarScope(e.tree.Kind(id)) {
		return id
	}

	return e.parentFunction(id)
}

// addTemp allocates a temporary in the function that owns id. Temporaries
// with noDeclare are bound by the generated code itself.
func (e *engine) addTemp(id ast.NodeID, noDeclare bool) string {
	fn := e.varScopeOf(id)
	name := "__$" + strconv.Itoa(len(e.temps[fn]))
	e.temps[fn] = append(e.temps[fn], tempVar{name: name, noDeclare: noDeclare})

	return name
}

func (e *engine) tempDecl(fn ast.NodeID) string {
	var names []string

	for _, v := range e.temps[fn] {
		if !v.noDeclare {
			names = append(names, v.name)
		}
	}

	if len(names) == 0 {
		return ""
	}

	return "var " + strings.Join(names, ", ") + ";"
}

// lexicalName returns the name that reaches the this or arguments binding
// visible at id. Arrow functions become ordinary functions, so inside them
// the binding is captured from the nearest non-arrow function.
func (e *engine) lexicalName(id ast.NodeID, name string) string {
	fn := e.parentFunction(id)
	if e.tree.Kind(fn) != ast.KindArrowFunction {
		return name
	}

	for fn = e.parentFunction(fn); fn != ast.NoNode; fn = e.parentFunction(fn) {
		if e.tree.Kind(fn) == ast.KindArrowFunction {
			continue
		}

		vars := e.lexicalVars[fn]
		found := false

		for _, v := range vars {
			found = found || v == name
		}

		if !found {
			e.lexicalVars[fn] = append(vars, name)
		}

		break
	}

	return "__" + name
}

func (e *engine) lexicalVarNames(fn ast.NodeID) string {
	vars := e.lexicalVars[fn]
	if len(vars) == 0 {
		return ""
	}

	list := make([]string, len(vars))
	for i, v := range vars {
		list[i] = "__" + v + " = " + v
	}

	return "var " + strings.Join(list, ", ") + ";"
}

// removeBraces strips the outer braces of a block's text.
func removeBraces(text string) string {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	if strings.HasPrefix(trimmed, "{") {
		text = trimmed[1:]
	}

	trimmed = strings.TrimRight(text, " \t\r\n")
	if strings.HasSuffix(trimmed, "}") {
		text = trimmed[:len(trimmed)-1]
	}

	return text
}

// stripParens strips the outer parentheses of a parameter or argument list.
func stripParens(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "(")

	return strings.TrimSuffix(text, ")")
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	var b strings.Builder

	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Package scope builds the lexical scope tree of a parsed module and
// collapses block-level bindings into function-level names.
package scope

import (
	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

// Kind classifies a scope.
type Kind uint8

// Scope kinds.
const (
	KindModule Kind = iota
	KindFunction
	KindBlock
	KindFor
	KindCatch
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindFunction:
		return "function"
	case KindBlock:
		return "block"
	case KindFor:
		return "for"
	case KindCatch:
		return "catch"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// ID addresses a scope inside its Tree.
type ID int32

// NoScope is the ID of an absent scope.
const NoScope ID = -1

// Record holds every declaration and reference site of one name in a scope.
type Record struct {
	Name         string
	Declarations []ast.NodeID
	References   []ast.NodeID
}

// Scope is one node of the scope tree.
type Scope struct {
	Names     map[string]*Record
	freeNames map[string]struct{}
	Order     []string
	Children  []ID
	Free      []ast.NodeID
	Node      ast.NodeID
	Parent    ID
	Kind      Kind
}

// IsFree reports whether a reference to name passes through the scope
// unresolved.
func (s *Scope) IsFree(name string) bool {
	_, ok := s.freeNames[name]

	return ok
}

// Tree is the scope tree of one module plus the rename side table filled in
// by Collapse.
type Tree struct {
	ast    *ast.Tree
	ByNode map[ast.NodeID]ID
	Suffix map[ast.NodeID]string
	Scopes []Scope
	Root   ID
}

// Scope returns the scope for id.
func (t *Tree) Scope(id ID) *Scope {
	return &t.Scopes[id]
}

// Name returns the identifier text of a declaration or reference node.
func (t *Tree) Name(id ast.NodeID) string {
	return t.ast.Text(id)
}

// Renamed returns the name of an identifier node after collapsing.
func (t *Tree) Renamed(id ast.NodeID) string {
	return t.ast.Text(id) + t.Suffix[id]
}

func (t *Tree) add(kind Kind, node ast.NodeID, parent ID) ID {
	id := ID(len(t.Scopes))
	t.Scopes = append(t.Scopes, Scope{
		Kind:      kind,
		Node:      node,
		Parent:    parent,
		Names:     make(map[string]*Record),
		freeNames: make(map[string]struct{}),
	})

	if parent != NoScope {
		t.Scopes[parent].Children = append(t.Scopes[parent].Children, id)
	}

	t.ByNode[node] = id

	return id
}

func (t *Tree) declare(scope ID, ident ast.NodeID) {
	s := &t.Scopes[scope]
	name := t.ast.Text(ident)

	rec, ok := s.Names[name]
	if !ok {
		rec = &Record{Name: name}
		s.Names[name] = rec
		s.Order = append(s.Order, name)
	}

	rec.Declarations = append(rec.Declarations, ident)
}

// varScope returns the nearest function or module scope.
func (t *Tree) varScope(id ID) ID {
	for ; id != NoScope; id = t.Scopes[id].Parent {
		if k := t.Scopes[id].Kind; k == KindFunction || k == KindModule {
			return id
		}
	}

	return t.Root
}

type pendingRef struct {
	node  ast.NodeID
	scope ID
}

type builder struct {
	tree  *ast.Tree
	out   *Tree
	bound map[ast.NodeID]bool
	refs  []pendingRef
}

// Build walks tree and returns its scope tree. References are resolved after
// every declaration has been seen, so hoisted functions and closures that
// refer to later bindings resolve correctly.
func Build(tree *ast.Tree) *Tree {
	out := &Tree{
		ast:    tree,
		ByNode: make(map[ast.NodeID]ID),
		Suffix: make(map[ast.NodeID]string),
		Root:   NoScope,
	}

	b := &builder{
		tree:  tree,
		out:   out,
		bound: make(map[ast.NodeID]bool),
	}

	if tree.Root == ast.NoNode {
		return out
	}

	out.Root = out.add(KindModule, tree.Root, NoScope)

	for _, c := range tree.Node(tree.Root).Children {
		b.walk(c, out.Root)
	}

	b.resolve()

	return out
}

func (b *builder) declare(scope ID, pattern ast.NodeID) {
	for _, ident := range BindingNames(b.tree, pattern) {
		b.bound[ident] = true
		b.out.declare(scope, ident)
	}
}

func (b *builder) walk(id ast.NodeID, cur ID) {
	t := b.tree
	n := t.Node(id)

	switch n.Kind {
	case ast.KindIdentifier, ast.KindShorthandPropertyIdentifier, ast.KindShorthandPropertyIdentifierPattern:
		if !b.bound[id] {
			b.refs = append(b.refs, pendingRef{node: id, scope: cur})
		}

		return

	case ast.KindFunctionDeclaration, ast.KindGeneratorFunctionDeclaration:
		if name := t.Field(id, "name"); name != ast.NoNode {
			b.declare(b.out.varScope(cur), name)
		}

		cur = b.enterFunction(id, cur)

	case ast.KindFunctionExpression, ast.KindGeneratorFunction, ast.KindArrowFunction, ast.KindMethodDefinition:
		cur = b.enterFunction(id, cur)

	case ast.KindClassDeclaration:
		if name := t.Field(id, "name"); name != ast.NoNode {
			b.declare(cur, name)
		}

	case ast.KindClass:
		if name := t.Field(id, "name"); name != ast.NoNode {
			cur = b.out.add(KindClass, id, cur)
			b.declare(cur, name)
		}

	case ast.KindStatementBlock:
		parent := t.Kind(n.Parent)
		if !(parent.IsFunction() && n.Field == "body") && parent != ast.KindCatchClause {
			cur = b.out.add(KindBlock, id, cur)
		}

	case ast.KindSwitchBody, ast.KindClassStaticBlock:
		cur = b.out.add(KindBlock, id, cur)

	case ast.KindForStatement:
		cur = b.out.add(KindFor, id, cur)

	case ast.KindForInStatement:
		cur = b.out.add(KindFor, id, cur)

		if kind := t.Field(id, "kind"); kind != ast.NoNode {
			target := cur
			if t.Node(kind).Type == "var" {
				target = b.out.varScope(cur)
			}

			b.declare(target, t.Field(id, "left"))
		}

	case ast.KindCatchClause:
		cur = b.out.add(KindCatch, id, cur)

		if param := t.Field(id, "parameter"); param != ast.NoNode {
			b.declare(cur, param)
		}

	case ast.KindVariableDeclaration, ast.KindLexicalDeclaration:
		target := cur
		if n.Kind == ast.KindVariableDeclaration {
			target = b.out.varScope(cur)
		}

		for _, decl := range t.NamedChildren(id) {
			if t.Kind(decl) == ast.KindVariableDeclarator {
				b.declare(target, t.Field(decl, "name"))
			}
		}

	case ast.KindImportStatement:
		b.declareImports(id)

	case ast.KindExportSpecifier:
		if alias := t.Field(id, "alias"); alias != ast.NoNode {
			b.bound[alias] = true
		}

	case ast.KindNamespaceExport:
		return
	}

	for _, c := range n.Children {
		b.walk(c, cur)
	}
}

func (b *builder) enterFunction(id ast.NodeID, cur ID) ID {
	t := b.tree
	fn := b.out.add(KindFunction, id, cur)

	switch t.Kind(id) {
	case ast.KindFunctionExpression, ast.KindGeneratorFunction:
		if name := t.Field(id, "name"); name != ast.NoNode {
			b.declare(fn, name)
		}
	}

	if param := t.Field(id, "parameter"); param != ast.NoNode {
		b.declare(fn, param)
	}

	if params := t.Field(id, "parameters"); params != ast.NoNode {
		for _, p := range t.NamedChildren(params) {
			b.declare(fn, p)
		}
	}

	return fn
}

func (b *builder) declareImports(id ast.NodeID) {
	t := b.tree

	t.Walk(id, func(c ast.NodeID) bool {
		switch t.Kind(c) {
		case ast.KindImportClause:
			for _, ident := range t.NamedChildren(c) {
				if t.Kind(ident) == ast.KindIdentifier {
					b.declare(b.out.Root, ident)
				}
			}

		case ast.KindNamespaceImport:
			b.declare(b.out.Root, t.FirstNamed(c))

			return false

		case ast.KindImportSpecifier:
			name := t.Field(c, "name")

			if alias := t.Field(c, "alias"); alias != ast.NoNode {
				b.bound[name] = true
				b.declare(b.out.Root, alias)
			} else {
				b.declare(b.out.Root, name)
			}

			return false
		}

		return true
	})
}

func (b *builder) resolve() {
	out := b.out

	for _, ref := range b.refs {
		name := b.tree.Text(ref.node)

		for s := ref.scope; s != NoScope; s = out.Scopes[s].Parent {
			sc := &out.Scopes[s]

			if rec, ok := sc.Names[name]; ok {
				rec.References = append(rec.References, ref.node)

				break
			}

			sc.Free = append(sc.Free, ref.node)
			sc.freeNames[name] = struct{}{}
		}
	}
}

// BindingNames returns the identifiers bound by a binding target: a plain
// identifier or any nesting of object and array patterns. Default values and
// computed keys are not binding positions and are skipped.
func BindingNames(tree *ast.Tree, id ast.NodeID) []ast.NodeID {
	var out []ast.NodeID

	var visit func(ast.NodeID)

	visit = func(id ast.NodeID) {
		if id == ast.NoNode {
			return
		}

		switch tree.Kind(id) {
		case ast.KindIdentifier, ast.KindShorthandPropertyIdentifierPattern:
			out = append(out, id)
		case ast.KindObjectPattern, ast.KindArrayPattern:
			for _, c := range tree.NamedChildren(id) {
				visit(c)
			}
		case ast.KindPairPattern:
			visit(tree.Field(id, "value"))
		case ast.KindObjectAssignmentPattern, ast.KindAssignmentPattern:
			visit(tree.Field(id, "left"))
		case ast.KindRestPattern:
			visit(tree.FirstNamed(id))
		}
	}

	visit(id)

	return out
}

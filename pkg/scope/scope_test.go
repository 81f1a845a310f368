package scope_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
	"github.com/Sumatoshi-tech/esdown/pkg/diag"
	"github.com/Sumatoshi-tech/esdown/pkg/parser"
	"github.com/Sumatoshi-tech/esdown/pkg/scope"
)

func parse(t *testing.T, src string) *parser.Result {
	t.Helper()

	res, err := parser.Parse(context.Background(), src, parser.Options{})
	require.NoError(t, err)

	return res
}

// renamed lists every identifier of the tree after collapsing, in source order.
func renamed(res *parser.Result) []string {
	var out []string

	res.Tree.Walk(res.Tree.Root, func(id ast.NodeID) bool {
		if res.Tree.Kind(id) == ast.KindIdentifier {
			out = append(out, res.Scopes.Renamed(id))
		}

		return true
	})

	return out
}

func TestBuildScopeKinds(t *testing.T) {
	t.Parallel()

	res := parse(t, "var a;\nfunction f(b) { let c; { let d; } }\nfor (let i = 0;;) {}\ntry {} catch (e) {}\n")
	st := res.Scopes

	root := st.Scope(st.Root)
	assert.Equal(t, scope.KindModule, root.Kind)
	assert.Equal(t, []string{"a", "f"}, root.Order)
	require.Len(t, root.Children, 4)

	fn := st.Scope(root.Children[0])
	assert.Equal(t, scope.KindFunction, fn.Kind)
	assert.Equal(t, []string{"b", "c"}, fn.Order)
	require.Len(t, fn.Children, 1)
	assert.Equal(t, scope.KindBlock, st.Scope(fn.Children[0]).Kind)
	assert.Equal(t, []string{"d"}, st.Scope(fn.Children[0]).Order)

	loop := st.Scope(root.Children[1])
	assert.Equal(t, scope.KindFor, loop.Kind)
	assert.Equal(t, []string{"i"}, loop.Order)
	require.Len(t, loop.Children, 1)
	assert.Equal(t, scope.KindBlock, st.Scope(loop.Children[0]).Kind)

	assert.Equal(t, scope.KindBlock, st.Scope(root.Children[2]).Kind)

	catch := st.Scope(root.Children[3])
	assert.Equal(t, scope.KindCatch, catch.Kind)
	assert.Equal(t, []string{"e"}, catch.Order)
	assert.Empty(t, catch.Children)
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "module", scope.KindModule.String())
	assert.Equal(t, "for", scope.KindFor.String())
	assert.Equal(t, "class", scope.KindClass.String())
	assert.Equal(t, "unknown", scope.Kind(99).String())
}

func TestReferencesAndFreeNames(t *testing.T) {
	t.Parallel()

	res := parse(t, "var a = 1;\nfunction f() { return a + b; }\n")
	st := res.Scopes

	root := st.Scope(st.Root)
	fn := st.Scope(root.Children[0])

	assert.Len(t, root.Names["a"].Declarations, 1)
	assert.Len(t, root.Names["a"].References, 1)
	assert.True(t, fn.IsFree("a"))
	assert.True(t, fn.IsFree("b"))
	assert.True(t, root.IsFree("b"))
	assert.False(t, root.IsFree("a"))
	assert.Len(t, fn.Free, 2)
}

func TestHoistedReferenceResolves(t *testing.T) {
	t.Parallel()

	res := parse(t, "g();\nfunction g() {}\n")
	root := res.Scopes.Scope(res.Scopes.Root)

	assert.Len(t, root.Names["g"].References, 1)
	assert.False(t, root.IsFree("g"))
}

func TestCollapseSuffixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "blocks",
			src:  "let x = 1;\n{ let x = 2; x; }\n{ let x = 3; }\nx;\n",
			want: []string{"x", "x$0", "x$0", "x$1", "x"},
		},
		{
			name: "loop",
			src:  "for (let i = 0; i < 1; i++) {}\n",
			want: []string{"i$0", "i$0", "i$0"},
		},
		{
			name: "catch",
			src:  "try {} catch (e) { e; }\n",
			want: []string{"e$0", "e$0"},
		},
		{
			name: "var stays in function",
			src:  "{ var v = 1; }\nv;\n",
			want: []string{"v", "v"},
		},
		{
			name: "function scope untouched",
			src:  "function f(p) { let q = p; return q; }\n",
			want: []string{"f", "p", "q", "p", "q"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := parse(t, tt.src)
			require.NoError(t, scope.Collapse(res.Scopes))

			assert.Equal(t, tt.want, renamed(res))
		})
	}
}

func TestCollapseClosureCapture(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		binder string
		column int
	}{
		{
			name:   "loop variable",
			src:    "for (let i = 0; i < 2; i++) { f(function() { return i; }); }",
			binder: "i",
			column: 53,
		},
		{
			name:   "nested loop",
			src:    "for (let i = 0; i < 1; i++) { for (;;) { g(() => i); } }",
			binder: "i",
			column: 50,
		},
		{
			name:   "body binding",
			src:    "for (;;) { let v = 1; g(function() { return v; }); }",
			binder: "v",
			column: 45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := parse(t, tt.src)
			err := scope.Collapse(res.Scopes)

			var capture *diag.ClosureCaptureError
			require.ErrorAs(t, err, &capture)
			assert.Equal(t, tt.binder, capture.Name)
			assert.Equal(t, 1, capture.Line)
			assert.Equal(t, tt.column, capture.Column)

			var syntax *diag.SyntaxError
			assert.ErrorAs(t, err, &syntax)
		})
	}
}

func TestCollapseAllowsOuterBindings(t *testing.T) {
	t.Parallel()

	srcs := []string{
		"var fns = [];\nfor (var i = 0; i < 3; i++) { fns.push(function() { return i; }); }\n",
		"for (const x of xs) { (function() { return xs; }); }\n",
		"for (let i = 0; i < 1; i++) { g(function(i) { return i; }); }\n",
		"let n = 1;\nfor (;;) { g(function() { return n; }); }\n",
	}

	for _, src := range srcs {
		res := parse(t, src)
		assert.NoError(t, scope.Collapse(res.Scopes), src)
	}
}

func TestBindingNames(t *testing.T) {
	t.Parallel()

	res := parse(t, "var {a, b: [c, ...d], e = 1} = o;\n")
	tree := res.Tree

	decl := tree.FirstNamed(tree.NamedChildren(tree.Root)[0])
	require.Equal(t, ast.KindVariableDeclarator, tree.Kind(decl))

	var names []string
	for _, id := range scope.BindingNames(tree, tree.Field(decl, "name")) {
		names = append(names, tree.Text(id))
	}

	assert.Equal(t, []string{"a", "c", "d", "e"}, names)
	assert.Empty(t, scope.BindingNames(tree, ast.NoNode))
}

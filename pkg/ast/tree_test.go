package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

// build assembles "(a);" by hand:
// program > expression_statement > parenthesized_expression > identifier.
func build() (*ast.Tree, map[string]ast.NodeID) {
	t := ast.NewTree("(a);", 8)
	ids := make(map[string]ast.NodeID)

	ids["program"] = t.Add(ast.NoNode, ast.Node{Type: "program", Kind: ast.KindProgram, Named: true, End: 4})
	ids["stmt"] = t.Add(ids["program"], ast.Node{
		Type: "expression_statement", Kind: ast.KindExpressionStatement, Named: true, End: 4,
	})
	ids["paren"] = t.Add(ids["stmt"], ast.Node{
		Type: "parenthesized_expression", Kind: ast.KindParenthesizedExpression, Named: true, End: 3,
	})
	ids["open"] = t.Add(ids["paren"], ast.Node{Type: "(", Kind: ast.KindToken, End: 1})
	ids["a"] = t.Add(ids["paren"], ast.Node{
		Type: "identifier", Kind: ast.KindIdentifier, Named: true, Start: 1, End: 2, Field: "expression",
	})
	ids["close"] = t.Add(ids["paren"], ast.Node{Type: ")", Kind: ast.KindToken, Start: 2, End: 3})
	ids["semi"] = t.Add(ids["stmt"], ast.Node{Type: ";", Kind: ast.KindToken, Start: 3, End: 4})

	return t, ids
}

func TestTreeNavigation(t *testing.T) {
	t.Parallel()

	tree, ids := build()

	assert.Equal(t, ids["program"], tree.Root)
	assert.Equal(t, 7, tree.Len())
	assert.Equal(t, ast.KindIdentifier, tree.Kind(ids["a"]))
	assert.Equal(t, ast.KindInvalid, tree.Kind(ast.NoNode))
	assert.Equal(t, ids["paren"], tree.Parent(ids["a"]))
	assert.Equal(t, ast.NoNode, tree.Parent(tree.Root))
	assert.Equal(t, ast.NoNode, tree.Parent(ast.NoNode))
	assert.Equal(t, "(a)", tree.Text(ids["paren"]))
	assert.Empty(t, tree.Text(ast.NoNode))
	assert.Equal(t, ids["a"], tree.Field(ids["paren"], "expression"))
	assert.Equal(t, ast.NoNode, tree.Field(ids["paren"], "body"))
	assert.Equal(t, []ast.NodeID{ids["a"]}, tree.NamedChildren(ids["paren"]))
	assert.Equal(t, ids["paren"], tree.FirstNamed(ids["stmt"]))
	assert.Equal(t, ast.NoNode, tree.FirstNamed(ids["a"]))
}

func TestTreeTokens(t *testing.T) {
	t.Parallel()

	tree, ids := build()

	assert.True(t, tree.HasToken(ids["stmt"], ";"))
	assert.False(t, tree.HasToken(ids["stmt"], ","))
	assert.Equal(t, ids["close"], tree.Token(ids["paren"], ")"))
}

func TestTreeParens(t *testing.T) {
	t.Parallel()

	tree, ids := build()

	assert.Equal(t, ids["a"], tree.Unparen(ids["paren"]))
	assert.Equal(t, ids["a"], tree.Unparen(ids["a"]))

	parent, child := tree.ParenParent(ids["a"])
	assert.Equal(t, ids["stmt"], parent)
	assert.Equal(t, ids["paren"], child)
}

func TestTreeWalkAndEnclosing(t *testing.T) {
	t.Parallel()

	tree, ids := build()

	var seen []ast.NodeID

	tree.Walk(tree.Root, func(id ast.NodeID) bool {
		seen = append(seen, id)

		return id != ids["paren"]
	})

	assert.Equal(t, []ast.NodeID{ids["program"], ids["stmt"], ids["paren"], ids["semi"]}, seen)

	isStatement := func(k ast.Kind) bool { return k == ast.KindExpressionStatement }
	assert.Equal(t, ids["stmt"], tree.Enclosing(ids["a"], isStatement))
	assert.Equal(t, ast.NoNode, tree.Enclosing(ids["stmt"], isStatement))
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ast.KindToken, ast.KindOf("identifier", false))
	assert.Equal(t, ast.KindIdentifier, ast.KindOf("identifier", true))
	assert.Equal(t, ast.KindOther, ast.KindOf("no_such_node", true))
	assert.Equal(t, ast.KindExportStatement, ast.KindOf("export_statement", true))
}

func TestKindPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, ast.KindArrowFunction.IsFunction())
	assert.True(t, ast.KindMethodDefinition.IsFunction())
	assert.False(t, ast.KindClass.IsFunction())
	assert.True(t, ast.KindObjectPattern.IsPattern())
	assert.False(t, ast.KindObject.IsPattern())
	assert.True(t, ast.KindClassDeclaration.IsClass())
	assert.False(t, ast.KindProgram.IsClass())
}

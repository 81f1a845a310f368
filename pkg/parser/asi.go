package parser

import (
	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

// terminated lists the statements the grammar ends with a semicolon.
var terminated = map[string]bool{
	"expression_statement": true,
	"variable_declaration": true,
	"lexical_declaration":  true,
	"return_statement":     true,
	"throw_statement":      true,
	"break_statement":      true,
	"continue_statement":   true,
	"debugger_statement":   true,
	"do_statement":         true,
	"import_statement":     true,
	"export_statement":     true,
}

// autoSemicolons finds statements preceded by a sibling whose semicolon was
// inserted automatically. A semicolon inserted before "}" or end of input
// is not recorded because nothing can follow it.
func autoSemicolons(tree *ast.Tree) map[ast.NodeID]bool {
	asi := make(map[ast.NodeID]bool)

	for id := range tree.Len() {
		switch tree.Node(ast.NodeID(id)).Type {
		case "program", "statement_block", "switch_case", "switch_default", "class_static_block":
		default:
			continue
		}

		prev := ast.NoNode

		for _, c := range tree.NamedChildren(ast.NodeID(id)) {
			if prev != ast.NoNode && missingSemicolon(tree, prev) {
				asi[c] = true
			}

			prev = c
		}
	}

	return asi
}

func missingSemicolon(tree *ast.Tree, id ast.NodeID) bool {
	n := tree.Node(id)
	if !terminated[n.Type] {
		return false
	}

	if n.Type == "export_statement" && tree.Field(id, "declaration") != ast.NoNode {
		return missingSemicolon(tree, tree.Field(id, "declaration"))
	}

	for i := len(n.Children) - 1; i >= 0; i-- {
		last := tree.Node(n.Children[i])
		if last.Kind == ast.KindComment {
			continue
		}

		return last.Named || last.Type != ";"
	}

	return false
}

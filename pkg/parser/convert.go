package parser

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

// fieldsByType lists the grammar fields the translator looks up, per node
// type. Only these are copied onto ast.Node.Field.
var fieldsByType = map[string][]string{
	"variable_declarator":             {"name", "value"},
	"lexical_declaration":             {"kind"},
	"for_statement":                   {"initializer", "condition", "increment", "body"},
	"for_in_statement":                {"kind", "left", "operator", "right", "body"},
	"do_statement":                    {"body", "condition"},
	"catch_clause":                    {"parameter", "body"},
	"pair":                            {"key", "value"},
	"pair_pattern":                    {"key", "value"},
	"object_assignment_pattern":       {"left", "right"},
	"assignment_pattern":              {"left", "right"},
	"assignment_expression":           {"left", "right"},
	"augmented_assignment_expression": {"left", "operator", "right"},
	"binary_expression":               {"left", "operator", "right"},
	"arrow_function":                  {"parameter", "parameters", "body"},
	"function_declaration":            {"name", "parameters", "body"},
	"function_expression":             {"name", "parameters", "body"},
	"function":                        {"name", "parameters", "body"},
	"generator_function":              {"name", "parameters", "body"},
	"generator_function_declaration":  {"name", "parameters", "body"},
	"method_definition":               {"name", "parameters", "body"},
	"field_definition":                {"property", "value"},
	"class_declaration":               {"name", "body"},
	"class":                           {"name", "body"},
	"call_expression":                 {"function", "arguments"},
	"new_expression":                  {"constructor", "arguments"},
	"member_expression":               {"object", "property"},
	"subscript_expression":            {"object", "index"},
	"unary_expression":                {"operator", "argument"},
	"update_expression":               {"operator", "argument"},
	"import_statement":                {"source"},
	"import_specifier":                {"name", "alias"},
	"export_statement":                {"declaration", "value", "source"},
	"export_specifier":                {"name", "alias"},
}

type nodeKey struct {
	typ   string
	start uint
	end   uint
}

type converter struct {
	tree   *ast.Tree
	errs   []ast.NodeID
	fields map[nodeKey]string
}

func (c *converter) convert(n sitter.Node, parent ast.NodeID, field string) {
	named := n.IsNamed()
	typ := n.Type()

	id := c.tree.Add(parent, ast.Node{
		Type:  typ,
		Field: field,
		Start: int(n.StartByte()),
		End:   int(n.EndByte()),
		Kind:  ast.KindOf(typ, named),
		Named: named,
	})

	if typ == "ERROR" || (parent != ast.NoNode && n.StartByte() == n.EndByte()) {
		c.errs = append(c.errs, id)
	}

	names := fieldsByType[typ]
	clear(c.fields)

	for _, name := range names {
		if child := n.ChildByFieldName(name); !child.IsNull() {
			c.fields[nodeKey{child.Type(), child.StartByte(), child.EndByte()}] = name
		}
	}

	var childFields []string

	if len(c.fields) > 0 {
		childFields = make([]string, n.ChildCount())

		for i := range n.ChildCount() {
			child := n.Child(i)
			childFields[i] = c.fields[nodeKey{child.Type(), child.StartByte(), child.EndByte()}]
		}
	}

	for i := range n.ChildCount() {
		f := ""
		if childFields != nil {
			f = childFields[i]
		}

		c.convert(n.Child(i), id, f)
	}
}

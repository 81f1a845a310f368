package translate

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
	"github.com/Sumatoshi-tech/esdown/pkg/scope"
)

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true, "continue": true,
	"debugger": true, "default": true, "delete": true, "do": true, "else": true, "enum": true,
	"export": true, "extends": true, "false": true, "finally": true, "for": true, "function": true,
	"if": true, "import": true, "in": true, "instanceof": true, "new": true, "null": true,
	"return": true, "super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
}

// identifyModule returns the local name bound to the module at specifier.
func (e *engine) identifyModule(specifier string) string {
	specifier = strings.TrimSpace(specifier)

	if e.opts.IdentifyModule != nil {
		return e.opts.IdentifyModule(specifier)
	}

	legacy := e.opts.Schemes.IsLegacy(specifier)
	if legacy {
		specifier = strings.TrimSpace(e.opts.Schemes.Strip(specifier))
	}

	if name, ok := e.imports[specifier]; ok {
		return name
	}

	name := "_M" + strconv.Itoa(len(e.deps))
	e.imports[specifier] = name
	e.deps = append(e.deps, Dependency{Specifier: specifier, Name: name, Legacy: legacy})

	return name
}

func (e *engine) modulePath(source ast.NodeID) string {
	return e.identifyModule(stringValue(e.tree.Text(source)))
}

// stringValue returns the value of a string literal.
func stringValue(literal string) string {
	if len(literal) < 2 {
		return literal
	}

	body := literal[1 : len(literal)-1]
	if !strings.Contains(body, `\`) {
		return body
	}

	body = strings.ReplaceAll(body, `\'`, `'`)

	if literal[0] == '\'' {
		body = strings.ReplaceAll(body, `"`, `\"`)
	}

	value, err := strconv.Unquote(`"` + body + `"`)
	if err != nil {
		return body
	}

	return value
}

// moduleName is the exported or imported name written by a specifier,
// which may be an identifier or a string literal.
func (e *engine) moduleName(id ast.NodeID) string {
	if e.tree.Kind(id) == ast.KindString {
		return stringValue(e.tree.Text(id))
	}

	return e.tree.Text(id)
}

// propAccess renders a property read of name.
func propAccess(name string) string {
	if reservedWords[name] || !isIdentifierName(name) {
		return "[" + quote(name) + "]"
	}

	return "." + name
}

func isIdentifierName(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		switch {
		case r == '$' || r == '_' || r > 0x7f:
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}

func (e *engine) importStatement(id ast.NodeID) (string, bool) {
	t := e.tree
	module := e.modulePath(t.Field(id, "source"))

	clause := ast.NoNode

	for _, c := range t.NamedChildren(id) {
		if t.Kind(c) == ast.KindImportClause {
			clause = c
		}
	}

	if clause == ast.NoNode {
		return "", true
	}

	var out []string

	for _, c := range t.NamedChildren(clause) {
		switch t.Kind(c) {
		case ast.KindIdentifier:
			out = append(out, "var "+e.text[c]+" = "+module+"['default'];")

		case ast.KindNamespaceImport:
			out = append(out, "var "+e.text[t.FirstNamed(c)]+" = "+module+";")

		case ast.KindNamedImports:
			var list []string

			for _, spec := range t.NamedChildren(c) {
				name := t.Field(spec, "name")
				local := name

				if alias := t.Field(spec, "alias"); alias != ast.NoNode {
					local = alias
				}

				list = append(list, e.text[local]+" = "+module+propAccess(e.moduleName(name)))
			}

			if len(list) > 0 {
				out = append(out, "var "+strings.Join(list, ", ")+";")
			}
		}
	}

	return strings.Join(out, " "), true
}

func (e *engine) exportStatement(id ast.NodeID) (string, bool) {
	t := e.tree

	if decl := t.Field(id, "declaration"); decl != ast.NoNode {
		e.exportDeclaration(decl, t.HasToken(id, "default"))

		return e.text[decl], true
	}

	if value := t.Field(id, "value"); value != ast.NoNode {
		return `exports["default"] = ` + e.text[value] + ";", true
	}

	from := ""
	if source := t.Field(id, "source"); source != ast.NoNode {
		from = e.modulePath(source)
	}

	for _, c := range t.NamedChildren(id) {
		switch t.Kind(c) {
		case ast.KindExportClause:
			for _, spec := range t.NamedChildren(c) {
				name := t.Field(spec, "name")
				exported := e.moduleName(name)

				if alias := t.Field(spec, "alias"); alias != ast.NoNode {
					exported = e.moduleName(alias)
				}

				if from != "" {
					e.exports.set(exported, from+propAccess(e.moduleName(name)))
				} else {
					e.exports.set(exported, e.text[name])
				}
			}

			return "", true

		case ast.KindNamespaceExport:
			e.exports.set(e.moduleName(t.FirstNamed(c)), from)

			return "", true
		}
	}

	if from == "" {
		return "", false
	}

	return "Object.keys(" + from + ").forEach(function(k) { exports[k] = " + from + "[k]; });", true
}

func (e *engine) exportDeclaration(decl ast.NodeID, isDefault bool) {
	t := e.tree

	switch t.Kind(decl) {
	case ast.KindVariableDeclaration, ast.KindLexicalDeclaration:
		for _, d := range t.NamedChildren(decl) {
			if t.Kind(d) != ast.KindVariableDeclarator {
				continue
			}

			for _, ident := range scope.BindingNames(t, t.Field(d, "name")) {
				e.exports.set(t.Text(ident), t.Text(ident)+e.scopes.Suffix[ident])
			}
		}

	default:
		name := t.Field(decl, "name")
		if name == ast.NoNode {
			return
		}

		exported := t.Text(name)
		if isDefault {
			exported = "default"
		}

		e.exports.set(exported, e.text[name])
	}
}

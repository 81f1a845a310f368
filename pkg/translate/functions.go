package translate

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

func (e *engine) isAsync(fn ast.NodeID) bool {
	return fn != ast.NoNode && e.tree.Kind(fn).IsFunction() && e.tree.HasToken(fn, "async")
}

func (e *engine) isGenerator(fn ast.NodeID) bool {
	switch e.tree.Kind(fn) {
	case ast.KindGeneratorFunction, ast.KindGeneratorFunctionDeclaration:
		return true
	case ast.KindMethodDefinition:
		return e.tree.HasToken(fn, "*")
	default:
		return false
	}
}

// params returns the parameter nodes of fn.
func (e *engine) params(fn ast.NodeID) []ast.NodeID {
	if p := e.tree.Field(fn, "parameter"); p != ast.NoNode {
		return []ast.NodeID{p}
	}

	if p := e.tree.Field(fn, "parameters"); p != ast.NoNode {
		return e.tree.NamedChildren(p)
	}

	return nil
}

// paramText returns the translated parameter list of fn without parentheses.
func (e *engine) paramText(fn ast.NodeID) string {
	if p := e.tree.Field(fn, "parameter"); p != ast.NoNode {
		return e.text[p]
	}

	if p := e.tree.Field(fn, "parameters"); p != ast.NoNode {
		return stripParens(e.text[p])
	}

	return ""
}

// formalParameters replaces destructured parameters with temporaries, drops
// default values and removes the rest parameter. The function body
// prologue restores their behavior.
func (e *engine) formalParameters(id ast.NodeID) (string, bool) {
	t := e.tree
	fn := t.Parent(id)
	over := make(map[ast.NodeID]string)
	lastComma := ast.NoNode

	for _, p := range t.Node(id).Children {
		pn := t.Node(p)

		if !pn.Named {
			if pn.Type == "," {
				lastComma = p
			}

			continue
		}

		name := e.text[p]

		switch pn.Kind {
		case ast.KindAssignmentPattern:
			left := t.Field(p, "left")
			if t.Kind(left).IsPattern() {
				name = e.addTemp(fn, true)
			} else {
				name = e.text[left]
			}

			over[p] = name

		case ast.KindObjectPattern, ast.KindArrayPattern:
			name = e.addTemp(fn, true)
			over[p] = name

		case ast.KindRestPattern:
			target := t.FirstNamed(p)
			if t.Kind(target) != ast.KindIdentifier {
				e.fail("rest parameters must be plain identifiers", target)

				return "", false
			}

			e.restParams[fn] = target
			over[p] = ""

			if lastComma != ast.NoNode {
				over[lastComma] = ""
			}
		}

		e.paramNames[p] = name
	}

	if len(over) == 0 {
		return "", false
	}

	return e.stringifyWith(id, over), true
}

// statementBlock adds the function prologue to function bodies.
func (e *engine) statementBlock(id ast.NodeID) (string, bool) {
	fn := e.tree.Parent(id)
	if !e.tree.Kind(fn).IsFunction() || e.tree.Node(id).Field != "body" {
		return "", false
	}

	insert := e.functionInsert(fn)
	if insert == "" {
		return "", false
	}

	return "{ " + insert + " " + removeBraces(e.stringify(id)) + "}", true
}

// functionInsert builds the statements that run before the body of fn:
// temporaries, captured this/arguments, private-state setup, the rest
// parameter, default values and destructured parameters.
func (e *engine) functionInsert(fn ast.NodeID) string {
	var inserted []string

	if vars := e.lexicalVarNames(fn); vars != "" {
		inserted = append(inserted, vars)
	}

	if e.initPrivate[fn] {
		inserted = append(inserted, "__initPrivate(this);")
	}

	params := e.params(fn)

	if rest, ok := e.restParams[fn]; ok {
		name := e.text[rest]
		pos := strconv.Itoa(len(params) - 1)
		temp := e.addTemp(fn, true)

		inserted = append(inserted, "for (var "+name+" = [], "+temp+" = "+pos+"; "+
			temp+" < arguments.length; ++"+temp+") "+name+".push(arguments["+temp+"]);")
	}

	for _, p := range params {
		pattern := p
		name := e.paramNames[p]

		if e.tree.Kind(p) == ast.KindAssignmentPattern {
			inserted = append(inserted, "if ("+name+" === void 0) "+name+" = "+e.text[e.tree.Field(p, "right")]+";")
			pattern = e.tree.Field(p, "left")
		}

		if e.tree.Kind(pattern).IsPattern() {
			inserted = append(inserted, "var "+strings.Join(e.translatePattern(pattern, name), ", ")+";")
		}
	}

	if temps := e.tempDecl(fn); temps != "" {
		inserted = append([]string{temps}, inserted...)
	}

	return strings.Join(inserted, " ")
}

func (e *engine) function(id ast.NodeID) (string, bool) {
	if !e.isAsync(id) {
		return "", false
	}

	return e.asyncFunction(id, e.paramText(id), e.text[e.tree.Field(id, "body")]), true
}

func (e *engine) arrowFunction(id ast.NodeID) (string, bool) {
	body := e.tree.Field(id, "body")
	bodyText := e.text[body]

	if e.tree.Kind(body) != ast.KindStatementBlock {
		insert := e.functionInsert(id)
		if insert != "" {
			insert += " "
		}

		bodyText = "{ " + insert + "return " + bodyText + "; }"
	}

	var text string

	if e.isAsync(id) {
		text = e.asyncFunction(id, e.paramText(id), bodyText)
	} else {
		text = "function(" + e.paramText(id) + ") " + bodyText
	}

	return e.wrapFunctionExpression(text, id), true
}

// wrapFunctionExpression parenthesizes a function expression that starts an
// expression statement, where it would otherwise parse as a declaration.
func (e *engine) wrapFunctionExpression(text string, id ast.NodeID) string {
	start := e.tree.Node(id).Start

	for p := e.tree.Parent(id); p != ast.NoNode; p = e.tree.Parent(p) {
		k := e.tree.Kind(p)
		if isVarScope(k) {
			break
		}

		if k == ast.KindExpressionStatement {
			if e.tree.Node(p).Start == start {
				return "(" + text + ")"
			}

			break
		}
	}

	return text
}

// asyncFunction compiles an async function into an ordinary function that
// hands a generator to the runtime trampoline. The outer parameter list
// keeps the original arity; the generator receives the real bindings.
func (e *engine) asyncFunction(fn ast.NodeID, params, body string) string {
	t := e.tree
	head := "function"

	if t.Kind(fn) != ast.KindMethodDefinition {
		if name := t.Field(fn, "name"); name != ast.NoNode {
			head += " " + e.text[name]
		}
	}

	var outer []string

	for i, p := range e.params(fn) {
		switch t.Kind(p) {
		case ast.KindIdentifier:
			outer = append(outer, e.text[p])
		case ast.KindRestPattern:
		default:
			outer = append(outer, "__$"+strconv.Itoa(i))
		}
	}

	wrapper := "async"
	if e.isGenerator(fn) {
		wrapper = "asyncGen"
	}

	return head + "(" + strings.Join(outer, ", ") + ") { " +
		"return _esdown." + wrapper + "(function*(" + params + ") " +
		body + ".apply(this, arguments)); }"
}

// awaitYield suspends the generator behind an async function at text.
// Async generators box awaited values so the runtime can tell them apart
// from yielded ones.
func (e *engine) awaitYield(fn ast.NodeID, text string) string {
	if e.isGenerator(fn) {
		text = "{ _esdown_await: (" + text + ") }"
	}

	return "(yield " + text + ")"
}

func (e *engine) await(id ast.NodeID) (string, bool) {
	fn := e.parentFunction(id)
	if !e.isAsync(fn) {
		e.fail("await is only valid in async functions", id)

		return "", false
	}

	return e.awaitYield(fn, e.text[e.tree.FirstNamed(id)]), true
}

func (e *engine) yield(id ast.NodeID) (string, bool) {
	arg := e.tree.FirstNamed(id)
	if arg == ast.NoNode {
		return "yield void 0", true
	}

	if !e.tree.HasToken(id, "*") {
		return "", false
	}

	// The generator behind an async generator is synchronous, so it
	// delegates through an adapter that surfaces each step as an await.
	method := "iter"
	if e.isAsync(e.parentFunction(id)) {
		method = "asyncDelegate"
	}

	return e.stringifyWith(id, map[ast.NodeID]string{arg: "_esdown." + method + "(" + e.text[arg] + ")"}), true
}

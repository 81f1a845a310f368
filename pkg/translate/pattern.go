package translate

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

// patternNode mirrors one level of a destructuring target.
type patternNode struct {
	target   string
	key      string
	init     string
	restKeys []string
	children []*patternNode
	skip     int
	computed bool
	array    bool
	rest     bool
}

// translatePattern compiles a destructuring target into plain assignments
// that read from base. Each intermediate level is held in a temporary, so
// every value is extracted once, left to right and outer before inner.
func (e *engine) translatePattern(pattern ast.NodeID, base string) []string {
	root := &patternNode{}
	e.buildPattern(pattern, root)

	var outer, inner []string

	var visit func(node *patternNode, base string)

	visit = func(node *patternNode, base string) {
		helper := "objd"
		if node.array {
			helper = "arrayd"
		}

		var access string

		switch {
		case node.rest && node.skip > 0:
			access = base + ".rest(" + strconv.Itoa(node.skip) + ", " + node.key + ")"
		case node.rest:
			access = "_esdown.objRest(" + base + ", [" + strings.Join(node.restKeys, ", ") + "])"
		case node.skip > 0:
			access = base + ".at(" + strconv.Itoa(node.skip) + ", " + node.key + ")"
		case node.key != "":
			access = base + propGet(node.key, node.computed)
		default:
			access = base
		}

		temp := ""

		switch {
		case node.init != "":
			temp = e.addTemp(pattern, false)
			inner = append(inner, temp+" = "+access)

			value := temp + " === void 0 ? " + node.init + " : " + temp
			if node.target == "" {
				value = temp + " = _esdown." + helper + "(" + value + ")"
			}

			inner = append(inner, value)

		case node.target != "":
			inner = append(inner, access)

		default:
			temp = e.addTemp(pattern, false)
			inner = append(inner, temp+" = _esdown."+helper+"("+access+")")
		}

		if node.target != "" {
			if len(inner) == 1 {
				outer = append(outer, node.target+" = "+inner[0])
			} else {
				outer = append(outer, node.target+" = ("+strings.Join(inner, ", ")+")")
			}

			inner = inner[:0]
		}

		if temp != "" {
			base = temp
		}

		for _, c := range node.children {
			visit(c, base)
		}
	}

	visit(root, base)

	// A pattern that binds nothing still evaluates and checks its source.
	outer = append(outer, inner...)

	return outer
}

func (e *engine) buildPattern(id ast.NodeID, parent *patternNode) {
	t := e.tree

	switch t.Kind(id) {
	case ast.KindArrayPattern:
		parent.array = true
		pos, prev := 0, -1

		for _, c := range t.Node(id).Children {
			cn := t.Node(c)
			if !cn.Named {
				if cn.Type == "," {
					pos++
				}

				continue
			}

			if cn.Kind == ast.KindComment {
				continue
			}

			child := &patternNode{key: strconv.Itoa(pos), skip: pos - prev}
			prev = pos
			target := c

			switch cn.Kind {
			case ast.KindAssignmentPattern:
				child.init = e.text[t.Field(c, "right")]
				target = t.Field(c, "left")
			case ast.KindRestPattern:
				child.rest = true
				target = t.FirstNamed(c)
			}

			parent.children = append(parent.children, child)
			e.buildPattern(target, child)
		}

	case ast.KindObjectPattern:
		var keys []string

		for _, c := range t.NamedChildren(id) {
			child := &patternNode{}
			target := c

			switch t.Kind(c) {
			case ast.KindShorthandPropertyIdentifierPattern:
				child.key = t.Text(c)
			case ast.KindObjectAssignmentPattern:
				target = t.Field(c, "left")
				child.key = t.Text(target)
				child.init = e.text[t.Field(c, "right")]
			case ast.KindPairPattern:
				key := t.Field(c, "key")
				if t.Kind(key) == ast.KindComputedPropertyName {
					child.key = e.text[t.FirstNamed(key)]
					child.computed = true
				} else {
					child.key = t.Text(key)
				}

				target = t.Field(c, "value")
				if t.Kind(target) == ast.KindAssignmentPattern {
					child.init = e.text[t.Field(target, "right")]
					target = t.Field(target, "left")
				}
			case ast.KindRestPattern:
				child.rest = true
				child.restKeys = append([]string(nil), keys...)
				target = t.FirstNamed(c)
			}

			if !child.rest {
				keys = append(keys, keyLiteral(child.key, child.computed))
			}

			parent.children = append(parent.children, child)
			e.buildPattern(target, child)
		}

	default:
		parent.target = e.text[id]
	}
}

// propGet renders a property access for a pattern key.
func propGet(key string, computed bool) string {
	if computed || key == "" {
		return "[" + key + "]"
	}

	switch c := key[0]; {
	case c == '.' || c == '\'' || c == '"' || (c >= '0' && c <= '9'):
		return "[" + key + "]"
	}

	return "." + key
}

// keyLiteral renders a pattern key as an expression for the object rest
// exclusion list.
func keyLiteral(key string, computed bool) string {
	if computed || key == "" {
		return key
	}

	switch c := key[0]; {
	case c == '\'' || c == '"' || c == '.' || (c >= '0' && c <= '9'):
		return key
	}

	return quote(key)
}

func (e *engine) variableDeclarator(id ast.NodeID) (string, bool) {
	name := e.tree.Field(id, "name")
	value := e.tree.Field(id, "value")

	if value == ast.NoNode || !e.tree.Kind(name).IsPattern() {
		return "", false
	}

	return strings.Join(e.translatePattern(name, e.text[value]), ", "), true
}

func (e *engine) assignment(id ast.NodeID) (string, bool) {
	if ref, ok := e.privateSets[id]; ok {
		return e.privateAssignment(id, ref), true
	}

	if e.tree.Kind(id) != ast.KindAssignmentExpression {
		return "", false
	}

	left := e.tree.Unparen(e.tree.Field(id, "left"))
	if !e.tree.Kind(left).IsPattern() {
		return "", false
	}

	temp := e.addTemp(id, false)
	list := e.translatePattern(left, temp)
	list = append([]string{temp + " = " + e.text[e.tree.Field(id, "right")]}, list...)
	list = append(list, temp)

	return "(" + strings.Join(list, ", ") + ")", true
}

func (e *engine) catchClause(id ast.NodeID) (string, bool) {
	param := e.tree.Field(id, "parameter")
	if param == ast.NoNode || !e.tree.Kind(param).IsPattern() {
		return "", false
	}

	temp := e.addTemp(id, true)
	assign := strings.Join(e.translatePattern(param, temp), ", ")
	body := removeBraces(e.text[e.tree.Field(id, "body")])

	return "catch (" + temp + ") { var " + assign + "; " + body + "}", true
}

// forIn translates for-in heads and rewrites for-of loops into an explicit
// iterator protocol loop.
func (e *engine) forIn(id ast.NodeID) (string, bool) {
	t := e.tree
	kind := t.Field(id, "kind")

	if t.Node(t.Field(id, "operator")).Type == "in" {
		if kind == ast.NoNode {
			return "", false
		}

		return e.stringifyWith(id, map[ast.NodeID]string{kind: "var"}), true
	}

	left := t.Field(id, "left")
	right := t.Field(id, "right")
	body := t.Field(id, "body")

	iter := e.addTemp(id, true)
	result := e.addTemp(id, true)

	var head string

	if t.HasToken(id, "await") {
		fn := e.parentFunction(id)
		if !e.isAsync(fn) {
			e.fail("for await is only valid in async functions", id)

			return "", false
		}

		head = "for (var " + iter + " = _esdown.asyncIter(" + e.text[right] + "), " + result + "; "
		head += result + " = " + e.awaitYield(fn, iter+".next()") + ", "
	} else {
		head = "for (var " + iter + " = _esdown.iter(" + e.text[right] + "), " + result + "; "
		head += result + " = " + iter + ".next(), "
	}

	head += "!" + result + ".done;"
	head = e.syncNewlines(t.Node(left).Start, t.Node(right).End, head)
	head += t.Source[t.Node(right).End:t.Node(body).Start]

	decl := ""
	binding := left

	if kind != ast.NoNode {
		decl = "var "
	} else {
		binding = t.Unparen(left)
	}

	bodyText := e.text[body]
	if t.Kind(body) == ast.KindStatementBlock {
		bodyText = removeBraces(bodyText)
	} else {
		bodyText += " "
	}

	var assign string

	if t.Kind(binding).IsPattern() {
		assign = strings.Join(e.translatePattern(binding, result+".value"), ", ")
	} else {
		assign = e.text[binding] + " = " + result + ".value"
	}

	return head + "{ " + decl + assign + "; " + bodyText + "}", true
}

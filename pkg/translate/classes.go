package translate

import (
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

type privateName struct {
	mapName string
	method  bool
	static  bool
	init    bool
}

// privateTable records the private names declared by one class body.
type privateTable struct {
	names map[string]*privateName
	order []string
	id    int
}

type privateRef struct {
	object  string
	mapName string
	name    string
}

func (e *engine) privateKey(id ast.NodeID) string {
	return e.tree.Text(id)[1:]
}

func (e *engine) collectPrivateNames(body ast.NodeID) {
	t := e.tree
	ctor := ast.NoNode

	var table *privateTable

	add := func(name string, method, static bool) {
		if table == nil {
			table = &privateTable{id: e.privateSeq, names: make(map[string]*privateName)}
			e.privateSeq++
			e.privates[body] = table
		}

		mapName := "__private" + strconv.Itoa(table.id)
		if static {
			mapName = "__private_static" + strconv.Itoa(table.id)
		}

		if _, ok := table.names[name]; !ok {
			table.order = append(table.order, name)
		}

		table.names[name] = &privateName{mapName: mapName, method: method, static: static}
	}

	for _, m := range t.NamedChildren(body) {
		static := t.HasToken(m, "static")

		switch t.Kind(m) {
		case ast.KindMethodDefinition:
			name := t.Field(m, "name")

			if t.Kind(name) == ast.KindPrivatePropertyIdentifier {
				if t.HasToken(m, "get") || t.HasToken(m, "set") {
					e.fail("private accessors are not supported", name)

					return
				}

				add(e.privateKey(name), true, static)
			} else if !static && t.Text(name) == "constructor" {
				ctor = m
			}

		case ast.KindFieldDefinition:
			if prop := t.Field(m, "property"); t.Kind(prop) == ast.KindPrivatePropertyIdentifier {
				add(e.privateKey(prop), false, static)
			}
		}
	}

	if ctor != ast.NoNode && table != nil {
		e.initPrivate[ctor] = true
	}
}

// findPrivateName resolves a private name through the enclosing class bodies.
func (e *engine) findPrivateName(id ast.NodeID, name string) *privateName {
	for p := e.tree.Parent(id); p != ast.NoNode; p = e.tree.Parent(p) {
		if table, ok := e.privates[p]; ok {
			if entry, ok := table.names[name]; ok {
				return entry
			}
		}
	}

	e.fail("unknown private name @"+name, id)

	return nil
}

func (e *engine) strictDirective() string {
	if e.strict {
		return ""
	}

	return ` "use strict";`
}

// ctorName is the name the class body gives its constructor function.
func (e *engine) ctorName(class ast.NodeID) string {
	if name := e.tree.Field(class, "name"); name != ast.NoNode {
		return e.tree.Text(name)
	}

	return "__ctor"
}

func (e *engine) class(id ast.NodeID) (string, bool) {
	t := e.tree
	body := removeBraces(e.text[t.Field(id, "body")])
	factory := "_esdown.class(function(__) {" + e.strictDirective() + body + " })"
	name := t.Field(id, "name")

	if t.Kind(id) == ast.KindClassDeclaration {
		return "var " + e.text[name] + " = " + factory + ";", true
	}

	if name != ast.NoNode {
		factory = "function() { var " + e.text[name] + " = " + factory + "; return " + e.text[name] + "; }()"
	}

	return "(" + factory + ")", true
}

// classBody groups consecutive methods with the same target into one
// definition call and adds the constructor and private-state prologue.
func (e *engine) classBody(id ast.NodeID) (string, bool) {
	t := e.tree
	class := t.Parent(id)
	ctorName := e.ctorName(class)
	table := e.privates[id]
	over := make(map[ast.NodeID]string)
	hasCtor := false
	prevPrefix := ""
	prevMethod := ast.NoNode

	for _, m := range t.Node(id).Children {
		mn := t.Node(m)

		switch {
		case !mn.Named && mn.Type == ";":
			if prevMethod != ast.NoNode {
				over[m] = ""
			}

			continue
		case mn.Kind == ast.KindComment || !mn.Named:
			continue
		case mn.Kind != ast.KindMethodDefinition:
			prevPrefix = ""
			prevMethod = ast.NoNode

			continue
		}

		name := t.Field(m, "name")
		static := t.HasToken(m, "static")
		text := e.text[m]
		if static {
			text = strings.TrimLeft(strings.TrimPrefix(text, "static"), " \t")
		}

		fn := "__"
		target := ""

		if t.Kind(name) == ast.KindPrivatePropertyIdentifier {
			target = "__private_proto"
			if static {
				target = "__private_ctor"
			}
		} else if static {
			fn += ".static"
		}

		if !static && t.Text(name) == "constructor" {
			hasCtor = true
		}

		prefix := fn + "("
		if target != "" {
			prefix += target + ", "
		}

		switch {
		case t.Kind(name) == ast.KindComputedPropertyName:
			over[m] = prefix + "_esdown.computed({}, " + e.text[t.FirstNamed(name)] + ", { " + text + " }));"
			prefix = ""
		case prefix == prevPrefix:
			over[prevMethod] = strings.TrimSuffix(over[prevMethod], "});") + ","
			over[m] = text + "});"
		default:
			over[m] = prefix + "{ " + text + "});"
		}

		prevPrefix = prefix
		prevMethod = m
	}

	header := []string{"var " + ctorName + ";"}

	var footer string

	if table != nil {
		header = append(header, e.privateInit(table))
		footer = " __private_static" + strconv.Itoa(table.id) + ".set(" + ctorName + ", __private_ctor);"
	}

	if !hasCtor {
		ctorBody := ""
		if table != nil {
			ctorBody = " __initPrivate(this); "
		}

		header = append(header, "__({ constructor: "+ctorName+" = function() {"+ctorBody+"} });")
	}

	inner := removeBraces(e.stringifyWith(id, over))

	return "{ " + strings.Join(header, " ") + inner + footer + " }", true
}

// privateInit declares the hidden maps of a class and the function that
// creates the private state of each new instance.
func (e *engine) privateInit(table *privateTable) string {
	id := strconv.Itoa(table.id)

	var fields, inits []string

	for _, name := range table.order {
		entry := table.names[name]
		if entry.method || entry.static {
			continue
		}

		fields = append(fields, name+": { writable: true }")

		if entry.init {
			inits = append(inits, "__p."+name+" = __init_"+name+".call(__$); ")
		}
	}

	return "var __private" + id + " = new WeakMap, " +
		"__private_static" + id + " = new WeakMap, " +
		"__private_ctor = {}, " +
		"__private_proto = {}; " +
		"function __initPrivate(__$) { " +
		"if (__private" + id + ".has(__$)) throw new TypeError('Object already initialized'); " +
		"var __p; " +
		"__private" + id + ".set(__$, __p = Object.create(__private_proto, { " + strings.Join(fields, ", ") + " })); " +
		strings.Join(inits, "") +
		"}"
}

func (e *engine) methodDefinition(id ast.NodeID) (string, bool) {
	t := e.tree

	if t.HasToken(id, "get") || t.HasToken(id, "set") {
		return "", false
	}

	params := e.paramText(id)
	body := e.text[t.Field(id, "body")]

	var fn string

	switch {
	case e.isAsync(id):
		fn = e.asyncFunction(id, params, body)
	case e.isGenerator(id):
		fn = "function*(" + params + ") " + body
	default:
		fn = "function(" + params + ") " + body
	}

	name := t.Field(id, "name")
	key := e.text[name]
	parent := t.Parent(id)

	if t.Kind(parent) == ast.KindClassBody && !t.HasToken(id, "static") && t.Text(name) == "constructor" {
		return key + ": " + e.ctorName(t.Parent(parent)) + " = " + fn, true
	}

	return key + ": " + fn, true
}

func (e *engine) fieldDefinition(id ast.NodeID) (string, bool) {
	t := e.tree
	prop := t.Field(id, "property")

	if t.Kind(prop) != ast.KindPrivatePropertyIdentifier {
		e.fail("public class fields are not supported", id)

		return "", false
	}

	name := e.text[prop]
	value := t.Field(id, "value")

	if t.HasToken(id, "static") {
		init := "void 0"
		if value != ast.NoNode {
			init = e.text[value]
		}

		return "__private_ctor." + name + " = " + init + ";", true
	}

	if value == ast.NoNode {
		return "", true
	}

	if table := e.privates[t.Parent(id)]; table != nil {
		table.names[name].init = true
	}

	return "function __init_" + name + "() { return " + e.text[value] + "; }", true
}

func (e *engine) privateName(id ast.NodeID) (string, bool) {
	parent := e.tree.Parent(id)

	switch e.tree.Kind(parent) {
	case ast.KindMemberExpression, ast.KindMethodDefinition, ast.KindFieldDefinition:
		return e.privateKey(id), true
	}

	e.fail("unsupported use of private name", id)

	return "", false
}

func (e *engine) memberExpression(id ast.NodeID) (string, bool) {
	prop := e.tree.Field(id, "property")
	if e.tree.Kind(prop) != ast.KindPrivatePropertyIdentifier {
		return "", false
	}

	return e.privateReference(id, e.text[e.tree.Field(id, "object")], e.text[prop])
}

// privateReference rewrites obj.@name according to how the reference is
// used: a call keeps obj as the receiver, an assignment target is rewritten
// by its parent, and anything else becomes a lookup.
func (e *engine) privateReference(id ast.NodeID, object, name string) (string, bool) {
	t := e.tree
	entry := e.findPrivateName(id, name)

	if entry == nil {
		return "", false
	}

	p, child := t.ParenParent(id)
	field := t.Node(child).Field
	ref := privateRef{object: object, mapName: entry.mapName, name: name}

	switch t.Kind(p) {
	case ast.KindCallExpression:
		if field == "function" {
			temp := e.addTemp(p, false)
			e.injectThis[p] = temp

			return "_esdown.getPrivate(" + temp + " = " + object + ", " + entry.mapName + ", " + quote(name) + ")", true
		}

	case ast.KindAssignmentExpression, ast.KindAugmentedAssignmentExpression:
		if field == "left" {
			e.privateSets[p] = ref

			return "", true
		}

	case ast.KindUpdateExpression:
		e.privateSets[p] = ref

		return "", true

	case ast.KindObjectPattern, ast.KindArrayPattern, ast.KindRestPattern:
		e.fail("private references in destructuring targets are not supported", id)

		return "", false

	case ast.KindPairPattern, ast.KindAssignmentPattern, ast.KindObjectAssignmentPattern, ast.KindForInStatement:
		if field == "left" || field == "value" {
			e.fail("private references in destructuring targets are not supported", id)

			return "", false
		}

	case ast.KindUnaryExpression:
		if t.Node(t.Field(p, "operator")).Type == "delete" {
			e.fail("cannot delete a private reference", id)

			return "", false
		}
	}

	return e.getPrivate(ref), true
}

func (e *engine) getPrivate(ref privateRef) string {
	return "_esdown.getPrivate(" + ref.object + ", " + ref.mapName + ", " + quote(ref.name) + ")"
}

// storePrivate builds a store into a private slot. value receives the
// expression that reads the current slot and the temporary holding the
// result, and returns the stored expression.
func (e *engine) storePrivate(at ast.NodeID, ref privateRef, value func(read, result string) string) string {
	obj := e.addTemp(at, false)
	result := e.addTemp(at, false)
	read := "_esdown.getPrivate(" + obj + ", " + ref.mapName + ", " + quote(ref.name) + ")"

	return "(_esdown.setPrivate(" + obj + " = " + ref.object + ", " + ref.mapName + ", " +
		quote(ref.name) + ", " + value(read, result) + "), " + result + ")"
}

func (e *engine) privateAssignment(id ast.NodeID, ref privateRef) string {
	t := e.tree
	right := e.text[t.Field(id, "right")]

	if t.Kind(id) == ast.KindAssignmentExpression {
		temp := e.addTemp(id, false)

		return "(_esdown.setPrivate(" + ref.object + ", " + ref.mapName + ", " + quote(ref.name) + ", " +
			temp + " = " + right + "), " + temp + ")"
	}

	op := strings.TrimSuffix(t.Node(t.Field(id, "operator")).Type, "=")

	return e.storePrivate(id, ref, func(read, result string) string {
		return result + " = " + read + " " + op + " (" + right + ")"
	})
}

func (e *engine) update(id ast.NodeID) (string, bool) {
	ref, ok := e.privateSets[id]
	if !ok {
		return "", false
	}

	t := e.tree
	op := "+"

	if t.Node(t.Field(id, "operator")).Type == "--" {
		op = "-"
	}

	prefix := !t.Node(t.Node(id).Children[0]).Named

	return e.storePrivate(id, ref, func(read, result string) string {
		if prefix {
			return result + " = +" + read + " " + op + " 1"
		}

		return "(" + result + " = +" + read + ") " + op + " 1"
	}), true
}

// super maps super property lookups onto the class factory's prototype
// handles. A lookup that is called is invoked with the current receiver.
func (e *engine) super(id ast.NodeID) (string, bool) {
	t := e.tree
	p := t.Parent(id)

	if t.Kind(p) == ast.KindCallExpression && t.Node(id).Field == "function" {
		e.fail("super calls are not supported", id)

		return "", false
	}

	method := t.Enclosing(id, func(k ast.Kind) bool { return k == ast.KindMethodDefinition })
	if method == ast.NoNode || t.Kind(t.Parent(method)) != ast.KindClassBody {
		e.fail("super is only valid inside class methods", id)

		return "", false
	}

	proto := "__.super"
	if t.HasToken(method, "static") {
		proto = "__.csuper"
	}

	switch t.Kind(p) {
	case ast.KindMemberExpression, ast.KindSubscriptExpression:
		pp, child := t.ParenParent(p)
		if t.Kind(pp) == ast.KindCallExpression && t.Node(child).Field == "function" {
			e.injectThis[pp] = e.lexicalName(id, "this")
		}
	}

	return proto, true
}

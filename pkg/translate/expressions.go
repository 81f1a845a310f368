package translate

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
)

func (e *engine) hasSpread(elems []ast.NodeID) bool {
	for _, c := range elems {
		if e.tree.Kind(c) == ast.KindSpreadElement {
			return true
		}
	}

	return false
}

// spreadList builds a spread-builder chain over elems. Runs of plain
// elements become .s(...) calls and every spread element an .i(...) call.
// lead, when set, is passed as the first static run.
func (e *engine) spreadList(elems []ast.NodeID, lead string) string {
	var b strings.Builder

	b.WriteString("(_esdown.spread()")

	if lead != "" {
		b.WriteString(".s(" + lead + ")")
	}

	last := -1

	flush := func(end int) {
		if last < end-1 {
			b.WriteString(".s(" + e.joinList(elems[last+1:end]) + ")")
		}
	}

	for i, c := range elems {
		if e.tree.Kind(c) != ast.KindSpreadElement {
			continue
		}

		flush(i)
		b.WriteString(".i(" + e.text[e.tree.FirstNamed(c)] + ")")

		last = i
	}

	flush(len(elems))
	b.WriteString(".a)")

	return b.String()
}

func (e *engine) array(id ast.NodeID) (string, bool) {
	elems := e.tree.NamedChildren(id)
	if !e.hasSpread(elems) {
		return "", false
	}

	return e.spreadList(elems, ""), true
}

// object lowers literals with computed keys into alternating static
// segments and key expressions for _esdown.computed.
func (e *engine) object(id ast.NodeID) (string, bool) {
	t := e.tree
	over := make(map[ast.NodeID]string)
	computed := false
	hasComputed := false

	for _, c := range t.NamedChildren(id) {
		if t.Kind(c) == ast.KindSpreadElement {
			e.fail("object spread is not supported", c)

			return "", false
		}

		text := e.text[c]
		if computed {
			text = " }, { " + text
		}

		computed = false

		switch t.Kind(c) {
		case ast.KindPair, ast.KindMethodDefinition:
			key := t.Field(c, "key")
			if key == ast.NoNode {
				key = t.Field(c, "name")
			}

			if t.Kind(key) == ast.KindComputedPropertyName {
				computed = true
				hasComputed = true
				text = "}, " + e.text[t.FirstNamed(key)] + ", { " + text
			}
		}

		over[c] = text
	}

	if !hasComputed {
		return "", false
	}

	return "_esdown.computed(" + e.stringifyWith(id, over) + ")", true
}

func (e *engine) callExpression(id ast.NodeID) (string, bool) {
	t := e.tree
	callee := t.Field(id, "function")
	args := t.Field(id, "arguments")

	if t.Kind(args) == ast.KindTemplateString {
		return "(" + e.stringify(id) + ")", true
	}

	var elems []ast.NodeID
	if args != ast.NoNode {
		elems = t.NamedChildren(args)
	}

	spread := ""
	if e.hasSpread(elems) {
		spread = e.spreadList(elems, "")
	}

	if this, ok := e.injectThis[id]; ok {
		if spread != "" {
			return e.text[callee] + ".apply(" + this + ", " + spread + ")", true
		}

		if len(elems) > 0 {
			this += ", " + e.joinList(elems)
		}

		return e.text[callee] + ".call(" + this + ")", true
	}

	if spread == "" {
		return "", false
	}

	switch t.Kind(callee) {
	case ast.KindMemberExpression, ast.KindSubscriptExpression:
		temp := e.addTemp(id, false)
		obj := t.Field(callee, "object")
		text := e.stringifyWith(callee, map[ast.NodeID]string{obj: "(" + temp + " = " + e.text[obj] + ")"})

		return text + ".apply(" + temp + ", " + spread + ")", true
	}

	return e.text[callee] + ".apply(void 0, " + spread + ")", true
}

// newExpression binds spread arguments ahead of construction, since new
// cannot be combined with apply.
func (e *engine) newExpression(id ast.NodeID) (string, bool) {
	args := e.tree.Field(id, "arguments")
	if args == ast.NoNode {
		return "", false
	}

	elems := e.tree.NamedChildren(args)
	if !e.hasSpread(elems) {
		return "", false
	}

	ctor := e.text[e.tree.Field(id, "constructor")]

	return "new (Function.prototype.bind.apply(" + ctor + ", " + e.spreadList(elems, "null") + "))", true
}

// template lowers untagged templates to concatenation and tagged ones to a
// call-site object cached per syntactic site.
func (e *engine) template(id ast.NodeID) (string, bool) {
	t := e.tree
	n := t.Node(id)

	var raws, subs []string

	offset := n.Start + 1

	for _, c := range n.Children {
		cn := t.Node(c)
		if cn.Kind != ast.KindTemplateSubstitution {
			continue
		}

		raws = append(raws, t.Source[offset:cn.Start])
		subs = append(subs, e.text[t.FirstNamed(c)])
		offset = cn.End
	}

	raws = append(raws, t.Source[offset:n.End-1])

	p := t.Parent(id)
	if t.Kind(p) == ast.KindCallExpression && n.Field == "arguments" {
		return e.taggedTemplate(raws, subs), true
	}

	var b strings.Builder

	for i, raw := range raws {
		if i > 0 {
			b.WriteString(" + (" + subs[i-1] + ") + ")
		}

		b.WriteString(rawToString(raw))
	}

	return b.String(), true
}

func (e *engine) taggedTemplate(raws, subs []string) string {
	site := e.callSite()
	cooked := make([]string, len(raws))
	differs := false

	for i, raw := range raws {
		cooked[i] = rawToString(raw)
		differs = differs || strings.ContainsAny(raw, "\\\r")
	}

	args := "[" + strings.Join(cooked, ", ") + "]"

	if differs {
		rawList := make([]string, len(raws))
		for i, raw := range raws {
			rawList[i] = jsonString(normalizeLineEndings(raw))
		}

		args += ", [" + strings.Join(rawList, ", ") + "]"
	}

	out := "(" + site + " || (" + site + " = _esdown.callSite(" + args + "))"

	for _, s := range subs {
		out += ", " + s
	}

	return out + ")"
}

// callSite allocates a module-level variable caching one template call site.
func (e *engine) callSite() string {
	name := "__$c" + strconv.Itoa(e.callSites)
	e.callSites++
	e.temps[e.tree.Root] = append(e.temps[e.tree.Root], tempVar{name: name})

	return name
}

// rawToString turns raw template text into a double-quoted literal whose
// value is the cooked string. Line breaks become escaped newlines followed
// by a line continuation, so the literal spans the same number of lines.
func rawToString(raw string) string {
	var b strings.Builder

	b.WriteByte('"')

	for i := 0; i < len(raw); i++ {
		c := raw[i]

		switch c {
		case '\\':
			b.WriteByte(c)

			if i+1 < len(raw) {
				i++
				b.WriteByte(raw[i])

				if raw[i] == '\r' && i+1 < len(raw) && raw[i+1] == '\n' {
					i++
					b.WriteByte('\n')
				}
			}
		case '\r':
			b.WriteString(`\n\`)
			b.WriteByte('\r')

			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
				b.WriteByte('\n')
			}
		case '\n':
			b.WriteString(`\n\`)
			b.WriteByte('\n')
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}

	b.WriteByte('"')

	return b.String()
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.ReplaceAll(s, "\r", "\n")
}

// jsonString quotes s, escaping the line and paragraph separators that
// older engines reject inside string literals.
func jsonString(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return quote(s)
	}

	return string(data)
}

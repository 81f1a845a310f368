// Package ast provides an arena-backed syntax tree for JavaScript source.
//
// Nodes live in a single slice and refer to each other by NodeID, so side
// tables keyed by NodeID can attach data to nodes without mutating them.
package ast

// NodeID addresses a node inside its Tree.
type NodeID int32

// NoNode is the NodeID of an absent node.
const NoNode NodeID = -1

// Node is one syntax node. Anonymous tokens are nodes too, which lets the
// tree reproduce its source span exactly from its children.
type Node struct {
	Type     string
	Field    string
	Children []NodeID
	Start    int
	End      int
	Parent   NodeID
	Kind     Kind
	Named    bool
}

// Tree owns the node arena and the source text the spans point into.
type Tree struct {
	Source string
	Nodes  []Node
	Root   NodeID
}

// NewTree creates an empty tree over source.
func NewTree(source string, capacity int) *Tree {
	return &Tree{
		Source: source,
		Nodes:  make([]Node, 0, capacity),
		Root:   NoNode,
	}
}

// Add appends a node under parent and returns its id.
func (t *Tree) Add(parent NodeID, node Node) NodeID {
	id := NodeID(len(t.Nodes))
	node.Parent = parent
	t.Nodes = append(t.Nodes, node)

	if parent == NoNode {
		t.Root = id
	} else {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
	}

	return id
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Node returns the node for id.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Kind returns the kind of id, or KindInvalid for NoNode.
func (t *Tree) Kind(id NodeID) Kind {
	if id == NoNode {
		return KindInvalid
	}

	return t.Nodes[id].Kind
}

// Parent returns the parent of id.
func (t *Tree) Parent(id NodeID) NodeID {
	if id == NoNode {
		return NoNode
	}

	return t.Nodes[id].Parent
}

// Text returns the original source covered by id.
func (t *Tree) Text(id NodeID) string {
	if id == NoNode {
		return ""
	}

	n := &t.Nodes[id]

	return t.Source[n.Start:n.End]
}

// Field returns the first child of id stored under the grammar field name.
func (t *Tree) Field(id NodeID, name string) NodeID {
	for _, c := range t.Nodes[id].Children {
		if t.Nodes[c].Field == name {
			return c
		}
	}

	return NoNode
}

// NamedChildren returns the named, non-comment children of id.
func (t *Tree) NamedChildren(id NodeID) []NodeID {
	var out []NodeID

	for _, c := range t.Nodes[id].Children {
		n := &t.Nodes[c]
		if n.Named && n.Kind != KindComment {
			out = append(out, c)
		}
	}

	return out
}

// FirstNamed returns the first named, non-comment child of id.
func (t *Tree) FirstNamed(id NodeID) NodeID {
	for _, c := range t.Nodes[id].Children {
		n := &t.Nodes[c]
		if n.Named && n.Kind != KindComment {
			return c
		}
	}

	return NoNode
}

// HasToken reports whether id has an anonymous child token with the given text.
func (t *Tree) HasToken(id NodeID, token string) bool {
	return t.Token(id, token) != NoNode
}

// Token returns the first anonymous child token of id with the given text.
func (t *Tree) Token(id NodeID, token string) NodeID {
	for _, c := range t.Nodes[id].Children {
		n := &t.Nodes[c]
		if !n.Named && n.Type == token {
			return c
		}
	}

	return NoNode
}

// Unparen skips parenthesized expressions around id.
func (t *Tree) Unparen(id NodeID) NodeID {
	for t.Kind(id) == KindParenthesizedExpression {
		id = t.FirstNamed(id)
	}

	return id
}

// ParenParent returns the first ancestor of id that is not a parenthesized
// expression, together with the child of that ancestor on the path to id.
func (t *Tree) ParenParent(id NodeID) (parent, child NodeID) {
	child = id
	parent = t.Parent(id)

	for t.Kind(parent) == KindParenthesizedExpression {
		child = parent
		parent = t.Parent(parent)
	}

	return parent, child
}

// Walk visits id and its descendants in pre-order. Returning false from
// visit skips the children of that node.
func (t *Tree) Walk(id NodeID, visit func(NodeID) bool) {
	if !visit(id) {
		return
	}

	for _, c := range t.Nodes[id].Children {
		t.Walk(c, visit)
	}
}

// Enclosing returns the nearest proper ancestor of id matching pred.
func (t *Tree) Enclosing(id NodeID, pred func(Kind) bool) NodeID {
	for p := t.Parent(id); p != NoNode; p = t.Parent(p) {
		if pred(t.Nodes[p].Kind) {
			return p
		}
	}

	return NoNode
}

package scope

import (
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/esdown/pkg/ast"
	"github.com/Sumatoshi-tech/esdown/pkg/diag"
)

type collapser struct {
	tree   *Tree
	counts map[string]int
}

// Collapse assigns a "$N" suffix to every name declared in a block, loop or
// catch scope so the binding can live in its function's flat namespace. The
// counter is kept per raw name, which makes every suffix unique within the
// module and therefore within each function.
//
// A closure created inside a loop that refers to a binding scoped to an
// iteration of that loop fails with a ClosureCaptureError at the reference.
func Collapse(t *Tree) error {
	if t.Root == NoScope {
		return nil
	}

	c := &collapser{tree: t, counts: make(map[string]int)}

	return c.visit(t.Root, NoScope)
}

func (c *collapser) visit(id, forScope ID) error {
	s := &c.tree.Scopes[id]

	switch s.Kind {
	case KindBlock, KindCatch:
		c.rename(s)

	case KindFor:
		c.rename(s)

		if forScope == NoScope {
			forScope = id
		}

	case KindFunction:
		if forScope != NoScope {
			if err := c.checkCapture(s, &c.tree.Scopes[forScope]); err != nil {
				return err
			}

			forScope = NoScope
		}
	}

	for _, child := range s.Children {
		if err := c.visit(child, forScope); err != nil {
			return err
		}
	}

	return nil
}

func (c *collapser) rename(s *Scope) {
	for _, name := range s.Order {
		rec := s.Names[name]
		suffix := "$" + strconv.Itoa(c.counts[name])
		c.counts[name]++

		for _, decl := range rec.Declarations {
			c.tree.Suffix[decl] = suffix
		}

		for _, ref := range rec.References {
			c.tree.Suffix[ref] = suffix
		}
	}
}

func (c *collapser) checkCapture(fn, loop *Scope) error {
	for _, ref := range fn.Free {
		name := c.tree.Name(ref)
		if loop.IsFree(name) {
			continue
		}

		return captureError(c.tree.ast, ref, name)
	}

	return nil
}

func captureError(tree *ast.Tree, ref ast.NodeID, name string) error {
	n := tree.Node(ref)
	syntax := diag.NewSyntaxError(tree.Source,
		fmt.Sprintf("closure captures per-iteration binding %q", name),
		diag.Span{Start: n.Start, End: n.End})

	return &diag.ClosureCaptureError{Name: name, SyntaxError: *syntax}
}

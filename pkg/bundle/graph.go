// Package bundle discovers the static import graph of a root module,
// translates every reachable local module once and concatenates them into
// a single script.
package bundle

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Sumatoshi-tech/esdown/pkg/resolve"
)

// Sentinel errors for graph bookkeeping.
var (
	ErrUnknownModule    = errors.New("unknown module")
	ErrAlreadyProcessed = errors.New("module already processed")
)

// ModuleID indexes a module in its Graph.
type ModuleID int

// Module is a node of the import graph.
type Module struct {
	Path   string
	Name   string
	Output string
	Edges  []ModuleID

	processed bool
}

// External reports whether the module is loaded at run time instead of
// bundled.
func (m *Module) External() bool {
	return resolve.HasScheme(m.Path)
}

// Processed reports whether the module has been translated.
func (m *Module) Processed() bool {
	return m.processed
}

// Graph is an arena of modules keyed by path. Module names are allocated
// on first sight: the root is _M1 and every later path takes the next
// number.
type Graph struct {
	byPath  map[string]ModuleID
	modules []Module
	root    ModuleID
}

// NewGraph creates a graph whose root is the module at path.
func NewGraph(root string) *Graph {
	g := &Graph{byPath: make(map[string]ModuleID)}
	g.root = g.Add(root)

	return g
}

// Root returns the root module id.
func (g *Graph) Root() ModuleID {
	return g.root
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.modules)
}

// Module returns the module with id.
func (g *Graph) Module(id ModuleID) *Module {
	return &g.modules[id]
}

// Lookup finds the module at path.
func (g *Graph) Lookup(path string) (ModuleID, bool) {
	id, ok := g.byPath[path]

	return id, ok
}

// Add returns the id of the module at path, creating it if needed.
func (g *Graph) Add(path string) ModuleID {
	if id, ok := g.byPath[path]; ok {
		return id
	}

	id := ModuleID(len(g.modules))
	g.modules = append(g.modules, Module{Path: path, Name: "_M" + strconv.Itoa(int(id)+1)})
	g.byPath[path] = id

	return id
}

// AddEdge records that from imports to. Edges keep first-discovered order
// and are not duplicated.
func (g *Graph) AddEdge(from, to ModuleID) {
	m := &g.modules[from]

	for _, e := range m.Edges {
		if e == to {
			return
		}
	}

	m.Edges = append(m.Edges, to)
}

// SetOutput stores the translated text of the module at path.
func (g *Graph) SetOutput(path, output string) error {
	id, ok := g.byPath[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, path)
	}

	m := &g.modules[id]
	if m.processed {
		return fmt.Errorf("%w: %s", ErrAlreadyProcessed, path)
	}

	m.Output = output
	m.processed = true

	return nil
}

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

// Sort returns the modules reachable from the root in depth-first
// post-order, following edges in discovery order. Dependencies precede
// their importers except inside cycles, where each module still appears
// exactly once.
func (g *Graph) Sort() []ModuleID {
	state := make([]visitState, len(g.modules))
	order := make([]ModuleID, 0, len(g.modules))

	type frame struct {
		id   ModuleID
		next int
	}

	stack := []frame{{id: g.root}}
	state[g.root] = inProgress

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := g.modules[top.id].Edges

		if top.next < len(edges) {
			child := edges[top.next]
			top.next++

			if state[child] == unvisited {
				state[child] = inProgress
				stack = append(stack, frame{id: child})
			}

			continue
		}

		state[top.id] = done
		order = append(order, top.id)
		stack = stack[:len(stack)-1]
	}

	return order
}

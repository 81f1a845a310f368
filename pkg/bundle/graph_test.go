package bundle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/esdown/pkg/bundle"
)

func TestGraphNamesOnFirstSight(t *testing.T) {
	t.Parallel()

	g := bundle.NewGraph("/app/main.js")
	b := g.Add("/app/b.js")
	c := g.Add("/app/c.js")

	assert.Equal(t, b, g.Add("/app/b.js"))
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, "_M1", g.Module(g.Root()).Name)
	assert.Equal(t, "_M2", g.Module(b).Name)
	assert.Equal(t, "_M3", g.Module(c).Name)

	id, ok := g.Lookup("/app/c.js")
	require.True(t, ok)
	assert.Equal(t, c, id)

	_, ok = g.Lookup("/app/missing.js")
	assert.False(t, ok)
}

func TestGraphAddEdgeDedupes(t *testing.T) {
	t.Parallel()

	g := bundle.NewGraph("/a.js")
	b := g.Add("/b.js")

	g.AddEdge(g.Root(), b)
	g.AddEdge(g.Root(), b)

	assert.Equal(t, []bundle.ModuleID{b}, g.Module(g.Root()).Edges)
}

func TestGraphSetOutput(t *testing.T) {
	t.Parallel()

	g := bundle.NewGraph("/a.js")

	require.NoError(t, g.SetOutput("/a.js", "x"))
	assert.True(t, g.Module(g.Root()).Processed())
	assert.Equal(t, "x", g.Module(g.Root()).Output)

	require.ErrorIs(t, g.SetOutput("/a.js", "y"), bundle.ErrAlreadyProcessed)
	require.ErrorIs(t, g.SetOutput("/nope.js", "y"), bundle.ErrUnknownModule)
	assert.Equal(t, "x", g.Module(g.Root()).Output)
}

func TestGraphExternal(t *testing.T) {
	t.Parallel()

	g := bundle.NewGraph("/a.js")
	fs := g.Add("node:fs")

	assert.True(t, g.Module(fs).External())
	assert.False(t, g.Module(g.Root()).External())
}

func TestGraphSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]int
		nodes int
		want  []bundle.ModuleID
	}{
		{
			name:  "single",
			nodes: 1,
			want:  []bundle.ModuleID{0},
		},
		{
			name:  "chain",
			nodes: 3,
			edges: [][2]int{{0, 1}, {1, 2}},
			want:  []bundle.ModuleID{2, 1, 0},
		},
		{
			name:  "diamond",
			nodes: 4,
			edges: [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}},
			want:  []bundle.ModuleID{3, 1, 2, 0},
		},
		{
			name:  "cycle",
			nodes: 2,
			edges: [][2]int{{0, 1}, {1, 0}},
			want:  []bundle.ModuleID{1, 0},
		},
		{
			name:  "unreachable",
			nodes: 3,
			edges: [][2]int{{1, 2}},
			want:  []bundle.ModuleID{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := bundle.NewGraph("/m0.js")
			for i := 1; i < tt.nodes; i++ {
				g.Add("/m" + string(rune('0'+i)) + ".js")
			}

			for _, e := range tt.edges {
				g.AddEdge(bundle.ModuleID(e[0]), bundle.ModuleID(e[1]))
			}

			assert.Equal(t, tt.want, g.Sort())
		})
	}
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/esdown/pkg/bundle"
	"github.com/Sumatoshi-tech/esdown/pkg/resolve"
)

// Output formats of esdown graph.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Module kinds reported by esdown graph.
const (
	KindRoot     = "root"
	KindBundled  = "bundled"
	KindExternal = "external"
	KindLegacy   = "legacy"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown format")

// GraphNode is one module in the printed graph.
type GraphNode struct {
	ID    string   `json:"id"              yaml:"id"`
	Path  string   `json:"path"            yaml:"path"`
	Kind  string   `json:"kind"            yaml:"kind"`
	Edges []string `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// NewGraphCommand creates the graph subcommand.
func NewGraphCommand(app *App) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph <root>",
		Short: "Print the module graph of a bundle root",
		Long: `Discover every module the root imports and print one row per module in
bundle order: its bundle identifier, path, kind and the identifiers it imports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case FormatTable, FormatJSON, FormatYAML:
			default:
				return fmt.Errorf("%w: %q (want %s, %s or %s)", ErrUnknownFormat, format, FormatTable, FormatJSON, FormatYAML)
			}

			res, err := app.bundle(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}

			return renderGraph(cmd.OutOrStdout(), format, graphNodes(res, app.Config.Schemes()))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatTable, "output format: table, json, yaml")

	return cmd
}

// graphNodes lists the modules in bundle order, external modules first as
// they are declared.
func graphNodes(res *bundle.Result, schemes resolve.Schemes) []GraphNode {
	g := res.Graph
	nodes := make([]GraphNode, 0, g.Len())

	for _, id := range g.Sort() {
		m := g.Module(id)

		kind := KindBundled

		switch {
		case id == g.Root():
			kind = KindRoot
		case m.External() && schemes.IsLegacy(m.Path):
			kind = KindLegacy
		case m.External():
			kind = KindExternal
		}

		var edges []string
		for _, e := range m.Edges {
			edges = append(edges, g.Module(e).Name)
		}

		nodes = append(nodes, GraphNode{ID: m.Name, Path: m.Path, Kind: kind, Edges: edges})
	}

	return nodes
}

func renderGraph(w io.Writer, format string, nodes []GraphNode) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(nodes); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(nodes); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close() //nolint:wrapcheck // flush only
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"ID", "Path", "Kind", "Imports"})

	for _, n := range nodes {
		tbl.AppendRow(table.Row{n.ID, n.Path, n.Kind, strings.Join(n.Edges, ", ")})
	}

	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d modules", len(nodes)), "", ""})
	tbl.Render()

	return nil
}

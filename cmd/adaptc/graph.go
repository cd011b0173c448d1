package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/effectus/adaptation/protocol"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [manifest|dir]...",
		Short: "Render the adaptation graph",
		Long: `Render declared types and the offers between them.

Solid edges are offers, labelled with their converter. Dashed edges are
inheritance and provides declarations, which need no conversion.

Supported formats:
- mermaid for embedding in documentation
- dot for Graphviz rendering`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			paths, err := manifestArgs(args, cfg)
			if err != nil {
				return err
			}

			ws, err := loadWorkspace(paths, cfg.MaxExplored)
			if err != nil {
				return err
			}
			return renderGraph(cmd.OutOrStdout(), ws, cfg.Graph.Format)
		},
	}

	cmd.Flags().String("format", "mermaid", "Output format: mermaid or dot")
	return cmd
}

type graphEdge struct {
	from, to string
	label    string
	implied  bool
}

func collectEdges(ws *workspace) []graphEdge {
	var edges []graphEdge
	for _, t := range ws.manager.Catalog().Types() {
		if t.Name() == protocol.ObjectName {
			continue
		}
		for _, base := range t.Bases() {
			if base.Name() == protocol.ObjectName {
				continue
			}
			edges = append(edges, graphEdge{from: t.Name(), to: base.Name(), implied: true})
		}
		for _, iface := range t.Provides() {
			edges = append(edges, graphEdge{from: t.Name(), to: iface.Name(), implied: true})
		}
	}
	for _, f := range ws.factories {
		edge := graphEdge{from: f.FromName(), to: f.ToName(), label: f.ConverterName()}
		if edge.label == "identity" {
			edge.label = ""
			edge.implied = true
		}
		edges = append(edges, edge)
	}
	return edges
}

func renderGraph(w io.Writer, ws *workspace, format string) error {
	edges := collectEdges(ws)
	switch strings.ToLower(format) {
	case "", "mermaid":
		return renderMermaid(w, ws, edges)
	case "dot":
		return renderDot(w, ws, edges)
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}
}

func renderMermaid(w io.Writer, ws *workspace, edges []graphEdge) error {
	ids := make(map[string]string)
	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, t := range ws.manager.Catalog().Types() {
		if t.Name() == protocol.ObjectName {
			continue
		}
		id := fmt.Sprintf("n%d", len(ids))
		ids[t.Name()] = id
		if t.IsInterface() {
			fmt.Fprintf(&b, "  %s([\"%s\"])\n", id, t.Name())
		} else {
			fmt.Fprintf(&b, "  %s[\"%s\"]\n", id, t.Name())
		}
	}
	for _, e := range edges {
		from, to := ids[e.from], ids[e.to]
		if from == "" || to == "" {
			continue
		}
		switch {
		case e.implied:
			fmt.Fprintf(&b, "  %s -.-> %s\n", from, to)
		default:
			fmt.Fprintf(&b, "  %s -->|%s| %s\n", from, e.label, to)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderDot(w io.Writer, ws *workspace, edges []graphEdge) error {
	var b strings.Builder
	b.WriteString("digraph adaptation {\n  rankdir=LR;\n")
	for _, t := range ws.manager.Catalog().Types() {
		if t.Name() == protocol.ObjectName {
			continue
		}
		shape := "box"
		if t.IsInterface() {
			shape = "ellipse"
		}
		fmt.Fprintf(&b, "  %q [shape=%s];\n", t.Name(), shape)
	}
	for _, e := range edges {
		if e.implied {
			fmt.Fprintf(&b, "  %q -> %q [style=dashed];\n", e.from, e.to)
			continue
		}
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.from, e.to, e.label)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// Package render draws the connection graph of a document with Graphviz.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"pagebuilder/internal/domain"
)

// Options configures the connection graph.
type Options struct {
	// PageID limits the graph to connections touching one page. Empty means
	// the whole document.
	PageID string
	// Inactive includes disabled connections, drawn dashed.
	Inactive bool
}

var edgeColors = map[domain.ConnectionType]string{
	domain.ConnectionFilter:   "#0f766e",
	domain.ConnectionData:     "#2563eb",
	domain.ConnectionCart:     "#d97706",
	domain.ConnectionNavigate: "#7c3aed",
}

// ToDOT converts the connections of a document to Graphviz DOT. Elements
// are grouped in one cluster per page; dangling endpoints are skipped.
func ToDOT(doc *domain.Document, opts Options) string {
	var edges []domain.Connection
	used := map[string]bool{}
	for _, c := range doc.Connections {
		if !c.IsActive && !opts.Inactive {
			continue
		}
		src, ok1 := doc.Element(c.SourceElementID)
		dst, ok2 := doc.Element(c.TargetElementID)
		if !ok1 || !ok2 {
			continue
		}
		if opts.PageID != "" && src.PageID != opts.PageID && dst.PageID != opts.PageID {
			continue
		}
		edges = append(edges, c)
		used[src.ID], used[dst.ID] = true, true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")

	for i, page := range doc.Pages {
		var ids []string
		for _, id := range walk(doc, page.ElementIDs) {
			if used[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", page.Name)
		buf.WriteString("    style=\"rounded,dashed\";\n")
		for _, id := range ids {
			el, _ := doc.Element(id)
			fmt.Fprintf(&buf, "    %q [label=%q];\n", id, nodeLabel(el))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, c := range edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", c.SourceElementID, c.TargetElementID, strings.Join(edgeAttrs(c), ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// walk lists element ids in pre-order from the given roots.
func walk(doc *domain.Document, roots []string) []string {
	var out []string
	var visit func(ids []string)
	visit = func(ids []string) {
		for _, id := range ids {
			el, ok := doc.Element(id)
			if !ok {
				continue
			}
			out = append(out, id)
			visit(el.Children)
		}
	}
	visit(roots)
	return out
}

func nodeLabel(el *domain.Element) string {
	if name := el.Properties.String(domain.PropPropertyName); name != "" {
		return fmt.Sprintf("%s\n%s", el.Kind, name)
	}
	return string(el.Kind)
}

func edgeAttrs(c domain.Connection) []string {
	label := string(c.ConnectionType)
	if c.Description != "" {
		label += ": " + c.Description
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if color, ok := edgeColors[c.ConnectionType]; ok {
		attrs = append(attrs, fmt.Sprintf("color=%q", color), fmt.Sprintf("fontcolor=%q", color))
	}
	if !c.IsActive {
		attrs = append(attrs, "style=dashed")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

package tap

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// GraphOptions configures schema diagram generation.
type GraphOptions struct {
	// MaxTables caps the number of table nodes, keeping diagrams of large
	// archives readable. Zero means no limit.
	MaxTables int
	// Columns adds per-table column counts to node labels.
	Columns bool
}

// SchemaGraph renders a schema as a Graphviz DOT document: tables become
// nodes and foreign keys become edges. The result can be rendered with
// [RenderSVG] or any external Graphviz tool.
func SchemaGraph(s *Schema, opts GraphOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph schema {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	// Keys may reference tables by short or qualified name, so both map to
	// the emitted node ID.
	nodeID := make(map[string]string)
	for i, t := range s.Tables {
		if opts.MaxTables > 0 && i >= opts.MaxTables {
			break
		}
		id := t.QualifiedName()
		nodeID[id] = id
		nodeID[t.Name] = id
		fmt.Fprintf(&buf, "  %q [label=%q];\n", id, nodeLabel(t, opts))
	}

	buf.WriteString("\n")
	for _, k := range s.Keys {
		from, okFrom := nodeID[k.FromTable]
		to, okTo := nodeID[k.TargetTable]
		if !okFrom || !okTo {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", from, to)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(t TableMeta, opts GraphOptions) string {
	if !opts.Columns || len(t.Columns) == 0 {
		return t.QualifiedName()
	}
	return fmt.Sprintf("%s\n%d columns", t.QualifiedName(), len(t.Columns))
}

// RenderSVG renders a DOT document to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
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

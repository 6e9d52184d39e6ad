package dot

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds node types and features to labels.
	Detailed bool
	// Anchors draws the synthetic anchors edges from annotation nodes to
	// the tokens they cover.
	Anchors bool
	// Layers restricts annotation nodes and edges to these layers. Tokens
	// are always drawn. Empty means all layers.
	Layers []string
}

func (o Options) keep(name string) bool {
	return len(o.Layers) == 0 || slices.Contains(o.Layers, name)
}

// palette holds the fill colors assigned to layers in merge order.
var palette = []string{
	"#a6cee3", "#b2df8a", "#fb9a99", "#fdbf6f", "#cab2d6", "#ffff99",
	"#1f78b4", "#33a02c", "#e31a1c", "#ff7f00", "#6a3d9a", "#b15928",
}

// ToDOT converts a combined graph to Graphviz DOT. Canonical tokens are laid
// out left to right on the bottom rank; annotation nodes are filled with one
// color per layer.
func ToDOT(g *docgraph.Graph, opts Options) string {
	colors := make(map[string]string)
	for i, info := range g.Layers() {
		colors[info.Name] = palette[i%len(palette)]
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", graphName(g))
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	toks := g.Tokens()
	if len(toks) > 0 {
		buf.WriteString("  { rank=sink;\n")
		for _, t := range toks {
			n, _ := g.Node(t.ID)
			fmt.Fprintf(&buf, "    %q [%s];\n", t.ID, strings.Join(tokenAttrs(n, opts.Detailed), ", "))
		}
		buf.WriteString("  }\n")
		for i := 1; i < len(toks); i++ {
			fmt.Fprintf(&buf, "  %q -> %q [style=invis];\n", toks[i-1].ID, toks[i].ID)
		}
		buf.WriteString("\n")
	}

	for _, n := range g.Nodes() {
		if n.IsToken() || !opts.keep(n.Layer) {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed)),
			fmt.Sprintf("fillcolor=%q", colors[n.Layer]),
		}
		if n.Type == layer.NodeRoot {
			attrs = append(attrs, "shape=doubleoctagon")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if !drawn(e, opts) {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func graphName(g *docgraph.Graph) string {
	if g.Name == "" {
		return "G"
	}
	return g.Name
}

func drawn(e docgraph.Edge, opts Options) bool {
	switch e.Type {
	case layer.EdgeAnchors:
		return opts.Anchors && opts.keep(e.Layer)
	case layer.EdgePrecedes:
		return true
	}
	return slices.ContainsFunc(e.Layers, opts.keep)
}

func tokenAttrs(n *docgraph.Node, detailed bool) []string {
	label := n.Surface
	if detailed {
		label = n.ID + "\n" + n.Surface
		for _, name := range slices.Sorted(maps.Keys(n.Annotations)) {
			label += "\n" + fmtFeatures(name+".", n.Annotations[name])
		}
	}
	return []string{fmt.Sprintf("label=%q", strings.TrimRight(label, "\n")), "shape=plaintext", "style=\"\""}
}

func fmtLabel(n *docgraph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	label := n.ID + "\n" + string(n.Type)
	if f := fmtFeatures("", n.Features); f != "" {
		label += "\n" + f
	}
	return label
}

func fmtFeatures(prefix string, f layer.Features) string {
	parts := make([]string, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		parts = append(parts, fmt.Sprintf("%s%s: %v", prefix, k, f[k]))
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(e docgraph.Edge) []string {
	var attrs []string
	if e.Label != "" && e.Type != layer.EdgeAnchors && e.Type != layer.EdgePrecedes {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
	}
	switch e.Type {
	case layer.EdgeSpans:
		attrs = append(attrs, "style=dashed")
	case layer.EdgePointing:
		attrs = append(attrs, "color=\"#e31a1c\"", "constraint=false")
	case layer.EdgeAnchors:
		attrs = append(attrs, "style=dotted", "color=grey", "arrowhead=none")
	case layer.EdgePrecedes:
		attrs = append(attrs, "color=grey", "constraint=false")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(src string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

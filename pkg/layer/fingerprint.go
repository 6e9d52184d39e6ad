package layer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"
)

// Importer is the contract every format-specific reader satisfies to feed
// the merge engine. Implementations tag every node with its layer and type,
// declare token anchors and set [Graph.Tokenizing] when the format enumerates
// the primary tokens of the document.
type Importer interface {
	// Format returns the short format identifier (e.g. "tiger", "rs3").
	Format() string
	// Import reads one document from r into a layer graph named name.
	Import(r io.Reader, name string) (*Graph, error)
}

type fpNode struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Surface  string   `json:"surface,omitempty"`
	Anchor   *Anchor  `json:"anchor,omitempty"`
	Span     []int    `json:"span,omitempty"`
	Features Features `json:"features,omitempty"`
}

type fpEdge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Label    string   `json:"label,omitempty"`
	Type     EdgeType `json:"type"`
	Features Features `json:"features,omitempty"`
}

type fpGraph struct {
	Name       string   `json:"name"`
	ShortName  string   `json:"short_name,omitempty"`
	Tokenizing bool     `json:"tokenizing"`
	Nodes      []fpNode `json:"nodes"`
	Edges      []fpEdge `json:"edges"`
}

// Fingerprint returns a BLAKE3 digest (64 hex chars) of the layer content.
// Layer metadata is excluded, so the same annotation read from two different
// paths yields the same fingerprint. Feature maps are encoded with sorted
// keys, making the digest independent of map iteration order.
func (g *Graph) Fingerprint() string {
	fp := fpGraph{
		Name:       g.Name,
		ShortName:  g.ShortName,
		Tokenizing: g.Tokenizing,
		Nodes:      make([]fpNode, len(g.nodes)),
		Edges:      make([]fpEdge, len(g.edges)),
	}
	for i, n := range g.nodes {
		fp.Nodes[i] = fpNode{ID: n.ID, Type: n.Type, Surface: n.Surface, Anchor: n.Anchor, Span: n.Span, Features: n.Features}
	}
	for i, e := range g.edges {
		fp.Edges[i] = fpEdge{Source: e.Source, Target: e.Target, Label: e.Label, Type: e.Type, Features: e.Features}
	}

	data, err := json.Marshal(fp)
	if err != nil {
		// Features holding values encoding/json rejects (NaN, channels)
		// still need a stable digest.
		data = fp.text()
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// text is a pointer-free encoding of the fingerprint input. fmt prints maps
// with sorted keys, so the output is stable across runs.
func (fp fpGraph) text() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "G %q %q %t\n", fp.Name, fp.ShortName, fp.Tokenizing)
	for _, n := range fp.Nodes {
		anchor := "-"
		if n.Anchor != nil {
			anchor = fmt.Sprintf("%d/%q", n.Anchor.Offset, n.Anchor.Ref)
		}
		fmt.Fprintf(&b, "N %q %s %q %s %v %v\n", n.ID, n.Type, n.Surface, anchor, n.Span, map[string]any(n.Features))
	}
	for _, e := range fp.Edges {
		fmt.Fprintf(&b, "E %q %q %q %s %v\n", e.Source, e.Target, e.Label, e.Type, map[string]any(e.Features))
	}
	return []byte(b.String())
}

package io

import (
	"io"

	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/layer"
)

type graphFile struct {
	Name   string               `json:"name,omitempty"`
	Meta   layer.Features       `json:"meta,omitempty"`
	Layers []docgraph.LayerInfo `json:"layers"`
	Tokens []token              `json:"tokens"`
	Nodes  []node               `json:"nodes"`
	Edges  []edge               `json:"edges"`
}

type token struct {
	ID          string                    `json:"id"`
	Surface     string                    `json:"surface"`
	Annotations map[string]layer.Features `json:"annotations,omitempty"`
}

type node struct {
	ID       string         `json:"id"`
	Layer    string         `json:"layer"`
	RawID    string         `json:"raw_id"`
	Type     layer.NodeType `json:"type"`
	Features layer.Features `json:"features,omitempty"`
	Span     []string       `json:"span"`
}

type edge struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Label    string         `json:"label,omitempty"`
	Type     layer.EdgeType `json:"type"`
	Layers   []string       `json:"layers,omitempty"`
	Features layer.Features `json:"features,omitempty"`
}

// WriteGraph encodes a combined graph as JSON. Tokens are listed in document
// order with their per-layer annotations; annotation nodes carry their layer,
// raw ID and covered token IDs.
func WriteGraph(g *docgraph.Graph, w io.Writer) error {
	out := graphFile{
		Name:   g.Name,
		Meta:   g.Meta,
		Layers: g.Layers(),
		Tokens: []token{},
		Nodes:  []node{},
		Edges:  make([]edge, 0, g.EdgeCount()),
	}
	if out.Layers == nil {
		out.Layers = []docgraph.LayerInfo{}
	}
	for _, n := range g.Nodes() {
		if n.IsToken() {
			t := token{ID: n.ID, Surface: n.Surface}
			if len(n.Annotations) > 0 {
				t.Annotations = n.Annotations
			}
			out.Tokens = append(out.Tokens, t)
			continue
		}
		out.Nodes = append(out.Nodes, node{
			ID: n.ID, Layer: n.Layer, RawID: n.RawID, Type: n.Type, Features: n.Features, Span: g.Span(n.ID),
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, edge{
			Source: e.Source, Target: e.Target, Label: e.Label, Type: e.Type, Layers: e.Layers, Features: e.Features,
		})
	}
	return encode(w, out)
}

// ExportGraph writes a combined graph to a JSON file.
func ExportGraph(g *docgraph.Graph, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteGraph(g, w) })
}

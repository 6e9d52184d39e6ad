package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/layermerge/pkg/layer"
)

type layerFile struct {
	Name       string         `json:"name"`
	ShortName  string         `json:"short_name,omitempty"`
	Tokenizing bool           `json:"tokenizing,omitempty"`
	Meta       layer.Features `json:"meta,omitempty"`
	Nodes      []layerNode    `json:"nodes"`
	Edges      []layerEdge    `json:"edges"`
}

type layerNode struct {
	ID       string         `json:"id"`
	Type     layer.NodeType `json:"type,omitempty"`
	Surface  string         `json:"surface,omitempty"`
	Anchor   *layer.Anchor  `json:"anchor,omitempty"`
	Span     []int          `json:"span,omitempty"`
	Features layer.Features `json:"features,omitempty"`
}

type layerEdge struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Label    string         `json:"label,omitempty"`
	Type     layer.EdgeType `json:"type,omitempty"`
	Features layer.Features `json:"features,omitempty"`
}

// ReadLayer decodes a JSON layer from r. A non-empty name overrides the name
// stored in the file. It fails on malformed JSON, a missing layer name and
// duplicate node IDs. ReadLayer does not close r.
func ReadLayer(r io.Reader, name string) (*layer.Graph, error) {
	var data layerFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if name == "" {
		name = data.Name
	}
	if name == "" {
		return nil, fmt.Errorf("decode: layer has no name")
	}

	g := layer.New(name)
	g.ShortName = data.ShortName
	g.Tokenizing = data.Tokenizing
	for k, v := range data.Meta {
		g.Meta[k] = v
	}
	for _, n := range data.Nodes {
		typ := n.Type
		if typ == "" {
			typ = layer.NodeSpan
			if n.Surface != "" || n.Anchor != nil {
				typ = layer.NodeToken
			}
		}
		nd := layer.Node{ID: n.ID, Type: typ, Surface: n.Surface, Anchor: n.Anchor, Span: n.Span, Features: n.Features}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		ed := layer.Edge{Source: e.Source, Target: e.Target, Label: e.Label, Type: e.Type, Features: e.Features}
		if err := g.AddEdge(ed); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	return g, nil
}

// ImportLayer reads a JSON layer file. The layer is named by the file unless
// name is given.
func ImportLayer(path, name string) (*layer.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := ReadLayer(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.Meta["source"] = path
	return g, nil
}

// WriteLayer encodes a layer as JSON. The output can be read back with
// [ReadLayer]; the round trip preserves the fingerprint.
func WriteLayer(g *layer.Graph, w io.Writer) error {
	out := layerFile{
		Name:       g.Name,
		ShortName:  g.ShortName,
		Tokenizing: g.Tokenizing,
		Meta:       g.Meta,
		Nodes:      make([]layerNode, 0, g.NodeCount()),
		Edges:      make([]layerEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		out.Nodes = append(out.Nodes, layerNode{
			ID: n.ID, Type: n.Type, Surface: n.Surface, Anchor: n.Anchor, Span: n.Span, Features: n.Features,
		})
	}
	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, layerEdge{
			Source: e.Source, Target: e.Target, Label: e.Label, Type: e.Type, Features: e.Features,
		})
	}
	return encode(w, out)
}

// ExportLayer writes a layer to a JSON file.
func ExportLayer(g *layer.Graph, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteLayer(g, w) })
}

// Importer reads JSON layers through the [layer.Importer] contract.
type Importer struct{}

// Format returns "json".
func (Importer) Format() string { return "json" }

// Import decodes a JSON layer.
func (Importer) Import(r io.Reader, name string) (*layer.Graph, error) { return ReadLayer(r, name) }

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package io

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/merge"
)

const corefJSON = `{
  "name": "coref",
  "short_name": "mmax",
  "nodes": [
    {"id": "w1", "surface": "The"},
    {"id": "w2", "type": "token", "anchor": {"offset": 1}},
    {"id": "m1", "span": [0, 1], "features": {"np_form": "defnp", "level": 2}}
  ],
  "edges": [
    {"source": "m1", "target": "w1", "type": "spans"},
    {"source": "m1", "target": "nowhere", "label": "ante"}
  ]
}`

func TestReadLayer(t *testing.T) {
	g, err := ReadLayer(strings.NewReader(corefJSON), "")
	if err != nil {
		t.Fatalf("ReadLayer: %v", err)
	}
	if g.Name != "coref" || g.ShortName != "mmax" || g.Tokenizing {
		t.Errorf("header = %q %q %v", g.Name, g.ShortName, g.Tokenizing)
	}
	w1, _ := g.Node("w1")
	if w1.Type != layer.NodeToken {
		t.Errorf("w1 type = %q, want inferred token", w1.Type)
	}
	m1, _ := g.Node("m1")
	if m1.Type != layer.NodeSpan || len(m1.Span) != 2 {
		t.Errorf("m1 = %+v", m1)
	}
	edges := g.Edges()
	if len(edges) != 2 || edges[1].Type != layer.EdgePointing {
		t.Errorf("edges = %+v", edges)
	}

	renamed, _ := ReadLayer(strings.NewReader(corefJSON), "coref-2")
	if renamed.Name != "coref-2" {
		t.Errorf("name override ignored: %q", renamed.Name)
	}
}

func TestReadLayerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"nodes": [`},
		{"no name", `{"nodes": []}`},
		{"duplicate node", `{"name": "x", "nodes": [{"id": "a"}, {"id": "a"}]}`},
		{"empty edge endpoint", `{"name": "x", "nodes": [], "edges": [{"source": "", "target": "a"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadLayer(strings.NewReader(tt.input), ""); err == nil {
				t.Error("expected error")
			}
		})
	}

	_, err := ReadLayer(strings.NewReader(`{"name": "x", "nodes": [{"id": "a"}, {"id": "a"}]}`), "")
	if !errors.Is(err, layer.ErrDuplicateNodeID) {
		t.Errorf("err = %v, want ErrDuplicateNodeID", err)
	}
}

func TestLayerRoundTrip(t *testing.T) {
	g, err := ReadLayer(strings.NewReader(corefJSON), "")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "coref.json")
	if err := ExportLayer(g, path); err != nil {
		t.Fatalf("ExportLayer: %v", err)
	}
	back, err := ImportLayer(path, "")
	if err != nil {
		t.Fatalf("ImportLayer: %v", err)
	}
	if back.Fingerprint() != g.Fingerprint() {
		t.Error("round trip changed the fingerprint")
	}
	if back.Meta["source"] != path {
		t.Errorf("source meta = %v", back.Meta["source"])
	}
	if _, err := ImportLayer(filepath.Join(t.TempDir(), "missing.json"), ""); err == nil {
		t.Error("missing file should fail")
	}
}

func TestImporter(t *testing.T) {
	var imp layer.Importer = Importer{}
	if imp.Format() != "json" {
		t.Errorf("Format = %q", imp.Format())
	}
	if _, err := imp.Import(strings.NewReader(corefJSON), "c"); err != nil {
		t.Error(err)
	}
}

func TestWriteGraph(t *testing.T) {
	tokens, _ := ReadLayer(strings.NewReader(`{"name": "tok", "tokenizing": true,
		"nodes": [{"id": "a", "surface": "The"}, {"id": "b", "surface": "cat"}]}`), "")
	coref, _ := ReadLayer(strings.NewReader(corefJSON), "")

	g, _, err := merge.Merge(context.Background(), []*layer.Graph{tokens, coref}, merge.Options{Document: "doc1"})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatalf("WriteGraph: %v", err)
	}
	var out graphFile
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Name != "doc1" || len(out.Layers) != 2 || len(out.Tokens) != 2 {
		t.Errorf("header = %q, %d layers, %d tokens", out.Name, len(out.Layers), len(out.Tokens))
	}
	if len(out.Nodes) != 1 || out.Nodes[0].ID != "mmax:m1" || out.Nodes[0].RawID != "m1" {
		t.Fatalf("nodes = %+v", out.Nodes)
	}
	if got := strings.Join(out.Nodes[0].Span, ","); got != "t1,t2" {
		t.Errorf("span = %s", got)
	}
	if _, ok := out.Tokens[0].Annotations["coref"]; !ok {
		t.Errorf("token annotations = %v", out.Tokens[0].Annotations)
	}
}

package brat

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/merge"
)

const text = "The cat sat .\nIt purred ."

const ann = "T1\tMarkable 0 7\tThe cat\n" +
	"T2\tMarkable 14 16\tIt\n" +
	"T3\tMarkable 4 7;17 23\tcat purred\n" +
	"R1\tCoreference Arg1:T2 Arg2:T1\n" +
	"A1\tGeneric T1\n" +
	"A2\tConfidence T2 High\n" +
	"#1\tAnnotatorNotes T2\tpronoun\n" +
	"E1\tEvent:T3\n"

func TestTokenize(t *testing.T) {
	got := tokenize("  Grüße aus\tKöln ")
	want := []span{{2, 7}, {8, 11}, {12, 16}}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestImport(t *testing.T) {
	g, err := Importer{Text: text}.Import(strings.NewReader(ann), "coref")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if g.Tokenizing || g.NodeCount() != 3 || g.Meta["skipped"] != 1 {
		t.Errorf("layer = tokenizing %v, %d nodes, meta %v", g.Tokenizing, g.NodeCount(), g.Meta)
	}

	tests := []struct {
		id   string
		span []int
	}{
		{"T1", []int{0, 1}},
		{"T2", []int{4}},
		{"T3", []int{1, 5}},
	}
	for _, tt := range tests {
		n, _ := g.Node(tt.id)
		if n == nil || n.Type != layer.NodeEntity || !equalInts(n.Span, tt.span) {
			t.Errorf("%s = %+v, want span %v", tt.id, n, tt.span)
		}
	}

	t1, _ := g.Node("T1")
	t2, _ := g.Node("T2")
	if t1.Features["Generic"] != true || t1.Features["text"] != "The cat" {
		t.Errorf("T1 features = %v", t1.Features)
	}
	if t2.Features["Confidence"] != "High" || t2.Features["note"] != "pronoun" {
		t.Errorf("T2 features = %v", t2.Features)
	}

	edges := g.Edges()
	if len(edges) != 1 || edges[0].Source != "T2" || edges[0].Target != "T1" || edges[0].Label != "Coreference" {
		t.Errorf("edges = %+v", edges)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name string
		ann  string
	}{
		{"no body", "T1\n"},
		{"no offsets", "T1\tMarkable\tx\n"},
		{"bad offsets", "T1\tMarkable x 7\tThe cat\n"},
		{"reversed offsets", "T1\tMarkable 7 0\tThe cat\n"},
		{"duplicate id", "T1\tMarkable 0 3\tThe\nT1\tMarkable 4 7\tcat\n"},
		{"short relation", "R1\tCoreference Arg1:T1\n"},
		{"attribute on unknown", "A1\tGeneric T9\n"},
		{"note on unknown", "#1\tAnnotatorNotes T9\tx\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Importer{Text: text}.Import(strings.NewReader(tt.ann), "coref")
			if code := errors.GetCode(err); code != errors.ErrCodeInvalidFormat {
				t.Errorf("code = %q (err %v), want INVALID_FORMAT", code, err)
			}
		})
	}
}

func mergedDoc(t *testing.T) *docgraph.Graph {
	t.Helper()
	toks := layer.New("tok")
	toks.Tokenizing = true
	for i, w := range strings.Fields(text) {
		if err := toks.AddNode(layer.Node{ID: "w" + string(rune('0'+i)), Type: layer.NodeToken, Surface: w}); err != nil {
			t.Fatal(err)
		}
	}
	coref, err := Importer{Text: text}.Import(strings.NewReader(ann), "coref")
	if err != nil {
		t.Fatal(err)
	}
	doc, _, err := merge.Merge(context.Background(), []*layer.Graph{toks, coref}, merge.Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return doc
}

func TestMergedText(t *testing.T) {
	doc := mergedDoc(t)
	if got := doc.Text("coref:T1"); got != "The cat" {
		t.Errorf("T1 text = %q", got)
	}
	if got := doc.Text("coref:T3"); got != "cat purred" {
		t.Errorf("discontinuous T3 text = %q", got)
	}
}

func TestWrite(t *testing.T) {
	doc := mergedDoc(t)
	var buf bytes.Buffer
	if err := Write(&buf, doc, "coref"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := "T1\tMarkable 0 7\tThe cat\n" +
		"T2\tMarkable 14 16\tIt\n" +
		"R1\tCoreference Arg1:T2 Arg2:T1\n"
	if buf.String() != want {
		t.Errorf("Write =\n%s\nwant\n%s", buf.String(), want)
	}

	// The written file reads back into the same chain.
	back, err := Importer{Text: Text(doc)}.Import(strings.NewReader(buf.String()), "coref")
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if e := back.Edges(); len(e) != 1 || e[0].Source != "T2" || e[0].Target != "T1" {
		t.Errorf("re-imported edges = %+v", e)
	}
}

func TestWriteDir(t *testing.T) {
	doc := mergedDoc(t)
	dir := filepath.Join(t.TempDir(), "brat")
	path, err := WriteDir(doc, dir, "doc1", "coref")
	if err != nil {
		t.Fatalf("WriteDir: %v", err)
	}
	if filepath.Base(path) != "doc1.ann" {
		t.Errorf("path = %s", path)
	}
	txt, err := os.ReadFile(filepath.Join(dir, "doc1.txt"))
	if err != nil || string(txt) != "The cat sat . It purred ." {
		t.Errorf("text file = %q, %v", txt, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "annotation.conf")); err != nil {
		t.Error(err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package tiger

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/merge"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<corpus id="maz-1423">
  <head/>
  <body>
    <s id="s1" art_id="1423">
      <graph root="s1_502" discontinuous="false">
        <terminals>
          <t id="s1_1" word="The" pos="ART" morph="--"/>
          <t id="s1_2" word="cat" pos="NN" morph="--"/>
          <t id="s1_3" word="sat" pos="VVFIN" morph="--"/>
        </terminals>
        <nonterminals>
          <nt id="s1_500" cat="NP">
            <edge label="NK" idref="s1_1"/>
            <edge label="NK" idref="s1_2"/>
          </nt>
          <nt id="s1_502" cat="S">
            <edge label="SB" idref="s1_500"/>
            <edge label="HD" idref="s1_3"/>
          </nt>
        </nonterminals>
      </graph>
    </s>
    <s id="s2">
      <graph root="s2_1">
        <terminals>
          <t id="s2_1" word="Yes" pos="ITJ"/>
          <t id="s2_2" word="." pos="$.">
            <secedge label="RE" idref="s2_1"/>
          </t>
        </terminals>
        <nonterminals/>
      </graph>
    </s>
  </body>
</corpus>`

func TestImport(t *testing.T) {
	g, err := Importer{}.Import(strings.NewReader(sample), "tiger")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !g.Tokenizing || g.Meta["corpus_id"] != "maz-1423" || g.Meta["sentences"] != 2 {
		t.Errorf("layer header = %v %v", g.Tokenizing, g.Meta)
	}

	var words []string
	for _, n := range g.TokenNodes() {
		words = append(words, n.Surface)
	}
	if got := strings.Join(words, " "); got != "The cat sat Yes ." {
		t.Errorf("tokens = %q", got)
	}

	np, ok := g.Node("s1_500")
	if !ok || np.Type != layer.NodeNonTerminal || np.Features["cat"] != "NP" {
		t.Errorf("NP node = %+v", np)
	}
	cat, _ := g.Node("s1_2")
	if cat.Features["pos"] != "NN" {
		t.Errorf("terminal features = %v", cat.Features)
	}
	if _, has := cat.Features["word"]; has {
		t.Error("word attribute should become the surface, not a feature")
	}

	vroot, ok := g.Node("VROOT-s1")
	if !ok || vroot.Features["art_id"] != "1423" || vroot.Features["discontinuous"] != "false" {
		t.Errorf("VROOT-s1 = %+v", vroot)
	}
	if got := g.Children("VROOT-s1"); len(got) != 1 || got[0] != "s1_502" {
		t.Errorf("VROOT-s1 children = %v, want [s1_502]", got)
	}
	// No nonterminals: the virtual root dominates the terminals directly.
	if got := g.Children("VROOT-s2"); len(got) != 2 {
		t.Errorf("VROOT-s2 children = %v", got)
	}
	if got := g.Children(RootID); len(got) != 2 {
		t.Errorf("root children = %v", got)
	}

	var sec []layer.Edge
	for _, e := range g.Edges() {
		if e.Type == layer.EdgePointing {
			sec = append(sec, e)
		}
	}
	if len(sec) != 1 || sec[0].Source != "s2_2" || sec[0].Label != "RE" {
		t.Errorf("secondary edges = %+v", sec)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestImportMerges(t *testing.T) {
	g, err := Importer{}.Import(strings.NewReader(sample), "tiger")
	if err != nil {
		t.Fatal(err)
	}
	doc, rep, err := merge.Merge(context.Background(), []*layer.Graph{g}, merge.Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(rep.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", rep.Diagnostics)
	}
	if got := doc.Text("tiger:s1_500"); got != "The cat" {
		t.Errorf("NP text = %q", got)
	}
	if got := doc.Text("tiger:" + RootID); got != "The cat sat Yes ." {
		t.Errorf("root text = %q", got)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `<corpus><body></corpus>`},
		{"no corpus", `<treebank/>`},
		{"sentence without id", `<corpus><body><s><graph/></s></body></corpus>`},
		{"sentence without graph", `<corpus><body><s id="s1"/></body></corpus>`},
		{"duplicate terminal", `<corpus><body><s id="s1"><graph><terminals>
			<t id="a" word="x"/><t id="a" word="y"/></terminals></graph></s></body></corpus>`},
		{"terminal secedge without idref", `<corpus><body><s id="s1"><graph><terminals>
			<t id="a" word="x"><secedge label="RE"/></t></terminals></graph></s></body></corpus>`},
		{"nonterminal secedge without idref", `<corpus><body><s id="s1"><graph><terminals>
			<t id="a" word="x"/></terminals><nonterminals><nt id="n" cat="NP">
			<edge label="NK" idref="a"/><secedge label="RE"/></nt></nonterminals></graph></s></body></corpus>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Importer{}.Import(strings.NewReader(tt.input), "tiger")
			if code := errors.GetCode(err); code != errors.ErrCodeInvalidFormat {
				t.Errorf("code = %q (err %v), want INVALID_FORMAT", code, err)
			}
		})
	}
}

package tokens

import (
	"slices"
	"testing"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
)

func tokenLayer(name string, tokenizing bool, words ...string) *layer.Graph {
	g := layer.New(name)
	g.Tokenizing = tokenizing
	for i, w := range words {
		_ = g.AddNode(layer.Node{ID: name + "_w" + string(rune('a'+i)), Type: layer.NodeToken, Surface: w})
	}
	return g
}

func TestEstablishSelection(t *testing.T) {
	plain := tokenLayer("plain", false, "a", "b")
	tiger := tokenLayer("tiger", true, "The", "cat", "sat")
	other := tokenLayer("other", true, "The", "cat", "sat")

	tests := []struct {
		name         string
		layers       []*layer.Graph
		base         string
		wantLayer    string
		wantFallback bool
		wantLen      int
	}{
		{"first tokenizing wins", []*layer.Graph{plain, tiger, other}, "", "tiger", false, 3},
		{"designated base", []*layer.Graph{tiger, plain}, "plain", "plain", false, 2},
		{"fallback to first", []*layer.Graph{plain}, "", "plain", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, sel, err := Establish(tt.layers, tt.base)
			if err != nil {
				t.Fatalf("Establish: %v", err)
			}
			if sel.Layer != tt.wantLayer {
				t.Errorf("Layer = %q, want %q", sel.Layer, tt.wantLayer)
			}
			if sel.Fallback != tt.wantFallback {
				t.Errorf("Fallback = %v, want %v", sel.Fallback, tt.wantFallback)
			}
			if seq.Len() != tt.wantLen {
				t.Errorf("Len = %d, want %d", seq.Len(), tt.wantLen)
			}
		})
	}
}

func TestEstablishErrors(t *testing.T) {
	if _, _, err := Establish(nil, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty input: err = %v, want INVALID_INPUT", err)
	}
	g := tokenLayer("tiger", true, "x")
	if _, _, err := Establish([]*layer.Graph{g}, "rst"); !errors.Is(err, errors.ErrCodeLayerNotFound) {
		t.Errorf("unknown base: err = %v, want LAYER_NOT_FOUND", err)
	}
}

func TestFromLayerIDs(t *testing.T) {
	seq, err := FromLayer(tokenLayer("tiger", true, "The", "cat", "sat"))
	if err != nil {
		t.Fatalf("FromLayer: %v", err)
	}
	var ids []string
	for _, tok := range seq {
		ids = append(ids, tok.ID)
		if tok.Origin != "tiger" {
			t.Errorf("Origin = %q, want tiger", tok.Origin)
		}
	}
	if !slices.Equal(ids, []string{"t1", "t2", "t3"}) {
		t.Errorf("IDs = %v", ids)
	}
	if !slices.Equal(seq.Surfaces(), []string{"The", "cat", "sat"}) {
		t.Errorf("Surfaces = %v", seq.Surfaces())
	}
}

func TestFromLayerExplicitOffsets(t *testing.T) {
	g := layer.New("tiger")
	_ = g.AddNode(layer.Node{ID: "b", Type: layer.NodeToken, Surface: "cat", Anchor: &layer.Anchor{Offset: 1}})
	_ = g.AddNode(layer.Node{ID: "a", Type: layer.NodeToken, Surface: "The", Anchor: &layer.Anchor{Offset: 0}})
	_ = g.AddNode(layer.Node{ID: "a2", Type: layer.NodeToken, Anchor: &layer.Anchor{Ref: "a"}})

	seq, err := FromLayer(g)
	if err != nil {
		t.Fatalf("FromLayer: %v", err)
	}
	if !slices.Equal(seq.Surfaces(), []string{"The", "cat"}) {
		t.Errorf("Surfaces = %v", seq.Surfaces())
	}
}

func TestFromLayerGap(t *testing.T) {
	g := layer.New("tiger")
	_ = g.AddNode(layer.Node{ID: "a", Type: layer.NodeToken, Anchor: &layer.Anchor{Offset: 0}})
	_ = g.AddNode(layer.Node{ID: "c", Type: layer.NodeToken, Anchor: &layer.Anchor{Offset: 2}})

	if _, err := FromLayer(g); !errors.Is(err, errors.ErrCodeAlignment) {
		t.Errorf("gap: err = %v, want ALIGNMENT", err)
	}
}

func TestCompatible(t *testing.T) {
	seq, _ := FromLayer(tokenLayer("tiger", true, "The", "cat", "sat"))

	if err := seq.Compatible(tokenLayer("conll", true, "The", "cat", "sat")); err != nil {
		t.Errorf("identical tokens: %v", err)
	}
	if err := seq.Compatible(tokenLayer("conll", true, "The", "cat")); !errors.Is(err, errors.ErrCodeLayerConflict) {
		t.Errorf("count mismatch: err = %v, want LAYER_CONFLICT", err)
	}
	if err := seq.Compatible(tokenLayer("conll", true, "The", "dog", "sat")); !errors.Is(err, errors.ErrCodeLayerConflict) {
		t.Errorf("surface mismatch: err = %v, want LAYER_CONFLICT", err)
	}
}

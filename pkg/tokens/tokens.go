// Package tokens establishes the canonical token sequence all annotation
// layers of a document are aligned to.
//
// The sequence is seeded by one layer: the designated base layer, else the
// first layer flagged [layer.Graph.Tokenizing], else the first layer given
// (reported through [Selection.Fallback]). Every other layer is then aligned
// against it with [Sequence.Align], which maps token nodes to canonical
// offsets and validates explicit spans.
//
// Canonical token IDs are "t1", "t2", ... by document position.
package tokens

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// Token is one canonical document token.
type Token struct {
	ID      string // Canonical ID ("t1", "t2", ...)
	Index   int    // Zero-based document position
	Surface string // Surface form
	Origin  string // Layer that defined the token
}

// ID returns the canonical ID of the token at a zero-based offset.
func ID(offset int) string { return "t" + strconv.Itoa(offset+1) }

// Sequence is an ordered canonical token sequence.
type Sequence []Token

// Len returns the number of tokens.
func (s Sequence) Len() int { return len(s) }

// At returns the token at a zero-based offset.
func (s Sequence) At(offset int) (Token, bool) {
	if offset < 0 || offset >= len(s) {
		return Token{}, false
	}
	return s[offset], true
}

// Surfaces returns the surface forms in order.
func (s Sequence) Surfaces() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.Surface
	}
	return out
}

// Selection describes which layer seeded the sequence.
type Selection struct {
	Layer string
	// Designated is set when the layer was named explicitly by the caller.
	Designated bool
	// Fallback is set when no layer was flagged tokenizing and the first
	// layer was used instead. Callers should surface this as a warning.
	Fallback bool
}

// Establish picks the seeding layer from candidates and builds the canonical
// sequence from it. base names a designated layer; empty means automatic
// selection. It fails for an empty candidate list, an unknown base layer, or
// a seeding layer whose anchors do not form a contiguous sequence.
func Establish(candidates []*layer.Graph, base string) (Sequence, Selection, error) {
	seed, sel, err := selectSeed(candidates, base)
	if err != nil {
		return nil, Selection{}, err
	}
	seq, err := FromLayer(seed)
	if err != nil {
		return nil, sel, err
	}
	return seq, sel, nil
}

func selectSeed(candidates []*layer.Graph, base string) (*layer.Graph, Selection, error) {
	if len(candidates) == 0 {
		return nil, Selection{}, errors.New(errors.ErrCodeInvalidInput, "no layers to establish tokens from")
	}
	if base != "" {
		for _, g := range candidates {
			if g.Name == base {
				return g, Selection{Layer: g.Name, Designated: true}, nil
			}
		}
		return nil, Selection{}, errors.New(errors.ErrCodeLayerNotFound, "base layer %q not among merged layers", base)
	}
	for _, g := range candidates {
		if g.Tokenizing {
			return g, Selection{Layer: g.Name}, nil
		}
	}
	first := candidates[0]
	return first, Selection{Layer: first.Name, Fallback: true}, nil
}

// FromLayer builds a sequence from the token nodes of a single layer. Token
// nodes anchored by Ref are aliases and do not define tokens. The remaining
// anchors must cover offsets 0..n-1 exactly once.
func FromLayer(g *layer.Graph) (Sequence, error) {
	byOffset := make(map[int]*layer.Node)
	positional := 0
	for _, n := range g.TokenNodes() {
		if n.Anchor != nil && n.Anchor.Ref != "" {
			continue
		}
		off := positional
		if n.Anchor != nil {
			off = n.Anchor.Offset
		} else {
			positional++
		}
		if off < 0 {
			return nil, &errors.AlignmentError{Layer: g.Name, Node: n.ID, Anchor: n.Anchor.String(), Reason: "negative offset"}
		}
		if prev, dup := byOffset[off]; dup {
			return nil, &errors.AlignmentError{Layer: g.Name, Node: n.ID, Anchor: n.Anchor.String(),
				Reason: fmt.Sprintf("overlaps token node %q", prev.ID)}
		}
		byOffset[off] = n
	}

	seq := make(Sequence, len(byOffset))
	for i := range seq {
		n, ok := byOffset[i]
		if !ok {
			return nil, &errors.AlignmentError{Layer: g.Name, Anchor: fmt.Sprintf("offset %d", i),
				Reason: fmt.Sprintf("gap in token sequence of %d tokens", len(byOffset))}
		}
		seq[i] = Token{ID: ID(i), Index: i, Surface: n.Surface, Origin: g.Name}
	}
	return seq, nil
}

// Compatible checks that a tokenizing layer enumerates exactly this
// sequence. A mismatch in count or surface forms is a LayerConflictError.
func (s Sequence) Compatible(g *layer.Graph) error {
	other, err := FromLayer(g)
	if err != nil {
		return &errors.LayerConflictError{Layer: g.Name, Reason: err.Error()}
	}
	if len(other) != len(s) {
		return &errors.LayerConflictError{Layer: g.Name, Other: s.origin(),
			Reason: fmt.Sprintf("token count %d != %d", len(other), len(s))}
	}
	for i := range s {
		if other[i].Surface != s[i].Surface {
			return &errors.LayerConflictError{Layer: g.Name, Other: s.origin(),
				Reason: fmt.Sprintf("token %s: %q != %q", s[i].ID, other[i].Surface, s[i].Surface)}
		}
	}
	return nil
}

func (s Sequence) origin() string {
	if len(s) == 0 {
		return ""
	}
	return s[0].Origin
}

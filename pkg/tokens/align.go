package tokens

import (
	"fmt"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// Alignment maps the token-dependent nodes of one layer into a sequence.
type Alignment struct {
	// Tokens maps raw token node IDs to canonical offsets.
	Tokens map[string]int
	// Spans holds the validated explicit spans of annotation nodes.
	Spans map[string][]int
	// Rejected lists raw IDs of nodes whose anchor or span failed. The
	// matching AlignmentErrors are returned alongside.
	Rejected map[string]bool
}

// Offset returns the canonical offset of a token node.
func (a *Alignment) Offset(rawID string) (int, bool) {
	off, ok := a.Tokens[rawID]
	return off, ok
}

// Align resolves the anchors of every token node and validates the explicit
// spans of annotation nodes. It never fails as a whole: each defect produces
// an AlignmentError and the affected node is marked rejected, so the caller
// can merge the rest of the layer.
//
// Rules, applied in node insertion order:
//   - Offset anchors must lie within the sequence.
//   - Unanchored token nodes take the next positional offset.
//   - Ref anchors take the offset of an already aligned token node.
//   - Two non-alias token nodes may not claim the same offset.
//   - A non-empty Surface must equal the canonical surface.
//   - Span offsets must lie within the sequence and strictly increase.
func (s Sequence) Align(g *layer.Graph) (*Alignment, []error) {
	a := &Alignment{
		Tokens:   make(map[string]int),
		Spans:    make(map[string][]int),
		Rejected: make(map[string]bool),
	}
	var errs []error
	reject := func(n *layer.Node, reason string) {
		a.Rejected[n.ID] = true
		errs = append(errs, &errors.AlignmentError{Layer: g.Name, Node: n.ID, Anchor: n.Anchor.String(), Reason: reason})
	}

	claimed := make(map[int]string)
	positional := 0
	for _, n := range g.Nodes() {
		if !n.IsToken() {
			continue
		}
		var off int
		switch {
		case n.Anchor != nil && n.Anchor.Ref != "":
			ref, ok := a.Tokens[n.Anchor.Ref]
			if !ok {
				reject(n, fmt.Sprintf("reference %q is not an aligned token", n.Anchor.Ref))
				continue
			}
			off = ref
		case n.Anchor != nil:
			off = n.Anchor.Offset
		default:
			off = positional
			positional++
		}

		if off < 0 || off >= len(s) {
			reject(n, fmt.Sprintf("offset %d outside sequence of %d tokens", off, len(s)))
			continue
		}
		isAlias := n.Anchor != nil && n.Anchor.Ref != ""
		if prev, taken := claimed[off]; taken && !isAlias {
			reject(n, fmt.Sprintf("overlaps token node %q at %s", prev, ID(off)))
			continue
		}
		if n.Surface != "" && n.Surface != s[off].Surface {
			reject(n, fmt.Sprintf("surface %q != canonical %q at %s", n.Surface, s[off].Surface, ID(off)))
			continue
		}
		if !isAlias {
			claimed[off] = n.ID
		}
		a.Tokens[n.ID] = off
	}

	for _, n := range g.Nodes() {
		if n.IsToken() || len(n.Span) == 0 {
			continue
		}
		if reason := s.checkSpan(n.Span); reason != "" {
			a.Rejected[n.ID] = true
			errs = append(errs, &errors.AlignmentError{Layer: g.Name, Node: n.ID,
				Anchor: fmt.Sprintf("span %v", n.Span), Reason: reason})
			continue
		}
		a.Spans[n.ID] = n.Span
	}
	return a, errs
}

func (s Sequence) checkSpan(span []int) string {
	for i, off := range span {
		if off < 0 || off >= len(s) {
			return fmt.Sprintf("offset %d outside sequence of %d tokens", off, len(s))
		}
		if i > 0 && off <= span[i-1] {
			return "span offsets must strictly increase"
		}
	}
	return ""
}

// Package rs3 imports RS3 rhetorical structure files (RSTTool format).
//
// Segments become span nodes carrying their text; their whitespace tokens
// become token nodes "<segment id>_<n>" in document order, linked from the
// segment by spans edges. Groups become nonterminal nodes, the group
// without a parent becomes the root. Every parent attribute turns into an
// edge from the parent to the element labelled with the relation name:
// a spans edge for "span", a dominates edge for real RST relations.
package rs3

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers/internal/xmlutil"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// Segment types assigned from the relation an element takes part in.
const (
	Nucleus   = "nucleus"
	Satellite = "satellite"
	Isolated  = "isolated"
	Span      = "span"
)

var (
	rootExpr      = xpath.MustCompile("/rst")
	relationsExpr = xpath.MustCompile("header/relations/rel")
	segmentsExpr  = xpath.MustCompile("body/segment")
	groupsExpr    = xpath.MustCompile("body/group")
)

// Importer reads RS3 documents. Tokenizing marks the produced layers as
// eligible to seed the canonical tokens.
type Importer struct {
	Tokenizing bool
}

// Format returns "rs3".
func (Importer) Format() string { return "rs3" }

type element struct {
	id      string
	parent  string
	relname string
	segment bool
}

// Import reads one RS3 file into a layer.
func (imp Importer) Import(r io.Reader, name string) (*layer.Graph, error) {
	doc, err := xmlutil.Parse(r, "RS3")
	if err != nil {
		return nil, err
	}
	root := xmlquery.QuerySelector(doc, rootExpr)
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "RS3: missing <rst> element")
	}

	relations := make(map[string]string)
	for _, rel := range xmlquery.QuerySelectorAll(root, relationsExpr) {
		if typ := rel.SelectAttr("type"); typ != "" {
			relations[rel.SelectAttr("name")] = typ
		}
	}

	g := layer.New(name)
	g.ShortName = "rst"
	g.Tokenizing = imp.Tokenizing
	g.Meta["relations"] = len(relations)

	var elements []element
	var edus []string
	for _, seg := range xmlquery.QuerySelectorAll(root, segmentsExpr) {
		el, err := readElement(seg, true)
		if err != nil {
			return nil, err
		}
		text := strings.Join(strings.Fields(seg.InnerText()), " ")
		if err := add(g, layer.Node{
			ID:   el.id,
			Type: layer.NodeSpan,
			Features: layer.Features{
				"text":         text,
				"segment_type": segmentType(el, relations),
			},
		}); err != nil {
			return nil, err
		}
		for i, word := range strings.Fields(text) {
			tok := fmt.Sprintf("%s_%d", el.id, i)
			if err := add(g, layer.Node{ID: tok, Type: layer.NodeToken, Surface: word}); err != nil {
				return nil, err
			}
			_ = g.AddEdge(layer.Edge{Source: el.id, Target: tok, Type: layer.EdgeSpans})
		}
		elements = append(elements, el)
		edus = append(edus, el.id)
	}

	for _, grp := range xmlquery.QuerySelectorAll(root, groupsExpr) {
		el, err := readElement(grp, false)
		if err != nil {
			return nil, err
		}
		n := layer.Node{
			ID:   el.id,
			Type: layer.NodeNonTerminal,
			Features: layer.Features{
				"group_type":   grp.SelectAttr("type"),
				"segment_type": segmentType(el, relations),
			},
		}
		if el.parent == "" {
			n.Type = layer.NodeRoot
			g.Meta["root"] = el.id
		}
		if err := add(g, n); err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}

	for _, el := range elements {
		if el.parent != "" {
			addRelation(g, el, relations)
		}
	}
	g.Meta["edus"] = edus
	return g, nil
}

func readElement(n *xmlquery.Node, segment bool) (element, error) {
	el := element{
		id:      n.SelectAttr("id"),
		parent:  n.SelectAttr("parent"),
		relname: n.SelectAttr("relname"),
		segment: segment,
	}
	if el.id == "" {
		return el, errors.New(errors.ErrCodeInvalidFormat, "RS3: <%s> without id", n.Data)
	}
	return el, nil
}

// segmentType derives the nuclearity of an element from its relation.
func segmentType(el element, relations map[string]string) string {
	if el.parent == "" {
		if el.segment {
			return Isolated
		}
		return Span
	}
	switch relations[el.relname] {
	case "rst":
		return Satellite
	case "multinuc":
		return Nucleus
	default:
		return Span
	}
}

// addRelation links an element to its parent. A satellite marks its
// parent as the nucleus of the relation.
func addRelation(g *layer.Graph, el element, relations map[string]string) {
	st := segmentType(el, relations)
	typ := layer.EdgeDominates
	if st == Span {
		typ = layer.EdgeSpans
	}
	_ = g.AddEdge(layer.Edge{
		Source: el.parent,
		Target: el.id,
		Label:  el.relname,
		Type:   typ,
		Features: layer.Features{
			"rel_name": el.relname,
			"rel_type": relations[el.relname],
		},
	})

	parent, ok := g.Node(el.parent)
	if !ok || st == Span {
		return
	}
	parent.Features["rel_name"] = el.relname
	if st == Satellite {
		parent.Features["segment_type"] = Nucleus
	}
}

func add(g *layer.Graph, n layer.Node) error {
	if err := g.AddNode(n); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "RS3")
	}
	return nil
}

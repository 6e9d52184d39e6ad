// Package tiger imports TigerXML constituency annotation as a tokenizing
// layer.
//
// Every sentence becomes a virtual root "VROOT-<sentence id>" carrying the
// sentence attributes. It dominates the sentence's graph root and every
// node the annotation leaves unattached, so even sentences without
// nonterminals cover their tokens. A document root "root_node" spans all
// virtual roots.
//
// Terminals become token nodes in document order (positional anchors).
// Nonterminal <edge> elements become dominates edges labelled with the
// syntactic function; <secedge> elements become points_to edges.
package tiger

import (
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers/internal/xmlutil"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// RootID is the raw ID of the document root node.
const RootID = "root_node"

// VRootPrefix starts the raw ID of each sentence's virtual root.
const VRootPrefix = "VROOT-"

var (
	corpusExpr       = xpath.MustCompile("/corpus")
	sentencesExpr    = xpath.MustCompile("body/s")
	graphExpr        = xpath.MustCompile("graph")
	terminalsExpr    = xpath.MustCompile("graph/terminals/t")
	nonterminalsExpr = xpath.MustCompile("graph/nonterminals/nt")
	edgesExpr        = xpath.MustCompile("edge")
	secedgesExpr     = xpath.MustCompile("secedge")
)

// Importer reads TigerXML documents.
type Importer struct{}

// Format returns "tiger".
func (Importer) Format() string { return "tiger" }

// Import reads one TigerXML corpus file into a tokenizing layer.
func (Importer) Import(r io.Reader, name string) (*layer.Graph, error) {
	doc, err := xmlutil.Parse(r, "TigerXML")
	if err != nil {
		return nil, err
	}
	corpus := xmlquery.QuerySelector(doc, corpusExpr)
	if corpus == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "TigerXML: missing <corpus> element")
	}

	g := layer.New(name)
	g.Tokenizing = true
	g.Meta["corpus_id"] = corpus.SelectAttr("id")
	if err := g.AddNode(layer.Node{ID: RootID, Type: layer.NodeRoot}); err != nil {
		return nil, err
	}

	sentences := xmlquery.QuerySelectorAll(corpus, sentencesExpr)
	for _, s := range sentences {
		if err := addSentence(g, s); err != nil {
			return nil, err
		}
	}
	g.Meta["sentences"] = len(sentences)
	return g, nil
}

func addSentence(g *layer.Graph, s *xmlquery.Node) error {
	sid := s.SelectAttr("id")
	if sid == "" {
		return errors.New(errors.ErrCodeInvalidFormat, "TigerXML: sentence without id")
	}
	graph := xmlquery.QuerySelector(s, graphExpr)
	if graph == nil {
		return errors.New(errors.ErrCodeInvalidFormat, "TigerXML: sentence %s has no <graph>", sid)
	}

	vroot := VRootPrefix + sid
	feats := xmlutil.Attrs(s)
	if d := graph.SelectAttr("discontinuous"); d != "" {
		feats["discontinuous"] = d
	}
	if err := add(g, layer.Node{ID: vroot, Type: layer.NodeRoot, Features: feats}); err != nil {
		return err
	}
	_ = g.AddEdge(layer.Edge{Source: RootID, Target: vroot, Type: layer.EdgeSpans})

	var members []string
	dominated := make(map[string]bool)

	for _, t := range xmlquery.QuerySelectorAll(s, terminalsExpr) {
		id := t.SelectAttr("id")
		err := add(g, layer.Node{
			ID:       id,
			Type:     layer.NodeToken,
			Surface:  t.SelectAttr("word"),
			Features: xmlutil.Attrs(t, "id", "word"),
		})
		if err != nil {
			return err
		}
		members = append(members, id)
		if err := addSecondary(g, sid, id, t); err != nil {
			return err
		}
	}

	for _, nt := range xmlquery.QuerySelectorAll(s, nonterminalsExpr) {
		id := nt.SelectAttr("id")
		if err := add(g, layer.Node{ID: id, Type: layer.NodeNonTerminal, Features: xmlutil.Attrs(nt, "id")}); err != nil {
			return err
		}
		members = append(members, id)
		for _, e := range xmlquery.QuerySelectorAll(nt, edgesExpr) {
			target := e.SelectAttr("idref")
			if err := g.AddEdge(layer.Edge{
				Source:   id,
				Target:   target,
				Label:    e.SelectAttr("label"),
				Type:     layer.EdgeDominates,
				Features: xmlutil.Attrs(e, "idref", "label"),
			}); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "TigerXML: sentence %s", sid)
			}
			dominated[target] = true
		}
		if err := addSecondary(g, sid, id, nt); err != nil {
			return err
		}
	}

	for _, id := range members {
		if !dominated[id] {
			_ = g.AddEdge(layer.Edge{Source: vroot, Target: id, Label: "--", Type: layer.EdgeDominates})
		}
	}
	return nil
}

// addSecondary adds the <secedge> children of an element as pointing edges.
func addSecondary(g *layer.Graph, sid, source string, el *xmlquery.Node) error {
	for _, se := range xmlquery.QuerySelectorAll(el, secedgesExpr) {
		if err := g.AddEdge(layer.Edge{
			Source:   source,
			Target:   se.SelectAttr("idref"),
			Label:    se.SelectAttr("label"),
			Type:     layer.EdgePointing,
			Features: xmlutil.Attrs(se, "idref", "label"),
		}); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "TigerXML: sentence %s: secedge of %s", sid, source)
		}
	}
	return nil
}

func add(g *layer.Graph, n layer.Node) error {
	if err := g.AddNode(n); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "TigerXML")
	}
	return nil
}

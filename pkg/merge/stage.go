package merge

import (
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/namespace"
	"github.com/matzehuels/layermerge/pkg/tokens"
)

// anchorLabel labels the synthetic edges from annotation nodes to tokens.
const anchorLabel = string(layer.EdgeAnchors)

type annotation struct {
	token string
	feats layer.Features
}

// stage is one layer prepared for commit. Nothing in it refers to the
// target graph, so a commit either applies all of it or none.
type stage struct {
	info        docgraph.LayerInfo
	reg         *namespace.Registry
	nodes       []docgraph.Node
	annotations []annotation
	edges       []docgraph.Edge
	anchors     []docgraph.Edge
	diags       []Diagnostic
	dropped     int
}

func (s *stage) drop(d Diagnostic) {
	s.diags = append(s.diags, d)
	s.dropped++
}

// stageLayer aligns, namespaces and resolves one layer against the target's
// tokens on a clone of the target registry.
func stageLayer(target *docgraph.Graph, g *layer.Graph, fingerprint string, policy EdgePolicy) *stage {
	seq := target.Tokens()
	reg := target.Registry().Clone()
	s := &stage{
		reg: reg,
		info: docgraph.LayerInfo{
			Name:        g.Name,
			Prefix:      reg.AssignPrefix(g.Name, g.ShortName),
			Fingerprint: fingerprint,
			Tokenizing:  g.Tokenizing,
		},
	}

	al, alignErrs := seq.Align(g)
	for _, err := range alignErrs {
		var ae *errors.AlignmentError
		subject := ""
		if stderrors.As(err, &ae) {
			subject = ae.Node
		}
		s.drop(Diagnostic{Code: errors.ErrCodeAlignment, Layer: g.Name, Subject: subject, Message: err.Error(), Err: err})
	}

	for _, n := range g.TokenNodes() {
		off, ok := al.Offset(n.ID)
		if !ok {
			continue
		}
		id := tokens.ID(off)
		if err := reg.RegisterToken(g.Name, n.ID, id); err != nil {
			s.drop(Diagnostic{Code: errors.GetCode(err), Layer: g.Name, Subject: n.ID, Message: err.Error(), Err: err})
			continue
		}
		s.annotations = append(s.annotations, annotation{token: id, feats: n.Features})
	}

	cover := newCoverage(g, al)
	dropped := make(map[string]bool)
	for id := range al.Rejected {
		dropped[id] = true
	}
	for _, n := range g.Nodes() {
		if n.IsToken() || dropped[n.ID] {
			continue
		}
		offs := cover.of(n.ID)
		if len(offs) == 0 {
			dropped[n.ID] = true
			s.drop(Diagnostic{Code: errors.ErrCodeOrphanAnnotation, Layer: g.Name, Subject: n.ID,
				Message: fmt.Sprintf("%s node covers no token", n.Type)})
			continue
		}
		global, err := reg.Register(g.Name, n.ID)
		if err != nil {
			dropped[n.ID] = true
			s.drop(Diagnostic{Code: errors.GetCode(err), Layer: g.Name, Subject: n.ID, Message: err.Error(), Err: err})
			continue
		}
		s.nodes = append(s.nodes, docgraph.Node{
			ID:       global,
			Layer:    g.Name,
			RawID:    n.ID,
			Type:     n.Type,
			Features: n.Features.Clone(),
		})
		for _, off := range offs {
			s.anchors = append(s.anchors, docgraph.Edge{
				Source: global,
				Target: tokens.ID(off),
				Label:  anchorLabel,
				Type:   layer.EdgeAnchors,
				Layer:  g.Name,
			})
		}
	}

	skipping := false
	for _, e := range g.Edges() {
		subject := e.Source + "->" + e.Target
		switch {
		case skipping:
			s.drop(Diagnostic{Code: errors.ErrCodeEdgeSkipped, Layer: g.Name, Subject: subject,
				Message: "skipped after unresolved reference"})
			continue
		case dropped[e.Source] || dropped[e.Target]:
			s.drop(Diagnostic{Code: errors.ErrCodeEdgeSkipped, Layer: g.Name, Subject: subject,
				Message: "endpoint was dropped"})
			continue
		}
		src, err := resolveEndpoint(reg, g.Name, e, e.Source)
		if err == nil {
			var tgt string
			tgt, err = resolveEndpoint(reg, g.Name, e, e.Target)
			if err == nil {
				s.edges = append(s.edges, docgraph.Edge{
					Source:   src,
					Target:   tgt,
					Label:    e.Label,
					Type:     e.Type,
					Layer:    g.Name,
					Features: e.Features.Clone(),
				})
				continue
			}
		}
		s.drop(Diagnostic{Code: errors.ErrCodeUnresolvedReference, Layer: g.Name, Subject: subject, Message: err.Error(), Err: err})
		if policy == EdgePolicySkipRemaining {
			skipping = true
		}
	}
	return s
}

func resolveEndpoint(reg *namespace.Registry, layerName string, e layer.Edge, raw string) (string, error) {
	id, err := reg.Resolve(layerName, raw)
	if err != nil {
		return "", &errors.UnresolvedReferenceError{Layer: layerName, RawID: raw, Source: e.Source, Target: e.Target}
	}
	return id, nil
}

// commit writes a stage into the target. It returns the committed stats.
func commit(target *docgraph.Graph, s *stage) (nodes, edges, anchors int, err error) {
	for _, n := range s.nodes {
		switch addErr := target.AddNode(n); {
		case addErr == nil:
			nodes++
		case stderrors.Is(addErr, docgraph.ErrDuplicateNodeID):
			target.UpdateFeatures(n.ID, n.Features)
		default:
			return nodes, edges, anchors, errors.Wrap(errors.ErrCodeInternal, addErr, "commit node %s", n.ID)
		}
	}
	for _, a := range s.annotations {
		if err := target.Annotate(a.token, s.info.Name, a.feats); err != nil {
			return nodes, edges, anchors, errors.Wrap(errors.ErrCodeInternal, err, "annotate token %s", a.token)
		}
	}
	for _, e := range s.edges {
		added, err := target.AddEdge(e)
		if err != nil {
			return nodes, edges, anchors, errors.Wrap(errors.ErrCodeInternal, err, "commit edge %s->%s", e.Source, e.Target)
		}
		if added {
			edges++
		}
	}
	for _, e := range s.anchors {
		added, err := target.AddEdge(e)
		if err != nil {
			return nodes, edges, anchors, errors.Wrap(errors.ErrCodeInternal, err, "commit anchor %s->%s", e.Source, e.Target)
		}
		if added {
			anchors++
		}
	}
	target.CommitLayer(s.info, s.reg)
	return nodes, edges, anchors, nil
}

// coverage derives the token offsets a layer node covers: the explicit span
// if it has one, else the union over its dominates and spans edges.
type coverage struct {
	g    *layer.Graph
	al   *tokens.Alignment
	memo map[string][]int
	busy map[string]bool
}

func newCoverage(g *layer.Graph, al *tokens.Alignment) *coverage {
	return &coverage{g: g, al: al, memo: make(map[string][]int), busy: make(map[string]bool)}
}

func (c *coverage) of(id string) []int {
	if off, ok := c.al.Offset(id); ok {
		return []int{off}
	}
	if c.al.Rejected[id] {
		return nil
	}
	if span, ok := c.al.Spans[id]; ok {
		return span
	}
	if offs, ok := c.memo[id]; ok {
		return offs
	}
	if c.busy[id] {
		return nil
	}
	c.busy[id] = true
	var offs []int
	for _, e := range c.g.OutEdges(id) {
		if e.Type.Covers() {
			offs = append(offs, c.of(e.Target)...)
		}
	}
	slices.Sort(offs)
	offs = slices.Compact(offs)
	delete(c.busy, id)
	c.memo[id] = offs
	return offs
}

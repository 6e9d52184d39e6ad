package layer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the layer.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrLayerMismatch is returned when a node or edge is tagged with a layer
	// name different from the graph it is added to.
	ErrLayerMismatch = errors.New("layer name mismatch")

	// ErrInvalidEdgeEndpoint is returned by [Graph.AddEdge] for empty
	// endpoints and by [Graph.Validate] for endpoints that reference missing
	// nodes.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrInvalidAnchor is returned by [Graph.Validate] when a token anchor or
	// span is malformed (negative offsets, anchors on non-token nodes).
	ErrInvalidAnchor = errors.New("invalid anchor")
)

// Features stores arbitrary key-value annotations of a node or edge.
// Feature maps are never nil after a node or edge is added to a graph.
type Features map[string]any

// Clone returns a shallow copy of the feature map. A nil map clones to an
// empty map.
func (f Features) Clone() Features {
	if f == nil {
		return Features{}
	}
	return maps.Clone(f)
}

// NodeType classifies layer nodes.
type NodeType string

const (
	NodeToken       NodeType = "token"
	NodeNonTerminal NodeType = "nonterminal"
	NodeSpan        NodeType = "span"
	NodeRelation    NodeType = "relation"
	NodeEntity      NodeType = "entity"
	NodeRoot        NodeType = "root"
)

// EdgeType classifies layer edges. Only dominance and spanning edges
// contribute to the token coverage of a node.
type EdgeType string

const (
	EdgePointing  EdgeType = "points_to"
	EdgeDominates EdgeType = "dominates"
	EdgeSpans     EdgeType = "spans"
	EdgePrecedes  EdgeType = "precedes"
	EdgeAnchors   EdgeType = "anchors"
)

// Covers reports whether edges of this type propagate token coverage.
func (t EdgeType) Covers() bool { return t == EdgeDominates || t == EdgeSpans }

// Anchor maps a token node into the canonical token sequence.
// Exactly one of Offset or Ref is meaningful: a non-empty Ref wins.
type Anchor struct {
	Offset int    `json:"offset"`        // Zero-based canonical position
	Ref    string `json:"ref,omitempty"` // Raw ID of an earlier anchored token node
}

// String describes the anchor for diagnostics.
func (a *Anchor) String() string {
	switch {
	case a == nil:
		return "positional"
	case a.Ref != "":
		return "ref " + a.Ref
	default:
		return fmt.Sprintf("offset %d", a.Offset)
	}
}

// Node is a vertex of a layer graph.
type Node struct {
	ID       string   // Layer-local identifier
	Layer    string   // Owning layer; filled in by AddNode when empty
	Type     NodeType // Node category
	Features Features // Arbitrary annotations (never nil after AddNode)

	// Surface is the surface form of token nodes.
	Surface string
	// Anchor positions a token node; nil means positional alignment.
	Anchor *Anchor
	// Span lists the zero-based token offsets an annotation node covers,
	// in ascending order. Empty means coverage is derived from edges.
	Span []int
}

// IsToken reports whether the node represents a document token.
func (n Node) IsToken() bool { return n.Type == NodeToken }

// Edge is a directed, labelled connection between two layer nodes.
type Edge struct {
	Source   string   // Raw source ID
	Target   string   // Raw target ID
	Label    string   // Edge label (e.g. syntactic function, relation name)
	Type     EdgeType // Defaults to EdgePointing
	Layer    string   // Owning layer; filled in by AddEdge when empty
	Features Features // Arbitrary annotations (never nil after AddEdge)
}

// Graph is a directed multigraph holding one annotation layer.
//
// The zero value is not usable - use New to create a Graph.
type Graph struct {
	// Name is the unique layer name (e.g. "tiger", "rst", "coref").
	Name string
	// ShortName is the preferred namespace prefix. Empty means Name is used.
	ShortName string
	// Tokenizing marks the layer as eligible to seed canonical tokens.
	Tokenizing bool
	// Meta holds layer-level metadata such as the source file.
	Meta Features

	nodes    []*Node
	index    map[string]*Node
	edges    []Edge
	outgoing map[string][]int // raw ID -> indices into edges
}

// New creates an empty layer graph with the given name.
func New(name string) *Graph {
	return &Graph{
		Name:     name,
		Meta:     Features{},
		index:    make(map[string]*Node),
		outgoing: make(map[string][]int),
	}
}

// AddNode adds a node to the layer. Returns ErrInvalidNodeID for an empty
// ID, ErrDuplicateNodeID for an ID already in use, and ErrLayerMismatch when
// the node is tagged with another layer. The stored node owns a copy of the
// feature map and span.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.index[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
	}
	if n.Layer == "" {
		n.Layer = g.Name
	} else if n.Layer != g.Name {
		return fmt.Errorf("%w: node %s tagged %q, graph is %q", ErrLayerMismatch, n.ID, n.Layer, g.Name)
	}
	n.Features = n.Features.Clone()
	n.Span = slices.Clone(n.Span)
	if n.Anchor != nil {
		a := *n.Anchor
		n.Anchor = &a
	}
	node := &n
	g.nodes = append(g.nodes, node)
	g.index[n.ID] = node
	return nil
}

// AddEdge appends an edge. Endpoints need not exist yet (see package docs);
// only empty endpoints are rejected with ErrInvalidEdgeEndpoint.
func (g *Graph) AddEdge(e Edge) error {
	if e.Source == "" || e.Target == "" {
		return fmt.Errorf("%w: %q->%q", ErrInvalidEdgeEndpoint, e.Source, e.Target)
	}
	if e.Layer == "" {
		e.Layer = g.Name
	} else if e.Layer != g.Name {
		return fmt.Errorf("%w: edge %s->%s tagged %q, graph is %q", ErrLayerMismatch, e.Source, e.Target, e.Layer, g.Name)
	}
	if e.Type == "" {
		e.Type = EdgePointing
	}
	e.Features = e.Features.Clone()
	g.outgoing[e.Source] = append(g.outgoing[e.Source], len(g.edges))
	g.edges = append(g.edges, e)
	return nil
}

// Nodes returns all nodes in insertion order. The returned pointers refer to
// the stored nodes.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// OutEdges returns the edges leaving the node, in insertion order.
func (g *Graph) OutEdges(id string) []Edge {
	idx := g.outgoing[id]
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// Children returns the target IDs of the node's outgoing edges, without
// duplicates, in edge insertion order.
func (g *Graph) Children(id string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, j := range g.outgoing[id] {
		t := g.edges[j].Target
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// TokenNodes returns the token nodes in insertion order.
func (g *Graph) TokenNodes() []*Node {
	var toks []*Node
	for _, n := range g.nodes {
		if n.IsToken() {
			toks = append(toks, n)
		}
	}
	return toks
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Prefix returns the namespace hint: ShortName if set, otherwise Name.
func (g *Graph) Prefix() string {
	if g.ShortName != "" {
		return g.ShortName
	}
	return g.Name
}

// Validate checks structural integrity of the layer and returns all problems
// found, joined with errors.Join. It verifies that edge endpoints exist, that
// anchors appear only on token nodes, that offsets are non-negative and that
// anchor references point at token nodes.
//
// The merge engine does not require a valid layer; it reports the same
// defects as diagnostics. Importers use Validate to fail early.
func (g *Graph) Validate() error {
	var errs []error
	for _, e := range g.edges {
		if _, ok := g.index[e.Source]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge %s->%s: unknown source", ErrInvalidEdgeEndpoint, e.Source, e.Target))
		}
		if _, ok := g.index[e.Target]; !ok {
			errs = append(errs, fmt.Errorf("%w: edge %s->%s: unknown target", ErrInvalidEdgeEndpoint, e.Source, e.Target))
		}
	}
	for _, n := range g.nodes {
		if n.Anchor != nil && !n.IsToken() {
			errs = append(errs, fmt.Errorf("%w: non-token node %s declares an anchor", ErrInvalidAnchor, n.ID))
		}
		if n.Anchor != nil && n.Anchor.Ref == "" && n.Anchor.Offset < 0 {
			errs = append(errs, fmt.Errorf("%w: node %s has negative offset %d", ErrInvalidAnchor, n.ID, n.Anchor.Offset))
		}
		if n.Anchor != nil && n.Anchor.Ref != "" {
			if ref, ok := g.index[n.Anchor.Ref]; !ok || !ref.IsToken() {
				errs = append(errs, fmt.Errorf("%w: node %s references unknown token %s", ErrInvalidAnchor, n.ID, n.Anchor.Ref))
			}
		}
		for _, off := range n.Span {
			if off < 0 {
				errs = append(errs, fmt.Errorf("%w: node %s has negative span offset %d", ErrInvalidAnchor, n.ID, off))
				break
			}
		}
	}
	return errors.Join(errs...)
}

package docgraph

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/namespace"
	"github.com/matzehuels/layermerge/pkg/tokens"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same global ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the source
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the target
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrTokensEstablished is returned by [Graph.SetTokens] when the graph
	// already has a canonical token sequence.
	ErrTokensEstablished = errors.New("canonical tokens already established")

	// ErrNotAToken is returned by [Graph.Annotate] for non-token IDs.
	ErrNotAToken = errors.New("not a canonical token")
)

// Node is a vertex of the combined graph.
type Node struct {
	ID       string         // Global ID ("t3", "tiger:s1_500")
	Layer    string         // Owning layer; empty for canonical tokens
	RawID    string         // Layer-local ID; the token ID for tokens
	Type     layer.NodeType // Node category
	Features layer.Features // Copied layer features (never nil)

	// Surface and Index are set for canonical tokens only. Index is -1 for
	// annotation nodes.
	Surface string
	Index   int

	// Annotations holds token features per contributing layer.
	Annotations map[string]layer.Features
}

// IsToken reports whether the node is a canonical token.
func (n Node) IsToken() bool { return n.Type == layer.NodeToken }

// Edge is a directed, labelled edge of the combined graph.
type Edge struct {
	Source   string         // Global source ID
	Target   string         // Global target ID
	Label    string         // Edge label
	Type     layer.EdgeType // Edge category
	Layer    string         // Contributing layer with the lowest name
	Features layer.Features // Edge features (never nil)

	// Layers lists every layer that contributed this edge, sorted.
	Layers []string
}

// LayerInfo records a layer committed to the graph.
type LayerInfo struct {
	Name        string `json:"name"`
	Prefix      string `json:"prefix"`
	Fingerprint string `json:"fingerprint"`
	Tokenizing  bool   `json:"tokenizing,omitempty"`
}

type edgeKey struct{ source, target, label string }

// contribution is one layer's version of a shared edge.
type contribution struct {
	typ   layer.EdgeType
	feats layer.Features
}

// Graph is the combined multigraph of one document.
//
// The zero value is not usable - use New to create a Graph.
type Graph struct {
	// Name is the document name.
	Name string
	// Meta holds document-level metadata.
	Meta layer.Features

	tokens   tokens.Sequence
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	contrib  []map[string]contribution
	edgeIdx  map[edgeKey]int
	outgoing map[string][]int
	incoming map[string][]int
	registry *namespace.Registry
	layers   []LayerInfo
}

// New creates an empty combined graph.
func New(name string) *Graph {
	return &Graph{
		Name:     name,
		Meta:     layer.Features{},
		nodes:    make(map[string]*Node),
		edgeIdx:  make(map[edgeKey]int),
		outgoing: make(map[string][]int),
		incoming: make(map[string][]int),
		registry: namespace.New(),
	}
}

// SetTokens installs the canonical token sequence: one token node per token
// and a declaration of each token ID in the registry. It may be called once.
func (g *Graph) SetTokens(seq tokens.Sequence) error {
	if g.tokens != nil {
		return ErrTokensEstablished
	}
	g.tokens = slices.Clone(seq)
	if g.tokens == nil {
		g.tokens = tokens.Sequence{}
	}
	for _, t := range seq {
		g.registry.DeclareToken(t.ID)
		n := &Node{
			ID:          t.ID,
			RawID:       t.ID,
			Type:        layer.NodeToken,
			Features:    layer.Features{},
			Surface:     t.Surface,
			Index:       t.Index,
			Annotations: make(map[string]layer.Features),
		}
		g.nodes[n.ID] = n
		g.order = append(g.order, n.ID)
	}
	return nil
}

// HasTokens reports whether a canonical sequence has been established.
func (g *Graph) HasTokens() bool { return g.tokens != nil }

// Tokens returns the canonical token sequence.
func (g *Graph) Tokens() tokens.Sequence { return slices.Clone(g.tokens) }

// Registry returns the namespace registry of the graph.
func (g *Graph) Registry() *namespace.Registry { return g.registry }

// AddNode adds an annotation node. Features are copied; Index is forced to
// -1 for non-token nodes.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	n.Features = n.Features.Clone()
	if !n.IsToken() {
		n.Index = -1
	}
	node := &n
	g.nodes[n.ID] = node
	g.order = append(g.order, n.ID)
	return nil
}

// UpdateFeatures merges feats into an existing node's features. Keys in
// feats overwrite existing keys. It reports whether the node exists.
func (g *Graph) UpdateFeatures(id string, feats layer.Features) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	maps.Copy(n.Features, feats)
	return true
}

// Annotate attaches a layer's features to a canonical token. Repeated calls
// for the same layer merge into one map.
func (g *Graph) Annotate(tokenID, layerName string, feats layer.Features) error {
	n, ok := g.nodes[tokenID]
	if !ok || !n.IsToken() {
		return ErrNotAToken
	}
	cur, ok := n.Annotations[layerName]
	if !ok {
		n.Annotations[layerName] = feats.Clone()
		return nil
	}
	maps.Copy(cur, feats)
	return nil
}

// HasEdge reports whether an edge with the given key exists.
func (g *Graph) HasEdge(source, target, label string) bool {
	_, ok := g.edgeIdx[edgeKey{source, target, label}]
	return ok
}

// AddEdge adds an edge between two existing nodes. Edges are de-duplicated
// by (source, target, label): adding an existing edge records the extra
// contributing layer and returns false.
//
// A shared edge does not depend on the order its layers arrive in. Its Type
// and Layer come from the contributing layer with the lowest name, and on
// feature key conflicts that layer's value wins. An edge added again by the
// same layer overwrites that layer's contribution.
func (g *Graph) AddEdge(e Edge) (bool, error) {
	if _, ok := g.nodes[e.Source]; !ok {
		return false, ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return false, ErrUnknownTargetNode
	}
	if e.Type == "" {
		e.Type = layer.EdgePointing
	}
	k := edgeKey{e.Source, e.Target, e.Label}
	if i, ok := g.edgeIdx[k]; ok {
		c := g.contrib[i]
		if prev, ok := c[e.Layer]; ok {
			maps.Copy(prev.feats, e.Features)
			c[e.Layer] = contribution{typ: e.Type, feats: prev.feats}
		} else {
			c[e.Layer] = contribution{typ: e.Type, feats: e.Features.Clone()}
		}
		g.resolveEdge(i)
		return false, nil
	}
	i := len(g.edges)
	g.edgeIdx[k] = i
	g.outgoing[e.Source] = append(g.outgoing[e.Source], i)
	g.incoming[e.Target] = append(g.incoming[e.Target], i)
	g.edges = append(g.edges, e)
	g.contrib = append(g.contrib, map[string]contribution{
		e.Layer: {typ: e.Type, feats: e.Features.Clone()},
	})
	g.resolveEdge(i)
	return true, nil
}

// resolveEdge rebuilds edge i from its contributions.
func (g *Graph) resolveEdge(i int) {
	c := g.contrib[i]
	names := slices.Sorted(maps.Keys(c))
	cur := &g.edges[i]
	cur.Layer = names[0]
	cur.Type = c[names[0]].typ
	cur.Layers = nil
	feats := layer.Features{}
	for j := len(names) - 1; j >= 0; j-- {
		maps.Copy(feats, c[names[j]].feats)
		if names[j] != "" {
			cur.Layers = append(cur.Layers, names[j])
		}
	}
	slices.Sort(cur.Layers)
	cur.Features = feats
}

// CommitLayer records a merged layer and installs the registry it was staged
// on. Re-committing a layer name replaces its info in place.
func (g *Graph) CommitLayer(info LayerInfo, reg *namespace.Registry) {
	if reg != nil {
		g.registry = reg
	}
	if i := slices.IndexFunc(g.layers, func(l LayerInfo) bool { return l.Name == info.Name }); i >= 0 {
		g.layers[i] = info
		return
	}
	g.layers = append(g.layers, info)
}

// Layer returns the info of a committed layer.
func (g *Graph) Layer(name string) (LayerInfo, bool) {
	i := slices.IndexFunc(g.layers, func(l LayerInfo) bool { return l.Name == name })
	if i < 0 {
		return LayerInfo{}, false
	}
	return g.layers[i], true
}

// Layers returns the committed layers in merge order.
func (g *Graph) Layers() []LayerInfo { return slices.Clone(g.layers) }

// Node returns the node with the given global ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes: tokens first in document order, then annotation
// nodes in merge order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// OutEdges returns the edges leaving a node.
func (g *Graph) OutEdges(id string) []Edge { return g.pick(g.outgoing[id]) }

// InEdges returns the edges entering a node.
func (g *Graph) InEdges(id string) []Edge { return g.pick(g.incoming[id]) }

func (g *Graph) pick(idx []int) []Edge {
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// NodeCount returns the number of nodes, tokens included.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Span returns the IDs of the canonical tokens a node covers, in document
// order. A token covers itself; annotation nodes cover the targets of their
// anchors edges.
func (g *Graph) Span(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	if n.IsToken() {
		return []string{n.ID}
	}
	var idx []int
	for _, e := range g.OutEdges(id) {
		if e.Type != layer.EdgeAnchors {
			continue
		}
		if t, ok := g.nodes[e.Target]; ok && t.IsToken() {
			idx = append(idx, t.Index)
		}
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)
	out := make([]string, len(idx))
	for i, off := range idx {
		out[i] = tokens.ID(off)
	}
	return out
}

// Text returns the surface string a node covers, tokens joined by spaces.
func (g *Graph) Text(id string) string { return g.TokensText(g.Span(id)) }

// TokensText joins the surfaces of the given token IDs with spaces. Unknown
// IDs are skipped.
func (g *Graph) TokensText(ids []string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := g.nodes[id]; ok && n.IsToken() {
			parts = append(parts, n.Surface)
		}
	}
	return strings.Join(parts, " ")
}

// NodesByLayer returns the annotation nodes of a layer in merge order.
func (g *Graph) NodesByLayer(name string) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Layer == name {
			out = append(out, n)
		}
	}
	return out
}

// EdgesBy returns the edges contributed by a layer with the given type.
// An empty layer or type matches any.
func (g *Graph) EdgesBy(layerName string, typ layer.EdgeType) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if layerName != "" && !slices.Contains(e.Layers, layerName) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out
}

// AddPrecedenceRelations links consecutive canonical tokens with "precedes"
// edges. It returns the number of edges added; calling it twice adds none.
func (g *Graph) AddPrecedenceRelations() int {
	added := 0
	for i := 1; i < len(g.tokens); i++ {
		ok, err := g.AddEdge(Edge{
			Source: g.tokens[i-1].ID,
			Target: g.tokens[i].ID,
			Label:  string(layer.EdgePrecedes),
			Type:   layer.EdgePrecedes,
		})
		if err == nil && ok {
			added++
		}
	}
	return added
}

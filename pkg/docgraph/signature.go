package docgraph

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/matzehuels/layermerge/pkg/layer"
)

// Signature describes the graph content independently of merge order and of
// prefix naming. Annotation node IDs are rewritten to "layer#raw", token IDs
// stay canonical. The result is sorted, one line per node, token annotation
// and edge.
//
// Two graphs built from the same layers in different orders have equal
// signatures.
func (g *Graph) Signature() []string {
	var lines []string
	for _, id := range g.order {
		n := g.nodes[id]
		if n.IsToken() {
			lines = append(lines, fmt.Sprintf("T %s %s", n.ID, strconv.Quote(n.Surface)))
			for name, feats := range n.Annotations {
				lines = append(lines, fmt.Sprintf("A %s %s %s", n.ID, name, encodeFeatures(feats)))
			}
			continue
		}
		lines = append(lines, fmt.Sprintf("N %s %s %s", g.origin(n.ID), n.Type, encodeFeatures(n.Features)))
	}
	for _, e := range g.edges {
		lines = append(lines, fmt.Sprintf("E %s %s %s %s [%s] %s",
			g.origin(e.Source), g.origin(e.Target), strconv.Quote(e.Label), e.Type,
			strings.Join(e.Layers, ","), encodeFeatures(e.Features)))
	}
	slices.Sort(lines)
	return lines
}

// Digest returns the BLAKE3 hex digest of the signature.
func (g *Graph) Digest() string {
	sum := blake3.Sum256([]byte(strings.Join(g.Signature(), "\n")))
	return hex.EncodeToString(sum[:])
}

// origin renders a global ID by its provenance.
func (g *Graph) origin(id string) string {
	e, ok := g.registry.Lookup(id)
	if !ok || e.Token {
		return id
	}
	return e.Layer + "#" + e.RawID
}

func encodeFeatures(f layer.Features) string {
	if len(f) == 0 {
		return "{}"
	}
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(f))
	}
	return string(b)
}

// PointingChains returns the chains formed by a layer's points_to edges, such
// as anaphora or coreference chains. Each chain starts at a node no pointing
// edge of the layer enters and follows pointing edges as far as possible;
// branching yields one chain per path. Cycles without an entry point start at
// their earliest node and stop before revisiting a node.
func (g *Graph) PointingChains(layerName string) [][]string {
	next := make(map[string][]string)
	entered := make(map[string]bool)
	var seen []string
	mark := func(id string) {
		if !slices.Contains(seen, id) {
			seen = append(seen, id)
		}
	}
	for _, e := range g.EdgesBy(layerName, layer.EdgePointing) {
		next[e.Source] = append(next[e.Source], e.Target)
		entered[e.Target] = true
		mark(e.Source)
		mark(e.Target)
	}

	var chains [][]string
	covered := make(map[string]bool)
	var walk func(path []string)
	walk = func(path []string) {
		cur := path[len(path)-1]
		covered[cur] = true
		extended := false
		for _, t := range next[cur] {
			if slices.Contains(path, t) {
				continue
			}
			extended = true
			walk(append(slices.Clone(path), t))
		}
		if !extended && len(path) > 1 {
			chains = append(chains, path)
		}
	}
	for _, id := range seen {
		if !entered[id] {
			walk([]string{id})
		}
	}
	for _, id := range seen {
		if !covered[id] && len(next[id]) > 0 {
			walk([]string{id})
		}
	}
	return chains
}

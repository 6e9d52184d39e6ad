// Package layer provides the annotation graph for a single linguistic layer.
//
// # Overview
//
// A layer graph describes one annotation layer (syntax tree, rhetorical
// structure, coreference spans, connectives, anaphora) over a document. Layer
// graphs are produced by importers and consumed once by the merge engine in
// [github.com/matzehuels/layermerge/pkg/merge], which aligns them on a shared
// canonical token sequence.
//
// Node IDs are layer-local: two layers may both contain a node "n1" and the
// merge engine keeps them apart by namespacing.
//
// # Basic Usage
//
//	g := layer.New("coref")
//	_ = g.AddNode(layer.Node{ID: "w1", Type: layer.NodeToken, Surface: "The"})
//	_ = g.AddNode(layer.Node{ID: "m1", Type: layer.NodeSpan, Span: []int{0}})
//	_ = g.AddEdge(layer.Edge{Source: "m1", Target: "w1", Label: "mention"})
//
// # Token Anchors
//
// Every token node declares how it maps into the canonical token sequence:
//
//   - [Anchor.Offset]: an explicit zero-based document position
//   - [Anchor.Ref]: the raw ID of a token node of the same layer that is
//     anchored earlier, for layers that repeat a token under another ID
//   - no anchor: positional alignment, the n-th unanchored token node of the
//     layer maps to offset n
//
// Non-token nodes cover tokens either through an explicit [Node.Span] of
// offsets or through [EdgeDominates] and [EdgeSpans] edges leading to token
// nodes.
//
// # Edges
//
// [Graph.AddEdge] deliberately accepts edges whose endpoints do not exist.
// Dangling references are a data defect the merge engine reports rather than
// a construction error. Use [Graph.Validate] in importers to catch them early.
//
// # Concurrency
//
// Graph instances are not safe for concurrent modification. Read-only access
// from several goroutines is safe once construction is finished.
package layer

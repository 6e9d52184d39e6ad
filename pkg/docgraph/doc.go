// Package docgraph holds the combined multigraph produced by merging
// annotation layers over one document.
//
// # Overview
//
// A [Graph] is the union of:
//
//   - the canonical token nodes ("t1", "t2", ...), each present exactly once
//   - every namespaced annotation node ("tiger:s1_500", "rst:7", ...)
//   - the namespaced layer edges, de-duplicated by (source, target, label)
//   - synthetic "anchors" edges linking annotation nodes to the tokens they
//     cover, in ascending token order
//
// Features of layer token nodes are not merged into one map. They are kept
// per layer in [Node.Annotations] so that two layers annotating the same
// token never overwrite each other.
//
// # Building
//
// The graph is normally built by the merge engine, which stages each layer
// and then writes it through [Graph.SetTokens], [Graph.AddNode],
// [Graph.AddEdge], [Graph.Annotate] and [Graph.CommitLayer]. These mutators
// are exported for the engine and for exporters' tests; they perform no
// alignment or namespacing of their own.
//
// # Queries
//
//	g.Span("tiger:s1_502")          // []string{"t1", "t2"}
//	g.Text("tiger:s1_502")          // "The cat"
//	g.NodesByLayer("rst")           // annotation nodes of one layer
//	g.EdgesBy("coref", layer.EdgePointing)
//	g.PointingChains("coref")       // anaphora chains
//
// # Provenance
//
// Every annotation node records its layer and raw ID. [Graph.Registry]
// resolves any global ID back to its (layer, raw) origin, and
// [Graph.Signature] renders the whole graph in terms of those origins, which
// makes graphs built from the same layers in different orders comparable.
//
// A Graph is not safe for concurrent mutation. Concurrent reads are safe once
// the merge call that built it has returned.
package docgraph

// Package dot renders combined document graphs as Graphviz diagrams.
//
// # Usage
//
//	src := dot.ToDOT(g, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(src)
//
// # Layout
//
// Canonical tokens sit on the bottom rank in document order, labelled with
// their surface form. Annotation nodes are filled with one color per layer
// (in merge order). Edge styles follow the edge type:
//
//   - dominates: solid, labelled with the edge label
//   - spans: dashed
//   - points_to: red, not constraining the layout
//   - anchors: dotted grey, only with Options.Anchors
//   - precedes: grey
//
// [Options.Layers] restricts the annotation layers drawn.
//
// # Dependencies
//
// [RenderSVG] uses [github.com/goccy/go-graphviz] for in-process rendering.
package dot

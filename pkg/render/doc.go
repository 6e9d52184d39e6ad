// Package render turns combined document graphs into pictures.
//
// The [dot] subpackage produces Graphviz DOT source and renders it to SVG
// in-process. [ToPDF] and [ToPNG] convert any SVG to other formats using the
// external rsvg-convert tool (from librsvg).
//
//	src := dot.ToDOT(g, dot.Options{})
//	svg, err := dot.RenderSVG(src)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
package render

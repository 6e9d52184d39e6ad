// Package pkg provides the core libraries for layermerge.
//
// # Overview
//
// layermerge combines independently produced annotation layers of one
// document (syntax trees, rhetorical structure, coreference chains) into a
// single graph over a shared sequence of canonical tokens t1..tn. Every
// annotation node keeps its layer and raw ID, namespaced as "prefix:raw" so
// layers never collide.
//
// # Architecture
//
// The typical data flow:
//
//	TigerXML / RS3 / brat / JSON layer files
//	         ↓
//	    [importers] (one layer.Graph per file)
//	         ↓
//	    [merge] (token sequence, namespacing, per-layer staging and commit)
//	         ↓
//	    [docgraph] (combined graph + queries)
//	         ↓
//	    JSON / DOT / SVG / PNG / PDF / brat output
//
// # Quick Start
//
//	syntax, _ := tiger.Importer{}.Import(f, "syntax")
//	coref, _ := brat.Importer{Text: text}.Import(ann, "coref")
//
//	g, report, err := merge.Merge(ctx, []*layer.Graph{syntax, coref}, merge.Options{
//	    Document: "maz-1423",
//	})
//	fmt.Println(g.Text("coref:T1"))
//
// # Main Packages
//
// ## Data Model
//
// [layer] - A single annotation layer: typed nodes, token anchors, spans and
// typed edges, with a BLAKE3 content fingerprint.
//
// [tokens] - The canonical token sequence: seed selection, alignment of
// layer token nodes to canonical offsets, compatibility checks.
//
// [namespace] - The registry mapping (layer, raw ID) pairs to global IDs.
//
// [docgraph] - The combined document graph and its queries (spans, text,
// pointing chains, signature and digest).
//
// ## Merging
//
// [merge] - The merge engine. Layers are validated up front, staged on a
// cloned registry one at a time and committed atomically; defects become
// diagnostics in the [merge.Report].
//
// ## Input and Output
//
// [importers] - Format registry with TigerXML, RS3 and brat importers.
//
// [io] - The JSON layer interchange format and the combined-graph export.
//
// [render/dot] - Graphviz DOT and SVG output; [render] converts SVG to PDF
// and PNG.
//
// ## Infrastructure
//
// [pipeline] - Import → merge → export for one manifest, shared by the CLI
// and tests.
//
// [config] - TOML merge manifests.
//
// [cache] - Imported-layer cache keyed by source content.
//
// [observability] - Hooks for merge, pipeline and cache events.
//
// [errors] - Error codes, typed merge errors and input validation.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/merge/...     # Specific package
//	go test -run Example        # Examples only
package pkg

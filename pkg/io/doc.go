// Package io provides JSON import and export for annotation layers and
// combined document graphs.
//
// # Layer Format
//
// A layer file holds one [layer.Graph]:
//
//	{
//	  "name": "coref",
//	  "short_name": "mmax",
//	  "tokenizing": false,
//	  "nodes": [
//	    {"id": "w1", "type": "token", "surface": "The", "anchor": {"offset": 0}},
//	    {"id": "m1", "type": "span", "span": [0, 1], "features": {"np_form": "defnp"}}
//	  ],
//	  "edges": [
//	    {"source": "m2", "target": "m1", "label": "ante", "type": "points_to"}
//	  ]
//	}
//
// Node fields: id (required), type (defaults to "token" when surface is set,
// else "span"), surface, anchor ({"offset": n} or {"ref": "id"}), span
// (zero-based token offsets) and features. Edge fields: source and target
// (required), label, type (defaults to "points_to") and features.
//
// Edges may reference nodes that do not exist; the merge engine reports them.
// Duplicate node IDs are rejected at import.
//
// Use [ReadLayer] / [ImportLayer] to read and [WriteLayer] / [ExportLayer]
// to write. [Importer] adapts the reader to the [layer.Importer] contract.
//
// # Combined Graph Format
//
// [WriteGraph] and [ExportGraph] serialise a [docgraph.Graph] with its
// canonical tokens, namespaced nodes (including layer and raw ID for
// provenance), edges and committed layers. The format is for downstream
// tools; it is not read back.
package io

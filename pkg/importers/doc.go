// Package importers resolves annotation formats to their layer importers.
//
// Each format lives in its own subpackage and implements [layer.Importer]:
//
//   - tiger: TigerXML constituency syntax (tokenizing)
//   - rs3: RSTTool rhetorical structure
//   - brat: brat standoff entities and relations
//   - json: the native layer format of package io
//
// [Lookup] returns the importer for a format name as used in merge
// manifests and on the command line.
package importers

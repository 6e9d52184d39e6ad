// Package pipeline runs the import → merge → export pipeline for one
// document.
//
// The CLI and tests share this logic. A [Runner] holds the cache and logger;
// it keeps no pipeline results, so one Runner can execute several manifests
// concurrently.
//
// # Stages
//
//  1. Import: every [[layer]] of the manifest is read with its format's
//     importer. Imported layers are cached by the hash of their source
//     bytes and import options.
//  2. Merge: the layers are merged in manifest order with [merge.Merge].
//  3. Export: the combined graph is written in the requested formats.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	m, err := config.Load("merge.toml")
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Manifest: m,
//	    Formats:  []string{"json", "svg"},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/layermerge/pkg/config"
	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/merge"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatBrat = "ann"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatBrat: true,
}

// TTLLayer is how long imported layers stay cached.
const TTLLayer = 30 * 24 * time.Hour

// Options configures one pipeline run.
type Options struct {
	// Manifest lists the layers and merge settings. Required.
	Manifest *config.Manifest

	// Formats selects the outputs. Defaults to JSON.
	Formats []string
	// Refresh bypasses cached layers (fresh results are still stored).
	Refresh bool

	// Detailed and Anchors configure DOT, SVG, PNG and PDF output.
	Detailed bool
	Anchors  bool
	// BratLayer picks the layer whose pointing chains the brat export
	// writes. Empty uses every layer.
	BratLayer string
	// Scale is the PNG scale factor. Defaults to 2.
	Scale float64
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the combined document graph.
	Graph *docgraph.Graph
	// Report is the merge report.
	Report *merge.Report
	// Digest is the BLAKE3 digest of the graph signature.
	Digest string
	// Artifacts holds the rendered outputs keyed by format.
	Artifacts map[string][]byte
	// Stats holds timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Layers     int
	CacheHits  int
	NodeCount  int
	EdgeCount  int
	ImportTime time.Duration
	MergeTime  time.Duration
	ExportTime time.Duration
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: %s)",
			format, strings.Join(formatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatNames() []string {
	return []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF, FormatBrat}
}

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Manifest == nil {
		return errors.New(errors.ErrCodeInvalidInput, "manifest is required")
	}
	if err := o.Manifest.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = 2
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	return nil
}

// Summary renders the result in one line, e.g. for log output.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d layers, %d nodes, %d edges, %d diagnostics",
		r.Stats.Layers, r.Stats.NodeCount, r.Stats.EdgeCount, len(r.Report.Diagnostics))
}

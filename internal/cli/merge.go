package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/pipeline"
)

// mergeOpts holds the command-line flags for the merge command.
type mergeOpts struct {
	layerFlags
	output    string // output directory
	formats   string // comma-separated output formats
	noCache   bool
	refresh   bool
	detailed  bool
	anchors   bool
	bratLayer string
	scale     float64
}

func (c *CLI) mergeCommand() *cobra.Command {
	var opts mergeOpts

	cmd := &cobra.Command{
		Use:   "merge [manifest.toml]",
		Short: "Merge annotation layers into one document graph",
		Long: `Merge annotation layers into one document graph.

Layers come from a TOML manifest, from --layer flags, or both. A --layer
value has the form [name=][format:]path; the format is inferred from the
file extension when omitted (.xml tiger, .rs3 rs3, .ann brat, .json json).

Outputs are written to <output>/<name>.<format>.`,
		Example: `  layermerge merge merge.toml -f json,svg
  layermerge merge --layer syntax=tiger:maz.xml --layer maz.rs3 -f dot
  layermerge merge --layer tok.json --layer coref=brat:coref.ann --text doc.txt -f ann`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeManifest,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" && len(opts.layers) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "need a manifest or at least one --layer")
			}
			return c.runMerge(cmd, path, &opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.layers, "layer", "l", nil, "layer as [name=][format:]path (repeatable)")
	f.StringVar(&opts.text, "text", "", "plain text file for brat layers")
	f.StringVar(&opts.name, "name", "", "document name (default: manifest name or first layer)")
	f.StringVar(&opts.baseLayer, "base-layer", "", "layer that establishes the canonical tokens")
	f.StringVar(&opts.edgePolicy, "edge-policy", "", "unresolved edges: skip_remaining (default), drop_edge")
	f.BoolVar(&opts.precedence, "precedence", false, "add precedes edges between adjacent tokens")
	f.StringVarP(&opts.output, "output", "o", ".", "output directory")
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf, ann (comma-separated)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the layer cache")
	f.BoolVar(&opts.refresh, "refresh", false, "re-import layers even when cached")
	f.BoolVar(&opts.detailed, "detailed", false, "show node features in DOT/SVG output")
	f.BoolVar(&opts.anchors, "anchors", false, "draw anchors edges in DOT/SVG output")
	f.StringVar(&opts.bratLayer, "brat-layer", "", "layer whose pointing chains the ann output writes (default: all)")
	f.Float64Var(&opts.scale, "scale", 2, "PNG scale factor")
	_ = cmd.RegisterFlagCompletionFunc("format", completeOutputFormats)
	_ = cmd.RegisterFlagCompletionFunc("edge-policy", completeEdgePolicy)

	return cmd
}

func (c *CLI) runMerge(cmd *cobra.Command, path string, opts *mergeOpts) error {
	m, err := opts.manifest(path)
	if err != nil {
		return err
	}
	formats := parseFormats(opts.formats)
	if err := pipeline.ValidateFormats(formats); err != nil {
		return err
	}

	runner := c.newRunner(opts.noCache)
	defer runner.Close()

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		Manifest:  m,
		Formats:   formats,
		Refresh:   opts.refresh,
		Detailed:  opts.detailed,
		Anchors:   opts.anchors,
		BratLayer: opts.bratLayer,
		Scale:     opts.scale,
	})
	if err != nil {
		if result != nil && result.Report != nil {
			printWarning("Merge stopped in state %s after %d layers", result.Report.State, len(result.Report.Layers))
		}
		return err
	}
	prog.done(fmt.Sprintf("Merged %d layers", result.Stats.Layers))

	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", opts.output)
	}
	var written []string
	for format, data := range result.Artifacts {
		out := filepath.Join(opts.output, m.Name+"."+format)
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", out)
		}
		written = append(written, out)
	}
	sort.Strings(written)

	printSuccess("Merged %s", StyleHighlight.Render(m.Name))
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.CacheHits == result.Stats.Layers)
	printKeyValue("tokens", fmt.Sprint(result.Report.Tokens))
	printKeyValue("digest", result.Digest[:16])
	if sel := result.Report.Selection; sel.Fallback {
		printWarning("No tokenizing layer; tokens taken from %s", sel.Layer)
	}
	for _, d := range result.Report.Diagnostics {
		printWarning("%s", d.String())
	}
	for _, out := range written {
		printFile(out)
	}
	return nil
}

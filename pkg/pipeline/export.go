package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers/brat"
	lmio "github.com/matzehuels/layermerge/pkg/io"
	"github.com/matzehuels/layermerge/pkg/observability"
	"github.com/matzehuels/layermerge/pkg/render"
	"github.com/matzehuels/layermerge/pkg/render/dot"
)

// Export renders the graph in every requested format. SVG is rendered once
// and reused for PNG and PDF.
func (r *Runner) Export(ctx context.Context, g *docgraph.Graph, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := export(g, opts)
	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func export(g *docgraph.Graph, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	var src string
	var svg []byte

	dotSource := func() string {
		if src == "" {
			src = dot.ToDOT(g, dot.Options{Detailed: opts.Detailed, Anchors: opts.Anchors})
		}
		return src
	}
	svgBytes := func() ([]byte, error) {
		if svg == nil {
			var err error
			if svg, err = dot.RenderSVG(dotSource()); err != nil {
				return nil, err
			}
		}
		return svg, nil
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error
		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = lmio.WriteGraph(g, &buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dotSource())
		case FormatSVG:
			data, err = svgBytes()
		case FormatPNG:
			if data, err = svgBytes(); err == nil {
				data, err = render.ToPNG(data, opts.Scale)
			}
		case FormatPDF:
			if data, err = svgBytes(); err == nil {
				data, err = render.ToPDF(data)
			}
		case FormatBrat:
			var buf bytes.Buffer
			err = brat.Write(&buf, g, opts.BratLayer)
			data = buf.Bytes()
		}
		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			return nil, errors.Wrap(code, err, "export %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

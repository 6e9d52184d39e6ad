// Package merge combines annotation layers into one document graph.
//
// A merge call runs through a small state machine:
//
//	EMPTY -> TOKENS_ESTABLISHED -> (MERGING_LAYER -> LAYER_COMMITTED)* -> DONE
//
// with FAILED and CANCELED reachable from every live state. Before anything is written,
// the whole call is pre-validated: the canonical token sequence is
// established, tokenizing layers are checked against it and layer names are
// checked against layers merged earlier. Any [errors.LayerConflictError] is
// returned at that point and the target graph is left untouched.
//
// Layers are then merged one by one in caller order. Each layer is staged on
// a clone of the namespace registry and committed in one step, so a layer is
// either fully applied or not applied at all. Defects inside a layer (tokens
// that do not align, edges to unknown nodes, annotation nodes covering no
// token) never fail the call; they are dropped and listed in
// [Report.Diagnostics].
//
// The engine does no I/O and keeps no state between calls. Concurrent merges
// into different graphs are safe.
package merge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/observability"
	"github.com/matzehuels/layermerge/pkg/tokens"
)

// Merge builds a new combined graph from layers. On cancellation the graph
// holds the layers committed so far and is returned along with the error.
// On any other error the graph is nil.
func Merge(ctx context.Context, layers []*layer.Graph, opts Options) (*docgraph.Graph, *Report, error) {
	g := docgraph.New(opts.Document)
	rep, err := MergeInto(ctx, g, layers, opts)
	if err != nil && !errors.Is(err, errors.ErrCodeCanceled) {
		return nil, rep, err
	}
	return g, rep, err
}

// MergeInto merges layers into an existing combined graph. A target that
// already has tokens keeps them; tokenizing layers must match them.
//
// Merging a layer whose name and content equal a layer already in the target
// (or earlier in the same call) is a no-op reported as a
// [errors.DuplicateMergeWarning] diagnostic.
func MergeInto(ctx context.Context, target *docgraph.Graph, layers []*layer.Graph, opts Options) (*Report, error) {
	if target == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil target graph")
	}
	hooks := opts.hooks()
	start := StateEmpty
	if target.HasTokens() {
		start = StateTokensEstablished
	}
	rep := newReport(uuid.NewString(), start)

	began := time.Now()
	ctx = hooks.OnMergeStart(ctx, rep.RunID, len(layers))
	err := run(ctx, target, layers, opts, hooks, rep)
	switch {
	case errors.Is(err, errors.ErrCodeCanceled):
		rep.end(StateCanceled)
	case err != nil:
		rep.end(StateFailed)
	}
	hooks.OnMergeComplete(ctx, rep.RunID, time.Since(began), err)
	return rep, err
}

func run(ctx context.Context, target *docgraph.Graph, layers []*layer.Graph, opts Options, hooks observability.MergeHooks, rep *Report) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeCanceled, err, "merge canceled before start")
	}
	p, err := prevalidate(target, layers, opts)
	if err != nil {
		return err
	}

	if p.seq != nil {
		if err := target.SetTokens(p.seq); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "install tokens")
		}
		if err := rep.advance(StateTokensEstablished); err != nil {
			return err
		}
		if p.sel.Fallback {
			rep.diag(Diagnostic{Code: errors.ErrCodeNoTokenizingLayer, Layer: p.sel.Layer,
				Message: fmt.Sprintf("no tokenizing layer; tokens taken from %q", p.sel.Layer)})
		}
		hooks.OnTokensEstablished(ctx, p.sel.Layer, len(p.seq))
	}
	rep.Selection = p.sel
	rep.Tokens = len(target.Tokens())

	for i, item := range p.items {
		if err := ctx.Err(); err != nil {
			for _, rest := range p.items[i:] {
				rep.Layers = append(rep.Layers, LayerReport{Name: rest.g.Name, Fingerprint: rest.fingerprint, Status: LayerCanceled})
				rep.diag(Diagnostic{Code: errors.ErrCodeCanceled, Layer: rest.g.Name, Message: "layer not merged: " + err.Error()})
			}
			return errors.Wrap(errors.ErrCodeCanceled, err, "merge canceled after %d of %d layers", i, len(p.items))
		}

		if item.duplicate {
			rep.Layers = append(rep.Layers, LayerReport{Name: item.g.Name, Fingerprint: item.fingerprint, Status: LayerDuplicate})
			warn := &errors.DuplicateMergeWarning{Layer: item.g.Name, Fingerprint: item.fingerprint}
			rep.diag(Diagnostic{Code: errors.ErrCodeDuplicateMerge, Layer: item.g.Name, Message: warn.Error(), Err: warn})
			continue
		}

		if err := rep.advance(StateMergingLayer); err != nil {
			return err
		}
		hooks.OnLayerStart(ctx, item.g.Name)

		s := stageLayer(target, item.g, item.fingerprint, opts.EdgePolicy)
		nodes, edges, anchors, err := commit(target, s)
		if err != nil {
			return err
		}
		for _, d := range s.diags {
			rep.diag(d)
		}
		rep.Layers = append(rep.Layers, LayerReport{
			Name:        item.g.Name,
			Prefix:      s.info.Prefix,
			Fingerprint: item.fingerprint,
			Status:      LayerCommitted,
			Nodes:       nodes,
			Edges:       edges,
			Anchors:     anchors,
			Dropped:     s.dropped,
		})
		if err := rep.advance(StateLayerCommitted); err != nil {
			return err
		}
		hooks.OnLayerCommitted(ctx, item.g.Name, observability.LayerStats{
			Nodes: nodes, Edges: edges, Anchors: anchors, Diagnostics: len(s.diags),
		})
	}

	if opts.Precedence {
		target.AddPrecedenceRelations()
	}
	return rep.advance(StateDone)
}

type planItem struct {
	g           *layer.Graph
	fingerprint string
	duplicate   bool
}

type plan struct {
	seq   tokens.Sequence // nil when the target already has tokens
	sel   tokens.Selection
	items []planItem
}

// prevalidate checks the whole call without touching the target.
func prevalidate(target *docgraph.Graph, layers []*layer.Graph, opts Options) (*plan, error) {
	for i, g := range layers {
		if g == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "layer %d is nil", i)
		}
		if err := errors.ValidateLayerName(g.Name); err != nil {
			return nil, err
		}
	}

	p := &plan{}
	seq := target.Tokens()
	var seed *layer.Graph
	switch {
	case target.HasTokens():
		if len(seq) > 0 {
			p.sel = tokens.Selection{Layer: seq[0].Origin}
		}
	case len(layers) == 0:
		return p, nil
	default:
		var err error
		seq, p.sel, err = tokens.Establish(layers, opts.BaseLayer)
		if err != nil {
			return nil, err
		}
		p.seq = seq
		for _, g := range layers {
			if g.Name == p.sel.Layer {
				seed = g
				break
			}
		}
	}

	known := make(map[string]string)
	for _, info := range target.Layers() {
		known[info.Name] = info.Fingerprint
	}
	for _, g := range layers {
		fp := g.Fingerprint()
		item := planItem{g: g, fingerprint: fp}
		if prev, ok := known[g.Name]; ok {
			switch {
			case prev == fp:
				item.duplicate = true
			case !opts.Override:
				return nil, &errors.LayerConflictError{Layer: g.Name,
					Reason: fmt.Sprintf("already merged with different content (%.12s != %.12s)", prev, fp)}
			}
		}
		known[g.Name] = fp
		if g.Tokenizing && g != seed && !item.duplicate {
			if err := seq.Compatible(g); err != nil {
				return nil, err
			}
		}
		p.items = append(p.items, item)
	}
	return p, nil
}

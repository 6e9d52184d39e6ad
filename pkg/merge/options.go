package merge

import (
	"strings"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/observability"
)

// EdgePolicy decides what happens to a layer's edges after one of them
// references an unknown node.
type EdgePolicy int

const (
	// EdgePolicySkipRemaining records the unresolved edge and skips every
	// remaining edge of the layer. Nodes already staged are kept.
	EdgePolicySkipRemaining EdgePolicy = iota
	// EdgePolicyDropEdge drops only the unresolved edge.
	EdgePolicyDropEdge
)

// String returns the manifest spelling of the policy.
func (p EdgePolicy) String() string {
	switch p {
	case EdgePolicyDropEdge:
		return "drop_edge"
	default:
		return "skip_remaining"
	}
}

// ParseEdgePolicy parses "skip_remaining" or "drop_edge". The empty string
// yields the default policy.
func ParseEdgePolicy(s string) (EdgePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip_remaining", "skip-remaining":
		return EdgePolicySkipRemaining, nil
	case "drop_edge", "drop-edge":
		return EdgePolicyDropEdge, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown edge policy %q (want skip_remaining or drop_edge)", s)
	}
}

// Options configures a merge call. The zero value is ready to use.
type Options struct {
	// Document names the combined graph created by [Merge].
	Document string

	// BaseLayer designates the layer that seeds the canonical tokens. Empty
	// selects the first tokenizing layer. Ignored when the target graph
	// already has tokens.
	BaseLayer string

	// EdgePolicy handles edges with unresolved endpoints.
	EdgePolicy EdgePolicy

	// Precedence adds "precedes" edges between consecutive tokens.
	Precedence bool

	// Override allows re-merging a layer name whose content changed. The new
	// content is merged as a union into the existing nodes and edges. Without
	// it such a merge is a LayerConflictError.
	Override bool

	// Hooks receives merge events. Nil uses the globally registered hooks.
	Hooks observability.MergeHooks
}

func (o Options) hooks() observability.MergeHooks {
	if o.Hooks != nil {
		return o.Hooks
	}
	return observability.Merge()
}

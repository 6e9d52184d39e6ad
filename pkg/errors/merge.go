package errors

import "fmt"

// AlignmentError reports a token anchor that does not resolve into the
// canonical token sequence.
type AlignmentError struct {
	Layer  string // Layer that declared the anchor
	Node   string // Raw ID of the offending node
	Anchor string // Human-readable anchor description (e.g. "offset 7")
	Reason string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment: layer %q node %q (%s): %s", e.Layer, e.Node, e.Anchor, e.Reason)
}

// Code returns [ErrCodeAlignment].
func (e *AlignmentError) Code() Code { return ErrCodeAlignment }

// UnresolvedReferenceError reports an edge endpoint that was never registered.
type UnresolvedReferenceError struct {
	Layer  string
	RawID  string // The unresolved raw ID
	Source string // Raw source of the edge, empty for direct lookups
	Target string // Raw target of the edge, empty for direct lookups
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Source == "" && e.Target == "" {
		return fmt.Sprintf("unresolved reference: layer %q node %q", e.Layer, e.RawID)
	}
	return fmt.Sprintf("unresolved reference: layer %q edge %s->%s: unknown node %q",
		e.Layer, e.Source, e.Target, e.RawID)
}

// Code returns [ErrCodeUnresolvedReference].
func (e *UnresolvedReferenceError) Code() Code { return ErrCodeUnresolvedReference }

// LayerConflictError aborts a whole merge call. It is always returned before
// the target graph is mutated.
type LayerConflictError struct {
	Layer  string
	Other  string // Conflicting layer, if any
	Reason string
}

func (e *LayerConflictError) Error() string {
	if e.Other != "" {
		return fmt.Sprintf("layer conflict: %q vs %q: %s", e.Layer, e.Other, e.Reason)
	}
	return fmt.Sprintf("layer conflict: %q: %s", e.Layer, e.Reason)
}

// Code returns [ErrCodeLayerConflict].
func (e *LayerConflictError) Code() Code { return ErrCodeLayerConflict }

// DuplicateMergeWarning signals that an identical layer was merged again.
// The merge of that layer is a no-op.
type DuplicateMergeWarning struct {
	Layer       string
	Fingerprint string
}

func (e *DuplicateMergeWarning) Error() string {
	return fmt.Sprintf("duplicate merge: layer %q already present", e.Layer)
}

// Code returns [ErrCodeDuplicateMerge].
func (e *DuplicateMergeWarning) Code() Code { return ErrCodeDuplicateMerge }

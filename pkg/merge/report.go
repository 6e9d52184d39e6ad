package merge

import (
	"fmt"
	"slices"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/tokens"
)

// State is a phase of a merge call. DONE, FAILED and CANCELED are
// terminal. FAILED means a conflict aborted the call before any layer was
// committed; CANCELED means the context ended the call, possibly after some
// layers were committed.
type State string

const (
	StateEmpty             State = "EMPTY"
	StateTokensEstablished State = "TOKENS_ESTABLISHED"
	StateMergingLayer      State = "MERGING_LAYER"
	StateLayerCommitted    State = "LAYER_COMMITTED"
	StateDone              State = "DONE"
	StateFailed            State = "FAILED"
	StateCanceled          State = "CANCELED"
)

var transitions = map[State][]State{
	StateEmpty:             {StateTokensEstablished, StateDone, StateFailed, StateCanceled},
	StateTokensEstablished: {StateMergingLayer, StateDone, StateFailed, StateCanceled},
	StateMergingLayer:      {StateLayerCommitted, StateFailed, StateCanceled},
	StateLayerCommitted:    {StateMergingLayer, StateDone, StateFailed, StateCanceled},
}

// Diagnostic records a non-fatal defect found while merging a layer, or a
// warning about the call as a whole.
type Diagnostic struct {
	Code    errors.Code `json:"code"`
	Layer   string      `json:"layer,omitempty"`
	Subject string      `json:"subject,omitempty"` // raw node ID or "source->target"
	Message string      `json:"message"`
	Err     error       `json:"-"`
}

func (d Diagnostic) String() string {
	if d.Subject != "" {
		return fmt.Sprintf("%s [%s] %s: %s", d.Code, d.Layer, d.Subject, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s", d.Code, d.Layer, d.Message)
}

// LayerStatus is the outcome of one layer in a merge call.
type LayerStatus string

const (
	LayerCommitted LayerStatus = "committed"
	LayerDuplicate LayerStatus = "duplicate"
	LayerCanceled  LayerStatus = "canceled"
)

// LayerReport summarises one layer of a merge call.
type LayerReport struct {
	Name        string      `json:"name"`
	Prefix      string      `json:"prefix,omitempty"`
	Fingerprint string      `json:"fingerprint"`
	Status      LayerStatus `json:"status"`
	Nodes       int         `json:"nodes"`   // annotation nodes added
	Edges       int         `json:"edges"`   // layer edges added
	Anchors     int         `json:"anchors"` // anchors edges added
	Dropped     int         `json:"dropped"` // nodes and edges dropped
}

// Report describes a merge call. It is returned even when the call fails.
type Report struct {
	RunID       string           `json:"run_id"`
	State       State            `json:"state"`
	History     []State          `json:"history"`
	Selection   tokens.Selection `json:"selection"`
	Tokens      int              `json:"tokens"`
	Layers      []LayerReport    `json:"layers"`
	Diagnostics []Diagnostic     `json:"diagnostics"`
}

func newReport(runID string, start State) *Report {
	return &Report{RunID: runID, State: start, History: []State{start}}
}

// advance moves the state machine. Illegal transitions are internal errors.
func (r *Report) advance(to State) error {
	if !slices.Contains(transitions[r.State], to) {
		return errors.New(errors.ErrCodeInternal, "illegal merge transition %s -> %s", r.State, to)
	}
	r.State = to
	r.History = append(r.History, to)
	return nil
}

// end moves to a terminal state from any live state.
func (r *Report) end(to State) {
	if _, live := transitions[r.State]; live {
		r.State = to
		r.History = append(r.History, to)
	}
}

func (r *Report) diag(d Diagnostic) { r.Diagnostics = append(r.Diagnostics, d) }

// ByCode returns the diagnostics with the given code.
func (r *Report) ByCode(code errors.Code) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Layer returns the report of a layer by name. A layer listed twice in one
// call reports its last occurrence.
func (r *Report) Layer(name string) (LayerReport, bool) {
	for i := len(r.Layers) - 1; i >= 0; i-- {
		if r.Layers[i].Name == name {
			return r.Layers[i], true
		}
	}
	return LayerReport{}, false
}

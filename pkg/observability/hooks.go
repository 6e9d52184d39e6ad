// Package observability provides hooks for metrics, tracing, and logging.
//
// Instrumentation is optional and backend-agnostic. Consumers register hooks
// at startup to receive events about merges, layer imports, exports and
// cache operations; libraries emit the events without knowing who listens.
//
// # Architecture
//
//   - Hook interfaces per event category
//   - No-op default implementations
//   - A global registry that main may replace at startup
//
// The merge engine also accepts hooks per call through merge.Options, so
// tests and embedders can observe a single merge without touching the
// global registry.
//
// # Usage
//
//	func main() {
//	    observability.SetMergeHooks(&myMergeHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	ctx = observability.Merge().OnMergeStart(ctx, runID, len(layers))
//	// ... merge ...
//	observability.Merge().OnMergeComplete(ctx, runID, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Merge Hooks
// =============================================================================

// LayerStats summarises what one committed layer contributed.
type LayerStats struct {
	Nodes       int // Annotation nodes added
	Edges       int // Layer edges added
	Anchors     int // Synthetic anchors edges added
	Diagnostics int // Diagnostics recorded for the layer
}

// MergeHooks receives events from the merge engine.
type MergeHooks interface {
	// OnMergeStart is called once per merge call. The returned context is
	// passed to all further hooks of that call.
	OnMergeStart(ctx context.Context, runID string, layers int) context.Context

	// OnTokensEstablished reports the canonical sequence and its seed layer.
	OnTokensEstablished(ctx context.Context, seed string, tokens int)

	// OnLayerStart is called before a layer is staged.
	OnLayerStart(ctx context.Context, layer string)

	// OnLayerCommitted is called after a layer was committed to the graph.
	OnLayerCommitted(ctx context.Context, layer string, stats LayerStats)

	// OnMergeComplete is called when the call ends, successfully or not.
	OnMergeComplete(ctx context.Context, runID string, duration time.Duration, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the import/merge/export pipeline.
type PipelineHooks interface {
	OnImportStart(ctx context.Context, format, path string)
	OnImportComplete(ctx context.Context, format, path string, nodeCount int, duration time.Duration, err error)

	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopMergeHooks is a no-op implementation of MergeHooks.
type NoopMergeHooks struct{}

func (NoopMergeHooks) OnMergeStart(ctx context.Context, _ string, _ int) context.Context {
	return ctx
}
func (NoopMergeHooks) OnTokensEstablished(context.Context, string, int)              {}
func (NoopMergeHooks) OnLayerStart(context.Context, string)                          {}
func (NoopMergeHooks) OnLayerCommitted(context.Context, string, LayerStats)          {}
func (NoopMergeHooks) OnMergeComplete(context.Context, string, time.Duration, error) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnImportStart(context.Context, string, string) {}
func (NoopPipelineHooks) OnImportComplete(context.Context, string, string, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	mergeHooks    MergeHooks    = NoopMergeHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetMergeHooks registers custom merge hooks.
// This should be called once at application startup before any merge.
func SetMergeHooks(h MergeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		mergeHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Merge returns the registered merge hooks.
func Merge() MergeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return mergeHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	mergeHooks = NoopMergeHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}

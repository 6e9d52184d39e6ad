package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Merge hooks
	m := NoopMergeHooks{}
	if got := m.OnMergeStart(ctx, "run", 3); got != ctx {
		t.Error("NoopMergeHooks.OnMergeStart should return the given context")
	}
	m.OnTokensEstablished(ctx, "tiger", 12)
	m.OnLayerStart(ctx, "rst")
	m.OnLayerCommitted(ctx, "rst", LayerStats{Nodes: 4, Edges: 3, Anchors: 9})
	m.OnMergeComplete(ctx, "run", time.Second, nil)

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnImportStart(ctx, "tiger", "maz-1423.tiger.xml")
	p.OnImportComplete(ctx, "tiger", "maz-1423.tiger.xml", 100, time.Second, nil)
	p.OnExportStart(ctx, []string{"json", "dot"})
	p.OnExportComplete(ctx, []string{"json", "dot"}, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layer")
	c.OnCacheMiss(ctx, "layer")
	c.OnCacheSet(ctx, "layer", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Merge().(NoopMergeHooks); !ok {
		t.Error("Merge() should return NoopMergeHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customMerge := &testMergeHooks{}
	SetMergeHooks(customMerge)
	if Merge() != customMerge {
		t.Error("SetMergeHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Merge().(NoopMergeHooks); !ok {
		t.Error("Reset() should restore NoopMergeHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testMergeHooks{}
	SetMergeHooks(custom)
	SetMergeHooks(nil)

	if Merge() != custom {
		t.Error("SetMergeHooks(nil) should be ignored")
	}

	Reset()
}

type testMergeHooks struct{ NoopMergeHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }

package pipeline

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layermerge/pkg/cache"
	"github.com/matzehuels/layermerge/pkg/config"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers"
	lmio "github.com/matzehuels/layermerge/pkg/io"
	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/merge"
	"github.com/matzehuels/layermerge/pkg/observability"
)

// maxConcurrentImports bounds how many layer files are read at once.
const maxConcurrentImports = 4

// Runner executes pipelines with caching.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  cache.NewInstrumented(c, "layer"),
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute imports, merges and exports one manifest. If the merge is
// canceled, the result holds the partial graph along with the error.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	m := opts.Manifest
	result := &Result{Artifacts: make(map[string][]byte)}

	importStart := time.Now()
	layers, hits, err := r.importAll(ctx, m, opts.Refresh)
	if err != nil {
		return nil, err
	}
	result.Stats.CacheHits = hits
	result.Stats.ImportTime = time.Since(importStart)
	result.Stats.Layers = len(layers)
	r.Logger.Info("imported layers",
		"layers", len(layers),
		"cached", result.Stats.CacheHits,
		"duration", result.Stats.ImportTime)

	mergeOpts, err := m.MergeOptions()
	if err != nil {
		return nil, err
	}
	mergeStart := time.Now()
	g, rep, err := merge.Merge(ctx, layers, mergeOpts)
	result.Graph, result.Report = g, rep
	result.Stats.MergeTime = time.Since(mergeStart)
	if rep != nil {
		for _, d := range rep.Diagnostics {
			r.Logger.Warn("merge diagnostic", "code", d.Code, "layer", d.Layer, "subject", d.Subject, "msg", d.Message)
		}
	}
	if err != nil {
		return result, err
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Digest = g.Digest()
	r.Logger.Info("merged layers",
		"tokens", rep.Tokens,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.MergeTime)

	exportStart := time.Now()
	artifacts, err := r.Export(ctx, g, opts)
	if err != nil {
		return result, err
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	r.Logger.Info("exported outputs",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)
	return result, nil
}

// importAll imports the manifest layers concurrently, keeping manifest
// order in the result. The first failure cancels the remaining imports.
func (r *Runner) importAll(ctx context.Context, m *config.Manifest, refresh bool) ([]*layer.Graph, int, error) {
	layers := make([]*layer.Graph, len(m.Layers))
	cached := make([]bool, len(m.Layers))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentImports)
	for i, l := range m.Layers {
		eg.Go(func() error {
			g, hit, err := r.ImportLayer(egCtx, m, l, refresh)
			if err != nil {
				return err
			}
			layers[i], cached[i] = g, hit
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	hits := 0
	for _, hit := range cached {
		if hit {
			hits++
		}
	}
	return layers, hits, nil
}

// ImportLayer reads one manifest layer, consulting the cache unless refresh
// is set. It reports whether the layer came from the cache.
func (r *Runner) ImportLayer(ctx context.Context, m *config.Manifest, l config.Layer, refresh bool) (*layer.Graph, bool, error) {
	path := m.Resolve(l.Path)
	hooks := observability.Pipeline()
	hooks.OnImportStart(ctx, importers.Normalize(l.Format), path)
	start := time.Now()

	g, hit, err := r.importLayer(ctx, m, l, path, refresh)
	nodes := 0
	if g != nil {
		nodes = g.NodeCount()
	}
	hooks.OnImportComplete(ctx, importers.Normalize(l.Format), path, nodes, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Debug("imported layer", "layer", l.Name, "format", l.Format, "nodes", nodes, "cached", hit)
	return g, hit, nil
}

func (r *Runner) importLayer(ctx context.Context, m *config.Manifest, l config.Layer, path string, refresh bool) (*layer.Graph, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeCanceled, err, "import %s", path)
	}
	data, err := readFile(path)
	if err != nil {
		return nil, false, err
	}
	var text string
	keyOpts := cache.LayerKeyOpts{
		Format:      importers.Normalize(l.Format),
		Name:        l.Name,
		ShortName:   l.ShortName,
		Tokenizing:  l.Tokenizing,
		ContentHash: cache.Hash(data),
	}
	if l.Text != "" {
		raw, err := readFile(m.Resolve(l.Text))
		if err != nil {
			return nil, false, err
		}
		text = string(raw)
		keyOpts.TextHash = cache.Hash(raw)
	}
	key := r.Keyer.LayerKey(keyOpts)

	if !refresh {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if g, err := lmio.ReadLayer(bytes.NewReader(cached), l.Name); err == nil {
				return g, true, nil
			}
		}
	}

	imp, err := importers.Lookup(l.Format, importers.Options{Text: text, Tokenize: l.Tokenizing})
	if err != nil {
		return nil, false, err
	}
	g, err := imp.Import(bytes.NewReader(data), l.Name)
	if err != nil {
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInvalidFormat
		}
		return nil, false, errors.Wrap(code, err, "import %s", path)
	}
	if l.ShortName != "" {
		g.ShortName = l.ShortName
	}
	g.Tokenizing = g.Tokenizing || l.Tokenizing
	g.Meta["source"] = path

	var buf bytes.Buffer
	if err := lmio.WriteLayer(g, &buf); err == nil {
		if err := r.Cache.Set(ctx, key, buf.Bytes(), TTLLayer); err != nil {
			r.Logger.Debug("cache write failed", "layer", l.Name, "err", err)
		}
	}
	return g, false, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layer file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

package cli

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/layermerge/pkg/config"
	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers"
)

// extFormats maps file extensions to importer formats.
var extFormats = map[string]string{
	".xml":  "tiger",
	".rs3":  "rs3",
	".ann":  "brat",
	".json": "json",
}

// parseLayerSpec parses a --layer value of the form [name=][format:]path.
// A missing format is inferred from the file extension and a missing name
// from the file's base name.
func parseLayerSpec(spec string) (config.Layer, error) {
	var l config.Layer
	rest := spec
	if i := strings.Index(rest, "="); i > 0 && !strings.ContainsAny(rest[:i], `/\:`) {
		l.Name, rest = rest[:i], rest[i+1:]
	}
	if i := strings.Index(rest, ":"); i > 0 && slices.Contains(importers.Formats(), importers.Normalize(rest[:i])) {
		l.Format, rest = importers.Normalize(rest[:i]), rest[i+1:]
	}
	l.Path = rest
	if l.Path == "" {
		return l, errors.New(errors.ErrCodeInvalidInput, "layer %q: missing path", spec)
	}
	if l.Format == "" {
		f, err := inferFormat(l.Path)
		if err != nil {
			return l, err
		}
		l.Format = f
	}
	if l.Name == "" {
		l.Name = strings.TrimSuffix(filepath.Base(l.Path), filepath.Ext(l.Path))
	}
	return l, nil
}

func inferFormat(path string) (string, error) {
	if f, ok := extFormats[strings.ToLower(filepath.Ext(path))]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput,
		"cannot infer format of %s; use format:path (formats: %s)", path, strings.Join(importers.Formats(), ", "))
}

// layerFlags are the manifest overrides shared by commands that accept
// layers on the command line.
type layerFlags struct {
	layers     []string
	text       string
	name       string
	baseLayer  string
	edgePolicy string
	precedence bool
	tokenizing bool
}

// manifest builds a manifest from a manifest file, --layer flags, or both.
// Flag layers are appended after the manifest's layers; other flags override
// manifest values when set.
func (f *layerFlags) manifest(path string) (*config.Manifest, error) {
	m := &config.Manifest{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		m = loaded
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "working directory")
		}
		m.Dir = wd
	}

	for _, spec := range f.layers {
		l, err := parseLayerSpec(spec)
		if err != nil {
			return nil, err
		}
		// Flag paths are relative to the working directory, not the manifest.
		if l.Path, err = filepath.Abs(l.Path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "layer %s", spec)
		}
		if l.Format == "brat" && f.text != "" {
			if l.Text, err = filepath.Abs(f.text); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "text %s", f.text)
			}
		}
		l.Tokenizing = f.tokenizing
		m.Layers = append(m.Layers, l)
	}
	if f.name != "" {
		m.Name = f.name
	}
	if f.baseLayer != "" {
		m.BaseLayer = f.baseLayer
	}
	if f.edgePolicy != "" {
		m.EdgePolicy = f.edgePolicy
	}
	if f.precedence {
		m.Precedence = true
	}
	if m.Name == "" && len(m.Layers) > 0 {
		m.Name = m.Layers[0].Name
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// singleLayer builds a one-layer manifest for commands that read one file.
func singleLayer(path, format, text string, tokenizing bool) (*config.Manifest, error) {
	spec := path
	if format != "" {
		spec = format + ":" + path
	}
	f := layerFlags{layers: []string{spec}, text: text, tokenizing: tokenizing}
	return f.manifest("")
}

// Package config loads merge manifests.
//
// A manifest is a TOML file naming the document and the layers to merge, in
// merge order:
//
//	name = "maz-1423"
//	base_layer = "syntax"
//	precedence = true
//	edge_policy = "drop_edge"
//
//	[[layer]]
//	name = "syntax"
//	format = "tiger"
//	path = "syntax/maz-1423.xml"
//
//	[[layer]]
//	name = "rst"
//	format = "rs3"
//	path = "rst/maz-1423.rs3"
//
//	[[layer]]
//	name = "coref"
//	short_name = "mmax"
//	format = "brat"
//	path = "coref/maz-1423.ann"
//	text = "coref/maz-1423.txt"
//
// Relative paths resolve against the manifest's directory.
package config

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers"
	"github.com/matzehuels/layermerge/pkg/merge"
)

// Manifest describes one merge run.
type Manifest struct {
	Name       string  `toml:"name"`
	BaseLayer  string  `toml:"base_layer"`
	Precedence bool    `toml:"precedence"`
	EdgePolicy string  `toml:"edge_policy"`
	Override   bool    `toml:"override"`
	Layers     []Layer `toml:"layer"`

	// Dir is the directory relative paths resolve against.
	Dir string `toml:"-"`
}

// Layer is one [[layer]] entry.
type Layer struct {
	Name       string `toml:"name"`
	ShortName  string `toml:"short_name"`
	Format     string `toml:"format"`
	Path       string `toml:"path"`
	Tokenizing bool   `toml:"tokenizing"`
	// Text is the plain text file brat offsets refer to.
	Text string `toml:"text"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read manifest %s", path)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	return Parse(data, dir)
}

// Parse decodes and validates manifest data. Relative paths resolve
// against dir.
func Parse(data []byte, dir string) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "unknown manifest key %q", undecoded[0].String())
	}
	m.Dir = dir
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks layer names, formats, paths and the edge policy.
func (m *Manifest) Validate() error {
	if len(m.Layers) == 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest lists no layers")
	}
	if _, err := merge.ParseEdgePolicy(m.EdgePolicy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "edge_policy")
	}

	var names []string
	for i, l := range m.Layers {
		if err := errors.ValidateLayerName(l.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "layer %d", i+1)
		}
		if slices.Contains(names, l.Name) {
			return errors.New(errors.ErrCodeInvalidManifest, "layer %q listed twice", l.Name)
		}
		names = append(names, l.Name)

		if !slices.Contains(importers.Formats(), importers.Normalize(l.Format)) {
			return errors.New(errors.ErrCodeInvalidManifest, "layer %q: unknown format %q", l.Name, l.Format)
		}
		if err := errors.ValidateShortName(l.ShortName); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "layer %q", l.Name)
		}
		if err := errors.ValidatePath(l.Path); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "layer %q", l.Name)
		}
		if importers.Normalize(l.Format) == "brat" && l.Text == "" {
			return errors.New(errors.ErrCodeInvalidManifest, "brat layer %q needs a text file", l.Name)
		}
	}
	if m.BaseLayer != "" && !slices.Contains(names, m.BaseLayer) {
		return errors.New(errors.ErrCodeInvalidManifest, "base_layer %q is not a listed layer", m.BaseLayer)
	}
	return nil
}

// Resolve returns p as an absolute path, relative to the manifest directory.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// MergeOptions translates the manifest into merge options.
func (m *Manifest) MergeOptions() (merge.Options, error) {
	policy, err := merge.ParseEdgePolicy(m.EdgePolicy)
	if err != nil {
		return merge.Options{}, err
	}
	return merge.Options{
		Document:   m.Name,
		BaseLayer:  m.BaseLayer,
		EdgePolicy: policy,
		Precedence: m.Precedence,
		Override:   m.Override,
	}, nil
}

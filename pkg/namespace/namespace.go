// Package namespace maps layer-local node identifiers to globally unique IDs
// inside one combined graph.
//
// Every layer receives a prefix derived from its short name. Annotation nodes
// become "prefix:raw"; token nodes bypass namespacing and resolve to their
// canonical token ID ("t1", "t2", ...). Once assigned, a mapping never changes
// for the lifetime of the registry.
//
// A Registry is owned by a single merge call and is not safe for concurrent
// use. [Registry.Clone] gives the merge engine a scratch copy to stage a layer
// on before committing it.
package namespace

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/layermerge/pkg/errors"
)

// Separator joins a layer prefix and a raw ID.
const Separator = ":"

// defaultPrefix is used when sanitising leaves nothing.
const defaultPrefix = "layer"

// Entry describes where a global ID came from.
type Entry struct {
	Layer string // Layer that registered the ID; empty for canonical tokens
	RawID string // Layer-local ID, or the token ID for canonical tokens
	Token bool   // Set for canonical token IDs
}

type key struct{ layer, raw string }

// Registry is a namespace registry for one combined graph.
type Registry struct {
	prefixes map[string]string // layer -> prefix
	taken    map[string]bool   // prefixes in use
	order    []string          // layers in prefix assignment order
	ids      map[key]string    // (layer, raw) -> global
	reverse  map[string]Entry  // global -> origin
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		prefixes: make(map[string]string),
		taken:    make(map[string]bool),
		ids:      make(map[key]string),
		reverse:  make(map[string]Entry),
	}
}

// Sanitize reduces a prefix candidate to the characters [A-Za-z0-9_-].
// Other runes become underscores; an empty result becomes "layer".
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return defaultPrefix
	}
	return out
}

// AssignPrefix gives a layer its namespace prefix and returns it. The prefix
// is derived from short, falling back to the layer name. A taken prefix gets
// a numeric suffix ("rst", "rst_2", "rst_3", ...). Assigning a layer twice
// returns the existing prefix.
func (r *Registry) AssignPrefix(layer, short string) string {
	if p, ok := r.prefixes[layer]; ok {
		return p
	}
	base := short
	if base == "" {
		base = layer
	}
	base = Sanitize(base)
	p := base
	for n := 2; r.taken[p]; n++ {
		p = base + "_" + strconv.Itoa(n)
	}
	r.prefixes[layer] = p
	r.taken[p] = true
	r.order = append(r.order, layer)
	return p
}

// Prefix returns the prefix assigned to a layer.
func (r *Registry) Prefix(layer string) (string, bool) {
	p, ok := r.prefixes[layer]
	return p, ok
}

// Layers returns the layers with an assigned prefix, in assignment order.
func (r *Registry) Layers() []string { return slices.Clone(r.order) }

// Register maps a layer node to its global ID and returns it. A layer without
// a prefix is assigned one from its name first. Registering the same pair
// again returns the same ID.
func (r *Registry) Register(layer, raw string) (string, error) {
	if raw == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "layer %q: empty node ID", layer)
	}
	k := key{layer, raw}
	if g, ok := r.ids[k]; ok {
		return g, nil
	}
	global := r.AssignPrefix(layer, "") + Separator + raw
	r.ids[k] = global
	r.reverse[global] = Entry{Layer: layer, RawID: raw}
	return global, nil
}

// DeclareToken makes a canonical token ID known to the registry.
func (r *Registry) DeclareToken(tokenID string) {
	if _, ok := r.reverse[tokenID]; !ok {
		r.reverse[tokenID] = Entry{RawID: tokenID, Token: true}
	}
}

// RegisterToken maps a layer token node to a canonical token ID. The token
// must have been declared. Mapping the same node to a different token later
// is an error.
func (r *Registry) RegisterToken(layer, raw, tokenID string) error {
	if raw == "" {
		return errors.New(errors.ErrCodeInvalidInput, "layer %q: empty node ID", layer)
	}
	if e, ok := r.reverse[tokenID]; !ok || !e.Token {
		return errors.New(errors.ErrCodeNotFound, "token %q is not part of the canonical sequence", tokenID)
	}
	k := key{layer, raw}
	if g, ok := r.ids[k]; ok {
		if g != tokenID {
			return errors.New(errors.ErrCodeInvalidInput, "layer %q node %q already maps to %q", layer, raw, g)
		}
		return nil
	}
	r.ids[k] = tokenID
	return nil
}

// Resolve returns the global ID of a registered layer node. Unregistered
// pairs yield an [errors.UnresolvedReferenceError].
func (r *Registry) Resolve(layer, raw string) (string, error) {
	if g, ok := r.ids[key{layer, raw}]; ok {
		return g, nil
	}
	return "", &errors.UnresolvedReferenceError{Layer: layer, RawID: raw}
}

// Lookup returns the origin of a global ID. Canonical token IDs report
// Token=true.
func (r *Registry) Lookup(global string) (Entry, bool) {
	e, ok := r.reverse[global]
	return e, ok
}

// Len returns the number of registered (layer, raw) pairs.
func (r *Registry) Len() int { return len(r.ids) }

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	return &Registry{
		prefixes: maps.Clone(r.prefixes),
		taken:    maps.Clone(r.taken),
		order:    slices.Clone(r.order),
		ids:      maps.Clone(r.ids),
		reverse:  maps.Clone(r.reverse),
	}
}

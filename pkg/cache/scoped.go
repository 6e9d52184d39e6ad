package cache

// ScopedKeyer wraps a Keyer with a prefix, keeping the entries of different
// scopes apart:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1.2.0:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// LayerKey generates a prefixed layer key.
func (k *ScopedKeyer) LayerKey(opts LayerKeyOpts) string {
	return k.prefix + k.inner.LayerKey(opts)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when one cache backend serves several datasets or
// deployments that must not share entries.
//
// Example usage:
//
//	// Per-dataset keys
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "dataset:prod:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DatasetKey generates a prefixed key for dataset caching.
func (k *ScopedKeyer) DatasetKey(source string) string {
	return k.prefix + k.inner.DatasetKey(source)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// SceneKey generates a prefixed key for scene caching.
func (k *ScopedKeyer) SceneKey(layoutHash string, opts SceneKeyOpts) string {
	return k.prefix + k.inner.SceneKey(layoutHash, opts)
}

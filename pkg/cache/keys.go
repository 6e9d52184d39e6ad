package cache

// Keyer generates cache keys.
type Keyer interface {
	// LayerKey returns the key of an imported layer.
	LayerKey(opts LayerKeyOpts) string
}

// LayerKeyOpts holds everything an imported layer depends on.
type LayerKeyOpts struct {
	Format      string `json:"format"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name,omitempty"`
	Tokenizing  bool   `json:"tokenizing,omitempty"`
	ContentHash string `json:"content"`        // Hash of the source file
	TextHash    string `json:"text,omitempty"` // Hash of the brat document text
}

// DefaultKeyer hashes the key options.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayerKey returns "layer:<hash>".
func (DefaultKeyer) LayerKey(opts LayerKeyOpts) string {
	return hashKey("layer", opts)
}

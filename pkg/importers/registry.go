package importers

import (
	"strings"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers/brat"
	"github.com/matzehuels/layermerge/pkg/importers/rs3"
	"github.com/matzehuels/layermerge/pkg/importers/tiger"
	"github.com/matzehuels/layermerge/pkg/io"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// Options carries format-specific settings.
type Options struct {
	// Text is the plain document text brat offsets refer to.
	Text string
	// Tokenize makes rs3 layers eligible to seed canonical tokens.
	Tokenize bool
}

var aliases = map[string]string{
	"tigerxml": "tiger",
	"rst":      "rs3",
	"ann":      "brat",
	"layer":    "json",
}

// Formats returns the supported format names, sorted.
func Formats() []string {
	return []string{"brat", "json", "rs3", "tiger"}
}

// Normalize maps a format name or alias to its canonical name.
func Normalize(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if a, ok := aliases[f]; ok {
		return a
	}
	return f
}

// Lookup returns the importer for a format.
func Lookup(format string, opts Options) (layer.Importer, error) {
	switch Normalize(format) {
	case "tiger":
		return tiger.Importer{}, nil
	case "rs3":
		return rs3.Importer{Tokenizing: opts.Tokenize}, nil
	case "brat":
		if opts.Text == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "brat layers need the document text")
		}
		return brat.Importer{Text: opts.Text}, nil
	case "json":
		return io.Importer{}, nil
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown format %q (supported: %s)",
			format, strings.Join(Formats(), ", "))
	}
}

// Package xmlutil holds the XML helpers shared by the XML-based importers.
package xmlutil

import (
	"io"
	"slices"

	"github.com/antchfx/xmlquery"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// Parse reads an XML document. Parse failures carry INVALID_FORMAT.
func Parse(r io.Reader, format string) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", format)
	}
	return doc, nil
}

// Attrs returns the attributes of an element as features, leaving out the
// names in skip.
func Attrs(n *xmlquery.Node, skip ...string) layer.Features {
	f := layer.Features{}
	for _, a := range n.Attr {
		if !slices.Contains(skip, a.Name.Local) {
			f[a.Name.Local] = a.Value
		}
	}
	return f
}

// Package brat reads and writes brat standoff annotation (.ann files).
//
// Brat offsets are character offsets into the plain document text, so the
// importer needs that text. It is split on whitespace and every text-bound
// annotation ("T" line) becomes an entity node whose Span lists the
// whitespace tokens its fragments overlap. The token split has to match the
// canonical tokens the layer is merged against.
//
// Supported lines:
//
//	T1	Markable 0 7	The cat          entity node (fragments may be "0 3;8 11")
//	R1	Coreference Arg1:T2 Arg2:T1      points_to edge T2 -> T1
//	*	Coreference T1 T2 T3             points_to edges T1 -> T2 -> T3
//	A1	Negated T1                       feature Negated=true on T1
//	A2	Confidence T1 High               feature Confidence=High on T1
//	#1	AnnotatorNotes T1	text         feature note=text on T1
//
// Events, normalizations and other line kinds are counted in
// Meta["skipped"] and otherwise ignored.
package brat

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
)

// Importer reads brat .ann files against the document text.
type Importer struct {
	Text string
}

// Format returns "brat".
func (Importer) Format() string { return "brat" }

// span is a half-open rune range.
type span struct{ start, end int }

// Import reads one .ann file into a non-tokenizing layer.
func (imp Importer) Import(r io.Reader, name string) (*layer.Graph, error) {
	toks := tokenize(imp.Text)
	g := layer.New(name)
	skipped := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		var err error
		switch line[0] {
		case 'T':
			err = readEntity(g, line, toks)
		case 'R':
			err = readRelation(g, line)
		case '*':
			err = readEquiv(g, line)
		case 'A', 'M':
			err = readAttribute(g, line)
		case '#':
			err = readNote(g, line)
		default:
			skipped++
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "brat line %d", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read brat annotation")
	}
	g.Meta["skipped"] = skipped
	return g, nil
}

// tokenize splits text on whitespace and returns the rune range of each
// token.
func tokenize(text string) []span {
	var out []span
	start := -1
	i := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, span{start, i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i++
	}
	if start >= 0 {
		out = append(out, span{start, i})
	}
	return out
}

// fields splits a line into at most n tab-separated fields; the ID and the
// annotation body are required.
func fields(line string, n int) ([]string, error) {
	parts := strings.SplitN(line, "\t", n)
	if len(parts) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "malformed line %q", line)
	}
	return parts, nil
}

func readEntity(g *layer.Graph, line string, toks []span) error {
	parts, err := fields(line, 3)
	if err != nil {
		return err
	}
	typ, ranges, ok := strings.Cut(parts[1], " ")
	if !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "entity %s has no offsets", parts[0])
	}

	var offsets []int
	for _, frag := range strings.Split(ranges, ";") {
		s, e, ok := strings.Cut(strings.TrimSpace(frag), " ")
		start, err1 := strconv.Atoi(s)
		end, err2 := strconv.Atoi(e)
		if !ok || err1 != nil || err2 != nil || start < 0 || end < start {
			return errors.New(errors.ErrCodeInvalidFormat, "entity %s: bad offsets %q", parts[0], frag)
		}
		for i, t := range toks {
			if t.start < end && start < t.end {
				offsets = append(offsets, i)
			}
		}
	}
	slices.Sort(offsets)

	feats := layer.Features{"type": typ}
	if len(parts) == 3 {
		feats["text"] = parts[2]
	}
	return g.AddNode(layer.Node{
		ID:       parts[0],
		Type:     layer.NodeEntity,
		Features: feats,
		Span:     slices.Compact(offsets),
	})
}

func readRelation(g *layer.Graph, line string) error {
	parts, err := fields(line, 2)
	if err != nil {
		return err
	}
	f := strings.Fields(parts[1])
	if len(f) != 3 {
		return errors.New(errors.ErrCodeInvalidFormat, "relation %s: want type and two arguments", parts[0])
	}
	args := make(map[string]string, 2)
	var order []string
	for _, a := range f[1:] {
		role, id, ok := strings.Cut(a, ":")
		if !ok {
			return errors.New(errors.ErrCodeInvalidFormat, "relation %s: bad argument %q", parts[0], a)
		}
		args[role] = id
		order = append(order, id)
	}
	src, tgt := args["Arg1"], args["Arg2"]
	if src == "" || tgt == "" {
		src, tgt = order[0], order[1]
	}
	return g.AddEdge(layer.Edge{
		Source:   src,
		Target:   tgt,
		Label:    f[0],
		Type:     layer.EdgePointing,
		Features: layer.Features{"id": parts[0]},
	})
}

func readEquiv(g *layer.Graph, line string) error {
	parts, err := fields(line, 2)
	if err != nil {
		return err
	}
	f := strings.Fields(parts[1])
	if len(f) < 3 {
		return errors.New(errors.ErrCodeInvalidFormat, "equivalence needs a type and two members")
	}
	for i := 1; i+1 < len(f); i++ {
		if err := g.AddEdge(layer.Edge{Source: f[i], Target: f[i+1], Label: f[0], Type: layer.EdgePointing}); err != nil {
			return err
		}
	}
	return nil
}

func readAttribute(g *layer.Graph, line string) error {
	parts, err := fields(line, 2)
	if err != nil {
		return err
	}
	f := strings.Fields(parts[1])
	if len(f) < 2 {
		return errors.New(errors.ErrCodeInvalidFormat, "attribute %s: want name and target", parts[0])
	}
	n, ok := g.Node(f[1])
	if !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "attribute %s: unknown annotation %s", parts[0], f[1])
	}
	if len(f) > 2 {
		n.Features[f[0]] = strings.Join(f[2:], " ")
	} else {
		n.Features[f[0]] = true
	}
	return nil
}

func readNote(g *layer.Graph, line string) error {
	parts, err := fields(line, 3)
	if err != nil {
		return err
	}
	f := strings.Fields(parts[1])
	if len(f) < 2 {
		return errors.New(errors.ErrCodeInvalidFormat, "note %s: want type and target", parts[0])
	}
	n, ok := g.Node(f[1])
	if !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "note %s: unknown annotation %s", parts[0], f[1])
	}
	if len(parts) == 3 {
		n.Features["note"] = parts[2]
	}
	return nil
}

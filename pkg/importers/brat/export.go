package brat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/layermerge/pkg/docgraph"
	"github.com/matzehuels/layermerge/pkg/errors"
)

// AnnotationConf is the brat annotation.conf matching the files Write
// produces.
const AnnotationConf = `[entities]

Markable

[relations]

Coreference	Arg1:Markable, Arg2:Markable, <REL-TYPE>:symmetric-transitive

# "Markable" annotations can nest arbitrarily
ENTITY-NESTING	Arg1:Markable, Arg2:Markable

[events]

[attributes]
`

// Text returns the document text brat offsets refer to: the canonical
// tokens joined by single spaces.
func Text(g *docgraph.Graph) string {
	return strings.Join(g.Tokens().Surfaces(), " ")
}

// Write renders the pointing chains of a layer as a brat .ann file. Every
// node taking part in a chain becomes a Markable, every pointing step a
// Coreference relation from the pointing node (Arg1) to its target (Arg2).
// An empty layer name considers the chains of all layers.
func Write(w io.Writer, g *docgraph.Graph, layerName string) error {
	chains := g.PointingChains(layerName)

	onsets := make([]int, 0, len(g.Tokens()))
	onset := 0
	for _, s := range g.Tokens().Surfaces() {
		onsets = append(onsets, onset)
		onset += utf8.RuneCountInString(s) + 1
	}

	type markable struct {
		id    string
		span  []string
		first int
	}
	var markables []markable
	seen := make(map[string]bool)
	for _, chain := range chains {
		for _, id := range chain {
			if seen[id] {
				continue
			}
			seen[id] = true
			span := g.Span(id)
			if len(span) == 0 {
				continue
			}
			first, _ := g.Node(span[0])
			markables = append(markables, markable{id: id, span: span, first: first.Index})
		}
	}
	slices.SortStableFunc(markables, func(a, b markable) int {
		if a.first != b.first {
			return a.first - b.first
		}
		return strings.Compare(a.id, b.id)
	})

	bw := bufio.NewWriter(w)
	index := make(map[string]int, len(markables))
	for i, m := range markables {
		index[m.id] = i + 1
		text := g.TokensText(m.span)
		start := onsets[m.first]
		fmt.Fprintf(bw, "T%d\tMarkable %d %d\t%s\n", i+1, start, start+utf8.RuneCountInString(text), text)
	}
	rel := 0
	for _, chain := range chains {
		for i := 0; i+1 < len(chain); i++ {
			from, to := index[chain[i]], index[chain[i+1]]
			if from == 0 || to == 0 {
				continue
			}
			rel++
			fmt.Fprintf(bw, "R%d\tCoreference Arg1:T%d Arg2:T%d\n", rel, from, to)
		}
	}
	return bw.Flush()
}

// WriteDir writes <name>.txt, <name>.ann and annotation.conf into dir,
// creating it if needed. It returns the path of the .ann file.
func WriteDir(g *docgraph.Graph, dir, name, layerName string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".txt"), []byte(Text(g)), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write text")
	}
	if err := os.WriteFile(filepath.Join(dir, "annotation.conf"), []byte(AnnotationConf), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write annotation.conf")
	}

	path := filepath.Join(dir, name+".ann")
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := Write(f, g, layerName); err != nil {
		f.Close()
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "close %s", path)
	}
	return path, nil
}

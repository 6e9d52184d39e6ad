package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layermerge/pkg/errors"
)

const tokensJSON = `{
  "name": "tok",
  "tokenizing": true,
  "nodes": [
    {"id": "w1", "surface": "The"},
    {"id": "w2", "surface": "cat"},
    {"id": "w3", "surface": "sat"},
    {"id": "w4", "surface": "."},
    {"id": "w5", "surface": "It"},
    {"id": "w6", "surface": "purred"},
    {"id": "w7", "surface": "."}
  ]
}`

const corefAnn = "T1\tMarkable 0 7\tThe cat\n" +
	"T2\tMarkable 14 16\tIt\n" +
	"R1\tCoreference Arg1:T2 Arg2:T1\n"

// fixture writes the test layers into a temp dir and returns their paths.
func fixture(t *testing.T) (tok, ann, txt string) {
	t.Helper()
	dir := t.TempDir()
	tok = filepath.Join(dir, "tok.json")
	ann = filepath.Join(dir, "coref.ann")
	txt = filepath.Join(dir, "doc.txt")
	for path, data := range map[string]string{tok: tokensJSON, ann: corefAnn, txt: "The cat sat .\nIt purred ."} {
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return tok, ann, txt
}

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := &CLI{Logger: log.NewWithOptions(io.Discard, log.Options{})}
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestParseLayerSpec(t *testing.T) {
	tests := []struct {
		spec               string
		name, format, path string
	}{
		{"syntax=tiger:maz.xml", "syntax", "tiger", "maz.xml"},
		{"tigerxml:data/maz.xml", "maz", "tiger", "data/maz.xml"},
		{"rst/maz-1423.rs3", "maz-1423", "rs3", "rst/maz-1423.rs3"},
		{"coref=coref.ann", "coref", "brat", "coref.ann"},
		{"layer:tok.txt", "tok", "json", "tok.txt"},
		{"dir/a=b.json", "a=b", "json", "dir/a=b.json"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			l, err := parseLayerSpec(tt.spec)
			if err != nil {
				t.Fatalf("parseLayerSpec: %v", err)
			}
			if l.Name != tt.name || l.Format != tt.format || l.Path != tt.path {
				t.Errorf("got %q %q %q, want %q %q %q", l.Name, l.Format, l.Path, tt.name, tt.format, tt.path)
			}
		})
	}
}

func TestParseLayerSpecErrors(t *testing.T) {
	for _, spec := range []string{"syntax=", "notes.txt", "tiger:"} {
		if _, err := parseLayerSpec(spec); errors.GetCode(err) != errors.ErrCodeInvalidInput {
			t.Errorf("parseLayerSpec(%q) = %v, want INVALID_INPUT", spec, err)
		}
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); len(got) != 1 || got[0] != "json" {
		t.Errorf("default formats = %v", got)
	}
	if got := parseFormats("JSON, svg,,ann"); strings.Join(got, ",") != "json,svg,ann" {
		t.Errorf("formats = %v", got)
	}
}

func TestLayerFlagsManifest(t *testing.T) {
	tok, ann, txt := fixture(t)
	f := layerFlags{
		layers:     []string{tok, "coref=" + ann},
		text:       txt,
		edgePolicy: "drop_edge",
		precedence: true,
	}
	m, err := f.manifest("")
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if m.Name != "tok" || len(m.Layers) != 2 || m.EdgePolicy != "drop_edge" || !m.Precedence {
		t.Errorf("manifest = %+v", m)
	}
	if m.Layers[1].Format != "brat" || m.Layers[1].Text != txt {
		t.Errorf("brat layer = %+v", m.Layers[1])
	}

	f.text = ""
	if _, err := f.manifest(""); errors.GetCode(err) != errors.ErrCodeInvalidManifest {
		t.Errorf("brat without text: err = %v, want INVALID_MANIFEST", err)
	}
}

func TestMergeCommand(t *testing.T) {
	tok, ann, txt := fixture(t)
	out := t.TempDir()

	printed, err := run(t, "merge",
		"--layer", tok, "--layer", "coref=brat:"+ann, "--text", txt,
		"--name", "doc", "-o", out, "-f", "json,ann")
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !strings.Contains(printed, "Merged") {
		t.Errorf("output = %q", printed)
	}
	data, err := os.ReadFile(filepath.Join(out, "doc.ann"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "R1\tCoreference Arg1:T2 Arg2:T1") {
		t.Errorf("doc.ann = %q", data)
	}
	if _, err := os.Stat(filepath.Join(out, "doc.json")); err != nil {
		t.Errorf("doc.json: %v", err)
	}
}

func TestMergeCommandErrors(t *testing.T) {
	tok, _, _ := fixture(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"no layers", []string{"merge"}, errors.ErrCodeInvalidInput},
		{"bad format", []string{"merge", "--no-cache", "--layer", tok, "-f", "gif"}, errors.ErrCodeInvalidInput},
		{"missing manifest", []string{"merge", filepath.Join(t.TempDir(), "merge.toml")}, errors.ErrCodeFileNotFound},
		{"missing layer", []string{"merge", "--no-cache", "--layer", filepath.Join(t.TempDir(), "x.json")}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if errors.GetCode(err) != tt.code {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestTokensCommand(t *testing.T) {
	tok, _, _ := fixture(t)
	printed, err := run(t, "tokens", tok)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(printed), "\n")
	if len(lines) != 7 || lines[0] != "t1\tThe" || lines[5] != "t6\tpurred" {
		t.Errorf("tokens output = %q", printed)
	}
}

func TestInspectCommand(t *testing.T) {
	_, ann, txt := fixture(t)
	printed, err := run(t, "inspect", "--no-cache", "--text", txt, ann)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	for _, want := range []string{"coref", "entity 2", "points_to 1", "Layer is valid"} {
		if !strings.Contains(printed, want) {
			t.Errorf("inspect output missing %q:\n%s", want, printed)
		}
	}
}

func TestCachePathCommand(t *testing.T) {
	printed, err := run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(strings.TrimSpace(printed), appName) {
		t.Errorf("cache path = %q", printed)
	}

	printed, err = run(t, "cache", "clear")
	if err != nil || !strings.Contains(printed, "Cache is empty") {
		t.Errorf("cache clear = %q, %v", printed, err)
	}
}

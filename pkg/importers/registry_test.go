package importers

import (
	"testing"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/importers/rs3"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"tiger", "tiger"},
		{"TigerXML", "tiger"},
		{"rst", "rs3"},
		{" rs3 ", "rs3"},
		{"ann", "brat"},
		{"layer", "json"},
		{"json", "json"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			imp, err := Lookup(tt.format, Options{Text: "some text"})
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.format, err)
			}
			if imp.Format() != tt.want {
				t.Errorf("Format = %q, want %q", imp.Format(), tt.want)
			}
		})
	}
}

func TestLookupErrors(t *testing.T) {
	if _, err := Lookup("conll", Options{}); errors.GetCode(err) != errors.ErrCodeUnsupported {
		t.Errorf("unknown format err = %v", err)
	}
	if _, err := Lookup("brat", Options{}); errors.GetCode(err) != errors.ErrCodeInvalidInput {
		t.Errorf("brat without text err = %v", err)
	}
}

func TestLookupPassesOptions(t *testing.T) {
	imp, err := Lookup("rs3", Options{Tokenize: true})
	if err != nil {
		t.Fatal(err)
	}
	if r, ok := imp.(rs3.Importer); !ok || !r.Tokenizing {
		t.Errorf("importer = %#v", imp)
	}
}

func TestFormatsAreKnown(t *testing.T) {
	for _, f := range Formats() {
		if _, err := Lookup(f, Options{Text: "x"}); err != nil {
			t.Errorf("Lookup(%q): %v", f, err)
		}
	}
}

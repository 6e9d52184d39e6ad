package namespace

import (
	"testing"

	"github.com/matzehuels/layermerge/pkg/errors"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"rst", "rst"},
		{"pcc rst", "pcc_rst"},
		{"coref/mmax2", "coref_mmax2"},
		{"  tiger  ", "tiger"},
		{"über", "ber"},
		{"???", "layer"},
		{"", "layer"},
		{"conn-2", "conn-2"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssignPrefix(t *testing.T) {
	r := New()
	steps := []struct {
		layer, short, want string
	}{
		{"rst", "", "rst"},
		{"rst-2019", "rst", "rst_2"},
		{"rst-2020", "rst", "rst_3"},
		{"rst", "other", "rst"}, // already assigned
		{"syntax", "tiger", "tiger"},
	}
	for _, s := range steps {
		if got := r.AssignPrefix(s.layer, s.short); got != s.want {
			t.Errorf("AssignPrefix(%q, %q) = %q, want %q", s.layer, s.short, got, s.want)
		}
	}
	want := []string{"rst", "rst-2019", "rst-2020", "syntax"}
	got := r.Layers()
	if len(got) != len(want) {
		t.Fatalf("Layers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Layers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()
	r.AssignPrefix("syntax", "tiger")

	g1, err := r.Register("syntax", "s1_500")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if g1 != "tiger:s1_500" {
		t.Errorf("global = %q, want tiger:s1_500", g1)
	}
	g2, _ := r.Register("syntax", "s1_500")
	if g1 != g2 {
		t.Errorf("Register not idempotent: %q vs %q", g1, g2)
	}

	// auto-assigned prefix
	g3, _ := r.Register("rst", "5")
	if g3 != "rst:5" {
		t.Errorf("global = %q, want rst:5", g3)
	}

	if got, err := r.Resolve("syntax", "s1_500"); err != nil || got != g1 {
		t.Errorf("Resolve = %q, %v", got, err)
	}
	_, err = r.Resolve("syntax", "missing")
	var unresolved *errors.UnresolvedReferenceError
	if !errors.As(err, &unresolved) {
		t.Fatalf("Resolve(missing) = %v, want UnresolvedReferenceError", err)
	}
	if unresolved.RawID != "missing" {
		t.Errorf("RawID = %q", unresolved.RawID)
	}

	e, ok := r.Lookup("tiger:s1_500")
	if !ok || e.Layer != "syntax" || e.RawID != "s1_500" || e.Token {
		t.Errorf("Lookup = %+v, %v", e, ok)
	}
	if _, err := r.Register("syntax", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty raw: err = %v", err)
	}
}

func TestRegisterToken(t *testing.T) {
	r := New()
	r.DeclareToken("t1")
	r.DeclareToken("t2")

	if err := r.RegisterToken("coref", "w1", "t1"); err != nil {
		t.Fatalf("RegisterToken: %v", err)
	}
	if err := r.RegisterToken("coref", "w1", "t1"); err != nil {
		t.Errorf("repeat RegisterToken: %v", err)
	}
	if err := r.RegisterToken("coref", "w1", "t2"); err == nil {
		t.Error("remapping to another token should fail")
	}
	if err := r.RegisterToken("coref", "w9", "t9"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("undeclared token: err = %v", err)
	}

	if got, _ := r.Resolve("coref", "w1"); got != "t1" {
		t.Errorf("Resolve(w1) = %q, want t1", got)
	}
	e, ok := r.Lookup("t1")
	if !ok || !e.Token {
		t.Errorf("Lookup(t1) = %+v, %v", e, ok)
	}
	if _, ok := r.Prefix("coref"); ok {
		t.Error("token registration should not assign a prefix")
	}
}

func TestClone(t *testing.T) {
	r := New()
	r.AssignPrefix("rst", "")
	_, _ = r.Register("rst", "1")

	c := r.Clone()
	_, _ = c.Register("rst", "2")
	c.AssignPrefix("coref", "")

	if _, err := r.Resolve("rst", "2"); err == nil {
		t.Error("clone registration leaked into original")
	}
	if _, ok := r.Prefix("coref"); ok {
		t.Error("clone prefix leaked into original")
	}
	if got, _ := c.Resolve("rst", "1"); got != "rst:1" {
		t.Errorf("clone lost entry: %q", got)
	}
	if r.Len() != 1 || c.Len() != 2 {
		t.Errorf("Len = %d/%d, want 1/2", r.Len(), c.Len())
	}
}

package cli

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func TestCompleteOutputFormats(t *testing.T) {
	tests := []struct {
		toComplete string
		want       []string
	}{
		{"", []string{"ann", "dot", "json", "pdf", "png", "svg"}},
		{"p", []string{"pdf", "png"}},
		{"json,s", []string{"json,svg"}},
		{"json,", []string{"json,ann", "json,dot", "json,pdf", "json,png", "json,svg"}},
		{"xml", nil},
	}
	for _, tt := range tests {
		t.Run(tt.toComplete, func(t *testing.T) {
			got, dir := completeOutputFormats(nil, nil, tt.toComplete)
			if !slices.Equal(got, tt.want) {
				t.Errorf("completeOutputFormats(%q) = %v, want %v", tt.toComplete, got, tt.want)
			}
			if dir&cobra.ShellCompDirectiveNoSpace == 0 {
				t.Error("format lists should not end with a space")
			}
		})
	}
}

func TestCompleteFlagValues(t *testing.T) {
	policies, _ := completeEdgePolicy(nil, nil, "")
	if !slices.Equal(policies, []string{"skip_remaining", "drop_edge"}) {
		t.Errorf("edge policies = %v", policies)
	}
	formats, _ := completeInputFormat(nil, nil, "")
	for _, want := range []string{"tiger", "rs3", "brat", "json"} {
		if !slices.Contains(formats, want) {
			t.Errorf("input formats %v missing %q", formats, want)
		}
	}
	exts, dir := completeManifest(nil, nil, "")
	if !slices.Equal(exts, []string{"toml"}) || dir != cobra.ShellCompDirectiveFilterFileExt {
		t.Errorf("manifest completion = %v, %v", exts, dir)
	}
	if _, dir := completeManifest(nil, []string{"merge.toml"}, ""); dir != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("second manifest argument should not complete files, got %v", dir)
	}
}

func TestCompletionRegistered(t *testing.T) {
	var buf bytes.Buffer
	c := &CLI{Logger: log.NewWithOptions(io.Discard, log.Options{})}
	root := c.RootCommand()
	root.SetArgs([]string{cobra.ShellCompRequestCmd, "merge", "--edge-policy", ""})
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "drop_edge") {
		t.Errorf("merge --edge-policy completion = %q", buf.String())
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		printed, err := run(t, "completion", shell)
		if err != nil {
			t.Fatalf("%s: %v", shell, err)
		}
		if !strings.Contains(printed, appName) {
			t.Errorf("%s script does not mention %s", shell, appName)
		}
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell should fail")
	}
}

package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermerge/pkg/importers"
	"github.com/matzehuels/layermerge/pkg/merge"
	"github.com/matzehuels/layermerge/pkg/pipeline"
)

// completionCommand creates the completion command. Besides subcommands,
// the generated scripts complete manifest paths, --format lists,
// --edge-policy values and layer input formats.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for layermerge.

The scripts complete subcommands, manifest paths (*.toml) for merge, output
format lists for merge -f (json,svg,...), --edge-policy values and the
input formats of tokens/inspect --format.

  $ source <(layermerge completion bash)
  $ layermerge completion zsh > "${fpath[1]}/_layermerge"
  $ layermerge completion fish | source
  PS> layermerge completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}
}

// completeManifest offers TOML files for the manifest argument.
func completeManifest(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeOutputFormats completes the last element of a comma-separated
// output format list, skipping formats already listed.
func completeOutputFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	head, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		head, last = toComplete[:i+1], toComplete[i+1:]
	}
	done := strings.Split(head, ",")

	var out []string
	for f := range pipeline.ValidFormats {
		if strings.HasPrefix(f, last) && !slices.Contains(done, f) {
			out = append(out, head+f)
		}
	}
	slices.Sort(out)
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeEdgePolicy(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		merge.EdgePolicySkipRemaining.String(),
		merge.EdgePolicyDropEdge.String(),
	}, cobra.ShellCompDirectiveNoFileComp
}

func completeInputFormat(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return importers.Formats(), cobra.ShellCompDirectiveNoFileComp
}

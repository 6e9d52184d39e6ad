package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermerge/pkg/layer"
)

func (c *CLI) inspectCommand() *cobra.Command {
	var opts layerFileOpts

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarise a layer file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadLayer(cmd, args[0], &opts, false)
			if err != nil {
				return err
			}
			printLayer(g)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func printLayer(g *layer.Graph) {
	nodeTypes := make(map[string]int)
	for _, n := range g.Nodes() {
		nodeTypes[string(n.Type)]++
	}
	edgeTypes := make(map[string]int)
	for _, e := range g.Edges() {
		edgeTypes[string(e.Type)]++
	}

	fmt.Fprintln(stdout, StyleTitle.Render(g.Name))
	printKeyValue("prefix", g.Prefix())
	printKeyValue("tokenizing", fmt.Sprint(g.Tokenizing))
	printKeyValue("nodes", fmt.Sprintf("%d (%s)", g.NodeCount(), countList(nodeTypes)))
	printKeyValue("edges", fmt.Sprintf("%d (%s)", g.EdgeCount(), countList(edgeTypes)))
	printKeyValue("fingerprint", g.Fingerprint()[:16])

	keys := make([]string, 0, len(g.Meta))
	for k := range g.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printDetail("%s: %v", k, g.Meta[k])
	}

	if err := g.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			printWarning("%s", line)
		}
		return
	}
	printSuccess("Layer is valid")
}

// countList renders counts as "a 2, b 1", sorted by key.
func countList(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermerge/pkg/errors"
	"github.com/matzehuels/layermerge/pkg/layer"
	"github.com/matzehuels/layermerge/pkg/tokens"
)

// layerFileOpts holds the flags of commands that read one layer file.
type layerFileOpts struct {
	format  string
	text    string
	noCache bool
}

func (o *layerFileOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", "", "input format: tiger, rs3, brat, json (default: from extension)")
	cmd.Flags().StringVar(&o.text, "text", "", "plain text file for brat layers")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the layer cache")
	_ = cmd.RegisterFlagCompletionFunc("format", completeInputFormat)
}

// loadLayer imports one layer file through the pipeline runner so the layer
// cache is shared with merge.
func (c *CLI) loadLayer(cmd *cobra.Command, path string, o *layerFileOpts, tokenizing bool) (*layer.Graph, error) {
	m, err := singleLayer(path, o.format, o.text, tokenizing)
	if err != nil {
		return nil, err
	}
	runner := c.newRunner(o.noCache)
	defer runner.Close()

	g, _, err := runner.ImportLayer(cmd.Context(), m, m.Layers[0], false)
	return g, err
}

func (c *CLI) tokensCommand() *cobra.Command {
	var opts layerFileOpts

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the canonical tokens a layer file establishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadLayer(cmd, args[0], &opts, true)
			if err != nil {
				return err
			}
			seq, err := tokens.FromLayer(g)
			if err != nil {
				return err
			}
			if seq.Len() == 0 {
				return errors.New(errors.ErrCodeInvalidLayer, "layer %q has no token nodes", g.Name)
			}
			for _, t := range seq {
				fmt.Fprintf(stdout, "%s\t%s\n", t.ID, t.Surface)
			}
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

package cmd

import (
	"fmt"
	"io"

	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/spf13/cobra"
)

var stringifyNode string

var stringifyCmd = &cobra.Command{
	Use:   "stringify FIXTURE...",
	Short: "Print synthetic documents as indented HTML",
	Long: `Print every document of the given fixtures as indented HTML.

Examples:
  synthdom stringify page.yaml
  synthdom stringify page.yaml --node s-label`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStringify,
}

func init() {
	rootCmd.AddCommand(stringifyCmd)
	stringifyCmd.Flags().StringVar(&stringifyNode, "node", "", "Print only the subtree rooted at this node id")
}

func runStringify(cmd *cobra.Command, args []string) error {
	f, err := loadFixtures(args...)
	if err != nil {
		return err
	}

	roots := f.Documents
	if stringifyNode != "" {
		node, _, err := findNode(stringifyNode, f.Documents)
		if err != nil {
			return err
		}
		roots = []*synthetic.Node{node}
	}
	return writeStringified(cmd.OutOrStdout(), roots)
}

func writeStringified(w io.Writer, roots []*synthetic.Node) error {
	for _, root := range roots {
		if _, err := fmt.Fprint(w, synthetic.Stringify(root)); err != nil {
			return err
		}
	}
	return nil
}

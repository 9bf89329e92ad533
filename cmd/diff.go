package cmd

import (
	"fmt"
	"io"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/ot"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/spf13/cobra"
)

// Document diff statuses.
const (
	statusAdded     = "added"
	statusRemoved   = "removed"
	statusChanged   = "changed"
	statusUnchanged = "unchanged"
)

var diffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Show the edit script between two versions of a fixture",
	Long: `Compare the documents of two fixtures and print the edit script that
turns each old document into its new version. Documents are paired by the
module they were rendered from.

Examples:
  synthdom diff before.yaml after.yaml
  synthdom diff before.yaml after.yaml -o json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

var diffOutput *OutputFlags

func init() {
	rootCmd.AddCommand(diffCmd)
	diffOutput = AddOutputFlags(diffCmd)
}

// documentDiff is the comparison of one document across two fixtures.
type documentDiff struct {
	Document   string        `json:"document" yaml:"document"`
	Status     string        `json:"status" yaml:"status"`
	Stats      ot.Stats      `json:"stats" yaml:"stats"`
	Operations ot.EditScript `json:"operations,omitempty" yaml:"operations,omitempty"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := loadFixtures(args[0])
	if err != nil {
		return err
	}
	after, err := loadFixtures(args[1])
	if err != nil {
		return err
	}

	diffs, err := diffDocuments(before.Documents, after.Documents)
	if err != nil {
		return err
	}
	return diffOutput.write(cmd.OutOrStdout(), diffs, func(w io.Writer) error {
		return writeDiffText(w, diffs)
	})
}

// diffDocuments pairs documents by source id, in the order of next followed
// by documents only present in prev.
func diffDocuments(prev, next []*synthetic.Node) ([]documentDiff, error) {
	diffs := make([]documentDiff, 0, len(next))

	for _, doc := range next {
		old := synthetic.GetDocumentBySourceNodeID(doc.SourceNodeID, prev)
		if old == nil {
			diffs = append(diffs, documentDiff{Document: doc.ID, Status: statusAdded})
			continue
		}

		script, err := ot.Diff(old, doc)
		if err != nil {
			return nil, errors.EnhanceError(err, "diff", doc.ID)
		}
		status := statusUnchanged
		if len(script) > 0 {
			status = statusChanged
		}
		diffs = append(diffs, documentDiff{
			Document:   doc.ID,
			Status:     status,
			Stats:      script.Stats(),
			Operations: script,
		})
	}

	for _, doc := range prev {
		if synthetic.GetDocumentBySourceNodeID(doc.SourceNodeID, next) == nil {
			diffs = append(diffs, documentDiff{Document: doc.ID, Status: statusRemoved})
		}
	}
	return diffs, nil
}

func writeDiffText(w io.Writer, diffs []documentDiff) error {
	for _, diff := range diffs {
		switch diff.Status {
		case statusChanged:
			fmt.Fprintf(w, "%s: %d operations (%d inserts, %d removes, %d moves, %d sets)\n",
				diff.Document, diff.Stats.Total(),
				diff.Stats.Inserts, diff.Stats.Removes, diff.Stats.Moves, diff.Stats.Sets)
			for _, op := range diff.Operations {
				fmt.Fprintf(w, "  %s\n", op)
			}
		default:
			fmt.Fprintf(w, "%s: %s\n", diff.Document, diff.Status)
		}
	}
	return nil
}

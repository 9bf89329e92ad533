package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/snapshot"
	"github.com/conneroisu/synthdom/internal/tree"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and inspect document snapshots",
	Long: `Snapshots persist a document collection and its dependency graph in a
compact binary file (CBOR, optionally zstd-compressed).

Examples:
  synthdom snapshot save page.yaml
  synthdom snapshot inspect .synthdom/state.sdom
  synthdom snapshot inspect state.sdom --diag`,
}

var snapshotSaveCompression string

var snapshotSaveCmd = &cobra.Command{
	Use:   "save FIXTURE...",
	Short: "Save the documents of fixtures as a snapshot",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSnapshotSave,
}

var (
	snapshotInspectDiag      bool
	snapshotInspectStringify bool
)

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect [FILE]",
	Short: "Describe a snapshot file",
	Long: `Describe a snapshot file: its header, content fingerprint and documents.
FILE defaults to snapshot.path from the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshotInspect,
}

var snapshotInspectOutput *OutputFlags

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotInspectCmd)

	snapshotSaveCmd.Flags().StringVar(&snapshotSaveCompression, "compression", "", "Compression (none, zstd); defaults to snapshot.compression")

	snapshotInspectCmd.Flags().BoolVar(&snapshotInspectDiag, "diag", false, "Print the payload in CBOR diagnostic notation")
	snapshotInspectCmd.Flags().BoolVar(&snapshotInspectStringify, "stringify", false, "Print the documents as indented HTML")
	snapshotInspectOutput = AddOutputFlags(snapshotInspectCmd)
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	compression := env.config.SnapshotCompression()
	if cmd.Flags().Changed("compression") {
		if compression, err = snapshot.ParseCompression(snapshotSaveCompression); err != nil {
			return errors.WrapValidation(err, errors.ErrCodeInvalidOperation, "invalid --compression")
		}
	}

	f, err := loadFixtures(args...)
	if err != nil {
		return err
	}
	s := snapshot.New(f.Documents, f.Graph())
	path := env.config.Snapshot.Path
	if err := snapshot.Save(path, s, compression); err != nil {
		return err
	}

	fingerprint, err := s.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d documents to %s (%s, fingerprint %s)\n",
		len(s.Documents), path, compression, fingerprint.Short())
	return nil
}

type documentSummary struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Nodes  int    `json:"nodes" yaml:"nodes"`
}

type snapshotInfo struct {
	Path         string            `json:"path" yaml:"path"`
	Header       snapshot.Header   `json:"header" yaml:"header"`
	CreatedAt    string            `json:"createdAt" yaml:"createdAt"`
	Fingerprint  string            `json:"fingerprint" yaml:"fingerprint"`
	Dependencies []string          `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Documents    []documentSummary `json:"documents" yaml:"documents"`
}

func runSnapshotInspect(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	path := env.config.Snapshot.Path
	if len(args) == 1 {
		path = args[0]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileNotFound, path)
	}
	out := cmd.OutOrStdout()

	if snapshotInspectDiag {
		payload, err := snapshot.Payload(data)
		if err != nil {
			return err
		}
		notation, err := snapshot.Diagnose(payload)
		if err != nil {
			return errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "diagnose snapshot")
		}
		_, err = fmt.Fprintln(out, notation)
		return err
	}

	header, err := snapshot.ReadHeader(data)
	if err != nil {
		return err
	}
	s, err := snapshot.Decode(data)
	if err != nil {
		return err
	}
	if snapshotInspectStringify {
		return writeStringified(out, s.Documents)
	}

	fingerprint, err := s.Fingerprint()
	if err != nil {
		return err
	}
	info := &snapshotInfo{
		Path:        path,
		Header:      header,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		Fingerprint: fingerprint.String(),
	}
	for _, dep := range s.Dependencies {
		info.Dependencies = append(info.Dependencies, dep.URI)
	}
	for _, doc := range s.Documents {
		info.Documents = append(info.Documents, documentSummary{
			ID:     doc.ID,
			Source: doc.SourceNodeID,
			Nodes:  len(tree.Flatten(doc)),
		})
	}

	return snapshotInspectOutput.write(out, info, func(w io.Writer) error {
		return writeSnapshotText(w, info)
	})
}

func writeSnapshotText(w io.Writer, info *snapshotInfo) error {
	fmt.Fprintf(w, "Snapshot %s\n", info.Path)
	fmt.Fprintf(w, "  Format:       v%d, %s, %d byte payload\n",
		info.Header.Version, info.Header.Compression, info.Header.PayloadSize)
	fmt.Fprintf(w, "  Created:      %s\n", info.CreatedAt)
	fmt.Fprintf(w, "  Fingerprint:  %s\n", info.Fingerprint)
	fmt.Fprintf(w, "  Dependencies: %d\n", len(info.Dependencies))
	for _, uri := range info.Dependencies {
		fmt.Fprintf(w, "    %s\n", uri)
	}
	fmt.Fprintf(w, "  Documents:    %d\n", len(info.Documents))
	for _, doc := range info.Documents {
		fmt.Fprintf(w, "    %s (%s, %d nodes)\n", doc.ID, doc.Source, doc.Nodes)
	}
	return nil
}

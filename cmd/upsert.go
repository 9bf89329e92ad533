package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/conneroisu/synthdom/internal/document"
	"github.com/conneroisu/synthdom/internal/history"
	"github.com/conneroisu/synthdom/internal/logging"
	"github.com/conneroisu/synthdom/internal/ot"
	"github.com/conneroisu/synthdom/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	upsertUndo int
	upsertSave bool
)

var upsertCmd = &cobra.Command{
	Use:   "upsert BASE UPDATE...",
	Short: "Patch re-evaluated documents into a document collection",
	Long: `Load the documents of BASE, then upsert the documents of each UPDATE in
order. A document rendered from a module not yet in the collection is
added; otherwise it is diffed against the stored version and patched in,
keeping the identity of every unchanged node.

Examples:
  synthdom upsert page.yaml edit1.yaml edit2.yaml
  synthdom upsert page.yaml edit.yaml --undo 1 --save`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpsert,
}

var upsertOutput *OutputFlags

func init() {
	rootCmd.AddCommand(upsertCmd)
	upsertCmd.Flags().IntVar(&upsertUndo, "undo", 0, "Undo this many changes after applying the updates")
	upsertCmd.Flags().BoolVar(&upsertSave, "save", false, "Save the resulting collection as a snapshot")
	upsertOutput = AddOutputFlags(upsertCmd)
}

// upsertStep is the outcome of upserting one document.
type upsertStep struct {
	File       string        `json:"file" yaml:"file"`
	Document   string        `json:"document" yaml:"document"`
	Event      string        `json:"event" yaml:"event"`
	Stats      ot.Stats      `json:"stats" yaml:"stats"`
	Operations ot.EditScript `json:"operations,omitempty" yaml:"operations,omitempty"`
}

type upsertReport struct {
	Steps       []upsertStep `json:"steps" yaml:"steps"`
	Undone      int          `json:"undone,omitempty" yaml:"undone,omitempty"`
	Documents   int          `json:"documents" yaml:"documents"`
	Fingerprint string       `json:"fingerprint" yaml:"fingerprint"`
	Snapshot    string       `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

func runUpsert(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	base, err := loadFixtures(args[0])
	if err != nil {
		return err
	}
	h := history.New(env.config.History.Limit)
	store, err := document.NewStore(document.StoreConfig{
		Graph:     base.Graph(),
		History:   h,
		Logger:    env.logger,
		CacheSize: env.config.Cache.Size,
	})
	if err != nil {
		return err
	}
	events := store.Watch()
	defer store.UnWatch(events)

	for _, doc := range base.Documents {
		if _, err := store.Upsert(ctx, doc); err != nil {
			return err
		}
	}
	drain(events)

	report := &upsertReport{}
	for _, path := range args[1:] {
		update, err := loadFixtures(path)
		if err != nil {
			return err
		}
		g := store.Graph()
		for _, dep := range update.Dependencies {
			g = g.With(dep)
		}
		store.SetGraph(g)

		for _, doc := range update.Documents {
			script, err := store.Upsert(ctx, doc)
			if err != nil {
				return err
			}
			step := upsertStep{File: path, Document: doc.ID, Event: "unchanged", Stats: script.Stats(), Operations: script}
			select {
			case event := <-events:
				step.Event = event.Type.String()
			default:
			}
			report.Steps = append(report.Steps, step)
		}
	}

	for range upsertUndo {
		if !store.Undo(ctx) {
			break
		}
		report.Undone++
	}

	report.Documents = store.Count()
	if entry, ok := h.Current(); ok {
		report.Fingerprint = entry.Fingerprint.String()
	}
	if upsertSave {
		path, err := saveSnapshot(ctx, env, store)
		if err != nil {
			return err
		}
		report.Snapshot = path
	}

	return upsertOutput.write(cmd.OutOrStdout(), report, func(w io.Writer) error {
		return writeUpsertText(w, report)
	})
}

func saveSnapshot(ctx context.Context, env *runtimeEnv, store *document.Store) (string, error) {
	path := env.config.Snapshot.Path
	op := logging.StartOperation(env.logger, "save_snapshot")
	s := snapshot.New(store.Documents(), store.Graph())
	if err := snapshot.Save(path, s, env.config.SnapshotCompression()); err != nil {
		op.EndWithError(ctx, err, "path", path)
		return "", err
	}
	op.End(ctx, "path", path, "documents", len(s.Documents))
	return path, nil
}

func writeUpsertText(w io.Writer, report *upsertReport) error {
	for _, step := range report.Steps {
		fmt.Fprintf(w, "%s %s (%s): %d operations\n", step.Event, step.Document, step.File, step.Stats.Total())
		for _, op := range step.Operations {
			fmt.Fprintf(w, "  %s\n", op)
		}
	}
	if report.Undone > 0 {
		fmt.Fprintf(w, "undid %d changes\n", report.Undone)
	}
	fmt.Fprintf(w, "%d documents, fingerprint %s\n", report.Documents, shortHash(report.Fingerprint))
	if report.Snapshot != "" {
		fmt.Fprintf(w, "saved snapshot %s\n", report.Snapshot)
	}
	return nil
}

// drain discards the events already queued on events.
func drain(events <-chan document.Event) {
	for {
		select {
		case <-events:
		default:
			return
		}
	}
}

func shortHash(hex string) string {
	if len(hex) > 12 {
		return hex[:12]
	}
	return hex
}

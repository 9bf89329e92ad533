package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/resolver"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/spf13/cobra"
)

var resolveVariant string

var resolveCmd = &cobra.Command{
	Use:   "resolve FIXTURE NODE_ID",
	Short: "Explain the instances and overrides behind a synthetic node",
	Long: `Resolve a synthetic node against the source graph of its fixture: the
component instances enclosing it, the instance path an override must target
to reach it, and the overrides that apply to it at a variant.

Examples:
  synthdom resolve page.yaml s-label
  synthdom resolve page.yaml s-button --variant hover -o yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

var resolveOutput *OutputFlags

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVar(&resolveVariant, "variant", "", "Variant id (default variant when empty)")
	resolveOutput = AddOutputFlags(resolveCmd)
}

type overrideSummary struct {
	ID           string   `json:"id" yaml:"id"`
	Property     string   `json:"property,omitempty" yaml:"property,omitempty"`
	VariantID    string   `json:"variantId,omitempty" yaml:"variantId,omitempty"`
	TargetIDPath []string `json:"targetIdPath,omitempty" yaml:"targetIdPath,omitempty"`
}

// resolution describes one synthetic node in terms of its sources.
type resolution struct {
	Node            string            `json:"node" yaml:"node"`
	Kind            string            `json:"kind" yaml:"kind"`
	Source          string            `json:"source" yaml:"source"`
	SourceTag       string            `json:"sourceTag,omitempty" yaml:"sourceTag,omitempty"`
	SourceURI       string            `json:"sourceUri,omitempty" yaml:"sourceUri,omitempty"`
	Document        string            `json:"document" yaml:"document"`
	Instance        bool              `json:"instance" yaml:"instance"`
	InShadow        bool              `json:"inShadow" yaml:"inShadow"`
	InstancePath    []string          `json:"instancePath,omitempty" yaml:"instancePath,omitempty"`
	ParentInstances []string          `json:"parentInstances,omitempty" yaml:"parentInstances,omitempty"`
	Overrides       []overrideSummary `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	f, err := loadFixtures(args[0])
	if err != nil {
		return err
	}
	node, doc, err := findNode(args[1], f.Documents)
	if err != nil {
		return err
	}

	r, err := resolver.New(env.config.Cache.Size)
	if err != nil {
		return err
	}
	result := resolve(r, node, doc, f.Graph(), resolveVariant)

	return resolveOutput.write(cmd.OutOrStdout(), result, func(w io.Writer) error {
		return writeResolutionText(w, result)
	})
}

func resolve(r *resolver.Resolver, node, doc *synthetic.Node, g *graph.DependencyGraph, variantID string) *resolution {
	result := &resolution{
		Node:         node.ID,
		Kind:         label(node.Kind.String()),
		Source:       node.SourceNodeID,
		SourceURI:    synthetic.GetSourceURI(node, g),
		Document:     doc.ID,
		Instance:     synthetic.IsInstanceElement(node),
		InShadow:     r.SyntheticNodeIsInShadow(node, doc, g),
		InstancePath: r.GetSyntheticInstancePath(node, doc, g),
	}
	if source := synthetic.GetSourceNode(node, g); source != nil {
		result.SourceTag = label(source.Name)
	}
	for _, parent := range r.GetAllParentComponentInstance(node, doc, g) {
		result.ParentInstances = append(result.ParentInstances, parent.ID)
	}

	overrides := r.GetInheritedAndSelfOverrides(node, doc, g, variantID)
	for _, override := range overrides {
		result.Overrides = append(result.Overrides, overrideSummary{
			ID:           override.ID,
			Property:     string(override.Property),
			VariantID:    override.VariantID,
			TargetIDPath: override.TargetIDPath,
		})
	}
	if merged := resolver.MergeOverrideAttributes(overrides); len(merged) > 0 {
		result.Attributes = merged
	}
	return result
}

func writeResolutionText(w io.Writer, r *resolution) error {
	fmt.Fprintf(w, "%s %s\n", r.Kind, r.Node)
	source := r.Source
	if r.SourceTag != "" {
		source += " (" + r.SourceTag + ")"
	}
	if r.SourceURI != "" {
		source += " in " + r.SourceURI
	}
	fmt.Fprintf(w, "  Source:           %s\n", source)
	fmt.Fprintf(w, "  Document:         %s\n", r.Document)
	fmt.Fprintf(w, "  Instance:         %t\n", r.Instance)
	fmt.Fprintf(w, "  In shadow:        %t\n", r.InShadow)
	fmt.Fprintf(w, "  Instance path:    %s\n", orNone(strings.Join(r.InstancePath, ".")))
	fmt.Fprintf(w, "  Parent instances: %s\n", orNone(strings.Join(r.ParentInstances, ", ")))

	if len(r.Overrides) > 0 {
		fmt.Fprintln(w, "  Overrides:")
		for _, o := range r.Overrides {
			fmt.Fprintf(w, "    %s %s -> %s\n", o.ID, orNone(o.Property), strings.Join(o.TargetIDPath, "."))
		}
	}
	if len(r.Attributes) > 0 {
		fmt.Fprintln(w, "  Attributes:")
		for _, name := range slices.Sorted(maps.Keys(r.Attributes)) {
			fmt.Fprintf(w, "    %s=%q\n", name, r.Attributes[name])
		}
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

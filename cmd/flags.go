package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var outputFormats = []string{FormatText, FormatJSON, FormatYAML}

// outputFormat is a pflag.Value restricted to outputFormats.
type outputFormat string

func (f *outputFormat) String() string { return string(*f) }

func (f *outputFormat) Set(value string) error {
	if !slices.Contains(outputFormats, value) {
		return fmt.Errorf("unsupported format %q (supported: text, json, yaml)", value)
	}
	*f = outputFormat(value)
	return nil
}

func (f *outputFormat) Type() string { return "format" }

var _ pflag.Value = (*outputFormat)(nil)

// OutputFlags provides consistent output flags across commands
type OutputFlags struct {
	Format outputFormat
	Quiet  bool
}

// AddOutputFlags adds the standard output flags to a command
func AddOutputFlags(cmd *cobra.Command) *OutputFlags {
	flags := &OutputFlags{Format: FormatText}
	cmd.Flags().VarP(&flags.Format, "output", "o", "Output format (text|json|yaml)")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress text output")
	return flags
}

// write renders value in the selected format. Text output is produced by
// text.
func (f *OutputFlags) write(w io.Writer, value any, text func(io.Writer) error) error {
	switch f.Format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	default:
		if f.Quiet {
			return nil
		}
		return text(w)
	}
}

var titleCaser = cases.Title(language.English)

// label turns identifiers such as "component-instance" into display labels
// such as "Component Instance".
func label(name string) string {
	return titleCaser.String(strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, name))
}

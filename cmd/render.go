package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/conneroisu/synthdom/internal/render"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/spf13/cobra"
)

var (
	renderAnnotate   bool
	renderErrorClass string
	renderPage       bool
)

var renderCmd = &cobra.Command{
	Use:   "render FIXTURE...",
	Short: "Render synthetic documents to HTML",
	Long: `Render every document of the given fixtures to HTML. Nodes that cannot
be rendered are replaced by error markers and reported on stderr; the rest
of the document renders normally.

With --annotate the output carries data-* attributes describing each node,
and can be loaded back as an HTML fixture.

Examples:
  synthdom render page.yaml
  synthdom render page.yaml --page --annotate > page.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().BoolVar(&renderAnnotate, "annotate", false, "Add node identity attributes")
	renderCmd.Flags().StringVar(&renderErrorClass, "error-class", "", "Class of error marker elements")
	renderCmd.Flags().BoolVar(&renderPage, "page", false, "Wrap each document in an HTML page")
}

func runRender(cmd *cobra.Command, args []string) error {
	env, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	f, err := loadFixtures(args...)
	if err != nil {
		return err
	}

	cfg := env.config.RendererConfig(env.logger)
	if cmd.Flags().Changed("annotate") {
		cfg.Annotate = renderAnnotate
	}
	if cmd.Flags().Changed("error-class") {
		cfg.ErrorClass = renderErrorClass
	}
	renderer := render.NewRenderer(cfg)

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()
	for _, doc := range f.Documents {
		component := renderer.Component(doc)
		if renderPage {
			component = page(doc, component)
		}
		if err := component.Render(ctx, out); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
	}
	return nil
}

// page wraps a rendered document in a standalone HTML page. The body
// carries the document's source id so the page loads back as a fixture.
func page(doc *synthetic.Node, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			"<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>%s</title></head><body %s=\"%s\">",
			templ.EscapeString(doc.ID), render.AttrSourceID, templ.EscapeString(doc.SourceNodeID)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

// Package fixture loads source graphs and synthetic documents from files.
//
// Fixtures stand in for the template evaluator and the graph loader: a
// fixture file holds the parsed modules of a project and the documents an
// evaluator rendered from them. YAML, JSON and JSONC files carry both;
// HTML files carry a single document.
package fixture

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/conneroisu/synthdom/internal/errors"
	"github.com/conneroisu/synthdom/internal/graph"
	"github.com/conneroisu/synthdom/internal/synthetic"
	"github.com/conneroisu/synthdom/internal/tree"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions Load understands.
var Extensions = []string{".yaml", ".yml", ".json", ".jsonc", ".html"}

// Fixture is the content of one fixture file.
type Fixture struct {
	Dependencies []*graph.Dependency `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Documents    []*synthetic.Node   `json:"documents,omitempty" yaml:"documents,omitempty"`
}

// Graph builds a dependency graph from the fixture's dependencies.
func (f *Fixture) Graph() *graph.DependencyGraph {
	return graph.NewDependencyGraph(f.Dependencies...)
}

// Supported reports whether path has a fixture extension.
func Supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// Load reads the fixture at path.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, path)
	}

	fixture, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, errors.EnhanceError(err, "load", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".html") && len(fixture.Documents) == 1 {
		doc := fixture.Documents[0]
		if doc.SourceNodeID == "" {
			doc.SourceNodeID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			doc.ID = synthetic.DocumentID(doc.SourceNodeID)
		}
	}
	return fixture, nil
}

// Parse decodes fixture data in the format named by ext.
func Parse(ext string, data []byte) (*Fixture, error) {
	var fixture Fixture

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&fixture); err != nil && err != io.EOF {
			return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "invalid YAML fixture")
		}
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&fixture); err != nil {
			return nil, errors.WrapValidation(err, errors.ErrCodeDecodeFailed, "invalid JSON fixture")
		}
	case ".html":
		doc, err := ParseHTML(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		fixture.Documents = []*synthetic.Node{doc}
	default:
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFile, "unsupported fixture extension "+ext)
	}

	if err := fixture.normalize(); err != nil {
		return nil, err
	}
	return &fixture, nil
}

// normalize fills in kinds and document ids that hand-written fixtures
// usually leave out, then checks that ids are unique per document.
func (f *Fixture) normalize() error {
	for i, dep := range f.Dependencies {
		if dep == nil || dep.URI == "" {
			return errors.NewValidationError(errors.ErrCodeValidationFailed, "dependency without uri").
				WithContext("index", i)
		}
	}

	for i, doc := range f.Documents {
		if doc == nil {
			return errors.NewValidationError(errors.ErrCodeValidationFailed, "empty document").WithContext("index", i)
		}
		if doc.Kind == 0 {
			doc.Kind = synthetic.KindDocument
		}
		if doc.Name == "" {
			doc.Name = synthetic.DocumentNodeName
		}
		if doc.ID == "" {
			doc.ID = synthetic.DocumentID(doc.SourceNodeID)
		}
		if !synthetic.IsDocument(doc) {
			return errors.NewValidationError(errors.ErrCodeValidationFailed, "top-level node is not a document").WithNode(doc.ID)
		}

		seen := make(map[string]struct{})
		var dup string
		hasNil := false
		tree.Walk(doc, func(n *synthetic.Node) bool {
			if n == nil {
				hasNil = true
				return false
			}
			if n != doc {
				inferKind(n)
			}
			if _, exists := seen[n.ID]; exists && dup == "" {
				dup = n.ID
			}
			seen[n.ID] = struct{}{}
			return true
		})
		if hasNil {
			return errors.NewValidationError(errors.ErrCodeValidationFailed, "empty child node").WithNode(doc.ID)
		}
		if dup != "" {
			return errors.NewValidationError(errors.ErrCodeValidationFailed, "duplicate node id").WithNode(dup)
		}
	}
	return nil
}

func inferKind(n *synthetic.Node) {
	if n.Kind != 0 {
		return
	}
	switch n.Name {
	case synthetic.TextNodeName:
		n.Kind = synthetic.KindText
	case "fragment":
		n.Kind = synthetic.KindFragment
	default:
		n.Kind = synthetic.KindElement
	}
}

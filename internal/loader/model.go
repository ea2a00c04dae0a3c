package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/modelq/internal/engine"
	"github.com/roach88/modelq/internal/ir"
)

// ModelLoader reads model documents and builds graphs against a schema.
//
// A model document is a YAML (or JSON) list of nodes:
//
//	- type: Project
//	  name: ProjectTest
//	  children:
//	    - type: Task
//	      description: this is the first task
//	      days: 2
//
// Attributes absent from a node are stored as ir.Null.
type ModelLoader struct {
	Schema *ir.Schema

	// SearchPaths are tried, in order, for relative paths that do not exist
	// as given.
	SearchPaths []string

	Logger *slog.Logger
}

// NewModelLoader creates a loader. A nil logger falls back to slog.Default().
func NewModelLoader(schema *ir.Schema, searchPaths []string, logger *slog.Logger) *ModelLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelLoader{
		Schema:      schema,
		SearchPaths: searchPaths,
		Logger:      logger,
	}
}

func (l *ModelLoader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Resolve returns the file to read for path: path itself if it exists,
// otherwise the first search path that holds it. Falling back to a search
// path is logged as a warning.
func (l *ModelLoader) Resolve(path string) (string, error) {
	if isFile(path) {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		for _, dir := range l.SearchPaths {
			candidate := filepath.Join(dir, path)
			if isFile(candidate) {
				l.logger().Warn("cannot load model from path, loaded it from search path",
					"path", path,
					"resolved", candidate,
				)
				return candidate, nil
			}
		}
	}
	return "", &LoadError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("model not found: %s", path),
		Path:    path,
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load resolves path, reads it and builds the graph.
func (l *ModelLoader) Load(path string) (*ir.Graph, error) {
	resolved, err := l.Resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading model: %v", err), Path: resolved}
	}

	graph, err := l.Parse(data, resolved)
	if err != nil {
		return nil, err
	}

	l.logger().Debug("model loaded",
		"path", resolved,
		"roots", len(graph.Roots),
		"nodes", graph.Size(),
	)
	return graph, nil
}

// Parse builds a graph from a model document. source names the document in
// errors and is recorded as the graph's Source. JSON documents are parsed
// by the same YAML decoder.
func (l *ModelLoader) Parse(data []byte, source string) (*ir.Graph, error) {
	if l.Schema == nil {
		return nil, &LoadError{Code: ErrCodeNoSchema, Message: "no metamodel loaded", Path: source}
	}

	graph := &ir.Graph{Source: source, Roots: []*ir.Node{}}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeParseModel, Message: fmt.Sprintf("parse model: %v", err), Path: source}
	}
	if len(doc.Content) == 0 {
		return graph, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, l.errorAt(root, source, ErrCodeParseModel, "model document must be a list of nodes")
	}

	for _, item := range root.Content {
		n, err := l.buildNode(item, nil, source)
		if err != nil {
			return nil, err
		}
		graph.Roots = append(graph.Roots, n)
	}
	return graph, nil
}

// buildNode builds one node and its subtree.
func (l *ModelLoader) buildNode(yn *yaml.Node, parent *ir.TypeDef, source string) (*ir.Node, error) {
	if yn.Kind != yaml.MappingNode {
		return nil, l.errorAt(yn, source, ErrCodeParseModel, "node must be a mapping")
	}

	fields := make(map[string]*yaml.Node, len(yn.Content)/2)
	var order []string
	for i := 0; i+1 < len(yn.Content); i += 2 {
		key, value := yn.Content[i], yn.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, l.errorAt(key, source, ErrCodeParseModel, "node keys must be strings")
		}
		if _, dup := fields[key.Value]; dup {
			return nil, l.errorAt(key, source, ErrCodeParseModel, fmt.Sprintf("duplicate key %q", key.Value))
		}
		fields[key.Value] = value
		order = append(order, key.Value)
	}

	t, err := l.nodeType(yn, fields[ir.NodeKeyType], source)
	if err != nil {
		return nil, err
	}
	if parent != nil && !canContain(l.Schema, parent, t) {
		return nil, l.errorAt(yn, source, ErrCodeContainment,
			fmt.Sprintf("type %s cannot contain %s", parent.Name, t.Name))
	}

	n := ir.NewNode(t)
	attrs := attributeKinds(t)

	for _, key := range order {
		value := fields[key]
		switch key {
		case ir.NodeKeyType:
			continue
		case ir.NodeKeyChildren:
			if err := l.buildChildren(n, value, source); err != nil {
				return nil, err
			}
		default:
			kind, ok := attrs[key]
			if !ok {
				return nil, l.errorAt(value, source, ErrCodeUnknownAttr,
					fmt.Sprintf("type %s has no attribute %q", t.Name, key))
			}
			v, err := scalarValue(value, kind)
			if err != nil {
				return nil, l.errorAt(value, source, ErrCodeInvalidValue,
					fmt.Sprintf("attribute %s.%s: %v", t.Name, key, err))
			}
			n.Set(key, v)
		}
	}

	return n, nil
}

func (l *ModelLoader) buildChildren(n *ir.Node, value *yaml.Node, source string) error {
	if value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.SequenceNode {
		return l.errorAt(value, source, ErrCodeParseModel, "children must be a list of nodes")
	}
	for _, item := range value.Content {
		child, err := l.buildNode(item, n.Type, source)
		if err != nil {
			return err
		}
		n.Add(child)
	}
	return nil
}

// nodeType resolves the "type" key of a node.
func (l *ModelLoader) nodeType(yn, typeNode *yaml.Node, source string) (*ir.TypeDef, error) {
	if typeNode == nil {
		return nil, l.errorAt(yn, source, ErrCodeParseModel, "node has no type")
	}
	if typeNode.Kind != yaml.ScalarNode || typeNode.Value == "" {
		return nil, l.errorAt(typeNode, source, ErrCodeParseModel, "type must be a non-empty string")
	}
	t, ok := engine.ResolveType(l.Schema, typeNode.Value)
	if !ok {
		return nil, l.errorAt(typeNode, source, ErrCodeUnknownType,
			fmt.Sprintf("unknown type %q", typeNode.Value))
	}
	if t.Abstract {
		return nil, l.errorAt(typeNode, source, ErrCodeAbstractType,
			fmt.Sprintf("type %s is abstract and cannot be instantiated", t.Name))
	}
	return t, nil
}

func (l *ModelLoader) errorAt(yn *yaml.Node, source, code, msg string) *LoadError {
	return &LoadError{
		Code:    code,
		Message: msg,
		Path:    source,
		Line:    yn.Line,
		Column:  yn.Column,
	}
}

// scalarValue decodes a YAML scalar as a value of kind.
func scalarValue(yn *yaml.Node, kind ir.AttrKind) (ir.Value, error) {
	if yn.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected a scalar %s value", kind)
	}
	var raw any
	if err := yn.Decode(&raw); err != nil {
		return nil, err
	}
	return ir.ValueOf(kind, raw)
}

// attributeKinds maps every declared and inherited attribute of t to its kind.
func attributeKinds(t *ir.TypeDef) map[string]ir.AttrKind {
	all := ir.AllAttributes(t)
	kinds := make(map[string]ir.AttrKind, len(all))
	for _, a := range all {
		kinds[a.Name] = a.Kind
	}
	return kinds
}

// canContain reports whether a node of type parent may hold a child of
// type child. Containment declared on a supertype of parent is inherited;
// a child may be any subtype of a contained type.
func canContain(schema *ir.Schema, parent, child *ir.TypeDef) bool {
	for _, owner := range schema.Types {
		if !parent.IsSubtypeOf(owner) {
			continue
		}
		for _, name := range owner.Contains {
			contained, ok := engine.ResolveType(schema, name)
			if ok && child.IsSubtypeOf(contained) {
				return true
			}
		}
	}
	return false
}

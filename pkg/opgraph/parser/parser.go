package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
)

// Format identifies the encoding of a tree document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the format from a file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is a decoded tree together with its metadata.
type Document struct {
	// Name identifies the tree in a library. Defaults to the file name
	// without extension.
	Name string

	// Description is optional free text.
	Description string

	// Tree is the root operation node.
	Tree ast.Node

	// Source is the path or label the document was read from.
	Source string

	// Warnings are non-blocking diagnostics found while decoding.
	Warnings []*diag.Diagnostic
}

// Parser decodes JSON and YAML documents into operation trees.
type Parser struct {
	maxFileSize int64 // Maximum document size in bytes (default: 5MB)
	maxDepth    int   // Maximum tree depth (default: 64)
}

// NewParser creates a parser with default limits.
func NewParser() *Parser {
	return &Parser{
		maxFileSize: 5 * 1024 * 1024,
		maxDepth:    64,
	}
}

// WithMaxFileSize sets the maximum document size.
func (p *Parser) WithMaxFileSize(size int64) *Parser {
	p.maxFileSize = size
	return p
}

// WithMaxDepth sets the maximum tree depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse reads and decodes the document at path. The format is inferred from
// the file extension.
func (p *Parser) Parse(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &diag.Diagnostic{
			Type:     diag.TypeIO,
			Severity: diag.SeverityError,
			Source:   path,
			Message:  fmt.Sprintf("failed to access file: %v", err),
		}
	}
	if info.Size() > p.maxFileSize {
		return nil, &diag.Diagnostic{
			Type:     diag.TypeIO,
			Severity: diag.SeverityError,
			Source:   path,
			Message:  fmt.Sprintf("file size %d exceeds maximum %d bytes", info.Size(), p.maxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &diag.Diagnostic{
			Type:     diag.TypeIO,
			Severity: diag.SeverityError,
			Source:   path,
			Message:  fmt.Sprintf("failed to read file: %v", err),
		}
	}

	doc, err := p.ParseBytes(data, FormatFromPath(path), path)
	if err != nil {
		return nil, err
	}
	if doc.Name == "" {
		base := filepath.Base(path)
		doc.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return doc, nil
}

// ParseBytes decodes a document held in memory. source labels diagnostics.
//
// A document is either a bare operation node or an envelope of the form
// {"name": ..., "description": ..., "tree": {...}}.
func (p *Parser) ParseBytes(data []byte, format Format, source string) (*Document, error) {
	if int64(len(data)) > p.maxFileSize {
		return nil, &diag.Diagnostic{
			Type:     diag.TypeIO,
			Severity: diag.SeverityError,
			Source:   source,
			Message:  fmt.Sprintf("data size %d exceeds maximum %d bytes", len(data), p.maxFileSize),
		}
	}

	raw, err := decode(data, format)
	if err != nil {
		return nil, &diag.Diagnostic{
			Type:       diag.TypeSyntax,
			Severity:   diag.SeverityError,
			Source:     source,
			Message:    fmt.Sprintf("%s parsing failed: %v", strings.ToUpper(string(format)), err),
			Suggestion: "check the document syntax",
		}
	}

	doc := &Document{Source: source}
	treeRaw := raw
	treePath := "$"
	if m, ok := raw.(map[string]any); ok {
		if t, isEnvelope := m["tree"]; isEnvelope {
			treeRaw = t
			treePath = "$.tree"
			if name, ok := m["name"].(string); ok {
				doc.Name = name
			}
			if desc, ok := m["description"].(string); ok {
				doc.Description = desc
			}
		}
	}

	b := newBuilder(p.maxDepth)
	doc.Tree = b.build(treePath, treeRaw, 1)
	for _, d := range b.diags.Items {
		d.Source = source
	}
	if b.diags.HasErrors() {
		return nil, b.diags
	}
	doc.Warnings = b.diags.Warnings()
	return doc, nil
}

// ParseNode decodes a bare operation node or envelope and returns its tree.
func (p *Parser) ParseNode(data []byte, format Format) (ast.Node, error) {
	doc, err := p.ParseBytes(data, format, "")
	if err != nil {
		return nil, err
	}
	return doc.Tree, nil
}

// Build converts an already-decoded value (as produced by encoding/json style
// decoders into any) into an operation tree.
func (p *Parser) Build(raw any) (ast.Node, error) {
	b := newBuilder(p.maxDepth)
	node := b.build("$", normalize(raw), 1)
	if b.diags.HasErrors() {
		return nil, b.diags
	}
	return node, nil
}

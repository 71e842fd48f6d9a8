// Package diag provides the diagnostics reported while decoding and linting
// operation trees.
//
// Diagnostics are distinct from evaluation results: they describe a tree
// that cannot be built or is likely to misbehave, and are reported as Go
// errors. Every diagnostic carries the JSONPath of the offending node so
// authors can locate it in the source document.
//
//	list := diag.NewList()
//	list.Addf(diag.TypeStructural, "$.operands[1]", "missing tag")
//	if err := list.ToError(); err != nil {
//	    return err
//	}
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Type categorizes a diagnostic.
type Type string

const (
	TypeSyntax     Type = "syntax"     // Document is not valid JSON or YAML
	TypeStructural Type = "structural" // Missing or ill-typed fields, unknown tags
	TypeSemantic   Type = "semantic"   // Well-formed but inconsistent (datatype mismatch, bad regex)
	TypeIO         Type = "io"         // File could not be read
)

// Severity distinguishes blocking errors from advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic describes one problem found in a tree document.
type Diagnostic struct {
	Type       Type     `json:"type"`
	Severity   Severity `json:"severity"`
	Path       string   `json:"path"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var sb strings.Builder
	if d.Source != "" {
		sb.WriteString(d.Source)
		sb.WriteString(": ")
	}
	sb.WriteString(fmt.Sprintf("[%s] %s", d.Type, d.Message))
	if d.Path != "" {
		sb.WriteString(" at ")
		sb.WriteString(d.Path)
	}
	if d.Suggestion != "" {
		sb.WriteString(" (")
		sb.WriteString(d.Suggestion)
		sb.WriteString(")")
	}
	return sb.String()
}

// List accumulates diagnostics so every problem in a document is reported
// at once instead of stopping at the first.
type List struct {
	Items []*Diagnostic
}

// NewList creates an empty list.
func NewList() *List {
	return &List{Items: make([]*Diagnostic, 0)}
}

// Add appends a diagnostic.
func (l *List) Add(d *Diagnostic) {
	if d.Severity == "" {
		d.Severity = SeverityError
	}
	l.Items = append(l.Items, d)
}

// Addf appends an error diagnostic with a formatted message.
func (l *List) Addf(t Type, path, format string, args ...any) {
	l.Add(&Diagnostic{Type: t, Path: path, Message: fmt.Sprintf(format, args...)})
}

// AddWithSuggestion appends an error diagnostic with a suggested fix.
func (l *List) AddWithSuggestion(t Type, path, message, suggestion string) {
	l.Add(&Diagnostic{Type: t, Path: path, Message: message, Suggestion: suggestion})
}

// Warnf appends a warning diagnostic.
func (l *List) Warnf(t Type, path, format string, args ...any) {
	l.Add(&Diagnostic{Type: t, Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
}

// Merge appends every diagnostic of other, tagging them with source when
// they carry none.
func (l *List) Merge(other *List, source string) {
	if other == nil {
		return
	}
	for _, d := range other.Items {
		if d.Source == "" {
			d.Source = source
		}
		l.Add(d)
	}
}

// HasErrors reports whether any diagnostic has error severity.
func (l *List) HasErrors() bool {
	return len(l.Errors()) > 0
}

// Errors returns the diagnostics with error severity.
func (l *List) Errors() []*Diagnostic {
	return l.bySeverity(SeverityError)
}

// Warnings returns the diagnostics with warning severity.
func (l *List) Warnings() []*Diagnostic {
	return l.bySeverity(SeverityWarning)
}

func (l *List) bySeverity(s Severity) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range l.Items {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of diagnostics of any severity.
func (l *List) Count() int {
	return len(l.Items)
}

// ByType returns all diagnostics of the given type.
func (l *List) ByType(t Type) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range l.Items {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// HasType reports whether at least one diagnostic has the given type.
func (l *List) HasType(t Type) bool {
	return len(l.ByType(t)) > 0
}

// Error implements the error interface, listing every error diagnostic.
func (l *List) Error() string {
	errs := l.Errors()
	if len(errs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("found %d error(s):", len(errs)))
	for _, d := range errs {
		sb.WriteString("\n  ")
		sb.WriteString(d.Error())
	}
	return sb.String()
}

// ToError returns nil when the list holds no errors, otherwise the list.
// Warnings alone do not produce an error.
func (l *List) ToError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// FromError extracts the diagnostics carried by err. Errors that are not
// diagnostics yield nil.
func FromError(err error) []*Diagnostic {
	var list *List
	if errors.As(err, &list) {
		return list.Items
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		return []*Diagnostic{d}
	}
	return nil
}

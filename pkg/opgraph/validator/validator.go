package validator

import (
	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
)

// Validator orchestrates the structural and semantic passes.
type Validator struct {
	structural *StructuralValidator
	semantic   *SemanticValidator
}

// NewValidator creates a validator with the default depth limit of 64.
func NewValidator() *Validator {
	return &Validator{
		structural: NewStructuralValidator(64),
		semantic:   NewSemanticValidator(),
	}
}

// WithMaxDepth sets the maximum tree depth. Zero disables the check.
func (v *Validator) WithMaxDepth(depth int) *Validator {
	v.structural.maxDepth = depth
	return v
}

// Lint runs every pass and returns all diagnostics, warnings included.
// Semantic checks are skipped when the structural pass found errors, to
// avoid cascading reports about nodes that are already known to be broken.
func (v *Validator) Lint(root ast.Node) *diag.List {
	all := diag.NewList()
	all.Merge(v.structural.Validate(root), "")
	if all.HasErrors() {
		return all
	}
	all.Merge(v.semantic.Validate(root), "")
	return all
}

// Validate runs every pass and returns an error when any error-severity
// diagnostic was found. Warnings alone do not fail validation.
func (v *Validator) Validate(root ast.Node) error {
	return v.Lint(root).ToError()
}

// ValidateStructural runs only the structural pass.
func (v *Validator) ValidateStructural(root ast.Node) error {
	return v.structural.Validate(root).ToError()
}

// ValidateSemantic runs only the semantic pass.
func (v *Validator) ValidateSemantic(root ast.Node) error {
	return v.semantic.Validate(root).ToError()
}

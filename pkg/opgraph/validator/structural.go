package validator

import (
	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
)

// StructuralValidator checks that every node has the fields its tag
// requires: operands present, arity respected, tag used with the right node
// family and depth within bounds.
type StructuralValidator struct {
	maxDepth int
	diags    *diag.List
}

// NewStructuralValidator creates a structural validator. A maxDepth of zero
// disables the depth check.
func NewStructuralValidator(maxDepth int) *StructuralValidator {
	return &StructuralValidator{maxDepth: maxDepth, diags: diag.NewList()}
}

// Validate checks the tree rooted at root and returns every diagnostic.
func (v *StructuralValidator) Validate(root ast.Node) *diag.List {
	v.diags = diag.NewList()
	if ast.IsNil(root) {
		v.diags.Addf(diag.TypeStructural, "$", "tree is empty")
		return v.diags
	}
	v.walk("$", root, 1)
	return v.diags
}

func (v *StructuralValidator) walk(path string, n ast.Node, depth int) {
	if ast.IsNil(n) {
		return
	}
	if v.maxDepth > 0 && depth > v.maxDepth {
		v.diags.Addf(diag.TypeStructural, path, "tree exceeds maximum depth of %d", v.maxDepth)
		return
	}

	tag := n.Tag()
	if !tag.IsValid() {
		v.diags.AddWithSuggestion(diag.TypeStructural, path, "unknown operation tag "+quote(string(tag)),
			diag.Suggest(string(tag), ast.Tags()))
		return
	}
	if kind := ast.KindOf(n); kind != tag.Kind() {
		v.diags.Addf(diag.TypeStructural, path, "tag %s cannot be used on a %s node", tag, kind)
		return
	}
	if dt := n.Datatype(); !dt.IsValid() {
		v.diags.Addf(diag.TypeStructural, path+".datatype", "unknown datatype %s", quote(string(dt)))
	}

	switch node := n.(type) {
	case *ast.FromLocal:
		if node.Key == "" {
			v.diags.Addf(diag.TypeStructural, path, "FromLocal requires a key")
		}

	case *ast.FromAPI:
		if node.URL == "" {
			v.diags.Addf(diag.TypeStructural, path, "FromAPI requires a url")
		}

	case *ast.Operator:
		if len(node.Operands) == 0 {
			v.diags.Warnf(diag.TypeStructural, path, "%s of an empty list always fails", tag)
		}
		v.walkList(path, node.Operands, depth)

	case *ast.Comparator:
		v.required(path+".operand", node.Operand, depth)
		v.required(path+".test", node.Test, depth)

	case *ast.Check:
		v.required(path+".operand", node.Operand, depth)

	case *ast.Match:
		v.required(path+".operand", node.Operand, depth)

	case *ast.Policy:
		if tag == ast.TagHasRole && node.Role == "" {
			v.diags.Addf(diag.TypeStructural, path, "HasRole requires a role")
		}
		if tag != ast.TagHasRole && len(node.Roles) == 0 {
			v.diags.Addf(diag.TypeStructural, path, "%s requires a non-empty roles list", tag)
		}
		v.walk(path+".operand", node.Operand, depth+1)

	case *ast.Logical:
		switch {
		case tag == ast.TagNot && len(node.Operands) != 1:
			v.diags.Addf(diag.TypeStructural, path, "Not requires exactly one operand, got %d", len(node.Operands))
		case tag == ast.TagOr && len(node.Operands) == 0:
			v.diags.Addf(diag.TypeStructural, path, "Or of an empty list cannot be evaluated")
		case tag == ast.TagAnd && len(node.Operands) == 0:
			v.diags.Warnf(diag.TypeStructural, path, "And of an empty list always succeeds")
		}
		v.walkList(path, node.Operands, depth)
	}
}

func (v *StructuralValidator) required(path string, n ast.Node, depth int) {
	if ast.IsNil(n) {
		v.diags.Addf(diag.TypeStructural, path, "operation is missing")
		return
	}
	v.walk(path, n, depth+1)
}

func (v *StructuralValidator) walkList(path string, nodes []ast.Node, depth int) {
	for i, child := range nodes {
		v.required(indexPath(path, i), child, depth)
	}
}

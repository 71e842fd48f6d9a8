package validator

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
	"mercator-hq/opgraph/pkg/opgraph/types"
)

var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true, "HEAD": true,
}

// SemanticValidator checks that a structurally sound tree is consistent:
// datatypes fit the operations that use them, constants conform to their
// datatype, patterns compile and remote fetches are well-formed.
type SemanticValidator struct {
	diags *diag.List
}

// NewSemanticValidator creates a semantic validator.
func NewSemanticValidator() *SemanticValidator {
	return &SemanticValidator{diags: diag.NewList()}
}

// Validate checks the tree rooted at root and returns every diagnostic.
func (v *SemanticValidator) Validate(root ast.Node) *diag.List {
	v.diags = diag.NewList()
	_ = ast.Walk(root, ast.VisitorFunc(func(path string, n ast.Node) error {
		v.check(path, n)
		return nil
	}))
	return v.diags
}

func (v *SemanticValidator) check(path string, n ast.Node) {
	switch node := n.(type) {
	case *ast.Constant:
		v.checkConstant(path, node)

	case *ast.FromAPI:
		if !allowedMethods[strings.ToUpper(node.Method)] {
			v.diags.Addf(diag.TypeSemantic, path+".method", "unsupported method %s", quote(node.Method))
		}
		u, err := url.Parse(node.URL)
		switch {
		case err != nil:
			v.diags.Addf(diag.TypeSemantic, path+".url", "invalid url: %v", err)
		case u.Scheme != "http" && u.Scheme != "https":
			v.diags.Addf(diag.TypeSemantic, path+".url", "url must use http or https, got %s", quote(u.Scheme))
		}

	case *ast.Operator:
		dt := node.Datatype()
		switch node.Op {
		case ast.TagMax, ast.TagMin:
			if !dt.IsOrdered() && dt != ast.DatatypeAny {
				v.diags.Addf(diag.TypeSemantic, path+".datatype", "%s cannot order values of datatype %s", node.Op, dt)
			}
		case ast.TagMean, ast.TagRootMeanSquare, ast.TagMedian, ast.TagSum:
			if !dt.IsNumeric() {
				v.diags.Addf(diag.TypeSemantic, path+".datatype", "%s requires a numeric datatype, got %s", node.Op, dt)
			}
		}
		v.checkOperandTypes(path, node.Op, dt, node.Operands)

	case *ast.Comparator:
		dt := node.Datatype()
		if allowed := comparatorDatatypes(node.Op); allowed != nil && !allowed[dt] {
			v.diags.Addf(diag.TypeSemantic, path+".datatype", "%s cannot compare values of datatype %s", node.Op, dt)
		}
		operands := []ast.Node{node.Operand, node.Test}
		if node.Op == ast.TagIsMemberOf || node.Op == ast.TagIsNotMemberOf {
			operands = operands[:1]
		}
		v.checkOperandTypes(path, node.Op, dt, operands)

	case *ast.Match:
		if _, err := types.CompilePattern(node.Pattern, node.Flags); err != nil {
			v.diags.Addf(diag.TypeSemantic, path+".pattern", "%v", err)
		}
	}
}

func (v *SemanticValidator) checkConstant(path string, c *ast.Constant) {
	dt := c.Datatype()
	if c.Value == nil {
		v.diags.Warnf(diag.TypeSemantic, path+".value", "value is missing; evaluation always fails")
		return
	}
	if !types.ConformsTo(dt, c.Value) {
		v.diags.Addf(diag.TypeSemantic, path+".value", "value is not a %s", dt)
		return
	}
	if dt.IsTextual() || dt == ast.DatatypeDuration {
		if err := types.Validate(dt, c.Value); err != nil {
			v.diags.Addf(diag.TypeSemantic, path+".value", "%v", err)
		}
	}
}

// checkOperandTypes warns when a child declares a datatype different from
// the one its parent compares or folds.
func (v *SemanticValidator) checkOperandTypes(path string, tag ast.Tag, dt ast.Datatype, operands []ast.Node) {
	if dt == ast.DatatypeAny {
		return
	}
	for i, child := range operands {
		if ast.IsNil(child) {
			continue
		}
		childType := declaredType(child)
		if childType == "" || childType == ast.DatatypeAny || compatible(dt, childType) {
			continue
		}
		v.diags.Warnf(diag.TypeSemantic, childPath(path, tag, i),
			"operand declares %s but %s works on %s", childType, tag, dt)
	}
}

func declaredType(n ast.Node) ast.Datatype {
	switch node := n.(type) {
	case *ast.Constant:
		return node.Type
	case *ast.FromLocal:
		return node.Type
	case *ast.FromAPI:
		return node.Type
	case *ast.Operator:
		return node.Datatype()
	}
	// Comparators pass their operand through, so their own datatype is
	// the datatype of the value they produce.
	return n.Datatype()
}

func compatible(want, got ast.Datatype) bool {
	if want == got {
		return true
	}
	if want.IsNumeric() && got.IsNumeric() {
		return true
	}
	if want.IsCollection() && got.IsCollection() {
		return true
	}
	return false
}

func comparatorDatatypes(tag ast.Tag) map[ast.Datatype]bool {
	switch tag.DefaultDatatype() {
	case ast.DatatypeDate:
		return map[ast.Datatype]bool{ast.DatatypeDate: true}
	case ast.DatatypeDateTime:
		return map[ast.Datatype]bool{ast.DatatypeDateTime: true}
	case ast.DatatypeTime:
		return map[ast.Datatype]bool{ast.DatatypeTime: true}
	case ast.DatatypeDuration:
		return map[ast.Datatype]bool{ast.DatatypeDuration: true}
	case ast.DatatypeNumber:
		return map[ast.Datatype]bool{ast.DatatypeNumber: true, ast.DatatypeInteger: true}
	case ast.DatatypeString:
		return map[ast.Datatype]bool{
			ast.DatatypeString: true, ast.DatatypeEmail: true, ast.DatatypeURL: true, ast.DatatypeUUID: true,
		}
	case ast.DatatypeSet:
		return map[ast.Datatype]bool{ast.DatatypeSet: true, ast.DatatypeList: true}
	}
	return nil
}

func childPath(path string, tag ast.Tag, i int) string {
	if tag.Kind() == ast.KindComparator {
		if i == 0 {
			return path + ".operand"
		}
		return path + ".test"
	}
	return indexPath(path, i)
}

func indexPath(path string, i int) string {
	return path + ".operands[" + strconv.Itoa(i) + "]"
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

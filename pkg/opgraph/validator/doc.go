// Package validator lints operation trees before they are evaluated.
//
// Decoding already rejects unknown tags and malformed fields. The validator
// goes further and reports trees that will certainly or probably fail at
// evaluation time:
//
// Structural pass: missing operands, Not with the wrong arity, Or of an empty
// list, tags attached to the wrong node family, excessive depth
//
// Semantic pass: constants that do not conform to their datatype, comparators
// applied to datatypes they cannot compare, numeric operators over non-numeric
// datatypes, regular expressions that do not compile, malformed fetch URLs
//
// Diagnostics carry the JSONPath of the offending node:
//
//	v := validator.NewValidator()
//	for _, d := range v.Lint(tree).Items {
//	    fmt.Println(d.Severity, d.Path, d.Message)
//	}
package validator

// Package ast defines the operation tree evaluated by the opgraph engine.
//
// An operation tree is built from a closed set of node families. Each family
// is a concrete Go type implementing Node, and each carries a Tag naming the
// exact operation:
//
// Constant, FromAPI, FromLocal: injectors producing leaf values
//
// Operator: n-ary aggregation (Max, Min, Mode, Mean, RootMeanSquare, Median, Sum)
//
// Comparator: binary predicates (IsAfterDate, IsMoreThan, IsSubset, ...)
//
// Check: unary shape predicates (IsRealNumber, IsValidDuration, ...)
//
// Match: regular expression predicates (Matches, DoesNotMatch)
//
// Policy: role predicates over the current principal (HasRole, ...)
//
// Logical: And, Or and Not combinators
//
// # Building Trees
//
// Trees are usually decoded from JSON or YAML by the parser package, but can
// be built directly:
//
//	subject, _ := ast.NewConstant(ast.DatatypeDate, "2001-09-11")
//	limit, _ := ast.NewConstant(ast.DatatypeDate, "2001-01-01")
//	node, err := ast.NewComparator(ast.TagIsAfterDate, ast.DatatypeDate, subject, limit)
//
// Constructors reject unknown tags and datatypes, and tags used with the
// wrong family.
//
// # Wire Format
//
// ToMap encodes a tree into the JSON shape accepted by the parser:
//
//	{"tag": "IsAfterDate", "datatype": "Date",
//	 "operand": {"tag": "Constant", "datatype": "Date", "value": "2001-09-11"},
//	 "test": {"tag": "Constant", "datatype": "Date", "value": "2001-01-01"}}
package ast

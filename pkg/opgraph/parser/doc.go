// Package parser decodes JSON and YAML documents into operation trees.
//
// Documents are either a bare operation node or an envelope naming the tree:
//
//	name: adult-check
//	description: applicant must be at least 18
//	tree:
//	  tag: IsAtLeast
//	  operand: {tag: FromLocal, datatype: Integer, key: age}
//	  test: {tag: Constant, datatype: Integer, value: 18}
//
// Decoding is the construction step of a tree: unknown tags, unknown
// datatypes and tags used with the wrong fields are rejected here, all at
// once, as a diag.List whose entries carry the JSONPath of each problem.
// Unknown fields are reported as warnings on the returned Document.
//
// JSON documents are decoded with github.com/goccy/go-json and YAML
// documents with gopkg.in/yaml.v3. Both produce the same value model:
// objects, lists, strings, booleans and float64 numbers.
package parser

// opgraph evaluates declarative operation trees.
//
// It loads trees from files, a directory library or a git repository, and
// exposes evaluation through the command line and an HTTP service:
//   - Evaluate a named or inline tree against local values
//   - Lint tree documents for structural and type errors
//   - Run YAML test suites of expected outcomes
//   - Serve evaluation, lint and journal queries over HTTP
//   - Query and prune the evaluation journal
//
// Usage:
//
//	# Evaluate a library tree
//	opgraph eval --tree adult --locals '{"age": 21}'
//
//	# Evaluate a tree document directly
//	opgraph eval --file trees/adult.json --locals-file locals.json
//
//	# Lint a directory of trees
//	opgraph lint trees/
//
//	# Run test suites
//	opgraph test suites/ --format junit
//
//	# Start the HTTP service
//	opgraph serve --config opgraph.yaml
//
//	# Query the journal
//	opgraph journal query --tree adult --outcome failure
package main

import "os"

func main() {
	os.Exit(Execute())
}

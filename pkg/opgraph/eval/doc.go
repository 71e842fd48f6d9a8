// Package eval evaluates operation trees.
//
// An Evaluator walks a tree depth-first. Leaves (injectors) produce values
// from constants, caller-supplied local values or remote JSON endpoints.
// Inner nodes evaluate their operands concurrently, reassemble the results
// in positional order and then apply their own logic:
//
//   - operators fold operand values into one value (Max, Mode, Mean, ...)
//   - comparators gate their operand value behind a predicate and pass it
//     through unchanged on success
//   - logical combinators (And, Or, Not) combine the outcomes of their
//     operands
//
// Every evaluation produces exactly one arm of a result.Result. Failures are
// data: a Left holds an outcome list with an error record for every failing
// operand and a Succeeded marker for each sibling that evaluated fine.
//
// Basic usage:
//
//	ev, err := eval.New(eval.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	r := ev.Evaluate(ctx, tree, map[string]any{"start": "2024-01-01"})
//	if outcomes, failed := r.LeftValue(); failed {
//	    for _, msg := range outcomes.Messages() {
//	        fmt.Println(msg)
//	    }
//	}
//
// Go starts an evaluation in the background and returns a Pending result,
// so callers can treat trees with remote fetches and trees without them the
// same way.
package eval

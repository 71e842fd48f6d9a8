package eval

import (
	"context"
	"fmt"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
)

func (e *Evaluator) evalLogical(ctx context.Context, depth int, locals Locals, n *ast.Logical) result.Result {
	switch n.Op {
	case ast.TagAnd:
		results := e.evalAll(ctx, depth, locals, n.Operands)
		if failed := failures(results); len(failed) > 0 {
			return result.Fail(failed...)
		}
		return result.Ok(true)

	case ast.TagOr:
		if len(n.Operands) == 0 {
			return result.FailWith(result.ErrorTypeStructural, "Cannot evaluate Or of an empty list.", ast.Header(n))
		}
		results := e.evalAll(ctx, depth, locals, n.Operands)
		for _, r := range results {
			if r.IsRight() {
				return result.Ok(true)
			}
		}
		return result.Fail(failures(results)...)

	case ast.TagNot:
		if len(n.Operands) != 1 {
			return result.FailWith(result.ErrorTypeStructural,
				fmt.Sprintf("Not requires exactly one operand, got %d.", len(n.Operands)), ast.Header(n))
		}
		r := e.eval(ctx, depth+1, locals, n.Operands[0])
		v, ok := r.RightValue()
		if !ok {
			return result.Ok(true)
		}
		return result.FailWith(result.ErrorTypeComparison,
			fmt.Sprintf("%s was expected to fail.", result.Format(v)),
			operation(n, map[string]any{"operands": []any{v}}))
	}
	return malformed(n)
}

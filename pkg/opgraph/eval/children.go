package eval

import (
	"context"

	"golang.org/x/sync/errgroup"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
)

// evalAll evaluates sibling operands concurrently and returns their results
// in positional order. Siblings never abort each other.
func (e *Evaluator) evalAll(ctx context.Context, depth int, locals Locals, nodes []ast.Node) []result.Result {
	results := make([]result.Result, len(nodes))
	if len(nodes) == 1 || e.config.MaxParallelism == 1 {
		for i, n := range nodes {
			results[i] = e.eval(ctx, depth+1, locals, n)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(e.config.MaxParallelism)
	for i, n := range nodes {
		g.Go(func() error {
			results[i] = e.eval(ctx, depth+1, locals, n)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// siblings reports whether every result succeeded. When one failed, it
// returns the interleaved outcome list: each failing result's outcomes and
// a Succeeded marker for each successful one, in positional order.
func siblings(results []result.Result) ([]any, result.Outcomes, bool) {
	values := make([]any, len(results))
	var outcomes result.Outcomes
	ok := true
	for i, r := range results {
		if v, right := r.RightValue(); right {
			values[i] = v
			outcomes = append(outcomes, result.Succeeded(v))
			continue
		}
		ok = false
		outcomes = append(outcomes, result.OutcomesOf(r)...)
	}
	if ok {
		return values, nil, true
	}
	return nil, outcomes, false
}

// failures concatenates the outcomes of the failed results only.
func failures(results []result.Result) result.Outcomes {
	var outcomes result.Outcomes
	for _, r := range results {
		if l, failed := r.LeftValue(); failed {
			outcomes = append(outcomes, l...)
		}
	}
	return outcomes
}

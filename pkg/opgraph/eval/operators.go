package eval

import (
	"context"
	"math"
	"slices"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/opgraph/types"
)

var emptyOperatorMessages = map[ast.Tag]string{
	ast.TagMax:            "Cannot get maximum of an empty list.",
	ast.TagMin:            "Cannot get minimum of an empty list.",
	ast.TagMode:           "Cannot take mode of empty array.",
	ast.TagMean:           "Cannot take mean of an empty list.",
	ast.TagRootMeanSquare: "Cannot take root mean square of an empty list.",
	ast.TagMedian:         "Cannot take median of an empty list.",
	ast.TagSum:            "Cannot take sum of an empty list.",
}

func (e *Evaluator) evalOperator(ctx context.Context, depth int, locals Locals, n *ast.Operator) result.Result {
	if len(n.Operands) == 0 {
		return result.FailWith(result.ErrorTypeOperation, emptyOperatorMessages[n.Op], ast.Header(n))
	}

	values, outcomes, ok := siblings(e.evalAll(ctx, depth, locals, n.Operands))
	if !ok {
		return result.Fail(outcomes...)
	}

	dt := n.Datatype()
	snapshot := func() map[string]any {
		return operation(n, map[string]any{"operands": values})
	}

	switch n.Op {
	case ast.TagMax, ast.TagMin:
		want := 1
		if n.Op == ast.TagMin {
			want = -1
		}
		best, err := coerce(dt, values[0])
		if err != nil {
			return constructionError(err, snapshot())
		}
		for _, v := range values[1:] {
			cv, err := coerce(dt, v)
			if err != nil {
				return constructionError(err, snapshot())
			}
			c, err := types.Compare(dt, cv, best)
			if err != nil {
				return constructionError(err, snapshot())
			}
			if c == want {
				best = cv
			}
		}
		return result.Ok(best)

	case ast.TagMode:
		counts := make(map[string]int, len(values))
		var mode any
		top := 0
		for _, v := range values {
			cv, err := coerce(dt, v)
			if err != nil {
				return constructionError(err, snapshot())
			}
			k := types.Key(cv)
			counts[k]++
			// Strictly greater: the first value to reach the top frequency wins.
			if counts[k] > top {
				top = counts[k]
				mode = cv
			}
		}
		return result.Ok(mode)
	}

	nums := make([]float64, len(values))
	for i, v := range values {
		f, err := types.ToFloat(v)
		if err != nil {
			return constructionError(err, snapshot())
		}
		nums[i] = f
	}

	switch n.Op {
	case ast.TagSum:
		return result.Ok(sum(nums))
	case ast.TagMean:
		return result.Ok(sum(nums) / float64(len(nums)))
	case ast.TagRootMeanSquare:
		squares := 0.0
		for _, x := range nums {
			squares += x * x
		}
		return result.Ok(math.Sqrt(squares / float64(len(nums))))
	case ast.TagMedian:
		sorted := slices.Clone(nums)
		slices.Sort(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return result.Ok(sorted[mid])
		}
		return result.Ok((sorted[mid-1] + sorted[mid]) / 2)
	}
	return malformed(n)
}

// coerce converts numeric values of numeric datatypes to float64 and leaves
// every other value untouched.
func coerce(dt ast.Datatype, v any) (any, error) {
	if !dt.IsNumeric() {
		return v, nil
	}
	if dt == ast.DatatypeInteger {
		return types.ToInteger(v)
	}
	return types.ToFloat(v)
}

func constructionError(err error, op map[string]any) result.Result {
	return result.FailWith(result.ErrorTypeConstruction, capitalize(err.Error())+".", op)
}

func sum(nums []float64) float64 {
	total := 0.0
	for _, x := range nums {
		total += x
	}
	return total
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

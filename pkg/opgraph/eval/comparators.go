package eval

import (
	"context"
	"fmt"
	"regexp"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/result"
	"mercator-hq/opgraph/pkg/opgraph/types"
)

// ordering describes a comparator that orders its operands as values of a
// fixed datatype.
type ordering struct {
	datatype ast.Datatype
	holds    func(c int) bool
}

func after(c int) bool     { return c > 0 }
func before(c int) bool    { return c < 0 }
func same(c int) bool      { return c == 0 }
func different(c int) bool { return c != 0 }
func notBefore(c int) bool { return c >= 0 }
func notAfter(c int) bool  { return c <= 0 }

var orderings = map[ast.Tag]ordering{
	ast.TagIsAfterDate:       {ast.DatatypeDate, after},
	ast.TagIsBeforeDate:      {ast.DatatypeDate, before},
	ast.TagIsOnOrAfterDate:   {ast.DatatypeDate, notBefore},
	ast.TagIsOnOrBeforeDate:  {ast.DatatypeDate, notAfter},
	ast.TagIsSameDate:        {ast.DatatypeDate, same},
	ast.TagIsNotSameDate:     {ast.DatatypeDate, different},
	ast.TagIsAfterDateTime:   {ast.DatatypeDateTime, after},
	ast.TagIsBeforeDateTime:  {ast.DatatypeDateTime, before},
	ast.TagIsSameDateTime:    {ast.DatatypeDateTime, same},
	ast.TagIsNotSameDateTime: {ast.DatatypeDateTime, different},
	ast.TagIsAfterTime:       {ast.DatatypeTime, after},
	ast.TagIsBeforeTime:      {ast.DatatypeTime, before},
	ast.TagIsSameTime:        {ast.DatatypeTime, same},

	ast.TagIsMoreThan:   {ast.DatatypeNumber, after},
	ast.TagIsLessThan:   {ast.DatatypeNumber, before},
	ast.TagIsAtLeast:    {ast.DatatypeNumber, notBefore},
	ast.TagIsAtMost:     {ast.DatatypeNumber, notAfter},
	ast.TagIsEqualTo:    {ast.DatatypeNumber, same},
	ast.TagIsNotEqualTo: {ast.DatatypeNumber, different},

	ast.TagIsLongerThan:   {ast.DatatypeDuration, after},
	ast.TagIsShorterThan:  {ast.DatatypeDuration, before},
	ast.TagIsSameDuration: {ast.DatatypeDuration, same},

	ast.TagIsAfterAlphabetically:  {ast.DatatypeString, after},
	ast.TagIsBeforeAlphabetically: {ast.DatatypeString, before},
	ast.TagIsSameAlphabetically:   {ast.DatatypeString, same},
}

func (e *Evaluator) evalComparator(ctx context.Context, depth int, locals Locals, n *ast.Comparator) result.Result {
	values, outcomes, ok := siblings(e.evalAll(ctx, depth, locals, []ast.Node{n.Operand, n.Test}))
	if !ok {
		return result.Fail(outcomes...)
	}
	subject, test := values[0], values[1]
	op := operation(n, map[string]any{"operand": subject, "test": test})

	holds, err := e.holds(n, subject, test)
	if err != nil {
		return constructionError(err, op)
	}
	if holds {
		return result.Ok(subject)
	}
	return result.FailWith(result.ErrorTypeComparison,
		fmt.Sprintf("%s %s %s.", result.Format(subject), phrases[n.Op], result.Format(test)), op)
}

// holds applies the predicate named by the comparator's tag. An error means
// the comparison subject could not be built from the operand values.
func (e *Evaluator) holds(n *ast.Comparator, subject, test any) (bool, error) {
	if o, ok := orderings[n.Op]; ok {
		var c int
		var err error
		switch n.Op {
		case ast.TagIsAfterAlphabetically, ast.TagIsBeforeAlphabetically, ast.TagIsSameAlphabetically:
			c, err = e.collate(subject, test)
		default:
			c, err = types.Compare(o.datatype, subject, test)
		}
		if err != nil {
			return false, err
		}
		return o.holds(c), nil
	}

	switch n.Op {
	case ast.TagIsSame, ast.TagIsNotSame:
		equal, err := equalAs(n.Datatype(), subject, test)
		if err != nil {
			return false, err
		}
		return equal == (n.Op == ast.TagIsSame), nil

	case ast.TagIsSubset, ast.TagIsSuperset, ast.TagIsDisjointSet, ast.TagIsSameSet, ast.TagIsNotSameSet:
		a, err := types.ToSet(subject)
		if err != nil {
			return false, err
		}
		b, err := types.ToSet(test)
		if err != nil {
			return false, err
		}
		switch n.Op {
		case ast.TagIsSubset:
			return a.IsSubsetOf(b), nil
		case ast.TagIsSuperset:
			return b.IsSubsetOf(a), nil
		case ast.TagIsDisjointSet:
			return a.IsDisjointFrom(b), nil
		case ast.TagIsSameSet:
			return a.Equals(b), nil
		default:
			return !a.Equals(b), nil
		}

	case ast.TagIsMemberOf, ast.TagIsNotMemberOf:
		members, err := types.ToSet(test)
		if err != nil {
			return false, err
		}
		return members.Has(subject) == (n.Op == ast.TagIsMemberOf), nil
	}

	return false, fmt.Errorf("no predicate is defined for %s", n.Op)
}

// equalAs compares two values of dt. Ordered datatypes compare by parsed
// value so that "PT60M" equals "PT1H"; anything else compares structurally.
func equalAs(dt ast.Datatype, a, b any) (bool, error) {
	if dt.IsOrdered() {
		c, err := types.Compare(dt, a, b)
		if err != nil {
			return false, err
		}
		return c == 0, nil
	}
	return types.Equal(a, b), nil
}

func (e *Evaluator) collate(a, b any) (int, error) {
	x, ok := a.(string)
	if !ok {
		return 0, fmt.Errorf("cannot order %s alphabetically: value is not a string", result.Format(a))
	}
	y, ok := b.(string)
	if !ok {
		return 0, fmt.Errorf("cannot order %s alphabetically: value is not a string", result.Format(b))
	}
	return e.collator.Compare(x, y), nil
}

func (e *Evaluator) evalCheck(ctx context.Context, depth int, locals Locals, n *ast.Check) result.Result {
	r := e.eval(ctx, depth+1, locals, n.Operand)
	subject, ok := r.RightValue()
	if !ok {
		return r
	}
	if check(n.Op, subject) {
		return result.Ok(subject)
	}
	return result.FailWith(result.ErrorTypeComparison,
		fmt.Sprintf("%s %s.", result.Format(subject), phrases[n.Op]),
		operation(n, map[string]any{"operand": subject}))
}

func check(tag ast.Tag, v any) bool {
	switch tag {
	case ast.TagIsRealNumber:
		_, err := types.ToFloat(v)
		return err == nil
	case ast.TagIsInteger:
		_, err := types.ToInteger(v)
		return err == nil
	case ast.TagIsBoolean:
		_, ok := v.(bool)
		return ok
	case ast.TagIsString:
		_, ok := v.(string)
		return ok
	case ast.TagIsEmpty:
		return types.IsEmpty(v)
	case ast.TagIsNotEmpty:
		return !types.IsEmpty(v)
	}
	return types.Validate(tag.DefaultDatatype(), v) == nil
}

func (e *Evaluator) evalMatch(ctx context.Context, depth int, locals Locals, n *ast.Match) result.Result {
	r := e.eval(ctx, depth+1, locals, n.Operand)
	subject, ok := r.RightValue()
	if !ok {
		return r
	}
	op := operation(n, map[string]any{"operand": subject})

	s, isString := subject.(string)
	if !isString {
		return result.FailWith(result.ErrorTypeConstruction,
			fmt.Sprintf("Cannot match %s: value is not a string.", result.Format(subject)), op)
	}
	re, err := e.pattern(n.Pattern, n.Flags)
	if err != nil {
		return constructionError(err, op)
	}

	matched := re.MatchString(s)
	switch {
	case n.Op == ast.TagMatches && matched, n.Op == ast.TagDoesNotMatch && !matched:
		return result.Ok(true)
	case n.Op == ast.TagMatches:
		return result.FailWith(result.ErrorTypeComparison,
			fmt.Sprintf("%s does not match %s.", s, n.Pattern), op)
	default:
		return result.FailWith(result.ErrorTypeComparison,
			fmt.Sprintf("%s matches %s.", s, n.Pattern), op)
	}
}

// pattern returns the compiled regular expression, compiling it once per
// evaluator.
func (e *Evaluator) pattern(pattern, flags string) (*regexp.Regexp, error) {
	key := flags + "/" + pattern
	if re, ok := e.patterns.Load(key); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := types.CompilePattern(pattern, flags)
	if err != nil {
		return nil, err
	}
	actual, _ := e.patterns.LoadOrStore(key, re)
	return actual.(*regexp.Regexp), nil
}

func (e *Evaluator) evalPolicy(ctx context.Context, depth int, locals Locals, n *ast.Policy) result.Result {
	var subject any
	hasOperand := !ast.IsNil(n.Operand)
	if hasOperand {
		r := e.eval(ctx, depth+1, locals, n.Operand)
		v, ok := r.RightValue()
		if !ok {
			return r
		}
		subject = v
	}

	var held []any
	if raw, ok := locals[e.config.RolesKey]; ok && raw != nil {
		list, err := types.ToList(raw)
		if err != nil {
			return constructionError(fmt.Errorf("cannot read roles from %s: %w", e.config.RolesKey, err),
				operation(n, map[string]any{"principal_roles": raw}))
		}
		held = list
	}
	roles, _ := types.ToSet(held)

	var required []any
	if n.Op == ast.TagHasRole {
		required = []any{n.Role}
	} else {
		for _, role := range n.Roles {
			required = append(required, role)
		}
	}

	count := 0
	for _, role := range required {
		if roles.Has(role) {
			count++
		}
	}
	var ok bool
	switch n.Op {
	case ast.TagHasRole, ast.TagHasAllRoles:
		ok = len(required) > 0 && count == len(required)
	case ast.TagHasAnyRole:
		ok = count > 0
	}

	if ok {
		switch {
		case hasOperand:
			return result.Ok(subject)
		case n.Op == ast.TagHasRole:
			return result.Ok(n.Role)
		default:
			return result.Ok(required)
		}
	}

	var test any = required
	if n.Op == ast.TagHasRole {
		test = n.Role
	}
	return result.FailWith(result.ErrorTypeComparison,
		fmt.Sprintf("%s %s %s.", result.Format(roles.Items()), phrases[n.Op], result.Format(test)),
		operation(n, map[string]any{"principal_roles": held, "operand": subject}))
}

package types

import (
	"cmp"
	"fmt"
	"strings"

	"mercator-hq/opgraph/pkg/opgraph/ast"
)

// Compare orders a and b as values of dt and returns -1, 0 or +1. An error
// is returned when either value cannot be read as dt.
func Compare(dt ast.Datatype, a, b any) (int, error) {
	switch dt {
	case ast.DatatypeInteger, ast.DatatypeNumber:
		x, err := ToFloat(a)
		if err != nil {
			return 0, err
		}
		y, err := ToFloat(b)
		if err != nil {
			return 0, err
		}
		return cmp.Compare(x, y), nil

	case ast.DatatypeDate:
		x, err := ParseDate(a)
		if err != nil {
			return 0, err
		}
		y, err := ParseDate(b)
		if err != nil {
			return 0, err
		}
		return x.Compare(y), nil

	case ast.DatatypeDateTime:
		x, err := ParseDateTime(a)
		if err != nil {
			return 0, err
		}
		y, err := ParseDateTime(b)
		if err != nil {
			return 0, err
		}
		return x.Compare(y), nil

	case ast.DatatypeTime:
		x, err := ParseTime(a)
		if err != nil {
			return 0, err
		}
		y, err := ParseTime(b)
		if err != nil {
			return 0, err
		}
		return cmp.Compare(x, y), nil

	case ast.DatatypeDuration:
		x, err := ParseDuration(a)
		if err != nil {
			return 0, err
		}
		y, err := ParseDuration(b)
		if err != nil {
			return 0, err
		}
		return cmp.Compare(x.TotalSeconds(), y.TotalSeconds()), nil

	case ast.DatatypeYearWeek:
		x, err := ParseYearWeek(a)
		if err != nil {
			return 0, err
		}
		y, err := ParseYearWeek(b)
		if err != nil {
			return 0, err
		}
		return x.Monday().Compare(y.Monday()), nil

	case ast.DatatypeYearMonth:
		x, err := ParseYearMonth(a)
		if err != nil {
			return 0, err
		}
		y, err := ParseYearMonth(b)
		if err != nil {
			return 0, err
		}
		return x.Compare(y), nil

	case ast.DatatypeString, ast.DatatypeEmail, ast.DatatypeURL, ast.DatatypeUUID:
		x, err := asString(a, "string")
		if err != nil {
			return 0, err
		}
		y, err := asString(b, "string")
		if err != nil {
			return 0, err
		}
		return strings.Compare(x, y), nil

	case ast.DatatypeAny, "":
		if IsNumber(a) && IsNumber(b) {
			return Compare(ast.DatatypeNumber, a, b)
		}
		x, xok := a.(string)
		y, yok := b.(string)
		if xok && yok {
			return strings.Compare(x, y), nil
		}
		return 0, fmt.Errorf("cannot order %s and %s", kindOf(a), kindOf(b))
	}
	return 0, fmt.Errorf("values of datatype %s have no ordering", dt)
}

package types

import (
	"fmt"
	"net/mail"
	"net/url"

	"github.com/google/uuid"

	"mercator-hq/opgraph/pkg/opgraph/ast"
)

// ConformsTo reports whether v has the basic shape of dt: a finite number
// for numeric datatypes, a string for textual ones, a list for collections.
// It does not parse the content of textual values.
func ConformsTo(dt ast.Datatype, v any) bool {
	switch dt {
	case ast.DatatypeBoolean:
		_, ok := v.(bool)
		return ok
	case ast.DatatypeInteger:
		return IsInteger(v)
	case ast.DatatypeNumber:
		return IsNumber(v)
	case ast.DatatypeSet, ast.DatatypeList:
		_, err := ToList(v)
		return err == nil
	case ast.DatatypeObject:
		_, ok := v.(map[string]any)
		return ok
	case ast.DatatypeAny, "":
		return true
	}
	if dt.IsTextual() {
		_, ok := v.(string)
		return ok
	}
	return false
}

// IsEmailAddress reports whether v is a bare email address.
func IsEmailAddress(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// IsURL reports whether v is an absolute URL with a scheme and host.
func IsURL(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	u, err := url.ParseRequestURI(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// IsUUID reports whether v is a UUID in canonical textual form.
func IsUUID(v any) bool {
	s, ok := v.(string)
	if !ok || len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Validate parses v as dt and returns the parse failure, if any. Datatypes
// without a textual grammar only check their shape.
func Validate(dt ast.Datatype, v any) error {
	var err error
	switch dt {
	case ast.DatatypeDate:
		_, err = ParseDate(v)
	case ast.DatatypeDateTime:
		_, err = ParseDateTime(v)
	case ast.DatatypeTime:
		_, err = ParseTime(v)
	case ast.DatatypeDuration:
		_, err = ParseDuration(v)
	case ast.DatatypeYearWeek:
		_, err = ParseYearWeek(v)
	case ast.DatatypeYearMonth:
		_, err = ParseYearMonth(v)
	case ast.DatatypeEmail:
		if !IsEmailAddress(v) {
			err = fmt.Errorf("%v is not an email address", v)
		}
	case ast.DatatypeURL:
		if !IsURL(v) {
			err = fmt.Errorf("%v is not a URL", v)
		}
	case ast.DatatypeUUID:
		if !IsUUID(v) {
			err = fmt.Errorf("%v is not a UUID", v)
		}
	case ast.DatatypeInteger:
		_, err = ToInteger(v)
	case ast.DatatypeNumber:
		_, err = ToFloat(v)
	case ast.DatatypeSet, ast.DatatypeList:
		_, err = ToList(v)
	default:
		if !ConformsTo(dt, v) {
			err = fmt.Errorf("value is not a %s", dt)
		}
	}
	return err
}

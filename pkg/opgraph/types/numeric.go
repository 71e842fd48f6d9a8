package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ToFloat converts a numeric value into a float64. Numeric strings are
// accepted since local values often come straight from form inputs.
func ToFloat(v any) (float64, error) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int8:
		f = float64(val)
	case int16:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint8:
		f = float64(val)
	case uint16:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("%s is not a number: %w", string(val), err)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number: %w", val, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("cannot use %s as a number", kindOf(v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", f)
	}
	return f, nil
}

// ToInteger converts v into an integral float64, rejecting fractions.
func ToInteger(v any) (float64, error) {
	f, err := ToFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return f, nil
}

// IsNumber reports whether v is a native finite number. Strings do not count.
func IsNumber(v any) bool {
	switch v.(type) {
	case string, json.Number:
		return false
	}
	_, err := ToFloat(v)
	return err == nil
}

// IsInteger reports whether v is a native finite integral number.
func IsInteger(v any) bool {
	if !IsNumber(v) {
		return false
	}
	f, _ := ToFloat(v)
	return f == math.Trunc(f)
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	}
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "a number"
	}
	return fmt.Sprintf("a %T", v)
}

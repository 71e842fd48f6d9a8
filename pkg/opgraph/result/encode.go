package result

import (
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"mercator-hq/opgraph/pkg/either"
)

// MarshalJSON encodes a Failed outcome as its error record and a Succeeded
// outcome as {"right": value}.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(o.Err)
	}
	return json.Marshal(map[string]any{"right": o.Value})
}

// Encode converts a result into its wire shape: {"right": v} or
// {"left": [...]}. Exactly one key is present.
func Encode(r Result) map[string]any {
	return either.Fold(r,
		func(l Outcomes) map[string]any {
			if l == nil {
				l = Outcomes{}
			}
			return map[string]any{"left": l}
		},
		func(v any) map[string]any {
			return map[string]any{"right": v}
		},
	)
}

// Marshal encodes a result as JSON.
func Marshal(r Result) ([]byte, error) {
	return json.Marshal(Encode(r))
}

// Format renders a resolved value for use inside a human-readable message.
// Strings are used verbatim, integral numbers drop their fraction and lists
// are rendered element-wise.
func Format(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = Format(item)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []string:
		return "[" + strings.Join(val, ",") + "]"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return "<unprintable>"
		}
		return string(data)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package eval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Select extracts a nested value from a decoded JSON document. The path uses
// dot notation with optional array indexes: "data.items[0].price" or
// "data.items.0.price". An empty path returns the document itself.
func Select(doc any, path string) (any, error) {
	if path == "" {
		return doc, nil
	}

	current := doc
	for _, segment := range splitPath(path) {
		next, err := step(current, segment)
		if err != nil {
			return nil, &SelectorError{Path: path, Segment: segment, Cause: err}
		}
		current = next
	}
	return current, nil
}

// splitPath turns "a.b[0][1].c" into ["a", "b", "0", "1", "c"].
func splitPath(path string) []string {
	var parts []string
	for _, part := range strings.Split(path, ".") {
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				break
			}
			end := strings.IndexByte(part[open:], ']')
			if end < 0 {
				break
			}
			if open > 0 {
				parts = append(parts, part[:open])
			}
			parts = append(parts, part[open+1:open+end])
			part = part[open+end+1:]
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func step(v any, segment string) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		next, ok := val[segment]
		if !ok {
			return nil, ErrSelectorNotFound
		}
		return next, nil
	case []any:
		return index(len(val), segment, func(i int) any { return val[i] })
	case nil:
		return nil, ErrSelectorNotFound
	}

	// Fall back to reflection for maps and slices of other element types.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot select from a map keyed by %s", rv.Type().Key())
		}
		next := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !next.IsValid() {
			return nil, ErrSelectorNotFound
		}
		return next.Interface(), nil
	case reflect.Slice, reflect.Array:
		return index(rv.Len(), segment, func(i int) any { return rv.Index(i).Interface() })
	}
	return nil, fmt.Errorf("cannot select from %T", v)
}

func index(length int, segment string, at func(int) any) (any, error) {
	i, err := strconv.Atoi(segment)
	if err != nil {
		return nil, fmt.Errorf("%q is not a list index", segment)
	}
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return nil, fmt.Errorf("index %s out of range for list of length %d", segment, length)
	}
	return at(i), nil
}

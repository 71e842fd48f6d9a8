package types

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Key returns a canonical string for v such that two values are equal
// exactly when their keys are. Numbers of any Go type compare by value,
// integers above 2^53 keep every digit, strings are quoted byte for byte
// and object keys are order-independent.
func Key(v any) string {
	var b strings.Builder
	writeKey(&b, v)
	return b.String()
}

// Equal reports whether a and b are the same value.
func Equal(a, b any) bool {
	return Key(a) == Key(b)
}

func writeKey(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString("b:" + strconv.FormatBool(val))
	case string:
		b.WriteString("s:" + strconv.Quote(val))
	case int:
		b.WriteString("n:" + strconv.FormatInt(int64(val), 10))
	case int8:
		b.WriteString("n:" + strconv.FormatInt(int64(val), 10))
	case int16:
		b.WriteString("n:" + strconv.FormatInt(int64(val), 10))
	case int32:
		b.WriteString("n:" + strconv.FormatInt(int64(val), 10))
	case int64:
		b.WriteString("n:" + strconv.FormatInt(val, 10))
	case uint:
		b.WriteString("n:" + strconv.FormatUint(uint64(val), 10))
	case uint8:
		b.WriteString("n:" + strconv.FormatUint(uint64(val), 10))
	case uint16:
		b.WriteString("n:" + strconv.FormatUint(uint64(val), 10))
	case uint32:
		b.WriteString("n:" + strconv.FormatUint(uint64(val), 10))
	case uint64:
		b.WriteString("n:" + strconv.FormatUint(val, 10))
	case float32:
		writeFloat(b, float64(val))
	case float64:
		writeFloat(b, val)
	case json.Number:
		if i, err := val.Int64(); err == nil {
			b.WriteString("n:" + strconv.FormatInt(i, 10))
		} else if f, err := val.Float64(); err == nil {
			writeFloat(b, f)
		} else {
			b.WriteString("s:" + strconv.Quote(string(val)))
		}
	case []any:
		writeList(b, val)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			writeKey(b, val[k])
		}
		b.WriteByte('}')
	default:
		if list, err := ToList(v); err == nil {
			writeList(b, list)
			return
		}
		fmt.Fprintf(b, "%T:%#v", v, v)
	}
}

func writeList(b *strings.Builder, items []any) {
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKey(b, item)
	}
	b.WriteByte(']')
}

// writeFloat renders integral floats like integers so 3 and 3.0 share a key.
func writeFloat(b *strings.Builder, f float64) {
	if f == 0 {
		f = 0
	}
	b.WriteString("n:" + strconv.FormatFloat(f, 'f', -1, 64))
}

// ToList converts an iterable value into a list. Strings, numbers, booleans
// and objects are not iterable.
func ToList(v any) ([]any, error) {
	switch val := v.(type) {
	case []any:
		return val, nil
	case nil:
		return nil, fmt.Errorf("cannot convert null to a set: value is not iterable")
	case string, bool, map[string]any:
		return nil, fmt.Errorf("cannot convert %s to a set: value is not iterable", kindOf(v))
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot convert %s to a set: value is not iterable", kindOf(v))
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Set is an insertion-ordered collection of distinct values.
type Set struct {
	items []any
	index map[string]struct{}
}

// ToSet converts an iterable value into a Set, dropping duplicates.
func ToSet(v any) (*Set, error) {
	list, err := ToList(v)
	if err != nil {
		return nil, err
	}
	s := &Set{index: make(map[string]struct{}, len(list))}
	for _, item := range list {
		k := Key(item)
		if _, dup := s.index[k]; dup {
			continue
		}
		s.index[k] = struct{}{}
		s.items = append(s.items, item)
	}
	return s, nil
}

// Len returns the number of distinct items.
func (s *Set) Len() int { return len(s.items) }

// Items returns the distinct items in insertion order.
func (s *Set) Items() []any { return s.items }

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	_, ok := s.index[Key(v)]
	return ok
}

// IsSubsetOf reports whether every member of s is in other.
func (s *Set) IsSubsetOf(other *Set) bool {
	for k := range s.index {
		if _, ok := other.index[k]; !ok {
			return false
		}
	}
	return true
}

// IsDisjointFrom reports whether s and other share no members.
func (s *Set) IsDisjointFrom(other *Set) bool {
	for k := range s.index {
		if _, ok := other.index[k]; ok {
			return false
		}
	}
	return true
}

// Equals reports whether s and other have the same members.
func (s *Set) Equals(other *Set) bool {
	return s.Len() == other.Len() && s.IsSubsetOf(other)
}

// IsEmpty reports whether v is an empty string, list or object, or null.
func IsEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

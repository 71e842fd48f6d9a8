package parser

import (
	"fmt"
	"sort"
	"strconv"

	"mercator-hq/opgraph/pkg/opgraph/ast"
	"mercator-hq/opgraph/pkg/opgraph/diag"
)

// builder converts decoded documents into AST nodes, accumulating every
// problem it finds instead of stopping at the first.
type builder struct {
	diags    *diag.List
	maxDepth int
}

func newBuilder(maxDepth int) *builder {
	return &builder{diags: diag.NewList(), maxDepth: maxDepth}
}

// fields accepted by each node family, besides tag and datatype.
var knownFields = map[ast.Kind][]string{
	ast.KindConstant:   {"value"},
	ast.KindFromAPI:    {"method", "url", "options"},
	ast.KindFromLocal:  {"key", "optional"},
	ast.KindOperator:   {"operands"},
	ast.KindComparator: {"operand", "test"},
	ast.KindCheck:      {"operand"},
	ast.KindMatch:      {"operand", "pattern", "flags"},
	ast.KindPolicy:     {"role", "roles", "operand"},
	ast.KindLogical:    {"operands"},
}

func (b *builder) build(path string, raw any, depth int) ast.Node {
	if raw == nil {
		b.diags.Addf(diag.TypeStructural, path, "operation is missing")
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		b.diags.Addf(diag.TypeStructural, path, "operation must be an object, got %s", describe(raw))
		return nil
	}
	if b.maxDepth > 0 && depth > b.maxDepth {
		b.diags.Addf(diag.TypeStructural, path, "tree exceeds maximum depth of %d", b.maxDepth)
		return nil
	}

	tagValue, ok := m["tag"].(string)
	if !ok || tagValue == "" {
		b.diags.Addf(diag.TypeStructural, path, "operation has no tag")
		return nil
	}
	tag, err := ast.ParseTag(tagValue)
	if err != nil {
		b.diags.AddWithSuggestion(diag.TypeStructural, path+".tag", err.Error(), diag.Suggest(tagValue, ast.Tags()))
		return nil
	}

	dt := b.datatype(path, m)
	b.checkFields(path, tag.Kind(), m)

	switch tag.Kind() {
	case ast.KindConstant:
		return &ast.Constant{Type: dt, Value: m["value"]}

	case ast.KindFromAPI:
		node := &ast.FromAPI{
			Type:   dt,
			Method: b.optionalString(path, m, "method"),
			URL:    b.requiredString(path, m, "url"),
		}
		if node.Method == "" {
			node.Method = "GET"
		}
		node.Options = b.fetchOptions(path+".options", m["options"])
		return node

	case ast.KindFromLocal:
		return &ast.FromLocal{
			Type:     dt,
			Key:      b.requiredString(path, m, "key"),
			Optional: b.optionalBool(path, m, "optional"),
		}

	case ast.KindOperator:
		return &ast.Operator{Op: tag, Type: dt, Operands: b.list(path, m, depth)}

	case ast.KindComparator:
		return &ast.Comparator{
			Op:      tag,
			Type:    dt,
			Operand: b.child(path, m, "operand", depth),
			Test:    b.child(path, m, "test", depth),
		}

	case ast.KindCheck:
		return &ast.Check{Op: tag, Type: dt, Operand: b.child(path, m, "operand", depth)}

	case ast.KindMatch:
		return &ast.Match{
			Op:      tag,
			Type:    dt,
			Operand: b.child(path, m, "operand", depth),
			Pattern: b.requiredString(path, m, "pattern"),
			Flags:   b.optionalString(path, m, "flags"),
		}

	case ast.KindPolicy:
		node := &ast.Policy{
			Op:    tag,
			Type:  dt,
			Role:  b.optionalString(path, m, "role"),
			Roles: b.stringList(path, m, "roles"),
		}
		if _, ok := m["operand"]; ok {
			node.Operand = b.child(path, m, "operand", depth)
		}
		if tag == ast.TagHasRole && node.Role == "" {
			b.diags.Addf(diag.TypeStructural, path, "%s requires a role", tag)
		}
		if tag != ast.TagHasRole && len(node.Roles) == 0 {
			b.diags.Addf(diag.TypeStructural, path, "%s requires a non-empty roles list", tag)
		}
		return node

	case ast.KindLogical:
		return &ast.Logical{Op: tag, Operands: b.list(path, m, depth)}
	}

	// Unreachable while every tag has a kind.
	b.diags.Addf(diag.TypeStructural, path, "tag %q has no node kind", tag)
	return nil
}

func (b *builder) datatype(path string, m map[string]any) ast.Datatype {
	raw, ok := m["datatype"]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		b.diags.Addf(diag.TypeStructural, path+".datatype", "datatype must be a string, got %s", describe(raw))
		return ""
	}
	dt, err := ast.ParseDatatype(s)
	if err != nil {
		b.diags.AddWithSuggestion(diag.TypeStructural, path+".datatype", err.Error(), diag.Suggest(s, datatypeNames()))
		return ""
	}
	return dt
}

func (b *builder) checkFields(path string, kind ast.Kind, m map[string]any) {
	allowed := map[string]bool{"tag": true, "datatype": true}
	for _, f := range knownFields[kind] {
		allowed[f] = true
	}
	var unknown []string
	for k := range m {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		b.diags.Warnf(diag.TypeStructural, path+"."+k, "field %q is ignored for %s nodes", k, kind)
	}
}

func (b *builder) child(path string, m map[string]any, key string, depth int) ast.Node {
	raw, ok := m[key]
	if !ok {
		b.diags.Addf(diag.TypeStructural, path, "%s is required", key)
		return nil
	}
	return b.build(path+"."+key, raw, depth+1)
}

func (b *builder) list(path string, m map[string]any, depth int) []ast.Node {
	raw, ok := m["operands"]
	if !ok {
		b.diags.Addf(diag.TypeStructural, path, "operands is required")
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		b.diags.Addf(diag.TypeStructural, path+".operands", "operands must be a list, got %s", describe(raw))
		return nil
	}
	nodes := make([]ast.Node, len(items))
	for i, item := range items {
		nodes[i] = b.build(path+".operands["+strconv.Itoa(i)+"]", item, depth+1)
	}
	return nodes
}

func (b *builder) requiredString(path string, m map[string]any, key string) string {
	if _, ok := m[key]; !ok {
		b.diags.Addf(diag.TypeStructural, path, "%s is required", key)
		return ""
	}
	s := b.optionalString(path, m, key)
	if s == "" {
		b.diags.Addf(diag.TypeStructural, path+"."+key, "%s must not be empty", key)
	}
	return s
}

func (b *builder) optionalString(path string, m map[string]any, key string) string {
	raw, ok := m[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		b.diags.Addf(diag.TypeStructural, path+"."+key, "%s must be a string, got %s", key, describe(raw))
		return ""
	}
	return s
}

func (b *builder) optionalBool(path string, m map[string]any, key string) bool {
	raw, ok := m[key]
	if !ok || raw == nil {
		return false
	}
	v, ok := raw.(bool)
	if !ok {
		b.diags.Addf(diag.TypeStructural, path+"."+key, "%s must be a boolean, got %s", key, describe(raw))
	}
	return v
}

func (b *builder) stringList(path string, m map[string]any, key string) []string {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		b.diags.Addf(diag.TypeStructural, path+"."+key, "%s must be a list of strings, got %s", key, describe(raw))
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			b.diags.Addf(diag.TypeStructural, fmt.Sprintf("%s.%s[%d]", path, key, i), "expected a string, got %s", describe(item))
			continue
		}
		out = append(out, s)
	}
	return out
}

func (b *builder) fetchOptions(path string, raw any) ast.FetchOptions {
	var opts ast.FetchOptions
	if raw == nil {
		return opts
	}
	m, ok := raw.(map[string]any)
	if !ok {
		b.diags.Addf(diag.TypeStructural, path, "options must be an object, got %s", describe(raw))
		return opts
	}
	opts.Local = b.optionalString(path, m, "local")
	opts.Body = m["body"]
	if h, ok := m["headers"]; ok && h != nil {
		headers, ok := h.(map[string]any)
		if !ok {
			b.diags.Addf(diag.TypeStructural, path+".headers", "headers must be an object, got %s", describe(h))
			return opts
		}
		opts.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			s, ok := v.(string)
			if !ok {
				b.diags.Addf(diag.TypeStructural, path+".headers."+k, "header value must be a string, got %s", describe(v))
				continue
			}
			opts.Headers[k] = s
		}
	}
	return opts
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func datatypeNames() []string {
	return []string{
		string(ast.DatatypeBoolean), string(ast.DatatypeInteger), string(ast.DatatypeNumber),
		string(ast.DatatypeString), string(ast.DatatypeDate), string(ast.DatatypeDateTime),
		string(ast.DatatypeTime), string(ast.DatatypeDuration), string(ast.DatatypeYearWeek),
		string(ast.DatatypeYearMonth), string(ast.DatatypeEmail), string(ast.DatatypeURL),
		string(ast.DatatypeUUID), string(ast.DatatypeSet), string(ast.DatatypeList),
		string(ast.DatatypeObject), string(ast.DatatypeAny),
	}
}

package ast

// ToMap encodes a node tree into its JSON-compatible wire shape. The output
// decodes back into an equivalent tree with the parser package.
func ToMap(n Node) map[string]any {
	if IsNil(n) {
		return nil
	}
	m := Header(n)
	switch v := n.(type) {
	case *Operator:
		m["operands"] = encodeList(v.Operands)
	case *Comparator:
		putNode(m, "operand", v.Operand)
		putNode(m, "test", v.Test)
	case *Check:
		putNode(m, "operand", v.Operand)
	case *Match:
		putNode(m, "operand", v.Operand)
	case *Policy:
		putNode(m, "operand", v.Operand)
	case *Logical:
		m["operands"] = encodeList(v.Operands)
	}
	return m
}

// Header encodes the node's own fields without its operand subtrees. It is
// the basis of the operation snapshot attached to error records.
func Header(n Node) map[string]any {
	if IsNil(n) {
		return nil
	}
	m := map[string]any{"tag": string(n.Tag())}
	switch v := n.(type) {
	case *Constant:
		putType(m, v.Type)
		if v.Value != nil {
			m["value"] = v.Value
		}
	case *FromAPI:
		putType(m, v.Type)
		m["method"] = v.Method
		m["url"] = v.URL
		opts := map[string]any{}
		if v.Options.Local != "" {
			opts["local"] = v.Options.Local
		}
		if len(v.Options.Headers) > 0 {
			headers := make(map[string]any, len(v.Options.Headers))
			for k, h := range v.Options.Headers {
				headers[k] = h
			}
			opts["headers"] = headers
		}
		if v.Options.Body != nil {
			opts["body"] = v.Options.Body
		}
		if len(opts) > 0 {
			m["options"] = opts
		}
	case *FromLocal:
		putType(m, v.Type)
		m["key"] = v.Key
		if v.Optional {
			m["optional"] = true
		}
	case *Operator:
		putType(m, v.Type)
	case *Comparator:
		putType(m, v.Type)
	case *Check:
		putType(m, v.Type)
	case *Match:
		putType(m, v.Type)
		m["pattern"] = v.Pattern
		if v.Flags != "" {
			m["flags"] = v.Flags
		}
	case *Policy:
		putType(m, v.Type)
		if v.Role != "" {
			m["role"] = v.Role
		}
		if len(v.Roles) > 0 {
			roles := make([]any, len(v.Roles))
			for i, r := range v.Roles {
				roles[i] = r
			}
			m["roles"] = roles
		}
	}
	return m
}

func putType(m map[string]any, d Datatype) {
	if d != "" {
		m["datatype"] = string(d)
	}
}

func putNode(m map[string]any, key string, n Node) {
	if !IsNil(n) {
		m[key] = ToMap(n)
	}
}

func encodeList(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		if enc := ToMap(n); enc != nil {
			out[i] = enc
		}
	}
	return out
}

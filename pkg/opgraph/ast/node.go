package ast

// Node is one unit of an operation tree. The set of implementations is
// closed: every node is one of *Constant, *FromAPI, *FromLocal, *Operator,
// *Comparator, *Check, *Match, *Policy or *Logical.
//
// Nodes are immutable once built and carry no state between evaluations.
type Node interface {
	// Tag returns the node kind discriminator.
	Tag() Tag
	// Datatype returns the declared datatype, falling back to the tag's
	// natural datatype when none was declared.
	Datatype() Datatype

	node()
}

// Constant injects a literal value. A nil Value means the value is missing.
type Constant struct {
	Type  Datatype
	Value any
}

// FromAPI injects a value fetched from a remote JSON endpoint.
type FromAPI struct {
	Type    Datatype
	Method  string
	URL     string
	Options FetchOptions
}

// FetchOptions configures a remote fetch.
type FetchOptions struct {
	// Local is a dotted selector into the response body. When the local
	// values of an evaluation contain this key, its value is returned
	// instead of fetching.
	Local string

	// Headers are added to the outgoing request.
	Headers map[string]string

	// Body is JSON-encoded as the request body when non-nil.
	Body any
}

// FromLocal injects a caller-supplied local value.
type FromLocal struct {
	Type     Datatype
	Key      string
	Optional bool
}

// Operator folds a list of operands into one value (Max, Min, Mode, ...).
type Operator struct {
	Op       Tag
	Type     Datatype
	Operands []Node
}

// Comparator applies a binary predicate to Operand and Test. On success the
// operand's value passes through unchanged.
type Comparator struct {
	Op      Tag
	Type    Datatype
	Operand Node
	Test    Node
}

// Check applies a unary shape predicate to Operand.
type Check struct {
	Op      Tag
	Type    Datatype
	Operand Node
}

// Match tests Operand against a regular expression.
type Match struct {
	Op      Tag
	Type    Datatype
	Operand Node
	Pattern string
	Flags   string
}

// Policy tests the roles of the current principal. Role is used by HasRole,
// Roles by HasAnyRole and HasAllRoles. Operand is optional and passed
// through on success.
type Policy struct {
	Op      Tag
	Type    Datatype
	Role    string
	Roles   []string
	Operand Node
}

// Logical combines the outcomes of its operands (And, Or, Not).
type Logical struct {
	Op       Tag
	Operands []Node
}

func (*Constant) Tag() Tag     { return TagConstant }
func (*FromAPI) Tag() Tag      { return TagFromAPI }
func (*FromLocal) Tag() Tag    { return TagFromLocal }
func (n *Operator) Tag() Tag   { return n.Op }
func (n *Comparator) Tag() Tag { return n.Op }
func (n *Check) Tag() Tag      { return n.Op }
func (n *Match) Tag() Tag      { return n.Op }
func (n *Policy) Tag() Tag     { return n.Op }
func (n *Logical) Tag() Tag    { return n.Op }

func (n *Constant) Datatype() Datatype   { return orDefault(n.Type, DatatypeAny) }
func (n *FromAPI) Datatype() Datatype    { return orDefault(n.Type, DatatypeAny) }
func (n *FromLocal) Datatype() Datatype  { return orDefault(n.Type, DatatypeAny) }
func (n *Operator) Datatype() Datatype   { return orDefault(n.Type, n.Op.DefaultDatatype()) }
func (n *Comparator) Datatype() Datatype { return orDefault(n.Type, n.Op.DefaultDatatype()) }
func (n *Check) Datatype() Datatype      { return orDefault(n.Type, n.Op.DefaultDatatype()) }
func (n *Match) Datatype() Datatype      { return orDefault(n.Type, n.Op.DefaultDatatype()) }
func (n *Policy) Datatype() Datatype     { return orDefault(n.Type, n.Op.DefaultDatatype()) }
func (n *Logical) Datatype() Datatype    { return DatatypeBoolean }

func (*Constant) node()   {}
func (*FromAPI) node()    {}
func (*FromLocal) node()  {}
func (*Operator) node()   {}
func (*Comparator) node() {}
func (*Check) node()      {}
func (*Match) node()      {}
func (*Policy) node()     {}
func (*Logical) node()    {}

func orDefault(d, fallback Datatype) Datatype {
	if d == "" {
		if fallback == "" {
			return DatatypeAny
		}
		return fallback
	}
	return d
}

// KindOf returns the family implemented by the concrete type of n, or "" for
// nil. A well-formed node satisfies KindOf(n) == n.Tag().Kind().
func KindOf(n Node) Kind {
	switch n.(type) {
	case *Constant:
		return KindConstant
	case *FromAPI:
		return KindFromAPI
	case *FromLocal:
		return KindFromLocal
	case *Operator:
		return KindOperator
	case *Comparator:
		return KindComparator
	case *Check:
		return KindCheck
	case *Match:
		return KindMatch
	case *Policy:
		return KindPolicy
	case *Logical:
		return KindLogical
	}
	return ""
}

// IsNil reports whether n is nil or a typed nil pointer.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *Constant:
		return v == nil
	case *FromAPI:
		return v == nil
	case *FromLocal:
		return v == nil
	case *Operator:
		return v == nil
	case *Comparator:
		return v == nil
	case *Check:
		return v == nil
	case *Match:
		return v == nil
	case *Policy:
		return v == nil
	case *Logical:
		return v == nil
	}
	return false
}

// Children returns the direct operand nodes of n in positional order.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Operator:
		return v.Operands
	case *Comparator:
		return []Node{v.Operand, v.Test}
	case *Check:
		return []Node{v.Operand}
	case *Match:
		return []Node{v.Operand}
	case *Policy:
		if v.Operand != nil {
			return []Node{v.Operand}
		}
	case *Logical:
		return v.Operands
	}
	return nil
}

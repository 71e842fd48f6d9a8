package ast

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTag is returned when a tag names no known node kind.
	ErrUnknownTag = errors.New("unknown operation tag")

	// ErrWrongKind is returned when a tag is used with a constructor of
	// another node family.
	ErrWrongKind = errors.New("tag does not belong to this node kind")

	// ErrUnknownDatatype is returned for datatypes outside the closed set.
	ErrUnknownDatatype = errors.New("unknown datatype")
)

// NewConstant creates a Constant injector. A nil value is allowed and
// evaluates to a "value is missing" error.
func NewConstant(dt Datatype, value any) (*Constant, error) {
	if err := checkDatatype(dt); err != nil {
		return nil, err
	}
	return &Constant{Type: dt, Value: value}, nil
}

// NewFromLocal creates a local-value injector.
func NewFromLocal(dt Datatype, key string, optional bool) (*FromLocal, error) {
	if err := checkDatatype(dt); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errors.New("FromLocal requires a key")
	}
	return &FromLocal{Type: dt, Key: key, Optional: optional}, nil
}

// NewFromAPI creates a remote-fetch injector. Method defaults to GET.
func NewFromAPI(dt Datatype, method, url string, opts FetchOptions) (*FromAPI, error) {
	if err := checkDatatype(dt); err != nil {
		return nil, err
	}
	if method == "" {
		method = "GET"
	}
	return &FromAPI{Type: dt, Method: method, URL: url, Options: opts}, nil
}

// NewOperator creates an aggregation node.
func NewOperator(tag Tag, dt Datatype, operands ...Node) (*Operator, error) {
	if err := checkTag(tag, KindOperator); err != nil {
		return nil, err
	}
	if err := checkDatatype(dt); err != nil {
		return nil, err
	}
	return &Operator{Op: tag, Type: dt, Operands: operands}, nil
}

// NewComparator creates a binary comparator.
func NewComparator(tag Tag, dt Datatype, operand, test Node) (*Comparator, error) {
	if err := checkTag(tag, KindComparator); err != nil {
		return nil, err
	}
	if err := checkDatatype(dt); err != nil {
		return nil, err
	}
	return &Comparator{Op: tag, Type: dt, Operand: operand, Test: test}, nil
}

// NewCheck creates a unary check.
func NewCheck(tag Tag, dt Datatype, operand Node) (*Check, error) {
	if err := checkTag(tag, KindCheck); err != nil {
		return nil, err
	}
	if err := checkDatatype(dt); err != nil {
		return nil, err
	}
	return &Check{Op: tag, Type: dt, Operand: operand}, nil
}

// NewMatch creates a pattern comparator. The pattern is compiled at
// evaluation time so an invalid pattern surfaces as an evaluation error.
func NewMatch(tag Tag, operand Node, pattern, flags string) (*Match, error) {
	if err := checkTag(tag, KindMatch); err != nil {
		return nil, err
	}
	return &Match{Op: tag, Operand: operand, Pattern: pattern, Flags: flags}, nil
}

// NewPolicy creates a role check.
func NewPolicy(tag Tag, role string, roles []string, operand Node) (*Policy, error) {
	if err := checkTag(tag, KindPolicy); err != nil {
		return nil, err
	}
	return &Policy{Op: tag, Role: role, Roles: roles, Operand: operand}, nil
}

// NewLogical creates an And, Or or Not combinator.
func NewLogical(tag Tag, operands ...Node) (*Logical, error) {
	if err := checkTag(tag, KindLogical); err != nil {
		return nil, err
	}
	return &Logical{Op: tag, Operands: operands}, nil
}

func checkTag(tag Tag, kind Kind) error {
	if !tag.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	if tag.Kind() != kind {
		return fmt.Errorf("%w: %q is a %s, not a %s", ErrWrongKind, tag, tag.Kind(), kind)
	}
	return nil
}

func checkDatatype(dt Datatype) error {
	if dt == "" || dt.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownDatatype, dt)
}

package ast

import "strconv"

// Visitor is called for every node reached by Walk. The path is a JSONPath
// style location ("$", "$.operand", "$.operands[2]"). Returning a non-nil
// error stops the walk.
type Visitor interface {
	Visit(path string, n Node) error
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(path string, n Node) error

// Visit calls f(path, n).
func (f VisitorFunc) Visit(path string, n Node) error {
	return f(path, n)
}

// Walk traverses the tree depth-first in positional order, calling the
// visitor for each non-nil node. It returns the first error encountered.
func Walk(root Node, visitor Visitor) error {
	return walk("$", root, visitor)
}

func walk(path string, n Node, visitor Visitor) error {
	if IsNil(n) {
		return nil
	}
	if err := visitor.Visit(path, n); err != nil {
		return err
	}

	switch v := n.(type) {
	case *Operator:
		return walkList(path, v.Operands, visitor)
	case *Logical:
		return walkList(path, v.Operands, visitor)
	case *Comparator:
		if err := walk(path+".operand", v.Operand, visitor); err != nil {
			return err
		}
		return walk(path+".test", v.Test, visitor)
	case *Check:
		return walk(path+".operand", v.Operand, visitor)
	case *Match:
		return walk(path+".operand", v.Operand, visitor)
	case *Policy:
		return walk(path+".operand", v.Operand, visitor)
	}
	return nil
}

func walkList(path string, nodes []Node, visitor Visitor) error {
	for i, child := range nodes {
		if err := walk(path+".operands["+strconv.Itoa(i)+"]", child, visitor); err != nil {
			return err
		}
	}
	return nil
}

// Depth returns the height of the tree rooted at n. A single leaf has depth 1.
func Depth(n Node) int {
	if IsNil(n) {
		return 0
	}
	deepest := 0
	for _, child := range Children(n) {
		if d := Depth(child); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n Node) int {
	count := 0
	_ = Walk(n, VisitorFunc(func(string, Node) error {
		count++
		return nil
	}))
	return count
}

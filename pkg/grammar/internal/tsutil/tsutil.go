// Package tsutil holds tree-sitter traversal helpers shared by the
// per-language grammar implementations, adapted from the analyzer
// package's node-walking conventions.
package tsutil

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Text extracts the text content of a node given the full source buffer.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(source)) || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// FindNodesOfType returns every descendant of root (root included) whose
// type is one of the given types, in pre-order.
func FindNodesOfType(root *sitter.Node, types ...string) []*sitter.Node {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	var out []*sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		if set[n.Type()] {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Walk traverses the tree in pre-order, calling visit for each node.
// visit returns false to skip descending into that node's children.
func Walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		Walk(node.Child(i), visit)
	}
}

// NodeWithinByte reports whether node's byte range falls within [start,end).
func NodeWithinByte(node *sitter.Node, start, end uint32) bool {
	return node.StartByte() >= start && node.EndByte() <= end
}

// NodesInByteRange returns every node under root of one of the given
// types whose byte range lies entirely within [start,end), in the order
// FindNodesOfType yields them. It scopes a query to an arbitrary byte
// window rather than a node's natural boundary.
func NodesInByteRange(root *sitter.Node, start, end uint32, types ...string) []*sitter.Node {
	candidates := FindNodesOfType(root, types...)
	var out []*sitter.Node
	for _, n := range candidates {
		if n.StartByte() >= start && n.EndByte() <= end {
			out = append(out, n)
		}
	}
	return out
}

// SplitChain splits a receiver-access chain's raw text into object-name
// components and a final identifier, using sep as the attribute
// separator(s) (e.g. ".", "->", "::").
func SplitChain(raw string, seps ...string) (object []string, ident string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ""
	}
	working := raw
	for _, sep := range seps {
		if sep == "" {
			continue
		}
		working = strings.ReplaceAll(working, sep, "\x00")
	}
	parts := strings.Split(working, "\x00")
	if len(parts) == 1 {
		return nil, parts[0]
	}
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// FirstChildOfType returns the first direct child matching typ, or nil.
func FirstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if c := node.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}

// EnclosingOfType walks up from node's parent looking for the nearest
// ancestor whose type is in types.
func EnclosingOfType(node *sitter.Node, types ...string) *sitter.Node {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	p := node.Parent()
	for p != nil {
		if set[p.Type()] {
			return p
		}
		p = p.Parent()
	}
	return nil
}

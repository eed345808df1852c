// Package python implements the Grammar interface (pkg/grammar) for
// Python source, backed by tree-sitter-python.
package python

import (
	"context"
	"fmt"

	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/grammar/internal/tsutil"
	sitter "github.com/smacker/go-tree-sitter"
	tspython "github.com/smacker/go-tree-sitter/python"
)

// Grammar is the tree-sitter-backed Python grammar.
type Grammar struct {
	source []byte
	tree   *sitter.Tree
	root   *sitter.Node
}

// New parses source once and returns a ready Grammar.
func New(source []byte) (*Grammar, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tspython.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("grammar/python: parse: %w", err)
	}
	return &Grammar{source: source, tree: tree, root: tree.RootNode()}, nil
}

// Close releases the underlying tree-sitter tree.
func (g *Grammar) Close() {
	if g.tree != nil {
		g.tree.Close()
	}
}

func (g *Grammar) Language() string { return "python" }

func (g *Grammar) SelfIdentifier() string { return "self" }

func (g *Grammar) ClassDefinitions() map[string]int {
	out := map[string]int{}
	for _, node := range tsutil.FindNodesOfType(g.root, "class_definition") {
		name := node.ChildByFieldName("name")
		if name == nil {
			continue
		}
		out[tsutil.Text(name, g.source)] = int(node.StartByte())
	}
	return out
}

// statementTypes covers only the plain-statement category (spec §4.1):
// loop and branch constructs are counted separately by ControlStructures
// and MutuallyExclusivePositions, so they are deliberately excluded here
// to keep the three categories disjoint.
var statementTypes = []string{
	"expression_statement",
	"return_statement", "with_statement", "try_statement", "raise_statement",
	"assert_statement", "global_statement", "break_statement", "continue_statement",
}

func (g *Grammar) plainStatementCount(start, end int) int {
	return len(tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), statementTypes...))
}

func (g *Grammar) StatementCount(start, end int) int {
	controls := len(g.ControlStructures(start, end))
	mutex := len(g.MutuallyExclusivePositions(start, end))
	return controls + mutex + g.plainStatementCount(start, end)
}

func (g *Grammar) EdgeCount(start, end int) int {
	controls := len(g.ControlStructures(start, end))
	mutex := len(g.MutuallyExclusivePositions(start, end))
	statements := g.plainStatementCount(start, end)
	return 3*controls + 2*mutex + statements
}

func (g *Grammar) MutuallyExclusivePositions(start, end int) []grammar.BranchMatch {
	var out []grammar.BranchMatch
	ifs := tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "if_statement")
	for _, ifNode := range ifs {
		out = append(out, grammar.BranchMatch{Kind: grammar.KindIf, Position: relPos(ifNode, start)})
		for i := 0; i < int(ifNode.ChildCount()); i++ {
			child := ifNode.Child(i)
			switch child.Type() {
			case "elif_clause":
				out = append(out, grammar.BranchMatch{Kind: grammar.KindAlternative, Position: relPos(child, start)})
			case "else_clause":
				out = append(out, grammar.BranchMatch{Kind: grammar.KindAlternativeEnd, Position: relPos(child, start)})
			}
		}
	}
	return out
}

func (g *Grammar) MethodDefinitions() []grammar.MethodMatch {
	var out []grammar.MethodMatch
	for _, node := range tsutil.FindNodesOfType(g.root, "function_definition") {
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		params := node.ChildByFieldName("parameters")
		body := node.ChildByFieldName("body")
		out = append(out, grammar.MethodMatch{
			Name:     tsutil.Text(nameNode, g.source),
			Args:     nodePosAbs(params),
			Body:     nodePosAbs(body),
			Position: nodePosAbs(node),
		})
	}
	return out
}

func (g *Grammar) MethodCalls(start, end int) []grammar.CallMatch {
	var out []grammar.CallMatch
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "call") {
		out = append(out, g.callMatch(node, start))
	}
	return out
}

func (g *Grammar) callMatch(node *sitter.Node, base int) grammar.CallMatch {
	fn := node.ChildByFieldName("function")
	var object []string
	var ident string
	if fn != nil && fn.Type() == "attribute" {
		objNode := fn.ChildByFieldName("object")
		attrNode := fn.ChildByFieldName("attribute")
		object, _ = tsutil.SplitChain(tsutil.Text(objNode, g.source), ".")
		object = append(object, tsutil.Text(objNode, g.source))
		ident = tsutil.Text(attrNode, g.source)
	} else {
		object, ident = tsutil.SplitChain(tsutil.Text(fn, g.source), ".")
	}

	var args []grammar.ArgMatch
	if argsNode := node.ChildByFieldName("arguments"); argsNode != nil {
		for i := 0; i < int(argsNode.ChildCount()); i++ {
			child := argsNode.Child(i)
			t := child.Type()
			if t == "(" || t == ")" || t == "," {
				continue
			}
			arg := grammar.ArgMatch{Text: tsutil.Text(child, g.source), Position: relPos(child, base)}
			if child.Type() == "call" {
				nested := g.callMatch(child, base)
				arg.Nested = &nested
			}
			args = append(args, arg)
		}
	}
	return grammar.CallMatch{Object: object, Ident: ident, Args: args, Position: relPos(node, base)}
}

func (g *Grammar) Assignments(start, end int) []grammar.AssignmentMatch {
	var out []grammar.AssignmentMatch
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "assignment") {
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil {
			continue
		}
		var object []string
		var ident string
		if left.Type() == "attribute" {
			objNode := left.ChildByFieldName("object")
			attrNode := left.ChildByFieldName("attribute")
			object = append(object, tsutil.Text(objNode, g.source))
			ident = tsutil.Text(attrNode, g.source)
		} else {
			object, ident = tsutil.SplitChain(tsutil.Text(left, g.source), ".")
		}
		am := grammar.AssignmentMatch{
			Object:   object,
			Ident:    ident,
			RHSText:  tsutil.Text(right, g.source),
			Position: relPos(node, start),
		}
		if right.Type() == "call" {
			nested := g.callMatch(right, start)
			am.RHS = &nested
		}
		out = append(out, am)
	}
	return out
}

var controlKeywords = []string{"for_statement", "while_statement"}

func (g *Grammar) ControlStructures(start, end int) []grammar.ControlMatch {
	var out []grammar.ControlMatch
	for _, typ := range controlKeywords {
		for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), typ) {
			kw := "for"
			if typ == "while_statement" {
				kw = "while"
			}
			out = append(out, grammar.ControlMatch{Keyword: kw, Position: relPos(node, start)})
		}
	}
	return out
}

func (g *Grammar) Returns(start, end int) []grammar.ReturnMatch {
	var out []grammar.ReturnMatch
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "return_statement") {
		var expr *grammar.CallMatch
		var text string
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() == "return" {
				continue
			}
			text = tsutil.Text(child, g.source)
			if child.Type() == "call" {
				m := g.callMatch(child, start)
				expr = &m
			}
		}
		out = append(out, grammar.ReturnMatch{ExprText: text, Expr: expr, Position: relPos(node, start)})
	}
	return out
}

// Declarations is empty for Python: the language has no bare
// declaration-without-initializer form the engine needs to track.
func (g *Grammar) Declarations(start, end int) []grammar.DeclarationMatch {
	return nil
}

func (g *Grammar) Parameters(start, end int) map[string]*string {
	out := map[string]*string{}
	paramsNode := findParameterListInRange(g.root, uint32(start), uint32(end))
	if paramsNode == nil {
		return out
	}
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		switch child.Type() {
		case "identifier":
			name := tsutil.Text(child, g.source)
			if name == "" || name == g.SelfIdentifier() {
				continue
			}
			out[name] = nil
		case "default_parameter", "typed_default_parameter":
			nameNode := child.ChildByFieldName("name")
			valNode := child.ChildByFieldName("value")
			name := tsutil.Text(nameNode, g.source)
			if name == "" || name == g.SelfIdentifier() {
				continue
			}
			text := tsutil.Text(valNode, g.source)
			out[name] = &text
		case "typed_parameter":
			name := tsutil.Text(child.Child(0), g.source)
			if name == "" || name == g.SelfIdentifier() {
				continue
			}
			out[name] = nil
		}
	}
	return out
}

func findParameterListInRange(root *sitter.Node, start, end uint32) *sitter.Node {
	for _, n := range tsutil.NodesInByteRange(root, start, end, "parameters") {
		return n
	}
	return nil
}

func (g *Grammar) GlobalVariables() []grammar.AssignmentMatch {
	firstMethodStart := uint32(1 << 30)
	for _, m := range g.MethodDefinitions() {
		if uint32(m.Position.Start) < firstMethodStart {
			firstMethodStart = uint32(m.Position.Start)
		}
	}
	return g.Assignments(0, int(firstMethodStart))
}

func relPos(node *sitter.Node, base int) grammar.Position {
	if node == nil {
		return grammar.Position{}
	}
	return grammar.Position{Start: int(node.StartByte()) - base, End: int(node.EndByte()) - base}
}

func nodePosAbs(node *sitter.Node) grammar.Position {
	if node == nil {
		return grammar.Position{}
	}
	return grammar.Position{Start: int(node.StartByte()), End: int(node.EndByte())}
}

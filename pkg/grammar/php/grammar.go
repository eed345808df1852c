// Package php implements the Grammar interface (pkg/grammar) for PHP
// source, backed by tree-sitter-php.
package php

import (
	"context"
	"fmt"
	"strings"

	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/grammar/internal/tsutil"
	sitter "github.com/smacker/go-tree-sitter"
	tsphp "github.com/smacker/go-tree-sitter/php"
)

// Grammar is the tree-sitter-backed PHP grammar.
type Grammar struct {
	source []byte
	tree   *sitter.Tree
	root   *sitter.Node
}

// New parses source once and returns a ready Grammar.
func New(source []byte) (*Grammar, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsphp.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("grammar/php: parse: %w", err)
	}
	return &Grammar{source: source, tree: tree, root: tree.RootNode()}, nil
}

// Close releases the underlying tree-sitter tree.
func (g *Grammar) Close() {
	if g.tree != nil {
		g.tree.Close()
	}
}

func (g *Grammar) Language() string { return "php" }

func (g *Grammar) SelfIdentifier() string { return "$this" }

func (g *Grammar) ClassDefinitions() map[string]int {
	out := map[string]int{}
	for _, node := range tsutil.FindNodesOfType(g.root, "class_declaration") {
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
	"expression_statement", "return_statement",
	"property_declaration", "break_statement", "continue_statement", "echo_statement",
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
			case "else_if_clause":
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
	for _, node := range tsutil.FindNodesOfType(g.root, "function_definition", "method_declaration") {
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

var callTypes = []string{"function_call_expression", "member_call_expression", "scoped_call_expression", "nullsafe_member_call_expression"}

func (g *Grammar) MethodCalls(start, end int) []grammar.CallMatch {
	var out []grammar.CallMatch
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), callTypes...) {
		out = append(out, g.callMatch(node, start))
	}
	return out
}

func (g *Grammar) callMatch(node *sitter.Node, base int) grammar.CallMatch {
	var object []string
	var ident string

	switch node.Type() {
	case "function_call_expression":
		fn := node.ChildByFieldName("function")
		object, ident = tsutil.SplitChain(tsutil.Text(fn, g.source), "\\")
	case "member_call_expression", "nullsafe_member_call_expression":
		objNode := node.ChildByFieldName("object")
		nameNode := node.ChildByFieldName("name")
		object, _ = tsutil.SplitChain(tsutil.Text(objNode, g.source), "->")
		object = append(object, tsutil.Text(objNode, g.source))
		ident = tsutil.Text(nameNode, g.source)
	case "scoped_call_expression":
		objNode := node.ChildByFieldName("scope")
		nameNode := node.ChildByFieldName("name")
		object = append(object, tsutil.Text(objNode, g.source))
		ident = tsutil.Text(nameNode, g.source)
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
			if isCallType(child.Type()) {
				nested := g.callMatch(child, base)
				arg.Nested = &nested
			}
			args = append(args, arg)
		}
	}
	return grammar.CallMatch{Object: object, Ident: ident, Args: args, Position: relPos(node, base)}
}

func isCallType(t string) bool {
	for _, c := range callTypes {
		if c == t {
			return true
		}
	}
	return false
}

func (g *Grammar) Assignments(start, end int) []grammar.AssignmentMatch {
	var out []grammar.AssignmentMatch
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "assignment_expression") {
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil {
			continue
		}
		var object []string
		var ident string
		if left.Type() == "member_access_expression" {
			objNode := left.ChildByFieldName("object")
			nameNode := left.ChildByFieldName("name")
			object = append(object, tsutil.Text(objNode, g.source))
			ident = tsutil.Text(nameNode, g.source)
		} else {
			object, ident = tsutil.SplitChain(tsutil.Text(left, g.source), "->")
		}
		am := grammar.AssignmentMatch{
			Object:   object,
			Ident:    ident,
			RHSText:  tsutil.Text(right, g.source),
			Position: relPos(node, start),
		}
		if isCallType(right.Type()) {
			nested := g.callMatch(right, start)
			am.RHS = &nested
		}
		out = append(out, am)
	}
	return out
}

var controlKeywords = []string{"for_statement", "foreach_statement", "while_statement", "do_statement"}

func (g *Grammar) ControlStructures(start, end int) []grammar.ControlMatch {
	var out []grammar.ControlMatch
	for _, typ := range controlKeywords {
		for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), typ) {
			out = append(out, grammar.ControlMatch{Keyword: strings.TrimSuffix(typ, "_statement"), Position: relPos(node, start)})
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
			if child.Type() == "return" || child.Type() == ";" {
				continue
			}
			text = tsutil.Text(child, g.source)
			if isCallType(child.Type()) {
				m := g.callMatch(child, start)
				expr = &m
			}
		}
		out = append(out, grammar.ReturnMatch{ExprText: text, Expr: expr, Position: relPos(node, start)})
	}
	return out
}

func (g *Grammar) Declarations(start, end int) []grammar.DeclarationMatch {
	var out []grammar.DeclarationMatch
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "property_declaration") {
		for _, elem := range tsutil.FindNodesOfType(node, "property_element") {
			nameNode := elem.Child(0)
			if nameNode == nil {
				continue
			}
			out = append(out, grammar.DeclarationMatch{Ident: tsutil.Text(nameNode, g.source), Position: relPos(node, start)})
		}
	}
	return out
}

func (g *Grammar) Parameters(start, end int) map[string]*string {
	out := map[string]*string{}
	paramsNode := findParameterListInRange(g.root, uint32(start), uint32(end))
	if paramsNode == nil {
		return out
	}
	for _, p := range tsutil.FindNodesOfType(paramsNode, "simple_parameter") {
		nameNode := p.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := tsutil.Text(nameNode, g.source)
		if name == "" || name == g.SelfIdentifier() {
			continue
		}
		var def *string
		if defNode := p.ChildByFieldName("default_value"); defNode != nil {
			text := tsutil.Text(defNode, g.source)
			def = &text
		}
		out[name] = def
	}
	return out
}

func findParameterListInRange(root *sitter.Node, start, end uint32) *sitter.Node {
	for _, n := range tsutil.NodesInByteRange(root, start, end, "formal_parameters") {
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

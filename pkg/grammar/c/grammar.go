// Package c implements the Grammar interface (pkg/grammar) for C source,
// backed by tree-sitter-c. Adapted from the C language analyzer's node
// walking conventions, narrowed to the capability set the taint engine
// actually consumes.
package c

import (
	"context"
	"fmt"
	"strings"

	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/grammar/internal/tsutil"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// Grammar is the tree-sitter-backed C grammar.
type Grammar struct {
	source []byte
	tree   *sitter.Tree
	root   *sitter.Node
}

// New parses source once and returns a ready Grammar. The tree is kept
// for the Grammar's lifetime; callers should Close it when the owning
// InputFile is dropped.
func New(source []byte) (*Grammar, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("grammar/c: parse: %w", err)
	}
	return &Grammar{source: source, tree: tree, root: tree.RootNode()}, nil
}

// Close releases the underlying tree-sitter tree.
func (g *Grammar) Close() {
	if g.tree != nil {
		g.tree.Close()
	}
}

func (g *Grammar) Language() string { return "c" }

func (g *Grammar) SelfIdentifier() string { return "" }

func (g *Grammar) ClassDefinitions() map[string]int {
	out := map[string]int{}
	for _, node := range tsutil.FindNodesOfType(g.root, "struct_specifier") {
		name := tsutil.FirstChildOfType(node, "type_identifier")
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
	"expression_statement", "return_statement", "declaration",
	"break_statement", "continue_statement", "compound_statement",
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
		// Only chain-heads: an if_statement whose parent is not itself an
		// else_clause (those are walked as part of their chain's head).
		if parent := ifNode.Parent(); parent != nil && parent.Type() == "else_clause" {
			continue
		}
		out = append(out, grammar.BranchMatch{
			Kind:     grammar.KindIf,
			Position: relPos(ifNode, start),
		})
		g.walkElseChain(ifNode, start, &out)
	}
	return out
}

func (g *Grammar) walkElseChain(ifNode *sitter.Node, base int, out *[]grammar.BranchMatch) {
	alt := ifNode.ChildByFieldName("alternative")
	if alt == nil {
		return
	}
	// alt is an else_clause wrapping either another if_statement (else if)
	// or a compound_statement (final else).
	inner := alt.Child(int(alt.ChildCount()) - 1)
	if inner != nil && inner.Type() == "if_statement" {
		*out = append(*out, grammar.BranchMatch{Kind: grammar.KindAlternative, Position: relPos(inner, base)})
		g.walkElseChain(inner, base, out)
		return
	}
	*out = append(*out, grammar.BranchMatch{Kind: grammar.KindAlternativeEnd, Position: relPos(alt, base)})
}

func (g *Grammar) MethodDefinitions() []grammar.MethodMatch {
	var out []grammar.MethodMatch
	for _, node := range tsutil.FindNodesOfType(g.root, "function_definition") {
		declarator := node.ChildByFieldName("declarator")
		if declarator == nil {
			continue
		}
		name := findFunctionName(declarator, g.source)
		if name == "" {
			continue
		}
		body := node.ChildByFieldName("body")
		paramsNode := findParameterList(declarator)
		out = append(out, grammar.MethodMatch{
			Name:     name,
			Args:     nodePosAbs(paramsNode),
			Body:     nodePosAbs(body),
			Position: nodePosAbs(node),
		})
	}
	return out
}

func findFunctionName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier":
		return tsutil.Text(node, source)
	case "function_declarator", "pointer_declarator", "parenthesized_declarator":
		if d := node.ChildByFieldName("declarator"); d != nil {
			return findFunctionName(d, source)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if name := findFunctionName(node.Child(i), source); name != "" {
			return name
		}
	}
	return ""
}

func findParameterList(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.Type() == "function_declarator" {
		return node.ChildByFieldName("parameters")
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if p := findParameterList(node.Child(i)); p != nil {
			return p
		}
	}
	return nil
}

func (g *Grammar) MethodCalls(start, end int) []grammar.CallMatch {
	var out []grammar.CallMatch
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "call_expression") {
		out = append(out, g.callMatch(node, start))
	}
	return out
}

func (g *Grammar) callMatch(node *sitter.Node, base int) grammar.CallMatch {
	funcNode := node.ChildByFieldName("function")
	object, ident := tsutil.SplitChain(tsutil.Text(funcNode, g.source), "->", ".")
	var args []grammar.ArgMatch
	if argsNode := node.ChildByFieldName("arguments"); argsNode != nil {
		for i := 0; i < int(argsNode.ChildCount()); i++ {
			child := argsNode.Child(i)
			t := child.Type()
			if t == "(" || t == ")" || t == "," {
				continue
			}
			arg := grammar.ArgMatch{Text: tsutil.Text(child, g.source), Position: relPos(child, base)}
			if child.Type() == "call_expression" {
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
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "assignment_expression") {
		left := node.ChildByFieldName("left")
		right := node.ChildByFieldName("right")
		if left == nil || right == nil {
			continue
		}
		object, ident := tsutil.SplitChain(tsutil.Text(left, g.source), "->", ".")
		am := grammar.AssignmentMatch{
			Object:   object,
			Ident:    ident,
			RHSText:  tsutil.Text(right, g.source),
			Position: relPos(node, start),
		}
		if right.Type() == "call_expression" {
			nested := g.callMatch(right, start)
			am.RHS = &nested
		}
		out = append(out, am)
	}
	// init_declarator covers `int x = foo();`
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "init_declarator") {
		declNode := node.ChildByFieldName("declarator")
		valNode := node.ChildByFieldName("value")
		if declNode == nil || valNode == nil {
			continue
		}
		ident := findFunctionName(declNode, g.source)
		am := grammar.AssignmentMatch{
			Ident:    ident,
			RHSText:  tsutil.Text(valNode, g.source),
			Position: relPos(node, start),
		}
		if valNode.Type() == "call_expression" {
			nested := g.callMatch(valNode, start)
			am.RHS = &nested
		}
		out = append(out, am)
	}
	return out
}

var controlKeywords = []string{"for_statement", "while_statement", "do_statement"}

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
			if child.Type() == "call_expression" {
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
	for _, node := range tsutil.NodesInByteRange(g.root, uint32(start), uint32(end), "declaration") {
		// Skip declarations that are actually init_declarators (handled by
		// Assignments); a bare declaration has a direct identifier/array
		// declarator child, no init_declarator wrapper.
		if tsutil.FirstChildOfType(node, "init_declarator") != nil {
			continue
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.Type() != "identifier" && child.Type() != "array_declarator" && child.Type() != "pointer_declarator" {
				continue
			}
			ident := findFunctionName(child, g.source)
			if ident == "" {
				continue
			}
			out = append(out, grammar.DeclarationMatch{Ident: ident, Position: relPos(node, start)})
		}
	}
	return out
}

func (g *Grammar) Parameters(start, end int) map[string]*string {
	out := map[string]*string{}
	node := findNodeExactly(g.root, uint32(start), uint32(end))
	if node == nil {
		return out
	}
	paramsNode := node
	if node.Type() != "parameter_list" {
		paramsNode = findParameterListInRange(g.root, uint32(start), uint32(end))
	}
	if paramsNode == nil {
		return out
	}
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		child := paramsNode.Child(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		declarator := child.ChildByFieldName("declarator")
		name := findFunctionName(declarator, g.source)
		if name == "" || name == g.SelfIdentifier() {
			continue
		}
		// C has no default parameter values.
		out[name] = nil
	}
	return out
}

func findParameterListInRange(root *sitter.Node, start, end uint32) *sitter.Node {
	for _, n := range tsutil.NodesInByteRange(root, start, end, "parameter_list") {
		return n
	}
	return nil
}

func findNodeExactly(root *sitter.Node, start, end uint32) *sitter.Node {
	var found *sitter.Node
	tsutil.Walk(root, func(n *sitter.Node) bool {
		if n.StartByte() == start && n.EndByte() == end {
			found = n
			return false
		}
		return true
	})
	return found
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

package analysis

import (
	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/rules"
)

// identifierKey builds the map key used for method.Method's Variables/
// Calls maps from a grammar-reported object-name chain and identifier.
func identifierKey(object []string, ident string) string {
	return rules.NewIdentifier(object, ident).String()
}

// grammarPosToRules converts a grammar.Position (possibly window-relative)
// into a rules.Position with the same numeric range; callers are
// responsible for shifting relative positions to absolute first.
func grammarPosToRules(p grammar.Position) rules.Position {
	return rules.Position{Start: p.Start, End: p.End}
}

// shiftAbs shifts a window-relative grammar.Position to an absolute
// rules.Position given the window's absolute start offset.
func shiftAbs(p grammar.Position, base int) rules.Position {
	return rules.Position{Start: p.Start + base, End: p.End + base}
}

// callRecordFromMatch converts a grammar.CallMatch (already shifted to
// absolute positions by the caller) into a rules.CallRecord, recursively
// converting nested call arguments.
func callRecordFromMatch(m grammar.CallMatch, base int) rules.CallRecord {
	args := make([]rules.Expr, 0, len(m.Args))
	for _, a := range m.Args {
		args = append(args, exprFromArg(a, base))
	}
	return rules.CallRecord{
		Name:     rules.NewIdentifier(m.Object, m.Ident),
		Args:     args,
		Position: shiftAbs(m.Position, base),
	}
}

func exprFromArg(a grammar.ArgMatch, base int) rules.Expr {
	if a.Nested != nil {
		return rules.CallExpr{Call: callRecordFromMatch(*a.Nested, base)}
	}
	id := rules.ParseIdentifier(a.Text)
	if id.Ident != "" && !looksLikeLiteral(a.Text) {
		return rules.VarExpr{Name: id}
	}
	return rules.LiteralExpr{Value: a.Text}
}

// looksLikeLiteral is a light heuristic distinguishing bare identifiers
// (variable references) from literal tokens (numbers, quoted strings,
// bracketed/parenthesized expressions) among call arguments.
func looksLikeLiteral(text string) bool {
	if text == "" {
		return true
	}
	switch text[0] {
	case '"', '\'', '$', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '-', '[', '(':
		return text[0] != '$'
	}
	return false
}

// assignmentExpr converts a grammar.AssignmentMatch's RHS into a
// rules.Expr, at absolute position (the match itself is assumed already
// window-relative and not yet shifted — used only for __globals, whose
// window base is 0).
func assignmentExpr(a grammar.AssignmentMatch) rules.Expr {
	if a.RHS != nil {
		return rules.CallExpr{Call: callRecordFromMatch(*a.RHS, 0)}
	}
	return exprFromArg(grammar.ArgMatch{Text: a.RHSText}, 0)
}

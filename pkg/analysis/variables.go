package analysis

import (
	"math"

	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// FollowVariables walks assignments in [m.Start, m.End) and records each
// lvalue's assignment history on m.Variables, keyed by the lvalue's
// object-name/identifier pair. Parameters are seeded as zero-length
// assignments at position (0,0) with an empty name expression (spec
// §4.4.2). The pseudo __globals method (Start == math.MinInt) is seeded
// separately by recordGlobals and is a no-op here.
func (a *Analysis) FollowVariables(m *method.Method) {
	if m.Start == math.MinInt {
		return
	}

	for name := range m.Parameters {
		key := identifierKey(nil, name)
		seed := method.VariableRecord{
			Assignment: rules.VarExpr{},
			Position:   rules.Position{Start: 0, End: 0},
		}
		if _, ok := m.Variables[key]; !ok {
			m.Variables[key] = []method.VariableRecord{seed}
		}
	}

	assignments := a.Grammar.Assignments(m.Start, m.End)
	fresh := map[string][]method.VariableRecord{}
	for _, asg := range assignments {
		key := identifierKey(asg.Object, asg.Ident)
		rec := method.VariableRecord{
			Assignment: assignmentExprAbs(asg, m.Start),
			Position:   shiftAbs(asg.Position, m.Start),
		}
		fresh[key] = append(fresh[key], rec)
	}
	m.AddVariables(fresh)
}

// assignmentExprAbs converts a grammar.AssignmentMatch's RHS into a
// rules.Expr with call-argument positions shifted to absolute file
// offsets by base (the enclosing method's start).
func assignmentExprAbs(a grammar.AssignmentMatch, base int) rules.Expr {
	if a.RHS != nil {
		return rules.CallExpr{Call: callRecordFromMatch(*a.RHS, base)}
	}
	id := rules.ParseIdentifier(a.RHSText)
	if id.Ident != "" && !looksLikeLiteral(a.RHSText) {
		return rules.VarExpr{Name: id}
	}
	return rules.LiteralExpr{Value: a.RHSText}
}

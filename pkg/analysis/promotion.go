package analysis

import (
	"sort"

	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// PromoteMethod implements inter-procedural promotion (spec §4.4.6):
// when m's parameters flow into a matched source/sink/sanitizer
// argument, or m's return value depends on a source, m itself is
// promoted into a new rule so that callers of m are analyzed as if m
// were a primitive source/sink/sanitizer call.
func (a *Analysis) PromoteMethod(m *method.Method) {
	var objectName *rules.Identifier
	if m.EnclosingClass != "" {
		id := rules.NewIdentifier(nil, m.EnclosingClass)
		objectName = &id
	}

	if tainted := parametersReachingAny(a, m, m.Sources); len(tainted) > 0 {
		pattern := a.promotedPattern(m, tainted)
		a.Ruleset.AddSource(m, objectName, []rules.MethodPattern{pattern})
	}

	if a.returnDependsOnSource(m) {
		pattern := a.wildcardPattern(m)
		a.Ruleset.AddSource(m, objectName, []rules.MethodPattern{pattern})
	}

	if tainted := parametersReachingAny(a, m, m.Sinks); len(tainted) > 0 {
		pattern := a.promotedPattern(m, tainted)
		if newSink, created := a.Ruleset.AddSink(m, objectName, []rules.MethodPattern{pattern}); created {
			for origSink := range m.Sinks {
				a.carrySanitizers(m, origSink, newSink)
			}
		}
	}

	for san, calls := range m.Sanitizers {
		sink, idx, ok := a.findSanitizerOwner(san)
		if !ok {
			continue
		}
		var tainted map[string]bool
		for _, c := range calls {
			for _, arg := range c.Args {
				for _, p := range a.traceToParams(m, arg, c.Position.Start) {
					if tainted == nil {
						tainted = map[string]bool{}
					}
					tainted[p] = true
				}
			}
		}
		if len(tainted) == 0 {
			continue
		}
		pattern := a.promotedPattern(m, tainted)
		a.Ruleset.AddSanitizer(m, sink, idx, objectName, []rules.MethodPattern{pattern}, san.Level+1)
	}
}

// Update is the ruleset.Observer callback: re-run matching and
// promotion over every method already scanned, so a rule discovered
// while scanning a later method can still flag an earlier one.
func (a *Analysis) Update(m *method.Method, changedSanitizer, newSource bool) {
	for _, other := range a.Methods {
		if !a.scanned[other] {
			continue
		}
		a.MatchAll(other)
		a.PromoteMethod(other)
	}
}

// parametersReachingAny returns the set of m's parameter names that flow
// (per variable trace) into any recorded call's argument.
func parametersReachingAny[K comparable](a *Analysis, m *method.Method, calls map[K][]rules.CallRecord) map[string]bool {
	out := map[string]bool{}
	for _, records := range calls {
		for _, c := range records {
			for _, arg := range c.Args {
				for _, p := range a.traceToParams(m, arg, c.Position.Start) {
					out[p] = true
				}
			}
		}
	}
	return out
}

// traceToParams walks expr's variable-reference chain back to a
// parameter seed, returning the parameter name(s) it ultimately
// resolves to (possibly more than one through nested call arguments).
func (a *Analysis) traceToParams(m *method.Method, expr rules.Expr, pos int) []string {
	switch v := expr.(type) {
	case rules.VarExpr:
		if v.Name.IsZero() {
			return nil
		}
		return a.traceIdentToParams(m, v.Name.Object, v.Name.Ident, pos)
	case rules.CallExpr:
		var out []string
		for _, arg := range v.Call.Args {
			out = append(out, a.traceToParams(m, arg, v.Call.Position.Start)...)
		}
		return out
	default:
		return nil
	}
}

func (a *Analysis) traceIdentToParams(m *method.Method, object []string, ident string, pos int) []string {
	curObject, curIdent, curPos := object, ident, pos
	for i := 0; i < 64; i++ {
		key := identifierKey(curObject, curIdent)
		records := visibleRecordsBefore(m.Variables[key], curPos, nil)
		if len(records) == 0 {
			return nil
		}
		latest := records[len(records)-1]
		if latest.Position.Start == 0 && latest.Position.End == 0 {
			if _, isParam := m.Parameters[curIdent]; isParam && len(curObject) == 0 {
				return []string{curIdent}
			}
			return nil
		}
		ve, ok := latest.Assignment.(rules.VarExpr)
		if !ok || ve.Name.IsZero() {
			return nil
		}
		curObject, curIdent, curPos = ve.Name.Object, ve.Name.Ident, latest.Position.Start
	}
	return nil
}

func (a *Analysis) returnDependsOnSource(m *method.Method) bool {
	for _, ret := range a.Grammar.Returns(m.Start, m.End) {
		if ret.Expr == nil {
			continue
		}
		call := callRecordFromMatch(*ret.Expr, m.Start)
		call.Name = a.ResolveReceiver(call.Name)
		if a.callMatchesAnySource(m, call) {
			return true
		}
	}
	return false
}

// promotedPattern builds a MethodPattern mirroring m's parameter list,
// marking as "$TAINT" the positions in tainted. Parameter order is
// deterministic (sorted by name) since method.Method retains parameter
// names in a Go map rather than the declaration-ordered sequence the
// originating grammar parsed them in; see DESIGN.md.
func (a *Analysis) promotedPattern(m *method.Method, tainted map[string]bool) rules.MethodPattern {
	names := make([]string, 0, len(m.Parameters))
	for name := range m.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]*string, len(names))
	for i, name := range names {
		if tainted[name] {
			t := rules.Taint
			params[i] = &t
		}
	}
	return rules.MethodPattern{
		MethodName: m.MethodName,
		Parameters: params,
		Comment:    "promoted from " + m.MethodName,
	}
}

func (a *Analysis) wildcardPattern(m *method.Method) rules.MethodPattern {
	params := make([]*string, len(m.Parameters))
	return rules.MethodPattern{
		MethodName: m.MethodName,
		Parameters: params,
		Comment:    "promoted from " + m.MethodName + " (return)",
	}
}

// carrySanitizers copies every sanitizer attached to origSink's method
// patterns onto the corresponding patterns of newSink (newSink has
// exactly one promoted pattern, so every sanitizer lands on index 0).
func (a *Analysis) carrySanitizers(m *method.Method, origSink *rules.Sink, newSink *rules.Sink) {
	for _, pattern := range origSink.Methods {
		for _, san := range pattern.Sanitizers {
			a.Ruleset.AddSanitizer(m, newSink, 0, rules.ObjectNameOrNil(san.HasObject, san.ObjectName), san.Methods, san.Level)
		}
	}
}

func (a *Analysis) findSanitizerOwner(san *rules.Sanitizer) (*rules.Sink, int, bool) {
	for _, sink := range a.Ruleset.Sinks {
		for idx := range sink.Methods {
			for _, s := range sink.Methods[idx].Sanitizers {
				if s == san {
					return sink, idx, true
				}
			}
		}
	}
	return nil, -1, false
}

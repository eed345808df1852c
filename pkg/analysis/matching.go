package analysis

import (
	"strings"

	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// MatchAll scans every call site in [m.Start, m.End) against the
// ruleset's sources, sinks and sanitizers (spec §4.4.5).
func (a *Analysis) MatchAll(m *method.Method) {
	for _, cm := range a.Grammar.MethodCalls(m.Start, m.End) {
		call := callRecordFromMatch(cm, m.Start)
		call.Name = a.ResolveReceiver(call.Name)
		m.AddCalls(map[string][]rules.CallRecord{identifierKey(call.Name.Object, call.Name.Ident): {call}})
		a.matchCall(m, call)
	}
}

func (a *Analysis) matchCall(m *method.Method, call rules.CallRecord) {
	newSources := map[*rules.Source][]rules.CallRecord{}
	for _, src := range a.Ruleset.Sources {
		if !src.MatchesObject(call.Name.Object) {
			continue
		}
		if idx, ok := a.matchSource(src.Methods, call); ok {
			newSources[src] = append(newSources[src], call)
			a.recordSourceOutputs(m, src.Methods[idx], call)
		}
	}
	m.AddSources(newSources)

	newSinks := map[*rules.Sink][]rules.CallRecord{}
	for _, sink := range a.Ruleset.Sinks {
		if !sink.MatchesObject(call.Name.Object) {
			continue
		}
		if _, ok := a.matchSource(sink.Methods, call); ok {
			newSinks[sink] = append(newSinks[sink], call)
		}
	}
	m.AddSinks(newSinks)

	newSanitizers := map[*rules.Sanitizer][]rules.CallRecord{}
	for _, sink := range a.Ruleset.Sinks {
		for idx := range sink.Methods {
			for _, san := range sink.Methods[idx].Sanitizers {
				if !san.MatchesObject(call.Name.Object) {
					continue
				}
				if _, ok := a.matchSource(san.Methods, call); ok {
					newSanitizers[san] = append(newSanitizers[san], call)
				}
			}
		}
	}
	m.AddSanitizers(newSanitizers)
}

// recordSourceOutputs synthesizes a variable assignment record for every
// "$TAINT"-marked argument of a matched Source call that names a
// variable (e.g. scanf's "&buf" or fgets' "buf"): a Source's $TAINT
// position denotes where it WRITES tainted data, not a precondition that
// the position already carries taint (see DESIGN.md), so later reads of
// that variable need something to trace back to. The call itself stands
// in as the assignment's RHS, so FindVariableSource's CallExpr
// termination case recognizes it as a Source on the trail.
func (a *Analysis) recordSourceOutputs(m *method.Method, pattern rules.MethodPattern, call rules.CallRecord) {
	fresh := map[string][]method.VariableRecord{}
	for i, param := range pattern.Parameters {
		if param == nil || *param != rules.Taint || i >= len(call.Args) {
			continue
		}
		name, ok := sourceOutputVariable(call.Args[i])
		if !ok {
			continue
		}
		key := identifierKey(name.Object, name.Ident)
		fresh[key] = append(fresh[key], method.VariableRecord{
			Assignment: rules.CallExpr{Call: call},
			Position:   call.Position,
		})
	}
	if len(fresh) > 0 {
		m.AddVariables(fresh)
	}
}

// sourceOutputVariable extracts the variable identifier a Source's
// "$TAINT" argument writes into, stripping a leading address-of
// operator so `scanf("%s", &buf)` and a direct-pointer call like
// `fgets(buf, ...)` both resolve to the same "buf" key a later
// `printf(buf)` read parses to.
func sourceOutputVariable(arg rules.Expr) (rules.Identifier, bool) {
	v, ok := arg.(rules.VarExpr)
	if !ok || v.Name.IsZero() {
		return rules.Identifier{}, false
	}
	name := v.Name
	if len(name.Object) == 0 && strings.HasPrefix(name.Ident, "&") {
		name = rules.ParseIdentifier(strings.TrimPrefix(name.Ident, "&"))
	}
	if name.IsZero() {
		return rules.Identifier{}, false
	}
	return name, true
}

// matchSource returns the index of the first MethodPattern in methods
// whose name and positional parameter pattern accept call, by shape
// alone: a "$TAINT" position accepts any argument unconditionally. Used
// for every rule kind (source, sink, sanitizer) — whether an argument at
// a "$TAINT" position actually carries taint is a separate, path-scoped
// question answered later by hasTaintedArgOnPath (spec §4.4.8), not a
// precondition for recording that the call's shape matches a rule.
// Gating the match itself on an unscoped taint check was tried and
// dropped: a value reassigned in a sibling branch can shadow an earlier
// tainted assignment in an unscoped look-back, causing a real tainted
// call on one control-flow path to never even get recorded as a
// candidate sink/sanitizer hit (see DESIGN.md).
func (a *Analysis) matchSource(methods []rules.MethodPattern, call rules.CallRecord) (int, bool) {
	for idx, p := range methods {
		if p.MethodName != call.Name.Ident || len(p.Parameters) != len(call.Args) {
			continue
		}
		accepted := true
		for i, param := range p.Parameters {
			if param == nil || *param == rules.Taint {
				continue // wildcard, or a Source's output position: any argument accepted
			}
			if call.Args[i].Text() != *param {
				accepted = false
				break
			}
		}
		if accepted {
			return idx, true
		}
	}
	return -1, false
}

func (a *Analysis) callMatchesAnySource(m *method.Method, call rules.CallRecord) bool {
	for _, src := range a.Ruleset.Sources {
		if !src.MatchesObject(call.Name.Object) {
			continue
		}
		if _, ok := a.matchSource(src.Methods, call); ok {
			return true
		}
	}
	return false
}

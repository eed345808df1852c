package analysis

import (
	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// FindTaints implements taint detection for a single path (spec
// §4.4.8): every sink call whose position lies within path is checked
// for a tainted "$TAINT" argument tracing back to a source visible on
// the same path; a preceding sanitizer on the path downgrades (but does
// not remove) the finding. Results are merge-appended into m.Taints.
func (a *Analysis) FindTaints(m *method.Method, path []rules.Position) {
	newTaints := map[string][]method.TaintRecord{}

	for sink, calls := range m.Sinks {
		for _, call := range calls {
			if !inSegments(call.Position, path) {
				continue
			}
			idx, ok := a.matchSource(sink.Methods, call)
			if !ok {
				continue
			}
			pattern := sink.Methods[idx]

			if !a.hasTaintedArgOnPath(m, call, pattern.Parameters, path) {
				continue
			}

			sanitizer := a.precedingSanitizer(m, pattern, call, path)

			rec := method.TaintRecord{
				Comment:   pattern.Comment,
				Position:  call.Position,
				Call:      call,
				Sanitizer: sanitizer,
			}
			key := identifierKey(call.Name.Object, call.Name.Ident)
			newTaints[key] = append(newTaints[key], rec)
		}
	}

	m.AddTaints(newTaints)
}

func (a *Analysis) hasTaintedArgOnPath(m *method.Method, call rules.CallRecord, parameters []*string, path []rules.Position) bool {
	for i, param := range parameters {
		if param == nil || *param != rules.Taint || i >= len(call.Args) {
			continue
		}
		if a.argTracesToSourceOnPath(m, call, call.Args[i], path) {
			return true
		}
	}
	return false
}

func (a *Analysis) argTracesToSourceOnPath(m *method.Method, call rules.CallRecord, arg rules.Expr, path []rules.Position) bool {
	switch v := arg.(type) {
	case rules.CallExpr:
		if !inSegments(v.Call.Position, path) {
			return false
		}
		return a.callMatchesAnySource(m, v.Call)
	case rules.VarExpr:
		if v.Name.IsZero() {
			return false
		}
		trail := a.FindVariableSource(m, v.Name.Object, v.Name.Ident, call.Position.Start, path)
		for _, rec := range trail {
			if ce, ok := rec.Assignment.(rules.CallExpr); ok {
				if a.callMatchesAnySource(m, ce.Call) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// precedingSanitizer returns the first sanitizer attached to pattern
// whose matched call site lies on path strictly before call.
func (a *Analysis) precedingSanitizer(m *method.Method, pattern rules.MethodPattern, call rules.CallRecord, path []rules.Position) *rules.Sanitizer {
	for _, san := range pattern.Sanitizers {
		for _, sc := range m.Sanitizers[san] {
			if sc.Position.Start < call.Position.Start && inSegments(sc.Position, path) {
				return san
			}
		}
	}
	return nil
}

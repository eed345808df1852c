// Package method holds the per-function record of discovered artifacts
// the analysis engine accumulates while scanning a file (spec §3, §4.2).
package method

import (
	"github.com/taintalyzing/engine/pkg/rules"
)

// VariableRecord is one assignment to a variable, in the textual order
// variables were discovered. Position is absolute within the file.
type VariableRecord struct {
	Assignment rules.Expr
	Position   rules.Position
}

// TaintRecord is one recorded fact that a sink call is reached by data
// from a source, optionally through a sanitizer (spec glossary).
type TaintRecord struct {
	Comment   string
	Position  rules.Position
	Call      rules.CallRecord
	Sanitizer *rules.Sanitizer // nil if unsanitized
}

// Method is the per-function record populated during analysis. Created
// once per function definition discovered in the grammar; Start/End/
// MethodName/Parameters are fixed at construction, the remaining fields
// are accumulators filled in by the analysis engine's passes.
type Method struct {
	Start, End int
	MethodName string
	// Parameters maps parameter name to its default-value literal, or
	// nil if the parameter has no default.
	Parameters map[string]*string

	// EnclosingClass, when non-empty, is used by inter-procedural
	// promotion as a promoted rule's object-name constraint. Method
	// enumeration does not populate it, so it is "" for every method the
	// engine discovers, class methods included, and promoted rules carry
	// no object-name constraint.
	EnclosingClass string

	Calls      map[string][]rules.CallRecord
	Variables  map[string][]VariableRecord
	Sources    map[*rules.Source][]rules.CallRecord
	Sinks      map[*rules.Sink][]rules.CallRecord
	Sanitizers map[*rules.Sanitizer][]rules.CallRecord
	Taints     map[string][]TaintRecord

	// Paths is the list of mutually-exclusive control-flow paths
	// through the method; each path is an ordered list of absolute
	// [start,end) segments covering the method (spec §4.4.7).
	Paths [][]rules.Position

	// Complexity is the method's McCabe cyclomatic complexity,
	// uninitialized (-1) until calculate_complexity runs.
	Complexity int
}

// New constructs an empty Method ready for analysis.
func New(start, end int, name string, parameters map[string]*string) *Method {
	if parameters == nil {
		parameters = map[string]*string{}
	}
	return &Method{
		Start:      start,
		End:        end,
		MethodName: name,
		Parameters: parameters,
		Calls:      map[string][]rules.CallRecord{},
		Variables:  map[string][]VariableRecord{},
		Sources:    map[*rules.Source][]rules.CallRecord{},
		Sinks:      map[*rules.Sink][]rules.CallRecord{},
		Sanitizers: map[*rules.Sanitizer][]rules.CallRecord{},
		Taints:     map[string][]TaintRecord{},
		Paths:      nil,
		Complexity: -1,
	}
}

// mergeAppend implements §4.2's "add new elements while avoiding
// duplicates": for each (k, v) in from, if k is absent in original,
// insert it; otherwise extend original[k] with only the entries of v
// not already present, preserving order.
func mergeAppend[K comparable, V any](original map[K][]V, from map[K][]V, equal func(a, b V) bool) {
	for key, values := range from {
		existing, ok := original[key]
		if !ok {
			cp := make([]V, len(values))
			copy(cp, values)
			original[key] = cp
			continue
		}
		for _, v := range values {
			found := false
			for _, have := range existing {
				if equal(have, v) {
					found = true
					break
				}
			}
			if !found {
				existing = append(existing, v)
			}
		}
		original[key] = existing
	}
}

func equalCallRecord(a, b rules.CallRecord) bool {
	return a.Position == b.Position
}

func equalVariableRecord(a, b VariableRecord) bool {
	return a.Position == b.Position
}

func equalTaintRecord(a, b TaintRecord) bool {
	return a.Position == b.Position && a.Sanitizer == b.Sanitizer
}

// AddSources merges newly discovered source matches into m.Sources.
func (m *Method) AddSources(from map[*rules.Source][]rules.CallRecord) {
	mergeAppend(m.Sources, from, equalCallRecord)
}

// AddSinks merges newly discovered sink matches into m.Sinks.
func (m *Method) AddSinks(from map[*rules.Sink][]rules.CallRecord) {
	mergeAppend(m.Sinks, from, equalCallRecord)
}

// AddSanitizers merges newly discovered sanitizer matches into m.Sanitizers.
func (m *Method) AddSanitizers(from map[*rules.Sanitizer][]rules.CallRecord) {
	mergeAppend(m.Sanitizers, from, equalCallRecord)
}

// AddTaints merges newly discovered taints into m.Taints.
func (m *Method) AddTaints(from map[string][]TaintRecord) {
	mergeAppend(m.Taints, from, equalTaintRecord)
}

// AddVariables merges newly discovered variable assignments into
// m.Variables, keyed by the variable's identifier string.
func (m *Method) AddVariables(from map[string][]VariableRecord) {
	mergeAppend(m.Variables, from, equalVariableRecord)
}

// AddCalls merges newly discovered calls into m.Calls, keyed by callee
// identifier string.
func (m *Method) AddCalls(from map[string][]rules.CallRecord) {
	mergeAppend(m.Calls, from, equalCallRecord)
}

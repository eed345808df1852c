package analysis

import (
	"math"

	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/method"
)

// globalsMethodName is the pseudo-method name holding top-level
// declarations and assignments (spec §4.4.1).
const globalsMethodName = "__globals"

// enumerateMethods walks grammar.MethodDefinitions() and materializes a
// Method per definition, storing absolute start/end and capturing
// parameters(start,end). A pseudo-method representing globals is
// prepended with position (-inf, first_method_start).
func enumerateMethods(g grammar.Grammar) []*method.Method {
	defs := g.MethodDefinitions()

	firstStart := math.MaxInt
	methods := make([]*method.Method, 0, len(defs)+1)

	for _, def := range defs {
		if def.Position.Start < firstStart {
			firstStart = def.Position.Start
		}
		params := g.Parameters(def.Args.Start, def.Args.End)
		m := method.New(def.Position.Start, def.Position.End, def.Name, params)
		methods = append(methods, m)
	}

	if firstStart == math.MaxInt {
		firstStart = 0
	}

	globalsStart := math.MinInt
	globals := method.New(globalsStart, firstStart, globalsMethodName, nil)
	recordGlobals(globals, g)

	out := make([]*method.Method, 0, len(methods)+1)
	out = append(out, globals)
	out = append(out, methods...)
	return out
}

// recordGlobals seeds the __globals pseudo-method's declarations and
// assignments from grammar.GlobalVariables().
func recordGlobals(globals *method.Method, g grammar.Grammar) {
	for _, decl := range g.GlobalVariables() {
		key := identifierKey(decl.Object, decl.Ident)
		rec := method.VariableRecord{
			Assignment: assignmentExpr(decl),
			Position:   grammarPosToRules(decl.Position),
		}
		globals.Variables[key] = append(globals.Variables[key], rec)
	}
}

// Package analysis implements the per-file control-flow and data-flow
// engine (spec §4.4): variable tracking, source/sink/sanitizer matching,
// inter-procedural promotion, path enumeration and taint detection.
package analysis

import (
	"log/slog"

	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
	"github.com/taintalyzing/engine/pkg/ruleset"
)

// Analysis owns a Grammar and a reference to a Ruleset for one file. It
// registers itself as a Ruleset observer so that promotions discovered
// while scanning one method re-trigger matching on methods already
// scanned (spec §4.4.6).
type Analysis struct {
	Grammar grammar.Grammar
	Ruleset *ruleset.Ruleset
	Methods []*method.Method
	Lazy    bool

	// classObjectNames maps a variable's identifier key to the class
	// name it was instantiated from, populated by FixObjectNames.
	classObjectNames map[string]string

	scanned map[*method.Method]bool
	log     *slog.Logger
}

// New constructs an Analysis: enumerates methods from the grammar and
// registers itself as a Ruleset observer (spec §4.4.1, §4.3).
func New(g grammar.Grammar, rs *ruleset.Ruleset, lazy bool, log *slog.Logger) *Analysis {
	if log == nil {
		log = slog.Default()
	}
	a := &Analysis{
		Grammar:          g,
		Ruleset:          rs,
		Methods:          enumerateMethods(g),
		Lazy:             lazy,
		classObjectNames: map[string]string{},
		scanned:          map[*method.Method]bool{},
		log:              log,
	}
	rs.RegisterObserver(a)
	return a
}

// Run executes the full per-method pipeline in method order: complexity,
// variable tracking, object-name fixup, source/sink/sanitizer discovery,
// path enumeration, taint detection (spec §2 control flow).
func (a *Analysis) Run() {
	for _, m := range a.Methods {
		a.runMethod(m)
	}
}

func (a *Analysis) runMethod(m *method.Method) {
	a.CalculateComplexity(m)
	a.FollowVariables(m)
	a.FixObjectNames(m)
	a.MatchAll(m)
	a.PromoteMethod(m)

	paths := a.FindPathsThrough(m)
	m.Paths = paths
	for _, path := range paths {
		a.FindTaints(m, path)
	}
	if len(paths) > 1 {
		a.FindTaints(m, []rules.Position{{Start: m.Start, End: m.End}})
	}
	a.scanned[m] = true
}

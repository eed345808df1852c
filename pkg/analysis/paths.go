package analysis

import (
	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// FindPathsThrough enumerates the mutually-exclusive control-flow paths
// through m (spec §4.4.7). In lazy mode the whole method is treated as a
// single path.
func (a *Analysis) FindPathsThrough(m *method.Method) [][]rules.Position {
	if a.Lazy {
		return [][]rules.Position{{{Start: m.Start, End: m.End}}}
	}

	rel := a.Grammar.MutuallyExclusivePositions(m.Start, m.End)
	if len(rel) == 0 {
		return [][]rules.Position{{{Start: m.Start, End: m.End}}}
	}
	abs := make([]grammar.BranchMatch, len(rel))
	for i, bm := range rel {
		abs[i] = grammar.BranchMatch{Kind: bm.Kind, Position: bm.Position.ShiftBy(m.Start)}
	}

	chains := groupChains(abs)

	var optionSets [][][]rules.Position
	var fixedBefore []rules.Position
	cursor := m.Start
	for _, chain := range chains {
		chainStart := chain[0].Position.Start
		fixedBefore = append(fixedBefore, rules.Position{Start: cursor, End: chainStart})
		optionSets = append(optionSets, branchOptionsForChain(chain))
		cursor = chain[len(chain)-1].Position.End
	}
	tail := rules.Position{Start: cursor, End: m.End}

	combos := cartesianProduct(optionSets)
	paths := make([][]rules.Position, 0, len(combos))
	for _, combo := range combos {
		var path []rules.Position
		for i, choice := range combo {
			path = append(path, fixedBefore[i])
			path = append(path, choice...)
		}
		path = append(path, tail)
		paths = append(paths, path)
	}
	return paths
}

// groupChains splits a textually-ordered list of branch matches into
// maximal chains, each starting at a KindIf entry.
func groupChains(matches []grammar.BranchMatch) [][]grammar.BranchMatch {
	var chains [][]grammar.BranchMatch
	for _, m := range matches {
		if m.Kind == grammar.KindIf || len(chains) == 0 {
			chains = append(chains, []grammar.BranchMatch{m})
			continue
		}
		chains[len(chains)-1] = append(chains[len(chains)-1], m)
	}
	return chains
}

// branchOptionsForChain returns one path-option per chain entry (the
// segment exclusively covering that entry up to the next entry's start),
// plus a degenerate "skip all" option if the chain has no terminating
// else (spec §4.4.7).
func branchOptionsForChain(chain []grammar.BranchMatch) [][]rules.Position {
	options := make([][]rules.Position, 0, len(chain)+1)
	for i, entry := range chain {
		end := entry.Position.End
		if i+1 < len(chain) {
			end = chain[i+1].Position.Start
		}
		options = append(options, []rules.Position{{Start: entry.Position.Start, End: end}})
	}
	last := chain[len(chain)-1]
	if last.Kind != grammar.KindAlternativeEnd {
		end := last.Position.End
		options = append(options, []rules.Position{{Start: end, End: end}})
	}
	return options
}

// cartesianProduct computes the Cartesian product across dimensions,
// where dimension i has options[i] choices.
func cartesianProduct(options [][][]rules.Position) [][][]rules.Position {
	if len(options) == 0 {
		return [][][]rules.Position{nil}
	}
	rest := cartesianProduct(options[1:])
	var out [][][]rules.Position
	for _, choice := range options[0] {
		for _, tail := range rest {
			combo := make([][]rules.Position, 0, len(tail)+1)
			combo = append(combo, choice)
			combo = append(combo, tail...)
			out = append(out, combo)
		}
	}
	return out
}

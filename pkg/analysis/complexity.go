package analysis

import (
	"math"

	"github.com/taintalyzing/engine/pkg/method"
)

// CalculateComplexity computes McCabe cyclomatic complexity for m:
// edges - nodes + 2*connected_components, with one connected component
// (spec §4.4.9). The __globals pseudo-method has no meaningful body
// window and is left at its initial Complexity of -1 (set by method.New).
func (a *Analysis) CalculateComplexity(m *method.Method) {
	if m.Start == math.MinInt {
		return
	}
	nodes := a.Grammar.StatementCount(m.Start, m.End)
	edges := a.Grammar.EdgeCount(m.Start, m.End)
	m.Complexity = edges - nodes + 2
}

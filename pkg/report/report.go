// Package report renders a completed set of per-file analyses into a
// human- or machine-readable report, ported from report.py's
// plaintext/markdown/html Report class (supplemented feature; HTML and
// Markdown are dropped in favor of JSON and SARIF, see SPEC_FULL.md).
package report

import (
	"time"

	"github.com/taintalyzing/engine/pkg/inputfile"
	"github.com/taintalyzing/engine/pkg/method"
)

// FileResult bundles one analyzed file's methods with the module that
// was detected for it and the InputFile used to resolve line numbers.
type FileResult struct {
	Module  string
	File    *inputfile.InputFile
	Methods []*method.Method
}

// Report holds every file's results plus the thresholds that decide what
// gets reported and how severely (report.py's constructor arguments).
type Report struct {
	Results     []FileResult
	Complexity  int
	Indirection int
	generatedAt time.Time
}

// New builds a Report. generatedAt is accepted explicitly (rather than
// taken from time.Now()) so report output is deterministic in tests.
func New(results []FileResult, complexity, indirection int, generatedAt time.Time) *Report {
	return &Report{Results: results, Complexity: complexity, Indirection: indirection, generatedAt: generatedAt}
}

// needsReporting mirrors report.py's __report_needed: a method is worth
// mentioning if it's overly complex or has any taint/sink finding.
func needsReporting(m *method.Method, complexityThreshold int) bool {
	return m.Complexity >= complexityThreshold || len(m.Taints) > 0 || len(m.Sinks) > 0
}

// Severity scores a taint finding as a fraction in [0,1], matching
// report.py's __report_taint: an unsanitized taint is maximum severity;
// a sanitized one scores 50% at indirection level 0 and rises linearly
// to 100% as the sanitizer's level reaches the indirection threshold. A
// sanitizer beyond the threshold, or a threshold of 0 or less, scores
// 100%.
func Severity(t method.TaintRecord, indirectionThreshold int) float64 {
	if t.Sanitizer == nil || t.Sanitizer.Level > indirectionThreshold {
		return 1.0
	}
	if indirectionThreshold <= 0 {
		return 1.0
	}
	frac := float64(t.Sanitizer.Level) / float64(indirectionThreshold)
	if frac > 1 {
		frac = 1
	}
	return 0.5 + frac/2
}

// sinkSeverity is report.py's fixed 50% score for a sink call that
// never traced back to a tainted argument.
const sinkSeverity = 0.5

func methodLineRange(m *method.Method, f *inputfile.InputFile) (int, int) {
	return f.ColumnToLine(m.Start), f.ColumnToLine(m.End)
}

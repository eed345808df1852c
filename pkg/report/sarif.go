package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/taintalyzing/engine/pkg/method"
)

const sarifRuleTaint = "taintalyzing/tainted-sink"
const sarifRuleSink = "taintalyzing/unsanitized-sink"
const sarifRuleComplexity = "taintalyzing/high-complexity"

// WriteSARIF renders the report as SARIF 2.1.0, the Go-ecosystem
// equivalent of report.py's HTML/Markdown formats for this pack's SAST
// tools (see SPEC_FULL.md's SUPPLEMENTED FEATURES note).
func (r *Report) WriteSARIF(w io.Writer) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}
	run := sarif.NewRunWithInformationURI("taintalyzing", "https://example.invalid/taintalyzing")
	addRule(run, sarifRuleTaint, "Tainted value reaches a sink", "error")
	addRule(run, sarifRuleSink, "Call to a sink with no traced taint", "note")
	addRule(run, sarifRuleComplexity, "Method exceeds the cyclomatic complexity threshold", "warning")

	for _, res := range r.Results {
		path := res.File.Path()
		for _, m := range res.Methods {
			if !needsReporting(m, r.Complexity) {
				continue
			}
			r.addMethodResults(run, path, m, res.File)
		}
	}

	doc.AddRun(run)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func addRule(run *sarif.Run, id, desc, level string) {
	run.AddRule(id).
		WithDescription(desc).
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel(level))
}

func (r *Report) addMethodResults(run *sarif.Run, path string, m *method.Method, f interface{ ColumnToLine(int) int }) {
	if m.Complexity >= r.Complexity {
		line := f.ColumnToLine(m.Start)
		result := run.CreateResultForRule(sarifRuleComplexity).
			WithMessage(sarif.NewTextMessage(fmt.Sprintf("%q has a cyclomatic complexity of %d", m.MethodName, m.Complexity)))
		result.AddLocation(locationFor(path, line))
	}

	reportedPositions := map[int]bool{}
	for _, records := range m.Taints {
		for _, rec := range records {
			reportedPositions[rec.Position.Start] = true
			line := f.ColumnToLine(rec.Position.Start)
			msg := fmt.Sprintf("call to %s reaches this sink with user-controlled input (severity %.0f%%)",
				rec.Call.Name.String(), Severity(rec, r.Indirection)*100)
			result := run.CreateResultForRule(sarifRuleTaint).
				WithMessage(sarif.NewTextMessage(msg))
			result.AddLocation(locationFor(path, line))
		}
	}

	lastSink := -1
	for _, calls := range m.Sinks {
		for _, call := range calls {
			if reportedPositions[call.Position.Start] || call.Position.Start == lastSink {
				continue
			}
			lastSink = call.Position.Start
			line := f.ColumnToLine(call.Position.Start)
			msg := fmt.Sprintf("call to %s with no traced taint", call.Name.String())
			result := run.CreateResultForRule(sarifRuleSink).
				WithMessage(sarif.NewTextMessage(msg))
			result.AddLocation(locationFor(path, line))
		}
	}
}

func locationFor(path string, line int) *sarif.Location {
	return sarif.NewLocation().
		WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(path)).
				WithRegion(sarif.NewRegion().WithStartLine(line)),
		)
}

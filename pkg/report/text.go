package report

import (
	"fmt"
	"io"

	"github.com/taintalyzing/engine/pkg/method"
)

// WriteText renders the report as indentation-free plaintext, the direct
// port of report.py's generate_plaintext_report (no markup substitution
// needed since the plaintext markup table is all empty strings there).
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "TAINTalyzing report created on %s\n", r.generatedAt.Format("Mon Jan 2 15:04:05 2006"))

	for _, res := range r.Results {
		fmt.Fprintf(w, "Start of analysis for %s:\n", res.File.Path())
		fmt.Fprintf(w, "The filetype was detected as %s.\n", res.Module)

		reportedAny := false
		for _, m := range res.Methods {
			if !needsReporting(m, r.Complexity) {
				continue
			}
			reportedAny = true
			r.writeMethodText(w, m, res.File)
		}
		if !reportedAny {
			fmt.Fprintln(w, "Congratulations, nothing to report for this file.")
		}
	}

	fmt.Fprintln(w, "Don't forget that these results are not necessarily complete and could be missing vulnerabilities. Additional security checks are highly recommended!")
	return nil
}

func (r *Report) writeMethodText(w io.Writer, m *method.Method, f interface{ ColumnToLine(int) int }) {
	startLine, endLine := f.ColumnToLine(m.Start), f.ColumnToLine(m.End)
	fmt.Fprintf(w, "Analysis results for method %q (lines %d to %d).\n", m.MethodName, startLine, endLine)
	if m.Complexity >= r.Complexity {
		fmt.Fprintf(w, "Method has a cyclomatic complexity of %d.\n", m.Complexity)
	}

	reportedPositions := map[int]bool{}
	if len(m.Taints) > 0 {
		fmt.Fprintln(w, "The following taints were detected:")
		for _, records := range m.Taints {
			for _, rec := range records {
				reportedPositions[rec.Position.Start] = true
				r.writeTaintText(w, rec)
			}
		}
	}

	lastSink := -1
	sinksHeader := false
	for _, calls := range m.Sinks {
		for _, call := range calls {
			if reportedPositions[call.Position.Start] || call.Position.Start == lastSink {
				continue
			}
			lastSink = call.Position.Start
			if !sinksHeader {
				sinksHeader = true
				fmt.Fprintln(w, "The following sinks were detected:")
			}
			line := f.ColumnToLine(call.Position.Start)
			fmt.Fprintf(w, "In line %d a call without any detected user controlled input is made to %s.\n", line, call.Name.String())
			fmt.Fprintf(w, "Severity level: %.0f%%.\n", sinkSeverity*100)
		}
	}
}

func (r *Report) writeTaintText(w io.Writer, rec method.TaintRecord) {
	fmt.Fprintf(w, "A call with potentially user controlled input is made to %s.\n", rec.Call.Name.String())
	fmt.Fprintf(w, "The following comment is linked to this sink: %s\n", rec.Comment)
	if rec.Sanitizer != nil && rec.Sanitizer.Level <= r.Indirection {
		fmt.Fprintf(w, "The taint seems to be sanitized (indirection level: %d).\n", rec.Sanitizer.Level)
	} else {
		fmt.Fprintln(w, "No sanitizer detected.")
	}
	fmt.Fprintf(w, "Severity level: %.0f%%.\n", Severity(rec, r.Indirection)*100)
}

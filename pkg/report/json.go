package report

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"

	"github.com/taintalyzing/engine/pkg/method"
)

// jsonTaint and jsonSink mirror the teacher's InputSource/TaintedVariable
// convention of attaching a uuid.New() ID to every reported finding,
// generalized here from source/tracer findings to taint/sink findings.
// The IDs are random and are generated afresh on every report.
type jsonTaint struct {
	ID         string  `json:"id"`
	Callee     string  `json:"callee"`
	Line       int     `json:"line"`
	Comment    string  `json:"comment"`
	Sanitized  bool    `json:"sanitized"`
	Indirection *int   `json:"indirection,omitempty"`
	Severity   float64 `json:"severity"`
}

type jsonSink struct {
	ID       string  `json:"id"`
	Callee   string  `json:"callee"`
	Line     int     `json:"line"`
	Severity float64 `json:"severity"`
}

type jsonMethod struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	StartLine  int         `json:"startLine"`
	EndLine    int         `json:"endLine"`
	Complexity int         `json:"complexity"`
	Taints     []jsonTaint `json:"taints,omitempty"`
	Sinks      []jsonSink  `json:"sinks,omitempty"`
}

type jsonFile struct {
	Path    string       `json:"path"`
	Module  string       `json:"module"`
	Methods []jsonMethod `json:"methods"`
}

type jsonReport struct {
	GeneratedAt string     `json:"generatedAt"`
	Files       []jsonFile `json:"files"`
}

// WriteJSON renders the report as a single JSON document, the Go-idiomatic
// machine-readable format report.py's author never had (supplemented
// feature, see DESIGN.md).
func (r *Report) WriteJSON(w io.Writer) error {
	doc := jsonReport{GeneratedAt: r.generatedAt.Format("2006-01-02T15:04:05Z07:00")}

	for _, res := range r.Results {
		jf := jsonFile{Path: res.File.Path(), Module: res.Module}
		for _, m := range res.Methods {
			if !needsReporting(m, r.Complexity) {
				continue
			}
			jf.Methods = append(jf.Methods, r.toJSONMethod(m, res.File))
		}
		doc.Files = append(doc.Files, jf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (r *Report) toJSONMethod(m *method.Method, f interface{ ColumnToLine(int) int }) jsonMethod {
	startLine, endLine := f.ColumnToLine(m.Start), f.ColumnToLine(m.End)
	jm := jsonMethod{
		ID:         uuid.New().String(),
		Name:       m.MethodName,
		StartLine:  startLine,
		EndLine:    endLine,
		Complexity: m.Complexity,
	}

	reportedPositions := map[int]bool{}
	for _, records := range m.Taints {
		for _, rec := range records {
			reportedPositions[rec.Position.Start] = true
			jt := jsonTaint{
				ID:        uuid.New().String(),
				Callee:    rec.Call.Name.String(),
				Line:      f.ColumnToLine(rec.Position.Start),
				Comment:   rec.Comment,
				Sanitized: rec.Sanitizer != nil && rec.Sanitizer.Level <= r.Indirection,
				Severity:  Severity(rec, r.Indirection),
			}
			if rec.Sanitizer != nil {
				level := rec.Sanitizer.Level
				jt.Indirection = &level
			}
			jm.Taints = append(jm.Taints, jt)
		}
	}

	lastSink := -1
	for _, calls := range m.Sinks {
		for _, call := range calls {
			if reportedPositions[call.Position.Start] || call.Position.Start == lastSink {
				continue
			}
			lastSink = call.Position.Start
			jm.Sinks = append(jm.Sinks, jsonSink{
				ID:       uuid.New().String(),
				Callee:   call.Name.String(),
				Line:     f.ColumnToLine(call.Position.Start),
				Severity: sinkSeverity,
			})
		}
	}
	return jm
}

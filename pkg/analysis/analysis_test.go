package analysis

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taintalyzing/engine/pkg/grammar"
	"github.com/taintalyzing/engine/pkg/rules"
	"github.com/taintalyzing/engine/pkg/ruleset"
)

// fakeGrammar is a hand-authored grammar.Grammar standing in for a real
// tree-sitter-backed grammar, so these tests drive the engine's control-
// and data-flow algorithms directly against pre-computed matches rather
// than parsing source text. Windowed queries are keyed on the exact
// (start, end) tuple the engine is expected to pass — the tests choose
// method/argument windows up front and author call/assignment positions
// already relative to their owning window, exactly as a real grammar
// would report them.
type fakeGrammar struct {
	lang    string
	classes map[string]int
	self    string

	methodDefs []grammar.MethodMatch
	globals    []grammar.AssignmentMatch

	calls       map[[2]int][]grammar.CallMatch
	assignments map[[2]int][]grammar.AssignmentMatch
	branches    map[[2]int][]grammar.BranchMatch
	controls    map[[2]int][]grammar.ControlMatch
	returns     map[[2]int][]grammar.ReturnMatch
	decls       map[[2]int][]grammar.DeclarationMatch
	stmtCount   map[[2]int]int
	edgeCount   map[[2]int]int
	params      map[[2]int]map[string]*string
}

func (g *fakeGrammar) Language() string                { return g.lang }
func (g *fakeGrammar) ClassDefinitions() map[string]int { return g.classes }
func (g *fakeGrammar) SelfIdentifier() string           { return g.self }
func (g *fakeGrammar) StatementCount(start, end int) int {
	return g.stmtCount[[2]int{start, end}]
}
func (g *fakeGrammar) EdgeCount(start, end int) int {
	return g.edgeCount[[2]int{start, end}]
}
func (g *fakeGrammar) MutuallyExclusivePositions(start, end int) []grammar.BranchMatch {
	return g.branches[[2]int{start, end}]
}
func (g *fakeGrammar) MethodDefinitions() []grammar.MethodMatch { return g.methodDefs }
func (g *fakeGrammar) MethodCalls(start, end int) []grammar.CallMatch {
	return g.calls[[2]int{start, end}]
}
func (g *fakeGrammar) Assignments(start, end int) []grammar.AssignmentMatch {
	return g.assignments[[2]int{start, end}]
}
func (g *fakeGrammar) ControlStructures(start, end int) []grammar.ControlMatch {
	return g.controls[[2]int{start, end}]
}
func (g *fakeGrammar) Returns(start, end int) []grammar.ReturnMatch {
	return g.returns[[2]int{start, end}]
}
func (g *fakeGrammar) Declarations(start, end int) []grammar.DeclarationMatch {
	return g.decls[[2]int{start, end}]
}
func (g *fakeGrammar) Parameters(start, end int) map[string]*string {
	return g.params[[2]int{start, end}]
}
func (g *fakeGrammar) GlobalVariables() []grammar.AssignmentMatch { return g.globals }

// loadCRuleset builds a *ruleset.Ruleset from inline source/sink YAML,
// the same way pkg/ruleset's own tests do, so the engine is always
// exercised against a properly-constructed Ruleset (log included) rather
// than a bare struct literal.
func loadCRuleset(t *testing.T, sourceYAML, sinkYAML string) *ruleset.Ruleset {
	t.Helper()
	root := t.TempDir()
	writeRuleFile(t, root, "c/sources", "source.yaml", sourceYAML)
	writeRuleFile(t, root, "c/sinks", "sink.yaml", sinkYAML)
	rs, err := ruleset.Load(root, "c", nil)
	require.NoError(t, err)
	return rs
}

func writeRuleFile(t *testing.T, root, subdir, name, content string) {
	t.Helper()
	dir := root + "/" + subdir
	require.NoError(t, osMkdirAll(dir))
	require.NoError(t, osWriteFile(dir+"/"+name, content))
}

func osMkdirAll(dir string) error { return os.MkdirAll(dir, 0o755) }

func osWriteFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// TestSimpleTaint covers seed scenario 1: scanf writes into buf through
// its output argument, printf reads buf — exactly one taint, unsanitized.
func TestSimpleTaint(t *testing.T) {
	rs := loadCRuleset(t, `
null:
  Methods:
    - Methodname: scanf
      Parameters: [null, "$TAINT"]
      Comment: user input
`, `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: Format string vulnerability.
`)

	scanfCall := grammar.CallMatch{
		Ident: "scanf",
		Args: []grammar.ArgMatch{
			{Text: `"%s"`, Position: grammar.Position{Start: 16, End: 20}},
			{Text: "&buf", Position: grammar.Position{Start: 22, End: 26}},
		},
		Position: grammar.Position{Start: 10, End: 30},
	}
	printfCall := grammar.CallMatch{
		Ident:    "printf",
		Args:     []grammar.ArgMatch{{Text: "buf", Position: grammar.Position{Start: 47, End: 50}}},
		Position: grammar.Position{Start: 40, End: 55},
	}

	g := &fakeGrammar{
		lang:       "c",
		methodDefs: []grammar.MethodMatch{{Name: "main", Args: grammar.Position{0, 0}, Position: grammar.Position{0, 100}}},
		calls:      map[[2]int][]grammar.CallMatch{{0, 100}: {scanfCall, printfCall}},
		params:     map[[2]int]map[string]*string{{0, 0}: {}},
	}

	a := New(g, rs, false, nil)
	a.Run()

	main := a.Methods[1]
	require.Len(t, main.Taints, 1)
	taints := main.Taints["printf"]
	require.Len(t, taints, 1)
	assert.Equal(t, "Format string vulnerability.", taints[0].Comment)
	assert.Equal(t, rules.Position{Start: 40, End: 55}, taints[0].Position)
	assert.Nil(t, taints[0].Sanitizer)
}

// TestSanitizedTaint covers seed scenario 2: a rule-defined sanitizer
// call between the source and the sink downgrades the finding.
func TestSanitizedTaint(t *testing.T) {
	rs := loadCRuleset(t, `
null:
  Methods:
    - Methodname: scanf
      Parameters: [null, "$TAINT"]
      Comment: user input
`, `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: Format string vulnerability.
      Sanitizers:
        - null:
            Methods:
              - Methodname: test
                Parameters: ["$TAINT"]
                Comment: sanitizes
`)

	scanfCall := grammar.CallMatch{
		Ident: "scanf",
		Args: []grammar.ArgMatch{
			{Text: `"%s"`, Position: grammar.Position{Start: 16, End: 20}},
			{Text: "&buf", Position: grammar.Position{Start: 22, End: 26}},
		},
		Position: grammar.Position{Start: 10, End: 30},
	}
	testCall := grammar.CallMatch{
		Ident:    "test",
		Args:     []grammar.ArgMatch{{Text: "buf", Position: grammar.Position{Start: 33, End: 36}}},
		Position: grammar.Position{Start: 32, End: 38},
	}
	printfCall := grammar.CallMatch{
		Ident:    "printf",
		Args:     []grammar.ArgMatch{{Text: "buf", Position: grammar.Position{Start: 47, End: 50}}},
		Position: grammar.Position{Start: 40, End: 55},
	}

	g := &fakeGrammar{
		lang:       "c",
		methodDefs: []grammar.MethodMatch{{Name: "main", Args: grammar.Position{0, 0}, Position: grammar.Position{0, 100}}},
		calls:      map[[2]int][]grammar.CallMatch{{0, 100}: {scanfCall, testCall, printfCall}},
		params:     map[[2]int]map[string]*string{{0, 0}: {}},
	}

	a := New(g, rs, false, nil)
	a.Run()

	main := a.Methods[1]
	taints := main.Taints["printf"]
	require.Len(t, taints, 1)
	require.NotNil(t, taints[0].Sanitizer)
	assert.Equal(t, 0, taints[0].Sanitizer.Level)
	assert.Equal(t, "test", taints[0].Sanitizer.Methods[0].MethodName)
}

// TestIndirectSanitizerPromotion covers seed scenario 3: sanitize(p)
// internally calls test(p) (a level-0 rule sanitizer); sanitize should
// be promoted into a level-1 sanitizer, and a caller routing a tainted
// value through sanitize before the sink sees the promoted sanitizer.
func TestIndirectSanitizerPromotion(t *testing.T) {
	rs := loadCRuleset(t, `
null:
  Methods:
    - Methodname: scanf
      Parameters: [null, "$TAINT"]
      Comment: user input
`, `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: Format string vulnerability.
      Sanitizers:
        - null:
            Methods:
              - Methodname: test
                Parameters: ["$TAINT"]
                Comment: sanitizes
`)

	testCall := grammar.CallMatch{
		Ident:    "test",
		Args:     []grammar.ArgMatch{{Text: "p", Position: grammar.Position{Start: 10, End: 11}}},
		Position: grammar.Position{Start: 5, End: 15},
	}
	// f's window starts at 100; its call positions are relative to that
	// window, so they land at 105..165 once the engine shifts them.
	scanfCall := grammar.CallMatch{
		Ident: "scanf",
		Args: []grammar.ArgMatch{
			{Text: `"%s"`, Position: grammar.Position{Start: 10, End: 14}},
			{Text: "&buf", Position: grammar.Position{Start: 16, End: 20}},
		},
		Position: grammar.Position{Start: 5, End: 25},
	}
	sanitizeCall := grammar.CallMatch{
		Ident:    "sanitize",
		Args:     []grammar.ArgMatch{{Text: "buf", Position: grammar.Position{Start: 35, End: 38}}},
		Position: grammar.Position{Start: 30, End: 40},
	}
	printfCall := grammar.CallMatch{
		Ident:    "printf",
		Args:     []grammar.ArgMatch{{Text: "buf", Position: grammar.Position{Start: 55, End: 58}}},
		Position: grammar.Position{Start: 50, End: 65},
	}

	g := &fakeGrammar{
		lang: "c",
		methodDefs: []grammar.MethodMatch{
			{Name: "sanitize", Args: grammar.Position{0, 0}, Position: grammar.Position{0, 50}},
			{Name: "f", Args: grammar.Position{100, 100}, Position: grammar.Position{100, 250}},
		},
		calls: map[[2]int][]grammar.CallMatch{
			{0, 50}:    {testCall},
			{100, 250}: {scanfCall, sanitizeCall, printfCall},
		},
		params: map[[2]int]map[string]*string{
			{0, 0}:     {"p": nil},
			{100, 100}: {},
		},
	}

	a := New(g, rs, false, nil)
	a.Run()

	f := a.Methods[2]
	require.Equal(t, "f", f.MethodName)
	taints := f.Taints["printf"]
	require.Len(t, taints, 1)
	require.NotNil(t, taints[0].Sanitizer)
	assert.Equal(t, 1, taints[0].Sanitizer.Level)
	assert.Equal(t, "sanitize", taints[0].Sanitizer.Methods[0].MethodName)
}

// TestExclusivePathsProduceSingleTaint covers seed scenario 4: an if/else
// assigns buf from a tainted source on one branch and a literal on the
// other; the sink after the branch is reached on every path, but only
// one path's trace resolves to a source, so exactly one taint is found —
// not zero (masked by the other branch's shadowing assignment) and not
// one per enumerated path.
func TestExclusivePathsProduceSingleTaint(t *testing.T) {
	rs := loadCRuleset(t, `
null:
  Methods:
    - Methodname: get_input
      Parameters: []
      Comment: user input
`, `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: Format string vulnerability.
`)

	ifAssign := grammar.AssignmentMatch{
		Ident:    "buf",
		RHS:      &grammar.CallMatch{Ident: "get_input", Position: grammar.Position{Start: 22, End: 34}},
		Position: grammar.Position{Start: 20, End: 35},
	}
	elseAssign := grammar.AssignmentMatch{
		Ident:    "buf",
		RHSText:  `"safe"`,
		Position: grammar.Position{Start: 42, End: 55},
	}
	printfCall := grammar.CallMatch{
		Ident:    "printf",
		Args:     []grammar.ArgMatch{{Text: "buf", Position: grammar.Position{Start: 72, End: 75}}},
		Position: grammar.Position{Start: 70, End: 85},
	}

	g := &fakeGrammar{
		lang:        "c",
		methodDefs:  []grammar.MethodMatch{{Name: "main", Args: grammar.Position{0, 0}, Position: grammar.Position{0, 100}}},
		calls:       map[[2]int][]grammar.CallMatch{{0, 100}: {printfCall}},
		assignments: map[[2]int][]grammar.AssignmentMatch{{0, 100}: {ifAssign, elseAssign}},
		branches: map[[2]int][]grammar.BranchMatch{{0, 100}: {
			{Kind: grammar.KindIf, Position: grammar.Position{Start: 20, End: 40}},
			{Kind: grammar.KindAlternativeEnd, Position: grammar.Position{Start: 40, End: 60}},
		}},
		params: map[[2]int]map[string]*string{{0, 0}: {}},
	}

	a := New(g, rs, false, nil)
	a.Run()

	main := a.Methods[1]
	require.Len(t, main.Paths, 2)

	total := 0
	for _, records := range main.Taints {
		total += len(records)
	}
	assert.Equal(t, 1, total)
}

// TestCyclomaticComplexity covers seed scenario 5: complexity is
// edges - nodes + 2, as reported by the grammar's statement/edge counts.
func TestCyclomaticComplexity(t *testing.T) {
	rs := loadCRuleset(t, `
null:
  Methods:
    - Methodname: scanf
      Parameters: [null, "$TAINT"]
      Comment: user input
`, `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: Format string vulnerability.
`)

	g := &fakeGrammar{
		lang:       "c",
		methodDefs: []grammar.MethodMatch{{Name: "main", Args: grammar.Position{0, 0}, Position: grammar.Position{0, 100}}},
		stmtCount:  map[[2]int]int{{0, 100}: 4},
		edgeCount:  map[[2]int]int{{0, 100}: 7},
		params:     map[[2]int]map[string]*string{{0, 0}: {}},
	}

	a := New(g, rs, false, nil)
	a.Run()

	main := a.Methods[1]
	assert.Equal(t, 5, main.Complexity)
}

// TestClassInstanceSinkViaObjectNameFixup covers seed scenario 6: a
// sink rule scoped to a class ("$o = new C(); $o->sink(tainted)") only
// fires once the variable's runtime class is resolved via FixObjectNames
// and ResolveReceiver.
func TestClassInstanceSinkViaObjectNameFixup(t *testing.T) {
	rs := loadCRuleset(t, `
null:
  Methods:
    - Methodname: scanf
      Parameters: [null, "$TAINT"]
      Comment: user input
`, `
C:
  Methods:
    - Methodname: sink
      Parameters: ["$TAINT"]
      Comment: Class sink.
`)

	oAssign := grammar.AssignmentMatch{
		Ident:    "o",
		RHS:      &grammar.CallMatch{Ident: "C", Position: grammar.Position{Start: 12, End: 15}},
		Position: grammar.Position{Start: 10, End: 16},
	}
	scanfCall := grammar.CallMatch{
		Ident: "scanf",
		Args: []grammar.ArgMatch{
			{Text: `"%s"`, Position: grammar.Position{Start: 26, End: 30}},
			{Text: "&buf", Position: grammar.Position{Start: 32, End: 36}},
		},
		Position: grammar.Position{Start: 20, End: 40},
	}
	sinkCall := grammar.CallMatch{
		Object:   []string{"o"},
		Ident:    "sink",
		Args:     []grammar.ArgMatch{{Text: "buf", Position: grammar.Position{Start: 52, End: 55}}},
		Position: grammar.Position{Start: 50, End: 65},
	}

	g := &fakeGrammar{
		lang:        "c",
		classes:     map[string]int{"C": 0},
		methodDefs:  []grammar.MethodMatch{{Name: "main", Args: grammar.Position{0, 0}, Position: grammar.Position{0, 300}}},
		calls:       map[[2]int][]grammar.CallMatch{{0, 300}: {scanfCall, sinkCall}},
		assignments: map[[2]int][]grammar.AssignmentMatch{{0, 300}: {oAssign}},
		params:      map[[2]int]map[string]*string{{0, 0}: {}},
	}

	a := New(g, rs, false, nil)
	a.Run()

	main := a.Methods[1]
	taints := main.Taints["C.sink"]
	require.Len(t, taints, 1)
	assert.Equal(t, "Class sink.", taints[0].Comment)
}

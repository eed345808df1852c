package c

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrammar(t *testing.T, src string) *Grammar {
	t.Helper()
	g, err := New([]byte(src))
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g
}

func TestMethodDefinitions(t *testing.T) {
	src := `int add(int a, int b) {
    return a + b;
}

void greet(char *name) {
    printf(name);
}
`
	g := mustGrammar(t, src)
	defs := g.MethodDefinitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "add", defs[0].Name)
	assert.Equal(t, "greet", defs[1].Name)
	// Body/Args positions are absolute, non-empty windows within src.
	for _, d := range defs {
		assert.Less(t, d.Body.Start, d.Body.End)
		assert.Less(t, d.Args.Start, d.Args.End)
	}
}

func TestMethodCallsAndAssignments(t *testing.T) {
	src := `void f() {
    char buf[64];
    scanf("%s", &buf);
    printf(buf);
}
`
	g := mustGrammar(t, src)
	defs := g.MethodDefinitions()
	require.Len(t, defs, 1)
	body := defs[0].Body

	calls := g.MethodCalls(body.Start, body.End)
	require.Len(t, calls, 2)
	assert.Equal(t, "scanf", calls[0].Ident)
	assert.Equal(t, "printf", calls[1].Ident)
	require.Len(t, calls[0].Args, 2)
	require.Len(t, calls[1].Args, 1)
}

func TestMutuallyExclusivePositionsChain(t *testing.T) {
	src := `void f(int c) {
    if (c) {
        printf(a);
    } else if (c == 2) {
        printf(b);
    } else {
        printf("safe");
    }
}
`
	g := mustGrammar(t, src)
	defs := g.MethodDefinitions()
	require.Len(t, defs, 1)
	body := defs[0].Body

	branches := g.MutuallyExclusivePositions(body.Start, body.End)
	require.Len(t, branches, 3)
	assert.Equal(t, "if", string(branches[0].Kind))
	assert.Equal(t, "alternative", string(branches[1].Kind))
	assert.Equal(t, "alternative-end", string(branches[2].Kind))
}

func TestEdgeAndStatementCounts(t *testing.T) {
	// A single straight-line statement body: no controls, no branches.
	src := `void f() {
    printf("hi");
}
`
	g := mustGrammar(t, src)
	defs := g.MethodDefinitions()
	body := defs[0].Body

	stmts := g.StatementCount(body.Start, body.End)
	edges := g.EdgeCount(body.Start, body.End)
	assert.Equal(t, stmts, edges) // edges = 3*0 + 2*0 + statements
}

// TestCyclomaticComplexityOneIfOneWhile covers seed scenario 5 against
// the real tree-sitter grammar rather than a hand-authored fake: a body
// with one `if` and one `while` (the euclid shape) must yield complexity
// 5, not 7 — the bug being guarded against double-counts branch/loop
// nodes in StatementCount/EdgeCount's plain-statement term.
func TestCyclomaticComplexityOneIfOneWhile(t *testing.T) {
	src := `int euclid(int n, int m) {
    if (n > m) {
        int r = m;
        m = n;
        n = r;
    }
    int r = m % n;
    while (r != 0) {
        m = n;
        n = r;
        r = m % n;
    }
    return n;
}
`
	g := mustGrammar(t, src)
	defs := g.MethodDefinitions()
	require.Len(t, defs, 1)
	body := defs[0].Body

	nodes := g.StatementCount(body.Start, body.End)
	edges := g.EdgeCount(body.Start, body.End)
	complexity := edges - nodes + 2
	assert.Equal(t, 5, complexity)
}

func TestParametersExtractsAllNames(t *testing.T) {
	src := `int add(int a, int b) { return a + b; }`
	g := mustGrammar(t, src)
	defs := g.MethodDefinitions()
	require.Len(t, defs, 1)
	args := defs[0].Args

	params := g.Parameters(args.Start, args.End)
	require.Len(t, params, 2)
	_, hasA := params["a"]
	_, hasB := params["b"]
	assert.True(t, hasA)
	assert.True(t, hasB)
}

func TestClassDefinitionsStructSpecifier(t *testing.T) {
	src := `struct Point {
    int x;
    int y;
};

void f() {}
`
	g := mustGrammar(t, src)
	classes := g.ClassDefinitions()
	_, ok := classes["Point"]
	assert.True(t, ok)
}

func TestGlobalVariablesBeforeFirstMethod(t *testing.T) {
	src := `int counter = 0;

void f() {
    counter = counter + 1;
}
`
	g := mustGrammar(t, src)
	globals := g.GlobalVariables()
	require.Len(t, globals, 1)
	assert.Equal(t, "counter", globals[0].Ident)
}

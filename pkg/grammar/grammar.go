// Package grammar defines the capability surface the analysis engine
// consumes from a concrete per-language parser (spec §4.1). Grammars are
// pattern scanners over a tree-sitter concrete syntax tree, not full
// semantic parsers: they recognize calls, assignments, returns and
// branch constructs, deliberately nothing more.
package grammar

// Position is a half-open byte range [Start, End) into a query window.
// Helpers scoped to a method body return positions relative to that
// window's start; callers normalize to absolute file offsets by adding
// the window's start.
type Position struct {
	Start int
	End   int
}

// ShiftBy returns p translated by delta bytes, used to convert
// window-relative grammar positions to absolute file positions.
func (p Position) ShiftBy(delta int) Position {
	return Position{Start: p.Start + delta, End: p.End + delta}
}

// MatchKind tags a mutually_exclusive_positions entry with which
// syntactic role it plays.
type MatchKind string

const (
	KindIf             MatchKind = "if"
	KindAlternative    MatchKind = "alternative"
	KindAlternativeEnd MatchKind = "alternative-end"
)

// BranchMatch is one entry of mutually_exclusive_positions.
type BranchMatch struct {
	Kind     MatchKind
	Position Position
}

// MethodMatch is one entry of method_definitions: a function/method
// definition's name, parameter list text and body window.
type MethodMatch struct {
	Name     string
	Args     Position
	Body     Position
	Position Position
}

// CallMatch is one entry of method_calls: a call site's callee name,
// its receiver object-name components (empty for a free function call)
// and its argument windows in positional order.
type CallMatch struct {
	Object   []string
	Ident    string
	Args     []ArgMatch
	Position Position
}

// ArgMatch is one positional call argument: its raw text and, if the
// argument is itself a call, the nested CallMatch.
type ArgMatch struct {
	Text     string
	Position Position
	Nested   *CallMatch // non-nil when the argument is a call expression
}

// AssignmentMatch is one entry of assignments: an lvalue decomposed
// into object-name components plus identifier, and the RHS text/window.
type AssignmentMatch struct {
	Object   []string
	Ident    string
	RHSText  string
	RHS      *CallMatch // non-nil when the RHS is a single call expression
	Position Position
}

// ControlMatch is one entry of control_structures: loop keywords that
// contribute edges to cyclomatic complexity (conditionals are counted
// through MutuallyExclusivePositions instead).
type ControlMatch struct {
	Keyword  string
	Position Position
}

// ReturnMatch is one entry of returns: a return statement and its
// expression text, if any.
type ReturnMatch struct {
	ExprText string
	Expr     *CallMatch
	Position Position
}

// DeclarationMatch is one entry of declarations: a bare variable
// declaration with no initializer (C's `int x;`, PHP's `public $x;`).
type DeclarationMatch struct {
	Object   []string
	Ident    string
	Position Position
}

// Grammar is the capability set exposed to the engine (spec §4.1). All
// window-scoped queries take an absolute [start,end) byte range and
// return positions relative to that window's start, except where noted.
// Re-implementations must preserve these contracts bit-for-bit for an
// existing rule set to keep matching identically.
type Grammar interface {
	// Language reports the module name this grammar serves (e.g. "c").
	Language() string

	// ClassDefinitions returns every class/struct name mapped to its
	// absolute start offset, as an unordered map. The C grammar reports
	// struct names here.
	ClassDefinitions() map[string]int

	// SelfIdentifier returns the receiver keyword this language's
	// methods use to refer to their own instance ("self", "this", or ""
	// if the language has none).
	SelfIdentifier() string

	// StatementCount counts statements, loop keywords and mutually
	// exclusive blocks in [start,end).
	StatementCount(start, end int) int

	// EdgeCount computes 3*controls + 2*mutually_exclusive + statements
	// over [start,end).
	EdgeCount(start, end int) int

	// MutuallyExclusivePositions returns every if/elif-or-alternative/
	// else chain link within [start,end), in textual order.
	MutuallyExclusivePositions(start, end int) []BranchMatch

	// MethodDefinitions returns every function/method definition in the
	// whole file, in textual order. Restartable: callers may invoke it
	// more than once and get the same sequence.
	MethodDefinitions() []MethodMatch

	// MethodCalls returns every call expression within [start,end).
	MethodCalls(start, end int) []CallMatch

	// Assignments returns every assignment within [start,end).
	Assignments(start, end int) []AssignmentMatch

	// ControlStructures returns every loop keyword site within
	// [start,end).
	ControlStructures(start, end int) []ControlMatch

	// Returns returns every return statement within [start,end).
	Returns(start, end int) []ReturnMatch

	// Declarations returns every bare variable declaration (no
	// initializer) within [start,end).
	Declarations(start, end int) []DeclarationMatch

	// Parameters returns a method's parameter list as name -> default
	// literal (nil if the parameter has no default), skipping a leading
	// parameter equal to SelfIdentifier() when present.
	Parameters(start, end int) map[string]*string

	// GlobalVariables returns every declaration/assignment outside any
	// method body.
	GlobalVariables() []AssignmentMatch
}

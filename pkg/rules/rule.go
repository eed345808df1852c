package rules

import "fmt"

// Taint is the rule-file sentinel marking a taint-carrying parameter
// position. Call matching accepts any argument there. On a source it is
// the argument the call writes tainted data into; on a sink a taint is
// recorded only when the argument there traces back to a source on the
// same path.
const Taint = "$TAINT"

// MethodPattern is one entry in a Rule's Methods list: a method name, its
// positional parameter pattern (nil entries are wildcards, the Taint
// sentinel marks a taint-carrying position (see Taint), any other value must match
// the literal argument text) and a human-readable comment.
//
// Invariant: MethodName, Parameters and Comment are always populated —
// callers must not construct a zero-value MethodPattern directly; use
// NewMethodPattern or the loader.
type MethodPattern struct {
	MethodName string
	Parameters []*string
	Comment    string

	// Sanitizers is only meaningful on a Sink's method patterns; it is
	// owned by the Sink and mutated only through Ruleset.AddSanitizer.
	Sanitizers []*Sanitizer
}

// NewMethodPattern validates and constructs a MethodPattern.
func NewMethodPattern(name string, parameters []*string, comment string) (MethodPattern, error) {
	if name == "" {
		return MethodPattern{}, fmt.Errorf("rules: method pattern missing Methodname")
	}
	if parameters == nil {
		return MethodPattern{}, fmt.Errorf("rules: method pattern %q missing Parameters", name)
	}
	if comment == "" {
		return MethodPattern{}, fmt.Errorf("rules: method pattern %q missing Comment", name)
	}
	return MethodPattern{MethodName: name, Parameters: parameters, Comment: comment}, nil
}

// Equal reports whether two method patterns describe the identical
// match surface (method name and positional parameter pattern); used by
// Ruleset's duplicate-rejection logic. Comment and Sanitizers are not
// part of identity.
func (p MethodPattern) Equal(other MethodPattern) bool {
	if p.MethodName != other.MethodName {
		return false
	}
	if len(p.Parameters) != len(other.Parameters) {
		return false
	}
	for i := range p.Parameters {
		a, b := p.Parameters[i], other.Parameters[i]
		if (a == nil) != (b == nil) {
			return false
		}
		if a != nil && *a != *b {
			return false
		}
	}
	return true
}

func methodsEqual(a, b []MethodPattern) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ruleIdentity is shared by Source, Sink and Sanitizer: an optional
// receiver constraint and an ordered list of method patterns.
type ruleIdentity struct {
	ObjectName   *Identifier
	HasObject    bool
	Methods      []MethodPattern
}

// MatchesObject reports whether this rule's object-name constraint
// admits the given receiver identifier (object-name components only).
// An unset ObjectName matches any receiver, including a free function.
func (r ruleIdentity) MatchesObject(object []string) bool {
	if !r.HasObject {
		return true
	}
	want := append(append([]string{}, r.ObjectName.Object...), r.ObjectName.Ident)
	if len(want) != len(object) {
		return false
	}
	for i := range want {
		if want[i] != object[i] {
			return false
		}
	}
	return true
}

// Source describes a call whose return value or side effect introduces
// untrusted data into the program.
type Source struct {
	ruleIdentity
}

// Sink describes a call whose arguments, if tainted, cause a security
// issue. Each method pattern owns its own mutable Sanitizers list.
type Sink struct {
	ruleIdentity
}

// Sanitizer describes a call that neutralizes taint on a value before it
// reaches a sink. Level is the indirection depth: rule-origin sanitizers
// are level 0, sanitizers discovered by promotion are level+1 of the
// sanitizer they chained through.
type Sanitizer struct {
	ruleIdentity
	Level int
}

func newIdentity(objectName *Identifier, methods []MethodPattern) (ruleIdentity, error) {
	if len(methods) == 0 {
		return ruleIdentity{}, fmt.Errorf("rules: definition has no Methods")
	}
	id := ruleIdentity{Methods: methods}
	if objectName != nil {
		id.ObjectName = objectName
		id.HasObject = true
	}
	return id, nil
}

// NewSource constructs a Source rule.
func NewSource(objectName *Identifier, methods []MethodPattern) (*Source, error) {
	id, err := newIdentity(objectName, methods)
	if err != nil {
		return nil, err
	}
	return &Source{ruleIdentity: id}, nil
}

// NewSink constructs a Sink rule. Each method's Sanitizers slice is
// initialized to empty if the loader did not populate it, so that Sink
// exclusively owns a (possibly empty) Sanitizer list per method.
func NewSink(objectName *Identifier, methods []MethodPattern) (*Sink, error) {
	id, err := newIdentity(objectName, methods)
	if err != nil {
		return nil, err
	}
	for i := range id.Methods {
		if id.Methods[i].Sanitizers == nil {
			id.Methods[i].Sanitizers = []*Sanitizer{}
		}
	}
	return &Sink{ruleIdentity: id}, nil
}

// NewSanitizer constructs a Sanitizer rule at the given indirection level.
func NewSanitizer(objectName *Identifier, methods []MethodPattern, level int) (*Sanitizer, error) {
	id, err := newIdentity(objectName, methods)
	if err != nil {
		return nil, err
	}
	return &Sanitizer{ruleIdentity: id, Level: level}, nil
}

// ObjectNameOrNil returns r's object-name constraint, or nil if r
// matches any receiver. Exported for callers (e.g. Ruleset) that only
// have the embedded ruleIdentity's promoted fields to work with.
func ObjectNameOrNil(hasObject bool, objectName *Identifier) *Identifier {
	if !hasObject {
		return nil
	}
	return objectName
}

// SameIdentity reports whether two rules have the same object-name
// constraint and identical method pattern list — the duplicate test
// Ruleset uses before appending a promoted rule.
func SameIdentity(objA *Identifier, methodsA []MethodPattern, objB *Identifier, methodsB []MethodPattern) bool {
	if (objA == nil) != (objB == nil) {
		return false
	}
	if objA != nil && !objA.Equal(*objB) {
		return false
	}
	return methodsEqual(methodsA, methodsB)
}

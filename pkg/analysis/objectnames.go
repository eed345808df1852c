package analysis

import (
	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// FixObjectNames scans m's recorded assignments for lvalues whose RHS is
// a call to a known class constructor (class_definitions() contains the
// callee name) and remembers that the lvalue's object-name prefix should
// resolve to that class for every subsequent read (spec §4.4.3). The
// mapping is consulted by ResolveReceiver during matching.
func (a *Analysis) FixObjectNames(m *method.Method) {
	classes := a.Grammar.ClassDefinitions()
	if len(classes) == 0 {
		return
	}
	for key, records := range m.Variables {
		for _, rec := range records {
			call, ok := rec.Assignment.(rules.CallExpr)
			if !ok {
				continue
			}
			if _, isClass := classes[call.Call.Name.Ident]; isClass {
				a.classObjectNames[key] = call.Call.Name.Ident
			}
		}
	}
}

// ResolveReceiver rewrites id's object-name prefix using any class
// instantiation recorded by FixObjectNames, giving the matching step a
// uniform receiver identity across instantiate-then-call patterns.
func (a *Analysis) ResolveReceiver(id rules.Identifier) rules.Identifier {
	if len(id.Object) == 0 {
		return id
	}
	leaf := id.Object[len(id.Object)-1]
	if class, ok := a.classObjectNames[identifierKey(nil, leaf)]; ok {
		object := append(append([]string{}, id.Object[:len(id.Object)-1]...), class)
		return id.WithObject(object)
	}
	return id
}

// Package main - generator.go renders parsed framework methods into this
// repo's source-rule YAML schema (spec §6), replacing the teacher's
// (never-implemented) Go-pattern-file generator.
package main

import (
	"gopkg.in/yaml.v3"
)

// yamlMethodPattern mirrors pkg/rules.yamlMethodPattern's on-disk shape;
// duplicated here (rather than imported) because that type is
// unexported — generator and loader independently agree on the schema
// the same way a producer and consumer of a wire format do.
type yamlMethodPattern struct {
	Methodname string    `yaml:"Methodname"`
	Parameters []*string `yaml:"Parameters"`
	Comment    string    `yaml:"Comment"`
}

// Generator turns ParsedMethod lists into a Go struct that marshals to
// the {ObjectName: {Methods: [...]}} document pkg/rules.LoadSourceFile
// expects.
type Generator struct{}

// NewGenerator constructs a Generator. Stateless; kept as a type to
// mirror the teacher's Fetcher/Parser constructor pattern.
func NewGenerator() *Generator {
	return &Generator{}
}

// methodPatterns builds the two-arity best-effort pattern pair for one
// parsed method: a zero-argument call and a single-argument call with a
// wildcard key, covering e.g. both `$request->input()` and
// `$request->input('key')`. Regex-only parsing can't recover a method's
// true arity, so this is a deliberate approximation; see DESIGN.md.
func methodPatterns(framework string, m ParsedMethod) []yamlMethodPattern {
	sourceType := InferSourceType(m.Name)
	comment := InferDescription(framework, m.Name, m.IsProperty, sourceType)

	zeroArg := yamlMethodPattern{
		Methodname: m.Name,
		Parameters: []*string{},
		Comment:    comment,
	}
	oneArg := yamlMethodPattern{
		Methodname: m.Name,
		Parameters: []*string{nil},
		Comment:    comment,
	}
	return []yamlMethodPattern{zeroArg, oneArg}
}

// GenerateSourceRule renders a full rule document for objectName (a PHP
// class identifier, e.g. "Illuminate.Http.Request") from methods.
// pkg/rules' method patterns only match call expressions, not bare
// property access, so a ParsedMethod marked IsProperty (Symfony's
// `$request->query`, surfaced as a synthetic zero-arg entry by
// symfonyPropertyMethods) is approximated as a single zero-argument
// call pattern rather than the zero/one-arg pair a real method gets
// (see DESIGN.md).
func (g *Generator) GenerateSourceRule(objectName string, methods []ParsedMethod) ([]byte, error) {
	doc := map[string]any{}
	var patterns []yamlMethodPattern
	for _, m := range methods {
		if m.IsProperty {
			sourceType := InferSourceType(m.Name)
			patterns = append(patterns, yamlMethodPattern{
				Methodname: m.Name,
				Parameters: []*string{},
				Comment:    InferDescription(m.ClassName, m.Name, true, sourceType),
			})
			continue
		}
		patterns = append(patterns, methodPatterns(m.ClassName, m)...)
	}
	doc[objectName] = map[string]any{"Methods": patterns}
	return yaml.Marshal(doc)
}

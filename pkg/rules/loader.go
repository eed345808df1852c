package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlMethodPattern mirrors one entry of a rule file's `Methods` list
// (spec §6). Parameters elements are null (wildcard), the literal
// "$TAINT" sentinel, or an exact-match literal string.
type yamlMethodPattern struct {
	Methodname string          `yaml:"Methodname"`
	Parameters []*string       `yaml:"Parameters"`
	Comment    string          `yaml:"Comment"`
	Sanitizers []yaml.Node     `yaml:"Sanitizers"`
}

// decodeRuleBody reads the single top-level mapping
// `{ObjectName_or_null: {Methods: [...]}}` from a YAML document node,
// returning the (possibly absent) object name and the method patterns.
// Matches source.py/sink.py/sanitizer.py's `next(iter(definition))`.
func decodeRuleBody(doc *yaml.Node) (*Identifier, []MethodPattern, error) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, nil, fmt.Errorf("rules: empty document")
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode || len(root.Content) < 2 {
		return nil, nil, fmt.Errorf("rules: expected a single {ObjectName: {Methods: [...]}} mapping")
	}

	keyNode, valueNode := root.Content[0], root.Content[1]

	var objectName *Identifier
	if keyNode.Tag != "!!null" && keyNode.Value != "" && strings.ToLower(keyNode.Value) != "null" {
		id := ParseIdentifier(keyNode.Value)
		objectName = &id
	}

	var body struct {
		Methods []yamlMethodPattern `yaml:"Methods"`
	}
	if err := valueNode.Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("rules: decoding method list: %w", err)
	}

	methods := make([]MethodPattern, 0, len(body.Methods))
	for _, m := range body.Methods {
		pattern, err := NewMethodPattern(m.Methodname, m.Parameters, m.Comment)
		if err != nil {
			return nil, nil, err
		}
		for _, sanitizerNode := range m.Sanitizers {
			sanObj, sanMethods, err := decodeRuleBody(&sanitizerNode)
			if err != nil {
				return nil, nil, fmt.Errorf("rules: decoding nested sanitizer: %w", err)
			}
			sanitizer, err := NewSanitizer(sanObj, sanMethods, 0)
			if err != nil {
				return nil, nil, err
			}
			pattern.Sanitizers = append(pattern.Sanitizers, sanitizer)
		}
		methods = append(methods, pattern)
	}
	return objectName, methods, nil
}

// LoadSourceFile parses a single source rule file.
func LoadSourceFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rules: parsing %s: %w", path, err)
	}
	objectName, methods, err := decodeRuleBody(&doc)
	if err != nil {
		return nil, fmt.Errorf("rules: invalid source rule %s: %w", path, err)
	}
	return NewSource(objectName, methods)
}

// LoadSinkFile parses a single sink rule file.
func LoadSinkFile(path string) (*Sink, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rules: parsing %s: %w", path, err)
	}
	objectName, methods, err := decodeRuleBody(&doc)
	if err != nil {
		return nil, fmt.Errorf("rules: invalid sink rule %s: %w", path, err)
	}
	return NewSink(objectName, methods)
}

// WalkRuleFiles walks dir for *.yaml/*.yml files, in deterministic
// (lexical) order so that loading is reproducible across runs.
func WalkRuleFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Package main - frameworks.go defines framework source URLs and method mappings
package main

// FrameworkSource defines a source file to fetch from GitHub
type FrameworkSource struct {
	URL       string
	ClassName string
}

// FrameworkDefinition defines a framework's sources and mapping config.
// Trimmed to the fields genpatterns actually reads (Name for error
// messages, Sources to fetch, CarrierClass as the generated rule's
// object name) — the teacher's wider metadata (language tag, class-match
// regex, detection globs) had no reader anywhere in this tool and was
// dropped rather than carried as inert struct fields; see DESIGN.md.
type FrameworkDefinition struct {
	Name         string
	Sources      []FrameworkSource
	CarrierClass string
}

// Frameworks defines all supported frameworks
var Frameworks = map[string]*FrameworkDefinition{
	"laravel": {
		Name:         "laravel",
		CarrierClass: "Illuminate\\Http\\Request",
		Sources: []FrameworkSource{
			{URL: "https://raw.githubusercontent.com/illuminate/http/master/Concerns/InteractsWithInput.php", ClassName: "InteractsWithInput"},
			{URL: "https://raw.githubusercontent.com/illuminate/http/master/Request.php", ClassName: "Request"},
			{URL: "https://raw.githubusercontent.com/illuminate/http/master/Concerns/InteractsWithFlashData.php", ClassName: "InteractsWithFlashData"},
		},
	},
	"symfony": {
		Name:         "symfony",
		CarrierClass: "Symfony\\Component\\HttpFoundation\\Request",
		Sources: []FrameworkSource{
			{URL: "https://raw.githubusercontent.com/symfony/http-foundation/7.3/ParameterBag.php", ClassName: "ParameterBag"},
			{URL: "https://raw.githubusercontent.com/symfony/http-foundation/7.3/InputBag.php", ClassName: "InputBag"},
			{URL: "https://raw.githubusercontent.com/symfony/http-foundation/7.3/Request.php", ClassName: "Request"},
		},
	},
}

// SymfonyPropertyMappings is the set of Symfony Request public
// properties genpatterns surfaces as synthetic source methods; only
// membership is consulted (main.go's symfonyPropertyMethods), so this
// is a plain set rather than the teacher's unused-value MethodMapping
// map (InferSourceType/InferDescription in inference.go independently
// recompute the source type and comment from the property name).
var SymfonyPropertyMappings = map[string]bool{
	"query":      true,
	"request":    true,
	"cookies":    true,
	"headers":    true,
	"files":      true,
	"server":     true,
	"attributes": true,
}

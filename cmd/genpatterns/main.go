// Command genpatterns fetches framework request-object sources from
// GitHub and emits source-rule YAML files for pkg/ruleset to load,
// replacing the teacher's (never-finished) Go-pattern-file generator.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var outputDir string
	var framework string

	cmd := &cobra.Command{
		Use:   "genpatterns",
		Short: "Generate source-rule YAML for framework request objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(outputDir, framework)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory for generated rule files")
	cmd.Flags().StringVar(&framework, "framework", "", "Generate for a specific framework (laravel, symfony); empty means all")
	return cmd
}

func run(outputDir, framework string) error {
	fetcher := NewFetcher(30 * time.Second)
	parser := NewParser()
	generator := NewGenerator()

	frameworks := []string{"laravel", "symfony"}
	if framework != "" {
		frameworks = []string{framework}
	}

	for _, fwName := range frameworks {
		fw, ok := Frameworks[fwName]
		if !ok {
			return fmt.Errorf("unknown framework: %s", fwName)
		}

		fmt.Printf("Fetching %s sources...\n", fwName)
		sources, err := fetcher.FetchFrameworkSources(fw)
		if err != nil {
			return fmt.Errorf("fetch error: %w", err)
		}

		var methods []ParsedMethod
		for className, src := range sources {
			methods = append(methods, parser.ParseMethods(src, className)...)
		}
		methods = filterExcluded(methods)
		if fwName == "symfony" {
			methods = append(methods, symfonyPropertyMethods(parser, sources)...)
		}

		objectName := strings.ReplaceAll(fw.CarrierClass, `\`, ".")
		content, err := generator.GenerateSourceRule(objectName, methods)
		if err != nil {
			return fmt.Errorf("generate error: %w", err)
		}

		outputPath := filepath.Join(outputDir, fwName+".yaml")
		if err := os.WriteFile(outputPath, content, 0644); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Done!")
	return nil
}

// symfonyPropertyMethods maps Symfony's public ParameterBag-typed
// properties to a synthetic ParsedMethod so they flow through the same
// YAML rendering path as method calls (approximating bag property
// access as a zero-argument accessor; see DESIGN.md).
func symfonyPropertyMethods(parser *Parser, sources map[string]string) []ParsedMethod {
	src, ok := sources["Request"]
	if !ok {
		return nil
	}
	var out []ParsedMethod
	for _, p := range parser.ParseProperties(src, "Request") {
		if _, mapped := SymfonyPropertyMappings[p.Name]; mapped {
			out = append(out, p)
		}
	}
	return out
}

// filterExcluded removes methods that are in the exclusion list.
func filterExcluded(methods []ParsedMethod) []ParsedMethod {
	var filtered []ParsedMethod
	for _, m := range methods {
		if !IsExcluded(m.Name) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

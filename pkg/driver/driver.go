// Package driver orchestrates a full taintalyzer run: discovering files,
// detecting each file's module, building the right Grammar, loading (and
// reusing) each module's Ruleset, and running Analysis over every file —
// the Go port of main.py's find_files/analyze_files (spec §6).
package driver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/taintalyzing/engine/pkg/analysis"
	"github.com/taintalyzing/engine/pkg/analysiscache"
	"github.com/taintalyzing/engine/pkg/config"
	"github.com/taintalyzing/engine/pkg/detect"
	"github.com/taintalyzing/engine/pkg/grammar"
	grammarc "github.com/taintalyzing/engine/pkg/grammar/c"
	grammarphp "github.com/taintalyzing/engine/pkg/grammar/php"
	grammarpython "github.com/taintalyzing/engine/pkg/grammar/python"
	"github.com/taintalyzing/engine/pkg/inputfile"
	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/ruleset"
)

// grammarFactory builds a Grammar from a file's raw bytes for one
// module. Registered per supported language (spec §4.1's per-language
// Grammar implementations).
type grammarFactory func(source []byte) (grammar.Grammar, error)

var grammarFactories = map[string]grammarFactory{
	"c":      func(src []byte) (grammar.Grammar, error) { return grammarc.New(src) },
	"php":    func(src []byte) (grammar.Grammar, error) { return grammarphp.New(src) },
	"python": func(src []byte) (grammar.Grammar, error) { return grammarpython.New(src) },
}

// FindFiles yields every file under path (itself, if path is a single
// file), skipping any whose path matches one of the exclude regular
// expressions (main.py's find_files).
func FindFiles(path string, exclude []string) ([]string, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))
	for _, pattern := range exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("driver: invalid exclude pattern %q: %w", pattern, err)
		}
		patterns = append(patterns, re)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		for _, re := range patterns {
			if re.MatchString(p) {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("driver: walking %q: %w", path, err)
	}
	return files, nil
}

// Result is one analyzed file's outcome: the module detected for it, the
// InputFile used to resolve line numbers, and the fully analyzed methods.
type Result struct {
	Path    string
	Module  string
	File    *inputfile.InputFile
	Methods []*method.Method
}

// Run executes a full analysis pass over cfg.Path, mirroring
// analyze_files: files sharing a module reuse one Ruleset so promoted
// rules discovered analyzing one file persist for the rest.
func Run(cfg config.Config, log *slog.Logger) ([]Result, error) {
	if log == nil {
		log = slog.Default()
	}

	detectionPath := filepath.Join(cfg.ModulesRoot, "detection.txt")
	table, err := detect.Load(detectionPath)
	if err != nil {
		return nil, fmt.Errorf("driver: loading detection table: %w", err)
	}

	files, err := FindFiles(cfg.Path, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	var cache *analysiscache.Cache
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("driver: creating cache dir: %w", err)
		}
		cache, err = analysiscache.Open(filepath.Join(cfg.CacheDir, "analysis.db"))
		if err != nil {
			log.Error("failed to open analysis cache, continuing without it", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	rulesets := map[string]*ruleset.Ruleset{}
	var results []Result

	for _, path := range files {
		log.Info("processing file", "path", path)
		module := table.Detect(path, cfg.Fallback)
		if module == "" {
			log.Warn("could not detect module, skipping", "path", path)
			continue
		}

		factory, ok := grammarFactories[module]
		if !ok {
			log.Error("no grammar implementation for module", "module", module, "path", path)
			continue
		}

		f := inputfile.New(path)
		content, err := f.Content()
		if err != nil {
			log.Error("failed to read file", "path", path, "error", err)
			continue
		}

		rs, ok := rulesets[module]
		if !ok {
			rs, err = ruleset.Load(cfg.ModulesRoot, module, log)
			if err != nil {
				log.Error("failed to load ruleset", "module", module, "error", err)
				continue
			}
			rulesets[module] = rs
		}

		contentHash := analysiscache.ContentHash(content)
		if cache != nil {
			if findings, hit, err := cache.Lookup(contentHash, rs.Fingerprint); err != nil {
				log.Warn("analysis cache lookup failed, re-analyzing", "path", path, "error", err)
			} else if hit {
				log.Debug("analysis cache hit, skipping re-analysis", "path", path)
				results = append(results, Result{Path: path, Module: module, File: f, Methods: analysiscache.Rehydrate(findings)})
				continue
			}
		}

		g, err := factory(content)
		if err != nil {
			log.Error("failed to parse file", "path", path, "error", err)
			continue
		}

		log.Info("starting analysis", "path", path, "module", module)
		run := analysis.New(g, rs, cfg.Lazy, log)
		run.Run()

		if cache != nil {
			var findings []analysiscache.Finding
			for _, m := range run.Methods {
				findings = append(findings, analysiscache.Summarize(m)...)
			}
			if err := cache.Store(contentHash, rs.Fingerprint, findings); err != nil {
				log.Warn("failed to persist analysis cache entry", "path", path, "error", err)
			}
		}

		results = append(results, Result{Path: path, Module: module, File: f, Methods: run.Methods})
	}

	return results, nil
}

// Package ruleset holds the mutable per-language source/sink/sanitizer
// lists consumed by the analysis engine, grounded on ruleset.py: rules
// are loaded once from disk and then only ever appended to, notifying
// registered observers whenever a promoted rule is added (spec §4.3).
package ruleset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// Observer is notified whenever a new source, sink or sanitizer is
// appended to a Ruleset. Notification order is strict FIFO registration
// order (spec §5).
type Observer interface {
	Update(m *method.Method, changedSanitizer, newSource bool)
}

// Ruleset holds all sources and sinks for one language module.
type Ruleset struct {
	Module string

	Sources []*rules.Source
	Sinks   []*rules.Sink

	// Fingerprint is a content hash of every rule file loaded for this
	// module, stable across process runs as long as none of them
	// change. Used by pkg/analysiscache to key cached findings against
	// the ruleset that produced them, so an edited rule file correctly
	// invalidates stale cache entries.
	Fingerprint string

	observers []Observer
	log       *slog.Logger
}

// Load constructs a Ruleset for module, reading every rule file under
// modules/<module>/sources and modules/<module>/sinks (spec §6). A
// malformed rule file aborts the load with an error — Ruleset.Load never
// returns a partially-populated Ruleset.
func Load(modulesRoot, module string, log *slog.Logger) (*Ruleset, error) {
	if log == nil {
		log = slog.Default()
	}
	rs := &Ruleset{Module: module, log: log}
	hasher := sha256.New()

	sourcesDir := filepath.Join(modulesRoot, module, "sources")
	sourceFiles, err := rules.WalkRuleFiles(sourcesDir)
	if err != nil {
		return nil, fmt.Errorf("ruleset: listing sources for %q: %w", module, err)
	}
	for _, path := range sourceFiles {
		log.Debug("loading source from file", "path", path)
		source, err := rules.LoadSourceFile(path)
		if err != nil {
			return nil, fmt.Errorf("ruleset: invalid source file: %w", err)
		}
		rs.Sources = append(rs.Sources, source)
		if err := hashRuleFile(hasher, path); err != nil {
			return nil, fmt.Errorf("ruleset: fingerprinting %q: %w", path, err)
		}
	}

	sinksDir := filepath.Join(modulesRoot, module, "sinks")
	sinkFiles, err := rules.WalkRuleFiles(sinksDir)
	if err != nil {
		return nil, fmt.Errorf("ruleset: listing sinks for %q: %w", module, err)
	}
	for _, path := range sinkFiles {
		log.Debug("loading sink from file", "path", path)
		sink, err := rules.LoadSinkFile(path)
		if err != nil {
			return nil, fmt.Errorf("ruleset: invalid sink file: %w", err)
		}
		rs.Sinks = append(rs.Sinks, sink)
		if err := hashRuleFile(hasher, path); err != nil {
			return nil, fmt.Errorf("ruleset: fingerprinting %q: %w", path, err)
		}
	}

	rs.Fingerprint = hex.EncodeToString(hasher.Sum(nil))
	return rs, nil
}

// hashRuleFile feeds a rule file's path and content into hasher, in the
// deterministic (lexical) order WalkRuleFiles already returns its
// results, so Fingerprint changes when a rule file's path or content
// does (or a rule file is added or removed).
func hashRuleFile(hasher interface{ Write([]byte) (int, error) }, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	hasher.Write([]byte(path))
	hasher.Write(content)
	return nil
}

// AddSource appends a new source rule if no existing source shares its
// object name and method list, then notifies observers with
// newSource=true.
func (rs *Ruleset) AddSource(m *method.Method, objectName *rules.Identifier, methods []rules.MethodPattern) (*rules.Source, bool) {
	for _, existing := range rs.Sources {
		if rules.SameIdentity(rules.ObjectNameOrNil(existing.HasObject, existing.ObjectName), existing.Methods, objectName, methods) {
			return existing, false
		}
	}
	newSource, err := rules.NewSource(objectName, methods)
	if err != nil {
		rs.log.Warn("rejected malformed promoted source", "error", err)
		return nil, false
	}
	rs.Sources = append(rs.Sources, newSource)
	rs.log.Debug("added a new source, notifying observers")
	rs.notifyObservers(m, false, true)
	return newSource, true
}

// AddSink appends a new sink rule if no existing sink shares its object
// name and method list, then notifies observers.
func (rs *Ruleset) AddSink(m *method.Method, objectName *rules.Identifier, methods []rules.MethodPattern) (*rules.Sink, bool) {
	for _, existing := range rs.Sinks {
		if rules.SameIdentity(rules.ObjectNameOrNil(existing.HasObject, existing.ObjectName), existing.Methods, objectName, methods) {
			return existing, false
		}
	}
	newSink, err := rules.NewSink(objectName, methods)
	if err != nil {
		rs.log.Warn("rejected malformed promoted sink", "error", err)
		return nil, false
	}
	rs.Sinks = append(rs.Sinks, newSink)
	rs.log.Debug("added a new sink, notifying observers")
	rs.notifyObservers(m, false, false)
	return newSink, true
}

// AddSanitizer appends a sanitizer to sink.Methods[methodIdx].Sanitizers
// unless a duplicate (same object name and methods) is already present,
// then notifies observers with changedSanitizer=true.
func (rs *Ruleset) AddSanitizer(m *method.Method, sink *rules.Sink, methodIdx int, objectName *rules.Identifier, methods []rules.MethodPattern, level int) (*rules.Sanitizer, bool) {
	if methodIdx < 0 || methodIdx >= len(sink.Methods) {
		return nil, false
	}
	for _, existing := range sink.Methods[methodIdx].Sanitizers {
		if rules.SameIdentity(rules.ObjectNameOrNil(existing.HasObject, existing.ObjectName), existing.Methods, objectName, methods) {
			return existing, false
		}
	}
	newSanitizer, err := rules.NewSanitizer(objectName, methods, level)
	if err != nil {
		rs.log.Warn("rejected malformed promoted sanitizer", "error", err)
		return nil, false
	}
	sink.Methods[methodIdx].Sanitizers = append(sink.Methods[methodIdx].Sanitizers, newSanitizer)
	rs.log.Debug("added a new sanitizer, notifying observers")
	rs.notifyObservers(m, true, false)
	return newSanitizer, true
}

// RegisterObserver registers o to receive update notifications. Order of
// registration determines notification order.
func (rs *Ruleset) RegisterObserver(o Observer) {
	rs.observers = append(rs.observers, o)
}

func (rs *Ruleset) notifyObservers(m *method.Method, changedSanitizer, newSource bool) {
	for _, o := range rs.observers {
		o.Update(m, changedSanitizer, newSource)
	}
}


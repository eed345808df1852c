// Package analysiscache persists per-file taint-analysis outcomes on
// disk so that re-running taintalyzer over an unchanged tree skips
// re-analyzing files whose content and ruleset fingerprint haven't
// changed. This is the repo's one feature beyond spec.md's explicit
// scope (see DESIGN.md); it backs onto github.com/mattn/go-sqlite3,
// which the teacher repo imports but never calls.
package analysiscache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

// Finding is a denormalized snapshot of one reportable fact about a
// method, flattened out of method.Method's pointer-keyed rule maps
// (*rules.Source/*rules.Sink/*rules.Sanitizer aren't meaningfully
// cacheable across runs: a fresh Ruleset load produces fresh pointers).
// Only what pkg/report actually renders is kept.
type Finding struct {
	MethodName       string
	Start, End       int
	Complexity       int
	TaintCallee      string
	TaintPosition    rules.Position
	TaintComment     string
	SanitizerLevel   int // -1 if unsanitized
	IsSink           bool
	SinkCallee       string
	SinkPosition     rules.Position
}

// Cache is a handle to the on-disk sqlite database backing the cache.
type Cache struct {
	db *sql.DB
}

// Open creates or opens the cache database at path, creating its schema
// if absent.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("analysiscache: opening %q: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS analysis_cache (
		content_hash TEXT NOT NULL,
		ruleset_fingerprint TEXT NOT NULL,
		findings_json BLOB NOT NULL,
		PRIMARY KEY (content_hash, ruleset_fingerprint)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("analysiscache: creating schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// ContentHash returns the cache key for a file's raw bytes.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Lookup returns previously cached findings for (contentHash,
// rulesetFingerprint), or ok=false on a cache miss.
func (c *Cache) Lookup(contentHash, rulesetFingerprint string) (findings []Finding, ok bool, err error) {
	row := c.db.QueryRow(
		`SELECT findings_json FROM analysis_cache WHERE content_hash = ? AND ruleset_fingerprint = ?`,
		contentHash, rulesetFingerprint,
	)
	var blob []byte
	switch scanErr := row.Scan(&blob); scanErr {
	case nil:
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("analysiscache: lookup: %w", scanErr)
	}
	if err := json.Unmarshal(blob, &findings); err != nil {
		return nil, false, fmt.Errorf("analysiscache: decoding cached entry: %w", err)
	}
	return findings, true, nil
}

// Store persists findings under (contentHash, rulesetFingerprint),
// replacing any prior entry.
func (c *Cache) Store(contentHash, rulesetFingerprint string, findings []Finding) error {
	blob, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("analysiscache: encoding entry: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT INTO analysis_cache (content_hash, ruleset_fingerprint, findings_json) VALUES (?, ?, ?)
		 ON CONFLICT(content_hash, ruleset_fingerprint) DO UPDATE SET findings_json = excluded.findings_json`,
		contentHash, rulesetFingerprint, blob,
	)
	if err != nil {
		return fmt.Errorf("analysiscache: storing entry: %w", err)
	}
	return nil
}

// Summarize flattens a method's reportable findings (spec §4.4.8/§4.4.9
// outputs only) into cacheable Finding records.
func Summarize(m *method.Method) []Finding {
	var out []Finding
	if m.Complexity > 0 {
		out = append(out, Finding{
			MethodName: m.MethodName,
			Start:      m.Start,
			End:        m.End,
			Complexity: m.Complexity,
		})
	}
	reported := map[int]bool{}
	for _, records := range m.Taints {
		for _, rec := range records {
			reported[rec.Position.Start] = true
			level := -1
			if rec.Sanitizer != nil {
				level = rec.Sanitizer.Level
			}
			out = append(out, Finding{
				MethodName:     m.MethodName,
				Start:          m.Start,
				End:            m.End,
				TaintCallee:    rec.Call.Name.String(),
				TaintPosition:  rec.Position,
				TaintComment:   rec.Comment,
				SanitizerLevel: level,
			})
		}
	}
	for _, calls := range m.Sinks {
		for _, call := range calls {
			if reported[call.Position.Start] {
				continue
			}
			out = append(out, Finding{
				MethodName:   m.MethodName,
				Start:        m.Start,
				End:          m.End,
				IsSink:       true,
				SinkCallee:   call.Name.String(),
				SinkPosition: call.Position,
			})
		}
	}
	return out
}

// Rehydrate reconstructs lightweight *method.Method stand-ins from
// cached findings, sufficient for pkg/report to render them without
// re-running analysis. Calls, Variables, Sources and Sanitizers are
// left empty. Sinks holds each cached unreported sink call under its
// own placeholder *rules.Sink that carries no rule data.
func Rehydrate(findings []Finding) []*method.Method {
	byMethod := map[string]*method.Method{}
	order := []string{}
	for _, f := range findings {
		key := fmt.Sprintf("%s@%d", f.MethodName, f.Start)
		m, ok := byMethod[key]
		if !ok {
			m = method.New(f.Start, f.End, f.MethodName, nil)
			m.Complexity = 0
			byMethod[key] = m
			order = append(order, key)
		}
		if f.Complexity > 0 {
			m.Complexity = f.Complexity
		}
		if f.TaintCallee != "" {
			var sanitizer *rules.Sanitizer
			if f.SanitizerLevel >= 0 {
				sanitizer = &rules.Sanitizer{Level: f.SanitizerLevel}
			}
			rec := method.TaintRecord{
				Comment:   f.TaintComment,
				Position:  f.TaintPosition,
				Call:      rules.CallRecord{Name: rules.NewIdentifier(nil, f.TaintCallee), Position: f.TaintPosition},
				Sanitizer: sanitizer,
			}
			m.Taints[f.TaintCallee] = append(m.Taints[f.TaintCallee], rec)
		}
		if f.IsSink {
			sink := &rules.Sink{}
			call := rules.CallRecord{Name: rules.NewIdentifier(nil, f.SinkCallee), Position: f.SinkPosition}
			m.Sinks[sink] = append(m.Sinks[sink], call)
		}
	}
	out := make([]*method.Method, 0, len(order))
	for _, key := range order {
		out = append(out, byMethod[key])
	}
	return out
}

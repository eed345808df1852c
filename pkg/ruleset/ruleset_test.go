package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

func writeRuleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestModule(t *testing.T) (root string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c", "sources"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c", "sinks"), 0o755))
	writeRuleFile(t, filepath.Join(root, "c", "sources"), "stdio.yaml", `
null:
  Methods:
    - Methodname: scanf
      Parameters: [null, "$TAINT"]
      Comment: user input
`)
	writeRuleFile(t, filepath.Join(root, "c", "sinks"), "format.yaml", `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: Format string vulnerability.
`)
	return root
}

func TestLoadPopulatesSourcesAndSinks(t *testing.T) {
	root := newTestModule(t)
	rs, err := Load(root, "c", nil)
	require.NoError(t, err)
	require.Len(t, rs.Sources, 1)
	require.Len(t, rs.Sinks, 1)
	assert.Equal(t, "scanf", rs.Sources[0].Methods[0].MethodName)
	assert.NotEmpty(t, rs.Fingerprint)
}

func TestLoadFingerprintChangesWithRuleContent(t *testing.T) {
	root := newTestModule(t)
	rs1, err := Load(root, "c", nil)
	require.NoError(t, err)

	writeRuleFile(t, filepath.Join(root, "c", "sinks"), "format.yaml", `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: a changed comment
`)
	rs2, err := Load(root, "c", nil)
	require.NoError(t, err)
	assert.NotEqual(t, rs1.Fingerprint, rs2.Fingerprint)
}

func TestLoadFailsOnMalformedRuleFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c", "sources"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c", "sinks"), 0o755))
	writeRuleFile(t, filepath.Join(root, "c", "sources"), "bad.yaml", `
null:
  Methods:
    - Parameters: ["$TAINT"]
      Comment: missing a method name
`)
	_, err := Load(root, "c", nil)
	assert.Error(t, err)
}

func TestAddSinkIsIdempotent(t *testing.T) {
	root := newTestModule(t)
	rs, err := Load(root, "c", nil)
	require.NoError(t, err)

	taint := rules.Taint
	pattern := rules.MethodPattern{MethodName: "eval", Parameters: []*string{&taint}, Comment: "c"}
	m := method.New(0, 10, "f", nil)

	_, created1 := rs.AddSink(m, nil, []rules.MethodPattern{pattern})
	_, created2 := rs.AddSink(m, nil, []rules.MethodPattern{pattern})
	assert.True(t, created1)
	assert.False(t, created2)
	assert.Len(t, rs.Sinks, 2) // the loaded printf sink plus the one promoted eval sink
}

func TestAddSourceNotifiesObserversInRegistrationOrder(t *testing.T) {
	root := newTestModule(t)
	rs, err := Load(root, "c", nil)
	require.NoError(t, err)

	var order []int
	rs.RegisterObserver(observerFunc(func(m *method.Method, changedSanitizer, newSource bool) {
		order = append(order, 1)
		assert.True(t, newSource)
		assert.False(t, changedSanitizer)
	}))
	rs.RegisterObserver(observerFunc(func(m *method.Method, changedSanitizer, newSource bool) {
		order = append(order, 2)
	}))

	taint := rules.Taint
	pattern := rules.MethodPattern{MethodName: "getenv", Parameters: []*string{&taint}, Comment: "c"}
	m := method.New(0, 10, "f", nil)
	rs.AddSource(m, nil, []rules.MethodPattern{pattern})

	assert.Equal(t, []int{1, 2}, order)
}

func TestAddSanitizerRejectsDuplicateAndNotifiesChangedSanitizer(t *testing.T) {
	root := newTestModule(t)
	rs, err := Load(root, "c", nil)
	require.NoError(t, err)
	sink := rs.Sinks[0]

	var gotChangedSanitizer bool
	rs.RegisterObserver(observerFunc(func(m *method.Method, changedSanitizer, newSource bool) {
		gotChangedSanitizer = changedSanitizer
	}))

	taint := rules.Taint
	pattern := rules.MethodPattern{MethodName: "sanitize", Parameters: []*string{&taint}, Comment: "c"}
	m := method.New(0, 10, "f", nil)

	_, created1 := rs.AddSanitizer(m, sink, 0, nil, []rules.MethodPattern{pattern}, 0)
	require.True(t, created1)
	assert.True(t, gotChangedSanitizer)

	gotChangedSanitizer = false
	_, created2 := rs.AddSanitizer(m, sink, 0, nil, []rules.MethodPattern{pattern}, 0)
	assert.False(t, created2)
	require.Len(t, sink.Methods[0].Sanitizers, 1)
}

type observerFunc func(m *method.Method, changedSanitizer, newSource bool)

func (f observerFunc) Update(m *method.Method, changedSanitizer, newSource bool) {
	f(m, changedSanitizer, newSource)
}

package analysiscache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taintalyzing/engine/pkg/method"
	"github.com/taintalyzing/engine/pkg/rules"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.sqlite3")
	c, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLookupMissThenStoreThenHit(t *testing.T) {
	c := openTestCache(t)

	_, ok, err := c.Lookup("deadbeef", "fp1")
	require.NoError(t, err)
	assert.False(t, ok)

	findings := []Finding{
		{MethodName: "f", Start: 0, End: 10, Complexity: 5},
	}
	require.NoError(t, c.Store("deadbeef", "fp1", findings))

	got, ok, err := c.Lookup("deadbeef", "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, findings, got)
}

func TestStoreOverwritesPriorEntry(t *testing.T) {
	c := openTestCache(t)

	require.NoError(t, c.Store("h", "fp", []Finding{{MethodName: "old"}}))
	require.NoError(t, c.Store("h", "fp", []Finding{{MethodName: "new"}}))

	got, ok, err := c.Lookup("h", "fp")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].MethodName)
}

func TestLookupScopedByRulesetFingerprint(t *testing.T) {
	c := openTestCache(t)
	require.NoError(t, c.Store("h", "fp1", []Finding{{MethodName: "a"}}))

	_, ok, err := c.Lookup("h", "fp2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContentHashStable(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	c := ContentHash([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSummarizeAndRehydrateRoundTrip(t *testing.T) {
	m := method.New(10, 50, "f", nil)
	m.Complexity = 3
	sanitizer := &rules.Sanitizer{Level: 1}
	m.Taints["printf"] = append(m.Taints["printf"], method.TaintRecord{
		Comment:  "Format string vulnerability.",
		Position: rules.Position{Start: 20, End: 26},
		Call: rules.CallRecord{
			Name:     rules.NewIdentifier(nil, "printf"),
			Position: rules.Position{Start: 20, End: 26},
		},
		Sanitizer: sanitizer,
	})
	sink := &rules.Sink{}
	m.Sinks[sink] = append(m.Sinks[sink], rules.CallRecord{
		Name:     rules.NewIdentifier(nil, "system"),
		Position: rules.Position{Start: 40, End: 48},
	})

	findings := Summarize(m)
	require.Len(t, findings, 3) // complexity + taint + sink

	rehydrated := Rehydrate(findings)
	require.Len(t, rehydrated, 1)
	got := rehydrated[0]
	assert.Equal(t, "f", got.MethodName)
	assert.Equal(t, 3, got.Complexity)
	require.Len(t, got.Taints["printf"], 1)
	assert.Equal(t, "Format string vulnerability.", got.Taints["printf"][0].Comment)
	require.NotNil(t, got.Taints["printf"][0].Sanitizer)
	assert.Equal(t, 1, got.Taints["printf"][0].Sanitizer.Level)
}

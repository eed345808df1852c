package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentifierParsing(t *testing.T) {
	cases := []struct {
		raw    string
		object []string
		ident  string
	}{
		{"printf", nil, "printf"},
		{"$obj->member->call", []string{"$obj", "member"}, "call"},
		{"Foo::bar", []string{"Foo"}, "bar"},
		{"a.b.c", []string{"a", "b"}, "c"},
		{"", nil, ""},
	}
	for _, tc := range cases {
		id := ParseIdentifier(tc.raw)
		assert.Equal(t, tc.object, id.Object, tc.raw)
		assert.Equal(t, tc.ident, id.Ident, tc.raw)
	}
}

func TestIdentifierEqual(t *testing.T) {
	a := NewIdentifier([]string{"Foo"}, "bar")
	b := NewIdentifier([]string{"Foo"}, "bar")
	c := NewIdentifier([]string{"Baz"}, "bar")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestMethodPatternEqualIgnoresCommentAndSanitizers(t *testing.T) {
	taint := Taint
	p1, err := NewMethodPattern("printf", []*string{&taint}, "format string")
	require.NoError(t, err)
	p2, err := NewMethodPattern("printf", []*string{&taint}, "a different comment")
	require.NoError(t, err)
	assert.True(t, p1.Equal(p2))
}

func TestMethodPatternRejectsMissingFields(t *testing.T) {
	_, err := NewMethodPattern("", []*string{}, "comment")
	assert.Error(t, err)
	_, err = NewMethodPattern("f", nil, "comment")
	assert.Error(t, err)
	_, err = NewMethodPattern("f", []*string{}, "")
	assert.Error(t, err)
}

func TestSameIdentity(t *testing.T) {
	taint := Taint
	m, err := NewMethodPattern("printf", []*string{&taint}, "c")
	require.NoError(t, err)
	objA := NewIdentifier(nil, "C")
	assert.True(t, SameIdentity(&objA, []MethodPattern{m}, &objA, []MethodPattern{m}))
	objB := NewIdentifier(nil, "D")
	assert.False(t, SameIdentity(&objA, []MethodPattern{m}, &objB, []MethodPattern{m}))
	assert.False(t, SameIdentity(&objA, []MethodPattern{m}, nil, []MethodPattern{m}))
}

func TestNewSinkOwnsPerMethodSanitizerLists(t *testing.T) {
	m, err := NewMethodPattern("sink", []*string{nil}, "c")
	require.NoError(t, err)
	sink, err := NewSink(nil, []MethodPattern{m})
	require.NoError(t, err)
	require.Len(t, sink.Methods, 1)
	assert.NotNil(t, sink.Methods[0].Sanitizers)
	assert.Empty(t, sink.Methods[0].Sanitizers)
}

func TestLoadSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stdio.yaml")
	yamlDoc := `
null:
  Methods:
    - Methodname: scanf
      Parameters: [null, "$TAINT"]
      Comment: "user input"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	src, err := LoadSourceFile(path)
	require.NoError(t, err)
	assert.False(t, src.HasObject)
	require.Len(t, src.Methods, 1)
	assert.Equal(t, "scanf", src.Methods[0].MethodName)
	require.Len(t, src.Methods[0].Parameters, 2)
	assert.Nil(t, src.Methods[0].Parameters[0])
	require.NotNil(t, src.Methods[0].Parameters[1])
	assert.Equal(t, Taint, *src.Methods[0].Parameters[1])
}

func TestLoadSinkFileWithNestedSanitizer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "format.yaml")
	yamlDoc := `
null:
  Methods:
    - Methodname: printf
      Parameters: ["$TAINT"]
      Comment: "Format string vulnerability."
      Sanitizers:
        - null:
            Methods:
              - Methodname: test
                Parameters: ["$TAINT"]
                Comment: "sanitizes"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	sink, err := LoadSinkFile(path)
	require.NoError(t, err)
	require.Len(t, sink.Methods, 1)
	require.Len(t, sink.Methods[0].Sanitizers, 1)
	assert.Equal(t, "test", sink.Methods[0].Sanitizers[0].Methods[0].MethodName)
	assert.Equal(t, 0, sink.Methods[0].Sanitizers[0].Level)
}

func TestLoadSourceFileRejectsMissingMethodname(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	yamlDoc := `
null:
  Methods:
    - Parameters: ["$TAINT"]
      Comment: "missing name"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	_, err := LoadSourceFile(path)
	assert.Error(t, err)
}

func TestWalkRuleFilesDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("null:\n  Methods: []\n"), 0o644))
	}
	files, err := WalkRuleFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files[0], "a.yml")
	assert.Contains(t, files[1], "b.yaml")
}

func TestWalkRuleFilesMissingDirIsNotError(t *testing.T) {
	files, err := WalkRuleFiles(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taintalyzing/engine/pkg/rules"
)

func TestNewLeavesComplexityUnsetAndInitializesMaps(t *testing.T) {
	m := New(10, 20, "foo", nil)
	assert.Equal(t, -1, m.Complexity)
	assert.Equal(t, 10, m.Start)
	assert.Equal(t, 20, m.End)
	assert.NotNil(t, m.Variables)
	assert.NotNil(t, m.Sources)
	assert.NotNil(t, m.Sinks)
	assert.NotNil(t, m.Sanitizers)
	assert.NotNil(t, m.Taints)
}

func TestAddCallsMergeAppendInsertsNewKey(t *testing.T) {
	m := New(0, 100, "foo", nil)
	call := rules.CallRecord{Name: rules.NewIdentifier(nil, "printf"), Position: rules.Position{Start: 5, End: 15}}
	m.AddCalls(map[string][]rules.CallRecord{"printf": {call}})
	require.Len(t, m.Calls["printf"], 1)
	assert.Equal(t, call, m.Calls["printf"][0])
}

func TestAddCallsMergeAppendSkipsDuplicateByPosition(t *testing.T) {
	m := New(0, 100, "foo", nil)
	call := rules.CallRecord{Name: rules.NewIdentifier(nil, "printf"), Position: rules.Position{Start: 5, End: 15}}
	m.AddCalls(map[string][]rules.CallRecord{"printf": {call}})
	m.AddCalls(map[string][]rules.CallRecord{"printf": {call}})
	assert.Len(t, m.Calls["printf"], 1)
}

func TestAddCallsMergeAppendExtendsWithOnlyNewEntries(t *testing.T) {
	m := New(0, 100, "foo", nil)
	first := rules.CallRecord{Name: rules.NewIdentifier(nil, "printf"), Position: rules.Position{Start: 5, End: 15}}
	second := rules.CallRecord{Name: rules.NewIdentifier(nil, "printf"), Position: rules.Position{Start: 20, End: 30}}
	m.AddCalls(map[string][]rules.CallRecord{"printf": {first}})
	m.AddCalls(map[string][]rules.CallRecord{"printf": {first, second}})
	require.Len(t, m.Calls["printf"], 2)
	assert.Equal(t, first, m.Calls["printf"][0])
	assert.Equal(t, second, m.Calls["printf"][1])
}

func TestAddTaintsDeduplicatesByPositionAndSanitizer(t *testing.T) {
	m := New(0, 100, "foo", nil)
	pos := rules.Position{Start: 40, End: 50}
	unsanitized := TaintRecord{Comment: "c", Position: pos}
	m.AddTaints(map[string][]TaintRecord{"printf": {unsanitized}})
	m.AddTaints(map[string][]TaintRecord{"printf": {unsanitized}})
	require.Len(t, m.Taints["printf"], 1)

	sanitized := TaintRecord{Comment: "c", Position: pos, Sanitizer: &rules.Sanitizer{Level: 0}}
	m.AddTaints(map[string][]TaintRecord{"printf": {sanitized}})
	assert.Len(t, m.Taints["printf"], 2)
}

func TestAddVariablesPreservesTextualOrder(t *testing.T) {
	m := New(0, 100, "foo", nil)
	first := VariableRecord{Position: rules.Position{Start: 1, End: 2}}
	second := VariableRecord{Position: rules.Position{Start: 10, End: 11}}
	third := VariableRecord{Position: rules.Position{Start: 20, End: 21}}
	m.AddVariables(map[string][]VariableRecord{"buf": {first}})
	m.AddVariables(map[string][]VariableRecord{"buf": {second, third}})
	require.Len(t, m.Variables["buf"], 3)
	assert.Equal(t, []VariableRecord{first, second, third}, m.Variables["buf"])
}

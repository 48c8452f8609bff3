package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupedev/loupe/internal/logline"
)

func TestEngineSuspendResume(t *testing.T) {
	lines := sampleLines()

	e := &Engine{}
	e.SetRules([]*Rule{NewTextRule(Include, "GET", false, true)})
	e.SetMinLevel(logline.LevelInfo)

	filtered := e.Apply(lines)
	require.Len(t, filtered, 1)

	captured := e.Suspend()
	assert.Len(t, e.Apply(lines), len(lines), "suspended engine must show every line")

	e.Resume(captured)
	restored := e.Apply(lines)
	require.Len(t, restored, 1)
	assert.Equal(t, filtered, restored, "resume must restore the exact view")
}

func TestEngineMinLevelGate(t *testing.T) {
	lines := sampleLines()

	e := &Engine{}
	e.SetMinLevel(logline.LevelError)

	got := e.Apply(lines)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0])

	// A line with no detected level never passes a threshold.
	unknown := []logline.LogLine{{Raw: "???"}}
	assert.Empty(t, e.Apply(unknown))

	e.SetMinLevel(logline.LevelUnknown)
	assert.Len(t, e.Apply(lines), len(lines))
}

func TestEngineAddRuleAndFailedRules(t *testing.T) {
	e := &Engine{}
	e.AddRule(NewTextRule(Include, "ok", false, true))
	e.AddRule(NewTextRule(Exclude, "(bad", true, true))

	failed := e.FailedRules()
	require.Len(t, failed, 1)
	assert.Error(t, failed[0].Err())
}

func TestEngineCheckMatchesApply(t *testing.T) {
	lines := sampleLines()

	e := &Engine{}
	e.SetRules([]*Rule{NewTextRule(Exclude, "cache", false, true)})
	e.SetMinLevel(logline.LevelInfo)

	applied := e.Apply(lines)
	member := make(map[int]bool, len(applied))
	for _, idx := range applied {
		member[idx] = true
	}
	for i, line := range lines {
		assert.Equal(t, member[i], e.Check(line), "line %d", i)
	}
}

func TestEngineConfigIsACopy(t *testing.T) {
	e := &Engine{}
	e.SetRules([]*Rule{NewTextRule(Include, "a", false, true)})

	cfg := e.Config()
	cfg.Rules[0] = nil
	cfg.Rules = append(cfg.Rules, NewTextRule(Include, "b", false, true))

	require.Len(t, e.Config().Rules, 1)
	assert.NotNil(t, e.Config().Rules[0])
}

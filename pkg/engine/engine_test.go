package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/scenario"
)

func intPtr(i int) *int { return &i }

func pathRule(t *testing.T, name, method, path string, status int) *Rule {
	t.Helper()
	u, err := matching.NewURLPattern(matching.URLPathEqualTo, path)
	require.NoError(t, err)
	return &Rule{
		Name:     name,
		Request:  &matching.RequestMatcher{Method: method, URL: u},
		Response: &Response{Status: status, Body: []byte(name)},
	}
}

func TestEngine_InstallAssignsID(t *testing.T) {
	e := New()
	ruleID, err := e.Install(context.Background(), pathRule(t, "a", "GET", "/a", 200))
	require.NoError(t, err)
	assert.NotEmpty(t, ruleID)
	assert.Equal(t, 1, e.Len())
}

func TestEngine_InstallKeepsGivenIDAndReplaces(t *testing.T) {
	e := New()
	ctx := context.Background()

	r := pathRule(t, "first", "GET", "/a", 200)
	r.ID = "fixed"
	got, err := e.Install(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)

	r2 := pathRule(t, "second", "GET", "/a", 201)
	r2.ID = "fixed"
	_, err = e.Install(ctx, r2)
	require.NoError(t, err)

	rules, err := e.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "second", rules[0].Name)
}

func TestEngine_InstallCopiesRule(t *testing.T) {
	e := New()
	r := pathRule(t, "orig", "GET", "/a", 200)
	_, err := e.Install(context.Background(), r)
	require.NoError(t, err)

	r.Name = "mutated"
	rules, _ := e.Rules(context.Background())
	assert.Equal(t, "orig", rules[0].Name)
	assert.Empty(t, r.ID, "caller's rule is not modified")
}

func TestEngine_InstallInvalid(t *testing.T) {
	e := New()
	_, err := e.Install(context.Background(), &Rule{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidRule)

	_, err = e.Install(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestEngine_InstallCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Install(ctx, pathRule(t, "a", "GET", "/a", 200))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Remove(t *testing.T) {
	e := New()
	ctx := context.Background()
	ruleID, err := e.Install(ctx, pathRule(t, "a", "GET", "/a", 200))
	require.NoError(t, err)

	require.NoError(t, e.Remove(ctx, ruleID))
	assert.Equal(t, 0, e.Len())

	err = e.Remove(ctx, ruleID)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestEngine_RulesEvaluationOrder(t *testing.T) {
	e := New()
	ctx := context.Background()

	install := func(name string, priority *int) {
		r := pathRule(t, name, "GET", "/x", 200)
		r.Priority = priority
		_, err := e.Install(ctx, r)
		require.NoError(t, err)
	}

	install("no-priority-old", nil)
	install("p5", intPtr(5))
	install("p1-old", intPtr(1))
	install("no-priority-new", nil)
	install("p1-new", intPtr(1))

	rules, err := e.Rules(ctx)
	require.NoError(t, err)
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"p1-new", "p1-old", "p5", "no-priority-new", "no-priority-old"}, names)
}

func TestEngine_ScenarioOperations(t *testing.T) {
	tracker := scenario.NewTracker()
	e := New(WithScenarioTracker(tracker))
	ctx := context.Background()

	r := pathRule(t, "gated", "GET", "/a", 200)
	r.Scenario = &ScenarioLink{Name: "flow", RequiredState: scenario.Started, NewState: "Two"}
	_, err := e.Install(ctx, r)
	require.NoError(t, err)

	states, err := e.Scenarios(ctx)
	require.NoError(t, err)
	assert.Equal(t, []scenario.State{{Name: "flow", State: scenario.Started}}, states)

	require.NoError(t, e.SetScenarioState(ctx, "flow", "Two"))
	state, err := e.ScenarioState(ctx, "flow")
	require.NoError(t, err)
	assert.Equal(t, "Two", state)
	assert.Equal(t, "Two", tracker.Get("flow"), "tracker is shared")

	require.NoError(t, e.ResetScenarios(ctx))
	state, _ = e.ScenarioState(ctx, "flow")
	assert.Equal(t, scenario.Started, state)
}

func TestResponse_Header(t *testing.T) {
	resp := &Response{Headers: []Header{{Name: "Content-Type", Value: "text/plain"}}}
	v, ok := resp.Header("content-type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", v)

	_, ok = resp.Header("X-Other")
	assert.False(t, ok)
}

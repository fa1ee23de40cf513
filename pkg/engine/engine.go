package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/getmockd/stubd/internal/id"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/scenario"
)

// DefaultMaxRequestBodySize caps how much of a request body is read for
// matching.
const DefaultMaxRequestBodySize = 10 << 20

// Engine holds installed rules and serves traffic against them.
type Engine struct {
	mu    sync.RWMutex
	rules map[string]*Rule
	seq   uint64

	scenarios   *scenario.Tracker
	journal     requestlog.Logger
	log         *slog.Logger
	maxBodySize int64
	nearMisses  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithJournal sets where served requests are recorded.
func WithJournal(j requestlog.Logger) Option {
	return func(e *Engine) { e.journal = j }
}

// WithScenarioTracker shares a scenario tracker with the engine.
func WithScenarioTracker(t *scenario.Tracker) Option {
	return func(e *Engine) {
		if t != nil {
			e.scenarios = t
		}
	}
}

// WithMaxRequestBodySize overrides DefaultMaxRequestBodySize.
func WithMaxRequestBodySize(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBodySize = n
		}
	}
}

// WithNearMisses sets how many near misses an unmatched response reports.
// Zero disables near-miss reporting.
func WithNearMisses(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.nearMisses = n
		}
	}
}

// New creates an engine with an empty rule table.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:       make(map[string]*Rule),
		scenarios:   scenario.NewTracker(),
		log:         logging.Nop(),
		maxBodySize: DefaultMaxRequestBodySize,
		nearMisses:  3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Install adds rule to the table and returns its id. A rule carrying the id
// of an installed rule replaces it and counts as the newest installation.
// The engine keeps its own copy; later changes to rule have no effect.
func (e *Engine) Install(ctx context.Context, rule *Rule) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rule == nil || rule.Request == nil || rule.Response == nil {
		return "", fmt.Errorf("%w: matcher and response are required", ErrInvalidRule)
	}

	installed := *rule
	if installed.ID == "" {
		installed.ID = id.UUID()
	}
	if rule.Scenario != nil {
		link := *rule.Scenario
		installed.Scenario = &link
		e.scenarios.Declare(link.Name)
	}

	e.mu.Lock()
	e.seq++
	installed.seq = e.seq
	installed.installedAt = time.Now()
	_, replaced := e.rules[installed.ID]
	e.rules[installed.ID] = &installed
	e.mu.Unlock()

	e.log.Debug("rule installed", "ruleId", installed.ID, "name", installed.Name, "replaced", replaced)
	return installed.ID, nil
}

// Remove deletes the rule with the given id. It returns ErrRuleNotFound if no
// such rule is installed.
func (e *Engine) Remove(ctx context.Context, ruleID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	_, ok := e.rules[ruleID]
	delete(e.rules, ruleID)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
	}
	e.log.Debug("rule removed", "ruleId", ruleID)
	return nil
}

// Rules lists installed rules in evaluation order.
func (e *Engine) Rules(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ordered := e.ordered()
	out := make([]Summary, len(ordered))
	for i, r := range ordered {
		out[i] = r.summary()
	}
	return out, nil
}

// Len returns the number of installed rules.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.rules)
}

// ordered snapshots the table in evaluation order.
func (e *Engine) ordered() []*Rule {
	e.mu.RLock()
	rules := make([]*Rule, 0, len(e.rules))
	for _, r := range e.rules {
		rules = append(rules, r)
	}
	e.mu.RUnlock()

	sort.Slice(rules, func(i, j int) bool { return rules[i].before(rules[j]) })
	return rules
}

// ScenarioState returns the current state of a scenario.
func (e *Engine) ScenarioState(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.scenarios.Get(name), nil
}

// SetScenarioState moves a scenario to state.
func (e *Engine) SetScenarioState(ctx context.Context, name, state string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.scenarios.Set(name, state)
	return nil
}

// ResetScenarios returns every scenario to its initial state.
func (e *Engine) ResetScenarios(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.scenarios.ResetAll()
	return nil
}

// Scenarios lists known scenarios sorted by name.
func (e *Engine) Scenarios(ctx context.Context) ([]scenario.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.scenarios.List(), nil
}

package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getmockd/stubd/internal/id"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/jsonvalue"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/normalize"
	"github.com/getmockd/stubd/pkg/stub"
)

// RuleEngine is the engine a Compiler installs rules into.
type RuleEngine interface {
	// Install adds a rule and returns its id.
	Install(ctx context.Context, rule *engine.Rule) (string, error)

	// Remove deletes a rule. It returns an error wrapping
	// engine.ErrRuleNotFound when the id is unknown.
	Remove(ctx context.Context, ruleID string) error

	// Rules lists installed rules.
	Rules(ctx context.Context) ([]engine.Summary, error)
}

// Compiler compiles stub definitions into an engine.
type Compiler struct {
	engine RuleEngine
	log    *slog.Logger
	newID  func() string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Compiler) {
		if log != nil {
			c.log = log
		}
	}
}

// WithIDGenerator overrides correlation id generation.
func WithIDGenerator(fn func() string) Option {
	return func(c *Compiler) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New creates a Compiler installing into e.
func New(e RuleEngine, opts ...Option) *Compiler {
	c := &Compiler{
		engine: e,
		log:    logging.Nop(),
		newID:  id.UUID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Build compiles def into a rule without installing it. The rule has no id.
func (c *Compiler) Build(def *stub.Definition) (*engine.Rule, error) {
	reqSpec, err := decodeSpec(def.RequestSpec)
	if err != nil {
		return nil, &SpecError{Field: "requestSpec", Err: err}
	}
	respSpec, err := decodeSpec(def.ResponseSpec)
	if err != nil {
		return nil, &SpecError{Field: "responseSpec", Err: err}
	}

	matcher, err := BuildRequestMatcher(reqSpec)
	if err != nil {
		return nil, &SpecError{Field: "requestSpec", Err: err}
	}
	resp, err := BuildResponse(respSpec)
	if err != nil {
		return nil, &SpecError{Field: "responseSpec", Err: err}
	}

	rule := &engine.Rule{
		Name:     def.Name,
		Request:  matcher,
		Response: resp,
	}
	if def.Priority != nil {
		p := *def.Priority
		rule.Priority = &p
	}
	if def.ScenarioName != "" {
		rule.Scenario = &engine.ScenarioLink{
			Name:          def.ScenarioName,
			RequiredState: def.RequiredScenarioState,
			NewState:      def.NewScenarioState,
		}
	}
	return rule, nil
}

// decodeSpec parses a stored spec. One level of double encoding is undone;
// anything that is not then a JSON object is malformed.
func decodeSpec(text string) (jsonvalue.Value, error) {
	v, err := normalize.Decode(text)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if !v.IsObject() {
		return jsonvalue.Value{}, fmt.Errorf("expected a JSON object, got %s", v.Kind())
	}
	return v, nil
}

// Compile installs def and returns its correlation id. The id recorded in
// def's metadata is reused, so compiling again replaces the earlier rule
// instead of adding a second one; without one a fresh id is generated. A
// disabled definition is never installed: any rule previously compiled from
// it is retracted and the returned id is empty.
//
// A rule installed before def recorded its id is not retracted; use
// Recompile for updates.
func (c *Compiler) Compile(ctx context.Context, def *stub.Definition) (string, error) {
	if !def.Enabled {
		return "", c.Retract(ctx, def)
	}
	return c.install(ctx, def)
}

// Recompile retracts the rule previously compiled from def, then compiles def
// again.
func (c *Compiler) Recompile(ctx context.Context, def *stub.Definition) (string, error) {
	if err := c.Retract(ctx, def); err != nil {
		return "", err
	}
	if !def.Enabled {
		return "", nil
	}
	return c.install(ctx, def)
}

func (c *Compiler) install(ctx context.Context, def *stub.Definition) (string, error) {
	rule, err := c.Build(def)
	if err != nil {
		c.log.Warn("stub not compiled", "stubId", def.ID, "name", def.Name, "error", err)
		return "", err
	}
	rule.ID = def.CorrelationID()
	if rule.ID == "" {
		rule.ID = c.newID()
	}

	ruleID, err := c.engine.Install(ctx, rule)
	if err != nil {
		return "", &EngineError{Op: "install", RuleID: rule.ID, Err: err}
	}

	c.log.Info("stub compiled", "stubId", def.ID, "name", def.Name, "ruleId", ruleID)
	return ruleID, nil
}

// Retract removes the rule compiled from def. The rule is found through
// metadata.wireMockId, or when the metadata names none, as the first
// installed rule named like def. Finding nothing is not an error.
func (c *Compiler) Retract(ctx context.Context, def *stub.Definition) error {
	if ruleID := def.CorrelationID(); ruleID != "" {
		return c.remove(ctx, def, ruleID)
	}

	if def.Name == "" {
		return nil
	}
	rules, err := c.engine.Rules(ctx)
	if err != nil {
		return &EngineError{Op: "list", Err: err}
	}
	for _, r := range rules {
		if r.Name == def.Name {
			return c.remove(ctx, def, r.ID)
		}
	}

	c.log.Debug("no rule to retract", "stubId", def.ID, "name", def.Name)
	return nil
}

func (c *Compiler) remove(ctx context.Context, def *stub.Definition, ruleID string) error {
	err := c.engine.Remove(ctx, ruleID)
	switch {
	case err == nil:
		c.log.Info("rule retracted", "stubId", def.ID, "ruleId", ruleID)
		return nil
	case errors.Is(err, engine.ErrRuleNotFound):
		c.log.Debug("rule already gone", "stubId", def.ID, "ruleId", ruleID)
		return nil
	default:
		return &EngineError{Op: "remove", RuleID: ruleID, Err: err}
	}
}

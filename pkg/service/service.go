package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getmockd/stubd/pkg/compiler"
	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/normalize"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/scenario"
	"github.com/getmockd/stubd/pkg/store"
	"github.com/getmockd/stubd/pkg/stub"
)

// ErrStubNotFound is returned when a stub id is unknown. It wraps
// store.ErrNotFound.
var ErrStubNotFound = fmt.Errorf("stub %w", store.ErrNotFound)

// ErrInvalidInput is returned for arguments that fail basic checks.
var ErrInvalidInput = errors.New("invalid input")

// Compiler turns stub definitions into installed rules.
type Compiler interface {
	Compile(ctx context.Context, def *stub.Definition) (string, error)
	Recompile(ctx context.Context, def *stub.Definition) (string, error)
	Retract(ctx context.Context, def *stub.Definition) error
}

// Engine is the part of the mock engine the service exposes directly.
type Engine interface {
	Rules(ctx context.Context) ([]engine.Summary, error)
	Scenarios(ctx context.Context) ([]scenario.State, error)
	SetScenarioState(ctx context.Context, name, state string) error
	ResetScenarios(ctx context.Context) error
}

// StubService manages stubs and the rules compiled from them.
type StubService struct {
	store      store.StubStore
	compiler   Compiler
	engine     Engine
	journal    requestlog.Store
	normalizer *normalize.Normalizer
	log        *slog.Logger
}

// Option configures a StubService.
type Option func(*StubService)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *StubService) {
		if log != nil {
			s.log = log
		}
	}
}

// WithJournal exposes a request journal through the service.
func WithJournal(j requestlog.Store) Option {
	return func(s *StubService) { s.journal = j }
}

// WithNormalizer sets the normalizer used to build views.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(s *StubService) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// New creates a StubService.
func New(st store.StubStore, c Compiler, e Engine, opts ...Option) *StubService {
	s := &StubService{
		store:    st,
		compiler: c,
		engine:   e,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalize.New(s.log)
	}
	return s
}

// Create stores a new stub and compiles it. A compile failure is returned
// but the stub stays stored, without a correlation id.
func (s *StubService) Create(ctx context.Context, req *stub.Request) (stub.View, error) {
	if req == nil {
		return stub.View{}, fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	def := req.NewDefinition()
	def.ApplyDefaults()
	// A client-supplied correlation id cannot point at a rule of this stub.
	def.SetCorrelationID("")

	if err := s.store.Put(ctx, def); err != nil {
		return stub.View{}, fmt.Errorf("save stub: %w", err)
	}

	if !def.Enabled {
		s.log.Info("stub created disabled", "stubId", def.ID, "name", def.Name)
		return def.View(s.normalizer), nil
	}

	ruleID, err := s.compiler.Compile(ctx, def)
	if err != nil {
		s.log.Warn("stub saved but not compiled", "stubId", def.ID, "error", err)
		return def.View(s.normalizer), err
	}
	def.SetCorrelationID(ruleID)
	if err := s.store.Put(ctx, def); err != nil {
		return stub.View{}, fmt.Errorf("save correlation id: %w", err)
	}

	s.log.Info("stub created", "stubId", def.ID, "name", def.Name, "ruleId", ruleID)
	return def.View(s.normalizer), nil
}

// Get returns the normalized view of a stub.
func (s *StubService) Get(ctx context.Context, id string) (stub.View, error) {
	def, err := s.load(ctx, id)
	if err != nil {
		return stub.View{}, err
	}
	return def.View(s.normalizer), nil
}

// List returns normalized views of all stubs in creation order.
func (s *StubService) List(ctx context.Context) ([]stub.View, error) {
	defs, err := s.store.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list stubs: %w", err)
	}
	views := make([]stub.View, len(defs))
	for i, def := range defs {
		views[i] = def.View(s.normalizer)
	}
	return views, nil
}

// Update overwrites every user-controlled field of a stub and recompiles it.
// The rule compiled from the previous version is retracted first.
func (s *StubService) Update(ctx context.Context, id string, req *stub.Request) (stub.View, error) {
	if req == nil {
		return stub.View{}, fmt.Errorf("%w: empty payload", ErrInvalidInput)
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return stub.View{}, err
	}

	updated := existing.Clone()
	req.Apply(updated)
	updated.ApplyDefaults()
	updated.SetCorrelationID(existing.CorrelationID())

	if err := s.store.Put(ctx, updated); err != nil {
		return stub.View{}, fmt.Errorf("save stub: %w", err)
	}

	ruleID, compileErr := s.compile(ctx, updated)
	if compileErr != nil && !errors.Is(compileErr, compiler.ErrMalformedSpec) {
		// The old rule may still be installed; keep pointing at it.
		return updated.View(s.normalizer), compileErr
	}

	updated.SetCorrelationID(ruleID)
	if err := s.store.Put(ctx, updated); err != nil {
		return stub.View{}, fmt.Errorf("save correlation id: %w", err)
	}
	if compileErr != nil {
		s.log.Warn("stub updated but not compiled", "stubId", id, "error", compileErr)
		return updated.View(s.normalizer), compileErr
	}

	s.log.Info("stub updated", "stubId", id, "name", updated.Name, "ruleId", ruleID)
	return updated.View(s.normalizer), nil
}

// Delete removes a stub and retracts its rule.
func (s *StubService) Delete(ctx context.Context, id string) error {
	def, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrStubNotFound, id)
		}
		return fmt.Errorf("delete stub: %w", err)
	}
	if def.CorrelationID() != "" {
		if err := s.compiler.Retract(ctx, def); err != nil {
			return err
		}
	}
	s.log.Info("stub deleted", "stubId", id, "name", def.Name)
	return nil
}

// Sync compiles every stored stub into the engine. It is run at startup,
// when the engine holds none of the rules recorded in stub metadata.
// Stubs that fail to compile are skipped; their errors are joined into the
// returned error. Sync returns how many rules were installed.
func (s *StubService) Sync(ctx context.Context) (int, error) {
	defs, err := s.store.List(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("list stubs: %w", err)
	}

	var (
		installed int
		errs      []error
	)
	for _, def := range defs {
		before := def.CorrelationID()
		ruleID, err := s.compile(ctx, def)
		if err != nil {
			s.log.Warn("stub not synced", "stubId", def.ID, "name", def.Name, "error", err)
			errs = append(errs, fmt.Errorf("stub %s: %w", def.ID, err))
			ruleID = ""
		}
		if ruleID != "" {
			installed++
		}
		if ruleID == before {
			continue
		}
		def.SetCorrelationID(ruleID)
		if err := s.store.Put(ctx, def); err != nil {
			errs = append(errs, fmt.Errorf("stub %s: save correlation id: %w", def.ID, err))
		}
	}

	s.log.Info("stubs synced", "stubs", len(defs), "installed", installed)
	return installed, errors.Join(errs...)
}

// Rules lists the rules installed in the engine.
func (s *StubService) Rules(ctx context.Context) ([]engine.Summary, error) {
	return s.engine.Rules(ctx)
}

// Scenarios lists known scenarios and their states.
func (s *StubService) Scenarios(ctx context.Context) ([]scenario.State, error) {
	return s.engine.Scenarios(ctx)
}

// SetScenarioState moves a scenario to state.
func (s *StubService) SetScenarioState(ctx context.Context, name, state string) error {
	if name == "" {
		return fmt.Errorf("%w: scenario name is required", ErrInvalidInput)
	}
	if state == "" {
		return fmt.Errorf("%w: state is required", ErrInvalidInput)
	}
	if err := s.engine.SetScenarioState(ctx, name, state); err != nil {
		return err
	}
	s.log.Info("scenario state set", "scenario", name, "state", state)
	return nil
}

// ResetScenarios returns every scenario to its initial state.
func (s *StubService) ResetScenarios(ctx context.Context) error {
	return s.engine.ResetScenarios(ctx)
}

// Requests lists journal entries, newest first. Without a journal the list
// is empty.
func (s *StubService) Requests(filter *requestlog.Filter) []*requestlog.Entry {
	if s.journal == nil {
		return []*requestlog.Entry{}
	}
	return s.journal.List(filter)
}

// ClearRequests empties the journal.
func (s *StubService) ClearRequests() {
	if s.journal != nil {
		s.journal.Clear()
	}
}

// compile brings the engine in line with def. A definition without a
// correlation id has no rule to retract, so the name fallback of
// Compiler.Retract is never used here: it could hit another stub's rule.
func (s *StubService) compile(ctx context.Context, def *stub.Definition) (string, error) {
	if def.CorrelationID() != "" {
		return s.compiler.Recompile(ctx, def)
	}
	if !def.Enabled {
		return "", nil
	}
	return s.compiler.Compile(ctx, def)
}

func (s *StubService) load(ctx context.Context, id string) (*stub.Definition, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: stub id is required", ErrInvalidInput)
	}
	def, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStubNotFound, id)
		}
		return nil, fmt.Errorf("load stub: %w", err)
	}
	return def, nil
}

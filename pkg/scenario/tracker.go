// Package scenario tracks the current state of named scenarios.
//
// A scenario is a small state machine shared by the rules that name it.
// Every scenario starts, and is reset to, the Started state. Rules gated on a
// required state only match while the scenario is in that state, and may move
// the scenario to a new state when they serve a response.
package scenario

import (
	"sort"
	"sync"
)

// Started is the initial state of every scenario.
const Started = "Started"

// State is a snapshot of one scenario.
type State struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Tracker holds scenario states. It is safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]string)}
}

// Declare registers a scenario in the Started state unless it is already
// known.
func (t *Tracker) Declare(name string) {
	if name == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.states[name]; !ok {
		t.states[name] = Started
	}
}

// Get returns the current state of a scenario. Unknown scenarios are in the
// Started state.
func (t *Tracker) Get(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.states[name]; ok {
		return s
	}
	return Started
}

// Set moves a scenario to state, declaring it if needed.
func (t *Tracker) Set(name, state string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[name] = state
}

// CompareAndSet atomically checks that the scenario is in expected and, if
// so, moves it to next. An empty next leaves the state unchanged. It reports
// whether the scenario was in expected.
func (t *Tracker) CompareAndSet(name, expected, next string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.states[name]
	if !ok {
		current = Started
	}
	if current != expected {
		return false
	}
	if next != "" {
		t.states[name] = next
	}
	return true
}

// ResetAll returns every known scenario to Started.
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name := range t.states {
		t.states[name] = Started
	}
}

// List returns every known scenario sorted by name.
func (t *Tracker) List() []State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]State, 0, len(t.states))
	for name, state := range t.states {
		out = append(out, State{Name: name, State: state})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/getmockd/stubd/internal/matching"
)

// ErrRuleNotFound is returned when removing an id the engine does not hold.
var ErrRuleNotFound = errors.New("rule not found")

// ErrInvalidRule is returned when installing a rule without a matcher or a
// response.
var ErrInvalidRule = errors.New("invalid rule")

// Rule is a compiled stub: request criteria plus the response to serve.
type Rule struct {
	// ID is the correlation id. Install assigns one when empty.
	ID string

	// Name is informational and used for retraction by name.
	Name string

	// Priority orders rules, lower first. Nil sorts after every explicit
	// priority.
	Priority *int

	Request  *matching.RequestMatcher
	Response *Response

	// Scenario gates the rule on scenario state. Nil means ungated.
	Scenario *ScenarioLink

	seq         uint64
	installedAt time.Time
}

// ScenarioLink ties a rule to a named scenario.
type ScenarioLink struct {
	Name string

	// RequiredState must equal the current state for the rule to match.
	// Empty matches any state.
	RequiredState string

	// NewState is applied when the rule matches. Empty leaves the state
	// unchanged.
	NewState string
}

// Header is a response header. Order is preserved.
type Header struct {
	Name  string
	Value string
}

// Response is the canned response of a rule.
type Response struct {
	Status     int
	Headers    []Header
	Body       []byte
	FixedDelay time.Duration
}

// Header returns the first value of the named header, ignoring case.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Summary describes an installed rule.
type Summary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Priority    *int      `json:"priority,omitempty"`
	Scenario    string    `json:"scenario,omitempty"`
	InstalledAt time.Time `json:"installedAt"`
}

func (r *Rule) summary() Summary {
	s := Summary{
		ID:          r.ID,
		Name:        r.Name,
		Priority:    r.Priority,
		InstalledAt: r.installedAt,
	}
	if r.Scenario != nil {
		s.Scenario = r.Scenario.Name
	}
	return s
}

// before reports whether r is evaluated ahead of other.
func (r *Rule) before(other *Rule) bool {
	switch {
	case r.Priority != nil && other.Priority == nil:
		return true
	case r.Priority == nil && other.Priority != nil:
		return false
	case r.Priority != nil && *r.Priority != *other.Priority:
		return *r.Priority < *other.Priority
	default:
		return r.seq > other.seq
	}
}

package stub

import (
	"encoding/json"
	"strings"
	"time"
)

// EmptyJSON is stored for request, response and metadata fields that were
// not supplied.
const EmptyJSON = "{}"

// Definition is a persisted stub: a request matcher spec, a response spec and
// optional scenario gating, all as stored text.
type Definition struct {
	// ID is assigned by the store on first save.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable stub name. It also names the compiled rule.
	Name string `json:"name" yaml:"name"`

	// RequestSpec is JSON text describing the request to match.
	RequestSpec string `json:"requestSpec" yaml:"requestSpec"`

	// ResponseSpec is JSON text describing the response to serve.
	ResponseSpec string `json:"responseSpec" yaml:"responseSpec"`

	// Priority orders competing rules, lower first. Nil sorts last.
	Priority *int `json:"priority,omitempty" yaml:"priority,omitempty"`

	ScenarioName          string `json:"scenarioName,omitempty" yaml:"scenarioName,omitempty"`
	RequiredScenarioState string `json:"requiredScenarioState,omitempty" yaml:"requiredScenarioState,omitempty"`
	NewScenarioState      string `json:"newScenarioState,omitempty" yaml:"newScenarioState,omitempty"`

	Persistent bool `json:"persistent" yaml:"persistent"`
	Enabled    bool `json:"enabled" yaml:"enabled"`

	// Metadata is JSON text. Its wireMockId member correlates the stub with
	// the rule compiled from it.
	Metadata string `json:"metadata" yaml:"metadata"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ApplyDefaults stores an empty object for blank JSON fields.
func (d *Definition) ApplyDefaults() {
	if strings.TrimSpace(d.RequestSpec) == "" {
		d.RequestSpec = EmptyJSON
	}
	if strings.TrimSpace(d.ResponseSpec) == "" {
		d.ResponseSpec = EmptyJSON
	}
	if strings.TrimSpace(d.Metadata) == "" {
		d.Metadata = EmptyJSON
	}
}

// Clone returns a deep copy of d.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	c := *d
	if d.Priority != nil {
		p := *d.Priority
		c.Priority = &p
	}
	return &c
}

// Request is the create and update payload.
//
// Request, Response and Metadata accept any JSON value and are stored as the
// JSON text received. A client that sends a JSON string holding a document
// therefore stores a double-encoded field, which View later repairs.
type Request struct {
	Name                  string          `json:"name"`
	Request               json.RawMessage `json:"request,omitempty"`
	Response              json.RawMessage `json:"response,omitempty"`
	Priority              *int            `json:"priority,omitempty"`
	ScenarioName          string          `json:"scenarioName,omitempty"`
	RequiredScenarioState string          `json:"requiredScenarioState,omitempty"`
	NewScenarioState      string          `json:"newScenarioState,omitempty"`
	Persistent            *bool           `json:"persistent,omitempty"`
	Enabled               *bool           `json:"enabled,omitempty"`
	Metadata              json.RawMessage `json:"metadata,omitempty"`
}

// Apply overwrites every user-controlled field of d with the payload,
// applying defaults for absent values. ID and timestamps are left alone.
func (r *Request) Apply(d *Definition) {
	d.Name = r.Name
	d.RequestSpec = rawText(r.Request)
	d.ResponseSpec = rawText(r.Response)
	d.Metadata = rawText(r.Metadata)
	d.Priority = nil
	if r.Priority != nil {
		p := *r.Priority
		d.Priority = &p
	}
	d.ScenarioName = r.ScenarioName
	d.RequiredScenarioState = r.RequiredScenarioState
	d.NewScenarioState = r.NewScenarioState
	d.Persistent = r.Persistent != nil && *r.Persistent
	d.Enabled = r.Enabled == nil || *r.Enabled
}

// NewDefinition builds a fresh Definition from the payload.
func (r *Request) NewDefinition() *Definition {
	d := &Definition{}
	r.Apply(d)
	return d
}

// rawText returns the JSON text of raw, or EmptyJSON when absent or null.
func rawText(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return EmptyJSON
	}
	return text
}

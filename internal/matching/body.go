package matching

import (
	"github.com/getmockd/stubd/pkg/jsonvalue"
)

// BodyMode selects how a BodyPattern compares against a request body.
type BodyMode uint8

// Body comparison modes.
const (
	// BodyEqualTo requires the raw body to equal the expected text.
	BodyEqualTo BodyMode = iota
	// BodyEqualToJSON requires the body to be JSON structurally equivalent
	// to the expected document.
	BodyEqualToJSON
)

func (m BodyMode) String() string {
	if m == BodyEqualToJSON {
		return "equalToJson"
	}
	return "equalTo"
}

// BodyPattern is a single body criterion.
type BodyPattern struct {
	Mode BodyMode
	Text string
	JSON jsonvalue.Value
}

// NewBodyPattern derives the criterion from the body member of a request
// spec: a string requires exact equality, anything else structural JSON
// equivalence.
func NewBodyPattern(body jsonvalue.Value) BodyPattern {
	if s, ok := body.Str(); ok {
		return BodyPattern{Mode: BodyEqualTo, Text: s}
	}
	return BodyPattern{Mode: BodyEqualToJSON, JSON: body}
}

// Match reports whether body satisfies the pattern. A body that is not JSON
// never satisfies a structural pattern.
func (p BodyPattern) Match(body []byte) bool {
	if p.Mode == BodyEqualTo {
		return string(body) == p.Text
	}
	actual, err := jsonvalue.Parse(string(body))
	if err != nil {
		return false
	}
	return jsonvalue.Equal(p.JSON, actual)
}

// Expected returns a printable form of the expected body.
func (p BodyPattern) Expected() string {
	if p.Mode == BodyEqualTo {
		return p.Text
	}
	return p.JSON.Canonical()
}

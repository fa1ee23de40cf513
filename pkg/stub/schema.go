package stub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// requestSchemaJSON describes the create/update payload. The spec members
// accept objects and strings: strings are how double-encoded fields arrive.
const requestSchemaJSON = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "request": {"type": ["object", "string", "null"]},
    "response": {"type": ["object", "string", "null"]},
    "metadata": {"type": ["object", "string", "null"]},
    "priority": {"type": ["integer", "null"]},
    "scenarioName": {"type": ["string", "null"]},
    "requiredScenarioState": {"type": ["string", "null"]},
    "newScenarioState": {"type": ["string", "null"]},
    "persistent": {"type": ["boolean", "null"]},
    "enabled": {"type": ["boolean", "null"]}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// Violation is one schema failure.
type Violation struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError lists every schema failure of a payload.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field == "" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid stub payload: " + strings.Join(parts, "; ")
}

func compileRequestSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource("stub-request.json", strings.NewReader(requestSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile("stub-request.json")
}

// ValidatePayload checks raw create/update JSON against the payload schema.
// It returns a *ValidationError for schema failures and a plain error when
// body is not JSON at all.
func ValidatePayload(body []byte) error {
	schemaOnce.Do(func() {
		schema, schemaErr = compileRequestSchema()
	})
	if schemaErr != nil {
		return fmt.Errorf("schema compilation error: %w", schemaErr)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	err := schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &ValidationError{Violations: []Violation{{Message: err.Error()}}}
	}
	out := &ValidationError{}
	collectViolations(verr, out)
	return out
}

func collectViolations(err *jsonschema.ValidationError, out *ValidationError) {
	if len(err.Causes) == 0 {
		out.Violations = append(out.Violations, Violation{
			Field:   fieldFromPointer(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, out)
	}
}

// fieldFromPointer turns a JSON pointer into dot notation.
func fieldFromPointer(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	return strings.ReplaceAll(ptr, "/", ".")
}

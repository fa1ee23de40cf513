package compiler

import (
	"errors"
	"fmt"
)

// ErrMalformedSpec matches every SpecError.
var ErrMalformedSpec = errors.New("malformed stub spec")

// ErrEngine matches every EngineError.
var ErrEngine = errors.New("engine failure")

// SpecError reports a stored spec that cannot be compiled. Nothing is
// installed when it is returned.
type SpecError struct {
	// Field is the definition field at fault, such as "requestSpec".
	Field string
	Err   error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Field, e.Err)
}

func (e *SpecError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedSpec) hold.
func (e *SpecError) Is(target error) bool { return target == ErrMalformedSpec }

// EngineError reports that the engine rejected an operation.
type EngineError struct {
	// Op is the engine operation: "install", "remove" or "list".
	Op     string
	RuleID string
	Err    error
}

func (e *EngineError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("engine %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("engine %s of rule %s failed: %v", e.Op, e.RuleID, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrEngine) hold.
func (e *EngineError) Is(target error) bool { return target == ErrEngine }

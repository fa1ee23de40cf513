// Error mapping for the admin API.

package admin

import (
	"errors"
	"net/http"

	"github.com/getmockd/stubd/pkg/compiler"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/service"
	"github.com/getmockd/stubd/pkg/stub"
)

// Safe error messages for client responses.
const (
	ErrMsgInvalidJSON      = "Invalid JSON in request body"
	ErrMsgInvalidRequest   = "Invalid request format"
	ErrMsgValidationFailed = "Request validation failed"
	ErrMsgBodyTooLarge     = "Request body exceeds maximum allowed size"
	ErrMsgNotFound         = "Stub not found"
	ErrMsgEngineFailure    = "Mock engine rejected the operation"
	ErrMsgInternalError    = "An internal error occurred"
)

// writeServiceError maps a service error onto a status code and logs it.
// Spec errors keep their message: it tells the client what to fix.
func (a *API) writeServiceError(w http.ResponseWriter, err error, operation string, details ...any) {
	a.writeStubError(w, err, nil, operation, details...)
}

// writeStubError is writeServiceError for operations that stored the stub
// before failing to compile it. The stored view goes into the error details
// so the client learns the id to update instead of creating a duplicate.
func (a *API) writeStubError(w http.ResponseWriter, err error, stored *stub.View, operation string, details ...any) {
	args := append([]any{"operation", operation, "error", err}, details...)

	var body any
	if stored != nil && stored.ID != "" {
		body = stored
	}

	switch {
	case errors.Is(err, service.ErrStubNotFound):
		httputil.WriteError(w, http.StatusNotFound, "not_found", ErrMsgNotFound)
	case errors.Is(err, service.ErrInvalidInput):
		httputil.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, compiler.ErrMalformedSpec):
		a.log.Warn("malformed stub spec", args...)
		httputil.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, "malformed_spec", err.Error(), body)
	case errors.Is(err, compiler.ErrEngine):
		a.log.Error("engine operation failed", args...)
		httputil.WriteErrorWithDetails(w, http.StatusBadGateway, "engine_error", ErrMsgEngineFailure, body)
	default:
		a.log.Error("operation failed", args...)
		httputil.WriteError(w, http.StatusInternalServerError, "internal_error", ErrMsgInternalError)
	}
}

package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/stub"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  int    `json:"uptime"`
	Version string `json:"version,omitempty"`
}

// handleHealth handles GET /health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, HealthResponse{
		Status:  "ok",
		Uptime:  a.Uptime(),
		Version: a.version,
	})
}

// handleListStubs handles GET /api/stubs.
func (a *API) handleListStubs(w http.ResponseWriter, r *http.Request) {
	views, err := a.svc.List(r.Context())
	if err != nil {
		a.writeServiceError(w, err, "list stubs")
		return
	}
	httputil.WriteOK(w, views)
}

// handleGetStub handles GET /api/stubs/{id}.
func (a *API) handleGetStub(w http.ResponseWriter, r *http.Request) {
	view, err := a.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeServiceError(w, err, "get stub", "id", r.PathValue("id"))
		return
	}
	httputil.WriteOK(w, view)
}

// handleCreateStub handles POST /api/stubs.
func (a *API) handleCreateStub(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeStubRequest(w, r)
	if !ok {
		return
	}
	view, err := a.svc.Create(r.Context(), req)
	if err != nil {
		a.writeStubError(w, err, &view, "create stub", "name", req.Name)
		return
	}
	httputil.WriteCreated(w, view)
}

// handleUpdateStub handles PUT /api/stubs/{id}.
func (a *API) handleUpdateStub(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decodeStubRequest(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	view, err := a.svc.Update(r.Context(), id, req)
	if err != nil {
		a.writeStubError(w, err, &view, "update stub", "id", id)
		return
	}
	httputil.WriteOK(w, view)
}

// handleDeleteStub handles DELETE /api/stubs/{id}.
func (a *API) handleDeleteStub(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.svc.Delete(r.Context(), id); err != nil {
		a.writeServiceError(w, err, "delete stub", "id", id)
		return
	}
	httputil.WriteNoContent(w)
}

// decodeStubRequest reads, validates and decodes a create or update payload.
// It writes the error response itself and reports whether to continue.
func (a *API) decodeStubRequest(w http.ResponseWriter, r *http.Request) (*stub.Request, bool) {
	body, err := httputil.ReadBody(w, r, a.maxBodySize)
	if err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", ErrMsgBodyTooLarge)
			return nil, false
		}
		httputil.WriteError(w, http.StatusBadRequest, "read_error", ErrMsgInvalidRequest)
		return nil, false
	}

	if err := stub.ValidatePayload(body); err != nil {
		var verr *stub.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteErrorWithDetails(w, http.StatusBadRequest, "validation_failed", ErrMsgValidationFailed, verr.Violations)
			return nil, false
		}
		httputil.WriteError(w, http.StatusBadRequest, "invalid_json", ErrMsgInvalidJSON)
		return nil, false
	}

	var req stub.Request
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_json", ErrMsgInvalidJSON)
		return nil, false
	}
	return &req, true
}

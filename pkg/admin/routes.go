package admin

import "net/http"

// registerRoutes sets up all API routes.
func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.handleHealth)

	// Stubs
	mux.HandleFunc("GET /api/stubs", a.handleListStubs)
	mux.HandleFunc("POST /api/stubs", a.handleCreateStub)
	mux.HandleFunc("GET /api/stubs/{id}", a.handleGetStub)
	mux.HandleFunc("PUT /api/stubs/{id}", a.handleUpdateStub)
	mux.HandleFunc("DELETE /api/stubs/{id}", a.handleDeleteStub)

	// Scenarios
	mux.HandleFunc("GET /api/scenarios", a.handleListScenarios)
	mux.HandleFunc("PUT /api/scenarios/{name}/state", a.handleSetScenarioState)
	mux.HandleFunc("POST /api/scenarios/reset", a.handleResetScenarios)

	// Request journal
	mux.HandleFunc("GET /api/requests", a.handleListRequests)
	mux.HandleFunc("DELETE /api/requests", a.handleClearRequests)

	// Engine introspection
	mux.HandleFunc("GET /api/engine/rules", a.handleListRules)

	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics.Handler())
	}
}

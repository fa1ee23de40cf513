package admin

import (
	"net/http"

	"github.com/getmockd/stubd/pkg/httputil"
)

// handleListScenarios handles GET /api/scenarios.
func (a *API) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	states, err := a.svc.Scenarios(r.Context())
	if err != nil {
		a.writeServiceError(w, err, "list scenarios")
		return
	}
	httputil.WriteOK(w, states)
}

// handleSetScenarioState handles PUT /api/scenarios/{name}/state?state=X.
func (a *API) handleSetScenarioState(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	state := r.URL.Query().Get("state")
	if state == "" {
		httputil.WriteError(w, http.StatusBadRequest, "missing_state", "state query parameter is required")
		return
	}
	if err := a.svc.SetScenarioState(r.Context(), name, state); err != nil {
		a.writeServiceError(w, err, "set scenario state", "scenario", name)
		return
	}
	httputil.WriteOK(w, map[string]string{"name": name, "state": state})
}

// handleResetScenarios handles POST /api/scenarios/reset.
func (a *API) handleResetScenarios(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.ResetScenarios(r.Context()); err != nil {
		a.writeServiceError(w, err, "reset scenarios")
		return
	}
	httputil.WriteNoContent(w)
}

// handleListRules handles GET /api/engine/rules.
func (a *API) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := a.svc.Rules(r.Context())
	if err != nil {
		a.writeServiceError(w, err, "list rules")
		return
	}
	httputil.WriteOK(w, rules)
}

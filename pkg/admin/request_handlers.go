package admin

import (
	"errors"
	"net/http"

	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/requestlog"
)

// RequestListResponse is the body of GET /api/requests.
type RequestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
}

// handleListRequests handles GET /api/requests.
//
// Query parameters: method, path (prefix), ruleId, matched (true|false),
// limit, offset.
func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRequestFilter(r.URL.Query())
	if err != nil {
		var qe *queryError
		if errors.As(err, &qe) {
			httputil.WriteError(w, http.StatusBadRequest, qe.code, qe.Error())
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	entries := a.svc.Requests(filter)
	if entries == nil {
		entries = []*requestlog.Entry{}
	}
	httputil.WriteOK(w, RequestListResponse{Requests: entries, Count: len(entries)})
}

// handleClearRequests handles DELETE /api/requests.
func (a *API) handleClearRequests(w http.ResponseWriter, r *http.Request) {
	a.svc.ClearRequests()
	httputil.WriteNoContent(w)
}

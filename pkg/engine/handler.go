package engine

import (
	"errors"
	"maps"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/httputil"
	"github.com/getmockd/stubd/pkg/requestlog"
)

// noMatchResponse is the body served when no rule matches.
type noMatchResponse struct {
	Error      string                `json:"error"`
	Message    string                `json:"message"`
	Method     string                `json:"method"`
	URL        string                `json:"url"`
	NearMisses []requestlog.NearMiss `json:"nearMisses,omitempty"`
}

// Match returns the rule that serves r, applying its scenario transition.
// body is the already-read request body. It returns nil when no rule matches.
func (e *Engine) Match(r *http.Request, body []byte) *Rule {
	for _, rule := range e.ordered() {
		if !rule.Request.Matches(r, body) {
			continue
		}
		if !e.passGate(rule) {
			continue
		}
		return rule
	}
	return nil
}

// passGate checks the scenario gate of rule and applies its transition.
func (e *Engine) passGate(rule *Rule) bool {
	link := rule.Scenario
	if link == nil || link.Name == "" {
		return true
	}
	if link.RequiredState != "" {
		return e.scenarios.CompareAndSet(link.Name, link.RequiredState, link.NewState)
	}
	if link.NewState != "" {
		e.scenarios.Set(link.Name, link.NewState)
	}
	return true
}

// NearMisses ranks the rules that partially match r, best first.
func (e *Engine) NearMisses(r *http.Request, body []byte, limit int) []requestlog.NearMiss {
	if limit <= 0 {
		return nil
	}

	var misses []requestlog.NearMiss
	for _, rule := range e.ordered() {
		fields := rule.Request.Explain(r, body)
		if link := rule.Scenario; link != nil && link.RequiredState != "" {
			current := e.scenarios.Get(link.Name)
			fields = append(fields, matching.FieldResult{
				Field:    "scenario." + link.Name,
				Matched:  current == link.RequiredState,
				Expected: link.RequiredState,
				Actual:   current,
			})
		}
		matched := matching.MatchedCount(fields)
		if matched == 0 || len(fields) == 0 {
			continue
		}
		misses = append(misses, requestlog.NearMiss{
			RuleID:          rule.ID,
			Name:            rule.Name,
			MatchPercentage: matched * 100 / len(fields),
			Fields:          fields,
		})
	}

	sort.SliceStable(misses, func(i, j int) bool {
		return misses[i].MatchPercentage > misses[j].MatchPercentage
	})
	if len(misses) > limit {
		misses = misses[:limit]
	}
	return misses
}

// ServeHTTP serves mock traffic.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	log, limit := e.log, e.maxBodySize

	entry := &requestlog.Entry{
		Timestamp:  start,
		Method:     r.Method,
		URL:        matching.FullURL(r.URL),
		Path:       r.URL.Path,
		Headers:    maps.Clone(r.Header),
		RemoteAddr: r.RemoteAddr,
	}
	defer func() {
		entry.SetDuration(time.Since(start))
		if e.journal != nil {
			e.journal.Log(entry)
		}
	}()

	body, err := httputil.ReadBody(w, r, limit)
	entry.Body = string(body)
	if err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			log.Warn("request body too large", "path", r.URL.Path, "limit", limit)
			entry.ResponseStatus = http.StatusRequestEntityTooLarge
			entry.Error = err.Error()
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body exceeds maximum allowed size")
			return
		}
		log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
	}

	rule := e.Match(r, body)
	if rule == nil {
		misses := e.NearMisses(r, body, e.nearMisses)
		entry.ResponseStatus = http.StatusNotFound
		entry.NearMisses = misses

		log.Debug("request not matched", "method", r.Method, "url", entry.URL, "nearMisses", len(misses))
		w.Header().Set("X-Stubd-Near-Misses", strconv.Itoa(len(misses)))
		httputil.WriteJSON(w, http.StatusNotFound, noMatchResponse{
			Error:      "no_match",
			Message:    "No stub matched the request",
			Method:     r.Method,
			URL:        entry.URL,
			NearMisses: misses,
		})
		return
	}

	entry.Matched = true
	entry.MatchedRuleID = rule.ID
	entry.MatchedName = rule.Name
	log.Debug("request matched", "method", r.Method, "url", entry.URL, "ruleId", rule.ID)

	status, err := e.respond(w, r, rule.Response)
	entry.ResponseStatus = status
	if err != nil {
		entry.Error = err.Error()
		log.Debug("response abandoned", "ruleId", rule.ID, "error", err)
	}
}

// respond writes resp after its delay. If the client goes away during the
// delay nothing is written and the context error is returned.
func (e *Engine) respond(w http.ResponseWriter, r *http.Request, resp *Response) (int, error) {
	if resp.FixedDelay > 0 {
		timer := time.NewTimer(resp.FixedDelay)
		select {
		case <-r.Context().Done():
			timer.Stop()
			return 0, r.Context().Err()
		case <-timer.C:
		}
	}

	for _, h := range resp.Headers {
		w.Header().Add(h.Name, h.Value)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
	return resp.Status, nil
}

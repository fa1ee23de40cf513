package matching

import (
	"net/http"
	"sort"
	"strings"
)

// RequestMatcher is a compiled request criterion. All criteria must hold.
type RequestMatcher struct {
	Method  string
	URL     URLPattern
	Headers []HeaderMatch
	Body    *BodyPattern
}

// SortHeaders orders Headers by canonical name so matchers built from the
// same spec compare and print identically.
func (m *RequestMatcher) SortHeaders() {
	sort.Slice(m.Headers, func(i, j int) bool {
		return http.CanonicalHeaderKey(m.Headers[i].Name) < http.CanonicalHeaderKey(m.Headers[j].Name)
	})
}

// Matches reports whether r with the already-read body satisfies every
// criterion.
func (m *RequestMatcher) Matches(r *http.Request, body []byte) bool {
	if m == nil {
		return false
	}
	if !MatchMethod(m.Method, r.Method) {
		return false
	}
	if !m.URL.Match(r.URL) {
		return false
	}
	if !MatchHeaders(m.Headers, r.Header) {
		return false
	}
	if m.Body != nil && !m.Body.Match(body) {
		return false
	}
	return true
}

// FieldResult describes whether a single criterion matched the request.
type FieldResult struct {
	Field    string `json:"field"`
	Matched  bool   `json:"matched"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
}

// Explain evaluates every criterion without short-circuiting. Only criteria
// present on the matcher are reported; method and URL are always present.
func (m *RequestMatcher) Explain(r *http.Request, body []byte) []FieldResult {
	if m == nil {
		return nil
	}

	results := []FieldResult{
		{
			Field:    "method",
			Matched:  MatchMethod(m.Method, r.Method),
			Expected: m.Method,
			Actual:   r.Method,
		},
		{
			Field:    m.URL.Strategy.String(),
			Matched:  m.URL.Match(r.URL),
			Expected: m.URL.Value,
			Actual:   m.URL.Subject(r.URL),
		},
	}

	for _, h := range m.Headers {
		results = append(results, FieldResult{
			Field:    "headers." + h.Name,
			Matched:  MatchHeader(h, r.Header),
			Expected: h.Value,
			Actual:   strings.Join(r.Header.Values(h.Name), ", "),
		})
	}

	if m.Body != nil {
		results = append(results, FieldResult{
			Field:    "body." + m.Body.Mode.String(),
			Matched:  m.Body.Match(body),
			Expected: m.Body.Expected(),
			Actual:   string(body),
		})
	}

	return results
}

// MatchedCount returns how many results matched.
func MatchedCount(results []FieldResult) int {
	n := 0
	for _, r := range results {
		if r.Matched {
			n++
		}
	}
	return n
}

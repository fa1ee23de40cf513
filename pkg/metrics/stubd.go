package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/getmockd/stubd/pkg/requestlog"
)

// Result label values for mock traffic.
const (
	ResultMatched   = "matched"
	ResultUnmatched = "unmatched"
)

// Set is the collection of metrics stubd records.
type Set struct {
	registry *Registry
	start    time.Time

	Requests        *Counter
	RequestDuration *Histogram
	AdminRequests   *Counter
}

// RuleCounter reports how many rules are installed.
type RuleCounter interface {
	Len() int
}

// NewSet registers the stubd metrics on a fresh registry. rules may be nil,
// in which case the installed-rules gauge is omitted until TrackRules is
// called.
func NewSet(rules RuleCounter) *Set {
	r := NewRegistry()
	s := &Set{
		registry: r,
		start:    time.Now(),
		Requests: r.NewCounter("stubd_requests_total",
			"Mock requests served, by match result", "result"),
		RequestDuration: r.NewHistogram("stubd_request_duration_seconds",
			"Mock request duration in seconds", DefaultBuckets, "result"),
		AdminRequests: r.NewCounter("stubd_admin_requests_total",
			"Admin API requests, by method and status", "method", "status"),
	}
	r.NewGaugeFunc("stubd_uptime_seconds", "Seconds since the server started",
		func() float64 { return time.Since(s.start).Seconds() })
	if rules != nil {
		s.TrackRules(rules)
	}
	return s
}

// TrackRules registers the installed-rules gauge. It panics if called twice.
func (s *Set) TrackRules(rules RuleCounter) {
	s.registry.NewGaugeFunc("stubd_rules_installed", "Rules currently installed in the mock engine",
		func() float64 { return float64(rules.Len()) })
}

// Registry returns the underlying registry.
func (s *Set) Registry() *Registry { return s.registry }

// Handler serves the set in the Prometheus text format.
func (s *Set) Handler() http.Handler { return s.registry.Handler() }

// ObserveRequest records one journaled mock request.
func (s *Set) ObserveRequest(entry *requestlog.Entry) {
	result := ResultUnmatched
	if entry.Matched {
		result = ResultMatched
	}
	_ = s.Requests.Inc(result)
	_ = s.RequestDuration.Observe(entry.Duration.Seconds(), result)
}

// ObserveAdmin records one admin API request.
func (s *Set) ObserveAdmin(method string, status int) {
	_ = s.AdminRequests.Inc(method, strconv.Itoa(status))
}

// Journal returns a requestlog.Logger that records each entry and then
// passes it to next. next may be nil.
func (s *Set) Journal(next requestlog.Logger) requestlog.Logger {
	return &journalTee{set: s, next: next}
}

type journalTee struct {
	set  *Set
	next requestlog.Logger
}

func (t *journalTee) Log(entry *requestlog.Entry) {
	t.set.ObserveRequest(entry)
	if t.next != nil {
		t.next.Log(entry)
	}
}

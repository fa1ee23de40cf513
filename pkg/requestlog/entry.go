package requestlog

import (
	"time"

	"github.com/getmockd/stubd/internal/matching"
)

// Entry is one journaled request.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Method     string              `json:"method"`
	URL        string              `json:"url"`
	Path       string              `json:"path"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       string              `json:"body,omitempty"`
	RemoteAddr string              `json:"remoteAddr,omitempty"`

	// Matched is false when no rule accepted the request.
	Matched       bool   `json:"matched"`
	MatchedRuleID string `json:"matchedRuleId,omitempty"`
	MatchedName   string `json:"matchedName,omitempty"`

	ResponseStatus int `json:"responseStatus"`

	// Duration is the time spent serving the request. DurationMs is its
	// whole-millisecond form for API clients.
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"durationMs"`

	// NearMisses is set for unmatched requests.
	NearMisses []NearMiss `json:"nearMisses,omitempty"`

	Error string `json:"error,omitempty"`
}

// SetDuration records d as both Duration and DurationMs.
func (e *Entry) SetDuration(d time.Duration) {
	e.Duration = d
	e.DurationMs = d.Milliseconds()
}

// NearMiss is a rule that partially matched an unmatched request.
type NearMiss struct {
	RuleID          string                 `json:"ruleId"`
	Name            string                 `json:"name,omitempty"`
	MatchPercentage int                    `json:"matchPercentage"`
	Fields          []matching.FieldResult `json:"fields"`
}

package matching

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/getmockd/stubd/pkg/jsonvalue"
)

// URLStrategy selects how a URLPattern compares against a request.
type URLStrategy uint8

// URL strategies, named after the request spec field that selects them.
const (
	// URLEqualTo compares the full URL (path and query) for equality.
	URLEqualTo URLStrategy = iota
	// URLMatching matches a regex against the full URL.
	URLMatching
	// URLPathEqualTo compares the path only for equality.
	URLPathEqualTo
	// URLPathMatching matches a regex against the path only.
	URLPathMatching
)

// Request spec fields that carry a URL.
const (
	FieldURL            = "url"
	FieldURLPattern     = "urlPattern"
	FieldURLPath        = "urlPath"
	FieldURLPathPattern = "urlPathPattern"
)

// DefaultURL is used when a request spec names no URL at all.
const DefaultURL = "/"

func (s URLStrategy) String() string {
	switch s {
	case URLMatching:
		return FieldURLPattern
	case URLPathEqualTo:
		return FieldURLPath
	case URLPathMatching:
		return FieldURLPathPattern
	default:
		return FieldURL
	}
}

// URLPattern is a single URL criterion.
type URLPattern struct {
	Strategy URLStrategy
	Value    string

	re *regexp.Regexp
}

// NewURLPattern builds a pattern. Regex strategies are anchored to the whole
// input and fail on an invalid expression.
func NewURLPattern(strategy URLStrategy, value string) (URLPattern, error) {
	p := URLPattern{Strategy: strategy, Value: value}
	if strategy == URLMatching || strategy == URLPathMatching {
		re, err := regexp.Compile(`^(?:` + value + `)$`)
		if err != nil {
			return URLPattern{}, fmt.Errorf("invalid %s %q: %w", strategy, value, err)
		}
		p.re = re
	}
	return p, nil
}

// ResolveURLPattern selects the URL criterion of a request spec.
//
// Precedence: urlPattern, then urlPath, then urlPathPattern, then url. A spec
// with none of them matches the URL "/" exactly.
func ResolveURLPattern(spec jsonvalue.Value) (URLPattern, error) {
	if v, ok := spec.Get(FieldURLPattern); ok {
		return NewURLPattern(URLMatching, v.Text())
	}
	if v, ok := spec.Get(FieldURLPath); ok {
		return NewURLPattern(URLPathEqualTo, v.Text())
	}
	if v, ok := spec.Get(FieldURLPathPattern); ok {
		return NewURLPattern(URLPathMatching, v.Text())
	}
	if v, ok := spec.Get(FieldURL); ok {
		return NewURLPattern(URLEqualTo, v.Text())
	}
	return NewURLPattern(URLEqualTo, DefaultURL)
}

// Match reports whether u satisfies the pattern.
func (p URLPattern) Match(u *url.URL) bool {
	switch p.Strategy {
	case URLMatching:
		return p.re != nil && p.re.MatchString(FullURL(u))
	case URLPathEqualTo:
		return u.EscapedPath() == p.Value
	case URLPathMatching:
		return p.re != nil && p.re.MatchString(u.EscapedPath())
	default:
		return FullURL(u) == p.Value
	}
}

// Subject returns the part of u the pattern is evaluated against.
func (p URLPattern) Subject(u *url.URL) string {
	if p.Strategy == URLPathEqualTo || p.Strategy == URLPathMatching {
		return u.EscapedPath()
	}
	return FullURL(u)
}

// FullURL returns the path and query of u as sent on the request line.
func FullURL(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		return path + "?" + u.RawQuery
	}
	return path
}

package compiler

import (
	"github.com/getmockd/stubd/internal/matching"
	"github.com/getmockd/stubd/pkg/jsonvalue"
)

// BuildRequestMatcher assembles the request criteria of a parsed request
// spec.
func BuildRequestMatcher(spec jsonvalue.Value) (*matching.RequestMatcher, error) {
	m := &matching.RequestMatcher{Method: matching.DefaultMethod}

	if v, ok := spec.Get("method"); ok {
		m.Method = matching.ResolveMethod(v.Text())
	}

	url, err := matching.ResolveURLPattern(spec)
	if err != nil {
		return nil, err
	}
	m.URL = url

	if headers, ok := spec.Get("headers"); ok {
		for _, name := range headers.Keys() {
			value, _ := headers.Get(name)
			m.Headers = append(m.Headers, matching.HeaderMatch{Name: name, Value: value.Text()})
		}
		m.SortHeaders()
	}

	if body, ok := spec.Get("body"); ok {
		p := matching.NewBodyPattern(body)
		m.Body = &p
	}

	return m, nil
}

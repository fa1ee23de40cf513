package matching

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/jsonvalue"
)

func TestResolveURLPattern_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		strategy URLStrategy
		value    string
	}{
		{"default", `{}`, URLEqualTo, "/"},
		{"url only", `{"url":"/a?b=1"}`, URLEqualTo, "/a?b=1"},
		{"urlPathPattern beats url", `{"url":"/a","urlPathPattern":"/a/.*"}`, URLPathMatching, "/a/.*"},
		{"urlPath beats urlPathPattern", `{"urlPath":"/p","urlPathPattern":"/p.*"}`, URLPathEqualTo, "/p"},
		{"urlPattern beats everything", `{"url":"/u","urlPath":"/p","urlPathPattern":"/pp","urlPattern":"/x.*"}`, URLMatching, "/x.*"},
		{"non-string value read as text", `{"urlPath":12}`, URLPathEqualTo, "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ResolveURLPattern(jsonvalue.MustParse(tt.spec))
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, p.Strategy)
			assert.Equal(t, tt.value, p.Value)
		})
	}
}

func TestResolveURLPattern_InvalidRegex(t *testing.T) {
	_, err := ResolveURLPattern(jsonvalue.MustParse(`{"urlPattern":"/a/(unclosed"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "urlPattern")
}

func TestURLPattern_Match(t *testing.T) {
	mustURL := func(s string) *url.URL {
		u, err := url.Parse(s)
		require.NoError(t, err)
		return u
	}
	mustPattern := func(s URLStrategy, v string) URLPattern {
		p, err := NewURLPattern(s, v)
		require.NoError(t, err)
		return p
	}

	tests := []struct {
		name    string
		pattern URLPattern
		url     string
		want    bool
	}{
		{"url exact", mustPattern(URLEqualTo, "/users"), "/users", true},
		{"url exact includes query", mustPattern(URLEqualTo, "/users?page=2"), "/users?page=2", true},
		{"url exact rejects extra query", mustPattern(URLEqualTo, "/users"), "/users?page=2", false},
		{"urlPath ignores query", mustPattern(URLPathEqualTo, "/users"), "/users?page=2", true},
		{"urlPath exact", mustPattern(URLPathEqualTo, "/users"), "/users/1", false},
		{"urlPattern sees query", mustPattern(URLMatching, `/users\?page=\d+`), "/users?page=7", true},
		{"urlPattern anchored", mustPattern(URLMatching, `/users`), "/users/1", false},
		{"urlPathPattern", mustPattern(URLPathMatching, `/users/[0-9]+`), "/users/42?x=1", true},
		{"urlPathPattern anchored", mustPattern(URLPathMatching, `/users/[0-9]+`), "/v1/users/42", false},
		{"root default", mustPattern(URLEqualTo, "/"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Match(mustURL(tt.url)))
		})
	}
}

func TestURLStrategy_String(t *testing.T) {
	assert.Equal(t, "url", URLEqualTo.String())
	assert.Equal(t, "urlPattern", URLMatching.String())
	assert.Equal(t, "urlPath", URLPathEqualTo.String())
	assert.Equal(t, "urlPathPattern", URLPathMatching.String())
}

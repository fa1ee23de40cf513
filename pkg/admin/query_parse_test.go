package admin

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestFilter(t *testing.T) {
	q, err := url.ParseQuery("method=post&path=/api&ruleId=r-1&matched=false&limit=5&offset=2")
	require.NoError(t, err)

	filter, err := parseRequestFilter(q)
	require.NoError(t, err)
	assert.Equal(t, "post", filter.Method)
	assert.Equal(t, "/api", filter.Path)
	assert.Equal(t, "r-1", filter.RuleID)
	require.NotNil(t, filter.Matched)
	assert.False(t, *filter.Matched)
	assert.Equal(t, 5, filter.Limit)
	assert.Equal(t, 2, filter.Offset)
}

func TestParseRequestFilter_Empty(t *testing.T) {
	filter, err := parseRequestFilter(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, filter.Matched)
	assert.Zero(t, filter.Limit)
	assert.Zero(t, filter.Offset)
}

func TestParseRequestFilter_Invalid(t *testing.T) {
	tests := []struct {
		query    string
		wantCode string
	}{
		{"matched=maybe", "invalid_matched"},
		{"limit=0", "invalid_limit"},
		{"limit=-3", "invalid_limit"},
		{"limit=ten", "invalid_limit"},
		{"offset=-1", "invalid_offset"},
		{"offset=1.5", "invalid_offset"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			_, err = parseRequestFilter(q)
			var qe *queryError
			require.True(t, errors.As(err, &qe), "got %v", err)
			assert.Equal(t, tt.wantCode, qe.code)
		})
	}
}

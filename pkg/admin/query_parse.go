package admin

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/getmockd/stubd/pkg/requestlog"
)

// queryError is a rejected query parameter. code becomes the error code of
// the 400 response.
type queryError struct {
	code  string
	param string
	want  string
}

func (e *queryError) Error() string {
	return fmt.Sprintf("%s must be %s", e.param, e.want)
}

// parseRequestFilter reads the journal filter of GET /api/requests.
// Absent parameters leave their field unset.
func parseRequestFilter(q url.Values) (*requestlog.Filter, error) {
	filter := &requestlog.Filter{
		Method: q.Get("method"),
		Path:   q.Get("path"),
		RuleID: q.Get("ruleId"),
	}

	if v := q.Get("matched"); v != "" {
		matched, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &queryError{code: "invalid_matched", param: "matched", want: "true or false"}
		}
		filter.Matched = &matched
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, &queryError{code: "invalid_limit", param: "limit", want: "a positive integer"}
		}
		filter.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &queryError{code: "invalid_offset", param: "offset", want: "a non-negative integer"}
		}
		filter.Offset = n
	}

	return filter, nil
}

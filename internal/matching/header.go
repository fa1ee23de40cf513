package matching

import "net/http"

// HeaderMatch requires a request header to equal Value exactly.
type HeaderMatch struct {
	Name  string
	Value string
}

// MatchHeader checks a single header. Header names are case-insensitive;
// the header must be present and one of its values must equal the expected
// value.
func MatchHeader(expected HeaderMatch, headers http.Header) bool {
	for _, v := range headers.Values(expected.Name) {
		if v == expected.Value {
			return true
		}
	}
	return false
}

// MatchHeaders returns true only if ALL expected headers match.
func MatchHeaders(expected []HeaderMatch, headers http.Header) bool {
	for _, h := range expected {
		if !MatchHeader(h, headers) {
			return false
		}
	}
	return true
}

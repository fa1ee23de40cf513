package matching

import "strings"

// MethodAny matches every HTTP method.
const MethodAny = "ANY"

// DefaultMethod is used when a request spec names no method.
const DefaultMethod = "GET"

var knownMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE"}

// ResolveMethod maps a spec method onto a known HTTP method, ignoring case.
// Anything unrecognized becomes MethodAny.
func ResolveMethod(s string) string {
	for _, m := range knownMethods {
		if strings.EqualFold(s, m) {
			return m
		}
	}
	return MethodAny
}

// MatchMethod checks if the request method matches. MethodAny matches all.
func MatchMethod(expected, actual string) bool {
	if expected == MethodAny {
		return true
	}
	return strings.EqualFold(expected, actual)
}

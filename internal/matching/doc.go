// Package matching evaluates incoming HTTP requests against compiled request
// matchers.
//
// A RequestMatcher combines four criteria, all of which must hold:
//
//   - Method: one HTTP method, or the ANY wildcard
//   - URL: exactly one URLPattern strategy (full URL or path, exact or regex)
//   - Headers: exact-string equality for every listed header
//   - Body: exact text equality, or structural JSON equivalence
//
// ResolveURLPattern picks the URL strategy from a request spec using a fixed
// precedence so that a spec naming several URL fields still yields one
// deterministic pattern.
//
// Explain evaluates every criterion without short-circuiting and is used to
// describe near misses when no rule matches a request.
package matching

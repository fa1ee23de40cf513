// Package compiler turns persisted stub definitions into engine rules.
//
// Build is pure: it parses the stored request and response specs and
// assembles a rule without touching the engine. Compile installs the built
// rule under the definition's correlation id, generating one only when
// metadata records none. Retract removes the rule previously
// compiled from a definition, and Recompile does both in that order so a
// definition never has more than one live rule.
//
// Request specs use these fields:
//
//	method          HTTP method, case-insensitive; unknown values match any method (default GET)
//	url             exact path and query (default "/")
//	urlPath         exact path
//	urlPattern      regex over path and query
//	urlPathPattern  regex over path
//	headers         object of header name to exact value
//	body            string for exact match, any other JSON for structural match
//
// Response specs use these fields:
//
//	status                  integer status code (default 200)
//	headers                 object of header name to value
//	body                    string sent verbatim, any other JSON sent as compact JSON
//	fixedDelayMilliseconds  delay before responding, at most MaxFixedDelay
//
// Unknown fields are ignored. Scalar fields of the wrong JSON type are read as
// their JSON text.
package compiler

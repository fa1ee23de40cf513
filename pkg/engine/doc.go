// Package engine is the in-process mock HTTP engine.
//
// The engine owns a table of compiled rules. Each rule pairs a request
// matcher with a canned response and may be gated on named-scenario state.
// Rules are installed and removed by id; the engine never inspects where
// they came from.
//
// Incoming traffic is matched against the table in evaluation order:
// rules with an explicit priority first, lowest value first, then rules
// without one. Among equal priorities the most recently installed rule wins.
// The first rule whose matcher accepts the request and whose scenario gate
// is open serves the response. Scenario transitions happen atomically with
// the gate check, so two concurrent requests cannot both pass a gate that
// only one of them should.
//
// Every request, matched or not, is recorded in the request journal.
// Unmatched requests receive a 404 describing the closest rules.
package engine

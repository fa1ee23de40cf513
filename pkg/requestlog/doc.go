// Package requestlog records the requests served by the mock engine.
//
// Every request that reaches the engine produces an Entry, whether or not a
// rule matched it. Entries are kept in a bounded in-memory journal and
// exposed through the admin API, newest first.
package requestlog

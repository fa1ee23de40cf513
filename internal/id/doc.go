// Package id provides identifier generation for stubd.
//
// Two formats are used across the codebase:
//
//   - UUID: random UUID v4 strings, used as correlation ids for compiled rules
//     installed in the mock engine
//   - Sortable: UUID v7 strings, used as stub ids so that listings ordered by
//     id follow creation order
//
// Short produces a 16-character hex id for request journal entries where
// brevity matters more than global uniqueness.
package id

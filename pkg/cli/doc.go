// Package cli implements the stubd command line.
//
// Commands:
//
//	stubd serve       run the mock traffic listener and the admin API
//	stubd normalize   repair double-encoded JSON read from a file or stdin
//	stubd version     print build information
package cli

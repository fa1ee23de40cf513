// Package service coordinates stub storage with rule compilation.
//
// StubService is what the admin API and the CLI talk to. Every write goes to
// the store first and is then compiled into the engine; the correlation id
// of the resulting rule is written back into the stub's metadata so later
// updates and deletes can find it.
package service

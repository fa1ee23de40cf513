// Package stub defines the persisted stub record and the payloads used to
// create and update it.
//
// A Definition stores its request spec, response spec and metadata as raw
// JSON text, exactly as received. Reading a Definition back for a client goes
// through View, which repairs double-encoded fields with package normalize.
package stub

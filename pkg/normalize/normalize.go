// Package normalize repairs stored JSON fields on their way out of storage.
//
// Stub fields are persisted as JSON text. Depending on how a client
// submitted them, a field may hold a JSON document, or a JSON string whose
// content is itself a JSON document (double encoding). The Normalizer
// undoes one level of double encoding and never fails: unreadable input is
// logged and replaced by an empty object.
//
// Normalization is a read-path concern. The repaired value is returned to
// the caller and never written back to storage.
package normalize

import (
	"log/slog"
	"strings"

	"github.com/getmockd/stubd/pkg/jsonvalue"
	"github.com/getmockd/stubd/pkg/logging"
)

// Field names used in log attributes.
const (
	FieldRequest  = "request"
	FieldResponse = "response"
	FieldMetadata = "metadata"
)

// maxLoggedContent bounds how much of an unreadable field ends up in logs.
const maxLoggedContent = 256

// Normalizer repairs possibly double-encoded JSON text.
type Normalizer struct {
	log *slog.Logger
}

// New creates a Normalizer that reports repair outcomes to log.
// A nil log discards them.
func New(log *slog.Logger) *Normalizer {
	if log == nil {
		log = logging.Nop()
	}
	return &Normalizer{log: log}
}

// Normalize returns the best-effort JSON value held by text.
//
// Blank text yields an empty object. Text that is not JSON is logged and
// yields an empty object. If text is a JSON string whose content parses as
// JSON, the inner document is returned; otherwise the string itself is.
// stubID and field only feed the log attributes.
func (n *Normalizer) Normalize(text, stubID, field string) jsonvalue.Value {
	if strings.TrimSpace(text) == "" {
		return jsonvalue.Object()
	}

	v, err := jsonvalue.Parse(text)
	if err != nil {
		n.log.Error("stored field is not valid JSON",
			"stubId", stubID, "field", field, "content", truncate(text), "error", err)
		return jsonvalue.Object()
	}

	inner, ok := v.Str()
	if !ok {
		return v
	}

	decoded, err := jsonvalue.Parse(inner)
	if err != nil {
		n.log.Warn("stored field is a JSON string that does not hold JSON",
			"stubId", stubID, "field", field, "content", truncate(inner))
		return v
	}

	n.log.Debug("repaired double-encoded field", "stubId", stubID, "field", field)
	return decoded
}

// NormalizeResponse normalizes a response spec and additionally decodes a
// string body whose content is JSON, so clients see structured bodies the
// way they were authored.
func (n *Normalizer) NormalizeResponse(text, stubID string) jsonvalue.Value {
	v := n.Normalize(text, stubID, FieldResponse)
	if !v.IsObject() {
		return v
	}

	body, ok := v.Get("body")
	if !ok {
		return v
	}
	bodyText, ok := body.Str()
	if !ok {
		return v
	}

	decoded, err := jsonvalue.Parse(bodyText)
	if err != nil {
		// Plain text bodies are the common case.
		return v
	}
	return v.With("body", decoded)
}

// Decode parses text undoing one level of double encoding, like Normalize,
// but reports failures instead of recovering. Blank text yields an empty
// object. The compiler uses it so malformed specs fail loudly.
func Decode(text string) (jsonvalue.Value, error) {
	if strings.TrimSpace(text) == "" {
		return jsonvalue.Object(), nil
	}

	v, err := jsonvalue.Parse(text)
	if err != nil {
		return jsonvalue.Value{}, err
	}

	if inner, ok := v.Str(); ok {
		if decoded, err := jsonvalue.Parse(inner); err == nil {
			return decoded, nil
		}
	}
	return v, nil
}

// Text renders a normalized value as compact JSON.
func Text(v jsonvalue.Value) string {
	return v.Canonical()
}

func truncate(s string) string {
	if len(s) <= maxLoggedContent {
		return s
	}
	return s[:maxLoggedContent] + "..."
}

var defaultNormalizer = New(nil)

// Normalize normalizes text with a Normalizer that discards logs.
func Normalize(text string) jsonvalue.Value {
	return defaultNormalizer.Normalize(text, "", "")
}

package stub

import (
	"github.com/getmockd/stubd/pkg/jsonvalue"
	"github.com/getmockd/stubd/pkg/normalize"
)

// CorrelationKey is the metadata member holding the id of the compiled rule.
const CorrelationKey = "wireMockId"

// CorrelationID returns metadata.wireMockId, or "" when the metadata is
// unreadable or carries no usable id. Double-encoded metadata is accepted.
func (d *Definition) CorrelationID() string {
	meta, err := normalize.Decode(d.Metadata)
	if err != nil {
		return ""
	}
	v, ok := meta.Get(CorrelationKey)
	if !ok {
		return ""
	}
	s, ok := v.Str()
	if !ok {
		return ""
	}
	return s
}

// SetCorrelationID records ruleID in metadata.wireMockId, keeping the other
// metadata members. An empty ruleID removes the member.
//
// Metadata is rewritten as canonical JSON only when the member changes.
// Metadata that is not a JSON object cannot hold the member: it is kept
// verbatim when ruleID is empty and replaced otherwise.
func (d *Definition) SetCorrelationID(ruleID string) {
	meta, err := normalize.Decode(d.Metadata)
	if err != nil || !meta.IsObject() {
		if ruleID == "" {
			return
		}
		meta = jsonvalue.Object()
	}

	if ruleID == "" {
		if meta.Has(CorrelationKey) {
			d.Metadata = without(meta, CorrelationKey).Canonical()
		}
		return
	}
	if current, ok := meta.Get(CorrelationKey); ok {
		if s, isStr := current.Str(); isStr && s == ruleID {
			return
		}
	}
	d.Metadata = meta.With(CorrelationKey, jsonvalue.String(ruleID)).Canonical()
}

func without(obj jsonvalue.Value, key string) jsonvalue.Value {
	out := jsonvalue.Object()
	for _, k := range obj.Keys() {
		if k == key {
			continue
		}
		member, _ := obj.Get(k)
		out = out.With(k, member)
	}
	return out
}

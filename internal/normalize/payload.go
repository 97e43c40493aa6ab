// File: internal/normalize/payload.go
package normalize

import (
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
)

// PayloadKind tags the resolved shape of an agent session payload.
type PayloadKind int

const (
	// PayloadEmpty means the session carried no usable output.
	PayloadEmpty PayloadKind = iota
	// PayloadText means the output was a string that did not parse as a
	// JSON object; the original text is preserved.
	PayloadText
	// PayloadObject means the output was (or parsed to) a JSON object.
	PayloadObject
)

// Payload is the tagged-union form of a session's raw structured output.
// The agent may return null, an object, a JSON-encoded string, or plain
// prose; resolving the shape once here keeps per-field "or" fallbacks out
// of call sites.
type Payload struct {
	Kind PayloadKind
	// Text holds the original string for PayloadText payloads.
	Text string
	// Object holds the fields for alias lookup. For PayloadText it is the
	// wrapped form {"text": <original>}, so downstream extraction still
	// has one place to look.
	Object map[string]any
}

// ResolvePayload classifies a raw session payload into a Payload.
func ResolvePayload(raw any) Payload {
	switch v := raw.(type) {
	case nil:
		return Payload{Kind: PayloadEmpty}
	case map[string]any:
		if len(v) == 0 {
			return Payload{Kind: PayloadEmpty}
		}
		return Payload{Kind: PayloadObject, Object: v}
	case string:
		if strings.TrimSpace(v) == "" {
			return Payload{Kind: PayloadEmpty}
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(v), &obj); err == nil {
			return Payload{Kind: PayloadObject, Object: obj}
		}
		// Not JSON (or JSON but not an object): keep the prose, wrapped
		// so field extraction has a uniform shape to work on.
		return Payload{Kind: PayloadText, Text: v, Object: map[string]any{"text": v}}
	default:
		// Arrays, numbers and other exotic shapes carry nothing the
		// result schema can use.
		return Payload{Kind: PayloadEmpty}
	}
}

// stringField returns the first present, non-empty string among the
// aliased keys, else def.
func stringField(obj map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return def
}

// stringList returns the first present list among the aliased keys,
// coerced to strings in order, else an empty list. Non-string elements
// are formatted rather than dropped so a sloppy agent response still
// yields a usable plan.
func stringList(obj map[string]any, keys ...string) []string {
	for _, k := range keys {
		raw, ok := obj[k].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			switch v := item.(type) {
			case string:
				out = append(out, v)
			case float64:
				out = append(out, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		return out
	}
	return []string{}
}

// floatField returns the first aliased value that casts to a float, else
// def. Strings holding numbers are accepted; anything else falls through
// to the default rather than failing.
func floatField(obj map[string]any, def float64, keys ...string) float64 {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return def
}

// boolField returns the first aliased bool, else def.
func boolField(obj map[string]any, def bool, keys ...string) bool {
	for _, k := range keys {
		if b, ok := obj[k].(bool); ok {
			return b
		}
	}
	return def
}

package webhook_log

import (
	"encoding/json"

	"gorm.io/datatypes"
)

const redactedMarker = "[redacted]"

// sensitiveKeys are envelope sub-trees whose leaf values never reach storage.
var sensitiveKeys = map[string]bool{
	"payment_method":    true,
	"payment_method_id": true,
	"card":              true,
	"card_number":       true,
	"csc":               true,
	"recipient":         true,
}

// Redact replaces the values of sensitive sub-fields in a webhook payload
// with an opaque marker while preserving the payload's structural shape.
// Payloads that do not parse are stored as an empty object.
func Redact(raw []byte) datatypes.JSON {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	out, err := json.Marshal(redactValue(doc, false))
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(out)
}

// redactValue walks the document; once inside a sensitive sub-tree every
// scalar leaf is masked, but maps and arrays keep their keys and lengths.
func redactValue(v any, sensitive bool) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = redactValue(child, sensitive || sensitiveKeys[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = redactValue(child, sensitive)
		}
		return out
	default:
		if sensitive && val != nil {
			return redactedMarker
		}
		return val
	}
}

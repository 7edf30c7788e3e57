package ragops

import (
	"encoding/json"
	"fmt"
)

// DecodeArguments normalizes a tool call's raw argument payload into an
// argument map. The payload is whatever the model produced: a JSON object, a
// JSON-encoded string wrapping an object, or garbage. Malformed, null, and
// empty payloads decode to an empty map, never an error; bad arguments from a
// model must degrade to "no arguments" rather than abort the turn.
func DecodeArguments(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err == nil && args != nil {
		return args
	}

	// The arguments may be double-encoded: a JSON string holding an object.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if err := json.Unmarshal([]byte(encoded), &args); err == nil && args != nil {
			return args
		}
	}

	return map[string]any{}
}

// EncodeResult normalizes a tool handler's return value into the string
// stored as tool-result message content. Strings pass through unchanged;
// other values are JSON-serialized, falling back to their default string
// representation when serialization fails.
func EncodeResult(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.RawMessage:
		return string(v)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}

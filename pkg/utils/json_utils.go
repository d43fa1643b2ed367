package utils

import (
	"encoding/json"
	"fmt"
)

// ToRawMessage encodes v once so the same bytes can be handed to the event
// bus on every publish attempt without re-marshalling.
func ToRawMessage(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode event payload: %w", err)
	}
	return json.RawMessage(data), nil
}

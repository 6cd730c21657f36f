package api

import (
	"bytes"
	"encoding/json"
)

// listPayload decodes the backend's inconsistent list envelopes. A list
// endpoint may answer with a counted object keyed per endpoint
// ({count, articles}, {count, symbols}, ...), a bare JSON array, or
// null. Every shape lands in Items, in wire order; null and absent
// payloads yield an empty slice, never nil.
type listPayload[T any] struct {
	Key   string
	Items []T
}

func (l *listPayload[T]) UnmarshalJSON(data []byte) error {
	l.Items = []T{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &l.Items)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	raw, ok := env[l.Key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, &l.Items)
}

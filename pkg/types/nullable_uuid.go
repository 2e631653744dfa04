package types

import (
	"bytes"
	"encoding/json"

	"github.com/google/uuid"
)

// NullableUUID is a reporting-line reference in a patch body. Valid reports
// whether the key was present at all; a present null or "" clears the line.
type NullableUUID struct {
	Valid bool
	Value *uuid.UUID
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NullableUUID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	n.Valid = true
	n.Value = nil
	if bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil
	}

	var parsed uuid.UUID
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Value = &parsed
	return nil
}

// MarshalJSON renders the id or null.
func (n NullableUUID) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value.String())
}

// Apply returns the value to store: current when the key was absent,
// otherwise the patched value (nil clears).
func (n NullableUUID) Apply(current *uuid.UUID) *uuid.UUID {
	if !n.Valid {
		return current
	}
	return n.Value
}

// SetUUID wraps id as a present value.
func SetUUID(id uuid.UUID) NullableUUID {
	return NullableUUID{Valid: true, Value: &id}
}

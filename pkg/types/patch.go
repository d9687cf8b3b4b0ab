package types

import (
	"bytes"
	"encoding/json"
)

// Field tracks whether a JSON field was present in a partial update and
// whether it was an explicit null. An absent field leaves the stored value
// unchanged; a present null is reported through Null and each patch decides
// whether clearing is allowed.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// NewField returns a present, non-null field.
func NewField[T any](value T) Field[T] {
	return Field[T]{Set: true, Value: value}
}

// UnmarshalJSON implements json.Unmarshaler. It only runs for keys present
// in the payload, which is what makes Set meaningful.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	f.Set = true
	if bytes.Equal(trimmed, []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(trimmed, &f.Value)
}

// MarshalJSON implements json.Marshaler.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Get returns the value and whether it should be applied.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Set && !f.Null
}

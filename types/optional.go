package types

import (
	"bytes"
	"encoding/json"
)

// Optional records whether a JSON key was present in a payload, and if so
// whether it carried null or a value. The zero value means "key absent".
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](value T) Optional[T] {
	return Optional[T]{Set: true, Value: value}
}

// Null returns a present Optional carrying JSON null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether the key was sent with a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// IsZero lets `omitzero` drop absent keys when encoding.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Null = true
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

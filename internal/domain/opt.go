package domain

import (
	"bytes"
	"encoding/json"
)

// Opt is an optional float64. Indicator and fundamental fields that cannot be
// computed from the available history carry an invalid Opt instead of a
// sentinel number, so every consumer has to handle the missing case.
type Opt struct {
	value float64
	valid bool
}

// Some wraps a computed value.
func Some(v float64) Opt {
	return Opt{value: v, valid: true}
}

// None marks a field as not computable (insufficient data).
func None() Opt {
	return Opt{}
}

// Valid reports whether the value was computed.
func (o Opt) Valid() bool {
	return o.valid
}

// Value returns the computed value and whether it is usable.
func (o Opt) Value() (float64, bool) {
	return o.value, o.valid
}

// Or returns the value, or def when the field is missing.
func (o Opt) Or(def float64) float64 {
	if !o.valid {
		return def
	}
	return o.value
}

var jsonNull = []byte("null")

// MarshalJSON encodes a missing value as null so downstream consumers can
// distinguish "not computed" from any real reading.
func (o Opt) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return jsonNull, nil
	}
	return json.Marshal(o.value)
}

func (o *Opt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*o = Opt{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

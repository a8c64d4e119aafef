package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a scalar chart datum: a string, a number or a boolean.
type Value struct {
	v any
}

func String(s string) Value { return Value{v: s} }
func Number(f float64) Value { return Value{v: f} }
func Bool(b bool) Value { return Value{v: b} }
func (v Value) Raw() any { return v.v }
func (v Value) IsZero() bool { return v.v == nil }
func (v Value) String() string { return scalarString(v.v) }

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	raw, err := decodeScalar(b)
	if err != nil {
		return err
	}
	v.v = raw
	return nil
}

// Cell is a table cell: a string or a number.
type Cell struct {
	v any
}

func TextCell(s string) Cell { return Cell{v: s} }
func NumberCell(f float64) Cell { return Cell{v: f} }
func (c Cell) Raw() any { return c.v }
func (c Cell) String() string { return scalarString(c.v) }

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.v)
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	raw, err := decodeScalar(b)
	if err != nil {
		return err
	}
	if _, ok := raw.(bool); ok {
		return fmt.Errorf("table cell must be a string or number, got boolean")
	}
	c.v = raw
	return nil
}

func decodeScalar(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	switch t := raw.(type) {
	case string, bool:
		return t, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case nil:
		return nil, fmt.Errorf("scalar value must not be null")
	default:
		return nil, fmt.Errorf("expected a string, number or boolean, got %T", raw)
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

package timeline

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// A Value is a literal attribute value: a number, or a string that may carry
// a trailing unit such as "10px".
type Value struct {
	str      string
	num      float64
	isString bool
}

// Number creates a numeric Value.
func Number(f float64) Value {
	return Value{num: f}
}

// String creates a string Value.
func String(s string) Value {
	return Value{str: s, isString: true}
}

// NumberPtr is shorthand for a pointer to a numeric Value.
func NumberPtr(f float64) *Value {
	v := Number(f)
	return &v
}

// StringPtr is shorthand for a pointer to a string Value.
func StringPtr(s string) *Value {
	v := String(s)
	return &v
}

// IsString reports whether v holds a string.
func (v Value) IsString() bool {
	return v.isString
}

// Float returns the numeric value. It is 0 for string values.
func (v Value) Float() float64 {
	return v.num
}

// String formats the value as it would appear in a style rule.
func (v Value) String() string {
	if v.isString {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isString {
		return json.Marshal(v.str)
	}
	return json.Marshal(v.num)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("value must be a number or string: %s", string(data))
	}
	*v = String(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.isString {
		return v.str, nil
	}
	return v.num, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case int:
		*v = Number(float64(x))
	case float64:
		*v = Number(x)
	case string:
		*v = String(x)
	default:
		return fmt.Errorf("value must be a number or string: %v", raw)
	}
	return nil
}

package cmdbuf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// UniformValue is a uniform update: either a single number or a vector.
// The distinction is preserved through serialization.
type UniformValue struct {
	Values []float64
	Vector bool
}

// Scalar returns a single-number uniform value.
func Scalar(v float64) UniformValue {
	return UniformValue{Values: []float64{v}}
}

// Vec returns a vector uniform value.
func Vec(v ...float64) UniformValue {
	return UniformValue{Values: slices.Clone(v), Vector: true}
}

// Float returns the first component, or 0 for an empty value.
func (u UniformValue) Float() float64 {
	if len(u.Values) == 0 {
		return 0
	}
	return u.Values[0]
}

// Len returns the number of components.
func (u UniformValue) Len() int { return len(u.Values) }

func (u UniformValue) clone() UniformValue {
	return UniformValue{Values: slices.Clone(u.Values), Vector: u.Vector}
}

// MarshalJSON encodes scalars as numbers and vectors as arrays.
func (u UniformValue) MarshalJSON() ([]byte, error) {
	if !u.Vector {
		return json.Marshal(u.Float())
	}
	if u.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(u.Values)
}

// UnmarshalJSON accepts a number or an array of numbers.
func (u *UniformValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var vals []float64
		if err := json.Unmarshal(data, &vals); err != nil {
			return err
		}
		*u = UniformValue{Values: vals, Vector: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("uniform must be a number or number array: %w", err)
	}
	*u = Scalar(v)
	return nil
}

func cloneUniforms(in map[string]UniformValue) map[string]UniformValue {
	out := make(map[string]UniformValue, len(in))
	for name, v := range in {
		out[name] = v.clone()
	}
	return out
}

// Names returns the uniform names in sorted order.
func (c UniformsCommand) Names() []string {
	return slices.Sorted(maps.Keys(c.Uniforms))
}

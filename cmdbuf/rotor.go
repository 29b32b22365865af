package cmdbuf

import (
	"encoding/json"
	"fmt"
	"math"
)

// RotorComponents is the number of components in a 4D rotor.
const RotorComponents = 8

// Rotor is an element of the even subalgebra of Cl(4,0) used to rotate
// 4D geometry. Components are ordered s, xy, xz, yz, xw, yw, zw, xyzw.
// They are float64 so a decoded rotor re-encodes to the same JSON numbers;
// backends narrow them when uploading.
type Rotor [RotorComponents]float64

// IdentityRotor returns the rotor that leaves geometry unchanged.
func IdentityRotor() Rotor {
	return Rotor{1, 0, 0, 0, 0, 0, 0, 0}
}

// NewRotor builds a rotor from exactly eight components.
func NewRotor(components []float64) (Rotor, error) {
	var r Rotor
	if len(components) != RotorComponents {
		return r, fmt.Errorf("%w: rotor needs %d components, got %d",
			ErrArgument, RotorComponents, len(components))
	}
	copy(r[:], components)
	return r, nil
}

// Scalar returns the scalar part.
func (r Rotor) Scalar() float64 { return r[0] }

// Bivector returns the six bivector components xy, xz, yz, xw, yw, zw.
func (r Rotor) Bivector() [6]float64 {
	return [6]float64{r[1], r[2], r[3], r[4], r[5], r[6]}
}

// Pseudoscalar returns the xyzw component.
func (r Rotor) Pseudoscalar() float64 { return r[7] }

// Magnitude returns the Euclidean norm of the components.
func (r Rotor) Magnitude() float64 {
	var sum float64
	for _, c := range r {
		sum += c * c
	}
	return math.Sqrt(sum)
}

// Normalized returns r scaled to unit magnitude.
// A zero rotor normalizes to the identity.
func (r Rotor) Normalized() Rotor {
	m := r.Magnitude()
	if m == 0 || !r.IsFinite() {
		return IdentityRotor()
	}
	var out Rotor
	for i, c := range r {
		out[i] = c / m
	}
	return out
}

// IsFinite reports whether no component is NaN or infinite.
func (r Rotor) IsFinite() bool {
	for _, c := range r {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// UnmarshalJSON decodes a JSON array and rejects any length other than eight.
func (r *Rotor) UnmarshalJSON(data []byte) error {
	var comps []float64
	if err := json.Unmarshal(data, &comps); err != nil {
		return err
	}
	v, err := NewRotor(comps)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// UnmarshalJSON decodes a JSON array and rejects any length other than four.
func (c *Color) UnmarshalJSON(data []byte) error {
	var comps []float64
	if err := json.Unmarshal(data, &comps); err != nil {
		return err
	}
	if len(comps) != len(c) {
		return fmt.Errorf("%w: color needs 4 components, got %d", ErrArgument, len(comps))
	}
	copy(c[:], comps)
	return nil
}

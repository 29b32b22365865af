package cmdbuf

import (
	"fmt"
	"math"
)

// Validate checks that the projection is well formed: a known type, a
// dimension of 3 or 4, finite near < far, and for perspective a field of
// view strictly between 0 and pi.
func (p ProjectionCommand) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown projection type %q", ErrArgument, p.Kind)
	}
	if p.Dimension != 3 && p.Dimension != 4 {
		return fmt.Errorf("%w: projection dimension must be 3 or 4, got %d", ErrArgument, p.Dimension)
	}
	if !finite(p.Near) || !finite(p.Far) || !finite(p.FOV) {
		return fmt.Errorf("%w: projection parameters must be finite", ErrArgument)
	}
	if p.Near >= p.Far {
		return fmt.Errorf("%w: projection near %g must be less than far %g", ErrArgument, p.Near, p.Far)
	}
	if p.Kind == ProjectionPerspective && (p.FOV <= 0 || p.FOV >= math.Pi) {
		return fmt.Errorf("%w: perspective fov %g out of range (0, pi)", ErrArgument, p.FOV)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

package math3d

import "errors"

// ErrDegenerateMatrix is returned when a matrix cannot be inverted (its
// determinant is zero) or a view basis collapses, e.g. a look-at whose
// forward axis is parallel to up.
var ErrDegenerateMatrix = errors.New("math3d: degenerate matrix")

package scene

// Cached memoizes a derived value behind a dirty flag. The owner calls
// Invalidate from every mutator that affects the value and Get with the
// function that rebuilds it. The compute function is passed on each Get
// rather than stored, so a Cached stays valid when its owner is copied.
//
// Cached is not safe for concurrent use.
type Cached[T any] struct {
	value T
	valid bool
}

// Get returns the memoized value, calling compute first if the cache is
// dirty. A compute error is returned as is and leaves the cache dirty.
func (c *Cached[T]) Get(compute func() (T, error)) (T, error) {
	if c.valid {
		return c.value, nil
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value, c.valid = v, true
	return v, nil
}

// Invalidate marks the value stale.
func (c *Cached[T]) Invalidate() {
	c.valid = false
}

// Valid reports whether the next Get returns without recomputing.
func (c *Cached[T]) Valid() bool {
	return c.valid
}

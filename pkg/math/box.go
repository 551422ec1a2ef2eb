package math

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r3"
)

// EmptyBox returns a box that contains nothing; extending it with a point
// yields a zero-size box around that point.
func EmptyBox() r3.Box {
	inf := gomath.Inf(1)
	return r3.Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// ExtendBox grows b to include v.
func ExtendBox(b r3.Box, v r3.Vec) r3.Box {
	b.Min = r3.Vec{X: gomath.Min(b.Min.X, v.X), Y: gomath.Min(b.Min.Y, v.Y), Z: gomath.Min(b.Min.Z, v.Z)}
	b.Max = r3.Vec{X: gomath.Max(b.Max.X, v.X), Y: gomath.Max(b.Max.Y, v.Y), Z: gomath.Max(b.Max.Z, v.Z)}
	return b
}

// BoxIsEmpty reports whether b contains no point.
func BoxIsEmpty(b r3.Box) bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// BoxOverlaps reports whether a and b share at least one point.
func BoxOverlaps(a, b r3.Box) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// BoxAround returns the cube of half-size r centered on v.
func BoxAround(v r3.Vec, r float64) r3.Box {
	d := r3.Vec{X: r, Y: r, Z: r}
	return r3.Box{Min: r3.Sub(v, d), Max: r3.Add(v, d)}
}

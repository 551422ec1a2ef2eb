// Package math provides the geometry helpers shared by the mesh packages.
//
// Positions and normals are gonum r3.Vec values, texture coordinates are
// r2.Vec values and angular tolerances are s1.Angle values.
package math

import (
	gomath "math"

	"github.com/golang/geo/s1"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Epsilon is the length below which an edge or area is treated as zero.
const Epsilon = 1e-12

// Degrees converts a value in degrees to an s1.Angle.
func Degrees(d float64) s1.Angle {
	return s1.Angle(d) * s1.Degree
}

// Angle returns the unsigned angle between u and v.
// A zero-length input yields a zero angle.
func Angle(u, v r3.Vec) s1.Angle {
	cross := r3.Norm(r3.Cross(u, v))
	dot := r3.Dot(u, v)
	if cross == 0 && dot == 0 {
		return 0
	}
	return s1.Angle(gomath.Atan2(cross, dot))
}

// Cross returns (b-a) x (c-a), twice the signed area vector of the triangle.
func Cross(a, b, c r3.Vec) r3.Vec {
	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}

// TriangleNormal returns the unit normal of triangle abc, or the zero
// vector when the triangle has no area.
func TriangleNormal(a, b, c r3.Vec) r3.Vec {
	n := Cross(a, b, c)
	l := r3.Norm(n)
	if l <= Epsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/l, n)
}

// PolygonNormal returns the unit Newell normal of the closed polygon pts,
// which stays stable for non-planar polygons with more than three sides.
// Degenerate input gives the zero vector.
func PolygonNormal(pts []r3.Vec) r3.Vec {
	if len(pts) == 3 {
		return TriangleNormal(pts[0], pts[1], pts[2])
	}
	var n r3.Vec
	for i, a := range pts {
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return Unit(n)
}

// TriangleArea returns the area of triangle abc.
func TriangleArea(a, b, c r3.Vec) float64 {
	return 0.5 * r3.Norm(Cross(a, b, c))
}

// AspectRatio returns the longest side of triangle abc divided by the
// triangle height measured from that side. Degenerate triangles return +Inf.
func AspectRatio(a, b, c r3.Vec) float64 {
	l := gomath.Max(r3.Norm2(r3.Sub(b, a)), gomath.Max(r3.Norm2(r3.Sub(c, b)), r3.Norm2(r3.Sub(a, c))))
	area2 := r3.Norm(Cross(a, b, c))
	if area2 <= Epsilon {
		return gomath.Inf(1)
	}
	// height = area2 / longest, so longest / height = longest^2 / area2
	return l / area2
}

// Barycenter returns the average of the given points.
func Barycenter(pts ...r3.Vec) r3.Vec {
	if len(pts) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, p := range pts {
		sum = r3.Add(sum, p)
	}
	return r3.Scale(1/float64(len(pts)), sum)
}

// Lerp interpolates between a and b at parameter t.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// LerpUV interpolates texture coordinates.
func LerpUV(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// LerpColor interpolates an RGBA color channel by channel.
func LerpColor(a, b [4]uint8, t float64) [4]uint8 {
	var out [4]uint8
	for i := range out {
		v := float64(a[i]) + t*(float64(b[i])-float64(a[i]))
		out[i] = uint8(gomath.Round(gomath.Max(0, gomath.Min(255, v))))
	}
	return out
}

// Unit returns v normalized, or the zero vector for a zero-length input.
func Unit(v r3.Vec) r3.Vec {
	l := r3.Norm(v)
	if l <= Epsilon {
		return r3.Vec{}
	}
	return r3.Scale(1/l, v)
}

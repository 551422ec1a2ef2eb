package math

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Axis identifies one of the three principal axes. The cutting plane of an
// axis is the plane perpendicular to it (AxisX cuts along the YZ plane).
type Axis uint8

const (
	AxisX Axis = iota // YZ plane
	AxisY             // XZ plane
	AxisZ             // XY plane
)

// Axes lists the principal axes in order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

// String returns the axis letter.
func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ParseAxis accepts an axis letter ("x") or the name of the plane
// perpendicular to it ("yz").
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "yz":
		return AxisX, nil
	case "y", "xz", "zx":
		return AxisY, nil
	case "z", "xy", "yx":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Component returns the coordinate of v along the axis.
func (a Axis) Component(v r3.Vec) float64 {
	switch a {
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	default:
		return v.X
	}
}

// With returns v with its coordinate along the axis replaced by c.
func (a Axis) With(v r3.Vec, c float64) r3.Vec {
	switch a {
	case AxisY:
		v.Y = c
	case AxisZ:
		v.Z = c
	default:
		v.X = c
	}
	return v
}

// Plane is an axis-aligned plane: all points whose coordinate along Axis
// equals Offset.
type Plane struct {
	Axis   Axis
	Offset float64
}

// Distance returns the signed distance of v from the plane.
func (p Plane) Distance(v r3.Vec) float64 {
	return p.Axis.Component(v) - p.Offset
}

// String returns a readable form such as "X=1.5".
func (p Plane) String() string {
	return fmt.Sprintf("%s=%g", p.Axis, p.Offset)
}

package math

import (
	gomath "math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func approx(a, b float64) bool {
	return gomath.Abs(a-b) < 1e-9
}

func TestTriangleNormal(t *testing.T) {
	n := TriangleNormal(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1})
	if n != (r3.Vec{Z: 1}) {
		t.Errorf("TriangleNormal() = %v, want (0,0,1)", n)
	}

	n = TriangleNormal(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2})
	if n != (r3.Vec{}) {
		t.Errorf("collinear TriangleNormal() = %v, want zero", n)
	}
}

func TestPolygonNormal(t *testing.T) {
	tests := []struct {
		name string
		pts  []r3.Vec
		want r3.Vec
	}{
		{"triangle", []r3.Vec{{}, {X: 1}, {Y: 1}}, r3.Vec{Z: 1}},
		{"quad", []r3.Vec{{}, {X: 2}, {X: 2, Y: 1}, {Y: 1}}, r3.Vec{Z: 1}},
		{"clockwise quad", []r3.Vec{{}, {Z: 1}, {Y: 1, Z: 1}, {Y: 1}}, r3.Vec{X: -1}},
		// a slightly warped quad still points up
		{"warped quad", []r3.Vec{{}, {X: 1, Z: 0.1}, {X: 1, Y: 1}, {Y: 1, Z: 0.1}}, r3.Vec{Z: 1}},
		{"collinear", []r3.Vec{{}, {X: 1}, {X: 2}, {X: 3}}, r3.Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PolygonNormal(tt.pts)
			if tt.want == (r3.Vec{}) {
				if got != tt.want {
					t.Errorf("PolygonNormal() = %v, want zero", got)
				}
				return
			}
			if r3.Dot(got, tt.want) < 0.99 {
				t.Errorf("PolygonNormal() = %v, want about %v", got, tt.want)
			}
			if gomath.Abs(r3.Norm(got)-1) > 1e-12 {
				t.Errorf("|PolygonNormal()| = %g, want 1", r3.Norm(got))
			}
		})
	}
}

func TestTriangleArea(t *testing.T) {
	got := TriangleArea(r3.Vec{}, r3.Vec{X: 2}, r3.Vec{Y: 2})
	if !approx(got, 2) {
		t.Errorf("TriangleArea() = %v, want 2", got)
	}
}

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c r3.Vec
		want    float64
	}{
		{"right isosceles", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{Y: 1}, 2},
		{"equilateral", r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 0.5, Y: gomath.Sqrt(3) / 2}, 2 / gomath.Sqrt(3)},
		{"sliver", r3.Vec{}, r3.Vec{X: 10}, r3.Vec{X: 5, Y: 0.5}, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AspectRatio(tt.a, tt.b, tt.c); !approx(got, tt.want) {
				t.Errorf("AspectRatio() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := AspectRatio(r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2}); !gomath.IsInf(got, 1) {
		t.Errorf("degenerate AspectRatio() = %v, want +Inf", got)
	}
}

func TestAngle(t *testing.T) {
	got := Angle(r3.Vec{X: 1}, r3.Vec{Y: 1}).Degrees()
	if !approx(got, 90) {
		t.Errorf("Angle() = %v degrees, want 90", got)
	}
	if got := Angle(r3.Vec{X: 1}, r3.Vec{X: 2}); got != 0 {
		t.Errorf("parallel Angle() = %v, want 0", got)
	}
	if got := Degrees(180).Radians(); !approx(got, gomath.Pi) {
		t.Errorf("Degrees(180) = %v rad, want pi", got)
	}
}

func TestLerp(t *testing.T) {
	p := Lerp(r3.Vec{X: -1}, r3.Vec{X: 1, Y: 2}, 0.5)
	if p != (r3.Vec{X: 0, Y: 1}) {
		t.Errorf("Lerp() = %v", p)
	}
	uv := LerpUV(r2.Vec{}, r2.Vec{X: 1, Y: 1}, 0.25)
	if uv != (r2.Vec{X: 0.25, Y: 0.25}) {
		t.Errorf("LerpUV() = %v", uv)
	}
	c := LerpColor([4]uint8{0, 0, 0, 255}, [4]uint8{255, 100, 0, 255}, 0.5)
	if c != [4]uint8{128, 50, 0, 255} {
		t.Errorf("LerpColor() = %v", c)
	}
}

func TestParseAxis(t *testing.T) {
	tests := []struct {
		in      string
		want    Axis
		wantErr bool
	}{
		{"x", AxisX, false},
		{"YZ", AxisX, false},
		{"y", AxisY, false},
		{"xz", AxisY, false},
		{"z", AxisZ, false},
		{"xy", AxisZ, false},
		{"w", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAxis(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAxis(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAxis(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPlaneDistance(t *testing.T) {
	p := Plane{Axis: AxisY, Offset: 2}
	if d := p.Distance(r3.Vec{X: 9, Y: 5, Z: -1}); d != 3 {
		t.Errorf("Distance() = %v, want 3", d)
	}
	if s := p.String(); s != "Y=2" {
		t.Errorf("String() = %q, want Y=2", s)
	}
	if v := AxisZ.With(r3.Vec{X: 1, Y: 2, Z: 3}, 7); v != (r3.Vec{X: 1, Y: 2, Z: 7}) {
		t.Errorf("With() = %v", v)
	}
}

func TestBox(t *testing.T) {
	b := EmptyBox()
	if !BoxIsEmpty(b) {
		t.Fatal("EmptyBox() should be empty")
	}
	b = ExtendBox(b, r3.Vec{X: -1, Y: 0, Z: 2})
	b = ExtendBox(b, r3.Vec{X: 1, Y: 4, Z: 0})

	if BoxIsEmpty(b) {
		t.Fatal("extended box should not be empty")
	}
	if c := b.Center(); c != (r3.Vec{X: 0, Y: 2, Z: 1}) {
		t.Errorf("Center() = %v", c)
	}
	if s := b.Size(); s != (r3.Vec{X: 2, Y: 4, Z: 2}) {
		t.Errorf("Size() = %v", s)
	}
	if !b.Contains(r3.Vec{X: 1, Y: 4, Z: 2}) {
		t.Error("corner should be contained")
	}
	if BoxOverlaps(b, BoxAround(r3.Vec{X: 5}, 1)) {
		t.Error("distant box should not overlap")
	}
}

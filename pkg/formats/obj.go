// Wavefront OBJ reader and writer for geometry exchange.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/scene"
)

// OBJ format errors.
var (
	ErrMalformedOBJ = errors.New("malformed OBJ data")
	ErrOBJIndex     = errors.New("OBJ index out of range")
)

// objRef is one corner of an OBJ face: indices into the v, vt and vn
// lists, -1 when absent.
type objRef struct {
	v, vt, vn int
}

// ParseOBJ reads v, vt, vn and f statements. Each distinct v/vt/vn
// combination becomes one primitive vertex. Vertex colors given as
// "v x y z r g b" are kept. Other statements are ignored.
func ParseOBJ(r io.Reader) (*scene.Primitive, error) {
	var (
		positions []r3.Vec
		colors    [][4]uint8
		hasColor  bool
		uvs       []r2.Vec
		normals   []r3.Vec
		faces     [][]objRef
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			vals, err := parseFloats(fields[1:])
			if err != nil || (len(vals) != 3 && len(vals) != 4 && len(vals) != 6) {
				return nil, fmt.Errorf("%w: line %d: bad vertex", ErrMalformedOBJ, line)
			}
			positions = append(positions, r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]})
			c := [4]uint8{255, 255, 255, 255}
			if len(vals) == 6 {
				hasColor = true
				for i := range 3 {
					c[i] = unitToByte(vals[3+i])
				}
			}
			colors = append(colors, c)
		case "vt":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) < 2 {
				return nil, fmt.Errorf("%w: line %d: bad texture coordinate", ErrMalformedOBJ, line)
			}
			uvs = append(uvs, r2.Vec{X: vals[0], Y: vals[1]})
		case "vn":
			vals, err := parseFloats(fields[1:])
			if err != nil || len(vals) != 3 {
				return nil, fmt.Errorf("%w: line %d: bad normal", ErrMalformedOBJ, line)
			}
			normals = append(normals, r3.Vec{X: vals[0], Y: vals[1], Z: vals[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs 3 vertices", ErrMalformedOBJ, line)
			}
			face := make([]objRef, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				ref, err := parseRef(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				face = append(face, ref)
			}
			faces = append(faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	var anyUV, anyNormal bool
	for _, f := range faces {
		for _, ref := range f {
			anyUV = anyUV || ref.vt >= 0
			anyNormal = anyNormal || ref.vn >= 0
		}
	}

	p := &scene.Primitive{}
	index := make(map[objRef]int)
	for _, f := range faces {
		out := make([]int, len(f))
		for i, ref := range f {
			idx, ok := index[ref]
			if !ok {
				idx = len(p.Positions)
				index[ref] = idx
				p.Positions = append(p.Positions, positions[ref.v])
				if hasColor {
					p.Colors = append(p.Colors, colors[ref.v])
				}
				if anyUV {
					var uv r2.Vec
					if ref.vt >= 0 {
						uv = uvs[ref.vt]
					}
					p.UVs = append(p.UVs, uv)
				}
				if anyNormal {
					var n r3.Vec
					if ref.vn >= 0 {
						n = normals[ref.vn]
					}
					p.Normals = append(p.Normals, n)
				}
			}
			out[i] = idx
		}
		p.Faces = append(p.Faces, out)
	}
	return p, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*scene.Primitive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

// parseRef parses "v", "v/vt", "v//vn" or "v/vt/vn". Indices are 1-based;
// negative indices count back from the last element defined so far.
func parseRef(tok string, nv, nvt, nvn int) (objRef, error) {
	ref := objRef{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	if len(parts) > 3 || parts[0] == "" {
		return ref, fmt.Errorf("%w: bad face vertex %q", ErrMalformedOBJ, tok)
	}
	dst := []*int{&ref.v, &ref.vt, &ref.vn}
	limits := []int{nv, nvt, nvn}
	for i, part := range parts {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return ref, fmt.Errorf("%w: bad face vertex %q", ErrMalformedOBJ, tok)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += limits[i]
		default:
			return ref, fmt.Errorf("%w: zero index in %q", ErrOBJIndex, tok)
		}
		if n < 0 || n >= limits[i] {
			return ref, fmt.Errorf("%w: %q", ErrOBJIndex, tok)
		}
		*dst[i] = n
	}
	return ref, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func unitToByte(v float64) uint8 {
	v = max(0, min(1, v))
	return uint8(v*255 + 0.5)
}

// WriteOBJ writes p as OBJ. Attribute streams share the vertex numbering,
// so every face corner is written as i, i/i, i//i or i/i/i.
func WriteOBJ(w io.Writer, p *scene.Primitive) error {
	bw := bufio.NewWriter(w)
	for i, v := range p.Positions {
		if len(p.Colors) > 0 {
			c := p.Colors[i]
			fmt.Fprintf(bw, "v %g %g %g %g %g %g\n", v.X, v.Y, v.Z,
				float64(c[0])/255, float64(c[1])/255, float64(c[2])/255)
		} else {
			fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
		}
	}
	for _, uv := range p.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv.X, uv.Y)
	}
	for _, n := range p.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}
	hasUV, hasNormal := len(p.UVs) > 0, len(p.Normals) > 0
	for _, f := range p.Faces {
		bw.WriteString("f")
		for _, idx := range f {
			i := idx + 1
			switch {
			case hasUV && hasNormal:
				fmt.Fprintf(bw, " %d/%d/%d", i, i, i)
			case hasUV:
				fmt.Fprintf(bw, " %d/%d", i, i)
			case hasNormal:
				fmt.Fprintf(bw, " %d//%d", i, i)
			default:
				fmt.Fprintf(bw, " %d", i)
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// WriteOBJFile writes p to path.
func WriteOBJFile(path string, p *scene.Primitive) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	if err := WriteOBJ(f, p); err != nil {
		f.Close()
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return f.Close()
}

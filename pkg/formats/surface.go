// HEMS (half-edge mesh snapshot) format reader and writer.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
)

// HEMS format errors.
var (
	ErrInvalidSurfaceMagic       = errors.New("invalid surface magic: expected 'HEMS'")
	ErrUnsupportedSurfaceVersion = errors.New("unsupported surface version")
	ErrTruncatedSurface          = errors.New("truncated surface data")
	ErrInvalidStatusTag          = errors.New("invalid status tag")
	ErrInvalidColorLength        = errors.New("invalid color length")
	ErrInvalidCount              = errors.New("invalid record count")
	ErrInvalidReference          = errors.New("reference out of range")
)

// SurfaceMagic opens every HEMS file.
const SurfaceMagic = "HEMS"

// maxRecords bounds the per-section counts accepted by the reader.
const maxRecords = 1 << 26

// SurfaceVersion represents the HEMS file version.
type SurfaceVersion struct {
	Major uint8
	Minor uint8
}

// CurrentSurfaceVersion is the version WriteSurface emits.
var CurrentSurfaceVersion = SurfaceVersion{Major: 1, Minor: 0}

// String returns the version as "Major.Minor".
func (v SurfaceVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Vertex presence flags.
const (
	hasPosition uint8 = 1 << iota
	hasUV
	hasNormal
	hasColor
	hasBatch
)

// Status tags.
const (
	tagActive  uint8 = 0
	tagDeleted uint8 = 1
)

// Layout, little-endian:
//
//	magic "HEMS", major uint8, minor uint8
//	material int32, accessor int32
//	vertex count int32, then per vertex:
//	  flags uint8, [position 3xf64], [uv 2xf64], [normal 3xf64],
//	  [color len uint8 + bytes], [batch f32], status uint8, edge int32
//	face count int32, then per face:
//	  has normal uint8, [normal 3xf64], status uint8, edge int32
//	bounding box 6xf64 (min, max)
//	half-edge count int32, then per half-edge:
//	  twin int32, next int32, start int32, face int32, status uint8

// encoder writes little-endian values and keeps the first error.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) put(v any) {
	if e.err == nil {
		e.err = binary.Write(e.w, binary.LittleEndian, v)
	}
}

// WriteSurface writes s, tombstones included, in HEMS format.
func WriteSurface(w io.Writer, s *halfedge.Surface) error {
	e := &encoder{w: w}
	e.put([]byte(SurfaceMagic))
	e.put(CurrentSurfaceVersion.Major)
	e.put(CurrentSurfaceVersion.Minor)
	e.put(int32(s.Material))
	e.put(int32(s.Accessor))

	e.put(int32(len(s.Vertices)))
	for i := range s.Vertices {
		v := &s.Vertices[i]
		flags := hasPosition
		if v.Attrs.Has(halfedge.AttrUV) {
			flags |= hasUV
		}
		if v.Attrs.Has(halfedge.AttrNormal) {
			flags |= hasNormal
		}
		if v.Attrs.Has(halfedge.AttrColor) {
			flags |= hasColor
		}
		if v.Attrs.Has(halfedge.AttrBatch) {
			flags |= hasBatch
		}
		e.put(flags)
		e.put([3]float64{v.Position.X, v.Position.Y, v.Position.Z})
		if flags&hasUV != 0 {
			e.put([2]float64{v.UV.X, v.UV.Y})
		}
		if flags&hasNormal != 0 {
			e.put([3]float64{v.Normal.X, v.Normal.Y, v.Normal.Z})
		}
		if flags&hasColor != 0 {
			e.put(uint8(len(v.Color)))
			e.put(v.Color)
		}
		if flags&hasBatch != 0 {
			e.put(v.Batch)
		}
		e.put(statusTag(v.Status))
		e.put(int32(v.Edge))
	}

	e.put(int32(len(s.Faces)))
	for i := range s.Faces {
		f := &s.Faces[i]
		if f.HasNormal {
			e.put(uint8(1))
			e.put([3]float64{f.Normal.X, f.Normal.Y, f.Normal.Z})
		} else {
			e.put(uint8(0))
		}
		e.put(statusTag(f.Status))
		e.put(int32(f.Edge))
	}

	b := s.Bounds()
	if s.ActiveVertexCount() == 0 {
		b = r3.Box{}
	}
	e.put([6]float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z})

	e.put(int32(len(s.Edges)))
	for i := range s.Edges {
		he := &s.Edges[i]
		e.put([4]int32{int32(he.Twin), int32(he.Next), int32(he.Start), int32(he.Face)})
		e.put(statusTag(he.Status))
	}
	return e.err
}

// WriteSurfaceFile writes s to path.
func WriteSurfaceFile(path string, s *halfedge.Surface) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating surface file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := WriteSurface(w, s); err != nil {
		f.Close()
		return fmt.Errorf("writing surface file: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing surface file: %w", err)
	}
	return f.Close()
}

func statusTag(s halfedge.Status) uint8 {
	if s == halfedge.Deleted {
		return tagDeleted
	}
	return tagActive
}

// decoder reads little-endian values and keeps the first error.
type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) get(v any) {
	if d.err == nil {
		d.err = binary.Read(d.r, binary.LittleEndian, v)
	}
}

func (d *decoder) status() halfedge.Status {
	var tag uint8
	d.get(&tag)
	if d.err != nil {
		return halfedge.Active
	}
	switch tag {
	case tagActive:
		return halfedge.Active
	case tagDeleted:
		return halfedge.Deleted
	}
	d.err = fmt.Errorf("%w: %d", ErrInvalidStatusTag, tag)
	return halfedge.Active
}

func (d *decoder) count(what string) int {
	var n int32
	d.get(&n)
	if d.err == nil && (n < 0 || n > maxRecords) {
		d.err = fmt.Errorf("%w: %s %d", ErrInvalidCount, what, n)
	}
	return int(n)
}

// ReadSurface reads a HEMS surface. Every stored index is checked against
// the section it points into once the whole file has been read.
func ReadSurface(r io.Reader) (*halfedge.Surface, error) {
	d := &decoder{r: r}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, ErrTruncatedSurface
	}
	if string(magic) != SurfaceMagic {
		return nil, ErrInvalidSurfaceMagic
	}
	var ver SurfaceVersion
	d.get(&ver.Major)
	d.get(&ver.Minor)
	if d.err == nil && ver.Major != CurrentSurfaceVersion.Major {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSurfaceVersion, ver)
	}

	s := halfedge.NewSurface()
	var material, accessor int32
	d.get(&material)
	d.get(&accessor)
	s.Material, s.Accessor = int(material), int(accessor)

	n := d.count("vertex")
	if d.err == nil {
		s.Vertices = make([]halfedge.Vertex, n)
	}
	for i := 0; i < n && d.err == nil; i++ {
		v := &s.Vertices[i]
		var flags uint8
		d.get(&flags)
		if flags&hasPosition != 0 {
			var p [3]float64
			d.get(&p)
			v.Position = r3.Vec{X: p[0], Y: p[1], Z: p[2]}
		}
		if flags&hasUV != 0 {
			var uv [2]float64
			d.get(&uv)
			v.UV.X, v.UV.Y = uv[0], uv[1]
			v.Attrs |= halfedge.AttrUV
		}
		if flags&hasNormal != 0 {
			var nrm [3]float64
			d.get(&nrm)
			v.Normal = r3.Vec{X: nrm[0], Y: nrm[1], Z: nrm[2]}
			v.Attrs |= halfedge.AttrNormal
		}
		if flags&hasColor != 0 {
			var l uint8
			d.get(&l)
			if d.err == nil && int(l) != len(v.Color) {
				d.err = fmt.Errorf("%w: vertex %d has %d bytes", ErrInvalidColorLength, i, l)
			}
			d.get(&v.Color)
			v.Attrs |= halfedge.AttrColor
		}
		if flags&hasBatch != 0 {
			d.get(&v.Batch)
			v.Attrs |= halfedge.AttrBatch
		}
		v.Status = d.status()
		var e int32
		d.get(&e)
		v.Edge = halfedge.EdgeID(e)
	}

	n = d.count("face")
	if d.err == nil {
		s.Faces = make([]halfedge.Face, n)
	}
	for i := 0; i < n && d.err == nil; i++ {
		f := &s.Faces[i]
		var has uint8
		d.get(&has)
		if has != 0 {
			var nrm [3]float64
			d.get(&nrm)
			f.Normal = r3.Vec{X: nrm[0], Y: nrm[1], Z: nrm[2]}
			f.HasNormal = true
		}
		f.Status = d.status()
		var e int32
		d.get(&e)
		f.Edge = halfedge.EdgeID(e)
	}

	// The bounding box is derived data; it is read and dropped.
	var bounds [6]float64
	d.get(&bounds)

	n = d.count("half-edge")
	if d.err == nil {
		s.Edges = make([]halfedge.HalfEdge, n)
	}
	for i := 0; i < n && d.err == nil; i++ {
		var refs [4]int32
		d.get(&refs)
		s.Edges[i] = halfedge.HalfEdge{
			Twin:  halfedge.EdgeID(refs[0]),
			Next:  halfedge.EdgeID(refs[1]),
			Start: halfedge.VertexID(refs[2]),
			Face:  halfedge.FaceID(refs[3]),
		}
		s.Edges[i].Status = d.status()
	}

	if d.err != nil {
		if errors.Is(d.err, io.EOF) || errors.Is(d.err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncatedSurface
		}
		return nil, d.err
	}
	if err := checkReferences(s); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseSurface parses HEMS data from a byte slice.
func ParseSurface(data []byte) (*halfedge.Surface, error) {
	return ReadSurface(bytes.NewReader(data))
}

// ParseSurfaceFile parses a HEMS file from disk.
func ParseSurfaceFile(path string) (*halfedge.Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading surface file: %w", err)
	}
	return ParseSurface(data)
}

// checkReferences makes sure every index points into its arena. Only
// twins and the references of tombstoned entities may be -1.
func checkReferences(s *halfedge.Surface) error {
	nv, ne, nf := len(s.Vertices), len(s.Edges), len(s.Faces)
	ok := func(i int32, n int, live bool) bool {
		if i == -1 {
			return !live
		}
		return i >= 0 && int(i) < n
	}
	for i := range s.Vertices {
		v := &s.Vertices[i]
		if !ok(int32(v.Edge), ne, v.Status == halfedge.Active) {
			return fmt.Errorf("%w: vertex %d edge %d", ErrInvalidReference, i, v.Edge)
		}
	}
	for i := range s.Faces {
		f := &s.Faces[i]
		if !ok(int32(f.Edge), ne, f.Status == halfedge.Active) {
			return fmt.Errorf("%w: face %d edge %d", ErrInvalidReference, i, f.Edge)
		}
	}
	for i := range s.Edges {
		he := &s.Edges[i]
		live := he.Status == halfedge.Active
		if !ok(int32(he.Twin), ne, false) || !ok(int32(he.Next), ne, true) ||
			!ok(int32(he.Start), nv, live) || !ok(int32(he.Face), nf, live) {
			return fmt.Errorf("%w: half-edge %d", ErrInvalidReference, i)
		}
	}
	return nil
}

package halfedge

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Input errors.
var (
	ErrTooFewVertices   = errors.New("face needs at least three vertices")
	ErrVertexOutOfRange = errors.New("vertex index out of range")
	ErrRepeatedVertex   = errors.New("face references the same vertex twice")
)

// Consistency errors reported by Validate.
var (
	ErrDanglingOutgoing = errors.New("vertex has no live outgoing half-edge")
	ErrBrokenLoop       = errors.New("face loop does not close")
	ErrTwinMismatch     = errors.New("twin is not mutual")
	ErrDeadReference    = errors.New("live entity references a deleted entity")
	ErrIndexOutOfRange  = errors.New("reference index out of range")
)

// Validate checks the topological invariants of every active entity and
// returns all violations combined with multierr, or nil.
func (s *Surface) Validate() error {
	var err error

	for i := range s.Vertices {
		v := VertexID(i)
		if s.Vertices[i].Status != Active {
			continue
		}
		if !s.liveOutgoing(v) {
			err = multierr.Append(err, fmt.Errorf("vertex %d: %w", v, ErrDanglingOutgoing))
		}
	}

	for i := range s.Edges {
		e := EdgeID(i)
		he := s.Edges[i]
		if he.Status != Active {
			continue
		}
		// a bad Next, Face or Start must not mask a twin violation
		linked := false
		switch {
		case !s.validEdge(he.Next) || !s.validFace(he.Face) || !s.validVertex(he.Start):
			err = multierr.Append(err, fmt.Errorf("edge %d: %w", e, ErrIndexOutOfRange))
		case s.Edges[he.Next].Status != Active || s.Faces[he.Face].Status != Active ||
			s.Vertices[he.Start].Status != Active:
			err = multierr.Append(err, fmt.Errorf("edge %d: %w", e, ErrDeadReference))
		default:
			linked = true
		}
		if he.Twin == NoEdge {
			continue
		}
		if !s.validEdge(he.Twin) {
			err = multierr.Append(err, fmt.Errorf("edge %d twin: %w", e, ErrIndexOutOfRange))
			continue
		}
		t := s.Edges[he.Twin]
		switch {
		case t.Status != Active:
			err = multierr.Append(err, fmt.Errorf("edge %d twin %d: %w", e, he.Twin, ErrDeadReference))
		case t.Twin != e:
			err = multierr.Append(err, fmt.Errorf("edge %d twin %d: %w", e, he.Twin, ErrTwinMismatch))
		case !linked:
			// endpoints need a usable Next; already reported above
		case !s.validEdge(t.Next) || t.Start != s.End(e) || he.Start != s.Edges[t.Next].Start:
			err = multierr.Append(err, fmt.Errorf("edge %d twin %d endpoints: %w", e, he.Twin, ErrTwinMismatch))
		}
	}

	for i := range s.Faces {
		f := FaceID(i)
		if s.Faces[i].Status != Active {
			continue
		}
		if ferr := s.checkLoop(f); ferr != nil {
			err = multierr.Append(err, ferr)
		}
	}

	return err
}

// checkLoop walks the loop of f and verifies it closes through live edges
// that all belong to f.
func (s *Surface) checkLoop(f FaceID) error {
	start := s.Faces[f].Edge
	if !s.validEdge(start) {
		return fmt.Errorf("face %d: %w", f, ErrIndexOutOfRange)
	}
	e := start
	for steps := 0; steps <= len(s.Edges); steps++ {
		he := s.Edges[e]
		if he.Status != Active {
			return fmt.Errorf("face %d edge %d: %w", f, e, ErrDeadReference)
		}
		if he.Face != f {
			return fmt.Errorf("face %d edge %d owned by face %d: %w", f, e, he.Face, ErrBrokenLoop)
		}
		if !s.validEdge(he.Next) {
			return fmt.Errorf("face %d edge %d: %w", f, e, ErrIndexOutOfRange)
		}
		e = he.Next
		if e == start {
			if steps < 2 {
				return fmt.Errorf("face %d has %d sides: %w", f, steps+1, ErrBrokenLoop)
			}
			return nil
		}
	}
	return fmt.Errorf("face %d: %w", f, ErrBrokenLoop)
}

func (s *Surface) validVertex(v VertexID) bool {
	return v >= 0 && int(v) < len(s.Vertices)
}

func (s *Surface) validEdge(e EdgeID) bool {
	return e >= 0 && int(e) < len(s.Edges)
}

func (s *Surface) validFace(f FaceID) bool {
	return f >= 0 && int(f) < len(s.Faces)
}

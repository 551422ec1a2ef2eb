package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/midgard-tiler/pkg/formats"
	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/scene"
)

// loadSurface reads a mesh by extension: .obj as a polygon soup,
// anything else as a HEMS snapshot.
func loadSurface(path string) (*halfedge.Surface, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		p, err := formats.ParseOBJFile(path)
		if err != nil {
			return nil, err
		}
		s, err := scene.ToSurface(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	default:
		return formats.ParseSurfaceFile(path)
	}
}

// saveSurface writes s by extension. OBJ output drops tombstones and
// topology; HEMS keeps both.
func saveSurface(path string, s *halfedge.Surface) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return formats.WriteOBJFile(path, scene.FromSurface(s))
	default:
		return formats.WriteSurfaceFile(path, s)
	}
}

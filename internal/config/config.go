// Package config handles meshtool configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-tiler/pkg/cut"
	"github.com/Faultbox/midgard-tiler/pkg/decimate"
	"github.com/Faultbox/midgard-tiler/pkg/weld"
)

// Config holds all pipeline settings.
type Config struct {
	Decimation DecimationConfig `yaml:"decimation"`
	Cut        CutConfig        `yaml:"cut"`
	Weld       WeldConfig       `yaml:"weld"`
	Tiling     TilingConfig     `yaml:"tiling"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DecimationConfig mirrors decimate.Params.
type DecimationConfig struct {
	MaxNormalAngleDeg   float64 `yaml:"max_normal_angle_deg"`
	BoundaryMaxAngleDeg float64 `yaml:"boundary_max_angle_deg"`
	MinEdgeLength       float64 `yaml:"min_edge_length"`
	MaxAspectRatio      float64 `yaml:"max_aspect_ratio"`
	MaxCollapses        int     `yaml:"max_collapses"`
	Iterations          int     `yaml:"iterations"`
	SmallEdgeThreshold  float64 `yaml:"small_edge_threshold"`
	Reweld              bool    `yaml:"reweld"`
	Seed                uint64  `yaml:"seed"`
}

// CutConfig holds plane-cut settings.
type CutConfig struct {
	Tolerance float64 `yaml:"tolerance"`
	TieAbove  bool    `yaml:"tie_above"` // on-plane faces join the upper cell
}

// WeldConfig holds vertex welding settings.
type WeldConfig struct {
	Epsilon     float64 `yaml:"epsilon"`
	MatchUV     bool    `yaml:"match_uv"`
	MatchNormal bool    `yaml:"match_normal"`
	MatchColor  bool    `yaml:"match_color"`
	MatchBatch  bool    `yaml:"match_batch"`
	LeafSize    int     `yaml:"leaf_size"`
}

// TilingConfig drives the per-mesh pipeline.
type TilingConfig struct {
	Workers   int     `yaml:"workers"`    // concurrent meshes, 0 means GOMAXPROCS
	Depth     int     `yaml:"depth"`      // octree subdivision depth of the cut grid
	LeafEdge  float64 `yaml:"leaf_edge"`  // derive depth from a target cell size when > 0
	WeldFirst bool    `yaml:"weld_first"` // weld input soups before decimation
	Decimate  bool    `yaml:"decimate"`
	OutputDir string  `yaml:"output_dir"`

	// LeafVertices, when > 0 and LeafEdge is unset, derives the depth from
	// vertex density: an octree over the vertices splits any node holding
	// more than LeafVertices, and Depth caps how deep it may go.
	LeafVertices int `yaml:"leaf_vertices"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with the stock pipeline settings.
func Default() *Config {
	p := decimate.DefaultParams()
	return &Config{
		Decimation: DecimationConfig{
			MaxNormalAngleDeg:   p.MaxNormalAngleDeg,
			BoundaryMaxAngleDeg: p.BoundaryMaxAngleDeg,
			MinEdgeLength:       p.MinEdgeLength,
			MaxAspectRatio:      p.MaxAspectRatio,
			MaxCollapses:        p.MaxCollapses,
			Iterations:          p.Iterations,
			SmallEdgeThreshold:  p.SmallEdgeThreshold,
			Seed:                p.Seed,
		},
		Cut: CutConfig{
			Tolerance: cut.DefaultTolerance,
		},
		Weld: WeldConfig{
			Epsilon:  weld.DefaultEpsilon,
			LeafSize: weld.DefaultOptions().LeafSize,
		},
		Tiling: TilingConfig{
			Depth:     1,
			WeldFirst: true,
			Decimate:  true,
			OutputDir: "tiles",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DecimateParams converts the decimation section.
func (c *Config) DecimateParams() decimate.Params {
	d := c.Decimation
	return decimate.Params{
		MaxNormalAngleDeg:   d.MaxNormalAngleDeg,
		BoundaryMaxAngleDeg: d.BoundaryMaxAngleDeg,
		MinEdgeLength:       d.MinEdgeLength,
		MaxAspectRatio:      d.MaxAspectRatio,
		MaxCollapses:        d.MaxCollapses,
		Iterations:          d.Iterations,
		SmallEdgeThreshold:  d.SmallEdgeThreshold,
		Reweld:              d.Reweld,
		Seed:                d.Seed,
		Weld:                c.WeldOptions(),
	}
}

// CutOptions converts the cut section.
func (c *Config) CutOptions() cut.Options {
	opts := cut.Options{Tolerance: c.Cut.Tolerance, Policy: cut.TieBelow}
	if c.Cut.TieAbove {
		opts.Policy = cut.TieAbove
	}
	return opts
}

// WeldOptions converts the weld section.
func (c *Config) WeldOptions() weld.Options {
	w := c.Weld
	return weld.Options{
		Epsilon:     w.Epsilon,
		MatchUV:     w.MatchUV,
		MatchNormal: w.MatchNormal,
		MatchColor:  w.MatchColor,
		MatchBatch:  w.MatchBatch,
		LeafSize:    w.LeafSize,
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	err := c.DecimateParams().Validate()
	if c.Cut.Tolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("cut tolerance %g is negative", c.Cut.Tolerance))
	}
	if c.Tiling.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("workers %d is negative", c.Tiling.Workers))
	}
	if c.Tiling.Depth < 0 || c.Tiling.Depth > 10 {
		err = multierr.Append(err, fmt.Errorf("depth %d out of [0, 10]", c.Tiling.Depth))
	}
	if c.Tiling.LeafVertices < 0 {
		err = multierr.Append(err, fmt.Errorf("leaf vertices %d is negative", c.Tiling.LeafVertices))
	}
	return err
}

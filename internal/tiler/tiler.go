// Package tiler runs the mesh pipeline over many surfaces at once: weld,
// decimate, validate, then cut into octree cells.
package tiler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-tiler/internal/config"
	"github.com/Faultbox/midgard-tiler/pkg/cut"
	"github.com/Faultbox/midgard-tiler/pkg/decimate"
	"github.com/Faultbox/midgard-tiler/pkg/halfedge"
	"github.com/Faultbox/midgard-tiler/pkg/octree"
	"github.com/Faultbox/midgard-tiler/pkg/weld"
)

// ErrInvalidSurface marks a surface that failed validation mid-pipeline.
// Such a surface is left as it was and produces no tiles.
var ErrInvalidSurface = errors.New("surface failed validation")

// Job is one surface to tile.
type Job struct {
	Name    string
	Surface *halfedge.Surface
}

// Tile is one classified piece of a job's surface.
type Tile struct {
	Job     string
	Cell    int
	Index   int // position among the pieces sharing Cell
	Surface *halfedge.Surface
}

// SinkFunc receives finished tiles. It is called from worker goroutines.
type SinkFunc func(ctx context.Context, t Tile) error

// Result reports what the pipeline did to one job.
type Result struct {
	Name     string
	Weld     weld.Stats
	Decimate decimate.Stats
	Cut      cut.Stats
	Cells    int
	Tiles    int
	Elapsed  time.Duration
	Err      error
}

// Option configures a Tiler.
type Option func(*Tiler)

// WithLogger sets the pipeline logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tiler) {
		if l != nil {
			t.log = l
		}
	}
}

// WithSink sets where tiles go. Without a sink tiles are counted and dropped.
func WithSink(fn SinkFunc) Option {
	return func(t *Tiler) { t.sink = fn }
}

// Tiler processes jobs with a bounded number of workers.
type Tiler struct {
	cfg  *config.Config
	log  *zap.Logger
	sink SinkFunc

	tiles atomic.Int64
	done  atomic.Int64
}

// New creates a Tiler. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) *Tiler {
	if cfg == nil {
		cfg = config.Default()
	}
	t := &Tiler{cfg: cfg, log: zap.NewNop()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Tiles returns the number of tiles emitted so far.
func (t *Tiler) Tiles() int64 { return t.tiles.Load() }

// Done returns the number of jobs finished so far.
func (t *Tiler) Done() int64 { return t.done.Load() }

func (t *Tiler) workers() int {
	if n := t.cfg.Tiling.Workers; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// Process runs every job and returns one Result per job, in job order.
// Cancellation is checked between jobs, never inside a surface operation.
// A job whose surface fails validation records ErrInvalidSurface in its
// Result and does not stop the others; a sink error or cancellation does.
func (t *Tiler) Process(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers())

	t.log.Info("tiling started", zap.Int("jobs", len(jobs)), zap.Int("workers", t.workers()))
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := t.run(gctx, job)
			results[i] = res
			t.done.Add(1)
			return err
		})
	}
	// Wait cancels gctx even on success, so only the caller's context
	// decides whether the run was cancelled.
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	t.log.Info("tiling finished",
		zap.Int64("done", t.Done()),
		zap.Int64("tiles", t.Tiles()),
		zap.Error(err),
	)
	return results, err
}

// grid picks the cutting grid for s from the tiling settings.
func (t *Tiler) grid(s *halfedge.Surface) octree.Grid {
	tc := t.cfg.Tiling
	switch {
	case tc.LeafEdge > 0:
		return octree.GridForLeafSize(s.Bounds(), tc.LeafEdge)
	case tc.LeafVertices > 0 && tc.Depth > 0:
		tree := octree.New(s.Bounds(), tc.LeafVertices, tc.Depth)
		for i := range s.Vertices {
			if s.Vertices[i].Status == halfedge.Active {
				tree.Insert(i, s.Vertices[i].Position)
			}
		}
		return octree.GridFromTree(tree)
	default:
		return octree.Grid{Depth: tc.Depth}
	}
}

// run pushes one job through the pipeline. Only sink errors are returned;
// pipeline failures are reported in the Result.
func (t *Tiler) run(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	res := Result{Name: job.Name}
	log := t.log.With(zap.String("job", job.Name))
	s := job.Surface

	if s == nil {
		res.Err = fmt.Errorf("%s: %w: no surface", job.Name, ErrInvalidSurface)
		return res, nil
	}
	if err := s.Validate(); err != nil {
		res.Err = fmt.Errorf("%s: %w: %w", job.Name, ErrInvalidSurface, err)
		log.Error("input surface invalid", zap.Error(err))
		return res, nil
	}

	if t.cfg.Tiling.WeldFirst {
		res.Weld = weld.Weld(s, t.cfg.WeldOptions())
		log.Debug("welded",
			zap.Int("merged", res.Weld.Merged),
			zap.Int("faces_removed", res.Weld.FacesRemoved),
		)
	}

	if t.cfg.Tiling.Decimate {
		res.Decimate = decimate.Decimate(s, t.cfg.DecimateParams(), decimate.WithLogger(log))
		log.Debug("decimated",
			zap.Int("collapses", res.Decimate.Collapses),
			zap.Int("rejected", res.Decimate.Rejected),
			zap.Int("faces", res.Decimate.FacesAfter),
		)
	}

	if err := s.Validate(); err != nil {
		res.Err = fmt.Errorf("%s: %w: %w", job.Name, ErrInvalidSurface, err)
		log.Error("surface invalid after decimation, halting", zap.Error(err))
		return res, nil
	}

	cells := octree.NewCells()
	res.Cut = cut.Split(s, t.grid(s), cells, t.cfg.CutOptions())
	res.Cells = cells.Len()

	for _, cell := range cells.Keys() {
		for i, piece := range cells.Get(cell) {
			if t.sink != nil {
				if err := t.sink(ctx, Tile{Job: job.Name, Cell: cell, Index: i, Surface: piece}); err != nil {
					return res, fmt.Errorf("%s: writing cell %d: %w", job.Name, cell, err)
				}
			}
			res.Tiles++
			t.tiles.Add(1)
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("job tiled",
		zap.Int("cells", res.Cells),
		zap.Int("tiles", res.Tiles),
		zap.Int("edges_split", res.Cut.EdgesSplit),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

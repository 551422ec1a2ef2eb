// meshtool is a CLI utility for welding, decimating, cutting and tiling
// triangle meshes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-tiler/internal/config"
	"github.com/Faultbox/midgard-tiler/internal/logger"
	"github.com/Faultbox/midgard-tiler/internal/tiler"
	"github.com/Faultbox/midgard-tiler/pkg/cut"
	"github.com/Faultbox/midgard-tiler/pkg/decimate"
	"github.com/Faultbox/midgard-tiler/pkg/math"
	"github.com/Faultbox/midgard-tiler/pkg/weld"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "weld":
		cmdWeld(args)
	case "decimate", "dec":
		cmdDecimate(args)
	case "cut":
		cmdCut(args)
	case "tile":
		cmdTile(args)
	case "convert", "conv":
		cmdConvert(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - half-edge mesh utility

Usage:
  meshtool <command> [options]

Commands:
  info <mesh>                         Show topology and geometry summary
  weld [-eps E] <in> <out>            Merge coincident vertices
  decimate [-min-edge L] <in> <out>   Collapse short edges
  cut -axis X -offset D <in> <out>    Split faces along an axis plane
  tile [-out DIR] [-obj] <mesh>...    Weld, decimate and cut into octree cells
  convert <in> <out>                  Convert between .obj and .hems
  config [path]                       Write the effective config

Every command also accepts -config, -debug, -workers, -depth, -iterations.

Examples:
  meshtool info terrain.obj
  meshtool decimate -min-edge 2 terrain.obj terrain_lo.hems
  meshtool cut -axis yz -offset 128 terrain.hems halves.hems
  meshtool tile -depth 3 -out tiles prontera.obj geffen.obj`)
}

// setup parses the shared flags, loads the config and starts logging.
func setup(fs *flag.FlagSet, args []string) *config.Config {
	f := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	lc := cfg.Logging
	fileCfg := logger.FileConfig{}
	if lc.LogFile != "" {
		fileCfg = logger.DefaultFileConfig(lc.LogFile)
		fileCfg.JSON = lc.JSON
	}
	if err := logger.InitWithFileConfig(lc.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func fail(msg string, err error) {
	logger.Error(msg, zap.Error(err))
	logger.Sync()
	os.Exit(1)
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info <mesh>")
		os.Exit(1)
	}
	s, err := loadSurface(fs.Arg(0))
	if err != nil {
		fail("loading mesh", err)
	}

	_, components := s.Components()
	b := s.Bounds()
	fmt.Printf("Mesh:       %s\n", fs.Arg(0))
	fmt.Printf("Vertices:   %d\n", s.ActiveVertexCount())
	fmt.Printf("Half-edges: %d\n", s.ActiveEdgeCount())
	fmt.Printf("Faces:      %d\n", s.ActiveFaceCount())
	fmt.Printf("Boundary:   %d edges, %d vertices\n", len(s.BoundaryEdges()), len(s.BoundaryVertices()))
	fmt.Printf("Components: %d\n", components)
	fmt.Printf("Area:       %.4f\n", s.Area())
	fmt.Printf("Bounds:     (%g, %g, %g) - (%g, %g, %g)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Printf("Material:   %d\n", s.Material)

	if err := s.Validate(); err != nil {
		fmt.Println()
		fmt.Println("Validation failed:")
		for _, line := range strings.Split(err.Error(), "; ") {
			fmt.Printf("  %s\n", line)
		}
		os.Exit(2)
	}
}

func cmdWeld(args []string) {
	fs := flag.NewFlagSet("weld", flag.ExitOnError)
	eps := fs.Float64("eps", 0, "Position tolerance (0 = config)")
	matchUV := fs.Bool("uv", false, "Only merge vertices with equal UVs")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool weld [-eps E] [-uv] <in> <out>")
		os.Exit(1)
	}
	s, err := loadSurface(fs.Arg(0))
	if err != nil {
		fail("loading mesh", err)
	}

	opts := cfg.WeldOptions()
	if *eps > 0 {
		opts.Epsilon = *eps
	}
	opts.MatchUV = opts.MatchUV || *matchUV
	st := weld.Weld(s, opts)
	logger.Info("welded",
		zap.Int("before", st.VerticesBefore),
		zap.Int("after", st.VerticesAfter),
		zap.Int("faces_removed", st.FacesRemoved),
		zap.Int("paired", st.Paired),
	)

	if err := saveSurface(fs.Arg(1), s); err != nil {
		fail("writing mesh", err)
	}
}

func cmdDecimate(args []string) {
	fs := flag.NewFlagSet("decimate", flag.ExitOnError)
	minEdge := fs.Float64("min-edge", 0, "Collapse edges shorter than this (0 = config)")
	maxAngle := fs.Float64("max-angle", 0, "Normal deviation budget in degrees (0 = config)")
	seed := fs.Uint64("seed", 0, "Visiting order seed (0 = config)")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool decimate [-min-edge L] [-max-angle A] <in> <out>")
		os.Exit(1)
	}
	s, err := loadSurface(fs.Arg(0))
	if err != nil {
		fail("loading mesh", err)
	}

	p := cfg.DecimateParams()
	if *minEdge > 0 {
		p.MinEdgeLength = *minEdge
	}
	if *maxAngle > 0 {
		p.MaxNormalAngleDeg = *maxAngle
	}
	if *seed > 0 {
		p.Seed = *seed
	}
	if err := p.Validate(); err != nil {
		fail("invalid parameters", err)
	}

	st := decimate.Decimate(s, p, decimate.WithLogger(logger.Named("decimate")))
	logger.Info("decimated",
		zap.Int("passes", st.Iterations),
		zap.Int("collapses", st.Collapses),
		zap.Int("rejected", st.Rejected),
		zap.Int("faces_before", st.FacesBefore),
		zap.Int("faces_after", st.FacesAfter),
	)
	if err := s.Validate(); err != nil {
		fail("decimated surface is invalid", err)
	}

	if err := saveSurface(fs.Arg(1), s); err != nil {
		fail("writing mesh", err)
	}
}

func cmdCut(args []string) {
	fs := flag.NewFlagSet("cut", flag.ExitOnError)
	axis := fs.String("axis", "x", "Axis normal to the plane: x, y, z (or yz, xz, xy)")
	offset := fs.Float64("offset", 0, "Plane offset along the axis")
	split := fs.Bool("split", false, "Write each side to its own file")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool cut -axis X -offset D [-split] <in> <out>")
		os.Exit(1)
	}
	a, err := math.ParseAxis(*axis)
	if err != nil {
		fail("parsing axis", err)
	}
	s, err := loadSurface(fs.Arg(0))
	if err != nil {
		fail("loading mesh", err)
	}

	plane := math.Plane{Axis: a, Offset: *offset}
	opts := cfg.CutOptions()
	st := cut.Cut(s, plane, opts)
	logger.Info("cut",
		zap.Stringer("plane", plane),
		zap.Int("edges_split", st.EdgesSplit),
		zap.Int("faces_created", st.FacesCreated),
		zap.Int("skipped", st.Skipped),
	)

	if !*split {
		if err := saveSurface(fs.Arg(1), s); err != nil {
			fail("writing mesh", err)
		}
		return
	}

	parts := cut.Partition(s, opts.Policy.Classify(s, plane))
	for _, label := range []int{cut.Below, cut.Above} {
		part, ok := parts[label]
		if !ok {
			continue
		}
		path := sidePath(fs.Arg(1), label)
		if err := saveSurface(path, part); err != nil {
			fail("writing mesh", err)
		}
		logger.Info("wrote side", zap.String("path", path), zap.Int("faces", part.ActiveFaceCount()))
	}
}

func cmdTile(args []string) {
	fs := flag.NewFlagSet("tile", flag.ExitOnError)
	out := fs.String("out", "", "Output directory (default from config)")
	asOBJ := fs.Bool("obj", false, "Write tiles as OBJ instead of HEMS")
	cfg := setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool tile [-out DIR] [-obj] <mesh>...")
		os.Exit(1)
	}
	if *out != "" {
		cfg.Tiling.OutputDir = *out
	}
	if err := os.MkdirAll(cfg.Tiling.OutputDir, 0755); err != nil {
		fail("creating output directory", err)
	}

	var jobs []tiler.Job
	for _, path := range fs.Args() {
		s, err := loadSurface(path)
		if err != nil {
			fail("loading mesh", err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		jobs = append(jobs, tiler.Job{Name: name, Surface: s})
	}

	ext := ".hems"
	if *asOBJ {
		ext = ".obj"
	}
	sink := func(_ context.Context, t tiler.Tile) error {
		name := fmt.Sprintf("%s_c%03d", t.Job, t.Cell)
		if t.Index > 0 {
			name += fmt.Sprintf("_%d", t.Index)
		}
		return saveSurface(filepath.Join(cfg.Tiling.OutputDir, name+ext), t.Surface)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tl := tiler.New(cfg, tiler.WithLogger(logger.Named("tiler")), tiler.WithSink(sink))
	results, err := tl.Process(ctx, jobs)
	if err != nil {
		fail("tiling", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("%-20s FAILED: %v\n", r.Name, r.Err)
			continue
		}
		fmt.Printf("%-20s %4d tiles  %6d collapses  %6d splits  %v\n",
			r.Name, r.Tiles, r.Decimate.Collapses, r.Cut.EdgesSplit, r.Elapsed.Round(time.Millisecond))
	}
	fmt.Printf("\n%d tiles written to %s\n", tl.Tiles(), cfg.Tiling.OutputDir)
	if failed > 0 {
		os.Exit(2)
	}
}

func cmdConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	setup(fs, args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool convert <in> <out>")
		os.Exit(1)
	}
	s, err := loadSurface(fs.Arg(0))
	if err != nil {
		fail("loading mesh", err)
	}
	if err := saveSurface(fs.Arg(1), s); err != nil {
		fail("writing mesh", err)
	}
	logger.Info("converted",
		zap.String("from", fs.Arg(0)),
		zap.String("to", fs.Arg(1)),
		zap.Int("faces", s.ActiveFaceCount()),
	)
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	cfg := setup(fs, args)
	defer logger.Sync()

	var err error
	path := filepath.Join(config.ConfigDir(), "meshtool.yaml")
	if fs.NArg() > 0 {
		path = fs.Arg(0)
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fail("saving config", err)
	}
	fmt.Printf("Config written to %s\n", path)
}

// sidePath inserts the side name before the extension of path.
func sidePath(path string, label int) string {
	side := "below"
	if label == cut.Above {
		side = "above"
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + side + ext
}

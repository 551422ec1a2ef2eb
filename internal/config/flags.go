package config

import "flag"

// Flags are the command-line overrides shared by every meshtool command.
type Flags struct {
	Config     string
	Debug      bool
	Workers    int
	Depth      int
	Iterations int
}

// RegisterFlags adds the shared overrides to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Workers, "workers", 0, "Meshes processed concurrently")
	fs.IntVar(&f.Depth, "depth", -1, "Octree depth of the cut grid")
	fs.IntVar(&f.Iterations, "iterations", 0, "Decimation passes")
	return f
}

// ConfigPath returns the explicit config path, if any.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// apply copies the set overrides onto cfg.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Workers > 0 {
		cfg.Tiling.Workers = f.Workers
	}
	if f.Depth >= 0 {
		cfg.Tiling.Depth = f.Depth
		cfg.Tiling.LeafEdge = 0
	}
	if f.Iterations > 0 {
		cfg.Decimation.Iterations = f.Iterations
	}
}

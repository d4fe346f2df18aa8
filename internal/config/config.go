package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a YAML-friendly wrapper around time.Duration that accepts human
// readable strings such as "30s" while still allowing integer nanoseconds.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalYAML encodes the duration using the canonical string representation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML decodes a duration from a string (e.g. "250ms") or an integer
// number of nanoseconds. Empty values decode to zero.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration: decode: %w", err)
	}
	if s == "" {
		*d = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds everything the generator binaries need: lattice parameters,
// terrain, catalog source, result storage and the HTTP service.
type Config struct {
	ListenAddress string           `yaml:"listen_address"`
	HTTPPort      int              `yaml:"http_port"`
	Generation    GenerationConfig `yaml:"generation"`
	Terrain       TerrainConfig    `yaml:"terrain"`
	Catalog       CatalogConfig    `yaml:"catalog"`
	Store         StoreConfig      `yaml:"store"`
	Server        ServerConfig     `yaml:"server"`
}

type GenerationConfig struct {
	Width          int      `yaml:"width"`
	Height         int      `yaml:"height"`
	Depth          int      `yaml:"depth"`
	Seed           int64    `yaml:"seed"`
	RandomSeed     bool     `yaml:"random_seed"`
	AirHeightLimit int      `yaml:"air_height_limit"`
	MaxIterations  int      `yaml:"max_iterations"`
	MaxRestarts    int      `yaml:"max_restarts"` // 0 restarts forever
	StepBudget     int      `yaml:"step_budget"`  // collapses per Step call
	CellSize       float64  `yaml:"cell_size"`    // world units per lattice cell
	Timeout        Duration `yaml:"timeout"`      // 0 disables the deadline
}

type TerrainConfig struct {
	Kind        string  `yaml:"kind"` // "value" or "flat"
	Frequency   float64 `yaml:"frequency"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Level       float64 `yaml:"level"` // flat terrain height in [0,1]
}

type CatalogConfig struct {
	// Source is a file path or go-getter URL. Empty selects the built-in catalog.
	Source   string `yaml:"source"`
	CacheDir string `yaml:"cache_dir"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory" or "leveldb"
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	MaxConcurrentGenerations int      `yaml:"max_concurrent_generations"`
	MaxCells                 int      `yaml:"max_cells"`
	ShutdownTimeout          Duration `yaml:"shutdown_timeout"`
}

const (
	TerrainValue = "value"
	TerrainFlat  = "flat"

	StoreMemory  = "memory"
	StoreLevelDB = "leveldb"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fills unset values with defaults and rejects values the generator
// cannot work with.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		c.ListenAddress = "0.0.0.0"
	}
	if c.HTTPPort == 0 {
		c.HTTPPort = 28090
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be within 1..65535")
	}
	if err := c.Generation.validate(); err != nil {
		return err
	}
	if err := c.Terrain.validate(); err != nil {
		return err
	}
	switch c.Store.Backend {
	case "":
		c.Store.Backend = StoreMemory
	case StoreMemory:
	case StoreLevelDB:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path must be set for the leveldb backend")
		}
	default:
		return fmt.Errorf("store.backend must be either 'memory' or 'leveldb'")
	}
	if c.Server.MaxConcurrentGenerations == 0 {
		c.Server.MaxConcurrentGenerations = 4
	}
	if c.Server.MaxConcurrentGenerations < 0 {
		return fmt.Errorf("server.max_concurrent_generations cannot be negative")
	}
	if c.Server.MaxCells == 0 {
		c.Server.MaxCells = 1 << 18
	}
	if c.Server.MaxCells < 0 {
		return fmt.Errorf("server.max_cells cannot be negative")
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(5 * time.Second)
	}
	return nil
}

func (g *GenerationConfig) validate() error {
	if g.Width <= 0 || g.Height <= 0 || g.Depth <= 0 {
		return fmt.Errorf("generation dimensions must be positive")
	}
	if g.AirHeightLimit < 0 {
		return fmt.Errorf("generation.air_height_limit cannot be negative")
	}
	if g.MaxIterations == 0 {
		g.MaxIterations = 10000
	}
	if g.MaxIterations < 0 {
		return fmt.Errorf("generation.max_iterations must be positive")
	}
	if g.MaxRestarts < 0 {
		return fmt.Errorf("generation.max_restarts cannot be negative")
	}
	if g.StepBudget == 0 {
		g.StepBudget = 64
	}
	if g.StepBudget < 0 {
		return fmt.Errorf("generation.step_budget must be positive")
	}
	if g.CellSize == 0 {
		g.CellSize = 4
	}
	if g.CellSize < 0 {
		return fmt.Errorf("generation.cell_size must be positive")
	}
	if g.Timeout < 0 {
		return fmt.Errorf("generation.timeout cannot be negative")
	}
	return nil
}

func (t *TerrainConfig) validate() error {
	switch t.Kind {
	case "":
		t.Kind = TerrainValue
	case TerrainValue, TerrainFlat:
	default:
		return fmt.Errorf("terrain.kind must be either 'value' or 'flat'")
	}
	if t.Kind == TerrainFlat {
		if t.Level < 0 || t.Level > 1 {
			return fmt.Errorf("terrain.level must be within 0..1")
		}
		return nil
	}
	if t.Frequency <= 0 {
		t.Frequency = 0.15
	}
	if t.Octaves <= 0 {
		t.Octaves = 1
	}
	if t.Persistence <= 0 {
		t.Persistence = 0.5
	}
	if t.Lacunarity <= 0 {
		t.Lacunarity = 2
	}
	return nil
}

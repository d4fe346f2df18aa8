package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns a configuration populated with sensible defaults so that the
// generator can be started without any prior configuration.
func Default() Config {
	return Config{
		ListenAddress: "0.0.0.0",
		HTTPPort:      28090,
		Generation: GenerationConfig{
			Width:          16,
			Height:         6,
			Depth:          16,
			RandomSeed:     true,
			AirHeightLimit: 3,
			MaxIterations:  10000,
			MaxRestarts:    64,
			StepBudget:     64,
			CellSize:       4,
			Timeout:        Duration(2 * time.Minute),
		},
		Terrain: TerrainConfig{
			Kind:        TerrainValue,
			Frequency:   0.15,
			Octaves:     1,
			Persistence: 0.5,
			Lacunarity:  2,
		},
		Store: StoreConfig{
			Backend: StoreMemory,
			Path:    "./data/generations",
		},
		Server: ServerConfig{
			MaxConcurrentGenerations: 4,
			MaxCells:                 1 << 18,
			ShutdownTimeout:          Duration(5 * time.Second),
		},
	}
}

// WriteDefault writes the default configuration to the provided path.
func WriteDefault(path string) error {
	cfg := Default()

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

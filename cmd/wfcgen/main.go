package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/compat"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/emit"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/preview"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/store"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/terrain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "wfcgen: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	catalogPath string
	width       int
	height      int
	depth       int
	seed        int64
	air         int
	restarts    int
	out         string
	previewPath string
	save        bool
	skipVoid    bool
	quiet       bool
}

func parseFlags(args []string, stderr io.Writer) (options, map[string]bool, error) {
	var o options
	fs := flag.NewFlagSet("wfcgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "configuration file (defaults apply when empty)")
	fs.StringVar(&o.catalogPath, "catalog", "", "piece catalog path or URL, overrides catalog.source")
	fs.IntVar(&o.width, "width", 0, "lattice width (X)")
	fs.IntVar(&o.height, "height", 0, "lattice height (Y)")
	fs.IntVar(&o.depth, "depth", 0, "lattice depth (Z)")
	fs.Int64Var(&o.seed, "seed", 0, "generation seed, random when unset and random_seed is configured")
	fs.IntVar(&o.air, "air", 0, "air height limit")
	fs.IntVar(&o.restarts, "restarts", 0, "restart budget, 0 restarts until solved")
	fs.StringVar(&o.out, "out", "", "write placements as JSON to this file, - for stdout")
	fs.StringVar(&o.previewPath, "preview", "", "write an isometric PNG preview to this file")
	fs.BoolVar(&o.save, "save", false, "store the generation in the configured store")
	fs.BoolVar(&o.skipVoid, "skip-void", true, "leave void cells out of the placement list")
	fs.BoolVar(&o.quiet, "quiet", false, "suppress solver logging")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return config.Load(path)
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	o, set, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}

	gen := cfg.Generation
	if set["width"] {
		gen.Width = o.width
	}
	if set["height"] {
		gen.Height = o.height
	}
	if set["depth"] {
		gen.Depth = o.depth
	}
	if set["seed"] {
		gen.Seed = o.seed
		gen.RandomSeed = false
	}
	if set["air"] {
		gen.AirHeightLimit = o.air
	}
	if set["restarts"] {
		gen.MaxRestarts = o.restarts
	}

	source := cfg.Catalog.Source
	if o.catalogPath != "" {
		source = o.catalogPath
	}
	cat := catalog.Default()
	if source != "" {
		if cat, err = catalog.LoadSource(ctx, source, cfg.Catalog.CacheDir); err != nil {
			return err
		}
	}

	field, err := terrain.New(cfg.Terrain)
	if err != nil {
		return err
	}
	opts := solver.OptionsFromConfig(gen, field)
	logger := log.New(os.Stderr, "wfcgen ", log.LstdFlags|log.Lmicroseconds)
	if o.quiet {
		logger.SetOutput(io.Discard)
	}
	opts.Logger = logger

	if timeout := gen.Timeout.Duration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := solver.Generate(ctx, cat, compat.Build(cat), opts)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	if warning := result.Warning(); warning != nil {
		logger.Printf("warning: %v (%d unresolved cells)", warning, result.Grid.Unresolved())
	}

	if o.out != "" {
		if err := writePlacements(o.out, stdout, emit.Collect(cat, result, gen.CellSize, o.skipVoid)); err != nil {
			return err
		}
	}
	if o.previewPath != "" {
		if err := preview.Save(o.previewPath, result.Grid, preview.Colors(cat)); err != nil {
			return err
		}
	}

	var recordID string
	if o.save {
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		rec := store.NewRecord(cat, source, gen.AirHeightLimit, result)
		saveErr := st.Save(rec)
		if err := st.Close(); err != nil && saveErr == nil {
			saveErr = err
		}
		if saveErr != nil {
			return fmt.Errorf("store generation: %w", saveErr)
		}
		recordID = rec.ID
	}

	if o.out != "-" {
		printSummary(stdout, result, recordID)
	}
	return nil
}

func writePlacements(path string, stdout io.Writer, placements []emit.Placement) error {
	w := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create placements file: %w", err)
		}
		defer file.Close()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(placements); err != nil {
		return fmt.Errorf("encode placements: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, result *solver.Result, recordID string) {
	dims := result.Grid.Dimensions
	fmt.Fprintf(w, "Lattice: %dx%dx%d\n", dims.X, dims.Y, dims.Z)
	fmt.Fprintf(w, "Outcome: %s\n", result.Outcome)
	fmt.Fprintf(w, "Seed: %d (initial %d)\n", result.Seed, result.InitialSeed)
	fmt.Fprintf(w, "Iterations: %d (total %d)\n", result.Iterations, result.TotalIterations)
	fmt.Fprintf(w, "Restarts: %d\n", result.Restarts)
	fmt.Fprintf(w, "Elapsed: %s\n", result.Elapsed)
	if recordID != "" {
		fmt.Fprintf(w, "Record: %s\n", recordID)
	}
}

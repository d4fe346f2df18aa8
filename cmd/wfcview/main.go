package main

import (
	"context"
	"flag"
	"io"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/catalog"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/solver"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/terrain"
)

func main() {
	var (
		configPath = flag.String("config", "", "configuration file (defaults apply when empty)")
		source     = flag.String("catalog", "", "piece catalog path or URL, overrides catalog.source")
		width      = flag.Int("width", 0, "lattice width (X), 0 keeps the configured value")
		height     = flag.Int("height", 0, "lattice height (Y), 0 keeps the configured value")
		depth      = flag.Int("depth", 0, "lattice depth (Z), 0 keeps the configured value")
		seed       = flag.Int64("seed", 0, "generation seed, 0 draws a random one")
		budget     = flag.Int("budget", 0, "collapse steps per frame, 0 keeps generation.step_budget")
		frame      = flag.Duration("frame", 50*time.Millisecond, "frame interval")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = *loaded
	} else if err := cfg.Validate(); err != nil {
		log.Fatalf("default config: %v", err)
	}

	gen := cfg.Generation
	if *width > 0 {
		gen.Width = *width
	}
	if *height > 0 {
		gen.Height = *height
	}
	if *depth > 0 {
		gen.Depth = *depth
	}
	gen.Seed = *seed
	gen.RandomSeed = *seed == 0
	if *budget > 0 {
		gen.StepBudget = *budget
	}
	if *source != "" {
		cfg.Catalog.Source = *source
	}

	cat := catalog.Default()
	if cfg.Catalog.Source != "" {
		loaded, err := catalog.LoadSource(context.Background(), cfg.Catalog.Source, cfg.Catalog.CacheDir)
		if err != nil {
			log.Fatalf("load catalog: %v", err)
		}
		cat = loaded
	}
	field, err := terrain.New(cfg.Terrain)
	if err != nil {
		log.Fatalf("terrain: %v", err)
	}
	opts := solver.OptionsFromConfig(gen, field)
	opts.Logger = log.New(io.Discard, "", 0)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("create screen: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("init screen: %v", err)
	}

	v, err := newViewer(screen, cat, opts, gen.StepBudget)
	if err != nil {
		screen.Fini()
		log.Fatalf("start generation: %v", err)
	}
	run(v, *frame)
	screen.Fini()
}

func run(v *viewer, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	v.draw()
	for {
		select {
		case ev := <-events:
			if !v.handleInput(ev) {
				return
			}
			v.draw()
		case <-ticker.C:
			v.tick()
			v.draw()
		}
	}
}

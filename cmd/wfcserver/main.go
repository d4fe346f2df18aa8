package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Xeraclom14/NeonHorizon-PCG/internal/config"
	"github.com/Xeraclom14/NeonHorizon-PCG/internal/server"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "wfc.yml", "configuration file for the level generation service")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := config.WriteDefault(configPath); err != nil {
				log.Fatalf("write default config: %v", err)
			}
			log.Printf("no configuration found, default configuration written to %s", configPath)
			cfg, err = config.Load(configPath)
		}
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	ctx, cancel := signalContext(context.Background())
	defer cancel()

	s, err := server.New(ctx, cfg)
	if err != nil {
		log.Fatalf("initialise generation server: %v", err)
	}

	if err := s.Run(ctx); err != nil {
		log.Fatalf("generation server exited: %v", err)
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dtt-git/stash-battle/internal/seed"
	"github.com/dtt-git/stash-battle/pkg/logger"
)

// Default configuration constants.
const (
	defaultAddr   = ":9999"
	defaultScenes = 500
	defaultRated  = 0.6
)

func main() {
	var (
		addr      = flag.String("addr", defaultAddr, "Listen address")
		scenes    = flag.Int("scenes", defaultScenes, "Number of scenes to generate")
		seedValue = flag.Int64("seed", 0, "RNG seed; 0 uses the current time")
		rated     = flag.Float64("rated", defaultRated, "Fraction of scenes generated with a rating")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("logger sync failed: " + err.Error() + "\n")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := &seed.Config{
		Addr:          *addr,
		Scenes:        *scenes,
		Seed:          *seedValue,
		RatedFraction: *rated,
	}

	if err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seed server failed: " + err.Error() + "\n")
	}
}

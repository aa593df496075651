package seed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dtt-git/stash-battle/internal/adapters/stash"
	"github.com/dtt-git/stash-battle/pkg/logger"
)

// Server timing constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Config holds the seed server settings.
type Config struct {
	Addr          string  // listen address
	Scenes        int     // number of scenes to generate
	Seed          int64   // rng seed; 0 derives one from the clock
	RatedFraction float64 // share of scenes generated with a rating
}

// Run generates the library and serves it until the context is done.
// Rating writes land in memory only; restarting the server regenerates
// the library.
func Run(ctx context.Context, cfg *Config) error {
	seedValue := cfg.Seed
	if seedValue == 0 {
		seedValue = time.Now().UnixNano()
	}

	gen := NewGenerator(seedValue, cfg.RatedFraction)
	library := gen.Library(cfg.Scenes)

	rated := 0
	for _, s := range library {
		if s.Rated() {
			rated++
		}
	}

	logger.Get().Info(ctx, "serving generated library",
		logger.String("addr", cfg.Addr),
		logger.Int("scenes", len(library)),
		logger.Int("rated", rated),
		logger.Any("seed", seedValue))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           stash.NewMock(library...).Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("seed server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("seed server shutdown: %w", err)
	}

	logger.Get().Info(ctx, "seed server stopped")
	return nil
}

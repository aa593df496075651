package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dtt-git/stash-battle/internal/adapters/cache"
	"github.com/dtt-git/stash-battle/internal/adapters/http/api"
	"github.com/dtt-git/stash-battle/internal/adapters/session"
	"github.com/dtt-git/stash-battle/internal/adapters/stash"
	"github.com/dtt-git/stash-battle/internal/adapters/storage/bolt"
	service "github.com/dtt-git/stash-battle/internal/app"
	"github.com/dtt-git/stash-battle/internal/config"
	"github.com/dtt-git/stash-battle/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// buildEngine wires the full stack the way main does, against a
// throwaway bolt file and an unreachable media server.
func buildEngine(t *testing.T) *service.Service {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "battle.db"))
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	client := stash.NewClient("http://localhost:9999")
	breaker := stash.NewBreaker(client)

	return service.New(breaker,
		cache.New(stash.NewSource(breaker), cache.WithPersister(db)),
		session.NewStore(db),
		service.WithBreakerProbe(breaker.State),
	)
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("BATTLE_ADDR", ":8080")
			_ = os.Setenv("BATTLE_QUEUE_SIZE", "64")
			defer func() {
				_ = os.Unsetenv("BATTLE_ADDR")
				_ = os.Unsetenv("BATTLE_QUEUE_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When the listen address is emptied", func() {
			_ = os.Setenv("BATTLE_ADDR", "")
			defer func() { _ = os.Unsetenv("BATTLE_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When wiring the engine and HTTP server", func() {
			svc := buildEngine(t)
			convey.So(svc, convey.ShouldNotBeNil)

			server := api.NewServer(svc, svc)
			mux := http.NewServeMux()
			server.Register(mux)

			convey.Convey("Then the health endpoint answers through the mux", func() {
				req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the engine starts and stops cleanly", func() {
				ctx := context.Background()
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
				convey.So(svc.GetStats()["started"], convey.ShouldBeTrue)
				svc.Stop()
				convey.So(svc.GetStats()["started"], convey.ShouldBeFalse)
			})
		})

		convey.Convey("When testing the metrics updaters", func() {
			svc := buildEngine(t)

			convey.Convey("Then a system metrics pass should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})

			convey.Convey("Then a service metrics pass should not panic", func() {
				convey.So(func() {
					updateServiceMetrics(svc)
				}, convey.ShouldNotPanic)
			})

			convey.Convey("Then the updater loops exit with their context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})
	})
}

package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/fila/internal/adapters/crm"
	"github.com/okian/fila/internal/adapters/http/api"
	"github.com/okian/fila/internal/adapters/repository"
	service "github.com/okian/fila/internal/app"
	"github.com/okian/fila/internal/config"
	"github.com/okian/fila/pkg/logger"
	"github.com/okian/fila/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			// Test with environment variables
			_ = os.Setenv("FILA_ADDR", ":8080")
			_ = os.Setenv("FILA_SYNC_INTERVAL_MS", "10000")
			_ = os.Setenv("FILA_DEDUPE_SIZE", "1000")
			defer func() {
				_ = os.Unsetenv("FILA_ADDR")
				_ = os.Unsetenv("FILA_SYNC_INTERVAL_MS")
				_ = os.Unsetenv("FILA_DEDUPE_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SyncIntervalMS, convey.ShouldEqual, 10000)
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When testing service creation", func() {
			store, err := repository.Open("")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()
			source := crm.New("", "", "")

			convey.Convey("Then service should be creatable with default options", func() {
				svc := service.New(store, source)
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And service should be creatable with custom options", func() {
				svc := service.New(store, source,
					service.WithSyncInterval(time.Minute),
					service.WithRefreshInterval(time.Minute),
					service.WithDedupeSize(1000),
				)
				convey.So(svc, convey.ShouldNotBeNil)
			})

			convey.Convey("And the HTTP server should be creatable from it", func() {
				svc := service.New(store, source)
				server := api.NewServer(svc, svc)
				convey.So(server, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager()
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should stop with its context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			store, err := repository.Open("")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = store.Close() }()
			svc := service.New(store, crm.New("", "", ""))

			convey.Convey("Then it should stop with its context", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing system metrics update", func() {
			convey.Convey("Then it should update metrics without panicking", func() {
				convey.So(func() {
					updateSystemMetrics()
				}, convey.ShouldNotPanic)
			})
		})
	})
}

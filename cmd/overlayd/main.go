package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timer-overlay/internal/host"
	"timer-overlay/internal/overlay"
	"timer-overlay/internal/platform/config"
	"timer-overlay/internal/platform/logger"
	"timer-overlay/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	frameInterval := config.GetEnvDuration("FRAME_INTERVAL", 33*time.Millisecond)
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	gfx := host.NewMemory()
	reg := overlay.NewRegistry(logger.Named(log, "registry"))
	met := metrics.New()
	mgr := overlay.NewManager(reg, gfx, logger.Named(log, "overlay"), met)
	h := overlay.NewHandler(mgr, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() {
			met.SetInstances(mgr.InstanceCount())
			met.SetSharedTimers(mgr.SharedTimerCount())
		}).ServeHTTP(w, req)
	})
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	frameCtx, stopFrames := context.WithCancel(context.Background())
	go frameLoop(frameCtx, mgr, frameInterval)

	log.Info("overlay host starting",
		"port", port,
		"frame_interval", frameInterval.String(),
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	stopFrames()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	mgr.Shutdown()
	log.Info("overlay host stopped")
}

// frameLoop stands in for the host's render thread, ticking every live
// instance at the configured frame interval.
func frameLoop(ctx context.Context, mgr *overlay.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mgr.RenderAll()
		}
	}
}

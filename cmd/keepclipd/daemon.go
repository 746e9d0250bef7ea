package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/keepclip/keepclip/internal/audioring"
	"github.com/keepclip/keepclip/internal/avbuffer"
	"github.com/keepclip/keepclip/internal/buildinfo"
	"github.com/keepclip/keepclip/internal/clock"
	"github.com/keepclip/keepclip/internal/conf"
	"github.com/keepclip/keepclip/internal/framepool"
	"github.com/keepclip/keepclip/internal/logging"
	"github.com/keepclip/keepclip/internal/observability"
	"github.com/keepclip/keepclip/internal/videoring"
)

// metricsPollInterval is how often the daemon mirrors ring/pool counters
// onto the Prometheus gauges, since those components only expose
// point-in-time accessors, not push notifications.
const metricsPollInterval = 2 * time.Second

// runDaemon loads configuration, wires the core buffer together, starts
// the HTTP trigger/metrics endpoint and the demo producer, and blocks
// until SIGINT/SIGTERM.
func runDaemon(ctx context.Context) error {
	settings := conf.Setting()

	closeLog, err := logging.Init(settings.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	logger := logging.ForComponent("daemon")
	logger.Info("starting keepclipd",
		"build", buildinfo.NewContext(version, commit, date).String(),
		"capture", settings.Capture, "ring", settings.Ring)

	clk, err := clock.New()
	if err != nil {
		return err
	}

	obs, err := observability.NewMetrics()
	if err != nil {
		return err
	}

	pool, err := framepool.New(
		settings.Capture.Width*settings.Capture.Height*4,
		settings.Capture.FPS*2,
	)
	if err != nil {
		return err
	}

	buf, err := avbuffer.New(avbuffer.Config{
		Clock: clk,
		Video: videoring.Config{
			Width:         settings.Capture.Width,
			Height:        settings.Capture.Height,
			FPS:           settings.Capture.FPS,
			RAMSeconds:    settings.Ring.RAMSeconds,
			TotalSeconds:  settings.Ring.TotalSeconds,
			CodecQuality:  settings.Ring.CodecQuality,
			TempDir:       settings.Ring.TempDir,
			DiskQueueSize: settings.Ring.DiskQueueSize,
		},
		SystemAudio: audioring.Config{
			SampleRate: settings.SystemAudio.SampleRate,
			Channels:   settings.SystemAudio.Channels,
			Capacity:   settings.SystemAudio.Capacity,
		},
		MicAudio: audioring.Config{
			SampleRate: settings.MicAudio.SampleRate,
			Channels:   settings.MicAudio.Channels,
			Capacity:   settings.MicAudio.Capacity,
		},
		Logger:   logger,
		Recorder: obs.Ring,
	})
	if err != nil {
		return err
	}
	defer buf.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runDemoProducer(runCtx, clk, buf, pool, settings)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pollMetrics(runCtx, obs, buf, pool)
	}()

	mux := http.NewServeMux()
	obs.RegisterHandlers(mux)
	mux.HandleFunc("/extract", newExtractHandler(buf, settings, logger))

	var httpWG sync.WaitGroup
	var srv *http.Server
	if settings.Metrics.Enabled {
		srv = &http.Server{Addr: settings.Metrics.Addr, Handler: mux}
		httpWG.Add(1)
		go func() {
			defer httpWG.Done()
			logger.Info("metrics/extract endpoint listening", "addr", settings.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutdown signal received")

	cancel()
	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}
	httpWG.Wait()
	wg.Wait()
	return nil
}

// pollMetrics mirrors ring and pool point-in-time accessors onto the
// Prometheus gauges every metricsPollInterval, until ctx is cancelled.
func pollMetrics(ctx context.Context, obs *observability.Metrics, buf *avbuffer.Buffer, pool *framepool.Pool) {
	ticker := time.NewTicker(metricsPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := pool.Stats()
			obs.Ring.SetPoolStats(stats.Idle, stats.Gets, stats.News, stats.Discarded)

			ringStats := buf.VideoRingStats()
			obs.Ring.SetDiskQueueDepth(ringStats.DiskQueueDepth)
			obs.Ring.SetDiskFrameCount(ringStats.DiskFrameCount)
			obs.Ring.SetMemoryTierBytes(ringStats.MemoryTierBytes)
		}
	}
}

// newExtractHandler returns an http.HandlerFunc that triggers
// ExtractLastSeconds, the one in-scope operation external callers invoke
// on demand (standing in for the hotkey handler, which is out of scope).
func newExtractHandler(buf *avbuffer.Buffer, settings *conf.Settings, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seconds := settings.Extraction.DefaultSeconds
		if s := r.URL.Query().Get("seconds"); s != "" {
			if parsed, err := strconv.ParseFloat(s, 64); err == nil && parsed > 0 {
				seconds = parsed
			}
		}

		outDir := settings.Extraction.OutputDir
		if outDir == "" {
			outDir = os.TempDir()
		}

		res, err := buf.ExtractLastSeconds(r.Context(), seconds, outDir)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		if res.FrameCount == 0 {
			http.Error(w, "no frames in window", http.StatusNoContent)
			return
		}

		if r.URL.Query().Get("mux") == "" {
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte(res.VideoRawPath))
			return
		}

		mp4Path := res.VideoRawPath + ".mp4"
		cfg := encodeConfig{
			FFmpegPath: "ffmpeg",
			Width:      settings.Capture.Width,
			Height:     settings.Capture.Height,
			FPS:        settings.Capture.FPS,
			SampleRate: settings.SystemAudio.SampleRate,
			Channels:   settings.SystemAudio.Channels,
		}
		if err := encodeToMP4(res, cfg, mp4Path); err != nil {
			logger.Error("mux failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(mp4Path))
	}
}

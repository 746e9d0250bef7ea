// Package avbuffer implements SyncedAVBuffer: one VideoRing plus two
// AudioRings (system, microphone) sharing a Clock, and the on-demand
// extraction operation that materializes a bit-exact trailing window.
package avbuffer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/keepclip/keepclip/internal/audioring"
	"github.com/keepclip/keepclip/internal/clock"
	kcerrors "github.com/keepclip/keepclip/internal/errors"
	"github.com/keepclip/keepclip/internal/observability/metrics"
	"github.com/keepclip/keepclip/internal/videoring"
)

// endMarginSeconds is the tolerance added to a window's end so audio
// chunks spanning the boundary are not dropped.
const endMarginSeconds = 0.1

// ExtractResult is the self-contained handoff to an external encoder:
// one raw BGRA file plus two chronological audio chunk lists, all
// timestamp-bounded to the same window.
type ExtractResult struct {
	VideoRawPath  string
	FrameCount    int
	WindowStartTS clock.Timestamp
	WindowEndTS   clock.Timestamp
	SystemAudio   []audioring.Chunk
	MicAudio      []audioring.Chunk
	AvgFrameRate  float64
}

// Config constructs a Buffer's three rings and shared Clock.
type Config struct {
	Video       videoring.Config
	SystemAudio audioring.Config
	MicAudio    audioring.Config
	Clock       clock.Source

	Logger   *slog.Logger
	Recorder metrics.Recorder
}

// Buffer is the SyncedAVBuffer.
type Buffer struct {
	clock       clock.Source
	video       *videoring.Ring
	systemAudio *audioring.Ring
	micAudio    *audioring.Ring

	extracting atomic.Bool

	logger *slog.Logger
	rec    metrics.Recorder
}

// New constructs a Buffer from cfg. A nil Clock is a configuration
// error: every timestamp in the system must trace back to one shared
// source.
func New(cfg Config) (*Buffer, error) {
	if cfg.Clock == nil {
		return nil, kcerrors.Newf("avbuffer requires a non-nil Clock").
			Component("avbuffer").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.NopRecorder{}
	}

	video, err := videoring.New(withDefaults(cfg.Video, logger, rec))
	if err != nil {
		return nil, err
	}
	systemAudio, err := audioring.New(cfg.SystemAudio)
	if err != nil {
		video.Close()
		return nil, err
	}
	micAudio, err := audioring.New(cfg.MicAudio)
	if err != nil {
		video.Close()
		return nil, err
	}

	return &Buffer{
		clock:       cfg.Clock,
		video:       video,
		systemAudio: systemAudio,
		micAudio:    micAudio,
		logger:      logger,
		rec:         rec,
	}, nil
}

func withDefaults(cfg videoring.Config, logger *slog.Logger, rec metrics.Recorder) videoring.Config {
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	if cfg.Recorder == nil {
		cfg.Recorder = rec
	}
	return cfg
}

// AddVideoFrame forwards a producer-timestamped raw BGRA frame to the
// VideoRing.
func (b *Buffer) AddVideoFrame(raw []byte, ts clock.Timestamp) error {
	return b.video.Add(raw, ts)
}

// AddSystemAudio forwards a producer-timestamped PCM chunk to the
// system-audio AudioRing.
func (b *Buffer) AddSystemAudio(samples []byte, ts clock.Timestamp) {
	b.systemAudio.Add(samples, ts)
}

// AddMicrophoneAudio forwards a producer-timestamped PCM chunk to the
// microphone AudioRing.
func (b *Buffer) AddMicrophoneAudio(samples []byte, ts clock.Timestamp) {
	b.micAudio.Add(samples, ts)
}

// VideoRingStats is a point-in-time snapshot of the VideoRing's disk and
// memory tier occupancy, for periodic metrics export.
type VideoRingStats struct {
	DiskQueueDepth  int
	DiskFrameCount  int
	MemoryTierBytes int
}

// VideoRingStats reports the VideoRing's current disk and memory tier
// occupancy.
func (b *Buffer) VideoRingStats() VideoRingStats {
	return VideoRingStats{
		DiskQueueDepth:  b.video.DiskQueueDepth(),
		DiskFrameCount:  b.video.DiskFrameCount(),
		MemoryTierBytes: b.video.MemoryTierBytes(),
	}
}

// Clear empties every ring.
func (b *Buffer) Clear() error {
	if err := b.video.Clear(); err != nil {
		return err
	}
	b.systemAudio.Clear()
	b.micAudio.Clear()
	return nil
}

// Close releases the VideoRing's disk-tier resources. The buffer must
// not be used afterward.
func (b *Buffer) Close() {
	b.video.Close()
}

// ExtractLastSeconds materializes the trailing n seconds of video (as a
// raw BGRA file) plus every audio chunk within the resulting window,
// per §4.6.1: video defines the window, audio is filtered to it with a
// 0.1s end margin. A second concurrent call while one is in flight
// returns a Busy error; if ctx is cancelled, any temp file created is
// removed before returning a Cancelled error.
func (b *Buffer) ExtractLastSeconds(ctx context.Context, n float64, outDir string) (ExtractResult, error) {
	if !b.extracting.CompareAndSwap(false, true) {
		b.rec.RecordOperation("extract", "busy")
		return ExtractResult{}, kcerrors.Newf("extraction already in progress").
			Component("avbuffer").
			Category(kcerrors.CategoryConflict).
			Build()
	}
	defer b.extracting.Store(false)

	started := time.Now()
	defer func() { b.rec.RecordDuration("extract", time.Since(started).Seconds()) }()

	if err := ctx.Err(); err != nil {
		b.rec.RecordOperation("extract", "cancelled")
		return ExtractResult{}, kcerrors.New(err).
			Component("avbuffer").
			Category(kcerrors.CategoryCancellation).
			Build()
	}

	now := b.clock.Now()
	targetStart := now - b.clock.SecondsToTicks(n)
	tempPath := filepath.Join(outDir, fmt.Sprintf("video_raw_%s.bin", uuid.NewString()))

	win, err := b.video.WriteWindowToRawFile(tempPath, targetStart)
	if err != nil {
		os.Remove(tempPath)
		b.rec.RecordOperation("extract", "error")
		return ExtractResult{}, err
	}

	if win.FrameCount == 0 {
		os.Remove(tempPath)
		b.rec.RecordOperation("extract", "empty")
		return ExtractResult{}, nil
	}

	if err := ctx.Err(); err != nil {
		os.Remove(tempPath)
		b.rec.RecordOperation("extract", "cancelled")
		return ExtractResult{}, kcerrors.New(err).
			Component("avbuffer").
			Category(kcerrors.CategoryCancellation).
			Build()
	}

	endMargin := b.clock.SecondsToTicks(endMarginSeconds)
	sysAudio := filterChunks(b.systemAudio.Snapshot(), win.StartTS, win.EndTS+endMargin)
	micAudio := filterChunks(b.micAudio.Snapshot(), win.StartTS, win.EndTS+endMargin)

	var avgFrameRate float64
	if span := b.clock.TicksToSeconds(win.EndTS - win.StartTS); span > 0 {
		avgFrameRate = float64(win.FrameCount-1) / span
	}

	b.rec.RecordOperation("extract", "ok")
	return ExtractResult{
		VideoRawPath:  tempPath,
		FrameCount:    win.FrameCount,
		WindowStartTS: win.StartTS,
		WindowEndTS:   win.EndTS,
		SystemAudio:   sysAudio,
		MicAudio:      micAudio,
		AvgFrameRate:  avgFrameRate,
	}, nil
}

func filterChunks(chunks []audioring.Chunk, start, end clock.Timestamp) []audioring.Chunk {
	out := make([]audioring.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Timestamp >= start && c.Timestamp <= end {
			out = append(out, c)
		}
	}
	return out
}

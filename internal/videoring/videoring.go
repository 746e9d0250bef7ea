// Package videoring implements the two-tier circular store of compressed,
// timestamped video frames: a bounded in-memory tier for the most recent
// window plus an optional memory-mapped disk tier for everything older,
// up to a total retention budget.
package videoring

import (
	"bufio"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/keepclip/keepclip/internal/clock"
	"github.com/keepclip/keepclip/internal/codec"
	kcerrors "github.com/keepclip/keepclip/internal/errors"
	"github.com/keepclip/keepclip/internal/observability/metrics"
)

// Config fixes a Ring's geometry and retention policy at construction.
type Config struct {
	Width, Height, FPS int
	RAMSeconds         float64
	TotalSeconds       float64
	CodecQuality       int

	// TempDir is where the disk-tier backing file is created. Defaults
	// to os.TempDir() when empty.
	TempDir string

	// DiskQueueSize bounds the disk-writer queue. Defaults to the
	// disk tier's frame capacity when zero.
	DiskQueueSize int

	Logger   *slog.Logger
	Recorder metrics.Recorder
}

type frameSlot struct {
	ts            clock.Timestamp
	blob          []byte
	valid         bool
	originalIndex int64
}

// Ring is the VideoRing: a bounded memory tier plus an optional disk
// tier, both holding CodecCtx-compressed frames.
type Ring struct {
	mu sync.Mutex

	width, height int
	frameSize     int
	maxCompressed int

	codec *codec.Ctx

	mem      []frameSlot
	memWrite int
	memCount int

	nextIndex int64

	disk *diskTier

	logger *slog.Logger
	rec    metrics.Recorder
}

// WindowResult is the outcome of WriteWindowToRawFile.
type WindowResult struct {
	FrameCount int
	StartTS    clock.Timestamp
	EndTS      clock.Timestamp
}

// New validates cfg and constructs a Ring. Configuration errors
// (non-positive dimensions, ram_seconds > total_seconds, etc.) are
// fatal to the caller, per spec: ConfigInvalid.
func New(cfg Config) (*Ring, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, kcerrors.Newf("invalid ring dimensions: %dx%d", cfg.Width, cfg.Height).
			Component("videoring").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}
	if cfg.FPS <= 0 {
		return nil, kcerrors.Newf("invalid fps: %d", cfg.FPS).
			Component("videoring").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}
	if cfg.RAMSeconds < 0 {
		return nil, kcerrors.Newf("ram_seconds must be >= 0, got %f", cfg.RAMSeconds).
			Component("videoring").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}
	if cfg.TotalSeconds < cfg.RAMSeconds {
		return nil, kcerrors.Newf("total_seconds (%f) must be >= ram_seconds (%f)", cfg.TotalSeconds, cfg.RAMSeconds).
			Component("videoring").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}

	c, err := codec.New(cfg.Width, cfg.Height, cfg.CodecQuality)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.NopRecorder{}
	}

	ramCap := int(math.Round(float64(cfg.FPS) * cfg.RAMSeconds))
	diskCap := int(math.Round(float64(cfg.FPS) * (cfg.TotalSeconds - cfg.RAMSeconds)))
	if ramCap < 0 {
		ramCap = 0
	}
	if diskCap < 0 {
		diskCap = 0
	}

	disk, err := newDiskTier(cfg.TempDir, diskCap, c.MaxCompressedSize(), cfg.DiskQueueSize, logger, rec)
	if err != nil {
		return nil, err
	}

	return &Ring{
		width:         cfg.Width,
		height:        cfg.Height,
		frameSize:     c.FrameSize(),
		maxCompressed: c.MaxCompressedSize(),
		codec:         c,
		mem:           make([]frameSlot, ramCap),
		disk:          disk,
		logger:        logger,
		rec:           rec,
	}, nil
}

// RAMCapacityFrames returns the memory tier's frame capacity.
func (r *Ring) RAMCapacityFrames() int {
	return len(r.mem)
}

// DiskCapacityFrames returns the disk tier's frame capacity (0 if none).
func (r *Ring) DiskCapacityFrames() int {
	if r.disk == nil {
		return 0
	}
	return r.disk.capacityFrames
}

// Add compresses raw and inserts it as the newest frame, evicting the
// memory tier's oldest occupant (if full) to the disk tier, or dropping
// it if no disk tier exists. Never blocks on disk I/O.
func (r *Ring) Add(raw []byte, ts clock.Timestamp) error {
	if len(raw) != r.frameSize {
		return kcerrors.Newf("raw frame size mismatch: got %d, want %d", len(raw), r.frameSize).
			Component("videoring").
			Category(kcerrors.CategoryValidation).
			Build()
	}

	var blob []byte
	if err := r.codec.Compress(raw, &blob); err != nil {
		if kcerrors.IsCategory(err, kcerrors.CategoryCodec) {
			r.logger.Warn("videoring: dropping frame that codec could not bound", "error", err)
			r.rec.RecordError("frame_add", "codec")
			return nil
		}
		return err
	}

	r.mu.Lock()
	idx := r.nextIndex
	r.nextIndex++

	if len(r.mem) == 0 {
		r.mu.Unlock()
		r.evictOrDrop(ts, idx, blob)
		r.rec.RecordOperation("frame_add", "ok")
		return nil
	}

	var evicted frameSlot
	hadEvicted := false
	if r.memCount == len(r.mem) {
		evicted = r.mem[r.memWrite]
		hadEvicted = evicted.valid
	} else {
		r.memCount++
	}
	r.mem[r.memWrite] = frameSlot{ts: ts, blob: blob, valid: true, originalIndex: idx}
	r.memWrite = (r.memWrite + 1) % len(r.mem)
	r.mu.Unlock()

	if hadEvicted {
		r.evictOrDrop(evicted.ts, evicted.originalIndex, evicted.blob)
	}
	r.rec.RecordOperation("frame_add", "ok")
	return nil
}

func (r *Ring) evictOrDrop(ts clock.Timestamp, originalIndex int64, blob []byte) {
	if r.disk == nil {
		return
	}
	r.disk.enqueue(evictedFrame{ts: ts, originalIndex: int32(originalIndex), blob: blob})
}

// WriteWindowToRawFile decompresses every stored frame with
// ts >= windowStartTS, oldest to newest, and streams it as raw BGRA to
// outPath. Corrupted frames are skipped, logged once each, and do not
// abort the walk. Holds the ring (and, if present, disk) lock for the
// duration of the walk.
func (r *Ring) WriteWindowToRawFile(outPath string, windowStartTS clock.Timestamp) (WindowResult, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return WindowResult{}, kcerrors.New(err).
			Component("videoring").
			Category(kcerrors.CategoryFileIO).
			Context("path", outPath).
			Build()
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	result := WindowResult{}
	scratch := make([]byte, r.frameSize)

	emit := func(ts clock.Timestamp, blob []byte) {
		if err := r.codec.DecompressInto(blob, scratch); err != nil {
			r.logger.Warn("videoring: skipping corrupted frame during extraction", "error", err, "timestamp", ts)
			r.rec.RecordError("extract", "codec")
			return
		}
		if _, err := w.Write(scratch); err != nil {
			r.logger.Warn("videoring: failed writing frame to extraction output", "error", err)
			r.rec.RecordError("extract", "io")
			return
		}
		if result.FrameCount == 0 {
			result.StartTS = ts
		}
		result.EndTS = ts
		result.FrameCount++
	}

	if r.disk != nil {
		r.disk.mu.Lock()
	}
	r.mu.Lock()

	var walkErr error
	if r.disk != nil {
		walkErr = r.disk.oldestToNewestLocked(func(ts clock.Timestamp, blob []byte) bool {
			if ts >= windowStartTS {
				emit(ts, blob)
			}
			return true
		})
	}

	if walkErr == nil {
		oldestIdx := 0
		if r.memCount == len(r.mem) && len(r.mem) > 0 {
			oldestIdx = r.memWrite
		}
		for step := 0; step < r.memCount; step++ {
			idx := (oldestIdx + step) % len(r.mem)
			slot := r.mem[idx]
			if slot.valid && slot.ts >= windowStartTS {
				emit(slot.ts, slot.blob)
			}
		}
	}

	r.mu.Unlock()
	if r.disk != nil {
		r.disk.mu.Unlock()
	}

	if walkErr != nil {
		w.Flush()
		return WindowResult{}, kcerrors.New(walkErr).
			Component("videoring").
			Category(kcerrors.CategoryDiskIO).
			Build()
	}

	if err := w.Flush(); err != nil {
		return WindowResult{}, kcerrors.New(err).
			Component("videoring").
			Category(kcerrors.CategoryFileIO).
			Build()
	}

	return result, nil
}

// Clear invalidates every memory-tier slot and lazily retires the disk
// tier (metadata marked invalid; the backing file is not truncated).
func (r *Ring) Clear() error {
	r.mu.Lock()
	for i := range r.mem {
		r.mem[i] = frameSlot{}
	}
	r.memWrite = 0
	r.memCount = 0
	r.mu.Unlock()

	if r.disk != nil {
		return r.disk.clear()
	}
	return nil
}

// Close stops the disk-writer worker and removes the disk-tier backing
// file on a best-effort basis. The ring must not be used afterward.
func (r *Ring) Close() {
	if r.disk != nil {
		r.disk.close()
	}
}

// DiskQueueDepth reports how many evicted frames are waiting for the
// disk-writer worker. Useful for observability and for tests that need
// to know the async writer has caught up.
func (r *Ring) DiskQueueDepth() int {
	if r.disk == nil {
		return 0
	}
	return len(r.disk.queue)
}

// DiskFrameCount reports how many valid frames the disk tier currently
// holds (capped at its capacity).
func (r *Ring) DiskFrameCount() int {
	if r.disk == nil {
		return 0
	}
	r.disk.mu.Lock()
	defer r.disk.mu.Unlock()
	return r.disk.frameCount
}

// DiskFilePath returns the disk tier's backing file path, or "" if
// there is no disk tier.
func (r *Ring) DiskFilePath() string {
	if r.disk == nil {
		return ""
	}
	return r.disk.path
}

// MemoryTierBytes sums the compressed blob bytes currently held by the
// memory tier, for bounded-memory diagnostics (property P7).
func (r *Ring) MemoryTierBytes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, slot := range r.mem {
		if slot.valid {
			total += len(slot.blob)
		}
	}
	return total
}

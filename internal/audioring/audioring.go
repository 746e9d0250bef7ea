// Package audioring implements the per-stream bounded ordered sequence
// of timestamped PCM chunks that backs system and microphone audio in
// the synchronized buffer.
package audioring

import (
	"math"
	"sync"

	"github.com/keepclip/keepclip/internal/clock"
	kcerrors "github.com/keepclip/keepclip/internal/errors"
)

// Chunk is one producer-delivered run of interleaved PCM samples with a
// single timestamp.
type Chunk struct {
	Samples     []byte
	Timestamp   clock.Timestamp
	SampleCount int
}

// Config fixes a Ring's format and retention at construction.
type Config struct {
	SampleRate, Channels int
	DurationSeconds      float64

	// Capacity overrides the number of chunk slots the ring holds.
	// When zero, it defaults to the spec's conservative upper bound of
	// one chunk per sample (sample_rate * channels * duration_seconds),
	// which callers sizing for realistic, multi-sample chunk batching
	// should usually override with something far smaller.
	Capacity int
}

// Ring is the AudioRing: a fixed-size circular buffer of Chunk, one
// writer (the producer), safe for concurrent reads during extraction.
type Ring struct {
	mu sync.RWMutex

	sampleRate, channels int
	bytesPerFrame        int

	chunks []Chunk
	write  int
	count  int
}

// New validates cfg and constructs a Ring.
func New(cfg Config) (*Ring, error) {
	if cfg.SampleRate <= 0 {
		return nil, kcerrors.Newf("invalid sample rate: %d", cfg.SampleRate).
			Component("audioring").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}
	if cfg.Channels <= 0 {
		return nil, kcerrors.Newf("invalid channel count: %d", cfg.Channels).
			Component("audioring").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}
	if cfg.DurationSeconds < 0 {
		return nil, kcerrors.Newf("duration_seconds must be >= 0, got %f", cfg.DurationSeconds).
			Component("audioring").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = int(math.Round(float64(cfg.SampleRate) * float64(cfg.Channels) * cfg.DurationSeconds))
	}
	if capacity <= 0 {
		capacity = 1
	}

	return &Ring{
		sampleRate:    cfg.SampleRate,
		channels:      cfg.Channels,
		bytesPerFrame: 4 * cfg.Channels, // 32-bit float samples, interleaved per channel
		chunks:        make([]Chunk, capacity),
	}, nil
}

// Capacity returns the ring's fixed slot count.
func (r *Ring) Capacity() int {
	return len(r.chunks)
}

// Add copies bytes into a freshly owned buffer and inserts it as the
// newest chunk, overwriting the oldest slot on overflow.
func (r *Ring) Add(samples []byte, ts clock.Timestamp) {
	owned := make([]byte, len(samples))
	copy(owned, samples)

	sampleCount := len(owned) / r.bytesPerFrame

	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[r.write] = Chunk{Samples: owned, Timestamp: ts, SampleCount: sampleCount}
	r.write = (r.write + 1) % len(r.chunks)
	if r.count < len(r.chunks) {
		r.count++
	}
}

// Snapshot returns every stored chunk in chronological order. The
// returned chunks are not copied further (they are immutable once
// inserted), so callers must not mutate Samples.
func (r *Ring) Snapshot() []Chunk {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Chunk, r.count)
	oldest := 0
	if r.count == len(r.chunks) {
		oldest = r.write
	}
	for step := range r.count {
		out[step] = r.chunks[(oldest+step)%len(r.chunks)]
	}
	return out
}

// Clear drops every stored chunk.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.chunks {
		r.chunks[i] = Chunk{}
	}
	r.write = 0
	r.count = 0
}

// Package framepool provides a thread-safe, bounded pool of raw-frame byte
// buffers so the hot video-capture path avoids per-frame allocation.
package framepool

import (
	"sync"
	"sync/atomic"

	"github.com/keepclip/keepclip/internal/errors"
)

// Pool is a fixed-size pool of byte buffers sized for exactly one raw
// frame. Rent/Return are safe under contention from producer and
// extractor goroutines; no lock is held across an allocation.
type Pool struct {
	frameSize   int
	maxPoolSize int

	mu   sync.Mutex
	free [][]byte

	gets      atomic.Uint64
	news      atomic.Uint64
	discarded atomic.Uint64
}

// New creates a Pool whose buffers are exactly frameSize bytes. maxPoolSize
// bounds how many idle buffers the pool will retain.
func New(frameSize, maxPoolSize int) (*Pool, error) {
	if frameSize <= 0 {
		return nil, errors.Newf("invalid frame size: %d, must be greater than 0", frameSize).
			Component("framepool").
			Category(errors.CategoryValidation).
			Context("frame_size", frameSize).
			Build()
	}
	if maxPoolSize < 0 {
		return nil, errors.Newf("invalid max pool size: %d, must be >= 0", maxPoolSize).
			Component("framepool").
			Category(errors.CategoryValidation).
			Context("max_pool_size", maxPoolSize).
			Build()
	}
	return &Pool{frameSize: frameSize, maxPoolSize: maxPoolSize}, nil
}

// FrameSize returns the fixed size of buffers this pool manages.
func (p *Pool) FrameSize() int {
	return p.frameSize
}

// Prewarm allocates up to min(n, maxPoolSize) buffers ahead of time.
func (p *Pool) Prewarm(n int) {
	if n > p.maxPoolSize {
		n = p.maxPoolSize
	}
	for range n {
		buf := make([]byte, p.frameSize)
		p.news.Add(1)
		p.mu.Lock()
		if len(p.free) < p.maxPoolSize {
			p.free = append(p.free, buf)
		}
		p.mu.Unlock()
	}
}

// Rent returns a buffer of exactly FrameSize bytes, reused from the pool
// when one is available, or freshly allocated otherwise. The allocation,
// if needed, happens after the pool lock is released.
func (p *Pool) Rent() []byte {
	p.gets.Add(1)

	p.mu.Lock()
	n := len(p.free)
	var buf []byte
	if n > 0 {
		buf = p.free[n-1]
		p.free = p.free[:n-1]
	}
	p.mu.Unlock()

	if buf != nil {
		return buf
	}
	p.news.Add(1)
	return make([]byte, p.frameSize)
}

// Return gives buf back to the pool for reuse. Buffers of the wrong size,
// or returned once the pool is already at capacity, are dropped.
func (p *Pool) Return(buf []byte) {
	if len(buf) != p.frameSize {
		p.discarded.Add(1)
		return
	}

	p.mu.Lock()
	if len(p.free) >= p.maxPoolSize {
		p.mu.Unlock()
		p.discarded.Add(1)
		return
	}
	p.free = append(p.free, buf)
	p.mu.Unlock()
}

// Stats reports pool usage counters, useful for metrics export.
type Stats struct {
	Gets      uint64
	News      uint64
	Discarded uint64
	Idle      int
}

// Stats returns a snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	idle := len(p.free)
	p.mu.Unlock()
	return Stats{
		Gets:      p.gets.Load(),
		News:      p.news.Load(),
		Discarded: p.discarded.Load(),
		Idle:      idle,
	}
}

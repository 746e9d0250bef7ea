package avbuffer_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keepclip/keepclip/internal/audioring"
	"github.com/keepclip/keepclip/internal/avbuffer"
	"github.com/keepclip/keepclip/internal/clock"
	"github.com/keepclip/keepclip/internal/videoring"
)

// fakeClock is a deterministic clock.Source for tests that need to
// control "now" precisely.
type fakeClock struct {
	now clock.Timestamp
}

func (f *fakeClock) Now() clock.Timestamp                    { return f.now }
func (f *fakeClock) TicksPerSecond() int64                   { return clock.TicksPerSecond }
func (f *fakeClock) TicksToSeconds(delta clock.Timestamp) float64 {
	return float64(delta) / float64(clock.TicksPerSecond)
}
func (f *fakeClock) SecondsToTicks(seconds float64) clock.Timestamp {
	return clock.Timestamp(seconds * float64(clock.TicksPerSecond))
}

func newBuffer(t *testing.T, fc *fakeClock) *avbuffer.Buffer {
	t.Helper()
	b, err := avbuffer.New(avbuffer.Config{
		Clock: fc,
		Video: videoring.Config{
			Width: 8, Height: 8, FPS: 10,
			RAMSeconds: 2, TotalSeconds: 2,
			CodecQuality: 80,
			TempDir:      t.TempDir(),
		},
		SystemAudio: audioring.Config{SampleRate: 48000, Channels: 2, Capacity: 32},
		MicAudio:    audioring.Config{SampleRate: 48000, Channels: 2, Capacity: 32},
	})
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func frame(fill byte) []byte {
	raw := make([]byte, 8*8*4)
	for i := range raw {
		raw[i] = fill
	}
	return raw
}

const second = clock.Timestamp(clock.TicksPerSecond)

// Scenario 3: audio window filtering.
func TestScenarioAudioWindowFiltering(t *testing.T) {
	fc := &fakeClock{}
	b := newBuffer(t, fc)

	const T = 10 * second
	for i := 0; i <= 10; i++ {
		require.NoError(t, b.AddVideoFrame(frame(byte(i)), T+clock.Timestamp(i)*second/10))
	}

	sysTimestamps := []clock.Timestamp{
		T - second/2,                   // T - 0.5
		T - second/10,                  // T - 0.1
		T + 2*second/10,                // T + 0.2
		T + 9*second/10,                // T + 0.9
		T + second + second/20,         // T + 1.05
		T + second + 2*second/10,       // T + 1.2
	}
	for _, ts := range sysTimestamps {
		b.AddSystemAudio([]byte{0, 0, 0, 0}, ts)
	}

	fc.now = T + second // now = T + 1.0
	res, err := b.ExtractLastSeconds(context.Background(), 2, t.TempDir())
	require.NoError(t, err)
	defer os.Remove(res.VideoRawPath)

	var got []clock.Timestamp
	for _, c := range res.SystemAudio {
		got = append(got, c.Timestamp)
	}
	require.ElementsMatch(t, []clock.Timestamp{
		T + 2*second/10,
		T + 9*second/10,
		T + second + second/20,
	}, got)
}

// Scenario 4: empty-window.
func TestScenarioEmptyWindowReturnsNoTempFile(t *testing.T) {
	fc := &fakeClock{now: 100 * second}
	b := newBuffer(t, fc)

	outDir := t.TempDir()
	res, err := b.ExtractLastSeconds(context.Background(), 5, outDir)
	require.NoError(t, err)
	require.Equal(t, 0, res.FrameCount)
	require.Empty(t, res.VideoRawPath)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// Scenario 5: concurrent extract is rejected. The first extraction is
// given enough frames at a large enough resolution that its decode walk
// takes measurably longer than the short delay before the second call,
// making the race land reliably without an artificial injection point.
func TestScenarioConcurrentExtractIsBusy(t *testing.T) {
	fc := &fakeClock{now: 5 * second}
	b, err := avbuffer.New(avbuffer.Config{
		Clock: fc,
		Video: videoring.Config{
			Width: 256, Height: 256, FPS: 60,
			RAMSeconds: 6, TotalSeconds: 6,
			CodecQuality: 90,
			TempDir:      t.TempDir(),
		},
		SystemAudio: audioring.Config{SampleRate: 48000, Channels: 2, Capacity: 8},
		MicAudio:    audioring.Config{SampleRate: 48000, Channels: 2, Capacity: 8},
	})
	require.NoError(t, err)
	t.Cleanup(b.Close)

	bigFrame := make([]byte, 256*256*4)
	for i := range 300 {
		for j := range bigFrame {
			bigFrame[j] = byte(i + j)
		}
		require.NoError(t, b.AddVideoFrame(bigFrame, clock.Timestamp(i)*second/60))
	}

	outDir := t.TempDir()
	var wg sync.WaitGroup
	var firstErr, secondErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = b.ExtractLastSeconds(context.Background(), 6, outDir)
	}()

	time.Sleep(time.Millisecond)
	_, secondErr = b.ExtractLastSeconds(context.Background(), 6, outDir)
	wg.Wait()

	require.Error(t, secondErr, "second extraction overlapping the first should be rejected as Busy")
	require.NoError(t, firstErr)
}

// Cancellation: a pre-cancelled context yields Cancelled without
// leaving a temp file.
func TestExtractionCancelledBeforeStart(t *testing.T) {
	fc := &fakeClock{now: 100 * second}
	b := newBuffer(t, fc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outDir := t.TempDir()
	_, err := b.ExtractLastSeconds(ctx, 1, outDir)
	require.Error(t, err)

	entries, readErr := os.ReadDir(outDir)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestClearThenExtractIsEmpty(t *testing.T) {
	fc := &fakeClock{now: 10 * second}
	b := newBuffer(t, fc)

	for i := range 15 {
		require.NoError(t, b.AddVideoFrame(frame(byte(i)), clock.Timestamp(i)*second/10))
	}
	require.NoError(t, b.Clear())

	res, err := b.ExtractLastSeconds(context.Background(), 5, t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 0, res.FrameCount)
}

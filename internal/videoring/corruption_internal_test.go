package videoring

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keepclip/keepclip/internal/clock"
)

type spyRecorder struct {
	errors map[string]int
}

func newSpyRecorder() *spyRecorder {
	return &spyRecorder{errors: make(map[string]int)}
}

func (s *spyRecorder) RecordOperation(operation, status string)   {}
func (s *spyRecorder) RecordDuration(operation string, seconds float64) {}
func (s *spyRecorder) RecordError(operation, errorType string) {
	s.errors[operation+":"+errorType]++
}

// Scenario 6: codec corruption tolerance. A corrupted memory-tier slot
// is skipped during extraction without aborting the walk, and exactly
// one CodecError is recorded for it.
func TestScenarioCodecCorruptionTolerance(t *testing.T) {
	rec := newSpyRecorder()
	raw := frameBytesInternal(8, 8, 1)

	r, err := New(Config{
		Width: 8, Height: 8, FPS: 10,
		RAMSeconds: 1, TotalSeconds: 1,
		CodecQuality: 80,
		TempDir:      t.TempDir(),
		Recorder:     rec,
	})
	require.NoError(t, err)
	defer r.Close()

	const n = 10
	for i := range n {
		require.NoError(t, r.Add(raw, clock.Timestamp(i)))
	}

	r.mu.Lock()
	corruptedSlot := -1
	for i := range r.mem {
		if r.mem[i].valid && r.mem[i].ts == 5 {
			r.mem[i].blob = []byte{0x00, 0xDE, 0xAD} // malformed JPEG body, no EOI marker
			corruptedSlot = i
			break
		}
	}
	r.mu.Unlock()
	require.NotEqual(t, -1, corruptedSlot)

	outPath := filepath.Join(t.TempDir(), "out.bin")
	res, err := r.WriteWindowToRawFile(outPath, 0)
	require.NoError(t, err)

	require.Equal(t, n-1, res.FrameCount)
	require.Equal(t, 1, rec.errors["extract:codec"])
}

func frameBytesInternal(width, height int, fill byte) []byte {
	raw := make([]byte, width*height*4)
	for i := range raw {
		raw[i] = fill
	}
	return raw
}

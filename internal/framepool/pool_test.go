package framepool_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keepclip/keepclip/internal/framepool"
)

func TestNewValidatesArguments(t *testing.T) {
	_, err := framepool.New(0, 4)
	require.Error(t, err)

	_, err = framepool.New(64, -1)
	require.Error(t, err)

	p, err := framepool.New(64, 4)
	require.NoError(t, err)
	require.Equal(t, 64, p.FrameSize())
}

func TestRentReturnReusesBuffers(t *testing.T) {
	p, err := framepool.New(128, 2)
	require.NoError(t, err)

	buf := p.Rent()
	require.Len(t, buf, 128)
	p.Return(buf)

	stats := p.Stats()
	require.Equal(t, uint64(1), stats.Gets)
	require.Equal(t, uint64(1), stats.News)
	require.Equal(t, 1, stats.Idle)

	buf2 := p.Rent()
	require.Len(t, buf2, 128)
	stats = p.Stats()
	require.Equal(t, uint64(2), stats.Gets)
	require.Equal(t, uint64(1), stats.News, "second rent should reuse the pooled buffer")
}

func TestReturnDiscardsWrongSizeOrOverCapacity(t *testing.T) {
	p, err := framepool.New(64, 1)
	require.NoError(t, err)

	p.Return(make([]byte, 32))
	require.Equal(t, uint64(1), p.Stats().Discarded)

	p.Return(make([]byte, 64))
	p.Return(make([]byte, 64))
	require.Equal(t, 1, p.Stats().Idle)
	require.Equal(t, uint64(2), p.Stats().Discarded, "second same-size return should be dropped: pool at capacity")
}

func TestPrewarmRespectsCap(t *testing.T) {
	p, err := framepool.New(16, 3)
	require.NoError(t, err)

	p.Prewarm(10)
	require.Equal(t, 3, p.Stats().Idle)
}

func TestConcurrentRentReturn(t *testing.T) {
	p, err := framepool.New(256, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				buf := p.Rent()
				require.Len(t, buf, 256)
				p.Return(buf)
			}
		}()
	}
	wg.Wait()
}

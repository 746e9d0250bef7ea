package main

import (
	"context"
	"time"

	"github.com/keepclip/keepclip/internal/avbuffer"
	"github.com/keepclip/keepclip/internal/clock"
	"github.com/keepclip/keepclip/internal/conf"
	"github.com/keepclip/keepclip/internal/framepool"
	"github.com/keepclip/keepclip/internal/logging"
)

// bytesPerSample is the width of one PCM sample on one channel, per
// spec.md §6.1's 32-bit float sample format.
const bytesPerSample = 4

// runDemoProducer feeds the buffer with synthetic video and audio so the
// daemon can be exercised end to end without a real capture pipeline
// wired up. It is a development/smoke-test stand-in, not a production
// frame or audio source: a real embedder calls Buffer.AddVideoFrame,
// Buffer.AddSystemAudio and Buffer.AddMicrophoneAudio directly instead
// of running this goroutine. It rents its frame buffer from pool each
// cycle and returns it once AddVideoFrame has returned, exercising the
// same rent/add/return contract a real producer must follow.
func runDemoProducer(ctx context.Context, clk clock.Source, buf *avbuffer.Buffer, pool *framepool.Pool, settings *conf.Settings) {
	logger := logging.ForComponent("demo_producer")
	logger.Warn("demo producer active: feeding synthetic frames, not a real capture source")

	frameInterval := time.Second / time.Duration(settings.Capture.FPS)

	sysTick := time.NewTicker(frameInterval)
	defer sysTick.Stop()

	audioInterval := 20 * time.Millisecond
	sysSamples := silentPCM(settings.SystemAudio.SampleRate, settings.SystemAudio.Channels, audioInterval)
	micSamples := silentPCM(settings.MicAudio.SampleRate, settings.MicAudio.Channels, audioInterval)
	audioTick := time.NewTicker(audioInterval)
	defer audioTick.Stop()

	var frameCounter byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-sysTick.C:
			frame := pool.Rent()
			frameCounter++
			frame[0] = frameCounter
			err := buf.AddVideoFrame(frame, clk.Now())
			pool.Return(frame)
			if err != nil {
				logger.Error("demo producer frame rejected", "error", err)
			}
		case <-audioTick.C:
			now := clk.Now()
			buf.AddSystemAudio(sysSamples, now)
			buf.AddMicrophoneAudio(micSamples, now)
		}
	}
}

// silentPCM builds a zeroed 32-bit float PCM chunk spanning interval at
// the given sample rate and channel count.
func silentPCM(sampleRate, channels int, interval time.Duration) []byte {
	frames := int(float64(sampleRate) * interval.Seconds())
	return make([]byte, frames*channels*bytesPerSample)
}

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/keepclip/keepclip/internal/avbuffer"
)

// tempExt marks an in-progress encoder output so a crash mid-mux never
// leaves a file that looks finished at the requested path.
const tempExt = ".temp"

// encodeConfig describes the container ffmpeg should produce from an
// ExtractResult. This driver is an example caller of the core's raw
// handoff contract, not the product's own encoder: deleting this file
// does not change what avbuffer guarantees.
type encodeConfig struct {
	FFmpegPath string
	Width      int
	Height     int
	FPS        int
	SampleRate int
	Channels   int
}

// encodeToMP4 muxes an ExtractResult's raw BGRA video and system-audio
// PCM into an MP4 at outputPath, atomically: ffmpeg writes to a .temp
// sibling that is renamed into place only once the process exits clean.
func encodeToMP4(res avbuffer.ExtractResult, cfg encodeConfig, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create encoder output directory: %w", err)
	}

	pcmPath, hasPCM := writePCMSidecar(res)
	if hasPCM {
		defer os.Remove(pcmPath)
	}

	tempPath := outputPath + tempExt
	args := buildEncodeArgs(res, cfg, pcmPath, hasPCM, tempPath)

	cmd := exec.Command(cfg.FFmpegPath, args...)
	if err := cmd.Run(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("ffmpeg mux failed: %w", err)
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("failed to rename temporary encoder output: %w", err)
	}
	return nil
}

// buildEncodeArgs builds the ffmpeg invocation for one raw BGRA input
// plus, when hasPCM, one raw PCM input, muxed into an H.264/AAC MP4. The
// system-audio track is used as the encoder's reference track; the
// microphone track in res is left for a future multi-track variant.
func buildEncodeArgs(res avbuffer.ExtractResult, cfg encodeConfig, pcmPath string, hasPCM bool, tempPath string) []string {
	frameRate := fmt.Sprintf("%.3f", res.AvgFrameRate)
	if res.AvgFrameRate <= 0 {
		frameRate = fmt.Sprintf("%d", cfg.FPS)
	}

	args := []string{
		"-f", "rawvideo",
		"-pixel_format", "bgra",
		"-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-framerate", frameRate,
		"-i", res.VideoRawPath,
	}

	if hasPCM {
		args = append(args,
			"-f", "f32le",
			"-ar", fmt.Sprintf("%d", cfg.SampleRate),
			"-ac", fmt.Sprintf("%d", cfg.Channels),
			"-i", pcmPath,
		)
	}

	return append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		"-y",
		tempPath,
	)
}

// writePCMSidecar concatenates res's system-audio chunks into one raw
// PCM file next to the video, since ffmpeg needs a seekable input, not
// a slice of discrete chunks. Returns ok=false when there is no audio
// to encode, in which case the caller mixes video only.
func writePCMSidecar(res avbuffer.ExtractResult) (string, bool) {
	if len(res.SystemAudio) == 0 {
		return "", false
	}

	pcmPath := res.VideoRawPath + ".pcm"
	f, err := os.Create(pcmPath)
	if err != nil {
		return "", false
	}
	defer f.Close()

	for _, chunk := range res.SystemAudio {
		if _, err := f.Write(chunk.Samples); err != nil {
			return "", false
		}
	}
	return pcmPath, true
}

package conf

import kcerrors "github.com/keepclip/keepclip/internal/errors"

// Validate checks field-level invariants the rest of the system assumes
// hold: positive geometry, a RAM window no larger than the total window,
// and a codec quality in JPEG's valid range.
func (s *Settings) Validate() error {
	if s.Capture.Width <= 0 || s.Capture.Height <= 0 {
		return configErrorf("capture.width and capture.height must be positive")
	}
	if s.Capture.FPS <= 0 {
		return configErrorf("capture.fps must be positive")
	}
	if s.Ring.RAMSeconds <= 0 || s.Ring.TotalSeconds <= 0 {
		return configErrorf("ring.ramseconds and ring.totalseconds must be positive")
	}
	if s.Ring.RAMSeconds > s.Ring.TotalSeconds {
		return configErrorf("ring.ramseconds (%v) must not exceed ring.totalseconds (%v)", s.Ring.RAMSeconds, s.Ring.TotalSeconds)
	}
	if s.Ring.CodecQuality < 1 || s.Ring.CodecQuality > 100 {
		return configErrorf("ring.codecquality must be between 1 and 100")
	}
	if s.SystemAudio.SampleRate <= 0 || s.SystemAudio.Channels <= 0 {
		return configErrorf("systemaudio.samplerate and systemaudio.channels must be positive")
	}
	if s.MicAudio.SampleRate <= 0 || s.MicAudio.Channels <= 0 {
		return configErrorf("micaudio.samplerate and micaudio.channels must be positive")
	}
	if s.Extraction.DefaultSeconds <= 0 {
		return configErrorf("extraction.defaultseconds must be positive")
	}
	return nil
}

func configErrorf(format string, args ...any) error {
	return kcerrors.Newf(format, args...).
		Component("conf").
		Category(kcerrors.CategoryValidation).
		Build()
}

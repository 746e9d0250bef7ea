// Package conf defines keepclipd's configuration surface: one Settings
// struct loaded from a YAML file via viper, with an embedded default
// written out the first time no config file is found.
package conf

// CaptureSettings describes the video geometry and frame rate producers
// feed into the VideoRing.
type CaptureSettings struct {
	Width  int `yaml:"width"`  // frame width in pixels
	Height int `yaml:"height"` // frame height in pixels
	FPS    int `yaml:"fps"`    // nominal producer frame rate
}

// RingSettings sizes the two-tier video ring and its codec.
type RingSettings struct {
	RAMSeconds   float64 `yaml:"ramseconds"`   // trailing window kept (compressed) in memory
	TotalSeconds float64 `yaml:"totalseconds"` // total retention window, RAM + disk
	CodecQuality int     `yaml:"codecquality"` // JPEG quality, 1-100
	TempDir      string  `yaml:"tempdir"`      // directory for the disk tier's backing file
	DiskQueueSize int    `yaml:"diskqueuesize"` // bounded eviction-queue depth between RAM and disk tiers
}

// AudioFormat describes one PCM audio source (system or microphone).
type AudioFormat struct {
	SampleRate int `yaml:"samplerate"`
	Channels   int `yaml:"channels"`
	Capacity   int `yaml:"capacity"` // ring capacity in chunks, 0 selects the conservative default
}

// LogRotation mirrors lumberjack's rotation knobs.
type LogRotation struct {
	MaxSizeMB  int `yaml:"maxsizemb"`
	MaxBackups int `yaml:"maxbackups"`
	MaxAgeDays int `yaml:"maxagedays"`
	Compress   bool `yaml:"compress"`
}

// LogSettings configures keepclipd's structured logger.
type LogSettings struct {
	Path     string      `yaml:"path"`  // empty means the structured log goes to stdout
	Level    string      `yaml:"level"` // trace, debug, info, warn, error, fatal
	JSON     bool        `yaml:"json"`
	Rotation LogRotation `yaml:"rotation"`
}

// ExtractionSettings configures the trigger-driven extraction operation.
type ExtractionSettings struct {
	DefaultSeconds float64 `yaml:"defaultseconds"` // window length when a trigger does not specify one
	OutputDir      string  `yaml:"outputdir"`       // directory ExtractLastSeconds writes raw files into
}

// MetricsSettings configures the Prometheus exposition endpoint.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // host:port for the /metrics handler
}

// Settings is the root configuration struct, unmarshaled from YAML by
// viper. Field names are lowercased by viper's default key matching, so
// yaml tags are mostly cosmetic but kept for readability of the
// generated default file.
type Settings struct {
	Capture     CaptureSettings    `yaml:"capture"`
	Ring        RingSettings       `yaml:"ring"`
	SystemAudio AudioFormat        `yaml:"systemaudio"`
	MicAudio    AudioFormat        `yaml:"micaudio"`
	Extraction  ExtractionSettings `yaml:"extraction"`
	Log         LogSettings        `yaml:"log"`
	Metrics     MetricsSettings    `yaml:"metrics"`
}

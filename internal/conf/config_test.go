package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validSettings() *Settings {
	return &Settings{
		Capture:     CaptureSettings{Width: 1280, Height: 720, FPS: 30},
		Ring:        RingSettings{RAMSeconds: 10, TotalSeconds: 60, CodecQuality: 85, DiskQueueSize: 32},
		SystemAudio: AudioFormat{SampleRate: 48000, Channels: 2},
		MicAudio:    AudioFormat{SampleRate: 48000, Channels: 1},
		Extraction:  ExtractionSettings{DefaultSeconds: 30},
		Log:         LogSettings{Level: "info", JSON: true},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validSettings().Validate())
}

func TestValidateRejectsNonPositiveGeometry(t *testing.T) {
	s := validSettings()
	s.Capture.Width = 0
	require.Error(t, s.Validate())
}

func TestValidateRejectsRAMExceedingTotal(t *testing.T) {
	s := validSettings()
	s.Ring.RAMSeconds = 61
	s.Ring.TotalSeconds = 60
	require.Error(t, s.Validate())
}

func TestValidateRejectsOutOfRangeCodecQuality(t *testing.T) {
	s := validSettings()
	s.Ring.CodecQuality = 101
	require.Error(t, s.Validate())

	s.Ring.CodecQuality = 0
	require.Error(t, s.Validate())
}

func TestValidateRejectsNonPositiveAudioFormat(t *testing.T) {
	s := validSettings()
	s.SystemAudio.SampleRate = 0
	require.Error(t, s.Validate())
}

func TestSaveYAMLConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	want := validSettings()
	want.Capture.Width = 1920
	want.Capture.Height = 1080
	require.NoError(t, SaveYAMLConfig(configPath, want))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)

	var got Settings
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Equal(t, want.Capture, got.Capture)
	require.Equal(t, want.Ring, got.Ring)
}

func TestSaveYAMLConfigLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, SaveYAMLConfig(configPath, validSettings()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "config.yaml", entries[0].Name())
}

func TestLoadCreatesDefaultConfigWhenMissing(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	settingsInstance = nil

	settings, err := Load()
	require.NoError(t, err)
	require.Equal(t, 1280, settings.Capture.Width)
	require.Equal(t, 720, settings.Capture.Height)
	require.Equal(t, 85, settings.Ring.CodecQuality)

	configPath := filepath.Join(home, ".config", "keepclipd", "config.yaml")
	_, statErr := os.Stat(configPath)
	require.NoError(t, statErr, "default config file should have been written")
}

func TestGetDefaultConfigPathsFindsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configDir := filepath.Join(home, ".config", "keepclipd")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("capture:\n  width: 640\n"), 0o644))

	paths, err := GetDefaultConfigPaths()
	require.NoError(t, err)
	require.Equal(t, []string{configDir}, paths)
}

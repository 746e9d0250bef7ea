package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keepclip/keepclip/internal/conf"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"fatal":   LevelFatal,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestInitWithFilePathCreatesRotatedLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "sub", "keepclipd.log")

	closeFunc, err := Init(conf.LogSettings{
		Path:  logPath,
		Level: "debug",
		JSON:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, closeFunc)
	t.Cleanup(func() { closeFunc() })

	Structured().Info("hello", "key", "value")

	_, statErr := os.Stat(logPath)
	require.NoError(t, statErr)
}

func TestInitWithoutPathWritesToStdout(t *testing.T) {
	closeFunc, err := Init(conf.LogSettings{Level: "info", JSON: true})
	require.NoError(t, err)
	require.NotNil(t, Structured())
	require.NotNil(t, HumanReadable())
	require.NoError(t, closeFunc())
}

func TestForComponentAddsAttribute(t *testing.T) {
	_, err := Init(conf.LogSettings{Level: "info", JSON: true})
	require.NoError(t, err)

	logger := ForComponent("videoring")
	require.NotNil(t, logger)
}

package conf

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	kcerrors "github.com/keepclip/keepclip/internal/errors"
)

// GetDefaultConfigPaths returns the OS-appropriate search path for
// config.yaml, in priority order. If a config.yaml already exists on one
// of the candidate paths, that single path is returned so the existing
// file wins unambiguously.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, kcerrors.New(err).
			Category(kcerrors.CategorySystem).
			Context("operation", "get-home-directory").
			Build()
	}

	var paths []string
	switch runtime.GOOS {
	case "windows":
		paths = []string{filepath.Join(homeDir, "AppData", "Roaming", "keepclipd")}
	default:
		paths = []string{
			filepath.Join(homeDir, ".config", "keepclipd"),
			"/etc/keepclipd",
		}
	}

	for _, path := range paths {
		if _, err := os.Stat(filepath.Join(path, "config.yaml")); err == nil {
			return []string{path}, nil
		}
	}
	return paths, nil
}

// FindConfigFile returns the path to the first config.yaml found on the
// default search path.
func FindConfigFile() (string, error) {
	paths, err := GetDefaultConfigPaths()
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		candidate := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", kcerrors.Newf("config file not found").
		Category(kcerrors.CategoryNotFound).
		Context("operation", "find-config-file").
		Build()
}

// moveFile copies src to dst and removes src, for use when os.Rename
// fails because the temp file and destination live on different
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return kcerrors.New(err).Category(kcerrors.CategoryFileIO).Build()
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return kcerrors.New(err).Category(kcerrors.CategoryFileIO).Build()
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return kcerrors.New(err).Category(kcerrors.CategoryFileIO).Build()
	}
	return os.Remove(src)
}

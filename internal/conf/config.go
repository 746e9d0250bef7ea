package conf

import (
	stderrors "errors"
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	kcerrors "github.com/keepclip/keepclip/internal/errors"
)

//go:embed config.yaml
var defaultConfigFile embed.FS

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
	once             sync.Once
)

// Load reads config.yaml from the default search path (creating it from
// the embedded default if none exists), unmarshals it into a Settings,
// validates it, and stores it as the process-wide instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryConfiguration).
			Context("operation", "unmarshal-settings").
			Build()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settingsInstance, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	paths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range paths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if stderrors.As(err, &notFound) {
			return createDefaultConfig(paths[0])
		}
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryConfiguration).
			Context("operation", "read-config-file").
			Build()
	}
	return nil
}

func createDefaultConfig(dir string) error {
	configPath := filepath.Join(dir, "config.yaml")

	data, err := fs.ReadFile(defaultConfigFile, "config.yaml")
	if err != nil {
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryConfiguration).
			Build()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryFileIO).
			Context("operation", "create-config-dir").
			Build()
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryFileIO).
			Context("operation", "write-default-config").
			Build()
	}
	return viper.ReadInConfig()
}

// GetSettings returns the currently loaded Settings, or nil if Load has
// not run yet.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the process-wide Settings, loading it from disk on
// first call. A load failure is fatal: keepclipd cannot run without a
// valid configuration.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				panic(err)
			}
		}
	})
	return GetSettings()
}

// SaveYAMLConfig atomically overwrites configPath with settings marshaled
// as YAML: written to a sibling temp file, then renamed into place so
// a crash mid-write never leaves a truncated config file.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryConfiguration).
			Context("operation", "marshal-settings").
			Build()
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryFileIO).
			Context("operation", "create-temp-config").
			Build()
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryFileIO).
			Context("operation", "write-temp-config").
			Build()
	}
	if err := tempFile.Close(); err != nil {
		return kcerrors.New(err).
			Component("conf").
			Category(kcerrors.CategoryFileIO).
			Build()
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		if err := moveFile(tempPath, configPath); err != nil {
			return kcerrors.New(err).
				Component("conf").
				Category(kcerrors.CategoryFileIO).
				Context("operation", "replace-config-file").
				Build()
		}
	}
	return nil
}

// Package config loads the internal link settings from config.yaml and
// INTERNALLINK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/internallink/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "INTERNALLINK"
)

// Config keys.
const (
	KeyTestMode        = "test_mode"
	KeyAutocompleteURL = "autocomplete_url"
	KeyTitleURL        = "title_url"
	KeyPreviewURL      = "preview_url"
	KeyCatalogDir      = "catalog_dir"
	KeyDebounce        = "debounce"
	KeyLookupTimeout   = "lookup_timeout"
	KeyLogLevel        = "log_level"
)

// fileConfig is the config.yaml layout. Durations are written as strings.
type fileConfig struct {
	TestMode        bool   `yaml:"test_mode"`
	AutocompleteURL string `yaml:"autocomplete_url"`
	TitleURL        string `yaml:"title_url"`
	PreviewURL      string `yaml:"preview_url"`
	CatalogDir      string `yaml:"catalog_dir,omitempty"`
	Debounce        string `yaml:"debounce"`
	LookupTimeout   string `yaml:"lookup_timeout"`
	LogLevel        string `yaml:"log_level"`
}

// New returns a viper instance carrying the defaults and environment
// bindings, reading config.yaml from configDir when it exists.
func New(configDir string) (*viper.Viper, error) {
	d := types.DefaultConfig()
	v := viper.New()
	v.SetDefault(KeyTestMode, d.TestMode)
	v.SetDefault(KeyAutocompleteURL, d.AutocompleteURL)
	v.SetDefault(KeyTitleURL, d.TitleURL)
	v.SetDefault(KeyPreviewURL, d.PreviewURL)
	v.SetDefault(KeyCatalogDir, d.CatalogDir)
	v.SetDefault(KeyDebounce, d.Debounce)
	v.SetDefault(KeyLookupTimeout, d.LookupTimeout)
	v.SetDefault(KeyLogLevel, d.LogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configDir == "" {
		return v, nil
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// Decode turns v into a validated Config.
func Decode(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads and validates the configuration in configDir.
func Load(configDir string) (types.Config, error) {
	v, err := New(configDir)
	if err != nil {
		return types.Config{}, err
	}
	return Decode(v)
}

// WriteDefault creates configDir/config.yaml with the default settings. An
// existing file is left alone. It reports whether a file was written.
func WriteDefault(configDir string) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}

	d := types.DefaultConfig()
	data, err := yaml.Marshal(&fileConfig{
		TestMode:        d.TestMode,
		AutocompleteURL: d.AutocompleteURL,
		TitleURL:        d.TitleURL,
		PreviewURL:      d.PreviewURL,
		Debounce:        d.Debounce.String(),
		LookupTimeout:   d.LookupTimeout.String(),
		LogLevel:        d.LogLevel,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

package types

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config holds the read-only settings of the internal link feature. It is
// loaded once per editor session and never mutated afterwards.
type Config struct {
	TestMode        bool          `json:"test_mode" yaml:"test_mode" mapstructure:"test_mode"`
	AutocompleteURL string        `json:"autocomplete_url" yaml:"autocomplete_url" mapstructure:"autocomplete_url"`
	TitleURL        string        `json:"title_url" yaml:"title_url" mapstructure:"title_url"`
	PreviewURL      string        `json:"preview_url" yaml:"preview_url" mapstructure:"preview_url"`
	CatalogDir      string        `json:"catalog_dir" yaml:"catalog_dir" mapstructure:"catalog_dir"`
	Debounce        time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
	LookupTimeout   time.Duration `json:"lookup_timeout" yaml:"lookup_timeout" mapstructure:"lookup_timeout"`
	LogLevel        string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Defaults applied when a key is absent from every config source.
const (
	DefaultPreviewURL    = "http://www.google.de?q=" + PlaceholderLinkID
	DefaultDebounce      = 500 * time.Millisecond
	DefaultLookupTimeout = 5 * time.Second
	DefaultLogLevel      = "info"
)

// Config validation errors.
var (
	ErrDebounceInvalid      = errors.New("debounce must not be negative")
	ErrLookupTimeoutInvalid = errors.New("lookup timeout must be positive")
	ErrPlaceholderMissing   = errors.New("url template is missing its placeholder")
	ErrLogLevelUnknown      = errors.New("unknown log level")
)

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// DefaultConfig returns a Config populated with the documented defaults.
func DefaultConfig() Config {
	return Config{
		PreviewURL:    DefaultPreviewURL,
		Debounce:      DefaultDebounce,
		LookupTimeout: DefaultLookupTimeout,
		LogLevel:      DefaultLogLevel,
	}
}

// Validate checks that the Config is well-formed. Empty URL templates are
// allowed (the corresponding lookup then yields empty results); non-empty
// templates must contain their placeholder.
func (c Config) Validate() error {
	if c.Debounce < 0 {
		return ErrDebounceInvalid
	}
	if c.LookupTimeout <= 0 {
		return ErrLookupTimeoutInvalid
	}
	if c.AutocompleteURL != "" && !strings.Contains(c.AutocompleteURL, PlaceholderSearchTerm) {
		return ErrPlaceholderMissing
	}
	if c.TitleURL != "" && !strings.Contains(c.TitleURL, PlaceholderLinkID) {
		return ErrPlaceholderMissing
	}
	if c.PreviewURL != "" && !strings.Contains(c.PreviewURL, PlaceholderLinkID) {
		return ErrPlaceholderMissing
	}
	if c.LogLevel != "" && !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	return nil
}

// FillTemplate replaces the first occurrence of placeholder in template with
// the escaped value. Escaping keeps a value such as "a/b c" from changing the
// shape of the URL it is substituted into.
func FillTemplate(template, placeholder, value string) string {
	return strings.Replace(template, placeholder, url.PathEscape(value), 1)
}

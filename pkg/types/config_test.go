package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "negative debounce rejected",
			mutate:  func(c *Config) { c.Debounce = -time.Millisecond },
			wantErr: ErrDebounceInvalid,
		},
		{
			name:   "zero debounce allowed",
			mutate: func(c *Config) { c.Debounce = 0 },
		},
		{
			name:    "zero lookup timeout rejected",
			mutate:  func(c *Config) { c.LookupTimeout = 0 },
			wantErr: ErrLookupTimeoutInvalid,
		},
		{
			name:    "autocomplete url without search placeholder",
			mutate:  func(c *Config) { c.AutocompleteURL = "http://svc/search" },
			wantErr: ErrPlaceholderMissing,
		},
		{
			name:   "autocomplete url with placeholder",
			mutate: func(c *Config) { c.AutocompleteURL = "http://svc/search?q=" + PlaceholderSearchTerm },
		},
		{
			name:    "title url with the wrong placeholder",
			mutate:  func(c *Config) { c.TitleURL = "http://svc/title/" + PlaceholderSearchTerm },
			wantErr: ErrPlaceholderMissing,
		},
		{
			name:   "empty preview url allowed",
			mutate: func(c *Config) { c.PreviewURL = "" },
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrLogLevelUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.TestMode)
	assert.Equal(t, "http://www.google.de?q={internalLinkId}", cfg.PreviewURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
	assert.Empty(t, cfg.AutocompleteURL)
	assert.Empty(t, cfg.TitleURL)
}

func TestFillTemplate(t *testing.T) {
	tests := []struct {
		name        string
		template    string
		placeholder string
		value       string
		want        string
	}{
		{
			name:        "plain id",
			template:    "http://svc/title/" + PlaceholderLinkID,
			placeholder: PlaceholderLinkID,
			value:       "42",
			want:        "http://svc/title/42",
		},
		{
			name:        "space and slash are escaped",
			template:    "http://svc/search?q=" + PlaceholderSearchTerm,
			placeholder: PlaceholderSearchTerm,
			value:       "a/b c",
			want:        "http://svc/search?q=a%2Fb%20c",
		},
		{
			name:        "only the first placeholder is replaced",
			template:    PlaceholderLinkID + "-" + PlaceholderLinkID,
			placeholder: PlaceholderLinkID,
			value:       "x",
			want:        "x-" + PlaceholderLinkID,
		},
		{
			name:        "template without placeholder is unchanged",
			template:    "http://svc/static",
			placeholder: PlaceholderLinkID,
			value:       "x",
			want:        "http://svc/static",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FillTemplate(tt.template, tt.placeholder, tt.value))
		})
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the chatsync core.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatsync/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete chatsync configuration.
type Config struct {
	// DefaultSurface names the surface used when none is specified.
	DefaultSurface string `toml:"default_surface" json:"default_surface"`

	// Surfaces maps surface names to their capability descriptors.
	Surfaces map[string]Surface `toml:"surfaces" json:"surfaces"`

	// Transport configures the backend transport.
	Transport TransportConfig `toml:"transport" json:"transport"`

	// Store configures the local collection store.
	Store StoreConfig `toml:"store" json:"store"`
}

// Surface is the capability descriptor parametrizing one conversation
// surface. Every chat variant shares the same assembler and differs only
// in this descriptor.
type Surface struct {
	// SupportsFiles enables file/image segments in user messages.
	SupportsFiles bool `toml:"supports_files" json:"supports_files"`
	// SupportsSources enables the citation side channel.
	SupportsSources bool `toml:"supports_sources" json:"supports_sources"`
	// SupportsLinkMode enables the link-following search mode.
	SupportsLinkMode bool `toml:"supports_link_mode" json:"supports_link_mode"`
}

// TransportConfig configures the HTTP backend transport.
type TransportConfig struct {
	// BaseURL is the backend API base URL.
	BaseURL string `toml:"base_url" json:"base_url"`
	// APIKey authenticates requests (empty = anonymous session).
	APIKey string `toml:"api_key" json:"api_key"`
	// TimeoutSecs bounds a single mutation request in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries is the retry budget for retryable failures.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// MutationsPerSec rate-limits mutation requests (0 = unlimited).
	MutationsPerSec float64 `toml:"mutations_per_sec" json:"mutations_per_sec"`
}

// StoreConfig configures the local sqlite collection store.
type StoreConfig struct {
	// Path is the database file path (empty = ~/.chatsync/collections.db).
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() Config {
	return Config{
		DefaultSurface: "chat",
		Surfaces: map[string]Surface{
			"chat":   {SupportsFiles: false, SupportsSources: false, SupportsLinkMode: false},
			"docs":   {SupportsFiles: true, SupportsSources: true, SupportsLinkMode: false},
			"search": {SupportsFiles: false, SupportsSources: true, SupportsLinkMode: true},
		},
		Transport: TransportConfig{
			BaseURL:         "http://localhost:8080",
			TimeoutSecs:     30,
			MaxRetries:      3,
			MutationsPerSec: 10,
		},
		Store: StoreConfig{},
	}
}

// SurfaceByName returns the descriptor for a named surface, falling back
// to the default surface and then to a zero-capability descriptor.
func (c Config) SurfaceByName(name string) Surface {
	if s, ok := c.Surfaces[name]; ok {
		return s
	}
	if s, ok := c.Surfaces[c.DefaultSurface]; ok {
		return s
	}
	return Surface{}
}

// StorePath resolves the local store path, defaulting under the home dir.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".chatsync", "collections.db"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// ErrUnknownFormat is returned for config files that are neither TOML nor JSON.
var ErrUnknownFormat = errors.New("config: unknown file format")

// Load reads a config file, applies environment overrides, and validates.
// The format is chosen by file extension (.toml or .json). A missing file
// yields the defaults with env overrides applied.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, cfg.Validate()
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return cfg, ErrUnknownFormat
	}

	applyEnvOverrides(&cfg)
	return cfg, cfg.Validate()
}

// applyEnvOverrides applies CHATSYNC_* environment variables on top of the
// loaded configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CHATSYNC_BASE_URL"); v != "" {
		cfg.Transport.BaseURL = v
	}
	if v := os.Getenv("CHATSYNC_API_KEY"); v != "" {
		cfg.Transport.APIKey = v
	}
	if v := os.Getenv("CHATSYNC_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("CHATSYNC_TIMEOUT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Transport.TimeoutSecs = secs
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.Transport.BaseURL != "" {
		u, err := url.Parse(c.Transport.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config: invalid transport base_url %q", c.Transport.BaseURL)
		}
	}
	if c.Transport.TimeoutSecs < 0 {
		return fmt.Errorf("config: timeout_secs must not be negative")
	}
	if c.Transport.MaxRetries < 0 {
		return fmt.Errorf("config: max_retries must not be negative")
	}
	if c.Transport.MutationsPerSec < 0 {
		return fmt.Errorf("config: mutations_per_sec must not be negative")
	}
	if c.DefaultSurface != "" && len(c.Surfaces) > 0 {
		if _, ok := c.Surfaces[c.DefaultSurface]; !ok {
			return fmt.Errorf("config: default_surface %q not defined", c.DefaultSurface)
		}
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration atomically, in the format matching the
// path's extension.
func (c Config) Save(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(c); err != nil {
			return fmt.Errorf("failed to encode TOML config: %w", err)
		}
		data = []byte(sb.String())
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON config: %w", err)
		}
	default:
		return ErrUnknownFormat
	}

	return util.AtomicWriteFile(path, data, 0600)
}

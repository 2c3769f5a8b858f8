package app

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds engine-wide configuration. The candidate port list is fixed
// and deliberately not configurable.
type Config struct {
	// Debug enables debug logging and source locations
	Debug bool

	// ScanHost is the host swept by scans and defaults to localhost
	ScanHost string

	// ProbeTimeout bounds a single TCP probe
	ProbeTimeout time.Duration

	// ConnectTimeout bounds the channel-ready wait during scan classification
	ConnectTimeout time.Duration

	// HandshakeTimeout bounds the first reflection response during scan
	// classification
	HandshakeTimeout time.Duration
}

// fileConfig is the YAML shape of an optional config file. Durations are
// strings in time.ParseDuration format. Zero values are "not set" and leave
// the default untouched.
type fileConfig struct {
	Debug            *bool  `yaml:"debug"`
	ScanHost         string `yaml:"scanHost"`
	ProbeTimeout     string `yaml:"probeTimeout"`
	ConnectTimeout   string `yaml:"connectTimeout"`
	HandshakeTimeout string `yaml:"handshakeTimeout"`
}

// DefaultConfig returns a configuration with the scan timings used by
// localhost discovery.
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		ScanHost:         "localhost",
		ProbeTimeout:     100 * time.Millisecond,
		ConnectTimeout:   500 * time.Millisecond,
		HandshakeTimeout: 1000 * time.Millisecond,
	}
}

// LoadConfig builds the effective configuration: defaults, then the first
// readable YAML file, then environment overrides. A missing or malformed
// file is skipped silently.
func LoadConfig(configPath string) *Config {
	cfg := DefaultConfig()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates, "configs/config.yaml")
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var parsed fileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}
		mergeFile(cfg, parsed)
		break
	}

	applyEnvOverrides(cfg)
	return cfg
}

func mergeFile(dst *Config, src fileConfig) {
	if src.Debug != nil {
		dst.Debug = *src.Debug
	}
	if src.ScanHost != "" {
		dst.ScanHost = src.ScanHost
	}
	if d, ok := parseDuration(src.ProbeTimeout); ok {
		dst.ProbeTimeout = d
	}
	if d, ok := parseDuration(src.ConnectTimeout); ok {
		dst.ConnectTimeout = d
	}
	if d, ok := parseDuration(src.HandshakeTimeout); ok {
		dst.HandshakeTimeout = d
	}
}

func parseDuration(val string) (time.Duration, bool) {
	if val == "" {
		return 0, false
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// applyEnvOverrides reads GRPCSCOUT_* environment variables over the merged
// configuration.
func applyEnvOverrides(cfg *Config) {
	if debugStr := os.Getenv("GRPCSCOUT_DEBUG"); debugStr != "" {
		if debug, err := strconv.ParseBool(debugStr); err == nil {
			cfg.Debug = debug
		}
	}
	if host := os.Getenv("GRPCSCOUT_SCAN_HOST"); host != "" {
		cfg.ScanHost = host
	}
	if d, ok := envDuration("GRPCSCOUT_PROBE_TIMEOUT"); ok {
		cfg.ProbeTimeout = d
	}
	if d, ok := envDuration("GRPCSCOUT_CONNECT_TIMEOUT"); ok {
		cfg.ConnectTimeout = d
	}
	if d, ok := envDuration("GRPCSCOUT_HANDSHAKE_TIMEOUT"); ok {
		cfg.HandshakeTimeout = d
	}
}

func envDuration(key string) (time.Duration, bool) {
	return parseDuration(os.Getenv(key))
}

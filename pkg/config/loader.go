// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix    = "SAGSIN_"
	configEnvVar = "CONFIG_PATH"
)

// Loader loads configuration from layered sources: built-in defaults, an
// optional YAML file, and environment variables, in that priority order.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
	envPrefix   string
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/sagsin/config.yaml",
		},
		envPrefix: envPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigPaths overrides the list of paths searched for a config file.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.configPaths = paths
	}
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// Load loads configuration with priority:
// 1. Defaults (lowest)
// 2. Config file (yaml)
// 3. Environment variables (highest)
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		// A config file is optional; fall back to defaults + env.
		fmt.Printf("Warning: %v\n", err)
	}

	if err := l.loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadDefaults seeds the koanf instance with the controller's built-in
// defaults, mirroring the parameter set of the original config.yaml/config.py
// (epoch_sec, enable_*, max_range_km, elevation_min_deg, aco.*, link_model.*).
func (l *Loader) loadDefaults() error {
	defaults := map[string]any{
		// App
		"app.name":        "sagsin-controller",
		"app.version":     "1.0.0",
		"app.environment": "development",
		"app.debug":       false,

		// HTTP
		"http.port":                   8080,
		"http.read_timeout":           30 * time.Second,
		"http.write_timeout":          30 * time.Second,
		"http.shutdown_timeout":       10 * time.Second,
		"http.cors.enabled":           true,
		"http.cors.allowed_origins":   []string{"*"},
		"http.cors.allowed_methods":   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		"http.cors.allowed_headers":   []string{"*"},
		"http.cors.allow_credentials": false,
		"http.cors.max_age":           86400,

		// Log
		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		// Metrics
		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "sagsin",
		"metrics.subsystem": "controller",

		// Cache (route-answer cache, internal/routecache)
		"cache.enabled":     false,
		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.default_ttl": 5 * time.Second,
		"cache.max_entries": 10000,

		// Simulation
		"sim.epoch_sec":         10 * time.Second,
		"sim.enable_ground":     true,
		"sim.enable_air":        true,
		"sim.enable_sea":        true,
		"sim.enable_sat":        true,
		"sim.elevation_min_deg": 10.0,
		"sim.speed_multiplier":  1.0,
		"sim.link_flip_prob":    0.05,
		"sim.max_range_km": map[string]float64{
			"ground-ground": 50,
			"ground-air":    300,
			"ground-sea":    200,
			"ground-sat":    2000,
			"air-air":       500,
			"air-sea":       400,
			"air-sat":       2500,
			"sea-sea":       300,
			"sea-sat":       2500,
			"sat-sat":       3000,
		},

		// ACO
		"aco.ants":    30,
		"aco.iters":   60,
		"aco.alpha":   1.0,
		"aco.beta":    3.0,
		"aco.rho":     0.2,
		"aco.xi":      0.1,
		"aco.q0":      0.2,
		"aco.tau0":    0.2,
		"aco.mmas":    true,
		"aco.tau_min": 0.01,
		"aco.tau_max": 2.0,
		"aco.weights": []float64{0.5, 0.2, 0.2, 0.1},

		// Link model
		"link_model.freq_hz":       2.4e9,
		"link_model.bw_hz":         20e6,
		"link_model.p_tx_dbm":      20.0,
		"link_model.noise_dbm":     -100.0,
		"link_model.proc_queue_ms": 2.0,

		// TCP relay
		"tcp.port":         9000,
		"tcp.dial_timeout": 3 * time.Second,
		"tcp.read_timeout": 5 * time.Second,

		// Node source
		"node_source.file_path": "nodes.json",

		// Node agent
		"node_agent.node_index":     0,
		"node_agent.tcp_port":       9000,
		"node_agent.controller_url": "http://sagsin-controller:8080/events",
		"node_agent.heartbeat_sec":  30 * time.Second,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

// loadConfigFile loads configuration from a YAML file, checked first via
// CONFIG_PATH then via the loader's search paths.
func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv loads configuration from environment variables, e.g.
// SAGSIN_ACO_Q0 -> aco.q0.
func (l *Loader) loadEnv() error {
	return l.k.Load(env.Provider(l.envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(
				strings.TrimPrefix(s, l.envPrefix),
			),
			"_", ".",
		)
	}), nil)
}

// MustLoad loads configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load is a convenience function that loads configuration with default
// settings.
func Load() (*Config, error) {
	return NewLoader().Load()
}

// LoadWithServiceDefaults loads configuration, overriding the HTTP port and
// app name for the named service when they are still at their defaults.
func LoadWithServiceDefaults(serviceName string, defaultPort int) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == 8080 && defaultPort != 0 {
		cfg.HTTP.Port = defaultPort
	}

	if cfg.App.Name == "sagsin-controller" {
		cfg.App.Name = serviceName
	}

	return cfg, nil
}

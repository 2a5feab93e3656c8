// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the controller's top-level configuration tree.
type Config struct {
	App        AppConfig        `koanf:"app"`
	HTTP       HTTPConfig       `koanf:"http"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Cache      CacheConfig      `koanf:"cache"`
	Sim        SimConfig        `koanf:"sim"`
	ACO        ACOConfig        `koanf:"aco"`
	LinkModel  LinkModelConfig  `koanf:"link_model"`
	TCP        TCPConfig        `koanf:"tcp"`
	NodeSource NodeSourceConfig `koanf:"node_source"`
	NodeAgent  NodeAgentConfig  `koanf:"node_agent"`
}

// AppConfig holds process identity settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// HTTPConfig configures the controller's HTTP/SSE listener.
type HTTPConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORS            CORSConfig    `koanf:"cors"`
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	Enabled          bool     `koanf:"enabled"`
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

// LogConfig configures the slog-based logger.
type LogConfig struct {
	Level      string `koanf:"level"`       // debug, info, warn, error
	Format     string `koanf:"format"`      // json, text
	Output     string `koanf:"output"`      // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`    // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`     // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// CacheConfig configures the route-answer cache backing internal/routecache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // in-memory only
}

// Address returns the cache backend's dial address.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SimConfig controls which node kinds are simulated, link-feasibility
// gating, and the epoch/mobility cadence.
type SimConfig struct {
	EpochSec        time.Duration      `koanf:"epoch_sec"`
	EnableGround    bool               `koanf:"enable_ground"`
	EnableAir       bool               `koanf:"enable_air"`
	EnableSea       bool               `koanf:"enable_sea"`
	EnableSat       bool               `koanf:"enable_sat"`
	MaxRangeKm      map[string]float64 `koanf:"max_range_km"`
	ElevationMinDeg float64            `koanf:"elevation_min_deg"`
	SpeedMultiplier float64            `koanf:"speed_multiplier"`
	LinkFlipProb    float64            `koanf:"link_flip_prob"`
}

// ACOConfig tunes the ant-colony route solver.
type ACOConfig struct {
	Ants    int       `koanf:"ants"`
	Iters   int       `koanf:"iters"`
	Alpha   float64   `koanf:"alpha"`
	Beta    float64   `koanf:"beta"`
	Rho     float64   `koanf:"rho"`
	Xi      float64   `koanf:"xi"`
	Q0      float64   `koanf:"q0"`
	Tau0    float64   `koanf:"tau0"`
	MMAS    bool      `koanf:"mmas"`
	TauMin  float64   `koanf:"tau_min"`
	TauMax  float64   `koanf:"tau_max"`
	Weights []float64 `koanf:"weights"` // [latency, inv_capacity, energy, inv_reliability]
}

// LinkModelConfig parameterizes the FSPL/SNR/capacity link-budget kernel.
type LinkModelConfig struct {
	FreqHz      float64 `koanf:"freq_hz"`
	BWHz        float64 `koanf:"bw_hz"`
	PTxDBm      float64 `koanf:"p_tx_dbm"`
	NoiseDBm    float64 `koanf:"noise_dbm"`
	ProcQueueMs float64 `koanf:"proc_queue_ms"`
}

// TCPConfig configures the raw packet-relay transport between node agents.
type TCPConfig struct {
	Port        int           `koanf:"port"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	ReadTimeout time.Duration `koanf:"read_timeout"`
}

// NodeSourceConfig controls where the controller loads its seed topology
// from.
type NodeSourceConfig struct {
	FilePath string `koanf:"file_path"`
}

// NodeAgentConfig configures a node-agent-svc process: which seed node it
// represents, the TCP relay port it accepts frames on, where to reach the
// controller's event stream, and its heartbeat cadence.
type NodeAgentConfig struct {
	NodeIndex     int           `koanf:"node_index"`
	TCPPort       int           `koanf:"tcp_port"`
	ControllerURL string        `koanf:"controller_url"`
	HeartbeatSec  time.Duration `koanf:"heartbeat_sec"`
}

// Validate checks the loaded configuration for internally inconsistent
// values before the controller starts serving.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	if c.TCP.Port <= 0 || c.TCP.Port > 65535 {
		errs = append(errs, fmt.Sprintf("tcp.port must be between 1 and 65535, got %d", c.TCP.Port))
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Sim.EpochSec <= 0 {
		errs = append(errs, "sim.epoch_sec must be positive")
	}
	if c.Sim.SpeedMultiplier <= 0 {
		errs = append(errs, fmt.Sprintf("sim.speed_multiplier must be positive, got %v", c.Sim.SpeedMultiplier))
	}

	if c.ACO.Ants <= 0 {
		errs = append(errs, "aco.ants must be positive")
	}
	if c.ACO.Iters <= 0 {
		errs = append(errs, "aco.iters must be positive")
	}
	if c.ACO.Q0 < 0 || c.ACO.Q0 > 1 {
		errs = append(errs, fmt.Sprintf("aco.q0 must be in [0,1], got %v", c.ACO.Q0))
	}
	if c.ACO.MMAS && c.ACO.TauMin > c.ACO.TauMax {
		errs = append(errs, "aco.tau_min must be <= aco.tau_max when aco.mmas is enabled")
	}
	if len(c.ACO.Weights) != 0 && len(c.ACO.Weights) != 4 {
		errs = append(errs, fmt.Sprintf("aco.weights must have exactly 4 entries (latency, capacity, energy, reliability), got %d", len(c.ACO.Weights)))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the controller is running in a development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the controller is running in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}

package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		App:  AppConfig{Name: "test-controller"},
		HTTP: HTTPConfig{Port: 8080},
		TCP:  TCPConfig{Port: 9000},
		Log:  LogConfig{Level: "info"},
		Sim:  SimConfig{EpochSec: 10, SpeedMultiplier: 1.0},
		ACO:  ACOConfig{Ants: 30, Iters: 60, Q0: 0.2},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing app name", func(c *Config) { c.App.Name = "" }, true},
		{"invalid http port - zero", func(c *Config) { c.HTTP.Port = 0 }, true},
		{"invalid http port - too high", func(c *Config) { c.HTTP.Port = 70000 }, true},
		{"invalid tcp port", func(c *Config) { c.TCP.Port = -1 }, true},
		{"invalid log level", func(c *Config) { c.Log.Level = "invalid" }, true},
		{"valid debug level", func(c *Config) { c.Log.Level = "debug" }, false},
		{"non-positive epoch", func(c *Config) { c.Sim.EpochSec = 0 }, true},
		{"non-positive speed multiplier", func(c *Config) { c.Sim.SpeedMultiplier = 0 }, true},
		{"non-positive ants", func(c *Config) { c.ACO.Ants = 0 }, true},
		{"non-positive iters", func(c *Config) { c.ACO.Iters = 0 }, true},
		{"q0 out of range", func(c *Config) { c.ACO.Q0 = 1.5 }, true},
		{"mmas with inverted tau bounds", func(c *Config) {
			c.ACO.MMAS = true
			c.ACO.TauMin = 2.0
			c.ACO.TauMax = 0.1
		}, true},
		{"wrong weight count", func(c *Config) { c.ACO.Weights = []float64{1, 2} }, true},
		{"correct weight count", func(c *Config) { c.ACO.Weights = []float64{0.5, 0.2, 0.2, 0.1} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestCacheConfig_Address(t *testing.T) {
	cfg := CacheConfig{
		Host: "redis.local",
		Port: 6379,
	}

	addr := cfg.Address()
	if addr != "redis.local:6379" {
		t.Errorf("expected 'redis.local:6379', got %s", addr)
	}
}

func TestCORSConfig(t *testing.T) {
	cfg := CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{"http://localhost:3000", "https://example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	if !cfg.Enabled {
		t.Error("expected CORS to be enabled")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("expected 2 origins, got %d", len(cfg.AllowedOrigins))
	}
}

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
		// TTL bounds how long an abandoned attempt's progress survives.
		TTL string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Storage struct {
		Driver string `yaml:"driver"` // memory, redis or sqlite
		Path   string `yaml:"path"`
	} `yaml:"storage"`
	Cache struct {
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Quiz struct {
		Timing               string  `yaml:"timing"`
		SecondsPerQuestion   int     `yaml:"seconds_per_question"`
		Penalty              float64 `yaml:"penalty"`
		ShuffleOptions       bool    `yaml:"shuffle_options"`
		ReshuffleOnReattempt bool    `yaml:"reshuffle_on_reattempt"`
		Autosave             bool    `yaml:"autosave"`
	} `yaml:"quiz"`
	Catalog struct {
		PageSize int `yaml:"page_size"`
	} `yaml:"catalog"`
	Sitemap struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"sitemap"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Storage.Driver = "memory"
	cfg.Quiz.Timing = "countdown"
	cfg.Quiz.SecondsPerQuestion = 60
	cfg.Quiz.Penalty = 0.25
	cfg.Catalog.PageSize = 7
	cfg.Sitemap.BaseURL = "https://ssc247.in"
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when the file is missing.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

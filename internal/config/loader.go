package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the panel and CLI.
// Zero values mean "unspecified" and are replaced by Defaults via Merge.
type Config struct {
	Addr                  string   `json:"addr" yaml:"addr" toml:"addr"`
	APIBaseURL            string   `json:"api_url" yaml:"api_url" toml:"api_url"`
	LogLevel              string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	SchemaFile            string   `json:"schema_file" yaml:"schema_file" toml:"schema_file"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	UploadTimeoutSeconds  int      `json:"upload_timeout_seconds" yaml:"upload_timeout_seconds" toml:"upload_timeout_seconds"`
	ConnectTimeoutSeconds int      `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds" toml:"connect_timeout_seconds"`
	MaxUploadMB           int      `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	CORSEnabled           bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Environment variables read by ApplyEnv.
const (
	EnvAddr           = "TUNELAB_ADDR"
	EnvAPIURL         = "TUNELAB_API_URL"
	EnvLogLevel       = "TUNELAB_LOG_LEVEL"
	EnvSchemaFile     = "TUNELAB_SCHEMA_FILE"
	EnvRequestTimeout = "TUNELAB_REQUEST_TIMEOUT_SECONDS"
	EnvUploadTimeout  = "TUNELAB_UPLOAD_TIMEOUT_SECONDS"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:                  ":8080",
		APIBaseURL:            "http://localhost:8000",
		LogLevel:              "info",
		RequestTimeoutSeconds: 30,
		UploadTimeoutSeconds:  600,
		ConnectTimeoutSeconds: 5,
		MaxUploadMB:           512,
	}
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// Merge overlays the non-zero fields of over onto base.
func Merge(base, over Config) Config {
	out := base
	if over.Addr != "" {
		out.Addr = over.Addr
	}
	if over.APIBaseURL != "" {
		out.APIBaseURL = over.APIBaseURL
	}
	if over.LogLevel != "" {
		out.LogLevel = over.LogLevel
	}
	if over.SchemaFile != "" {
		out.SchemaFile = over.SchemaFile
	}
	if over.RequestTimeoutSeconds > 0 {
		out.RequestTimeoutSeconds = over.RequestTimeoutSeconds
	}
	if over.UploadTimeoutSeconds > 0 {
		out.UploadTimeoutSeconds = over.UploadTimeoutSeconds
	}
	if over.ConnectTimeoutSeconds > 0 {
		out.ConnectTimeoutSeconds = over.ConnectTimeoutSeconds
	}
	if over.MaxUploadMB > 0 {
		out.MaxUploadMB = over.MaxUploadMB
	}
	if over.CORSEnabled {
		out.CORSEnabled = true
	}
	if len(over.CORSOrigins) > 0 {
		out.CORSOrigins = append([]string(nil), over.CORSOrigins...)
	}
	return out
}

// ApplyEnv overlays TUNELAB_* environment variables using getenv
// (os.Getenv when nil). Malformed numbers are reported, not ignored.
func ApplyEnv(cfg Config, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	var env Config
	env.Addr = strings.TrimSpace(getenv(EnvAddr))
	env.APIBaseURL = strings.TrimSpace(getenv(EnvAPIURL))
	env.LogLevel = strings.TrimSpace(getenv(EnvLogLevel))
	env.SchemaFile = strings.TrimSpace(getenv(EnvSchemaFile))
	var err error
	if env.RequestTimeoutSeconds, err = envSeconds(getenv, EnvRequestTimeout); err != nil {
		return cfg, err
	}
	if env.UploadTimeoutSeconds, err = envSeconds(getenv, EnvUploadTimeout); err != nil {
		return cfg, err
	}
	return Merge(cfg, env), nil
}

func envSeconds(getenv func(string) string, name string) (int, error) {
	v := strings.TrimSpace(getenv(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid seconds %q", name, v)
	}
	return n, nil
}

// Resolve applies defaults, then the optional file, then the environment.
func Resolve(path string, getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		fc, err := Load(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		cfg = Merge(cfg, fc)
	}
	return ApplyEnv(cfg, getenv)
}

// RequestTimeout returns the per-request timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// UploadTimeout returns the dataset upload timeout.
func (c Config) UploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeoutSeconds) * time.Second
}

// ConnectTimeout returns the dial timeout.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the dataset size limit for the panel.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

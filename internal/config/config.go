// Package config loads the httpcore process configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"dqx0.com/go/httpcore/internal/obs"
)

// Duration is a time.Duration written as "30s" or "5m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server    Server    `yaml:"server"`
	RateLimit RateLimit `yaml:"ratelimit"`
	Log       Log       `yaml:"log"`
	Metrics   Metrics   `yaml:"metrics"`
}

type Server struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	MaxLineBytes    int      `yaml:"max_line_bytes"`
	MaxHeaderBytes  int      `yaml:"max_header_bytes"`
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
}

type RateLimit struct {
	Limit  int      `yaml:"limit"`
	Window Duration `yaml:"window"`

	// IdleTTL of zero keeps windows forever.
	IdleTTL       Duration `yaml:"idle_ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type Metrics struct {
	// Addr serves /metrics; empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxLineBytes:    8 << 10,
			MaxHeaderBytes:  64 << 10,
			MaxBodyBytes:    1 << 20,
		},
		RateLimit: RateLimit{
			Limit:         100,
			Window:        Duration(time.Minute),
			IdleTTL:       Duration(5 * time.Minute),
			SweepInterval: Duration(time.Minute),
		},
		Log:     Log{Level: "info", Format: "json"},
		Metrics: Metrics{Addr: ":9090"},
	}
}

// Load reads path over Default. Keys absent from the file keep their
// defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.UnmarshalWithOptions(b, &cfg, yaml.Strict()); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.MaxLineBytes <= 0 || c.Server.MaxHeaderBytes <= 0 || c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server limits must be positive"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.RateLimit.Limit <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit.limit must be positive, got %d", c.RateLimit.Limit))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("ratelimit.window must be positive"))
	}
	if c.RateLimit.IdleTTL < 0 {
		errs = append(errs, errors.New("ratelimit.idle_ttl must not be negative"))
	}
	if c.RateLimit.IdleTTL > 0 && c.RateLimit.SweepInterval <= 0 {
		errs = append(errs, errors.New("ratelimit.sweep_interval must be positive when idle_ttl is set"))
	}
	if _, err := obs.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

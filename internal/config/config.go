// Package config
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Address        string   `yaml:"http_addr"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	DevMode        bool     `yaml:"dev_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	JWTSecret string        `yaml:"ipc_jwt_secret"`
	JWTExpiry time.Duration `yaml:"ipc_jwt_expiry"`

	DBPath string `yaml:"db_path"`

	StaticTTL       time.Duration `yaml:"telemetry_static_ttl"`
	AttemptTimeout  time.Duration `yaml:"telemetry_attempt_timeout"`
	ScriptTimeout   time.Duration `yaml:"script_timeout"`
	RecordInterval  time.Duration `yaml:"telemetry_record_interval"`
	Retention       time.Duration `yaml:"telemetry_retention"`
	ReaperInterval  time.Duration `yaml:"terminal_reaper_interval"`
	TerminalShell   string        `yaml:"terminal_shell"`
	TerminalInit    time.Duration `yaml:"terminal_init_delay"`
	TerminalIdle    time.Duration `yaml:"terminal_idle_timeout"`
	ConnectHost     string        `yaml:"connectivity_host"`
	ConnectProbe    string        `yaml:"connectivity_probe"`
	ConnectTimeout  time.Duration `yaml:"connectivity_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

func Default() *Config {
	return &Config{
		Address:        "127.0.0.1:3017",
		LogLevel:       "info",
		LogFormat:      "text",
		AllowedOrigins: []string{"http://localhost:3000", "file://"},

		JWTExpiry: 24 * time.Hour,

		DBPath: "lcars.db",

		StaticTTL:       5 * time.Minute,
		AttemptTimeout:  10 * time.Second,
		ScriptTimeout:   15 * time.Second,
		RecordInterval:  30 * time.Second,
		Retention:       7 * 24 * time.Hour,
		ReaperInterval:  time.Minute,
		TerminalInit:    500 * time.Millisecond,
		TerminalIdle:    30 * time.Minute,
		ConnectHost:     "www.google.com",
		ConnectProbe:    "8.8.8.8:53",
		ConnectTimeout:  5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load reads .env, an optional YAML file named by LCARS_CONFIG, then the
// process environment. Later sources win.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := Default()

	if path := os.Getenv("LCARS_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.Address = envString("HTTP_ADDR", c.Address)
	c.LogLevel = envString("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envString("LOG_FORMAT", c.LogFormat)
	c.DevMode = envBool("ELECTRON_IS_DEV", envBool("LCARS_DEV", c.DevMode))
	c.AllowedOrigins = envList("ALLOWED_ORIGINS", c.AllowedOrigins)

	c.JWTSecret = envString("IPC_JWT_SECRET", c.JWTSecret)
	c.JWTExpiry = envDuration("IPC_JWT_EXPIRY", c.JWTExpiry)

	c.DBPath = envString("DB_PATH", c.DBPath)

	c.StaticTTL = envDuration("TELEMETRY_STATIC_TTL", c.StaticTTL)
	c.AttemptTimeout = envDuration("TELEMETRY_ATTEMPT_TIMEOUT", c.AttemptTimeout)
	c.ScriptTimeout = envDuration("SCRIPT_TIMEOUT", c.ScriptTimeout)
	c.RecordInterval = envDuration("TELEMETRY_RECORD_INTERVAL", c.RecordInterval)
	c.Retention = envDuration("TELEMETRY_RETENTION", c.Retention)
	c.ReaperInterval = envDuration("TERMINAL_REAPER_INTERVAL", c.ReaperInterval)
	c.TerminalShell = envString("TERMINAL_SHELL", c.TerminalShell)
	c.TerminalInit = envDuration("TERMINAL_INIT_DELAY", c.TerminalInit)
	c.TerminalIdle = envDuration("TERMINAL_IDLE_TIMEOUT", c.TerminalIdle)
	c.ConnectHost = envString("CONNECTIVITY_HOST", c.ConnectHost)
	c.ConnectProbe = envString("CONNECTIVITY_PROBE", c.ConnectProbe)
	c.ConnectTimeout = envDuration("CONNECTIVITY_TIMEOUT", c.ConnectTimeout)
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/uniondec/internal/logging"
	"github.com/danmuck/uniondec/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const EnvAuthToken = "UNIONDEC_AUTH_TOKEN"

// runtimeConfig is resolved in increasing precedence: defaults, the config
// file, environment variables, then command-line flags.
type runtimeConfig struct {
	Catalog     string
	ListenAddr  string
	CORSOrigins []string
	Limits      frame.Limits
	AuthToken   string
	LogLevel    zerolog.Level
	levelSet    bool
}

type fileConfig struct {
	Catalog         string   `toml:"catalog"`
	ListenAddr      string   `toml:"listen_addr"`
	CORSOrigins     []string `toml:"cors_origins"`
	MaxPayloadBytes int64    `toml:"max_payload_bytes"`
	AuthToken       string   `toml:"auth_token"`
	LogLevel        string   `toml:"log_level"`
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		Catalog:    "catalog.toml",
		ListenAddr: "127.0.0.1:7400",
		Limits:     frame.DefaultLimits(),
		LogLevel:   zerolog.InfoLevel,
	}
}

func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load uniondec config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runtimeConfig{}, fmt.Errorf("load uniondec config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("catalog") {
		if v := strings.TrimSpace(raw.Catalog); v != "" {
			cfg.Catalog = v
		}
	}

	if meta.IsDefined("listen_addr") {
		if v := strings.TrimSpace(raw.ListenAddr); v != "" {
			cfg.ListenAddr = v
		}
	}

	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeOrigins(raw.CORSOrigins)
	}

	if meta.IsDefined("max_payload_bytes") {
		if raw.MaxPayloadBytes <= 0 || raw.MaxPayloadBytes > int64(^uint32(0)) {
			return runtimeConfig{}, fmt.Errorf("max_payload_bytes out of range: %d", raw.MaxPayloadBytes)
		}
		cfg.Limits.MaxPayloadBytes = uint32(raw.MaxPayloadBytes)
	}

	if meta.IsDefined("auth_token") {
		cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
	}

	if meta.IsDefined("log_level") {
		level, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return runtimeConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
		cfg.LogLevel = level
		cfg.levelSet = true
	}

	return cfg, nil
}

// applyEnvOverrides lets UNIONDEC_AUTH_TOKEN and UNIONDEC_LOG_LEVEL replace
// auth_token and log_level from the config file.
func applyEnvOverrides(cfg *runtimeConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAuthToken)); v != "" {
		cfg.AuthToken = v
	}
	if level, ok := logging.ParseLevel(os.Getenv(logging.EnvLogLevel)); ok {
		cfg.LogLevel = level
		cfg.levelSet = true
	}
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

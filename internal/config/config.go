// Package config loads simulator and server settings.
package config

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvQuantum = "SCHEDSIM_QUANTUM"
	EnvAging   = "SCHEDSIM_AGING"
	EnvSeed    = "SCHEDSIM_SEED"
)

// SimConfig holds the scalar simulation parameters.
type SimConfig struct {
	Quantum int   // slice length for round robin (default 2)
	Aging   int   // aging step; 0 disables aging
	Seed    int64 // tie-break seed, meaningful only when SeedSet
	SeedSet bool
}

// DefaultSimConfig returns quantum 2, aging 0 and no fixed seed.
func DefaultSimConfig() SimConfig {
	return SimConfig{Quantum: 2, Aging: 0}
}

// ServerConfig holds configuration for the HTTP API.
type ServerConfig struct {
	Addr      string // Listen address (default ":8080")
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: text, json
	DBPath    string // SQLite database path (default ~/.schedsim/schedsim.db, ":memory:" for testing)
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadSimConfig reads quantum, aging and seed from path and then applies the
// SCHEDSIM_* environment overrides. It never fails: a missing file, a
// malformed line or an out-of-range value leaves the default in place.
//
// The file is either a YAML mapping or plain "key:value" lines; keys are
// case-insensitive.
func LoadSimConfig(path string, logger *slog.Logger) SimConfig {
	cfg := DefaultSimConfig()
	logger = logger.With("component", "config")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debug("config file not read, using defaults", "path", path, "error", err)
		} else {
			cfg.apply(parseSettings(data, logger), logger)
		}
	}

	cfg.ApplyEnv(os.LookupEnv, logger)
	return cfg
}

// ApplyEnv overrides fields from the environment using lookup.
func (c *SimConfig) ApplyEnv(lookup func(string) (string, bool), logger *slog.Logger) {
	settings := make(map[string]string)
	for key, env := range map[string]string{"quantum": EnvQuantum, "aging": EnvAging, "seed": EnvSeed} {
		if v, ok := lookup(env); ok {
			settings[key] = v
		}
	}
	c.apply(settings, logger)
}

// apply sets each recognised key whose value parses and is in range.
func (c *SimConfig) apply(settings map[string]string, logger *slog.Logger) {
	for key, raw := range settings {
		switch key {
		case "quantum":
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				c.Quantum = n
			} else {
				logger.Debug("ignoring invalid quantum", "value", raw)
			}
		case "aging":
			if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
				c.Aging = n
			} else {
				logger.Debug("ignoring invalid aging", "value", raw)
			}
		case "seed":
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				c.Seed = n
				c.SeedSet = true
			} else {
				logger.Debug("ignoring invalid seed", "value", raw)
			}
		default:
			logger.Debug("ignoring unknown config key", "key", key)
		}
	}
}

// parseSettings returns lower-cased keys mapped to their raw values.
func parseSettings(data []byte, logger *slog.Logger) map[string]string {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc) > 0 {
		out := make(map[string]string, len(doc))
		for k, v := range doc {
			out[strings.ToLower(strings.TrimSpace(k))] = fmt.Sprint(v)
		}
		return out
	}

	out := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			logger.Debug("skipping config line", "line", n)
			continue
		}
		out[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}
	return out
}

// String renders the effective settings for the startup echo.
func (c SimConfig) String() string {
	seed := "random"
	if c.SeedSet {
		seed = strconv.FormatInt(c.Seed, 10)
	}
	return fmt.Sprintf("quantum=%d aging=%d seed=%s", c.Quantum, c.Aging, seed)
}

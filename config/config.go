// Package config loads the matching engine's runtime configuration from
// an optional YAML file, then layers environment variable overrides on
// top, the way the server config in this codebase has always been built
// up — sensible defaults, an optional file, env last.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full set of tunables the enginesrv entrypoint needs to
// wire up the matching server and its transports.
type Config struct {
	InstrumentID uint64   `yaml:"instrument_id"`
	PoolCapacity uint32   `yaml:"pool_capacity"`
	InCapacity   int      `yaml:"in_capacity"`
	OutCapacity  int      `yaml:"out_capacity"`
	TrackedUsers []uint64 `yaml:"tracked_users"`

	TCPListenAddr  string `yaml:"tcp_listen_addr"`
	WSListenAddr   string `yaml:"ws_listen_addr"`
	HTTPListenAddr string `yaml:"http_listen_addr"`

	LogLevel string `yaml:"log_level"`

	Simulator SimulatorConfig `yaml:"simulator"`
	BSBot     BSBotConfig     `yaml:"bs_bot"`
}

// SimulatorConfig tunes the optional synthetic market-flow generator.
type SimulatorConfig struct {
	Enabled    bool    `yaml:"enabled"`
	UserID     uint64  `yaml:"user_id"`
	StartPrice float64 `yaml:"start_price"`
	Mu         float64 `yaml:"mu"`
	Sigma      float64 `yaml:"sigma"`
	DtSeconds  float64 `yaml:"dt_seconds"`
	OrderSize  uint64  `yaml:"order_size"`
}

// BSBotConfig tunes the optional Black-Scholes quoting/hedging bot.
type BSBotConfig struct {
	Enabled     bool    `yaml:"enabled"`
	UserID      uint64  `yaml:"user_id"`
	IsCall      bool    `yaml:"is_call"`
	Strike      float64 `yaml:"strike"`
	RiskFree    float64 `yaml:"risk_free"`
	Vol         float64 `yaml:"vol"`
	ExpirySeconds float64 `yaml:"expiry_seconds"`
	QuoteSpread float64 `yaml:"quote_spread"`
	QuoteSize   uint64  `yaml:"quote_size"`
}

// Default returns the configuration the spec's own defaults describe:
// queue capacities of 4096, instrument id 1 and no tracked users.
func Default() Config {
	return Config{
		InstrumentID:   1,
		PoolCapacity:   1 << 20,
		InCapacity:     4096,
		OutCapacity:    4096,
		TCPListenAddr:  ":9100",
		WSListenAddr:   ":9101",
		HTTPListenAddr: ":9102",
		LogLevel:       "info",
	}
}

// Load builds a Config starting from Default, overlaying path's contents
// (if path is non-empty and the file exists) and finally environment
// variable overrides. It never returns an error for a missing path —
// only for a malformed one.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.TCPListenAddr = getEnv("ENGINESRV_TCP_ADDR", cfg.TCPListenAddr)
	cfg.WSListenAddr = getEnv("ENGINESRV_WS_ADDR", cfg.WSListenAddr)
	cfg.HTTPListenAddr = getEnv("ENGINESRV_HTTP_ADDR", cfg.HTTPListenAddr)
	cfg.LogLevel = getEnv("ENGINESRV_LOG_LEVEL", cfg.LogLevel)
	cfg.InstrumentID = parseUintEnv("ENGINESRV_INSTRUMENT_ID", cfg.InstrumentID)
	cfg.PoolCapacity = uint32(parseUintEnv("ENGINESRV_POOL_CAPACITY", uint64(cfg.PoolCapacity)))
	cfg.InCapacity = int(parseUintEnv("ENGINESRV_IN_CAPACITY", uint64(cfg.InCapacity)))
	cfg.OutCapacity = int(parseUintEnv("ENGINESRV_OUT_CAPACITY", uint64(cfg.OutCapacity)))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseUintEnv(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/recwire/internal/logging"
	"github.com/danmuck/recwire/internal/protocol"
	"github.com/danmuck/recwire/internal/protocol/frame"
	"github.com/danmuck/recwire/internal/record"
)

const (
	DriverPebble = "pebble"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	Addr          string
	CorsOrigins   []string
	DefaultScheme string
	Schemas       []string
	LogLevel      string
	Store         StoreConfig
	Limits        LimitsConfig
}

type StoreConfig struct {
	Driver   string
	Path     string
	Compress bool
}

type LimitsConfig struct {
	MaxStringBytes   int
	MaxContainerSize int
	MaxDepth         int
	MaxPayloadBytes  uint64
}

type fileConfig struct {
	Addr          string          `toml:"addr"`
	CorsOrigins   []string        `toml:"cors_origins"`
	DefaultScheme string          `toml:"default_scheme"`
	Schemas       []string        `toml:"schemas"`
	LogLevel      string          `toml:"log_level"`
	Store         fileStoreConfig `toml:"store"`
	Limits        fileLimits      `toml:"limits"`
}

type fileStoreConfig struct {
	Driver   string `toml:"driver"`
	Path     string `toml:"path"`
	Compress bool   `toml:"compress"`
}

type fileLimits struct {
	MaxStringBytes   int    `toml:"max_string_bytes"`
	MaxContainerSize int    `toml:"max_container_size"`
	MaxDepth         int    `toml:"max_depth"`
	MaxPayloadBytes  uint64 `toml:"max_payload_bytes"`
}

func Default() Config {
	limits := protocol.DefaultLimits()
	return Config{
		Addr:          ":9400",
		CorsOrigins:   []string{"http://localhost:3000"},
		DefaultScheme: record.SchemeTagged.String(),
		LogLevel:      "info",
		Store: StoreConfig{
			Driver: DriverPebble,
			Path:   "recwire-data",
		},
		Limits: LimitsConfig{
			MaxStringBytes:   limits.MaxStringBytes,
			MaxContainerSize: limits.MaxContainerSize,
			MaxDepth:         limits.MaxDepth,
			MaxPayloadBytes:  frame.DefaultLimits().MaxPayloadBytes,
		},
	}
}

// Load reads path over Default. Keys absent from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logging.Warnf("config %s: ignoring unknown keys %v", path, undecoded)
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("default_scheme") {
		cfg.DefaultScheme = strings.TrimSpace(raw.DefaultScheme)
	}
	if meta.IsDefined("schemas") {
		cfg.Schemas = normalizeList(raw.Schemas)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("store", "driver") {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(raw.Store.Driver))
	}
	if meta.IsDefined("store", "path") {
		cfg.Store.Path = strings.TrimSpace(raw.Store.Path)
	}
	if meta.IsDefined("store", "compress") {
		cfg.Store.Compress = raw.Store.Compress
	}
	if meta.IsDefined("limits", "max_string_bytes") {
		cfg.Limits.MaxStringBytes = raw.Limits.MaxStringBytes
	}
	if meta.IsDefined("limits", "max_container_size") {
		cfg.Limits.MaxContainerSize = raw.Limits.MaxContainerSize
	}
	if meta.IsDefined("limits", "max_depth") {
		cfg.Limits.MaxDepth = raw.Limits.MaxDepth
	}
	if meta.IsDefined("limits", "max_payload_bytes") {
		cfg.Limits.MaxPayloadBytes = raw.Limits.MaxPayloadBytes
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	logging.Debugf("config loaded path=%s driver=%s scheme=%s", path, cfg.Store.Driver, cfg.DefaultScheme)
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("addr is required")
	}
	if _, err := record.ParseScheme(cfg.DefaultScheme); err != nil {
		return err
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
		}
	}
	switch cfg.Store.Driver {
	case DriverPebble, DriverSQLite:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return fmt.Errorf("store.path is required for driver %s", cfg.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store.driver %q", cfg.Store.Driver)
	}
	if cfg.Limits.MaxStringBytes <= 0 || cfg.Limits.MaxContainerSize <= 0 || cfg.Limits.MaxDepth <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	if cfg.Limits.MaxPayloadBytes == 0 {
		return fmt.Errorf("limits.max_payload_bytes must be positive")
	}
	return nil
}

// Scheme returns the parsed default scheme. Validate guarantees it parses.
func (c Config) Scheme() record.Scheme {
	s, err := record.ParseScheme(c.DefaultScheme)
	if err != nil {
		return record.SchemeTagged
	}
	return s
}

func (c Config) ProtocolLimits() protocol.Limits {
	return protocol.Limits{
		MaxStringBytes:   c.Limits.MaxStringBytes,
		MaxContainerSize: c.Limits.MaxContainerSize,
		MaxDepth:         c.Limits.MaxDepth,
	}
}

func (c Config) FrameLimits() frame.Limits {
	limits := frame.DefaultLimits()
	limits.MaxPayloadBytes = c.Limits.MaxPayloadBytes
	return limits
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

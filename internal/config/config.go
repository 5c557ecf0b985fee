// Package config loads server settings from YAML or TOML files with
// FORMEMBED_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "FORMEMBED_"

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the full server configuration.
type Config struct {
	Server  Server  `yaml:"server" toml:"server"`
	Store   Store   `yaml:"store" toml:"store"`
	Catalog Catalog `yaml:"catalog" toml:"catalog"`
	Theme   Theme   `yaml:"theme" toml:"theme"`
	Log     Log     `yaml:"log" toml:"log"`
}

type Server struct {
	Addr           string   `yaml:"addr" toml:"addr"`
	PublicURL      string   `yaml:"public_url" toml:"public_url"`
	AssetBase      string   `yaml:"asset_base" toml:"asset_base"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
	MaxBodySize    ByteSize `yaml:"max_body_size" toml:"max_body_size"`
	SubmitRate     float64  `yaml:"submit_rate" toml:"submit_rate"`
	SubmitBurst    int      `yaml:"submit_burst" toml:"submit_burst"`
	ReadTimeout    Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownGrace  Duration `yaml:"shutdown_grace" toml:"shutdown_grace"`
}

type Store struct {
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
}

type Catalog struct {
	Path  string `yaml:"path" toml:"path"`
	Watch bool   `yaml:"watch" toml:"watch"`
	Prune bool   `yaml:"prune" toml:"prune"`
}

type Theme struct {
	Name    string `yaml:"name" toml:"name"`
	Variant string `yaml:"variant" toml:"variant"`
	// Dir holds extra go-theme manifests (*.yaml) registered at startup.
	Dir string `yaml:"dir" toml:"dir"`
}

type Log struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":8080",
			AssetBase:      "/embed",
			AllowedOrigins: []string{"*"},
			MaxBodySize:    64 * 1024,
			SubmitRate:     0.5,
			SubmitBurst:    5,
			ReadTimeout:    Duration(10 * time.Second),
			WriteTimeout:   Duration(15 * time.Second),
			ShutdownGrace:  Duration(5 * time.Second),
		},
		Store: Store{Driver: DriverMemory},
		Log:   Log{Level: "info", Format: "json"},
	}
}

// Load reads path (optional) over the defaults, applies the process
// environment and validates the result.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an injectable environment.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := Decode(filepath.Ext(path), data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if lookup != nil {
		if err := cfg.applyEnv(lookup); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses data by file extension, rejecting unknown keys.
func Decode(ext string, data []byte, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode yaml: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("decode toml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs error
	str := func(key string, target *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*target = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, target *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
				return
			}
			*target = b
		}
	}
	text := func(key string, target interface{ UnmarshalText([]byte) error }) {
		if v, ok := lookup(EnvPrefix + key); ok {
			if err := target.UnmarshalText([]byte(v)); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err))
			}
		}
	}

	str("ADDR", &c.Server.Addr)
	str("PUBLIC_URL", &c.Server.PublicURL)
	str("ASSET_BASE", &c.Server.AssetBase)
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	text("MAX_BODY_SIZE", &c.Server.MaxBodySize)
	if v, ok := lookup(EnvPrefix + "SUBMIT_RATE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("config: %sSUBMIT_RATE: %w", EnvPrefix, err))
		} else {
			c.Server.SubmitRate = f
		}
	}
	text("SHUTDOWN_GRACE", &c.Server.ShutdownGrace)
	str("STORE_DRIVER", &c.Store.Driver)
	str("STORE_PATH", &c.Store.Path)
	str("CATALOG", &c.Catalog.Path)
	boolean("CATALOG_WATCH", &c.Catalog.Watch)
	boolean("CATALOG_PRUNE", &c.Catalog.Prune)
	str("THEME", &c.Theme.Name)
	str("THEME_VARIANT", &c.Theme.Variant)
	str("THEME_DIR", &c.Theme.Dir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	return errs
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs error
	add := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("config: "+format, args...))
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		add("server.addr is required")
	}
	if c.Server.PublicURL != "" {
		if u, err := url.Parse(c.Server.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("server.public_url %q must be an absolute URL", c.Server.PublicURL)
		}
	}
	if c.Server.MaxBodySize <= 0 {
		add("server.max_body_size must be positive")
	}
	if c.Server.SubmitRate < 0 || c.Server.SubmitBurst < 0 {
		add("server.submit_rate and server.submit_burst must not be negative")
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			add("store.path is required for the sqlite driver")
		}
	default:
		add("store.driver %q is not one of %s, %s", c.Store.Driver, DriverMemory, DriverSQLite)
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		add("catalog.watch needs catalog.path")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		add("log.format %q is not json or console", c.Log.Format)
	}
	return errs
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ByteSize accepts human sizes such as "64KiB" or "1 MB".
type ByteSize int64

func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(humanize.IBytes(uint64(b))), nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Duration accepts Go duration strings such as "5s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

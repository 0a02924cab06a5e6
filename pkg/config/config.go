// Package config loads packetflow settings from a TOML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the config file, environment
// variables, then command-line flags (applied by the CLI). A missing file at
// the default location is not an error.
//
// Example file:
//
//	[viewport]
//	width = 1024
//	height = 480
//	dpr = 2
//
//	[animation]
//	fps = 60
//	policy = "cancel"
//
//	[routes]
//	file = "~/routes.toml"
//	watch = true
//
//	[redis]
//	addr = "localhost:6379"
//	prefix = "packetflow:"
//
//	[cache]
//	ttl = "24h"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/packetflow/pkg/anim"
	pferrors "github.com/matzehuels/packetflow/pkg/errors"
)

// AppName names the config and cache directories.
const AppName = "packetflow"

// Duration is a time.Duration written as a Go duration string ("90s", "24h").
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all application configuration.
type Config struct {
	Viewport  Viewport  `toml:"viewport"`
	Animation Animation `toml:"animation"`
	Routes    Routes    `toml:"routes"`
	Mongo     Mongo     `toml:"mongo"`
	Redis     Redis     `toml:"redis"`
	Cache     Cache     `toml:"cache"`
	Server    Server    `toml:"server"`
}

// Viewport is the initial drawing surface.
type Viewport struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	DPR    float64 `toml:"dpr"`
}

// Animation configures the frame loop.
type Animation struct {
	FPS    int    `toml:"fps"`
	Policy string `toml:"policy"` // "keep" or "cancel"
}

// Routes selects the route table.
type Routes struct {
	File  string `toml:"file"`
	Watch bool   `toml:"watch"` // reload File on change while serving
}

// Mongo points at a route collection. Empty URI disables it.
type Mongo struct {
	URI        string   `toml:"uri"`
	Database   string   `toml:"database"`
	Collection string   `toml:"collection"`
	Timeout    Duration `toml:"timeout"`
}

// Redis points at a shared artifact cache. Empty Addr disables it.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// Cache configures the local artifact cache.
type Cache struct {
	Dir      string   `toml:"dir"`
	TTL      Duration `toml:"ttl"`
	Disabled bool     `toml:"disabled"`
}

// Server configures `packetflow serve`.
type Server struct {
	Addr        string   `toml:"addr"`
	SessionIdle Duration `toml:"session_idle"` // idle sessions are reaped after this long
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Viewport:  Viewport{Width: 800, Height: 400, DPR: 1},
		Animation: Animation{FPS: anim.DefaultFPS, Policy: anim.KeepPending.String()},
		Mongo: Mongo{
			Database:   "packetflow",
			Collection: "routes",
			Timeout:    Duration{5 * time.Second},
		},
		Redis:  Redis{Prefix: AppName + ":"},
		Cache:  Cache{TTL: Duration{7 * 24 * time.Hour}},
		Server: Server{Addr: "127.0.0.1:8080", SessionIdle: Duration{30 * time.Minute}},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/packetflow/config.toml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns $XDG_CACHE_HOME/packetflow, falling back to ~/.cache.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load builds a configuration from defaults, the file at path and the
// environment. An empty path means [DefaultPath], which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile overlays the TOML file at path. Keys absent from the file keep
// their current values. Unknown keys are rejected.
func (c *Config) LoadFromFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return pferrors.Wrap(pferrors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return pferrors.New(pferrors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	c.Routes.File = expandHome(c.Routes.File)
	c.Cache.Dir = expandHome(c.Cache.Dir)
	return nil
}

// LoadFromEnv applies PACKETFLOW_* environment variables.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("PACKETFLOW_ROUTES"); v != "" {
		c.Routes.File = v
	}
	if v := os.Getenv("PACKETFLOW_MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("PACKETFLOW_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PACKETFLOW_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("PACKETFLOW_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PACKETFLOW_POLICY"); v != "" {
		c.Animation.Policy = v
	}
	if v := os.Getenv("PACKETFLOW_FPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Animation.FPS = n
		}
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return pferrors.New(pferrors.ErrCodeInvalidInput, "viewport must be positive, got %vx%v", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Viewport.DPR < 1 {
		c.Viewport.DPR = 1
	}
	if c.Animation.FPS <= 0 || c.Animation.FPS > 240 {
		return pferrors.New(pferrors.ErrCodeInvalidInput, "fps must be in 1..240, got %d", c.Animation.FPS)
	}
	if _, err := anim.ParsePendingPolicy(c.Animation.Policy); err != nil {
		return err
	}
	if c.Cache.TTL.Duration < 0 {
		return pferrors.New(pferrors.ErrCodeInvalidInput, "cache ttl must not be negative")
	}
	return nil
}

// Policy returns the parsed pending-leg policy. Validate has already checked it.
func (c *Config) Policy() anim.PendingPolicy {
	p, _ := anim.ParsePendingPolicy(c.Animation.Policy)
	return p
}

// Write encodes c as TOML to path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Package config loads service configuration from an optional YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitashwath/qr-code-generator/render"
	"github.com/ajitashwath/qr-code-generator/store"
)

// DefaultFile is read when no --config flag is given and it exists.
const DefaultFile = "qrgen.yaml"

type Config struct {
	Listen   string         `yaml:"listen"`
	Store    StoreConfig    `yaml:"store"`
	Defaults DefaultsConfig `yaml:"defaults"`
	QR       QRConfig       `yaml:"qr"`
	Log      LogConfig      `yaml:"log"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // file, sqlite or memory
	Path   string `yaml:"path"`
	// Watch publishes changes other processes make to a file store.
	Watch bool `yaml:"watch"`
}

type DefaultsConfig struct {
	Size       int    `yaml:"size"`
	LightColor string `yaml:"light_color"`
	DarkColor  string `yaml:"dark_color"`
}

type QRConfig struct {
	Level string `yaml:"level"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Listen: ":8080",
		Store: StoreConfig{
			Driver: store.DriverFile,
			Path:   "data/qrgen.json",
			Watch:  true,
		},
		Defaults: DefaultsConfig{
			Size:       render.DefaultSize,
			LightColor: "#ffffff",
			DarkColor:  "#000000",
		},
		QR:  QRConfig{Level: string(render.LevelH)},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment overrides. An
// empty path tries DefaultFile and silently skips it if absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if port := getenv("PORT"); port != "" {
		c.Listen = ":" + port
	}
	if v := getenv("QR_STORE"); v != "" {
		c.Store.Path = v
	}
	if v := getenv("QR_STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("QR_STORE_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: QR_STORE_WATCH: %w", err)
		}
		c.Store.Watch = b
	}
	if v := getenv("QR_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case store.DriverFile, store.DriverSQLite:
		if strings.TrimSpace(c.Store.Path) == "" {
			errs = append(errs, errors.New("store.path is required"))
		}
	case store.DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not file, sqlite or memory", c.Store.Driver))
	}
	if err := render.ValidateSize(c.Defaults.Size); err != nil {
		errs = append(errs, fmt.Errorf("defaults.size: %w", err))
	}
	if _, err := render.ParseColor(c.Defaults.LightColor); err != nil {
		errs = append(errs, fmt.Errorf("defaults.light_color: %w", err))
	}
	if _, err := render.ParseColor(c.Defaults.DarkColor); err != nil {
		errs = append(errs, fmt.Errorf("defaults.dark_color: %w", err))
	}
	if _, err := render.ParseLevel(c.QR.Level); err != nil {
		errs = append(errs, fmt.Errorf("qr.level: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

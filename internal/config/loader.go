package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "WITARCADE_"
	EnvConfigFile = EnvPrefix + "CONFIG"
	DefaultDotenv = ".env"
)

type loadOptions struct {
	dotenv    string
	file      string
	overrides map[string]any
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithDotenv sets the .env file to read. Empty disables it.
func WithDotenv(path string) LoadOption {
	return func(o *loadOptions) { o.dotenv = path }
}

// WithFile sets the YAML config file, taking precedence over WITARCADE_CONFIG.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		if path != "" {
			o.file = path
		}
	}
}

// WithOverride sets a key after env vars have been applied (used by CLI flags).
func WithOverride(key string, value any) LoadOption {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = map[string]any{}
		}
		o.overrides[key] = value
	}
}

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file, exported into the process env without clobbering
//  3. YAML file from WithFile or WITARCADE_CONFIG
//  4. env (prefix WITARCADE_)
//  5. overrides
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	o := loadOptions{dotenv: DefaultDotenv}
	for _, opt := range opts {
		opt(&o)
	}

	if o.dotenv != "" {
		if err := godotenv.Load(o.dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, o.dotenv, err)
		}
	}

	base := New()
	k := koanf.New(".")

	path := o.file
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// WITARCADE_MONGO_URI -> mongo_uri. Flat keys; underscores match koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	for key, v := range o.overrides {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("%w: override %s: %w", ErrLoadConfig, key, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

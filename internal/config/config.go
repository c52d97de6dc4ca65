// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package config holds the server configuration and loads it from TOML or
// YAML files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"go.e43.eu/m3da/internal/observability"
)

// Store kinds
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

type Config struct {
	// Listen is the TCP address devices connect to
	Listen string `toml:"listen" yaml:"listen"`

	// IdleTimeout closes a session which sent nothing for this long
	IdleTimeout time.Duration `toml:"idle-timeout" yaml:"idle-timeout"`

	// Workers bounds the number of sessions served at once
	Workers int64 `toml:"workers" yaml:"workers"`

	// HTTPAddress is the address of the data API; empty disables it
	HTTPAddress string `toml:"http" yaml:"http"`

	// MetricsAddress is the address of the Prometheus listener; empty
	// disables it
	MetricsAddress string `toml:"metrics" yaml:"metrics"`

	Store    string `toml:"store" yaml:"store"`
	StoreDir string `toml:"store-dir" yaml:"store-dir"`

	// MaxMessages is the number of receptions retained per client
	MaxMessages int `toml:"max-messages" yaml:"max-messages"`

	LogLevel string `toml:"log-level" yaml:"log-level"`
}

func Default() Config {
	return Config{
		Listen:      ":44900",
		IdleTimeout: 30 * time.Second,
		Workers:     8,
		HTTPAddress: ":8080",
		Store:       StoreMemory,
		MaxMessages: 10,
		LogLevel:    "info",
	}
}

// Load reads path on top of the defaults. The format is chosen by the file
// extension: .toml, .yaml or .yml.
func Load(path string) (Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "config: decode %s", path)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "config: read")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(err, "config: decode %s", path)
		}
	default:
		return Config{}, errors.Errorf("config: unsupported file type %q", filepath.Ext(path))
	}
	return cfg, nil
}

// Validate reports every invalid setting
func (c Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Listen) == "" {
		result = multierror.Append(result, errors.New("config: listen address is empty"))
	}
	if c.IdleTimeout <= 0 {
		result = multierror.Append(result, errors.Errorf("config: idle timeout %s is not positive", c.IdleTimeout))
	}
	if c.Workers <= 0 {
		result = multierror.Append(result, errors.Errorf("config: workers %d is not positive", c.Workers))
	}
	if c.MaxMessages <= 0 {
		result = multierror.Append(result, errors.Errorf("config: max messages %d is not positive", c.MaxMessages))
	}

	switch c.Store {
	case StoreMemory:
	case StoreBadger:
		if strings.TrimSpace(c.StoreDir) == "" {
			result = multierror.Append(result, errors.New("config: badger store requires a directory"))
		}
	default:
		result = multierror.Append(result, errors.Errorf("config: unknown store %q", c.Store))
	}

	if _, err := observability.LevelOption(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

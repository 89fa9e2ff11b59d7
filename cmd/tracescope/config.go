// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds persistent user preferences, loaded from
// ~/.tracescope/config.yaml when present.
type Config struct {
	// LogLevel is the minimum log level: debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// LogDir enables JSON file logging when non-empty.
	LogDir string `mapstructure:"log_dir" yaml:"log_dir"`

	// AutoExpand starts the viewer with changed paths expanded.
	AutoExpand bool `mapstructure:"auto_expand" yaml:"auto_expand"`

	// Watch reloads the trace when the file changes on disk.
	Watch bool `mapstructure:"watch" yaml:"watch"`

	// MouseWheelStep is how many rows one wheel tick scrolls.
	MouseWheelStep int `mapstructure:"mouse_wheel_step" yaml:"mouse_wheel_step" validate:"omitempty,gte=1,lte=20"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	return Config{
		LogLevel:       "info",
		LogDir:         "",
		AutoExpand:     false,
		Watch:          false,
		MouseWheelStep: 3,
	}
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing file is not an error; defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".tracescope", "config.yaml")
	}

	if _, err := os.Stat(path); err != nil {
		if explicit {
			return cfg, fmt.Errorf("config file not accessible: %w", err)
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

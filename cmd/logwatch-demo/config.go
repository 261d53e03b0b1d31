package main

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors the handful of Watcher/WaitOptions settings a test
// harness author would rather keep in a checked-in file than repeat on
// the command line every run. Timeout is a Go duration string ("5s")
// rather than time.Duration itself, since go-toml/v2 has no built-in
// text-unmarshal hook for it.
type fileConfig struct {
	Pattern    string   `toml:"pattern"`
	FieldNames []string `toml:"field_names"`
	Timeout    string   `toml:"timeout"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func (c fileConfig) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Timeout)
}

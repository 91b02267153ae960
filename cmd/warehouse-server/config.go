package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml"

	"github.com/hivesim/warehouse"
)

// fileConfig is the on-disk TOML shape for cmd/warehouse-server, mirroring
// warehouse.Config's grouping but with plain primitive types so it can be
// decoded directly and then translated (see toWarehouseConfig).
type fileConfig struct {
	Grid struct {
		Height int `toml:"height"`
		Width  int `toml:"width"`
	} `toml:"grid"`

	Tick struct {
		IntervalMS int `toml:"interval_ms"`
		AckTimeout int `toml:"ack_timeout_ms"`
	} `toml:"tick"`

	Network struct {
		ListenAddress string `toml:"listen_address"`
		QueryAddress  string `toml:"query_address"`
		QueryEnabled  bool   `toml:"query_enabled"`
		AllowlistFile string `toml:"allowlist_file"`
	} `toml:"network"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

func defaultFileConfig() fileConfig {
	var f fileConfig
	d := warehouse.DefaultConfig()
	f.Grid.Height, f.Grid.Width = d.Grid.Height, d.Grid.Width
	f.Tick.IntervalMS = int(d.Tick.Interval / time.Millisecond)
	f.Tick.AckTimeout = int(d.Tick.AckTimeout / time.Millisecond)
	f.Network.ListenAddress = d.Network.ListenAddress
	f.Network.QueryAddress = d.Network.QueryAddress
	f.Log.Level = "info"
	return f
}

// loadConfig reads path, creating it with defaults if it does not exist yet,
// so a fresh install has a working config to edit rather than an error.
func loadConfig(path string) (fileConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f := defaultFileConfig()
		encoded, err := toml.Marshal(f)
		if err != nil {
			return fileConfig{}, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(path, encoded, 0644); err != nil {
			return fileConfig{}, fmt.Errorf("write default config: %w", err)
		}
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config: %w", err)
	}
	f := defaultFileConfig()
	if err := toml.Unmarshal(data, &f); err != nil {
		return fileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return f, nil
}

func (f fileConfig) toWarehouseConfig() warehouse.Config {
	c := warehouse.DefaultConfig()
	if f.Grid.Height > 0 {
		c.Grid.Height = f.Grid.Height
	}
	if f.Grid.Width > 0 {
		c.Grid.Width = f.Grid.Width
	}
	if f.Tick.IntervalMS > 0 {
		c.Tick.Interval = time.Duration(f.Tick.IntervalMS) * time.Millisecond
	}
	if f.Tick.AckTimeout > 0 {
		c.Tick.AckTimeout = time.Duration(f.Tick.AckTimeout) * time.Millisecond
	}
	if f.Network.ListenAddress != "" {
		c.Network.ListenAddress = f.Network.ListenAddress
	}
	if f.Network.QueryAddress != "" {
		c.Network.QueryAddress = f.Network.QueryAddress
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(f.Log.Level)); err == nil {
		c.Log.Level = lvl
	}
	return c
}

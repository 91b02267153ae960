package warehouse

import (
	"log/slog"
	"os"
	"time"
)

// Config holds the settings needed to construct a Warehouse: plain exported
// fields grouped by concern, with a Default that layers sane values for
// local runs. Loaded from TOML on disk by cmd/warehouse-server.
type Config struct {
	Grid struct {
		Height int
		Width  int
	}

	Tick struct {
		// Interval is the wall-clock spacing between ticks when run under
		// cmd/warehouse-server's real-time driver. Zero means "as fast as
		// possible", used by tests and batch simulation.
		Interval time.Duration
		// AckTimeout is carried in the config and loaded from the server's
		// config file, but the tick loop does not read it: the ACK gate
		// waits until every counted session has sent ACK_UPDATE.
		AckTimeout time.Duration
	}

	Network struct {
		ListenAddress string
		QueryAddress  string
	}

	Log struct {
		Level slog.Level
	}
}

// DefaultConfig returns a Config with conservative defaults for a single
// local simulation run.
func DefaultConfig() Config {
	var c Config
	c.Grid.Height, c.Grid.Width = 16, 16
	c.Tick.Interval = 200 * time.Millisecond
	c.Tick.AckTimeout = 2 * time.Second
	c.Network.ListenAddress = ":19132"
	c.Network.QueryAddress = ":19133"
	c.Log.Level = slog.LevelInfo
	return c
}

// NewLogger builds the *slog.Logger a Warehouse logs through: a single
// text handler over stderr with a configurable level.
func (c Config) NewLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.Log.Level})
	return slog.New(handler)
}

// Command warehouse-server runs a warehouse simulation behind a
// JSON-over-WebSocket transport, a UDP status query responder, and an
// interactive admin console.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hivesim/warehouse"
	"github.com/hivesim/warehouse/console"
	"github.com/hivesim/warehouse/transport"
	"github.com/hivesim/warehouse/transport/query"
)

func main() {
	var configPath string
	var allowlistPath string
	var queryEnabled bool

	root := &cobra.Command{
		Use:   "warehouse-server",
		Short: "Run a warehouse robot-fleet simulation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, allowlistPath, queryEnabled)
		},
	}
	root.Flags().StringVar(&configPath, "config", "config.toml", "path to the server configuration file")
	root.Flags().StringVar(&allowlistPath, "allowlist", "allowlist.toml", "path to the session address allowlist")
	root.Flags().BoolVar(&queryEnabled, "query", false, "enable the UDP status query responder")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath, allowlistPath string, queryEnabled bool) error {
	fc, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg := fc.toWarehouseConfig()
	log := cfg.NewLogger()

	wh := warehouse.New(cfg)

	allowlist, err := transport.LoadAllowlist(allowlistPath)
	if err != nil {
		return err
	}

	srv := transport.NewServer(wh, log)
	srv.SetAllowlist(allowlist)

	httpServer := &http.Server{Addr: cfg.Network.ListenAddress, Handler: srv}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", "addr", cfg.Network.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server failed", "err", err)
		}
	}()

	if queryEnabled {
		responder, err := query.Listen(cfg.Network.QueryAddress, log, func() query.Status {
			return query.Status{
				Name:        "warehouse",
				GridHeight:  wh.Grid().Height,
				GridWidth:   wh.Grid().Width,
				AgentCount:  srv.SessionCount(),
				ActiveTasks: 0,
				PendingOrds: 0,
				Tick:        wh.Time(),
			}
		})
		if err != nil {
			return err
		}
		go responder.Serve()
		defer responder.Close()
	}

	con := console.New(wh, log)
	go con.Run(ctx)

	wh.Run(ctx)
	return httpServer.Close()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sugarlabs/Bridge/config"
	"github.com/sugarlabs/Bridge/network"
	"github.com/sugarlabs/Bridge/session"
)

func serveCmd(load func() (config.Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket game server",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := session.NewManager(ctx, cfg.SessionOptions())
			m.Dir = cfg.SessionDir
			if m.Dir != "" {
				if err := os.MkdirAll(m.Dir, 0o755); err != nil {
					return err
				}
			}
			defer m.StopAll()

			err = network.Serve(ctx, cfg.Addr, network.NewServer(m).Handler())
			log.Info("server stopped")
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	return cmd
}

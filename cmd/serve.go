package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fitcoach/internal/rag"
	"fitcoach/internal/web"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web app",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := rag.New(ctx, cfg, rag.DefaultDeps(cfg))
	if err != nil {
		return err
	}
	srv, err := web.NewServer(cfg, engine)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/billchart/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve bill data and charts over HTTP",
	Long: `Starts an HTTP server with:
  GET /api/<commodity>-bill-data   stored records as JSON
  GET /chart/<commodity>           rendered chart (?from=&to=&width=&height=&format=png|svg)
  GET /monitoring/ping             liveness
  GET /monitoring/metrics          Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, then :3000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	layout, err := cfg.Layout()
	if err != nil {
		return fmt.Errorf("chart config: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.GetServerAddr()
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	srv := server.NewServer(addr, db, layout, logrus.StandardLogger())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logrus.Info("shutting down server")
		return srv.Stop(shutdownCtx)
	})
	return g.Wait()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	auth "github.com/goliatone/go-blog-auth"
	"github.com/goliatone/go-blog-auth/config"
	"github.com/goliatone/go-blog-auth/database"
	"github.com/goliatone/go-blog-auth/server"
	"github.com/goliatone/go-print"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	logger := auth.NewLogger("blogauth")

	if err := run(*configPath, logger); err != nil {
		logger.Error("blogauth stopped", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger auth.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Debug {
		// signing key and admin password are excluded from JSON
		fmt.Println("======= BLOG AUTH CONFIG ======")
		fmt.Println(print.MaybePrettyJSON(cfg))
		fmt.Println("===============================")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database, auth.NewLogger("persistence"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.New(server.Options{
		DB:       db,
		Auth:     cfg.Auth,
		Registry: reg,
		Logger:   logger,
		Debug:    cfg.Debug,
	})
	if err != nil {
		return err
	}

	if _, err := auth.BootstrapAdmin(ctx, srv.Users, cfg.BootstrapOptions(logger)); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Address)
		errCh <- srv.HTTP.Serve(cfg.Server.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	logger.Info("shutting down server")
	if err := srv.App.ShutdownWithTimeout(cfg.Server.GetShutdownTimeout()); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

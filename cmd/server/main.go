// Command server relays the simulator stream to browsers and serves the
// learning API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/assessment"
	"github.com/Nicholas-Amsler/lung-iq/internal/config"
	"github.com/Nicholas-Amsler/lung-iq/internal/logger"
	"github.com/Nicholas-Amsler/lung-iq/internal/progress"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/server"
	"github.com/Nicholas-Amsler/lung-iq/internal/stream"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

var (
	configPath string
	natsURL    string
	addr       string
	webDir     string
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the Lung IQ websocket feed and learning API",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.Flags().StringVar(&natsURL, "nats", "", "NATS url (overrides config)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "http address (overrides config)")
	rootCmd.Flags().StringVar(&webDir, "web", "", "static files directory (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if natsURL != "" {
		cfg.NATS.URL = natsURL
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}
	if webDir != "" {
		cfg.HTTP.WebDir = webDir
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "lungiq-server")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := progress.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)
	if err != nil {
		return err
	}
	defer closeStore()
	if cfg.Redis.Addr == "" {
		log.Warn("no redis configured; progress is kept in memory")
	}

	nc, err := stream.Connect(cfg.NATS.URL, "lungiq-server", log)
	if err != nil {
		return err
	}
	defer nc.Drain()

	catalog := scenario.Default()
	tracker := progress.NewTracker(store, catalog)
	hub := server.NewHub(log.Named("hub"))
	defer hub.Close()

	srv := server.New(server.Deps{
		Catalog:   catalog,
		Tracker:   tracker,
		Grader:    assessment.NewGrader(catalog, tracker, log.Named("grader")),
		Generator: waveform.NewGenerator(cfg.Simulator.CacheSize),
		Control:   stream.NewBus(nc, cfg.NATS.Subjects),
		Limits:    cfg.Alarms,
		Hub:       hub,
		WebDir:    cfg.HTTP.WebDir,
		Log:       log,
	})
	if _, err := srv.Attach(nc, cfg.NATS.Subjects); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

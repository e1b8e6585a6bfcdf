// Command producer runs the breath simulator and publishes a frame per tick.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/config"
	"github.com/Nicholas-Amsler/lung-iq/internal/logger"
	"github.com/Nicholas-Amsler/lung-iq/internal/scenario"
	"github.com/Nicholas-Amsler/lung-iq/internal/session"
	"github.com/Nicholas-Amsler/lung-iq/internal/stream"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

var (
	configPath string
	natsURL    string
	scenarioID string
)

var rootCmd = &cobra.Command{
	Use:   "producer",
	Short: "Publish simulated ventilator waveforms over NATS",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.Flags().StringVar(&natsURL, "nats", "", "NATS url (overrides config)")
	rootCmd.Flags().StringVar(&scenarioID, "scenario", "", "scenario to start with")
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

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "lungiq-producer")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	catalog := scenario.Default()
	state := session.NewState(cfg.Simulator.EtCO2Max)
	if scenarioID != "" {
		sc, err := catalog.Scenario(scenarioID)
		if err != nil {
			return err
		}
		state.LoadScenario(sc)
	}

	nc, err := stream.Connect(cfg.NATS.URL, "lungiq-producer", log)
	if err != nil {
		return err
	}
	defer nc.Drain()

	bus := stream.NewBus(nc, cfg.NATS.Subjects)
	_, err = stream.SubscribeJSON(nc, cfg.NATS.Subjects.Control, log, func(c session.Command) {
		if _, err := state.Apply(c, catalog); err != nil {
			log.Warn("control command rejected", zap.String("op", string(c.Op)), zap.Error(err))
			return
		}
		log.Info("control command applied", zap.String("op", string(c.Op)))
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := waveform.NewGenerator(cfg.Simulator.CacheSize)
	runner := session.NewRunner(state, gen, bus, cfg.Simulator.Tick, log)

	log.Info("producer running",
		zap.String("nats", cfg.NATS.URL),
		zap.String("subject", cfg.NATS.Subjects.Wave),
		zap.Duration("tick", cfg.Simulator.Tick),
	)
	return runner.Run(ctx)
}

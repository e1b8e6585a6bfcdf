// Command processor watches the waveform stream and raises alarms.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/config"
	"github.com/Nicholas-Amsler/lung-iq/internal/logger"
	"github.com/Nicholas-Amsler/lung-iq/internal/session"
	"github.com/Nicholas-Amsler/lung-iq/internal/stream"
)

var (
	configPath string
	natsURL    string
	highLimit  float64
	lowLimit   float64
)

var rootCmd = &cobra.Command{
	Use:   "processor",
	Short: "Detect ventilator alarms from the waveform stream",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.Flags().StringVar(&natsURL, "nats", "", "NATS url (overrides config)")
	rootCmd.Flags().Float64Var(&highLimit, "high", 0, "high pressure limit in cmH2O (overrides config)")
	rootCmd.Flags().Float64Var(&lowLimit, "low", 0, "low pressure limit in cmH2O (overrides config)")
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
	if cmd.Flags().Changed("high") {
		cfg.Alarms.High = highLimit
	}
	if cmd.Flags().Changed("low") {
		cfg.Alarms.Low = lowLimit
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "lungiq-processor")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	nc, err := stream.Connect(cfg.NATS.URL, "lungiq-processor", log)
	if err != nil {
		return err
	}
	defer nc.Drain()

	subjects := cfg.NATS.Subjects
	monitor := analysis.NewMonitor(cfg.Alarms, stream.NewBus(nc, subjects), log)

	if _, err := stream.SubscribeJSON(nc, subjects.Metrics, log, monitor.ObserveMetrics); err != nil {
		return err
	}

	_, err = stream.SubscribeJSON(nc, subjects.Control, log, func(c session.Command) {
		if c.Op == session.OpScenario || c.Op == session.OpPathology {
			monitor.Reset()
		}
	})
	if err != nil {
		return err
	}

	_, err = nc.Subscribe(subjects.Wave, func(msg *nats.Msg) {
		f, err := stream.DecodeFrame(msg.Data)
		if err != nil {
			log.Warn("dropping wave message", zap.Error(err))
			return
		}
		monitor.ObserveFrame(f, time.Now())
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subjects.Wave, err)
	}

	log.Info("processor running",
		zap.String("in", subjects.Wave),
		zap.String("out", subjects.Alarms),
		zap.Float64("high_limit", cfg.Alarms.High),
		zap.Float64("low_limit", cfg.Alarms.Low),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("processor stopping")
	return nil
}

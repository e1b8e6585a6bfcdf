package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Nicholas-Amsler/lung-iq/internal/analysis"
	"github.com/Nicholas-Amsler/lung-iq/internal/stream"
	"github.com/Nicholas-Amsler/lung-iq/internal/waveform"
)

// Config is shared by the producer, processor and server.
type Config struct {
	NATS      NATSConfig      `yaml:"nats"`
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Alarms    analysis.Limits `yaml:"alarms"`
}

type NATSConfig struct {
	URL      string          `yaml:"url"`
	Subjects stream.Subjects `yaml:"subjects"`
}

type HTTPConfig struct {
	Addr   string `yaml:"addr"`
	WebDir string `yaml:"web_dir"`
}

// RedisConfig selects the progress store. An empty Addr keeps progress in
// memory.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SimulatorConfig struct {
	Tick      time.Duration `yaml:"tick"`
	EtCO2Max  float64       `yaml:"etco2_max"`
	CacheSize int           `yaml:"cache_size"`
}

func Default() Config {
	return Config{
		NATS: NATSConfig{
			URL:      "nats://127.0.0.1:4222",
			Subjects: stream.DefaultSubjects(),
		},
		HTTP:  HTTPConfig{Addr: ":8080", WebDir: "./web"},
		Redis: RedisConfig{KeyPrefix: "lungiq:"},
		Log:   LogConfig{Level: "info", Format: "json"},
		Simulator: SimulatorConfig{
			Tick:      80 * time.Millisecond,
			EtCO2Max:  waveform.DefaultEtCO2,
			CacheSize: waveform.DefaultCacheSize,
		},
		Alarms: analysis.DefaultLimits(),
	}
}

// Load reads path over the defaults (a missing path is allowed when empty)
// and then applies LUNGIQ_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.loadFromEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFromEnv() error {
	if v := os.Getenv("LUNGIQ_NATS_URL"); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv("LUNGIQ_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("LUNGIQ_WEB_DIR"); v != "" {
		c.HTTP.WebDir = v
	}
	if v := os.Getenv("LUNGIQ_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("LUNGIQ_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LUNGIQ_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LUNGIQ_REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("LUNGIQ_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LUNGIQ_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("LUNGIQ_TICK"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LUNGIQ_TICK: %w", err)
		}
		c.Simulator.Tick = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.NATS.URL == "" {
		errs = append(errs, errors.New("nats.url is required"))
	}
	s := c.NATS.Subjects
	if s.Wave == "" || s.Metrics == "" || s.Alarms == "" || s.Control == "" {
		errs = append(errs, errors.New("all nats.subjects must be set"))
	}
	if c.Simulator.Tick <= 0 {
		errs = append(errs, fmt.Errorf("simulator.tick must be positive, got %s", c.Simulator.Tick))
	}
	if c.Alarms.Low > c.Alarms.High {
		errs = append(errs, fmt.Errorf("alarms.low (%g) above alarms.high (%g)", c.Alarms.Low, c.Alarms.High))
	}
	return errors.Join(errs...)
}

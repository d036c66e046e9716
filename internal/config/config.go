package config

import (
	"os"
	"strings"
	"time"

	"github.com/healthsync/vitalsim/internal/device"
	"github.com/healthsync/vitalsim/internal/errors"
	"github.com/healthsync/vitalsim/internal/vitals"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultBackendURL  = "http://localhost:5000/api"
	defaultAuthToken   = "demo_token"
	defaultAnomalyRate = 0.05
	defaultJoinTimeout = 5
	defaultPushTimeout = 5
	defaultArchiveDB   = "/var/lib/vitalsim/readings.db"
)

// Device is one simulated device descriptor as it appears in the
// configuration file.
type Device struct {
	ID       string   `mapstructure:"id"`
	Name     string   `mapstructure:"name"`
	Type     string   `mapstructure:"type"`
	Interval int      `mapstructure:"interval"`
	Metrics  []string `mapstructure:"metrics"`
}

type Config struct {
	BackendURL  string   `mapstructure:"backend_url"`
	AuthToken   string   `mapstructure:"auth_token"`
	AnomalyRate float64  `mapstructure:"anomaly_rate"`
	Duration    int      `mapstructure:"duration"`     // seconds; 0 = run until interrupted
	JoinTimeout int      `mapstructure:"join_timeout"` // seconds
	PushTimeout int      `mapstructure:"push_timeout"` // seconds
	Seed        int64    `mapstructure:"seed"`         // 0 = time-based
	LogLevel    string   `mapstructure:"log_level"`
	Archive     bool     `mapstructure:"archive"`
	ArchiveDB   string   `mapstructure:"archive_db"`
	MetricsAddr string   `mapstructure:"metrics_addr"` // empty = no exposition server
	Devices     []Device `mapstructure:"devices"`
}

// Load reads configuration from file, environment and flags, in
// ascending precedence, and validates the result. Malformed device
// descriptors are fatal here, before any worker is spawned.
func Load() (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("vitalsim", pflag.ContinueOnError)
	// Tolerate foreign flags (notably the test runner's).
	fs.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: true}
	fs.String("backend-url", defaultBackendURL, "Ingestion backend base URL")
	fs.Float64("anomaly-rate", defaultAnomalyRate, "Per-cycle anomaly trigger probability")
	fs.Int("duration", 0, "Total run duration in seconds (0 = until interrupted)")
	fs.Int64("seed", 0, "RNG seed for reproducible runs (0 = time-based)")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warning, error")
	fs.Bool("archive", false, "Archive emitted readings to the local database")
	fs.String("metrics-addr", "", "Listen address for the Prometheus endpoint")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	v := viper.New()
	v.SetDefault("backend_url", defaultBackendURL)
	v.SetDefault("auth_token", defaultAuthToken)
	v.SetDefault("anomaly_rate", defaultAnomalyRate)
	v.SetDefault("duration", 0)
	v.SetDefault("join_timeout", defaultJoinTimeout)
	v.SetDefault("push_timeout", defaultPushTimeout)
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("archive", false)
	v.SetDefault("archive_db", defaultArchiveDB)
	v.SetDefault("metrics_addr", "")

	// Load configuration from file
	if path := os.Getenv("VITALSIM_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vitalsim")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err).
				WithMessage("Failed to read config file")
		}
	}

	// Flags set on the command line override file values
	fs.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if len(config.Devices) == 0 {
		config.Devices = DefaultDevices()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks every tunable the simulation depends on.
func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.LogLevel {
	case "debug", "info", "warning", "warn", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.AnomalyRate < 0 || c.AnomalyRate > 1 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "anomaly_rate must be within [0,1]")
	}
	if c.Duration < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Duration)
	}
	if c.JoinTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.JoinTimeout)
	}
	if c.Archive && c.ArchiveDB == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "archive enabled without archive_db")
	}

	for _, d := range c.Devices {
		if d.ID == "" || len(d.Metrics) == 0 {
			return errFactory.WithData(errors.ErrInvalidDevice, d.Name)
		}
		if d.Interval <= 0 {
			return errFactory.WithData(errors.ErrInvalidInterval, d.ID)
		}
		for _, m := range d.Metrics {
			if !vitals.ValidMetric(m) {
				return errFactory.WithData(errors.ErrUnknownMetric, m)
			}
		}
	}

	return nil
}

// DeviceConfigs converts the descriptors into worker configurations.
func (c *Config) DeviceConfigs() []device.Config {
	devices := make([]device.Config, len(c.Devices))
	for i, d := range c.Devices {
		metrics := make([]vitals.Metric, len(d.Metrics))
		for j, m := range d.Metrics {
			metrics[j] = vitals.Metric(m)
		}
		devices[i] = device.Config{
			ID:       d.ID,
			Name:     d.Name,
			Type:     d.Type,
			Interval: time.Duration(d.Interval) * time.Second,
			Metrics:  metrics,
		}
	}

	return devices
}

// DefaultDevices is the stock five-device fleet used when the config
// file declares none.
func DefaultDevices() []Device {
	return []Device{
		{
			ID:       "dev_001",
			Name:     "Smart Watch Pro",
			Type:     "smartwatch",
			Interval: 5,
			Metrics:  []string{"heart_rate", "hrv", "steps", "calories", "stress_level"},
		},
		{
			ID:       "dev_002",
			Name:     "Blood Pressure Cuff",
			Type:     "blood_pressure",
			Interval: 30,
			Metrics:  []string{"systolic_bp", "diastolic_bp"},
		},
		{
			ID:       "dev_003",
			Name:     "Pulse Oximeter",
			Type:     "pulse_ox",
			Interval: 3,
			Metrics:  []string{"spo2", "heart_rate"},
		},
		{
			ID:       "dev_004",
			Name:     "Smart Thermometer",
			Type:     "thermometer",
			Interval: 60,
			Metrics:  []string{"temperature"},
		},
		{
			ID:       "dev_005",
			Name:     "Sleep Tracker Band",
			Type:     "sleep_band",
			Interval: 300,
			Metrics:  []string{"sleep_hours", "hrv"},
		},
	}
}

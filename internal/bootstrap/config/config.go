package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"thientai/internal/bootstrap/logging"
	"thientai/internal/errs"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Collector CollectorConfig `mapstructure:"collector"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type CollectorConfig struct {
	ScanInterval      time.Duration `mapstructure:"scan_interval"`
	RetentionInterval time.Duration `mapstructure:"retention_interval"`
	ClusterRadiusKm   float64       `mapstructure:"cluster_radius_km"`
	AlertTTL          time.Duration `mapstructure:"alert_ttl"`
	HistoryKeepDays   int           `mapstructure:"history_keep_days"`
	ProvinceRainCap   int           `mapstructure:"province_rain_cap"`
	DataFile          string        `mapstructure:"data_file"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Collector.ScanInterval <= 0 {
		return Config{}, errors.New("collector.scan_interval must be positive")
	}
	if cfg.Collector.RetentionInterval < cfg.Collector.ScanInterval {
		return Config{}, errors.New("collector.retention_interval must not be shorter than scan_interval")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Duration("scan_interval", cfg.Collector.ScanInterval),
	)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "thientai")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/thientai.sqlite")
	v.SetDefault("collector.scan_interval", "15m")
	v.SetDefault("collector.retention_interval", "6h")
	v.SetDefault("collector.cluster_radius_km", 50.0)
	v.SetDefault("collector.alert_ttl", "3h")
	v.SetDefault("collector.history_keep_days", 30)
	v.SetDefault("collector.province_rain_cap", 100)
	v.SetDefault("collector.data_file", "data/observations.json")
}

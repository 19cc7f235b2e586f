package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Routes   RoutesConfig   `yaml:"routes" mapstructure:"routes"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// GeocoderConfig configures the external geocoding provider.
type GeocoderConfig struct {
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// PipelineConfig configures the enrichment run.
type PipelineConfig struct {
	ReferenceAddress string        `yaml:"reference_address" mapstructure:"reference_address"`
	FallbackLat      float64       `yaml:"fallback_lat" mapstructure:"fallback_lat"`
	FallbackLng      float64       `yaml:"fallback_lng" mapstructure:"fallback_lng"`
	Locality         string        `yaml:"locality" mapstructure:"locality"`
	Region           string        `yaml:"region" mapstructure:"region"`
	MinInterval      time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// RoutesConfig configures the transit-line registry.
type RoutesConfig struct {
	LinesFile string `yaml:"lines_file" mapstructure:"lines_file"`
}

// ServerConfig configures the map-data HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "guiaurbana-geocore/1.0 (contacto@guiaurbana.ar)")
	v.SetDefault("pipeline.reference_address", "Monteagudo 2772, Pergamino, Buenos Aires")
	// Approximate campus coordinate, used only when the reference address
	// fails to resolve.
	v.SetDefault("pipeline.fallback_lat", -33.9137)
	v.SetDefault("pipeline.fallback_lng", -60.5868)
	v.SetDefault("pipeline.locality", "Pergamino")
	v.SetDefault("pipeline.region", "Buenos Aires")
	v.SetDefault("pipeline.min_interval", "1500ms")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "geocore.db")
	v.SetDefault("routes.lines_file", "lines.yaml")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

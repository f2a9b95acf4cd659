// Package config loads service settings through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "RIDEPOOL"

type Config struct {
	Server     Server
	Logging    Logging
	Jobs       Jobs
	Anneal     Anneal
	Validation Validation
	Geocode    Geocode
	Database   Database
	Redis      Redis
	Webhooks   Webhooks
	Rate       Rate
	Metrics    Metrics
	Auth       Auth
}

type Server struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type Logging struct {
	Level   string `mapstructure:"level"`
	Profile string `mapstructure:"profile"`
}

type Jobs struct {
	Workers       int           `mapstructure:"workers"`
	QueueSize     int           `mapstructure:"queue_size"`
	StatusWait    time.Duration `mapstructure:"status_wait"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
	Seed          int64         `mapstructure:"seed"`
}

type Anneal struct {
	MaxIterations int     `mapstructure:"max_iterations"`
	InitialTemp   float64 `mapstructure:"initial_temp"`
	MinTemp       float64 `mapstructure:"min_temp"`
	CoolingRate   float64 `mapstructure:"cooling_rate"`
	TwoOptPasses  int     `mapstructure:"two_opt_passes"`
}

type Validation struct {
	AvgSpeedKmh     float64 `mapstructure:"avg_speed_kmh"`
	MaxRouteMinutes float64 `mapstructure:"max_route_minutes"`
}

type Geocode struct {
	CenterLat float64 `mapstructure:"center_lat"`
	CenterLon float64 `mapstructure:"center_lon"`
	Spread    float64 `mapstructure:"spread"`
}

type Database struct {
	URL     string `mapstructure:"url"`
	Migrate bool   `mapstructure:"migrate"`
}

type Redis struct {
	URL string `mapstructure:"url"`
}

type Webhooks struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Secret       string        `mapstructure:"secret"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type Rate struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Auth guards admin endpoints; an empty secret leaves them open.
type Auth struct {
	HMACSecret string `mapstructure:"hmac_secret"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", "5s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("jobs.workers", 0)
	v.SetDefault("jobs.queue_size", 64)
	v.SetDefault("jobs.status_wait", "50ms")
	v.SetDefault("jobs.shutdown_grace", "60s")
	v.SetDefault("jobs.seed", 0)

	v.SetDefault("anneal.max_iterations", 1000)
	v.SetDefault("anneal.initial_temp", 1000.0)
	v.SetDefault("anneal.min_temp", 1.0)
	v.SetDefault("anneal.cooling_rate", 0.003)
	v.SetDefault("anneal.two_opt_passes", 0)

	v.SetDefault("validation.avg_speed_kmh", 40.0)
	v.SetDefault("validation.max_route_minutes", 120.0)

	v.SetDefault("geocode.center_lat", 48.85)
	v.SetDefault("geocode.center_lon", 2.35)
	v.SetDefault("geocode.spread", 0.1)

	v.SetDefault("database.url", "")
	v.SetDefault("database.migrate", true)
	v.SetDefault("redis.url", "")

	v.SetDefault("webhooks.max_attempts", 10)
	v.SetDefault("webhooks.secret", "")
	v.SetDefault("webhooks.poll_interval", "1s")

	v.SetDefault("rate.rps", 5.0)
	v.SetDefault("rate.burst", 10)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("auth.hmac_secret", "")
}

// BindEnv makes RIDEPOOL_SECTION_KEY override section.key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and checks value ranges.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Jobs.Workers < 0:
		return fmt.Errorf("jobs.workers must be >= 0")
	case c.Jobs.QueueSize <= 0:
		return fmt.Errorf("jobs.queue_size must be > 0")
	case c.Jobs.StatusWait <= 0:
		return fmt.Errorf("jobs.status_wait must be > 0")
	case c.Anneal.MaxIterations <= 0:
		return fmt.Errorf("anneal.max_iterations must be > 0")
	case c.Anneal.CoolingRate <= 0 || c.Anneal.CoolingRate >= 1:
		return fmt.Errorf("anneal.cooling_rate must be in (0,1)")
	case c.Anneal.MinTemp <= 0 || c.Anneal.InitialTemp <= c.Anneal.MinTemp:
		return fmt.Errorf("anneal temperatures must satisfy 0 < min_temp < initial_temp")
	case c.Anneal.TwoOptPasses < 0:
		return fmt.Errorf("anneal.two_opt_passes must be >= 0")
	case c.Validation.AvgSpeedKmh <= 0:
		return fmt.Errorf("validation.avg_speed_kmh must be > 0")
	case c.Validation.MaxRouteMinutes <= 0:
		return fmt.Errorf("validation.max_route_minutes must be > 0")
	case c.Geocode.Spread <= 0:
		return fmt.Errorf("geocode.spread must be > 0")
	case c.Rate.RPS <= 0 || c.Rate.Burst <= 0:
		return fmt.Errorf("rate.rps and rate.burst must be > 0")
	}
	return nil
}

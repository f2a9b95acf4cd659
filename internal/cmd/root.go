// Package cmd holds the ridepool command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"ridepool/internal/config"
	"ridepool/internal/logging"
)

var (
	cfgFile string
	v       = viper.New()

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ridepool",
	Short: "Carpool rider assignment and route optimization",
	Long: `ridepool assigns riders to vehicles under seat limits, orders each
vehicle's pickups with nearest-neighbour construction and simulated
annealing, and reports capacity and connectivity conflicts.

Configuration is read from --config (YAML), then RIDEPOOL_* environment
variables, e.g. RIDEPOOL_JOBS_WORKERS=4.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func setup(cmd *cobra.Command, _ []string) error {
	if cmd == versionCmd {
		return nil
	}
	c, err := loadConfig()
	if err != nil {
		return err
	}
	l, err := logging.New(c.Logging.Level, c.Logging.Profile)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

func loadConfig() (*config.Config, error) {
	config.SetDefaults(v)
	config.BindEnv(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return config.Load(v)
}

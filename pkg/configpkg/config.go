// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"errors"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper from a config file, environment
// variables or command-line flags (flags take precedence).
type Config struct {
	ServerAddress  string `mapstructure:"SERVER_ADDRESS"`
	MetricsAddress string `mapstructure:"METRICS_ADDRESS"`
	StateFile      string `mapstructure:"STATE_FILE"`
	Environement   string `mapstructure:"GO_ENV"`
}

// Load reads configuration from file, environment variables and the
// given flag set. The config file is optional; flags and defaults are
// enough to run.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	var c Config

	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	viper.SetDefault("METRICS_ADDRESS", "0.0.0.0:9102")
	viper.SetDefault("STATE_FILE", "")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, err
		}
	}

	if flags != nil {
		if err := bindFlags(flags); err != nil {
			return c, err
		}
	}

	if err := viper.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, nil
}

func bindFlags(flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"SERVER_ADDRESS":  "server-address",
		"METRICS_ADDRESS": "metrics-address",
		"STATE_FILE":      "state-file",
	}

	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}

		if err := viper.BindPFlag(key, flag); err != nil {
			return err
		}
	}

	return nil
}

// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"strings"
	"time"

	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer normalizes configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes defaults, environment bindings and the optional finplay.toml file.
func Setup() error {
	viper.SetConfigName(constant.Finplay)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Finplay)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// Millis reads an integer key holding milliseconds as a duration.
// Non-positive values fall back to the registered default.
func Millis(key string) time.Duration {
	ms := viper.GetInt(key)
	if ms <= 0 {
		if field, ok := Default[key]; ok {
			if v, ok := field.Value.(int); ok {
				ms = v
			}
		}
	}
	return time.Duration(ms) * time.Millisecond
}

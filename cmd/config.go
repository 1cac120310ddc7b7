package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/config"
	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/where"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func configFilePath() string {
	return filepath.Join(where.Config(), constant.Finplay+".toml")
}

// closestKey returns the registered key nearest to k by edit distance.
func closestKey(k string) string {
	return lo.MinBy(lo.Keys(config.Default), func(a, b string) bool {
		return levenshtein.Distance(k, a) < levenshtein.Distance(k, b)
	})
}

func errUnknownKey(k string) error {
	return fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(k),
		style.Fg(color.Yellow)(closestKey(k)),
	)
}

func lookupField(k string) config.Field {
	field, ok := config.Default[k]
	if !ok {
		handleErr(errUnknownKey(k))
	}
	return field
}

// parseValue converts raw command-line values to the type of the field default.
func parseValue(field config.Field, raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, errors.New("value is required")
	}

	switch field.Value.(type) {
	case string:
		return raw[0], nil
	case int:
		v, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", raw[0])
		}
		return v, nil
	case bool:
		v, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", raw[0])
		}
		return v, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported type for %s", field.Key)
	}
}

// persistConfig writes viper's state, creating the file on first write.
func persistConfig() error {
	err := viper.WriteConfig()
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		return viper.SafeWriteConfig()
	}
	return err
}

func completionConfigKeys(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInfoCmd, configSetCmd, configGetCmd, configWriteCmd, configDeleteCmd, configResetCmd)

	configInfoCmd.Flags().StringSliceP("key", "k", []string{}, "Keys to describe")
	configInfoCmd.Flags().BoolP("json", "j", false, "Print as JSON")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
	configInfoCmd.SetOut(os.Stdout)

	configWriteCmd.Flags().BoolP("force", "f", false, "Overwrite the existing config file")

	configResetCmd.Flags().StringP("key", "k", "", "Key to reset")
	configResetCmd.Flags().BoolP("all", "a", false, "Reset every key")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")
	_ = configResetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change the configuration",
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe configuration keys",
	Run: func(cmd *cobra.Command, args []string) {
		keys := lo.Must(cmd.Flags().GetStringSlice("key"))
		fields := lo.Values(config.Default)
		if len(keys) > 0 {
			fields = lo.Map(keys, func(k string, _ int) config.Field {
				return lookupField(k)
			})
		}

		sort.Slice(fields, func(i, j int) bool {
			return fields[i].Key < fields[j].Key
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		pretty := lo.Map(fields, func(f config.Field, _ int) string {
			return f.Pretty()
		})
		cmd.Println(strings.Join(pretty, "\n\n"))
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set <key> <value...>",
	Short:             "Set a configuration value",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		field := lookupField(args[0])
		v, err := parseValue(field, args[1:])
		handleErr(err)

		viper.Set(field.Key, v)
		handleErr(persistConfig())

		fmt.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Success)(icon.Get(icon.Success)),
			style.Fg(color.Key)(field.Key),
			style.Fg(color.Yellow)(fmt.Sprint(v)),
		)
	},
}

var configGetCmd = &cobra.Command{
	Use:               "get <key>",
	Short:             "Print a configuration value",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(viper.Get(lookupField(args[0]).Key))
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the current configuration to the config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := configFilePath()
		if lo.Must(cmd.Flags().GetBool("force")) {
			if exists, _ := filesystem.API().Exists(path); exists {
				handleErr(filesystem.API().Remove(path))
			}
		}

		handleErr(viper.SafeWriteConfig())
		fmt.Printf("%s wrote config to %s\n", style.Fg(color.Success)(icon.Get(icon.Success)), path)
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Delete the config file",
	Aliases: []string{"remove"},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configFilePath()))
		fmt.Printf("%s deleted config\n", style.Fg(color.Success)(icon.Get(icon.Success)))
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore default values",
	PreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("key") && !cmd.Flags().Changed("all") {
			handleErr(errors.New("either --key or --all must be set"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("all")) {
			for k, field := range config.Default {
				viper.Set(k, field.Value)
			}
			handleErr(persistConfig())
			fmt.Printf("%s reset all config values\n", style.Fg(color.Success)(icon.Get(icon.Success)))
			return
		}

		field := lookupField(lo.Must(cmd.Flags().GetString("key")))
		viper.Set(field.Key, field.Value)
		handleErr(persistConfig())

		fmt.Printf(
			"%s reset %s to default value %s\n",
			style.Fg(color.Success)(icon.Get(icon.Success)),
			style.Fg(color.Key)(field.Key),
			style.Fg(color.Yellow)(fmt.Sprint(field.Value)),
		)
	},
}

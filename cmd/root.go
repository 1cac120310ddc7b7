// Package cmd implements the finplay command-line interface.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/constant"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/log"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/util"
	"github.com/anisan-cli/finplay/version"
	"github.com/anisan-cli/finplay/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant ("+strings.Join(icon.AvailableVariants(), ", ")+")")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Remember where local files stopped")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnStop, rootCmd.PersistentFlags().Lookup("write-history")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Stale engine sockets from crashed sessions.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.Finplay,
	Short: "Media server playback from the terminal",
	Long: style.Bold(constant.Finplay) + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Media server playback from the terminal"),
	Args: cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if variant := viper.GetString(key.IconsVariant); !icon.IsVariant(variant) {
			return fmt.Errorf("unknown icons variant %q, available: %s", variant, strings.Join(icon.AvailableVariants(), ", "))
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		playCmd.Run(playCmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

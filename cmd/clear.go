package cmd

import (
	"fmt"

	"github.com/anisan-cli/finplay/color"
	"github.com/anisan-cli/finplay/icon"
	"github.com/anisan-cli/finplay/style"
	"github.com/anisan-cli/finplay/util"
	"github.com/anisan-cli/finplay/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"resume history", "history", mo.Some("s"), where.History},
	{"cached preferences", "preferences", mo.Some("p"), where.Preferences},
	{"now playing snapshot", "nowplaying", mo.Some("n"), where.NowPlaying},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached and persisted application data",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anyCleared = true
			name := util.Capitalize(target.name)
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), name))
			err := util.Delete(target.location())
			erase()
			if err != nil {
				fmt.Printf("%s %s: nothing to clear\n", style.Fg(color.Warning)(icon.Get(icon.Warn)), name)
				continue
			}
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), name)
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
